package tensor

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestSaveAndLoadTensors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	tensors := map[string]*Tensor{
		"a": MustNew([]float64{1, 2, 3, 4}, 2, 2),
		"b": MustNew([]float64{0.5, -0.5}, 2),
	}
	if err := SaveTensors(path, tensors); err != nil {
		t.Fatalf("SaveTensors failed: %v", err)
	}
	loaded, err := LoadTensors(path)
	if err != nil {
		t.Fatalf("LoadTensors failed: %v", err)
	}
	if len(loaded) != len(tensors) {
		t.Fatalf("expected %d tensors, got %d", len(tensors), len(loaded))
	}
	for name, original := range tensors {
		got, ok := loaded[name]
		if !ok {
			t.Fatalf("missing tensor %s", name)
		}
		if !AlmostEqualSlices(original.Data(), got.Data(), 1e-9) || !equalShapes(original.Shape(), got.Shape()) {
			t.Fatalf("tensor %s mismatch", name)
		}
	}
}

func TestWriteTensorsValidatesInput(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteTensors(&buf, map[string]*Tensor{}); err == nil {
		t.Fatalf("expected error for empty tensor map")
	}
	if err := WriteTensors(&buf, map[string]*Tensor{"nil": nil}); err == nil {
		t.Fatalf("expected error when tensor is nil")
	}
}

func TestReadTensorsRejectsBadRecords(t *testing.T) {
	cases := []string{
		"not json",
		`{"w": {"data": [1, 2]}}`,
		`{"w": {"shape": [3], "data": [1, 2]}}`,
	}
	for _, c := range cases {
		if _, err := ReadTensors(bytes.NewBufferString(c)); err == nil {
			t.Fatalf("expected error for %q", c)
		}
	}
}

func TestLoadTensorsMissingFile(t *testing.T) {
	if _, err := LoadTensors(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatalf("expected error for missing file")
	}
	bad := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(bad, []byte("{"), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if _, err := LoadTensors(bad); err == nil {
		t.Fatalf("expected error for malformed json")
	}
}
