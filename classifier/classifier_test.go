package classifier

import (
	"bytes"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/fumitoshi0524/exprnet/nn"
	"github.com/fumitoshi0524/exprnet/optim"
	"github.com/fumitoshi0524/exprnet/tensor"
)

func separable(n, dim int, seed int64) *Dataset {
	rng := rand.New(rand.NewSource(seed))
	vectors := mat.NewDense(n, dim, nil)
	labels := make([]int, n)
	for i := 0; i < n; i++ {
		labels[i] = i % 2
		center := -2.0
		if labels[i] == 1 {
			center = 2
		}
		for j := 0; j < dim; j++ {
			vectors.Set(i, j, center+0.3*rng.NormFloat64())
		}
	}
	return &Dataset{Vectors: vectors, Labels: labels}
}

func TestSplitSizes(t *testing.T) {
	ntrain, ntest, nval, err := Split(25, [3]float64{0.7, 0.1, 0.2})
	if err != nil {
		t.Fatalf("Split error: %v", err)
	}
	if ntrain != 17 || ntest != 2 || nval != 6 {
		t.Fatalf("split = %d/%d/%d, want 17/2/6", ntrain, ntest, nval)
	}
	if _, _, _, err := Split(5, [3]float64{0.7, 0.1, 0.2}); err == nil {
		t.Fatalf("expected error for empty test part")
	}
	if _, _, _, err := Split(10, [3]float64{0.8, 0.2, 0}); err == nil {
		t.Fatalf("expected error for empty validation part")
	}
}

func TestRotateMovesRowsRight(t *testing.T) {
	d := &Dataset{
		Vectors: mat.NewDense(4, 2, []float64{0, 0, 1, 1, 2, 2, 3, 3}),
		Labels:  []int{0, 1, 2, 3},
	}
	r := d.Rotate(1)
	if !reflect.DeepEqual(r.Labels, []int{3, 0, 1, 2}) {
		t.Fatalf("labels after rotate = %v", r.Labels)
	}
	if !floats.Equal(r.Vectors.RawRowView(0), []float64{3, 3}) {
		t.Fatalf("row 0 after rotate = %v", r.Vectors.RawRowView(0))
	}
	if back := r.Rotate(-1); !reflect.DeepEqual(back.Labels, d.Labels) {
		t.Fatalf("rotate back = %v", back.Labels)
	}
	if same := d.Rotate(4); !reflect.DeepEqual(same.Labels, d.Labels) {
		t.Fatalf("full rotation changed order: %v", same.Labels)
	}
}

func TestShuffleKeepsPairs(t *testing.T) {
	d := &Dataset{
		Vectors: mat.NewDense(6, 1, []float64{0, 1, 2, 3, 4, 5}),
		Labels:  []int{0, 1, 2, 3, 4, 5},
	}
	d.Shuffle(rand.New(rand.NewSource(7)))
	seen := map[int]bool{}
	for i, l := range d.Labels {
		if d.Vectors.At(i, 0) != float64(l) {
			t.Fatalf("row %d: vector %v detached from label %d", i, d.Vectors.At(i, 0), l)
		}
		seen[l] = true
	}
	if len(seen) != 6 {
		t.Fatalf("shuffle lost rows: %v", d.Labels)
	}
}

func TestAccuracy(t *testing.T) {
	scores := tensor.MustNew([]float64{
		0.9, 0.1,
		0.2, 0.8,
		0.6, 0.4,
		0.3, 0.7,
	}, 4, 2)
	acc, err := Accuracy(scores, []int{0, 1, 1, 1})
	if err != nil {
		t.Fatalf("Accuracy error: %v", err)
	}
	if acc != 0.75 {
		t.Fatalf("accuracy = %v, want 0.75", acc)
	}
	if _, err := Accuracy(scores, []int{0, 1}); err == nil {
		t.Fatalf("expected error for label count mismatch")
	}
}

func TestNewNetworkInitialisation(t *testing.T) {
	tensor.Seed(11)
	net := NewNetwork(5, 8, 0.5, false)
	params := net.Parameters()
	if len(params) != 4 {
		t.Fatalf("expected 4 parameter tensors, got %d", len(params))
	}
	for _, idx := range []int{1, 3} {
		for _, v := range params[idx].Data() {
			if v != initBias {
				t.Fatalf("bias %d holds %v, want %v", idx, v, initBias)
			}
		}
	}
	if InputDim(net) != 5 {
		t.Fatalf("InputDim = %d", InputDim(net))
	}
	scaled := NewNetwork(5, 8, 0.5, true)
	if len(scaled.Parameters()) != 5 || InputDim(scaled) != 5 {
		t.Fatalf("scaled network has %d parameters, input %d", len(scaled.Parameters()), InputDim(scaled))
	}

	x := tensor.Randn(3, 5)
	net.Eval()
	a, err := net.Forward(x)
	if err != nil {
		t.Fatalf("forward error: %v", err)
	}
	b, err := net.Forward(x)
	if err != nil {
		t.Fatalf("forward error: %v", err)
	}
	if !floats.Equal(a.Data(), b.Data()) {
		t.Fatalf("evaluation mode is not deterministic")
	}
}

func TestCrossValidateLearnsSeparableData(t *testing.T) {
	tensor.Seed(12)
	data := separable(40, 4, 12)
	cfg := DefaultConfig()
	cfg.NumFolds = 2
	cfg.NumEpochs = 30
	cfg.Hidden = 16
	cfg.Dropout = 0
	cfg.LearningRate = 1e-2
	cfg.BatchSize = 8
	cfg.TrainTestVal = "0.6,0.2,0.2"
	var out bytes.Buffer
	results, net, err := CrossValidate(data, cfg, &out)
	if err != nil {
		t.Fatalf("CrossValidate error: %v", err)
	}
	if len(results) != 2 || net == nil {
		t.Fatalf("expected 2 folds and a network, got %d folds", len(results))
	}
	for _, r := range results {
		if len(r.Epochs) != 30 {
			t.Fatalf("fold %d recorded %d epochs", r.Fold, len(r.Epochs))
		}
		if r.ValidationAccuracy < 0.75 {
			t.Fatalf("fold %d validation accuracy %v", r.Fold, r.ValidationAccuracy)
		}
		best := 0.0
		for _, e := range r.Epochs {
			best = math.Max(best, e.TestAccuracy)
		}
		if r.BestTestAccuracy != best {
			t.Fatalf("fold %d restored test accuracy %v, best epoch had %v", r.Fold, r.BestTestAccuracy, best)
		}
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2*(30+2) {
		t.Fatalf("expected %d progress lines, got %d", 2*32, len(lines))
	}
	if !strings.HasPrefix(lines[31], "Fold 0 has validation accuracy ") {
		t.Fatalf("unexpected fold summary line %q", lines[31])
	}
	mean, std := Summary(results)
	if mean < 0.75 || std < 0 {
		t.Fatalf("summary mean %v std %v", mean, std)
	}
}

func TestSummary(t *testing.T) {
	mean, std := Summary([]FoldResult{{ValidationAccuracy: 0.4}})
	if mean != 0.4 || std != 0 {
		t.Fatalf("summary = %v, %v", mean, std)
	}
	mean, std = Summary([]FoldResult{{ValidationAccuracy: 0.5}, {ValidationAccuracy: 1}})
	if mean != 0.75 || math.Abs(std-math.Sqrt(0.125)) > 1e-12 {
		t.Fatalf("summary = %v, %v", mean, std)
	}
}

func TestSaveAndLoadNetwork(t *testing.T) {
	tensor.Seed(13)
	net := NewNetwork(3, 4, 0.5, true)
	path := filepath.Join(t.TempDir(), "model.json")
	if err := nn.SaveModule(path, net); err != nil {
		t.Fatalf("SaveModule error: %v", err)
	}
	loaded, err := LoadNetwork(path)
	if err != nil {
		t.Fatalf("LoadNetwork error: %v", err)
	}
	if InputDim(loaded) != 3 {
		t.Fatalf("loaded input dim %d", InputDim(loaded))
	}
	x := mat.NewDense(2, 3, []float64{1, 2, 3, -1, 0, 1})
	want, err := Predict(net, x)
	if err != nil {
		t.Fatalf("Predict error: %v", err)
	}
	got, err := Predict(loaded, x)
	if err != nil {
		t.Fatalf("Predict error: %v", err)
	}
	if !floats.EqualApprox(got.Data(), want.Data(), 1e-12) {
		t.Fatalf("loaded predictions %v, want %v", got.Data(), want.Data())
	}
	for i := 0; i < 2; i++ {
		if s := floats.Sum(got.Row(i)); math.Abs(s-1) > 1e-9 {
			t.Fatalf("row %d probabilities sum to %v", i, s)
		}
	}
}

func writeFixture(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadDatasetOrdersPositivesFirst(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.PosGroup = "tumor"
	cfg.NegGroup = "normal"
	cfg.MetaData = writeFixture(t, dir, "meta.csv", "a,normal\nb,tumor\nc,normal\nd,tumor\n")
	cfg.Expression = writeFixture(t, dir, "expr.csv", "gene,a,b,c,d\nG1,1,2,3,4\nG2,5,6,7,8\nG3,9,10,11,12\n")
	cfg.MarkerFiles = writeFixture(t, dir, "m1.txt", "header\n\"G3\" 1\n") + "," +
		writeFixture(t, dir, "m2.txt", "header\n\"G1\" 1\n")

	data, err := LoadDataset(cfg)
	if err != nil {
		t.Fatalf("LoadDataset error: %v", err)
	}
	if !reflect.DeepEqual(data.Labels, []int{1, 1, 0, 0}) {
		t.Fatalf("labels = %v", data.Labels)
	}
	if data.Dim() != 3 || !floats.Equal(data.Vectors.RawRowView(0), []float64{2, 6, 10}) {
		t.Fatalf("first positive = %v", data.Vectors.RawRowView(0))
	}

	cfg.UseMarkerGenes = true
	data, err = LoadDataset(cfg)
	if err != nil {
		t.Fatalf("LoadDataset with markers error: %v", err)
	}
	if data.Dim() != 2 || !floats.Equal(data.Vectors.RawRowView(2), []float64{1, 9}) {
		t.Fatalf("marker restricted row = %v", data.Vectors.RawRowView(2))
	}

	cfg.NegGroup = "absent"
	if _, err := LoadDataset(cfg); err == nil {
		t.Fatalf("expected error without negative patients")
	}
}

func TestConfigValidate(t *testing.T) {
	valid := DefaultConfig()
	valid.PosGroup, valid.NegGroup = "a", "b"
	valid.Expression, valid.MetaData = "expr.csv", "meta.csv"
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
	for i, mutate := range []func(*Config){
		func(c *Config) { c.ClassifierType = "RF" },
		func(c *Config) { c.TrainTestVal = "0.7,0.3" },
		func(c *Config) { c.TrainTestVal = "0.7,x,0.2" },
		func(c *Config) { c.UseMarkerGenes = true },
		func(c *Config) { c.NumFolds = 0 },
		func(c *Config) { c.Dropout = 1 },
		func(c *Config) { c.MetaData = "" },
		func(c *Config) { c.Momentum = 1 },
		func(c *Config) { c.WeightDecay = -0.1 },
	} {
		c := valid
		mutate(&c)
		if err := c.Validate(); err == nil {
			t.Fatalf("case %d: expected validation error", i)
		}
	}
	fractions, err := valid.Fractions()
	if err != nil || fractions != [3]float64{0.7, 0.1, 0.2} {
		t.Fatalf("fractions = %v, %v", fractions, err)
	}
}

func TestNewFoldPassesOptimizerSettings(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Hidden = 4
	cfg.Optimizer = "sgd"
	cfg.Momentum = 0.9
	cfg.Nesterov = true
	cfg.WeightDecay = 1e-4
	f, err := newFold(3, cfg, nil)
	if err != nil {
		t.Fatalf("newFold error: %v", err)
	}
	if _, ok := f.opt.(*optim.SGD); !ok {
		t.Fatalf("expected *optim.SGD, got %T", f.opt)
	}
	cfg.Optimizer = "adam"
	if _, err := newFold(3, cfg, nil); err == nil {
		t.Fatalf("expected nesterov to be rejected for adam")
	}
}
