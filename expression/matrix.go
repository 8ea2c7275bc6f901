package expression

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// Matrix is an expression table with one row per gene and one column per
// patient.
type Matrix struct {
	genes    []string
	patients map[string]int
	values   *mat.Dense // genes × patients
}

// ReadMatrix loads a table whose header row is "gene,<patient ids...>".
// Files ending in .tsv or .txt are tab separated, anything else is CSV.
func ReadMatrix(path string) (*Matrix, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	comma := ','
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tsv", ".txt":
		comma = '\t'
	}
	m, err := parseMatrix(f, comma)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

func parseMatrix(r io.Reader, comma rune) (*Matrix, error) {
	reader := csv.NewReader(r)
	reader.Comma = comma
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) < 2 {
		return nil, errors.New("header needs a gene column and at least one patient")
	}
	patients := make(map[string]int, len(header)-1)
	for j, id := range header[1:] {
		id = strings.TrimSpace(id)
		if _, dup := patients[id]; dup {
			return nil, fmt.Errorf("duplicate patient id %q", id)
		}
		patients[id] = j
	}
	cols := len(header) - 1

	var genes []string
	var data []float64
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		genes = append(genes, strings.TrimSpace(record[0]))
		for _, field := range record[1:] {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, fmt.Errorf("gene %s: %w", record[0], err)
			}
			data = append(data, v)
		}
	}
	if len(genes) == 0 {
		return nil, errors.New("no gene rows")
	}
	return &Matrix{genes: genes, patients: patients, values: mat.NewDense(len(genes), cols, data)}, nil
}

func (m *Matrix) Genes() []string {
	return append([]string(nil), m.genes...)
}

func (m *Matrix) NumPatients() int {
	return len(m.patients)
}

// Vectors returns one row per id holding that patient's expression across
// all genes.
func (m *Matrix) Vectors(ids []string) (*mat.Dense, error) {
	if len(ids) == 0 {
		return nil, errors.New("no patient ids requested")
	}
	out := mat.NewDense(len(ids), len(m.genes), nil)
	var missing []string
	for i, id := range ids {
		j, ok := m.patients[id]
		if !ok {
			missing = append(missing, id)
			continue
		}
		out.SetRow(i, mat.Col(nil, j, m.values))
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%d patient ids missing from expression table (first: %s)", len(missing), missing[0])
	}
	return out, nil
}

// Restrict returns a copy that only keeps the listed genes, in table order.
func (m *Matrix) Restrict(genes []string) (*Matrix, error) {
	keep := toSet(genes)
	var rows []int
	for i, g := range m.genes {
		if keep[g] {
			rows = append(rows, i)
		}
	}
	if len(rows) == 0 {
		return nil, errors.New("none of the requested genes are in the expression table")
	}
	_, cols := m.values.Dims()
	values := mat.NewDense(len(rows), cols, nil)
	restricted := make([]string, len(rows))
	for k, i := range rows {
		values.SetRow(k, m.values.RawRowView(i))
		restricted[k] = m.genes[i]
	}
	return &Matrix{genes: restricted, patients: m.patients, values: values}, nil
}
