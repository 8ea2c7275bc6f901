package classifier

import (
	"errors"
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/fumitoshi0524/exprnet/expression"
)

// Dataset holds one expression vector per row with a 0/1 label.
type Dataset struct {
	Vectors *mat.Dense
	Labels  []int
}

func NewDataset(vectors *mat.Dense, labels []int) (*Dataset, error) {
	if vectors == nil {
		return nil, errors.New("nil vectors")
	}
	if r, _ := vectors.Dims(); r != len(labels) {
		return nil, fmt.Errorf("%d vectors but %d labels", r, len(labels))
	}
	return &Dataset{Vectors: vectors, Labels: labels}, nil
}

func (d *Dataset) Len() int {
	return len(d.Labels)
}

func (d *Dataset) Dim() int {
	_, c := d.Vectors.Dims()
	return c
}

// Slice returns rows [start, end) sharing storage with d.
func (d *Dataset) Slice(start, end int) *Dataset {
	return &Dataset{
		Vectors: d.Vectors.Slice(start, end, 0, d.Dim()).(*mat.Dense),
		Labels:  d.Labels[start:end],
	}
}

// Shuffle permutes the rows in place.
func (d *Dataset) Shuffle(rng *rand.Rand) {
	row := make([]float64, d.Dim())
	rng.Shuffle(d.Len(), func(i, j int) {
		copy(row, d.Vectors.RawRowView(i))
		d.Vectors.SetRow(i, d.Vectors.RawRowView(j))
		d.Vectors.SetRow(j, row)
		d.Labels[i], d.Labels[j] = d.Labels[j], d.Labels[i]
	})
}

// Rotate shifts rows circularly so that row i moves to row (i+k) mod n.
func (d *Dataset) Rotate(k int) *Dataset {
	n := d.Len()
	if n == 0 {
		return d
	}
	k = ((k % n) + n) % n
	vectors := mat.NewDense(n, d.Dim(), nil)
	labels := make([]int, n)
	for i := 0; i < n; i++ {
		dst := (i + k) % n
		vectors.SetRow(dst, d.Vectors.RawRowView(i))
		labels[dst] = d.Labels[i]
	}
	return &Dataset{Vectors: vectors, Labels: labels}
}

// LoadDataset reads the patients of cfg.PosGroup (label 1) followed by those
// of cfg.NegGroup (label 0), restricted to the marker genes when requested.
// Rows are not shuffled.
func LoadDataset(cfg Config) (*Dataset, error) {
	posIDs, negIDs, err := expression.ReadMetadata(cfg.MetaData,
		expression.SplitList(cfg.PosGroup), expression.SplitList(cfg.NegGroup))
	if err != nil {
		return nil, fmt.Errorf("read meta data: %w", err)
	}
	if len(posIDs) == 0 || len(negIDs) == 0 {
		return nil, fmt.Errorf("found %d positive and %d negative patients, need both", len(posIDs), len(negIDs))
	}
	table, err := expression.ReadMatrix(cfg.Expression)
	if err != nil {
		return nil, fmt.Errorf("read expression: %w", err)
	}
	if cfg.UseMarkerGenes {
		genes, err := markerGenes(expression.SplitList(cfg.MarkerFiles))
		if err != nil {
			return nil, err
		}
		if table, err = table.Restrict(genes); err != nil {
			return nil, err
		}
	}
	ids := append(append([]string(nil), posIDs...), negIDs...)
	vectors, err := table.Vectors(ids)
	if err != nil {
		return nil, err
	}
	labels := make([]int, len(ids))
	for i := range posIDs {
		labels[i] = 1
	}
	return NewDataset(vectors, labels)
}

func markerGenes(files []string) ([]string, error) {
	var genes []string
	for _, f := range files {
		list, err := expression.ReadMarkers(f)
		if err != nil {
			return nil, fmt.Errorf("read markers: %w", err)
		}
		genes = append(genes, list...)
	}
	return genes, nil
}

// Split sizes the train, test and validation parts of n rows. Train and test
// are truncated products and validation takes the remainder.
func Split(n int, fractions [3]float64) (ntrain, ntest, nval int, err error) {
	ntrain = int(float64(n) * fractions[0])
	ntest = int(float64(n) * fractions[1])
	nval = n - ntrain - ntest
	if ntrain <= 0 || ntest <= 0 || nval <= 0 {
		return 0, 0, 0, fmt.Errorf("split of %d rows by %v leaves an empty part (%d/%d/%d)", n, fractions, ntrain, ntest, nval)
	}
	return ntrain, ntest, nval, nil
}
