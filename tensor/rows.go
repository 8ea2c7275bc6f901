package tensor

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/fumitoshi0524/exprnet/internal/parallel"
)

func rowsCols(a *Tensor, op string) (int, int, error) {
	if len(a.shape) != 2 {
		return 0, 0, errors.New(op + " expects rank 2 tensor")
	}
	return a.shape[0], a.shape[1], nil
}

func LogSoftmax(a *Tensor, axis int) (*Tensor, error) {
	rows, cols, err := rowsCols(a, "LogSoftmax")
	if err != nil {
		return nil, err
	}
	if axis < 0 {
		axis += 2
	}
	if axis != 1 {
		return nil, errors.New("LogSoftmax currently supports axis 1 only")
	}
	out := Zeros(rows, cols)
	parallel.For(rows, func(start, end int) {
		for i := start; i < end; i++ {
			row := a.data[i*cols : (i+1)*cols]
			logSum := floats.LogSumExp(row)
			dst := out.data[i*cols : (i+1)*cols]
			for j, v := range row {
				dst[j] = v - logSum
			}
		}
	})
	record(out, func(grad *Tensor, grads map[*Tensor]*Tensor) {
		gx := Zeros(rows, cols)
		parallel.For(rows, func(start, end int) {
			for i := start; i < end; i++ {
				offset := i * cols
				sumGrad := floats.Sum(grad.data[offset : offset+cols])
				for j := 0; j < cols; j++ {
					gx.data[offset+j] = grad.data[offset+j] - math.Exp(out.data[offset+j])*sumGrad
				}
			}
		})
		accumulate(grads, a, gx)
	}, a)
	return out, nil
}

func Softmax(a *Tensor, axis int) (*Tensor, error) {
	logsm, err := LogSoftmax(a, axis)
	if err != nil {
		return nil, err
	}
	return Exp(logsm), nil
}

func AddBias2D(a, bias *Tensor) (*Tensor, error) {
	rows, cols, err := rowsCols(a, "AddBias2D")
	if err != nil {
		return nil, err
	}
	if len(bias.shape) != 1 || bias.shape[0] != cols {
		return nil, errors.New("AddBias2D dimension mismatch")
	}
	out := a.Clone()
	parallel.For(rows, func(start, end int) {
		for i := start; i < end; i++ {
			floats.Add(out.data[i*cols:(i+1)*cols], bias.data)
		}
	})
	record(out, func(grad *Tensor, grads map[*Tensor]*Tensor) {
		if a.requiresGrad {
			accumulate(grads, a, grad)
		}
		if bias.requiresGrad {
			accumulate(grads, bias, sumRows(grad))
		}
	}, a, bias)
	return out, nil
}

// MulColumns scales column j of a by scale[j].
func MulColumns(a, scale *Tensor) (*Tensor, error) {
	rows, cols, err := rowsCols(a, "MulColumns")
	if err != nil {
		return nil, err
	}
	if len(scale.shape) != 1 || scale.shape[0] != cols {
		return nil, errors.New("MulColumns dimension mismatch")
	}
	out := a.Clone()
	parallel.For(rows, func(start, end int) {
		for i := start; i < end; i++ {
			floats.Mul(out.data[i*cols:(i+1)*cols], scale.data)
		}
	})
	record(out, func(grad *Tensor, grads map[*Tensor]*Tensor) {
		if a.requiresGrad {
			ga := grad.Clone()
			for i := 0; i < rows; i++ {
				floats.Mul(ga.data[i*cols:(i+1)*cols], scale.data)
			}
			accumulate(grads, a, ga)
		}
		if scale.requiresGrad {
			gs := Zeros(cols)
			for i := 0; i < rows; i++ {
				floats.Add(gs.data, mulCopy(grad.data[i*cols:(i+1)*cols], a.data[i*cols:(i+1)*cols]))
			}
			accumulate(grads, scale, gs)
		}
	}, a, scale)
	return out, nil
}

// ExpandRows repeats a vector of length k (shape [k] or [1, k]) into n rows.
func ExpandRows(v *Tensor, n int) (*Tensor, error) {
	if n <= 0 {
		return nil, errors.New("ExpandRows requires a positive row count")
	}
	var cols int
	switch {
	case len(v.shape) == 1:
		cols = v.shape[0]
	case len(v.shape) == 2 && v.shape[0] == 1:
		cols = v.shape[1]
	default:
		return nil, errors.New("ExpandRows expects a vector")
	}
	out := Zeros(n, cols)
	for i := 0; i < n; i++ {
		copy(out.data[i*cols:(i+1)*cols], v.data)
	}
	record(out, func(grad *Tensor, grads map[*Tensor]*Tensor) {
		g := sumRows(grad)
		g.shape = v.Shape()
		accumulate(grads, v, g)
	}, v)
	return out, nil
}

// SliceRows2D returns rows [rowStart, rowStart+rows) of a rank-2 tensor. The
// result shares storage with t and routes its gradient back into that region.
func SliceRows2D(t *Tensor, rowStart, rows int) (*Tensor, error) {
	if t == nil {
		return nil, errors.New("nil tensor")
	}
	total, cols, err := rowsCols(t, "SliceRows2D")
	if err != nil {
		return nil, err
	}
	if rowStart < 0 || rows <= 0 || rowStart+rows > total {
		return nil, errors.New("slice out of range")
	}
	out := &Tensor{
		data:  t.data[rowStart*cols : (rowStart+rows)*cols],
		shape: []int{rows, cols},
	}
	record(out, func(grad *Tensor, grads map[*Tensor]*Tensor) {
		g := Zeros(t.shape...)
		copy(g.data[rowStart*cols:], grad.data)
		accumulate(grads, t, g)
	}, t)
	return out, nil
}

// ArgmaxRows returns the column index of the largest value in each row.
func ArgmaxRows(t *Tensor) []int {
	rows, cols, err := rowsCols(t, "ArgmaxRows")
	if err != nil {
		panic(err)
	}
	idx := make([]int, rows)
	for i := range idx {
		idx[i] = floats.MaxIdx(t.data[i*cols : (i+1)*cols])
	}
	return idx
}

func sumRows(t *Tensor) *Tensor {
	rows, cols := t.shape[0], t.shape[1]
	out := Zeros(cols)
	for i := 0; i < rows; i++ {
		floats.Add(out.data, t.data[i*cols:(i+1)*cols])
	}
	return out
}

func mulCopy(a, b []float64) []float64 {
	dst := make([]float64, len(a))
	return floats.MulTo(dst, a, b)
}
