package tensor

import (
	"errors"

	"gonum.org/v1/gonum/mat"
)

// Tensor is a dense row-major float64 array that can take part in reverse-mode
// differentiation.
type Tensor struct {
	data         []float64
	shape        []int
	grad         *Tensor
	requiresGrad bool
	node         *node
	parents      []*Tensor
}

type node struct {
	backward func(grad *Tensor, grads map[*Tensor]*Tensor)
}

func New(data []float64, shape ...int) (*Tensor, error) {
	if len(shape) == 0 {
		return nil, errors.New("shape is required")
	}
	total, err := numel(shape)
	if err != nil {
		return nil, err
	}
	if total != len(data) {
		return nil, errors.New("data and shape mismatch")
	}
	return &Tensor{
		data:  append([]float64(nil), data...),
		shape: append([]int(nil), shape...),
	}, nil
}

func MustNew(data []float64, shape ...int) *Tensor {
	t, err := New(data, shape...)
	if err != nil {
		panic(err)
	}
	return t
}

func Zeros(shape ...int) *Tensor {
	total, err := numel(shape)
	if err != nil {
		panic(err)
	}
	return &Tensor{data: make([]float64, total), shape: append([]int(nil), shape...)}
}

func Ones(shape ...int) *Tensor {
	return Full(1, shape...)
}

func Full(value float64, shape ...int) *Tensor {
	t := Zeros(shape...)
	for i := range t.data {
		t.data[i] = value
	}
	return t
}

// FromDense copies a gonum matrix into a new rank-2 tensor.
func FromDense(m mat.Matrix) *Tensor {
	r, c := m.Dims()
	t := Zeros(r, c)
	mat.NewDense(r, c, t.data).Copy(m)
	return t
}

// Dense returns a gonum view over a rank-2 tensor. The view shares storage
// with the tensor, so writes through it are visible to autograd.
func (t *Tensor) Dense() *mat.Dense {
	if len(t.shape) != 2 {
		panic("Dense expects rank 2 tensor")
	}
	return mat.NewDense(t.shape[0], t.shape[1], t.data)
}

func (t *Tensor) Clone() *Tensor {
	if t == nil {
		return nil
	}
	return &Tensor{
		data:  append([]float64(nil), t.data...),
		shape: append([]int(nil), t.shape...),
	}
}

func (t *Tensor) Shape() []int {
	return append([]int(nil), t.shape...)
}

func (t *Tensor) Numel() int {
	return len(t.data)
}

func (t *Tensor) Data() []float64 {
	return append([]float64(nil), t.data...)
}

// Row returns a copy of row i of a rank-2 tensor.
func (t *Tensor) Row(i int) []float64 {
	if len(t.shape) != 2 {
		panic("Row expects rank 2 tensor")
	}
	cols := t.shape[1]
	return append([]float64(nil), t.data[i*cols:(i+1)*cols]...)
}

// Item returns the single value held by a one-element tensor.
func (t *Tensor) Item() float64 {
	if len(t.data) != 1 {
		panic("Item expects a one-element tensor")
	}
	return t.data[0]
}

// SetData overwrites the tensor's underlying values. The provided slice must match Numel().
func (t *Tensor) SetData(values []float64) error {
	if len(values) != len(t.data) {
		return errors.New("SetData expects matching element count")
	}
	copy(t.data, values)
	return nil
}

func (t *Tensor) SetRequiresGrad(v bool) {
	t.requiresGrad = v
}

func (t *Tensor) RequiresGrad() bool {
	return t.requiresGrad
}

func (t *Tensor) Grad() *Tensor {
	if t.grad == nil {
		return nil
	}
	return t.grad.Clone()
}

func (t *Tensor) ZeroGrad() {
	t.grad = nil
}

func (t *Tensor) Detach() *Tensor {
	return t.Clone()
}

func (t *Tensor) Reshape(shape ...int) (*Tensor, error) {
	total, err := numel(shape)
	if err != nil {
		return nil, err
	}
	if total != len(t.data) {
		return nil, errors.New("reshape size mismatch")
	}
	out := &Tensor{data: t.data, shape: append([]int(nil), shape...)}
	record(out, func(grad *Tensor, grads map[*Tensor]*Tensor) {
		accumulate(grads, t, &Tensor{data: grad.data, shape: t.Shape()})
	}, t)
	return out, nil
}

// CopyInto copies the contents of src into dst, ensuring shapes match.
func CopyInto(dst, src *Tensor) error {
	if dst == nil || src == nil {
		return errors.New("CopyInto requires non-nil tensors")
	}
	if err := ensureSameShape(dst, src); err != nil {
		return errors.New("CopyInto shape mismatch")
	}
	copy(dst.data, src.data)
	return nil
}

func ensureSameShape(a, b *Tensor) error {
	if len(a.shape) != len(b.shape) {
		return errors.New("shape mismatch")
	}
	for i, dim := range a.shape {
		if dim != b.shape[i] {
			return errors.New("shape mismatch")
		}
	}
	return nil
}

func numel(shape []int) (int, error) {
	if len(shape) == 0 {
		return 0, errors.New("shape is required")
	}
	total := 1
	for _, dim := range shape {
		if dim <= 0 {
			return 0, errors.New("invalid shape")
		}
		total *= dim
	}
	return total, nil
}
