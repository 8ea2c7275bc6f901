package tensor

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// MatMul multiplies two rank-2 tensors with the gonum BLAS kernel.
func MatMul(a, b *Tensor) (*Tensor, error) {
	if len(a.shape) != 2 || len(b.shape) != 2 {
		return nil, errors.New("matmul expects rank 2 tensors")
	}
	if a.shape[1] != b.shape[0] {
		return nil, errors.New("incompatible shapes for matmul")
	}
	out := Zeros(a.shape[0], b.shape[1])
	out.Dense().Mul(a.Dense(), b.Dense())
	record(out, func(grad *Tensor, grads map[*Tensor]*Tensor) {
		g := grad.Dense()
		if a.requiresGrad {
			ga := Zeros(a.shape...)
			ga.Dense().Mul(g, b.Dense().T())
			accumulate(grads, a, ga)
		}
		if b.requiresGrad {
			gb := Zeros(b.shape...)
			gb.Dense().Mul(a.Dense().T(), g)
			accumulate(grads, b, gb)
		}
	}, a, b)
	return out, nil
}

func Transpose(a *Tensor) (*Tensor, error) {
	if len(a.shape) != 2 {
		return nil, errors.New("transpose expects rank 2 tensor")
	}
	out := FromDense(a.Dense().T())
	record(out, func(grad *Tensor, grads map[*Tensor]*Tensor) {
		accumulate(grads, a, FromDense(grad.Dense().T()))
	}, a)
	return out, nil
}

func (t *Tensor) MustTranspose() *Tensor {
	tr, err := Transpose(t)
	if err != nil {
		panic(err)
	}
	return tr
}

// Inverse inverts a square matrix. Ill-conditioned input is accepted as long
// as gonum could factorise it; an exactly singular matrix is an error.
func Inverse(a *Tensor) (*Tensor, error) {
	if len(a.shape) != 2 || a.shape[0] != a.shape[1] {
		return nil, errors.New("inverse expects a square rank 2 tensor")
	}
	var inv mat.Dense
	if err := inv.Inverse(a.Dense()); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) || math.IsInf(float64(cond), 1) {
			return nil, fmt.Errorf("inverse: %w", err)
		}
	}
	out := FromDense(&inv)
	record(out, func(grad *Tensor, grads map[*Tensor]*Tensor) {
		// d(A⁻¹) = -A⁻¹ dA A⁻¹, so dL/dA = -A⁻ᵀ G A⁻ᵀ.
		invT := out.Dense().T()
		var tmp mat.Dense
		tmp.Mul(invT, grad.Dense())
		g := Zeros(a.shape...)
		gd := g.Dense()
		gd.Mul(&tmp, invT)
		gd.Scale(-1, gd)
		accumulate(grads, a, g)
	}, a)
	return out, nil
}
