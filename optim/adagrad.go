package optim

import (
	"math"

	"github.com/fumitoshi0524/exprnet/tensor"
)

// Adagrad scales each coordinate by the inverse root of its summed squared
// gradients.
type Adagrad struct {
	base
	lr  float64
	eps float64
}

func NewAdagrad(params []*tensor.Tensor, lr float64) *Adagrad {
	return &Adagrad{base: base{params: params}, lr: lr, eps: 1e-10}
}

func (o *Adagrad) Step() error {
	return o.apply(1, func(grad, values []float64, slots [][]float64) {
		sum := slots[0]
		for i, g := range grad {
			sum[i] += g * g
			values[i] -= o.lr * g / (math.Sqrt(sum[i]) + o.eps)
		}
	})
}
