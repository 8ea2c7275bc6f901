package optim

import (
	"math"

	"github.com/fumitoshi0524/exprnet/tensor"
)

// RMSProp divides each step by a running root mean square of the gradient,
// smoothed with alpha.
type RMSProp struct {
	base
	lr       float64
	alpha    float64
	eps      float64
	momentum float64
}

func NewRMSProp(params []*tensor.Tensor, lr, momentum float64) *RMSProp {
	return &RMSProp{base: base{params: params}, lr: lr, alpha: 0.99, eps: 1e-8, momentum: momentum}
}

func (o *RMSProp) Step() error {
	return o.apply(2, func(grad, values []float64, slots [][]float64) {
		sq, buf := slots[0], slots[1]
		for i, g := range grad {
			sq[i] = o.alpha*sq[i] + (1-o.alpha)*g*g
			adj := g / (math.Sqrt(sq[i]) + o.eps)
			if o.momentum > 0 {
				buf[i] = o.momentum*buf[i] + adj
				adj = buf[i]
			}
			values[i] -= o.lr * adj
		}
	})
}
