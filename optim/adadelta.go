package optim

import (
	"math"

	"github.com/fumitoshi0524/exprnet/tensor"
)

// Adadelta sizes each step by the ratio of running RMS updates to running RMS
// gradients; lr only rescales that step.
type Adadelta struct {
	base
	lr  float64
	rho float64
	eps float64
}

func NewAdadelta(params []*tensor.Tensor, lr float64) *Adadelta {
	return &Adadelta{base: base{params: params}, lr: lr, rho: 0.9, eps: 1e-6}
}

func (o *Adadelta) Step() error {
	return o.apply(2, func(grad, values []float64, slots [][]float64) {
		sqAvg, deltaAvg := slots[0], slots[1]
		for i, g := range grad {
			sqAvg[i] = o.rho*sqAvg[i] + (1-o.rho)*g*g
			delta := math.Sqrt(deltaAvg[i]+o.eps) / math.Sqrt(sqAvg[i]+o.eps) * g
			deltaAvg[i] = o.rho*deltaAvg[i] + (1-o.rho)*delta*delta
			values[i] -= o.lr * delta
		}
	})
}
