package optim

import (
	"math"

	"github.com/fumitoshi0524/exprnet/tensor"
)

// AdamW is Adam with weight decay applied to the parameters directly rather
// than folded into the gradient.
type AdamW struct {
	base
	lr    float64
	beta1 float64
	beta2 float64
	eps   float64
	decay float64
	step  int
}

func NewAdamW(params []*tensor.Tensor, lr, weightDecay float64) *AdamW {
	return &AdamW{base: base{params: params}, lr: lr, beta1: 0.9, beta2: 0.999, eps: 1e-8, decay: weightDecay}
}

func (o *AdamW) Step() error {
	o.step++
	biasCorr1 := 1 - math.Pow(o.beta1, float64(o.step))
	biasCorr2 := 1 - math.Pow(o.beta2, float64(o.step))
	return o.apply(2, func(grad, values []float64, slots [][]float64) {
		m, v := slots[0], slots[1]
		for i, g := range grad {
			m[i] = o.beta1*m[i] + (1-o.beta1)*g
			v[i] = o.beta2*v[i] + (1-o.beta2)*g*g
			values[i] -= o.lr * o.decay * values[i]
			values[i] -= o.lr * (m[i] / biasCorr1) / (math.Sqrt(v[i]/biasCorr2) + o.eps)
		}
	})
}
