package optim

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/fumitoshi0524/exprnet/tensor"
)

type Adam struct {
	params      []*tensor.Tensor
	lr          float64
	beta1       float64
	beta2       float64
	eps         float64
	maxGradNorm float64
	weightDecay float64
	m           map[*tensor.Tensor][]float64
	v           map[*tensor.Tensor][]float64
	step        int
}

func NewAdam(params []*tensor.Tensor, lr, beta1, beta2, eps float64) *Adam {
	return &Adam{
		params: params,
		lr:     lr,
		beta1:  beta1,
		beta2:  beta2,
		eps:    eps,
		m:      map[*tensor.Tensor][]float64{},
		v:      map[*tensor.Tensor][]float64{},
	}
}

// SetGradNorm rescales gradients to at most maxNorm (L2) before each step.
// Zero disables clipping.
func (o *Adam) SetGradNorm(maxNorm float64) {
	o.maxGradNorm = maxNorm
}

// SetWeightDecay adds wd times the parameter to its gradient before each step.
func (o *Adam) SetWeightDecay(wd float64) {
	o.weightDecay = wd
}

func (o *Adam) Step() error {
	if o.maxGradNorm > 0 {
		ClipGradNorm(o.params, o.maxGradNorm, 2)
	}
	o.step++
	biasCorr1 := 1 - math.Pow(o.beta1, float64(o.step))
	biasCorr2 := 1 - math.Pow(o.beta2, float64(o.step))
	for _, p := range o.params {
		if p == nil {
			continue
		}
		gradT := p.Grad()
		if gradT == nil {
			continue
		}
		grad := gradT.Data()
		if o.weightDecay > 0 {
			floats.AddScaled(grad, o.weightDecay, p.Data())
		}
		m, ok := o.m[p]
		if !ok {
			m = make([]float64, len(grad))
			o.m[p] = m
		}
		v, ok := o.v[p]
		if !ok {
			v = make([]float64, len(grad))
			o.v[p] = v
		}
		floats.Scale(o.beta1, m)
		floats.AddScaled(m, 1-o.beta1, grad)
		floats.Scale(o.beta2, v)
		floats.MulTo(grad, grad, grad)
		floats.AddScaled(v, 1-o.beta2, grad)

		update := make([]float64, len(m))
		for i := range update {
			mHat := m[i] / biasCorr1
			vHat := v[i] / biasCorr2
			update[i] = mHat / (math.Sqrt(vHat) + o.eps)
		}
		values := p.Data()
		floats.AddScaled(values, -o.lr, update)
		if err := p.SetData(values); err != nil {
			return err
		}
	}
	return nil
}

func (o *Adam) ZeroGrad() {
	for _, p := range o.params {
		if p != nil {
			p.ZeroGrad()
		}
	}
}
