package nn

import (
	"fmt"
	"math"

	"github.com/fumitoshi0524/exprnet/tensor"
)

// LinearOption overrides the default initialisation of a Linear layer.
type LinearOption func(l *Linear)

// NormalWeights draws every weight from N(0, std²).
func NormalWeights(std float64) LinearOption {
	return func(l *Linear) {
		tensor.RandnInto(l.weight, 0, std)
	}
}

// ConstantBias fills the bias with value.
func ConstantBias(value float64) LinearOption {
	return func(l *Linear) {
		if l.bias == nil {
			return
		}
		data := make([]float64, l.outFeatures)
		for i := range data {
			data[i] = value
		}
		_ = l.bias.SetData(data)
	}
}

// Linear computes x·Wᵀ + b with W of shape [out, in].
type Linear struct {
	inFeatures  int
	outFeatures int
	weight      *tensor.Tensor
	bias        *tensor.Tensor
}

func NewLinear(inFeatures, outFeatures int, withBias bool, opts ...LinearOption) *Linear {
	scale := math.Sqrt(2.0 / float64(inFeatures+outFeatures))
	w := tensor.Zeros(outFeatures, inFeatures)
	tensor.RandnInto(w, 0, scale)
	w.SetRequiresGrad(true)
	var b *tensor.Tensor
	if withBias {
		b = tensor.Zeros(outFeatures)
		tensor.RandnInto(b, 0, scale)
		b.SetRequiresGrad(true)
	}
	l := &Linear{inFeatures: inFeatures, outFeatures: outFeatures, weight: w, bias: b}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Linear) Forward(input *tensor.Tensor) (*tensor.Tensor, error) {
	x := input
	if shape := input.Shape(); len(shape) == 1 {
		var err error
		if x, err = input.Reshape(1, shape[0]); err != nil {
			return nil, err
		}
	}
	if cols := x.Shape(); len(cols) != 2 || cols[1] != l.inFeatures {
		return nil, fmt.Errorf("Linear expects [batch, %d] input, got %v", l.inFeatures, x.Shape())
	}
	output, err := tensor.MatMul(x, l.weight.MustTranspose())
	if err != nil {
		return nil, err
	}
	if l.bias != nil {
		return tensor.AddBias2D(output, l.bias)
	}
	return output, nil
}

func (l *Linear) Parameters() []*tensor.Tensor {
	params := []*tensor.Tensor{l.weight}
	if l.bias != nil {
		params = append(params, l.bias)
	}
	return params
}

func (l *Linear) ZeroGrad() {
	for _, p := range l.Parameters() {
		p.ZeroGrad()
	}
}

func (l *Linear) Weight() *tensor.Tensor {
	return l.weight
}

func (l *Linear) Bias() *tensor.Tensor {
	return l.bias
}

func (l *Linear) StateDict(prefix string, state map[string]*tensor.Tensor) {
	if state == nil {
		return
	}
	state[joinPrefix(prefix, "weight")] = l.weight.Clone()
	if l.bias != nil {
		state[joinPrefix(prefix, "bias")] = l.bias.Clone()
	}
}

func (l *Linear) LoadState(prefix string, state map[string]*tensor.Tensor) error {
	if state == nil {
		return fmt.Errorf("state dict is nil")
	}
	if err := loadInto(l.weight, joinPrefix(prefix, "weight"), state); err != nil {
		return err
	}
	if l.bias != nil {
		return loadInto(l.bias, joinPrefix(prefix, "bias"), state)
	}
	return nil
}
