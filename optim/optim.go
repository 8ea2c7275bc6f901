package optim

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/fumitoshi0524/exprnet/tensor"
)

// Optimizer updates parameters from their accumulated gradients.
type Optimizer interface {
	Step() error
	ZeroGrad()
}

// Config selects and parameterises an optimizer by name.
type Config struct {
	Name        string
	LR          float64
	Momentum    float64
	WeightDecay float64
	Nesterov    bool
	MaxGradNorm float64
}

// Names lists the optimizers New accepts.
var Names = []string{"adam", "adamw", "sgd", "rmsprop", "adagrad", "adadelta"}

// New builds the optimizer named by cfg.Name. An empty name means Adam with
// β1=0.9, β2=0.999, ε=1e-8. WeightDecay is an L2 penalty added to the
// gradient, except for AdamW where it is decoupled from it.
func New(params []*tensor.Tensor, cfg Config) (Optimizer, error) {
	if cfg.WeightDecay < 0 {
		return nil, fmt.Errorf("negative weight decay %g", cfg.WeightDecay)
	}
	if cfg.Nesterov && (cfg.Name != "sgd" || cfg.Momentum <= 0) {
		return nil, errors.New("nesterov needs the sgd optimizer with positive momentum")
	}
	b := base{params: params, maxGradNorm: cfg.MaxGradNorm, weightDecay: cfg.WeightDecay}
	switch cfg.Name {
	case "", "adam":
		adam := NewAdam(params, cfg.LR, 0.9, 0.999, 1e-8)
		adam.SetGradNorm(cfg.MaxGradNorm)
		adam.SetWeightDecay(cfg.WeightDecay)
		return adam, nil
	case "adamw":
		o := NewAdamW(params, cfg.LR, cfg.WeightDecay)
		o.maxGradNorm = cfg.MaxGradNorm
		return o, nil
	case "sgd":
		return NewSGDWithConfig(params, SGDConfig{
			LR:          cfg.LR,
			Momentum:    cfg.Momentum,
			WeightDecay: cfg.WeightDecay,
			Nesterov:    cfg.Nesterov,
			MaxGradNorm: cfg.MaxGradNorm,
		}), nil
	case "rmsprop":
		o := NewRMSProp(params, cfg.LR, cfg.Momentum)
		o.base = b
		return o, nil
	case "adagrad":
		o := NewAdagrad(params, cfg.LR)
		o.base = b
		return o, nil
	case "adadelta":
		o := NewAdadelta(params, cfg.LR)
		o.base = b
		return o, nil
	default:
		return nil, fmt.Errorf("unknown optimizer %q", cfg.Name)
	}
}

// base carries what the per-element optimizers share: the parameter list,
// gradient clipping and the L2 penalty.
type base struct {
	params      []*tensor.Tensor
	maxGradNorm float64
	weightDecay float64
	state       map[*tensor.Tensor][][]float64
}

// apply clips gradients when configured, then hands each parameter's
// gradient and values to update, which edits values in place. slots returns
// per-parameter buffers of the gradient's length that survive across steps.
func (b *base) apply(buffers int, update func(grad, values []float64, slots [][]float64)) error {
	if b.maxGradNorm > 0 {
		ClipGradNorm(b.params, b.maxGradNorm, 2)
	}
	if b.state == nil {
		b.state = map[*tensor.Tensor][][]float64{}
	}
	for _, p := range b.params {
		if p == nil {
			continue
		}
		g := p.Grad()
		if g == nil {
			continue
		}
		grad, values := g.Data(), p.Data()
		if b.weightDecay > 0 {
			floats.AddScaled(grad, b.weightDecay, values)
		}
		slots, ok := b.state[p]
		if !ok {
			slots = make([][]float64, buffers)
			for i := range slots {
				slots[i] = make([]float64, len(grad))
			}
			b.state[p] = slots
		}
		update(grad, values, slots)
		if err := p.SetData(values); err != nil {
			return err
		}
	}
	return nil
}

func (b *base) ZeroGrad() {
	for _, p := range b.params {
		if p != nil {
			p.ZeroGrad()
		}
	}
}
