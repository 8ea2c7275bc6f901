package autoencoder

import (
	"fmt"
	"io"

	"gonum.org/v1/gonum/mat"

	"github.com/fumitoshi0524/exprnet/loss"
	"github.com/fumitoshi0524/exprnet/optim"
	"github.com/fumitoshi0524/exprnet/tensor"
)

// Trainer fits a Model with a learnable composition prior shared by all
// samples.
type Trainer struct {
	model *Model
	prior *tensor.Tensor // [1, components]
	opt   optim.Optimizer
	cfg   Config
}

func NewTrainer(model *Model, cfg Config) (*Trainer, error) {
	prior := tensor.Randn(1, model.Components())
	prior.SetRequiresGrad(true)
	params := append(model.Parameters(), prior)
	opt, err := optim.New(params, optim.Config{
		Name:        cfg.Optimizer,
		LR:          cfg.LearningRate,
		Momentum:    cfg.Momentum,
		WeightDecay: cfg.WeightDecay,
		Nesterov:    cfg.Nesterov,
		MaxGradNorm: cfg.MaxGradNorm,
	})
	if err != nil {
		return nil, err
	}
	return &Trainer{model: model, prior: prior, opt: opt, cfg: cfg}, nil
}

// Prior returns softmax of the learned composition vector.
func (t *Trainer) Prior() ([]float64, error) {
	p, err := tensor.Softmax(t.prior.Detach(), 1)
	if err != nil {
		return nil, err
	}
	return p.Data(), nil
}

// Step runs one optimisation step on a batch and returns its loss.
func (t *Trainer) Step(batch *tensor.Tensor) (float64, error) {
	t.opt.ZeroGrad()
	analysis, synthesis, err := t.model.Forward(batch)
	if err != nil {
		return 0, err
	}
	total, err := loss.MSE(synthesis, batch)
	if err != nil {
		return 0, err
	}
	if t.cfg.RegularizeAnalysis {
		composition, err := t.compositionLoss(analysis)
		if err != nil {
			return 0, err
		}
		if total, err = tensor.Add(total, tensor.MulScalar(composition, t.cfg.CompositionWeight)); err != nil {
			return 0, err
		}
	}
	if err := total.Backward(); err != nil {
		return 0, err
	}
	if err := t.opt.Step(); err != nil {
		return 0, err
	}
	return total.Item(), nil
}

// compositionLoss pulls every row of analysis towards softmax(prior).
func (t *Trainer) compositionLoss(analysis *tensor.Tensor) (*tensor.Tensor, error) {
	target, err := tensor.Softmax(t.prior, 1)
	if err != nil {
		return nil, err
	}
	expanded, err := tensor.ExpandRows(target, analysis.Shape()[0])
	if err != nil {
		return nil, err
	}
	diff, err := tensor.Sub(analysis, expanded)
	if err != nil {
		return nil, err
	}
	return tensor.Mean(tensor.Pow(diff, 2)), nil
}

// Epoch walks the samples in consecutive batches of cfg.BatchSize rows (the
// last one may be short) and returns the summed batch loss.
func (t *Trainer) Epoch(samples *tensor.Tensor) (float64, error) {
	rows := samples.Shape()[0]
	total := 0.0
	for start := 0; start < rows; start += t.cfg.BatchSize {
		size := t.cfg.BatchSize
		if start+size > rows {
			size = rows - start
		}
		batch, err := tensor.SliceRows2D(samples, start, size)
		if err != nil {
			return 0, err
		}
		l, err := t.Step(batch)
		if err != nil {
			return 0, fmt.Errorf("batch at row %d: %w", start, err)
		}
		total += l
	}
	return total, nil
}

// Train runs cfg.NumIterations epochs over samples, writing one line per
// epoch to progress when it is non-nil, and returns the per-epoch losses.
func Train(model *Model, samples mat.Matrix, cfg Config, progress io.Writer) ([]float64, error) {
	if _, cols := samples.Dims(); cols != model.Features() {
		return nil, fmt.Errorf("samples have %d features, model expects %d", cols, model.Features())
	}
	trainer, err := NewTrainer(model, cfg)
	if err != nil {
		return nil, err
	}
	x := tensor.FromDense(samples)
	losses := make([]float64, 0, cfg.NumIterations)
	for epoch := 0; epoch < cfg.NumIterations; epoch++ {
		total, err := trainer.Epoch(x)
		if err != nil {
			return losses, fmt.Errorf("iteration %d: %w", epoch, err)
		}
		losses = append(losses, total)
		if progress != nil {
			fmt.Fprintf(progress, "Completed iteration %d, total loss is %v\n", epoch, total)
		}
	}
	return losses, nil
}
