package tensor

import "gonum.org/v1/gonum/floats"

// The helpers below mutate values outside the tape. Optimizers use them on
// parameters between steps.

func (t *Tensor) Scale(v float64) {
	floats.Scale(v, t.data)
}

func (t *Tensor) AddScaled(other *Tensor, alpha float64) error {
	if err := ensureSameShape(t, other); err != nil {
		return err
	}
	floats.AddScaled(t.data, alpha, other.data)
	return nil
}

// GradNorm returns the p-norm of the accumulated gradient, or 0 without one.
func (t *Tensor) GradNorm(p float64) float64 {
	if t == nil || t.grad == nil {
		return 0
	}
	return floats.Norm(t.grad.data, p)
}

func (t *Tensor) ScaleGrad(factor float64) {
	if t == nil || t.grad == nil {
		return
	}
	t.grad.Scale(factor)
}
