package loss

import "github.com/fumitoshi0524/exprnet/tensor"

// MSE is the mean of squared element differences.
func MSE(pred, target *tensor.Tensor) (*tensor.Tensor, error) {
	diff, err := tensor.Sub(pred, target)
	if err != nil {
		return nil, err
	}
	return tensor.Mean(tensor.Pow(diff, 2)), nil
}
