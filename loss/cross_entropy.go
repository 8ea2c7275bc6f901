package loss

import (
	"errors"

	"github.com/fumitoshi0524/exprnet/tensor"
)

// CrossEntropy is the mean negative log-likelihood of targets under
// softmax(logits).
func CrossEntropy(logits *tensor.Tensor, targets []int) (*tensor.Tensor, error) {
	shape := logits.Shape()
	if len(shape) != 2 {
		return nil, errors.New("CrossEntropy expects rank 2 logits")
	}
	batch, classes := shape[0], shape[1]
	if len(targets) != batch {
		return nil, errors.New("target length mismatch")
	}
	onehot := make([]float64, batch*classes)
	for i, idx := range targets {
		if idx < 0 || idx >= classes {
			return nil, errors.New("target index out of range")
		}
		onehot[i*classes+idx] = 1
	}
	logProb, err := tensor.LogSoftmax(logits, 1)
	if err != nil {
		return nil, err
	}
	masked, err := tensor.Mul(logProb, tensor.MustNew(onehot, batch, classes))
	if err != nil {
		return nil, err
	}
	return tensor.MulScalar(tensor.Sum(masked), -1.0/float64(batch)), nil
}
