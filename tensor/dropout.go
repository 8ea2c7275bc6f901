package tensor

import (
	"errors"
)

// Dropout zeroes each element with probability p during training and scales
// the survivors by 1/(1-p). Outside training it is the identity.
func Dropout(input *Tensor, p float64, training bool) (*Tensor, error) {
	if p < 0 || p >= 1 {
		return nil, errors.New("dropout probability must be in [0, 1)")
	}
	if !training || p == 0 {
		return MulScalar(input, 1), nil
	}

	scale := 1.0 / (1 - p)
	mask := Zeros(input.shape...)
	rngLock.Lock()
	for i := range mask.data {
		if rng.Float64() >= p {
			mask.data[i] = scale
		}
	}
	rngLock.Unlock()

	return Mul(input, mask)
}
