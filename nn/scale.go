package nn

import (
	"fmt"

	"github.com/fumitoshi0524/exprnet/tensor"
)

// ColumnScale multiplies every input feature by its own learnable
// coefficient. Coefficients start at 1.
type ColumnScale struct {
	coef *tensor.Tensor
}

func NewColumnScale(features int) *ColumnScale {
	coef := tensor.Ones(features)
	coef.SetRequiresGrad(true)
	return &ColumnScale{coef: coef}
}

func (c *ColumnScale) Forward(input *tensor.Tensor) (*tensor.Tensor, error) {
	return tensor.MulColumns(input, c.coef)
}

func (c *ColumnScale) Parameters() []*tensor.Tensor {
	return []*tensor.Tensor{c.coef}
}

func (c *ColumnScale) ZeroGrad() {
	c.coef.ZeroGrad()
}

func (c *ColumnScale) Coefficients() *tensor.Tensor {
	return c.coef
}

func (c *ColumnScale) StateDict(prefix string, state map[string]*tensor.Tensor) {
	state[joinPrefix(prefix, "coef")] = c.coef.Clone()
}

func (c *ColumnScale) LoadState(prefix string, state map[string]*tensor.Tensor) error {
	if state == nil {
		return fmt.Errorf("state dict is nil")
	}
	return loadInto(c.coef, joinPrefix(prefix, "coef"), state)
}
