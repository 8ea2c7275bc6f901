package classifier

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fumitoshi0524/exprnet/nn"
	"github.com/fumitoshi0524/exprnet/tensor"
)

const initBias = 1.1

// NewNetwork builds Linear(dim, hidden) → ReLU → Linear(hidden, 2) →
// Dropout(dropout). Weights are drawn from N(0, 1) and biases start at 1.1.
// With scaleInputs every input feature is first multiplied by a learnable
// coefficient.
func NewNetwork(dim, hidden int, dropout float64, scaleInputs bool) *nn.Sequential {
	var layers []nn.Module
	if scaleInputs {
		layers = append(layers, nn.NewColumnScale(dim))
	}
	layers = append(layers,
		nn.NewLinear(dim, hidden, true, nn.NormalWeights(1), nn.ConstantBias(initBias)),
		nn.Relu(),
		nn.NewLinear(hidden, 2, true, nn.NormalWeights(1), nn.ConstantBias(initBias)),
		nn.NewDropout(dropout),
	)
	return nn.NewSequential(layers...)
}

// LoadNetwork rebuilds a network saved with nn.SaveModule, taking its sizes
// from the checkpoint. The network is returned in evaluation mode.
func LoadNetwork(path string) (*nn.Sequential, error) {
	state, err := tensor.LoadTensors(path)
	if err != nil {
		return nil, err
	}
	_, scaled := state["0.coef"]
	first := 0
	if scaled {
		first = 1
	}
	w1, ok := state[fmt.Sprintf("%d.weight", first)]
	if !ok {
		return nil, errors.New("checkpoint has no input layer: " + strings.Join(keys(state), ", "))
	}
	shape := w1.Shape()
	if len(shape) != 2 {
		return nil, fmt.Errorf("input layer weight has shape %v", shape)
	}
	hidden, dim := shape[0], shape[1]
	net := NewNetwork(dim, hidden, 0, scaled)
	if err := nn.Restore(net, state); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	net.Eval()
	return net, nil
}

// InputDim reports the feature count a network built by NewNetwork expects.
func InputDim(net *nn.Sequential) int {
	shape := net.Parameters()[0].Shape()
	return shape[len(shape)-1]
}

func keys(state map[string]*tensor.Tensor) []string {
	out := make([]string, 0, len(state))
	for k := range state {
		out = append(out, k)
	}
	return out
}
