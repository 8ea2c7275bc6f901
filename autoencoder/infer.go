package autoencoder

import (
	"gonum.org/v1/gonum/mat"

	"github.com/fumitoshi0524/exprnet/internal/npy"
	"github.com/fumitoshi0524/exprnet/tensor"
)

// Infer encodes and reconstructs every sample.
func Infer(model *Model, samples mat.Matrix) (components, predictions *mat.Dense, err error) {
	analysis, synthesis, err := model.Forward(tensor.FromDense(samples))
	if err != nil {
		return nil, nil, err
	}
	return analysis.Dense(), synthesis.Dense(), nil
}

// WriteOutputs stores the results of Infer as <prefix>_components.npy and
// <prefix>_predictions.npy.
func WriteOutputs(prefix string, components, predictions mat.Matrix) error {
	if err := npy.WriteMatrix(prefix+"_components.npy", components); err != nil {
		return err
	}
	return npy.WriteMatrix(prefix+"_predictions.npy", predictions)
}
