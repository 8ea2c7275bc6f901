// Package autoencoder learns a small set of expression components whose
// mixtures reconstruct the input samples.
package autoencoder

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/fumitoshi0524/exprnet/tensor"
)

// Model maps a [batch, features] sample matrix to component weights
// ([batch, components]) and back. With the inverse decoder the encoder is the
// least-squares inverse of the synthesis matrix and the analysis matrix is
// unused.
type Model struct {
	features       int
	components     int
	analysis       *tensor.Tensor // [features, components]
	synthesis      *tensor.Tensor // [components, features]
	inverseDecoder bool
}

func NewModel(features, components int, inverseDecoder bool) (*Model, error) {
	if features <= 0 || components <= 0 {
		return nil, fmt.Errorf("invalid model size %d×%d", features, components)
	}
	analysis := tensor.Randn(features, components)
	analysis.SetRequiresGrad(true)
	synthesis := tensor.Randn(components, features)
	synthesis.SetRequiresGrad(true)
	return &Model{
		features:       features,
		components:     components,
		analysis:       analysis,
		synthesis:      synthesis,
		inverseDecoder: inverseDecoder,
	}, nil
}

// Forward returns the analysis (component weights) and synthesis
// (reconstruction) of x.
func (m *Model) Forward(x *tensor.Tensor) (analysis, synthesis *tensor.Tensor, err error) {
	shape := x.Shape()
	if len(shape) != 2 || shape[1] != m.features {
		return nil, nil, fmt.Errorf("autoencoder expects [batch, %d] input, got %v", m.features, shape)
	}
	if m.inverseDecoder {
		analysis, err = m.pseudoInverse(x)
	} else {
		analysis, err = m.softmaxEncode(x)
	}
	if err != nil {
		return nil, nil, err
	}
	synthesis, err = tensor.MatMul(analysis, m.synthesis)
	if err != nil {
		return nil, nil, err
	}
	return analysis, synthesis, nil
}

func (m *Model) softmaxEncode(x *tensor.Tensor) (*tensor.Tensor, error) {
	logits, err := tensor.MatMul(x, m.analysis)
	if err != nil {
		return nil, err
	}
	return tensor.Softmax(logits, 1)
}

// pseudoInverse computes x·Eᵀ with E = (S·Sᵀ)⁻¹·S, the Moore-Penrose encoder
// of the decoder D = Sᵀ.
func (m *Model) pseudoInverse(x *tensor.Tensor) (*tensor.Tensor, error) {
	gram, err := tensor.MatMul(m.synthesis, m.synthesis.MustTranspose())
	if err != nil {
		return nil, err
	}
	gramInv, err := tensor.Inverse(gram)
	if err != nil {
		return nil, fmt.Errorf("synthesis components are linearly dependent: %w", err)
	}
	encoder, err := tensor.MatMul(gramInv, m.synthesis)
	if err != nil {
		return nil, err
	}
	return tensor.MatMul(x, encoder.MustTranspose())
}

// SetSynthesis replaces the component expression vectors with init, which
// must be [components, features].
func (m *Model) SetSynthesis(init mat.Matrix) error {
	if init == nil {
		return errors.New("nil synthesis initialisation")
	}
	r, c := init.Dims()
	if r != m.components || c != m.features {
		return fmt.Errorf("synthesis initialisation is %d×%d, model needs %d×%d", r, c, m.components, m.features)
	}
	return m.synthesis.SetData(tensor.FromDense(init).Data())
}

func (m *Model) Parameters() []*tensor.Tensor {
	return []*tensor.Tensor{m.analysis, m.synthesis}
}

func (m *Model) ZeroGrad() {
	m.analysis.ZeroGrad()
	m.synthesis.ZeroGrad()
}

func (m *Model) Components() int { return m.components }

func (m *Model) Features() int { return m.features }

// Synthesis returns a copy of the component expression vectors.
func (m *Model) Synthesis() *mat.Dense {
	return mat.DenseCopyOf(m.synthesis.Dense())
}

func (m *Model) StateDict(prefix string, state map[string]*tensor.Tensor) {
	state[prefix+"analysis"] = m.analysis.Clone()
	state[prefix+"synthesis"] = m.synthesis.Clone()
}

func (m *Model) LoadState(prefix string, state map[string]*tensor.Tensor) error {
	for name, dst := range map[string]*tensor.Tensor{"analysis": m.analysis, "synthesis": m.synthesis} {
		src, ok := state[prefix+name]
		if !ok {
			return fmt.Errorf("missing parameter %s%s", prefix, name)
		}
		if err := tensor.CopyInto(dst, src); err != nil {
			return fmt.Errorf("load %s%s: %w", prefix, name, err)
		}
	}
	return nil
}
