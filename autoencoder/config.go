package autoencoder

import (
	"errors"
	"fmt"
)

type Config struct {
	Samples            string
	NumComponents      int
	NumIterations      int
	BatchSize          int
	OutputPrefix       string
	LearningRate       float64
	CompositionWeight  float64
	RegularizeAnalysis bool
	InitExpVector      string
	UseInverseDecoder  bool
	Optimizer          string
	Momentum           float64
	WeightDecay        float64
	Nesterov           bool
	MaxGradNorm        float64
	Seed               int64
	PlotPath           string
	SaveModel          string
}

func DefaultConfig() Config {
	return Config{
		LearningRate:      1e-3,
		CompositionWeight: 1.0,
		Optimizer:         "adam",
	}
}

func (c Config) Validate() error {
	switch {
	case c.Samples == "":
		return errors.New("samples file is required")
	case c.OutputPrefix == "":
		return errors.New("output prefix is required")
	case c.NumComponents < 1:
		return fmt.Errorf("num_components must be positive, got %d", c.NumComponents)
	case c.NumIterations < 0:
		return fmt.Errorf("num_iterations must not be negative, got %d", c.NumIterations)
	case c.BatchSize < 1:
		return fmt.Errorf("batch_size must be positive, got %d", c.BatchSize)
	case c.LearningRate <= 0:
		return fmt.Errorf("learning_rate must be positive, got %g", c.LearningRate)
	case c.MaxGradNorm < 0:
		return fmt.Errorf("max_grad_norm must not be negative, got %g", c.MaxGradNorm)
	case c.Momentum < 0 || c.Momentum >= 1:
		return fmt.Errorf("momentum must be in [0, 1), got %g", c.Momentum)
	case c.WeightDecay < 0:
		return fmt.Errorf("weight_decay must not be negative, got %g", c.WeightDecay)
	}
	return nil
}
