// Package classifier trains a two-layer perceptron that separates two groups
// of patients by their gene expression, with rotating cross-validation folds.
package classifier

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

type Config struct {
	PosGroup                string
	NegGroup                string
	Expression              string
	MetaData                string
	MarkerFiles             string
	TrainTestVal            string
	NumFolds                int
	ClassifierType          string
	UseMarkerGenes          bool
	TrainMarkerCoefficients bool
	LearningRate            float64
	BatchSize               int
	NumEpochs               int
	Hidden                  int
	Dropout                 float64
	Optimizer               string
	Momentum                float64
	WeightDecay             float64
	Nesterov                bool
	MaxGradNorm             float64
	Seed                    int64
	SaveModel               string
	PlotPath                string
}

func DefaultConfig() Config {
	return Config{
		TrainTestVal:   "0.7,0.1,0.2",
		NumFolds:       1,
		ClassifierType: "NN",
		LearningRate:   1e-4,
		BatchSize:      10,
		NumEpochs:      10,
		Hidden:         256,
		Dropout:        0.5,
		Optimizer:      "adam",
	}
}

func (c Config) Validate() error {
	switch {
	case c.PosGroup == "" || c.NegGroup == "":
		return errors.New("pos_group and neg_group are required")
	case c.Expression == "":
		return errors.New("expression file is required")
	case c.MetaData == "":
		return errors.New("meta_data file is required")
	case c.ClassifierType != "NN":
		return fmt.Errorf("classifier type %q is not supported, only NN", c.ClassifierType)
	case c.UseMarkerGenes && c.MarkerFiles == "":
		return errors.New("use_marker_genes needs marker_files")
	case c.NumFolds < 1:
		return fmt.Errorf("num_folds must be positive, got %d", c.NumFolds)
	case c.BatchSize < 1:
		return fmt.Errorf("batch_size must be positive, got %d", c.BatchSize)
	case c.NumEpochs < 1:
		return fmt.Errorf("num_epochs must be positive, got %d", c.NumEpochs)
	case c.Hidden < 1:
		return fmt.Errorf("hidden size must be positive, got %d", c.Hidden)
	case c.LearningRate <= 0:
		return fmt.Errorf("learning_rate must be positive, got %g", c.LearningRate)
	case c.Dropout < 0 || c.Dropout >= 1:
		return fmt.Errorf("dropout must be in [0, 1), got %g", c.Dropout)
	case c.MaxGradNorm < 0:
		return fmt.Errorf("max_grad_norm must not be negative, got %g", c.MaxGradNorm)
	case c.Momentum < 0 || c.Momentum >= 1:
		return fmt.Errorf("momentum must be in [0, 1), got %g", c.Momentum)
	case c.WeightDecay < 0:
		return fmt.Errorf("weight_decay must not be negative, got %g", c.WeightDecay)
	}
	_, err := c.Fractions()
	return err
}

// Fractions parses TrainTestVal as three comma-separated fractions.
func (c Config) Fractions() ([3]float64, error) {
	var out [3]float64
	parts := strings.Split(c.TrainTestVal, ",")
	if len(parts) != 3 {
		return out, fmt.Errorf("train_test_val needs three fractions, got %q", c.TrainTestVal)
	}
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return out, fmt.Errorf("train_test_val: %w", err)
		}
		if v < 0 {
			return out, fmt.Errorf("train_test_val: negative fraction %g", v)
		}
		out[i] = v
	}
	return out, nil
}
