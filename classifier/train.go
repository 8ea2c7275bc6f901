package classifier

import (
	"errors"
	"fmt"
	"io"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/fumitoshi0524/exprnet/loss"
	"github.com/fumitoshi0524/exprnet/nn"
	"github.com/fumitoshi0524/exprnet/optim"
	"github.com/fumitoshi0524/exprnet/tensor"
)

// EpochResult holds the evaluation-mode accuracies measured after an epoch.
type EpochResult struct {
	Loss          float64
	TrainAccuracy float64
	TestAccuracy  float64
}

type FoldResult struct {
	Fold int
	// Epochs in training order.
	Epochs []EpochResult
	// BestTestAccuracy is the test accuracy of the restored best model.
	BestTestAccuracy   float64
	ValidationAccuracy float64
}

// Accuracy is the fraction of rows whose highest score is at the label's
// column.
func Accuracy(scores *tensor.Tensor, labels []int) (float64, error) {
	shape := scores.Shape()
	if len(shape) != 2 || shape[0] != len(labels) {
		return 0, fmt.Errorf("scores %v do not match %d labels", shape, len(labels))
	}
	if len(labels) == 0 {
		return 0, errors.New("accuracy of an empty set")
	}
	correct := 0
	for i, idx := range tensor.ArgmaxRows(scores) {
		if idx == labels[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(labels)), nil
}

const evalBatch = 256

// scores runs net in evaluation mode over vectors, evalBatch rows at a time.
func scores(net *nn.Sequential, vectors mat.Matrix) (*tensor.Tensor, error) {
	rows, _ := vectors.Dims()
	if rows == 0 {
		return nil, errors.New("no rows to score")
	}
	net.Eval()
	x := tensor.FromDense(vectors)
	out := make([]float64, 0, rows*2)
	for start := 0; start < rows; start += evalBatch {
		end := start + evalBatch
		if end > rows {
			end = rows
		}
		batch, err := tensor.SliceRows2D(x, start, end-start)
		if err != nil {
			return nil, err
		}
		logits, err := net.Forward(batch)
		if err != nil {
			return nil, err
		}
		out = append(out, logits.Data()...)
	}
	return tensor.New(out, rows, len(out)/rows)
}

// Evaluate returns the accuracy of net on data in evaluation mode.
func Evaluate(net *nn.Sequential, data *Dataset) (float64, error) {
	s, err := scores(net, data.Vectors)
	if err != nil {
		return 0, err
	}
	return Accuracy(s, data.Labels)
}

// Predict returns the softmax class probabilities of every row of vectors.
func Predict(net *nn.Sequential, vectors mat.Matrix) (*tensor.Tensor, error) {
	s, err := scores(net, vectors)
	if err != nil {
		return nil, err
	}
	return tensor.Softmax(s, 1)
}

type fold struct {
	cfg      Config
	net      *nn.Sequential
	opt      optim.Optimizer
	progress io.Writer
}

func newFold(dim int, cfg Config, progress io.Writer) (*fold, error) {
	net := NewNetwork(dim, cfg.Hidden, cfg.Dropout, cfg.TrainMarkerCoefficients)
	opt, err := optim.New(net.Parameters(), optim.Config{
		Name:        cfg.Optimizer,
		LR:          cfg.LearningRate,
		Momentum:    cfg.Momentum,
		WeightDecay: cfg.WeightDecay,
		Nesterov:    cfg.Nesterov,
		MaxGradNorm: cfg.MaxGradNorm,
	})
	if err != nil {
		return nil, err
	}
	return &fold{cfg: cfg, net: net, opt: opt, progress: progress}, nil
}

func (f *fold) printf(format string, args ...interface{}) {
	if f.progress != nil {
		fmt.Fprintf(f.progress, format, args...)
	}
}

// epoch takes one optimizer step per batch and returns the mean batch loss.
func (f *fold) epoch(train *Dataset) (float64, error) {
	f.net.Train()
	x := tensor.FromDense(train.Vectors)
	total, batches := 0.0, 0
	for start := 0; start < train.Len(); start += f.cfg.BatchSize {
		end := start + f.cfg.BatchSize
		if end > train.Len() {
			end = train.Len()
		}
		batch, err := tensor.SliceRows2D(x, start, end-start)
		if err != nil {
			return 0, err
		}
		f.opt.ZeroGrad()
		logits, err := f.net.Forward(batch)
		if err != nil {
			return 0, err
		}
		l, err := loss.CrossEntropy(logits, train.Labels[start:end])
		if err != nil {
			return 0, err
		}
		if err := l.Backward(); err != nil {
			return 0, err
		}
		if err := f.opt.Step(); err != nil {
			return 0, err
		}
		total += l.Item()
		batches++
	}
	return total / float64(batches), nil
}

func (f *fold) run(index int, train, test, val *Dataset) (FoldResult, error) {
	result := FoldResult{Fold: index}
	best := -1.0
	var bestState map[string]*tensor.Tensor
	for e := 0; e < f.cfg.NumEpochs; e++ {
		meanLoss, err := f.epoch(train)
		if err != nil {
			return result, fmt.Errorf("epoch %d: %w", e, err)
		}
		trainAcc, err := Evaluate(f.net, train)
		if err != nil {
			return result, err
		}
		testAcc, err := Evaluate(f.net, test)
		if err != nil {
			return result, err
		}
		if testAcc > best {
			best = testAcc
			bestState = nn.Snapshot(f.net)
		}
		result.Epochs = append(result.Epochs, EpochResult{Loss: meanLoss, TrainAccuracy: trainAcc, TestAccuracy: testAcc})
		f.printf("Completed epoch %d, obtained train, test accuracy %f,%f\n", e, trainAcc, testAcc)
	}
	if err := nn.Restore(f.net, bestState); err != nil {
		return result, fmt.Errorf("restore best model: %w", err)
	}
	var err error
	if result.BestTestAccuracy, err = Evaluate(f.net, test); err != nil {
		return result, err
	}
	f.printf("Fold %d sanity check: Validation model has test accuracy %f\n", index, result.BestTestAccuracy)
	if result.ValidationAccuracy, err = Evaluate(f.net, val); err != nil {
		return result, err
	}
	f.printf("Fold %d has validation accuracy %f\n", index, result.ValidationAccuracy)
	return result, nil
}

// CrossValidate trains a fresh network per fold. Each fold splits the current
// row order into train, test and validation parts, keeps the weights with the
// best test accuracy, and reports the validation accuracy of those weights.
// Rows are then rotated by the validation size so the next fold validates on
// different patients. The best network of the last fold is returned.
func CrossValidate(data *Dataset, cfg Config, progress io.Writer) ([]FoldResult, *nn.Sequential, error) {
	fractions, err := cfg.Fractions()
	if err != nil {
		return nil, nil, err
	}
	ntrain, ntest, nval, err := Split(data.Len(), fractions)
	if err != nil {
		return nil, nil, err
	}
	var results []FoldResult
	var net *nn.Sequential
	for i := 0; i < cfg.NumFolds; i++ {
		f, err := newFold(data.Dim(), cfg, progress)
		if err != nil {
			return nil, nil, err
		}
		res, err := f.run(i,
			data.Slice(0, ntrain),
			data.Slice(ntrain, ntrain+ntest),
			data.Slice(ntrain+ntest, data.Len()),
		)
		if err != nil {
			return results, nil, fmt.Errorf("fold %d: %w", i, err)
		}
		results = append(results, res)
		net = f.net
		data = data.Rotate(nval)
	}
	return results, net, nil
}

// Summary returns the mean and sample standard deviation of the validation
// accuracies. The deviation is zero for a single fold.
func Summary(results []FoldResult) (mean, std float64) {
	acc := make([]float64, len(results))
	for i, r := range results {
		acc[i] = r.ValidationAccuracy
	}
	switch len(acc) {
	case 0:
		return 0, 0
	case 1:
		return acc[0], 0
	}
	return stat.MeanStdDev(acc, nil)
}
