// Command classifier trains and cross-validates a neural network that
// separates two groups of patients by gene expression.
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/pkg/profile"

	"github.com/fumitoshi0524/exprnet/classifier"
	"github.com/fumitoshi0524/exprnet/internal/report"
	"github.com/fumitoshi0524/exprnet/nn"
	"github.com/fumitoshi0524/exprnet/optim"
	"github.com/fumitoshi0524/exprnet/tensor"
)

func main() {
	cfg := classifier.DefaultConfig()
	flag.StringVar(&cfg.PosGroup, "pos_group", "", "comma-separated patient groups designated positive")
	flag.StringVar(&cfg.NegGroup, "neg_group", "", "comma-separated patient groups designated negative")
	flag.StringVar(&cfg.Expression, "expression", "", "gene expression file (genes × patients, csv or tsv)")
	flag.StringVar(&cfg.MetaData, "meta_data", "", "meta data file with label information")
	flag.StringVar(&cfg.MarkerFiles, "marker_files", "", "comma-separated marker gene files")
	flag.StringVar(&cfg.TrainTestVal, "train_test_val", cfg.TrainTestVal, "comma-separated train,test,validation split")
	flag.IntVar(&cfg.NumFolds, "num_folds", cfg.NumFolds, "number of folds of cross-validation to perform")
	flag.StringVar(&cfg.ClassifierType, "classifier_type", cfg.ClassifierType, "type of classifier to use (NN)")
	flag.BoolVar(&cfg.UseMarkerGenes, "use_marker_genes", false, "restrict the input to marker genes")
	flag.BoolVar(&cfg.TrainMarkerCoefficients, "train_marker_coefficients", false, "learn a coefficient per input gene during training")
	flag.Float64Var(&cfg.LearningRate, "learning_rate", cfg.LearningRate, "learning rate")
	flag.IntVar(&cfg.BatchSize, "batch_size", cfg.BatchSize, "batch size to use for training")
	flag.IntVar(&cfg.NumEpochs, "num_epochs", cfg.NumEpochs, "number of epochs to train")
	flag.IntVar(&cfg.Hidden, "hidden", cfg.Hidden, "hidden layer width")
	flag.Float64Var(&cfg.Dropout, "dropout", cfg.Dropout, "dropout probability on the output layer")
	flag.StringVar(&cfg.Optimizer, "optimizer", cfg.Optimizer, "optimizer: "+strings.Join(optim.Names, ", "))
	flag.Float64Var(&cfg.Momentum, "momentum", 0, "momentum for sgd and rmsprop")
	flag.Float64Var(&cfg.WeightDecay, "weight_decay", 0, "L2 weight decay (decoupled for adamw)")
	flag.BoolVar(&cfg.Nesterov, "nesterov", false, "use Nesterov momentum (sgd only)")
	flag.Float64Var(&cfg.MaxGradNorm, "max_grad_norm", 0, "clip gradients to this L2 norm (0 disables)")
	flag.Int64Var(&cfg.Seed, "seed", 0, "random seed (0 uses the clock)")
	flag.StringVar(&cfg.SaveModel, "save_model", "", "write the best network of the last fold to this checkpoint")
	flag.StringVar(&cfg.PlotPath, "plot", "", "write per-epoch accuracy curves to this image file")
	cpuProfile := flag.String("cpuprofile", "", "write a CPU profile into this directory")
	flag.Parse()

	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		flag.Usage()
		os.Exit(2)
	}
	if err := run(cfg, *cpuProfile); err != nil {
		log.Fatal(err)
	}
}

func run(cfg classifier.Config, cpuProfile string) error {
	if cpuProfile != "" {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(cpuProfile)).Stop()
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	tensor.Seed(seed)

	data, err := classifier.LoadDataset(cfg)
	if err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}
	positives := 0
	for _, l := range data.Labels {
		positives += l
	}
	fmt.Printf("Found %d patients for groups %s in positive group and %d patients for groups %s in negative group\n",
		positives, cfg.PosGroup, data.Len()-positives, cfg.NegGroup)
	data.Shuffle(rand.New(rand.NewSource(seed)))
	fmt.Println("Read gene expression file", cfg.Expression)

	results, net, err := classifier.CrossValidate(data, cfg, os.Stdout)
	if err != nil {
		return fmt.Errorf("cross-validate: %w", err)
	}
	mean, std := classifier.Summary(results)
	fmt.Printf("Mean validation accuracy over %d folds: %f (std %f)\n", len(results), mean, std)

	if cfg.SaveModel != "" {
		if err := nn.SaveModule(cfg.SaveModel, net); err != nil {
			return fmt.Errorf("save model: %w", err)
		}
	}
	if cfg.PlotPath != "" {
		var series []report.Series
		for _, r := range results {
			train := make([]float64, len(r.Epochs))
			test := make([]float64, len(r.Epochs))
			for i, e := range r.Epochs {
				train[i], test[i] = e.TrainAccuracy, e.TestAccuracy
			}
			series = append(series,
				report.Series{Name: fmt.Sprintf("fold %d train", r.Fold), Values: train},
				report.Series{Name: fmt.Sprintf("fold %d test", r.Fold), Values: test},
			)
		}
		if err := report.SaveCurves(cfg.PlotPath, "epochs vs accuracy", "accuracy", series...); err != nil {
			return fmt.Errorf("plot: %w", err)
		}
	}
	return nil
}
