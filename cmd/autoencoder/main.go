// Command autoencoder learns the components of a sample matrix stored as a
// NumPy .npy file and writes the per-sample compositions and reconstructions.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/pkg/profile"

	"github.com/fumitoshi0524/exprnet/autoencoder"
	"github.com/fumitoshi0524/exprnet/internal/npy"
	"github.com/fumitoshi0524/exprnet/internal/report"
	"github.com/fumitoshi0524/exprnet/optim"
	"github.com/fumitoshi0524/exprnet/tensor"
)

func main() {
	cfg := autoencoder.DefaultConfig()
	flag.StringVar(&cfg.Samples, "samples", "", "file where samples are kept (.npy)")
	flag.IntVar(&cfg.NumComponents, "num_components", 0, "number of components")
	flag.IntVar(&cfg.NumIterations, "num_iterations", 0, "number of iterations to train")
	flag.IntVar(&cfg.BatchSize, "batch_size", 0, "batch size")
	flag.StringVar(&cfg.OutputPrefix, "output_prefix", "", "prefix of files in which to store component estimates")
	flag.Float64Var(&cfg.LearningRate, "learning_rate", cfg.LearningRate, "learning rate")
	flag.Float64Var(&cfg.CompositionWeight, "composition_weight", cfg.CompositionWeight, "weight placed on the regularizing loss")
	flag.BoolVar(&cfg.RegularizeAnalysis, "regularize_analysis", false, "add the regularizing loss term")
	flag.StringVar(&cfg.InitExpVector, "init_exp_vector", "", "initialization for expression vectors (.npy)")
	flag.BoolVar(&cfg.UseInverseDecoder, "use_inverse_decoder", false, "use an encoder that is the pseudo-inverse of the decoder")
	flag.StringVar(&cfg.Optimizer, "optimizer", cfg.Optimizer, "optimizer: "+strings.Join(optim.Names, ", "))
	flag.Float64Var(&cfg.Momentum, "momentum", 0, "momentum for sgd and rmsprop")
	flag.Float64Var(&cfg.WeightDecay, "weight_decay", 0, "L2 weight decay (decoupled for adamw)")
	flag.BoolVar(&cfg.Nesterov, "nesterov", false, "use Nesterov momentum (sgd only)")
	flag.Float64Var(&cfg.MaxGradNorm, "max_grad_norm", 0, "clip gradients to this L2 norm (0 disables)")
	flag.Int64Var(&cfg.Seed, "seed", 0, "random seed (0 uses the clock)")
	flag.StringVar(&cfg.PlotPath, "plot", "", "write the loss curve to this image file")
	flag.StringVar(&cfg.SaveModel, "save_model", "", "write the trained matrices to this checkpoint")
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

func run(cfg autoencoder.Config, cpuProfile string) error {
	if cpuProfile != "" {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(cpuProfile)).Stop()
	}
	tensor.Seed(cfg.Seed)

	samples, err := npy.ReadMatrix(cfg.Samples)
	if err != nil {
		return fmt.Errorf("load samples: %w", err)
	}
	_, features := samples.Dims()

	model, err := autoencoder.NewModel(features, cfg.NumComponents, cfg.UseInverseDecoder)
	if err != nil {
		return fmt.Errorf("model: %w", err)
	}
	if cfg.InitExpVector != "" {
		initVectors, err := npy.ReadMatrix(cfg.InitExpVector)
		if err != nil {
			return fmt.Errorf("load init_exp_vector: %w", err)
		}
		if err := model.SetSynthesis(initVectors); err != nil {
			return fmt.Errorf("init_exp_vector: %w", err)
		}
	}

	losses, err := autoencoder.Train(model, samples, cfg, os.Stdout)
	if err != nil {
		return fmt.Errorf("train: %w", err)
	}

	components, predictions, err := autoencoder.Infer(model, samples)
	if err != nil {
		return fmt.Errorf("infer: %w", err)
	}
	if err := autoencoder.WriteOutputs(cfg.OutputPrefix, components, predictions); err != nil {
		return fmt.Errorf("write outputs: %w", err)
	}
	if cfg.SaveModel != "" {
		state := map[string]*tensor.Tensor{}
		model.StateDict("", state)
		if err := tensor.SaveTensors(cfg.SaveModel, state); err != nil {
			return fmt.Errorf("save model: %w", err)
		}
	}
	if cfg.PlotPath != "" && len(losses) > 0 {
		if err := report.SaveCurves(cfg.PlotPath, "epochs vs loss", "total loss",
			report.Series{Name: "loss", Values: losses}); err != nil {
			return fmt.Errorf("plot: %w", err)
		}
	}
	return nil
}
