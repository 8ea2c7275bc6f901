package optim

import (
	"fmt"
	"math"
	"testing"

	"github.com/fumitoshi0524/exprnet/tensor"
)

func almostEqual(a, b []float64, tol float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		diff := math.Abs(a[i] - b[i])
		if diff > tol {
			return false
		}
	}
	return true
}

func TestSGDStepAndMomentum(t *testing.T) {
	param := tensor.MustNew([]float64{1, -2}, 2)
	param.SetRequiresGrad(true)

	s := tensor.Sum(param)
	if err := s.Backward(); err != nil {
		t.Fatalf("backward failed: %v", err)
	}
	opt := NewSGD([]*tensor.Tensor{param}, 0.1, 0)
	if err := opt.Step(); err != nil {
		t.Fatalf("sgd step failed: %v", err)
	}
	expected := []float64{0.9, -2.1}
	if !almostEqual(param.Data(), expected, 1e-9) {
		t.Fatalf("unexpected param after SGD step: got %v want %v", param.Data(), expected)
	}

	// Momentum run for two additional updates with constant gradients of ones.
	paramZero := tensor.MustNew([]float64{1, -2}, 2)
	paramZero.SetRequiresGrad(true)
	momentumOpt := NewSGD([]*tensor.Tensor{paramZero}, 0.1, 0.5)
	for i := 0; i < 2; i++ {
		momentumOpt.ZeroGrad()
		s := tensor.Sum(paramZero)
		if err := s.Backward(); err != nil {
			t.Fatalf("momentum backward failed: %v", err)
		}
		if err := momentumOpt.Step(); err != nil {
			t.Fatalf("momentum step failed: %v", err)
		}
	}
	expectedMomentum := []float64{0.75, -2.25}
	if !almostEqual(paramZero.Data(), expectedMomentum, 1e-9) {
		t.Fatalf("unexpected param after momentum SGD: got %v want %v", paramZero.Data(), expectedMomentum)
	}
}

func TestAdamConvergesOnQuadratic(t *testing.T) {
	param := tensor.MustNew([]float64{5}, 1)
	param.SetRequiresGrad(true)
	target := tensor.Full(3, 1)
	opt := NewAdam([]*tensor.Tensor{param}, 0.05, 0.9, 0.999, 1e-8)

	for i := 0; i < 200; i++ {
		opt.ZeroGrad()
		diff, err := tensor.Sub(param, target)
		if err != nil {
			t.Fatalf("sub failed: %v", err)
		}
		sq := tensor.Pow(diff, 2)
		loss := tensor.Mean(sq)
		if err := loss.Backward(); err != nil {
			t.Fatalf("adam backward failed: %v", err)
		}
		if err := opt.Step(); err != nil {
			t.Fatalf("adam step failed: %v", err)
		}
	}

	val := param.Data()[0]
	if math.Abs(val-3) > 1e-2 {
		t.Fatalf("adam did not converge close to target: got %.6f", val)
	}
}

func TestGradientClippingUtilities(t *testing.T) {
	param := tensor.MustNew([]float64{3, 4}, 2)
	param.SetRequiresGrad(true)
	sum := tensor.Sum(param)
	if err := sum.Backward(); err != nil {
		t.Fatalf("backward failed: %v", err)
	}

	originalNorm := ClipGradNorm([]*tensor.Tensor{param}, 1.0, 2)
	if math.Abs(originalNorm-math.Sqrt(2)) > 1e-6 {
		t.Fatalf("unexpected original norm: %.6f", originalNorm)
	}
	grad := param.Grad()
	data := grad.Data()
	clippedNorm := math.Sqrt(data[0]*data[0] + data[1]*data[1])
	if math.Abs(clippedNorm-1) > 1e-6 {
		t.Fatalf("ClipGradNorm did not rescale to 1, got %.6f", clippedNorm)
	}

}

func TestAdamClipsBeforeStep(t *testing.T) {
	param := tensor.MustNew([]float64{0, 0}, 2)
	param.SetRequiresGrad(true)
	scaled := tensor.MulScalar(param, 100)
	if err := tensor.Sum(scaled).Backward(); err != nil {
		t.Fatalf("backward failed: %v", err)
	}
	opt := NewAdam([]*tensor.Tensor{param}, 0.1, 0.9, 0.999, 1e-8)
	opt.SetGradNorm(1)
	if err := opt.Step(); err != nil {
		t.Fatalf("adam step failed: %v", err)
	}
	if norm := param.GradNorm(2); math.Abs(norm-1) > 1e-9 {
		t.Fatalf("expected clipped grad norm 1, got %v", norm)
	}
	// The first Adam step moves every coordinate by lr regardless of scale.
	if !almostEqual(param.Data(), []float64{-0.1, -0.1}, 1e-6) {
		t.Fatalf("unexpected params after first step: %v", param.Data())
	}
}

func TestNewSelectsOptimizer(t *testing.T) {
	params := []*tensor.Tensor{tensor.Zeros(1)}
	if opt, err := New(params, Config{Name: "adam", LR: 0.1}); err != nil {
		t.Fatalf("adam: %v", err)
	} else if _, ok := opt.(*Adam); !ok {
		t.Fatalf("expected *Adam, got %T", opt)
	}
	if opt, err := New(params, Config{Name: "sgd", LR: 0.1, Momentum: 0.9}); err != nil {
		t.Fatalf("sgd: %v", err)
	} else if _, ok := opt.(*SGD); !ok {
		t.Fatalf("expected *SGD, got %T", opt)
	}
	for name, want := range map[string]Optimizer{
		"adamw":    &AdamW{},
		"rmsprop":  &RMSProp{},
		"adagrad":  &Adagrad{},
		"adadelta": &Adadelta{},
	} {
		opt, err := New(params, Config{Name: name, LR: 0.1})
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if fmt.Sprintf("%T", opt) != fmt.Sprintf("%T", want) {
			t.Fatalf("%s: expected %T, got %T", name, want, opt)
		}
	}
	if _, err := New(params, Config{Name: "lbfgs"}); err == nil {
		t.Fatalf("expected error for unknown optimizer")
	}
}

func TestNewOptimizersDescendQuadratic(t *testing.T) {
	rates := map[string]float64{
		"adam":     0.05,
		"adamw":    0.05,
		"sgd":      0.1,
		"rmsprop":  0.01,
		"adagrad":  0.5,
		"adadelta": 1.0,
	}
	for _, name := range Names {
		param := tensor.MustNew([]float64{5}, 1)
		param.SetRequiresGrad(true)
		target := tensor.Full(3, 1)
		opt, err := New([]*tensor.Tensor{param}, Config{Name: name, LR: rates[name]})
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		for i := 0; i < 100; i++ {
			opt.ZeroGrad()
			diff, err := tensor.Sub(param, target)
			if err != nil {
				t.Fatalf("%s: sub failed: %v", name, err)
			}
			if err := tensor.Mean(tensor.Pow(diff, 2)).Backward(); err != nil {
				t.Fatalf("%s: backward failed: %v", name, err)
			}
			if err := opt.Step(); err != nil {
				t.Fatalf("%s: step failed: %v", name, err)
			}
		}
		if got := param.Data()[0]; math.Abs(got-3) >= 2 || math.IsNaN(got) {
			t.Fatalf("%s did not move towards the minimum: %v", name, got)
		}
	}
}

func TestSGDWeightDecayAndNesterov(t *testing.T) {
	param := tensor.MustNew([]float64{1}, 1)
	param.SetRequiresGrad(true)
	if err := tensor.Sum(param).Backward(); err != nil {
		t.Fatalf("backward failed: %v", err)
	}
	opt, err := New([]*tensor.Tensor{param}, Config{Name: "sgd", LR: 0.1, WeightDecay: 0.5})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := opt.Step(); err != nil {
		t.Fatalf("step failed: %v", err)
	}
	if !almostEqual(param.Data(), []float64{0.85}, 1e-9) {
		t.Fatalf("weight decay: got %v want [0.85]", param.Data())
	}

	param = tensor.MustNew([]float64{1}, 1)
	param.SetRequiresGrad(true)
	opt, err = New([]*tensor.Tensor{param}, Config{Name: "sgd", LR: 0.1, Momentum: 0.5, Nesterov: true})
	if err != nil {
		t.Fatalf("new nesterov: %v", err)
	}
	for i := 0; i < 2; i++ {
		opt.ZeroGrad()
		if err := tensor.Sum(param).Backward(); err != nil {
			t.Fatalf("backward failed: %v", err)
		}
		if err := opt.Step(); err != nil {
			t.Fatalf("step failed: %v", err)
		}
	}
	// Plain momentum would land on 0.75.
	if !almostEqual(param.Data(), []float64{0.675}, 1e-9) {
		t.Fatalf("nesterov: got %v want [0.675]", param.Data())
	}
}

func TestNewRejectsBadRegularisation(t *testing.T) {
	params := []*tensor.Tensor{tensor.Zeros(1)}
	cases := []Config{
		{Name: "sgd", LR: 0.1, WeightDecay: -1},
		{Name: "sgd", LR: 0.1, Nesterov: true},
		{Name: "adam", LR: 0.1, Momentum: 0.9, Nesterov: true},
	}
	for _, cfg := range cases {
		if _, err := New(params, cfg); err == nil {
			t.Fatalf("expected error for %+v", cfg)
		}
	}
}

func TestAdamWDecouplesWeightDecay(t *testing.T) {
	step := func(name string) float64 {
		param := tensor.MustNew([]float64{4}, 1)
		param.SetRequiresGrad(true)
		if err := tensor.Sum(tensor.MulScalar(param, 0)).Backward(); err != nil {
			t.Fatalf("backward failed: %v", err)
		}
		opt, err := New([]*tensor.Tensor{param}, Config{Name: name, LR: 0.1, WeightDecay: 0.5})
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if err := opt.Step(); err != nil {
			t.Fatalf("%s: step failed: %v", name, err)
		}
		return param.Data()[0]
	}
	// AdamW shrinks by lr*wd; Adam folds the penalty into the gradient and
	// takes a normalised step of lr.
	if got := step("adamw"); math.Abs(got-3.8) > 1e-9 {
		t.Fatalf("adamw: got %v want 3.8", got)
	}
	if got := step("adam"); math.Abs(got-3.9) > 1e-6 {
		t.Fatalf("adam: got %v want 3.9", got)
	}
}
