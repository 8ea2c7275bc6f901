package nn

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fumitoshi0524/exprnet/tensor"
)

type Module interface {
	Forward(input *tensor.Tensor) (*tensor.Tensor, error)
	Parameters() []*tensor.Tensor
	ZeroGrad()
}

type StatefulModule interface {
	Module
	StateDict(prefix string, state map[string]*tensor.Tensor)
	LoadState(prefix string, state map[string]*tensor.Tensor) error
}

// Trainable is implemented by modules whose forward pass differs between
// training and evaluation, such as Dropout.
type Trainable interface {
	Train()
	Eval()
}

func ZeroGradAll(mods ...Module) {
	for _, m := range mods {
		if m == nil {
			continue
		}
		m.ZeroGrad()
	}
}

// SetTraining switches every Trainable among mods into training or
// evaluation mode.
func SetTraining(training bool, mods ...Module) {
	for _, m := range mods {
		t, ok := m.(Trainable)
		if !ok {
			continue
		}
		if training {
			t.Train()
		} else {
			t.Eval()
		}
	}
}

// Snapshot deep-copies the module state so it can be restored after further
// training.
func Snapshot(mod Module) map[string]*tensor.Tensor {
	state := make(map[string]*tensor.Tensor)
	if sm, ok := mod.(StatefulModule); ok {
		sm.StateDict("", state)
	} else {
		captureParameters("", mod, state)
	}
	return state
}

// Restore copies a Snapshot back into mod.
func Restore(mod Module, state map[string]*tensor.Tensor) error {
	if sm, ok := mod.(StatefulModule); ok {
		return sm.LoadState("", state)
	}
	return loadParameters("", mod, state)
}

// WriteModule encodes the module state as JSON, keyed by parameter path.
func WriteModule(w io.Writer, mod Module) error {
	if mod == nil {
		return errors.New("WriteModule requires non-nil module")
	}
	state := Snapshot(mod)
	if len(state) == 0 {
		return errors.New("module has no state to save")
	}
	return tensor.WriteTensors(w, state)
}

func SaveModule(path string, mod Module) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteModule(file, mod); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

func LoadModule(path string, mod Module) error {
	if mod == nil {
		return errors.New("LoadModule requires non-nil module")
	}
	state, err := tensor.LoadTensors(path)
	if err != nil {
		return err
	}
	return Restore(mod, state)
}

func joinPrefix(prefix, name string) string {
	if prefix == "" {
		return name
	}
	if name == "" {
		return prefix
	}
	return prefix + "." + name
}

func captureParameters(prefix string, mod Module, state map[string]*tensor.Tensor) {
	for idx, p := range mod.Parameters() {
		if p == nil {
			continue
		}
		state[joinPrefix(prefix, fmt.Sprintf("param_%d", idx))] = p.Clone()
	}
}

func loadParameters(prefix string, mod Module, state map[string]*tensor.Tensor) error {
	for idx, p := range mod.Parameters() {
		if p == nil {
			continue
		}
		key := joinPrefix(prefix, fmt.Sprintf("param_%d", idx))
		if err := loadInto(p, key, state); err != nil {
			return err
		}
	}
	return nil
}

func loadInto(dst *tensor.Tensor, key string, state map[string]*tensor.Tensor) error {
	src, ok := state[key]
	if !ok {
		return fmt.Errorf("missing parameter %s", key)
	}
	if err := tensor.CopyInto(dst, src); err != nil {
		return fmt.Errorf("load %s: %w", key, err)
	}
	return nil
}
