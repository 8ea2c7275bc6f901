package tensor

import (
	"errors"

	"github.com/fumitoshi0524/exprnet/internal/parallel"
)

// Backward propagates gradients from t, which is usually a one-element loss,
// into every tensor on its tape. Gradients add up across calls until ZeroGrad.
func (t *Tensor) Backward() error {
	if t == nil {
		return errors.New("nil tensor")
	}
	if !t.requiresGrad {
		return errors.New("tensor does not require grad")
	}
	order := topo(t)
	grads := map[*Tensor]*Tensor{t: Full(1, t.shape...)}
	for i := len(order) - 1; i >= 0; i-- {
		current := order[i]
		grad := grads[current]
		if grad == nil {
			continue
		}
		if current.grad == nil {
			current.grad = grad.Clone()
		} else {
			addInPlace(current.grad, grad)
		}
		if current.node != nil {
			current.node.backward(grad, grads)
		}
	}
	return nil
}

func topo(root *Tensor) []*Tensor {
	visited := map[*Tensor]bool{}
	var order []*Tensor
	var visit func(*Tensor)
	visit = func(n *Tensor) {
		if n == nil || visited[n] {
			return
		}
		visited[n] = true
		for _, parent := range n.parents {
			visit(parent)
		}
		order = append(order, n)
	}
	visit(root)
	return order
}

// record wires out into the tape when any input requires grad. The backward
// closure is responsible for skipping inputs that do not.
func record(out *Tensor, backward func(grad *Tensor, grads map[*Tensor]*Tensor), inputs ...*Tensor) {
	var parents []*Tensor
	for _, in := range inputs {
		if in != nil && in.requiresGrad {
			parents = append(parents, in)
		}
	}
	if len(parents) == 0 {
		return
	}
	out.requiresGrad = true
	out.parents = parents
	out.node = &node{backward: backward}
}

func accumulate(grads map[*Tensor]*Tensor, target *Tensor, value *Tensor) {
	if target == nil || value == nil || !target.requiresGrad {
		return
	}
	if existing, ok := grads[target]; ok {
		addInPlace(existing, value)
	} else {
		grads[target] = value.Clone()
	}
}

func addInPlace(dst, src *Tensor) {
	if err := ensureSameShape(dst, src); err != nil {
		panic(err)
	}
	parallel.For(len(dst.data), func(start, end int) {
		for i := start; i < end; i++ {
			dst.data[i] += src.data[i]
		}
	})
}
