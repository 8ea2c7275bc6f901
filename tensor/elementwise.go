package tensor

import (
	"math"

	"github.com/fumitoshi0524/exprnet/internal/parallel"
)

// unary applies f to every element. df receives the input and output values
// and returns the local derivative.
func unary(a *Tensor, f func(x float64) float64, df func(x, y float64) float64) *Tensor {
	out := Zeros(a.shape...)
	parallel.For(len(out.data), func(start, end int) {
		for i := start; i < end; i++ {
			out.data[i] = f(a.data[i])
		}
	})
	record(out, func(grad *Tensor, grads map[*Tensor]*Tensor) {
		g := Zeros(a.shape...)
		parallel.For(len(g.data), func(start, end int) {
			for i := start; i < end; i++ {
				g.data[i] = grad.data[i] * df(a.data[i], out.data[i])
			}
		})
		accumulate(grads, a, g)
	}, a)
	return out
}

// binary applies f pairwise. da and db return the partial derivatives with
// respect to each operand.
func binary(a, b *Tensor, f func(x, y float64) float64, da, db func(x, y float64) float64) (*Tensor, error) {
	if err := ensureSameShape(a, b); err != nil {
		return nil, err
	}
	out := Zeros(a.shape...)
	parallel.For(len(out.data), func(start, end int) {
		for i := start; i < end; i++ {
			out.data[i] = f(a.data[i], b.data[i])
		}
	})
	record(out, func(grad *Tensor, grads map[*Tensor]*Tensor) {
		for _, side := range []struct {
			t  *Tensor
			df func(x, y float64) float64
		}{{a, da}, {b, db}} {
			if !side.t.requiresGrad {
				continue
			}
			g := Zeros(a.shape...)
			df := side.df
			parallel.For(len(g.data), func(start, end int) {
				for i := start; i < end; i++ {
					g.data[i] = grad.data[i] * df(a.data[i], b.data[i])
				}
			})
			accumulate(grads, side.t, g)
		}
	}, a, b)
	return out, nil
}

func one(x, y float64) float64      { return 1 }
func minusOne(x, y float64) float64 { return -1 }

func Add(a, b *Tensor) (*Tensor, error) {
	return binary(a, b, func(x, y float64) float64 { return x + y }, one, one)
}

func Sub(a, b *Tensor) (*Tensor, error) {
	return binary(a, b, func(x, y float64) float64 { return x - y }, one, minusOne)
}

func Mul(a, b *Tensor) (*Tensor, error) {
	return binary(a, b,
		func(x, y float64) float64 { return x * y },
		func(x, y float64) float64 { return y },
		func(x, y float64) float64 { return x },
	)
}

func Div(a, b *Tensor) (*Tensor, error) {
	return binary(a, b,
		func(x, y float64) float64 { return x / y },
		func(x, y float64) float64 { return 1 / y },
		func(x, y float64) float64 { return -x / (y * y) },
	)
}

func Pow(a *Tensor, value float64) *Tensor {
	return unary(a,
		func(x float64) float64 { return math.Pow(x, value) },
		func(x, _ float64) float64 { return value * math.Pow(x, value-1) },
	)
}

func Exp(a *Tensor) *Tensor {
	return unary(a, math.Exp, func(_, y float64) float64 { return y })
}

func Log(a *Tensor) *Tensor {
	return unary(a, math.Log, func(x, _ float64) float64 { return 1 / x })
}

func AddScalar(a *Tensor, value float64) *Tensor {
	return unary(a, func(x float64) float64 { return x + value }, one)
}

func MulScalar(a *Tensor, value float64) *Tensor {
	return unary(a,
		func(x float64) float64 { return x * value },
		func(_, _ float64) float64 { return value },
	)
}

func Relu(a *Tensor) *Tensor {
	return unary(a,
		func(x float64) float64 { return math.Max(x, 0) },
		func(x, _ float64) float64 {
			if x > 0 {
				return 1
			}
			return 0
		},
	)
}

func Sum(a *Tensor) *Tensor {
	val := 0.0
	for _, v := range a.data {
		val += v
	}
	out := MustNew([]float64{val}, 1)
	record(out, func(grad *Tensor, grads map[*Tensor]*Tensor) {
		accumulate(grads, a, Full(grad.data[0], a.shape...))
	}, a)
	return out
}

func Mean(a *Tensor) *Tensor {
	return MulScalar(Sum(a), 1.0/float64(a.Numel()))
}
