package tensor

import "math"

func equalShapes(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func AlmostEqualSlices(a, b []float64, tol float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.Abs(a[i]-b[i]) > tol {
			return false
		}
	}
	return true
}

// numericGrad estimates d f / d x by central differences, perturbing x in place.
func numericGrad(x *Tensor, f func() float64) []float64 {
	const h = 1e-6
	grad := make([]float64, len(x.data))
	for i := range x.data {
		orig := x.data[i]
		x.data[i] = orig + h
		up := f()
		x.data[i] = orig - h
		down := f()
		x.data[i] = orig
		grad[i] = (up - down) / (2 * h)
	}
	return grad
}
