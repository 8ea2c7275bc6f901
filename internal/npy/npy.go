// Package npy reads and writes NumPy .npy arrays as gonum matrices.
package npy

import (
	"fmt"
	"os"

	"github.com/sbinet/npyio"
	"gonum.org/v1/gonum/mat"
)

// ReadMatrix loads a 1-D or 2-D array of any numeric dtype. A 1-D array of
// length n becomes a 1×n matrix.
func ReadMatrix(path string) (*mat.Dense, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r, err := npyio.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("npy %s: %w", path, err)
	}
	shape := r.Header.Descr.Shape
	var rows, cols int
	switch len(shape) {
	case 1:
		rows, cols = 1, shape[0]
	case 2:
		rows, cols = shape[0], shape[1]
	default:
		return nil, fmt.Errorf("npy %s: expected 1-D or 2-D array, got shape %v", path, shape)
	}
	if rows == 0 || cols == 0 {
		return nil, fmt.Errorf("npy %s: empty array", path)
	}

	data, err := readFloat64(r)
	if err != nil {
		return nil, fmt.Errorf("npy %s: %w", path, err)
	}
	if len(data) != rows*cols {
		return nil, fmt.Errorf("npy %s: read %d values for shape %v", path, len(data), shape)
	}
	if r.Header.Descr.Fortran && len(shape) == 2 {
		// Column-major on disk: read as cols×rows and transpose.
		return mat.DenseCopyOf(mat.NewDense(cols, rows, data).T()), nil
	}
	return mat.NewDense(rows, cols, data), nil
}

func readFloat64(r *npyio.Reader) ([]float64, error) {
	switch r.Header.Descr.Type {
	case "<f8", "f8", ">f8":
		var v []float64
		err := r.Read(&v)
		return v, err
	case "<f4", "f4", ">f4":
		var v []float32
		if err := r.Read(&v); err != nil {
			return nil, err
		}
		return widen(v), nil
	case "<i8", "i8", ">i8":
		var v []int64
		if err := r.Read(&v); err != nil {
			return nil, err
		}
		return widen(v), nil
	case "<i4", "i4", ">i4":
		var v []int32
		if err := r.Read(&v); err != nil {
			return nil, err
		}
		return widen(v), nil
	case "|u1", "u1":
		var v []uint8
		if err := r.Read(&v); err != nil {
			return nil, err
		}
		return widen(v), nil
	default:
		return nil, fmt.Errorf("unsupported dtype %q", r.Header.Descr.Type)
	}
}

func widen[T float32 | int64 | int32 | uint8](v []T) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}

// WriteMatrix stores m as a little-endian float64 2-D array.
func WriteMatrix(path string, m mat.Matrix) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := npyio.Write(f, m); err != nil {
		f.Close()
		return fmt.Errorf("npy %s: %w", path, err)
	}
	return f.Close()
}
