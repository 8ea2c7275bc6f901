// Command synthesize writes toy datasets for the autoencoder and classifier
// commands: mixtures of random expression components as .npy files, and a
// labelled genes × patients table with matching meta data.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/fumitoshi0524/exprnet/internal/npy"
)

func main() {
	samples := flag.Int("num_samples", 200, "number of samples or patients")
	features := flag.Int("num_features", 50, "number of genes per sample")
	components := flag.Int("num_components", 3, "number of mixture components")
	noise := flag.Float64("noise", 0.01, "standard deviation of additive noise")
	prefix := flag.String("output_prefix", "synthetic", "prefix of the written files")
	patients := flag.Bool("patients", false, "also write <prefix>_expression.csv and <prefix>_meta.csv")
	seed := flag.Int64("seed", 0, "random seed (0 uses the clock)")
	flag.Parse()

	if *samples < 1 || *features < 1 || *components < 1 {
		log.Fatalf("num_samples, num_features and num_components must be positive")
	}
	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(*seed))

	comps := mat.NewDense(*components, *features, nil)
	for k := 0; k < *components; k++ {
		for j := 0; j < *features; j++ {
			comps.Set(k, j, math.Abs(rng.NormFloat64()))
		}
	}
	weights := mat.NewDense(*samples, *components, nil)
	for i := 0; i < *samples; i++ {
		row := weights.RawRowView(i)
		for k := range row {
			row[k] = rng.NormFloat64()
		}
		softmax(row)
	}
	var x mat.Dense
	x.Mul(weights, comps)
	for i := 0; i < *samples; i++ {
		row := x.RawRowView(i)
		for j := range row {
			row[j] += *noise * rng.NormFloat64()
		}
	}

	for path, m := range map[string]mat.Matrix{
		*prefix + "_samples.npy":    &x,
		*prefix + "_components.npy": comps,
		*prefix + "_weights.npy":    weights,
	} {
		if err := npy.WriteMatrix(path, m); err != nil {
			log.Fatalf("write %s: %v", path, err)
		}
		fmt.Printf("wrote %s\n", path)
	}

	if *patients {
		if err := writePatients(*prefix, &x, weights); err != nil {
			log.Fatalf("write patients: %v", err)
		}
	}
}

func softmax(v []float64) {
	floats.AddConst(-floats.LogSumExp(v), v)
	for i := range v {
		v[i] = math.Exp(v[i])
	}
}

// writePatients labels a patient "case" when the first component dominates
// its mixture and "control" otherwise.
func writePatients(prefix string, x, weights *mat.Dense) error {
	n, genes := x.Dims()
	expr, err := os.Create(prefix + "_expression.csv")
	if err != nil {
		return err
	}
	defer expr.Close()
	w := bufio.NewWriter(expr)
	fmt.Fprint(w, "gene")
	for i := 0; i < n; i++ {
		fmt.Fprintf(w, ",patient%d", i)
	}
	fmt.Fprintln(w)
	for j := 0; j < genes; j++ {
		fmt.Fprintf(w, "gene%d", j)
		for i := 0; i < n; i++ {
			fmt.Fprintf(w, ",%g", x.At(i, j))
		}
		fmt.Fprintln(w)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	meta, err := os.Create(prefix + "_meta.csv")
	if err != nil {
		return err
	}
	defer meta.Close()
	mw := bufio.NewWriter(meta)
	for i := 0; i < n; i++ {
		group := "control"
		if floats.MaxIdx(weights.RawRowView(i)) == 0 {
			group = "case"
		}
		fmt.Fprintf(mw, "patient%d,%s\n", i, group)
	}
	if err := mw.Flush(); err != nil {
		return err
	}
	fmt.Printf("wrote %s_expression.csv and %s_meta.csv\n", prefix, prefix)
	return nil
}
