// Package main provides the GoDR command line interface.
//
// Usage:
//
//	godr fit -algo tsne -in data.csv -out embedding.godr
//	godr version
//
// The fit command reads an [n, features] matrix from a CSV file, runs the
// selected neighbor embedding estimator, and writes the embedding to a
// binary tensor file readable with the persist package.
package main

import (
	"encoding/binary"
	"encoding/csv"
	"flag"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/godr-ml/godr/internal/persist"
	"github.com/godr-ml/godr/ne"
	"github.com/godr-ml/godr/tensor"
)

const version = "v0.1.0-dev"

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "version":
		fmt.Printf("GoDR %s\n", version)
	case "fit":
		if err := runFit(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "godr fit: %v\n", err)
			os.Exit(1)
		}
	default:
		fmt.Fprintf(os.Stderr, "godr: unknown command %q\n\n", os.Args[1])
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Println("GoDR - Neighbor Embedding for Go")
	fmt.Printf("Version: %s\n\n", version)
	fmt.Println("Commands:")
	fmt.Println("  fit        Embed a CSV matrix (see godr fit -h)")
	fmt.Println("  version    Show version")
	fmt.Printf("\nAlgorithms: %s\n", strings.Join(ne.Algorithms, ", "))
}

func runFit(args []string) error {
	fs := flag.NewFlagSet("fit", flag.ExitOnError)
	algo := fs.String("algo", "tsne", "algorithm: "+strings.Join(ne.Algorithms, ", "))
	in := fs.String("in", "", "input CSV file with one row per point (required)")
	out := fs.String("out", "", "output tensor file (required)")
	components := fs.Int("components", 2, "embedding dimensionality")
	perplexity := fs.Float64("perplexity", 30, "entropic affinity perplexity")
	neighbors := fs.Int("neighbors", 15, "kNN graph size (umap, pacmap)")
	iters := fs.Int("iters", 500, "optimization iterations")
	lr := fs.Float64("lr", 1, "learning rate")
	optimizer := fs.String("optimizer", "Adam", "optimizer: Adam or SGD")
	seed := fs.Int64("seed", 0, "random seed")
	dtype := fs.String("dtype", "float64", "arithmetic precision: float32 or float64")
	backend := fs.String("backend", "kernels", "compute path: dense or kernels")
	quiet := fs.Bool("quiet", false, "suppress progress logging")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" || *out == "" {
		fs.Usage()
		return fmt.Errorf("-in and -out are required")
	}

	var selector ne.Selector
	switch *backend {
	case "dense":
		selector = ne.BackendDense
	case "kernels":
		selector = ne.BackendKernels
	default:
		return fmt.Errorf("unknown backend %q", *backend)
	}

	cfg := ne.Config{
		NComponents: *components,
		Perplexity:  *perplexity,
		NNeighbors:  *neighbors,
		MaxIter:     *iters,
		LR:          *lr,
		Optimizer:   *optimizer,
		RandomState: *seed,
		BackendType: selector,
		Verbose:     !*quiet,
	}

	logger := zerolog.Nop()
	if !*quiet {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
			With().Timestamp().Logger()
	}

	x, err := loadCSV(*in, *dtype)
	if err != nil {
		return fmt.Errorf("read %s: %w", *in, err)
	}
	logger.Info().
		Str("algo", *algo).
		Int("rows", x.Shape()[0]).
		Int("features", x.Shape()[1]).
		Str("dtype", *dtype).
		Msg("loaded input")

	var est ne.Estimator
	switch *dtype {
	case "float32":
		est, err = ne.New[float32](*algo, cfg)
	case "float64":
		est, err = ne.New[float64](*algo, cfg)
	default:
		return fmt.Errorf("unknown dtype %q", *dtype)
	}
	if err != nil {
		return err
	}

	start := time.Now()
	z, err := est.FitTransform(x)
	if err != nil {
		return err
	}
	logger.Info().
		Dur("elapsed", time.Since(start)).
		Msg("fit complete")

	if err := persist.Save(*out, z); err != nil {
		return fmt.Errorf("write %s: %w", *out, err)
	}
	logger.Info().Str("path", *out).Msg("embedding saved")
	return nil
}

// loadCSV parses a CSV matrix into an [n, features] tensor. A first row that
// does not parse as numbers is treated as a header and skipped.
func loadCSV(path, dtype string) (*tensor.RawTensor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("empty file")
	}

	if _, convErr := strconv.ParseFloat(strings.TrimSpace(records[0][0]), 64); convErr != nil {
		records = records[1:]
		if len(records) == 0 {
			return nil, fmt.Errorf("no data rows")
		}
	}

	features := len(records[0])
	values := make([]float64, 0, len(records)*features)
	for i, rec := range records {
		if len(rec) != features {
			return nil, fmt.Errorf("row %d has %d fields, want %d", i+1, len(rec), features)
		}
		for _, field := range rec {
			v, convErr := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if convErr != nil {
				return nil, fmt.Errorf("row %d: %w", i+1, convErr)
			}
			values = append(values, v)
		}
	}

	shape := tensor.Shape{len(records), features}
	switch dtype {
	case "float32":
		raw, err := tensor.NewRaw(shape, tensor.Float32, tensor.CPU)
		if err != nil {
			return nil, err
		}
		data := raw.Data()
		for i, v := range values {
			binary.LittleEndian.PutUint32(data[i*4:], math.Float32bits(float32(v)))
		}
		return raw, nil
	case "float64":
		raw, err := tensor.NewRaw(shape, tensor.Float64, tensor.CPU)
		if err != nil {
			return nil, err
		}
		data := raw.Data()
		for i, v := range values {
			binary.LittleEndian.PutUint64(data[i*8:], math.Float64bits(v))
		}
		return raw, nil
	default:
		return nil, fmt.Errorf("unknown dtype %q", dtype)
	}
}
