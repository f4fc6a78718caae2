// Package ne implements neighbor embedding estimators: gradient-based
// dimensionality reduction methods that match an input-space affinity with a
// parametrized output-space kernel.
//
// All estimators share one optimization engine: an input affinity is computed
// once, the embedding is registered as a parameter, and a per-iteration loss
// graph is built from differentiable backend operations and minimized with
// Adam or SGD.
package ne

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"os"

	"github.com/rs/zerolog"

	"github.com/godr-ml/godr/internal/autodiff"
	"github.com/godr-ml/godr/internal/backend/cpu"
	"github.com/godr-ml/godr/internal/backend/kernels"
	"github.com/godr-ml/godr/internal/optim"
	"github.com/godr-ml/godr/internal/tensor"
)

// Sentinel errors returned by estimator constructors and Fit.
var (
	ErrInvalidConfig      = errors.New("invalid config")
	ErrNotFitted          = errors.New("estimator is not fitted")
	ErrBackendUnavailable = errors.New("backend unavailable")
)

// Selector chooses the computation path for affinities and the fit loop.
type Selector int

// Available backend selectors.
const (
	// BackendDense uses the plain CPU backend.
	BackendDense Selector = iota
	// BackendKernels uses fused pairwise kernels, falling back to the dense
	// path when unavailable.
	BackendKernels
)

// String returns the selector name.
func (s Selector) String() string {
	switch s {
	case BackendDense:
		return "dense"
	case BackendKernels:
		return "kernels"
	default:
		return "unknown"
	}
}

// Init produces the starting embedding. Implementations must be deterministic
// given the rng, so a fixed RandomState fixes the whole run.
type Init interface {
	materialize(n, d int, dtype tensor.DataType, rng *rand.Rand) (*tensor.RawTensor, error)
}

// NormalInit draws the starting embedding from N(0, Std^2).
type NormalInit struct {
	Std float64 // Standard deviation (default: 1).
}

func (in NormalInit) materialize(n, d int, dtype tensor.DataType, rng *rand.Rand) (*tensor.RawTensor, error) {
	std := in.Std
	if std == 0 {
		std = 1
	}

	raw, err := tensor.NewRaw(tensor.Shape{n, d}, dtype, tensor.CPU)
	if err != nil {
		return nil, err
	}
	values := make([]float64, n*d)
	for i := range values {
		values[i] = rng.NormFloat64() * std
	}
	writeFloat64(raw, values)
	return raw, nil
}

// SliceInit starts from explicit row-major values.
type SliceInit struct {
	Values []float64
}

func (in SliceInit) materialize(n, d int, dtype tensor.DataType, _ *rand.Rand) (*tensor.RawTensor, error) {
	if len(in.Values) != n*d {
		return nil, fmt.Errorf("%w: init slice has %d values, embedding needs %d",
			ErrInvalidConfig, len(in.Values), n*d)
	}

	raw, err := tensor.NewRaw(tensor.Shape{n, d}, dtype, tensor.CPU)
	if err != nil {
		return nil, err
	}
	writeFloat64(raw, in.Values)
	return raw, nil
}

// TensorInit starts from an existing tensor. The values are copied.
type TensorInit struct {
	Tensor *tensor.RawTensor
}

func (in TensorInit) materialize(n, d int, dtype tensor.DataType, _ *rand.Rand) (*tensor.RawTensor, error) {
	if in.Tensor == nil {
		return nil, fmt.Errorf("%w: nil init tensor", ErrInvalidConfig)
	}
	if !in.Tensor.Shape().Equal(tensor.Shape{n, d}) {
		return nil, fmt.Errorf("%w: init tensor shape %v, embedding needs %v",
			ErrInvalidConfig, in.Tensor.Shape(), tensor.Shape{n, d})
	}
	return SliceInit{Values: readFloat64(in.Tensor)}.materialize(n, d, dtype, nil)
}

// Config holds the shared estimator configuration. Zero values select
// defaults; algorithm-specific fields are ignored by other estimators.
type Config struct {
	NComponents int      // Embedding dimensionality (default: 2).
	Perplexity  float64  // Entropic affinity target (default: 30).
	LR          float64  // Learning rate (default: 1).
	Optimizer   string   // "Adam" (default) or "SGD".
	Momentum    float64  // SGD momentum.
	MaxIter     int      // Optimization iterations (default: 500).
	Init        Init     // Starting embedding (default: NormalInit).
	RandomState int64    // Seed for init and sampling.
	BackendType Selector // Dense or fused kernels.
	Device      tensor.Device
	MinGradNorm float64 // Early-stop gradient norm (default: 1e-7).
	Verbose     bool    // Structured fit-loop logging.

	// COSNE
	Gamma   float64 // Student kernel scale (default: 1).
	Lambda1 float64 // Norm preservation weight.

	// TSNEkhorn
	LRAffinityIn      float64 // Sinkhorn dual step (default: 1e-1).
	MaxIterAffinityIn int     // Sinkhorn iterations (default: 1000).
	Unrolling         int     // In-loss normalization iterations (0 = plain).

	// LargeVis / InfoTSNE
	NNegatives int     // Negative samples per point (0 = all non-neighbors).
	GammaRep   float64 // LargeVis repulsion weight (default: 7).

	// UMAP
	MinDist    float64 // Output-space tightness (default: 0.1).
	NNeighbors int     // kNN graph size (default: 15).

	// PACMAP
	MNRatio float64 // Mid-near pairs per neighbor pair (default: 0.5).
	FPRatio float64 // Further pairs per neighbor pair (default: 2).
}

// withDefaults fills unset fields.
func (c Config) withDefaults() Config {
	if c.NComponents == 0 {
		c.NComponents = 2
	}
	if c.Perplexity == 0 {
		c.Perplexity = 30
	}
	if c.LR == 0 {
		c.LR = 1
	}
	if c.Optimizer == "" {
		c.Optimizer = "Adam"
	}
	if c.MaxIter == 0 {
		c.MaxIter = 500
	}
	if c.Init == nil {
		c.Init = NormalInit{}
	}
	if c.MinGradNorm == 0 {
		c.MinGradNorm = 1e-7
	}
	if c.Gamma == 0 {
		c.Gamma = 1
	}
	if c.LRAffinityIn == 0 {
		c.LRAffinityIn = 1e-1
	}
	if c.MaxIterAffinityIn == 0 {
		c.MaxIterAffinityIn = 1000
	}
	if c.GammaRep == 0 {
		c.GammaRep = 7
	}
	if c.MinDist == 0 {
		c.MinDist = 0.1
	}
	if c.NNeighbors == 0 {
		c.NNeighbors = 15
	}
	if c.MNRatio == 0 {
		c.MNRatio = 0.5
	}
	if c.FPRatio == 0 {
		c.FPRatio = 2
	}
	return c
}

// validate fails fast on configurations no estimator can run.
func (c Config) validate() error {
	if c.NComponents < 1 {
		return fmt.Errorf("%w: n_components must be >= 1, got %d", ErrInvalidConfig, c.NComponents)
	}
	if c.MaxIter < 1 {
		return fmt.Errorf("%w: max_iter must be >= 1, got %d", ErrInvalidConfig, c.MaxIter)
	}
	if c.LR <= 0 {
		return fmt.Errorf("%w: lr must be > 0, got %g", ErrInvalidConfig, c.LR)
	}
	if c.Optimizer != "Adam" && c.Optimizer != "SGD" {
		return fmt.Errorf("%w: unknown optimizer %q", ErrInvalidConfig, c.Optimizer)
	}
	if c.Device != tensor.CPU {
		return fmt.Errorf("%w: fitting on %s is not supported", ErrBackendUnavailable, c.Device)
	}
	return nil
}

// Estimator is the capability set every neighbor embedding method offers.
type Estimator interface {
	// Fit learns the embedding of x, an [n, features] tensor.
	Fit(x *tensor.RawTensor) error
	// Transform returns the fitted [n, NComponents] embedding.
	Transform() (*tensor.RawTensor, error)
	// FitTransform fits and returns the embedding.
	FitTransform(x *tensor.RawTensor) (*tensor.RawTensor, error)
}

// Algorithms lists the estimator names accepted by New.
var Algorithms = []string{
	"sne", "tsne", "infotsne", "tsnekhorn", "largevis", "umap", "pacmap", "cosne",
}

// New constructs the named estimator.
func New[T tensor.Float](algo string, cfg Config) (Estimator, error) {
	switch algo {
	case "sne":
		return NewSNE[T](cfg)
	case "tsne":
		return NewTSNE[T](cfg)
	case "infotsne":
		return NewInfoTSNE[T](cfg)
	case "tsnekhorn":
		return NewTSNEkhorn[T](cfg)
	case "largevis":
		return NewLargeVis[T](cfg)
	case "umap":
		return NewUMAP[T](cfg)
	case "pacmap":
		return NewPACMAP[T](cfg)
	case "cosne":
		return NewCOSNE[T](cfg)
	default:
		return nil, fmt.Errorf("%w: unknown algorithm %q", ErrInvalidConfig, algo)
	}
}

// lossFn builds the scalar loss graph for one iteration. The iteration index
// lets phase-scheduled losses reweight terms.
type lossFn func(b tensor.Backend, z *tensor.RawTensor, iter int) *tensor.RawTensor

// fitHooks customizes the shared optimization loop.
type fitHooks struct {
	// scaleGrad adjusts the embedding gradient in place before the optimizer
	// step (Riemannian methods).
	scaleGrad func(z, grad *tensor.RawTensor)
	// postStep constrains the embedding in place after the optimizer step.
	postStep func(z *tensor.RawTensor)
	// initStd overrides the default init scale when the config does not set
	// an explicit Init.
	initStd float64
}

// model carries the state shared by all estimators.
type model[T tensor.Float] struct {
	name      string
	cfg       Config
	embedding *tensor.RawTensor
	logger    zerolog.Logger
}

func newModel[T tensor.Float](name string, cfg Config) (model[T], error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return model[T]{}, err
	}

	logger := zerolog.Nop()
	if cfg.Verbose {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
			With().Timestamp().Str("estimator", name).Logger()
	}

	return model[T]{name: name, cfg: cfg, logger: logger}, nil
}

// dtype returns the runtime dtype for T.
func (m *model[T]) dtype() tensor.DataType {
	switch any(T(0)).(type) {
	case float32:
		return tensor.Float32
	case float64:
		return tensor.Float64
	default:
		panic("ne: unsupported dtype")
	}
}

// inner selects the computation backend per the config.
func (m *model[T]) inner() tensor.Backend {
	if m.cfg.BackendType == BackendKernels && kernels.IsAvailable() {
		return kernels.New()
	}
	return cpu.New()
}

// validateInput checks that x is a 2D tensor of the estimator's dtype with
// enough rows for the configured neighborhood sizes.
func (m *model[T]) validateInput(x *tensor.RawTensor) error {
	if x == nil {
		return fmt.Errorf("%w: nil input", ErrInvalidConfig)
	}
	if len(x.Shape()) != 2 {
		return fmt.Errorf("%w: input must be 2D, got shape %v", tensor.ErrShapeMismatch, x.Shape())
	}
	if x.DType() != m.dtype() {
		return fmt.Errorf("%w: input dtype %s does not match estimator dtype %s",
			ErrInvalidConfig, x.DType(), m.dtype())
	}
	if x.Shape()[0] < 3 {
		return fmt.Errorf("%w: need at least 3 samples, got %d", ErrInvalidConfig, x.Shape()[0])
	}
	return nil
}

// checkPerplexity validates the perplexity against the sample count before
// affinity calibration.
func (m *model[T]) checkPerplexity(n int) error {
	if m.cfg.Perplexity < 1 || m.cfg.Perplexity >= float64(n) {
		return fmt.Errorf("%w: perplexity %.2f must be in [1, %d)", ErrInvalidConfig, m.cfg.Perplexity, n)
	}
	return nil
}

// Transform returns the fitted embedding.
func (m *model[T]) Transform() (*tensor.RawTensor, error) {
	if m.embedding == nil {
		return nil, fmt.Errorf("%w: call Fit first", ErrNotFitted)
	}
	return m.embedding, nil
}

// fit runs the shared optimization loop: initialize the embedding, then
// minimize the loss graph built by loss each iteration.
func (m *model[T]) fit(x *tensor.RawTensor, loss lossFn, hooks fitHooks) error {
	n := x.Shape()[0]
	d := m.cfg.NComponents

	rng := rand.New(rand.NewSource(m.cfg.RandomState)) //nolint:gosec // G404: reproducible init, not cryptographic

	init := m.cfg.Init
	if ni, ok := init.(NormalInit); ok && ni.Std == 0 && hooks.initStd != 0 {
		init = NormalInit{Std: hooks.initStd}
	}
	zRaw, err := init.materialize(n, d, m.dtype(), rng)
	if err != nil {
		return err
	}

	backend := autodiff.New[tensor.Backend](m.inner())
	z := tensor.New[T, tensor.Backend](zRaw, backend)
	param := optim.NewParameter(z)

	var optimizer optim.Optimizer
	switch m.cfg.Optimizer {
	case "SGD":
		optimizer = optim.NewSGD([]*optim.Parameter[T, tensor.Backend]{param},
			optim.SGDConfig{LR: m.cfg.LR, Momentum: m.cfg.Momentum})
	default:
		optimizer = optim.NewAdam([]*optim.Parameter[T, tensor.Backend]{param},
			optim.AdamConfig{LR: m.cfg.LR})
	}

	m.logger.Info().
		Int("samples", n).
		Int("components", d).
		Str("backend", backend.Name()).
		Str("optimizer", m.cfg.Optimizer).
		Int("max_iter", m.cfg.MaxIter).
		Msg("fitting")

	logEvery := max(m.cfg.MaxIter/10, 1)

	for iter := 0; iter < m.cfg.MaxIter; iter++ {
		backend.Tape().Clear()
		backend.Tape().StartRecording()

		lossVal := loss(backend, zRaw, iter)
		if err := tensor.CheckShape(lossVal, tensor.Shape{1}); err != nil {
			return fmt.Errorf("loss graph: %w", err)
		}

		grads := backend.Tape().Backward(onesSeed(m.dtype()), backend)
		backend.Tape().StopRecording()

		grad, ok := grads[zRaw]
		if !ok {
			return fmt.Errorf("%w: embedding received no gradient", ErrInvalidConfig)
		}
		if hooks.scaleGrad != nil {
			hooks.scaleGrad(zRaw, grad)
		}

		gradNorm := l2Norm(grad)
		if iter%logEvery == 0 {
			m.logger.Debug().
				Int("iter", iter).
				Float64("loss", readScalar(lossVal)).
				Float64("grad_norm", gradNorm).
				Msg("step")
		}

		if gradNorm < m.cfg.MinGradNorm {
			m.logger.Info().Int("iter", iter).Float64("grad_norm", gradNorm).Msg("converged")
			break
		}

		optimizer.Step(grads)
		if hooks.postStep != nil {
			hooks.postStep(zRaw)
		}
	}

	m.embedding = zRaw
	m.logger.Info().Msg("fitted")
	return nil
}

// onesSeed builds the backward seed for a scalar loss.
func onesSeed(dtype tensor.DataType) *tensor.RawTensor {
	seed, err := tensor.NewRaw(tensor.Shape{1}, dtype, tensor.CPU)
	if err != nil {
		panic(fmt.Sprintf("ne: %v", err))
	}
	writeFloat64(seed, []float64{1})
	return seed
}

// readFloat64 copies tensor values into a float64 slice.
func readFloat64(r *tensor.RawTensor) []float64 {
	switch r.DType() {
	case tensor.Float32:
		src := r.AsFloat32()
		out := make([]float64, len(src))
		for i, v := range src {
			out[i] = float64(v)
		}
		return out
	case tensor.Float64:
		return append([]float64(nil), r.AsFloat64()...)
	default:
		panic(fmt.Sprintf("ne: unsupported dtype %s", r.DType()))
	}
}

// writeFloat64 copies float64 values into a tensor of either float dtype.
func writeFloat64(dst *tensor.RawTensor, values []float64) {
	switch dst.DType() {
	case tensor.Float32:
		d := dst.AsFloat32()
		for i, v := range values {
			d[i] = float32(v)
		}
	case tensor.Float64:
		copy(dst.AsFloat64(), values)
	default:
		panic(fmt.Sprintf("ne: unsupported dtype %s", dst.DType()))
	}
}

func readScalar(r *tensor.RawTensor) float64 {
	return readFloat64(r)[0]
}

// l2Norm computes the Euclidean norm of all tensor entries.
func l2Norm(r *tensor.RawTensor) float64 {
	var sum float64
	for _, v := range readFloat64(r) {
		sum += v * v
	}
	return math.Sqrt(sum)
}

// constant builds a non-differentiated tensor from float64 values.
func constant(values []float64, shape tensor.Shape, dtype tensor.DataType) *tensor.RawTensor {
	raw, err := tensor.NewRaw(shape, dtype, tensor.CPU)
	if err != nil {
		panic(fmt.Sprintf("ne: %v", err))
	}
	writeFloat64(raw, values)
	return raw
}

// offDiagMask builds an [n, n] matrix with ones off the diagonal.
func offDiagMask(n int, dtype tensor.DataType) *tensor.RawTensor {
	values := make([]float64, n*n)
	for i := range values {
		values[i] = 1
	}
	for i := 0; i < n; i++ {
		values[i*n+i] = 0
	}
	return constant(values, tensor.Shape{n, n}, dtype)
}

// sampleMask builds a per-row negative set indicator: k sampled non-self
// columns per row, or every non-self column when k is 0 or covers the row.
// Sampling is seeded so runs are reproducible.
func sampleMask(n, k int, seed int64, dtype tensor.DataType) *tensor.RawTensor {
	if k <= 0 || k >= n-1 {
		return offDiagMask(n, dtype)
	}

	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // G404: sampling, not cryptographic
	values := make([]float64, n*n)
	for i := 0; i < n; i++ {
		for drawn := 0; drawn < k; {
			j := rng.Intn(n)
			if j == i || values[i*n+j] == 1 {
				continue
			}
			values[i*n+j] = 1
			drawn++
		}
	}
	return constant(values, tensor.Shape{n, n}, dtype)
}

// diagNegMask builds an [n, n] matrix with a large negative diagonal. Added
// to log-kernel matrices before LogSumExp it excludes self-affinities without
// producing NaN.
func diagNegMask(n int, dtype tensor.DataType) *tensor.RawTensor {
	values := make([]float64, n*n)
	for i := 0; i < n; i++ {
		values[i*n+i] = -1e10
	}
	return constant(values, tensor.Shape{n, n}, dtype)
}
