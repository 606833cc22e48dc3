// Package analysis runs the chroma, key and duration pipeline over a mono
// 44.1 kHz sample buffer.
package analysis

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/RyanBlaney/sonido-chroma/algorithms/chroma"
	"github.com/RyanBlaney/sonido-chroma/algorithms/common"
	"github.com/RyanBlaney/sonido-chroma/algorithms/spectral"
	"github.com/RyanBlaney/sonido-chroma/algorithms/tonal"
	"github.com/RyanBlaney/sonido-chroma/config"
	"github.com/RyanBlaney/sonido-chroma/logging"
)

var (
	ErrEngineClosed = errors.New("analysis engine closed")
	ErrInvalidInput = errors.New("invalid input")
)

// KeyDetector estimates the key of a whole buffer
type KeyDetector interface {
	Estimate(samples []float64) (tonal.KeyEstimate, error)
}

// Result is the outcome of one analysis.
// Key is empty when the buffer carries no tonal content.
type Result struct {
	Key         string             `json:"key"`
	Estimate    *tonal.KeyEstimate `json:"estimate,omitempty"`
	Duration    float64            `json:"duration"`
	SampleCount int                `json:"sample_count"`
	Chroma      chroma.Matrix      `json:"-"`
}

// Option customises an Engine
type Option func(*Engine)

// WithLogger sets the logger used for diagnostics
func WithLogger(logger logging.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithPeakExtractor replaces the chroma front end. Its frames are cfg.Frames.Size long.
func WithPeakExtractor(extractor spectral.PeakExtractor) Option {
	return func(e *Engine) {
		e.frontEnd = extractor
	}
}

// WithKeyDetector replaces the key estimator
func WithKeyDetector(detector KeyDetector) Option {
	return func(e *Engine) {
		e.keys = detector
	}
}

// Engine owns the analysis state. Calls are serialized; inside one Analyze the
// chroma pipeline and the key estimator run concurrently on separate front ends.
type Engine struct {
	mu       sync.Mutex
	cfg      *config.Config
	logger   logging.Logger
	frontEnd spectral.PeakExtractor
	hpcp     *chroma.HPCP
	enhancer *chroma.Enhancer
	keys     KeyDetector
	closed   bool
}

// NewEngine validates cfg and builds an engine. A nil cfg uses config.DefaultConfig.
func NewEngine(cfg *config.Config, opts ...Option) (*Engine, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:      cfg,
		logger:   logging.GetGlobalLogger(),
		hpcp:     chroma.NewHPCP(hpcpParams(cfg)),
		enhancer: chroma.NewEnhancer(enhanceParams(cfg)),
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.frontEnd == nil {
		transform, err := spectral.NewTransform(cfg.Spectrum.Backend, cfg.Frames.Size)
		if err != nil {
			return nil, fmt.Errorf("chroma front end: %w", err)
		}
		e.frontEnd = spectral.NewFrontEnd(transform, cfg.SampleRate, peakParams(cfg))
	}

	if e.keys == nil {
		params, err := keyParams(cfg)
		if err != nil {
			return nil, err
		}
		estimator, err := tonal.NewKeyEstimator(params)
		if err != nil {
			return nil, err
		}
		e.keys = estimator
	}

	e.logger.WithFields(logging.Fields{
		"component": "analysis",
		"function":  "NewEngine",
	}).Debug("engine ready", logging.Fields{
		"backend":    cfg.Spectrum.Backend,
		"frame_size": cfg.Frames.Size,
		"hop_size":   cfg.Frames.Hop,
		"profile":    cfg.Key.Profile,
	})

	return e, nil
}

// Config returns the engine configuration
func (e *Engine) Config() *config.Config {
	return e.cfg
}

// Analyze computes the enhanced chromagram, key and duration of samples.
// Degenerate tonal content yields an empty key and a logged warning rather
// than an error; spectral failures abort the analysis.
func (e *Engine) Analyze(samples []float64) (*Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil, ErrEngineClosed
	}
	if err := validateSamples(samples); err != nil {
		return nil, err
	}

	logger := e.logger.WithFields(logging.Fields{
		"component": "analysis",
		"function":  "Analyze",
	})
	start := time.Now()

	result := &Result{
		Duration:    Duration(len(samples), e.cfg.SampleRate),
		SampleCount: len(samples),
	}

	var keyErr error
	var g errgroup.Group

	g.Go(func() error {
		m, err := e.chromagram(samples)
		if err != nil {
			return fmt.Errorf("chromagram: %w", err)
		}
		result.Chroma = m
		return nil
	})

	g.Go(func() error {
		est, err := e.keys.Estimate(samples)
		if errors.Is(err, tonal.ErrDegenerateInput) {
			keyErr = err
			return nil
		}
		if err != nil {
			return fmt.Errorf("key estimation: %w", err)
		}
		result.Estimate = &est
		result.Key = est.String()
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error(err, "analysis failed", logging.Fields{"samples": len(samples)})
		return nil, err
	}

	if keyErr != nil {
		logger.Warn("no tonal content, key left empty", logging.Fields{
			"samples": len(samples),
			"reason":  keyErr.Error(),
		})
	}

	logger.Debug("analysis complete", logging.Fields{
		"samples":  len(samples),
		"duration": result.Duration,
		"bins":     result.Chroma.Bins(),
		"frames":   result.Chroma.Frames(),
		"key":      result.Key,
		"elapsed":  time.Since(start).String(),
	})

	return result, nil
}

// Chromagram computes only the enhanced chromagram
func (e *Engine) Chromagram(samples []float64) (chroma.Matrix, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return chroma.Matrix{}, ErrEngineClosed
	}
	if err := validateSamples(samples); err != nil {
		return chroma.Matrix{}, err
	}

	return e.chromagram(samples)
}

// Key computes only the key estimate. Degenerate input returns tonal.ErrDegenerateInput.
func (e *Engine) Key(samples []float64) (tonal.KeyEstimate, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return tonal.KeyEstimate{}, ErrEngineClosed
	}
	if err := validateSamples(samples); err != nil {
		return tonal.KeyEstimate{}, err
	}

	return e.keys.Estimate(samples)
}

// Close releases the engine. Further calls fail with ErrEngineClosed.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.closed = true
	return nil
}

// chromagram folds every full frame, rotates it to a C origin, transposes to
// bin-major order and enhances the result
func (e *Engine) chromagram(samples []float64) (chroma.Matrix, error) {
	size, hop := e.cfg.Frames.Size, e.cfg.Frames.Hop
	rotation := rotationBins(e.cfg)

	vectors := make([][]float64, 0, common.FrameCount(len(samples), size, hop))
	cutter := common.NewFrameCutter(samples, size, hop)
	for {
		frame, ok := cutter.Next()
		if !ok {
			break
		}

		peaks, err := e.frontEnd.Extract(frame)
		if err != nil {
			return chroma.Matrix{}, fmt.Errorf("frame %d: %w", len(vectors), err)
		}
		vectors = append(vectors, chroma.RotateLeft(e.hpcp.Compute(peaks), rotation))
	}

	return e.enhancer.Enhance(chroma.NewMatrixFromFrames(vectors)), nil
}

// Duration returns the length in seconds of sampleCount samples
func Duration(sampleCount, sampleRate int) float64 {
	if sampleCount <= 0 || sampleRate <= 0 {
		return 0
	}
	return float64(sampleCount) / float64(sampleRate)
}

func validateSamples(samples []float64) error {
	for i, s := range samples {
		if math.IsNaN(s) || math.IsInf(s, 0) {
			return fmt.Errorf("%w: non-finite sample at index %d", ErrInvalidInput, i)
		}
	}
	return nil
}
