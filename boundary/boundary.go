// Package boundary exposes one process-wide analysis engine through flat,
// C-compatible result records. It backs the cgo exports in cmd/libsonido.
package boundary

import (
	"errors"
	"fmt"
	"sync"

	"github.com/RyanBlaney/sonido-chroma/algorithms/tonal"
	"github.com/RyanBlaney/sonido-chroma/analysis"
	"github.com/RyanBlaney/sonido-chroma/config"
	"github.com/RyanBlaney/sonido-chroma/logging"
	"github.com/RyanBlaney/sonido-chroma/transcode"
)

var (
	ErrNotInitialized     = errors.New("analysis engine not initialized")
	ErrAlreadyInitialized = errors.New("analysis engine already initialized")
)

var (
	mu     sync.RWMutex
	engine *analysis.Engine
)

// Init creates the process-wide engine. A nil cfg uses config.DefaultConfig.
func Init(cfg *config.Config, opts ...analysis.Option) error {
	mu.Lock()
	defer mu.Unlock()

	if engine != nil {
		return ErrAlreadyInitialized
	}

	e, err := analysis.NewEngine(cfg, opts...)
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}
	engine = e

	logging.WithFields(logging.Fields{
		"component": "boundary",
		"function":  "Init",
	}).Debug("engine initialized")

	return nil
}

// Shutdown closes the process-wide engine. Records already handed out stay valid.
func Shutdown() error {
	mu.Lock()
	defer mu.Unlock()

	if engine == nil {
		return ErrNotInitialized
	}

	err := engine.Close()
	engine = nil
	return err
}

// Initialized reports whether Init has run without a matching Shutdown
func Initialized() bool {
	mu.RLock()
	defer mu.RUnlock()
	return engine != nil
}

func current() (*analysis.Engine, error) {
	mu.RLock()
	defer mu.RUnlock()

	if engine == nil {
		return nil, ErrNotInitialized
	}
	return engine, nil
}

// Analyze runs the full pipeline over buffer. A nil or empty buffer yields a
// record with an empty key, zero duration and no chromagram.
func Analyze(buffer []float32) (*Record, error) {
	e, err := current()
	if err != nil {
		return nil, err
	}

	result, err := e.Analyze(widen(buffer))
	if err != nil {
		return nil, mapClosed(err)
	}

	return Assemble(result), nil
}

// ComputeKey returns only the key of buffer. Buffers without tonal content give "".
func ComputeKey(buffer []float32) (string, error) {
	e, err := current()
	if err != nil {
		return "", err
	}

	est, err := e.Key(widen(buffer))
	if errors.Is(err, tonal.ErrDegenerateInput) {
		return "", nil
	}
	if err != nil {
		return "", mapClosed(err)
	}
	return est.String(), nil
}

// ComputeKeyFromFile loads a headerless little-endian float32 file and returns its key
func ComputeKeyFromFile(path string) (string, error) {
	if _, err := current(); err != nil {
		return "", err
	}

	samples, err := transcode.LoadRaw(path)
	if err != nil {
		return "", err
	}
	return ComputeKey(samples)
}

// mapClosed reports a Shutdown that raced an in-flight call as ErrNotInitialized
func mapClosed(err error) error {
	if errors.Is(err, analysis.ErrEngineClosed) {
		return fmt.Errorf("%w: %w", ErrNotInitialized, err)
	}
	return err
}

func widen(buffer []float32) []float64 {
	out := make([]float64, len(buffer))
	for i, s := range buffer {
		out[i] = float64(s)
	}
	return out
}
