package spectral

import (
	"fmt"

	"github.com/RyanBlaney/sonido-chroma/algorithms/harmonic"
	"github.com/RyanBlaney/sonido-chroma/algorithms/windowing"
)

// PeakExtractor maps one time-domain frame to its spectral peaks
type PeakExtractor interface {
	Extract(frame []float64) (harmonic.PeakSet, error)
}

// FrontEnd windows a frame with a normalized Hann, takes its magnitude
// spectrum and picks peaks. It keeps a scratch buffer, so one FrontEnd
// serves one goroutine.
type FrontEnd struct {
	window    *windowing.Hann
	transform Transform
	peaks     *harmonic.SpectralPeaks
	scratch   []float64
}

// NewFrontEnd assembles a front end for frames of transform.Size() samples
func NewFrontEnd(transform Transform, sampleRate int, params harmonic.PeakParams) *FrontEnd {
	size := transform.Size()
	return &FrontEnd{
		window:    windowing.NewHann(size, true),
		transform: transform,
		peaks:     harmonic.NewSpectralPeaks(sampleRate, size, params),
		scratch:   make([]float64, size),
	}
}

// Extract returns the peaks of frame. The frame itself is not modified.
func (fe *FrontEnd) Extract(frame []float64) (harmonic.PeakSet, error) {
	if len(frame) != len(fe.scratch) {
		return harmonic.PeakSet{}, fmt.Errorf("%w: got %d, want %d", ErrFrameSize, len(frame), len(fe.scratch))
	}

	copy(fe.scratch, frame)
	if err := fe.window.ApplyInPlace(fe.scratch); err != nil {
		return harmonic.PeakSet{}, err
	}

	magnitude, err := fe.transform.Magnitude(fe.scratch)
	if err != nil {
		return harmonic.PeakSet{}, fmt.Errorf("magnitude spectrum: %w", err)
	}

	return fe.peaks.Detect(magnitude), nil
}
