package spectral

import (
	"errors"
	"fmt"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/dsp/fourier"
)

var (
	// ErrFrameSize is returned when a frame does not match the transform size
	ErrFrameSize = errors.New("frame size mismatch")
	// ErrUnknownBackend is returned by NewTransform for an unsupported backend name
	ErrUnknownBackend = errors.New("unknown spectrum backend")
)

// Transform turns a real frame into its magnitude spectrum (size/2 + 1 bins, DC to Nyquist)
type Transform interface {
	Magnitude(frame []float64) ([]float64, error)
	Size() int
}

// NewTransform builds a magnitude-spectrum backend by name: "godsp" or "gonum"
func NewTransform(backend string, size int) (Transform, error) {
	if size <= 0 {
		return nil, fmt.Errorf("transform size must be positive: %d", size)
	}

	switch backend {
	case "godsp", "":
		return NewFFT(size), nil
	case "gonum":
		return NewFourier(size), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
}

// FFT computes spectra with mjibson/go-dsp
type FFT struct {
	size int
}

// NewFFT creates a go-dsp backed transform for frames of the given size
func NewFFT(size int) *FFT {
	return &FFT{size: size}
}

// Compute computes the full complex FFT of x
func (f *FFT) Compute(x []float64) []complex128 {
	if len(x) == 0 {
		return []complex128{}
	}

	// go-dsp handles non-power-of-two sizes as well
	return fft.FFTReal(x)
}

// Magnitude returns |X[k]| for k in [0, size/2]
func (f *FFT) Magnitude(frame []float64) ([]float64, error) {
	if len(frame) != f.size {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrFrameSize, len(frame), f.size)
	}

	coeffs := f.Compute(frame)
	return magnitudes(coeffs[:f.size/2+1]), nil
}

func (f *FFT) Size() int {
	return f.size
}

// Fourier computes spectra with gonum's real FFT. The plan holds work buffers,
// so a Fourier value must not be shared between goroutines.
type Fourier struct {
	plan   *fourier.FFT
	coeffs []complex128
}

// NewFourier creates a gonum backed transform for frames of the given size
func NewFourier(size int) *Fourier {
	return &Fourier{
		plan:   fourier.NewFFT(size),
		coeffs: make([]complex128, size/2+1),
	}
}

// Magnitude returns |X[k]| for k in [0, size/2]
func (f *Fourier) Magnitude(frame []float64) ([]float64, error) {
	if len(frame) != f.plan.Len() {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrFrameSize, len(frame), f.plan.Len())
	}

	f.coeffs = f.plan.Coefficients(f.coeffs, frame)
	return magnitudes(f.coeffs), nil
}

func (f *Fourier) Size() int {
	return f.plan.Len()
}

func magnitudes(coeffs []complex128) []float64 {
	mag := make([]float64, len(coeffs))
	for i, c := range coeffs {
		mag[i] = cmplx.Abs(c)
	}
	return mag
}
