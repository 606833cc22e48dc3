package windowing

import (
	"fmt"

	"github.com/mjibson/go-dsp/window"
	"gonum.org/v1/gonum/floats"
)

// Hann is a symmetric raised-cosine taper, 0.5*(1 - cos(2*pi*n/(N-1))).
// A normalized Hann is scaled so its coefficients sum to 2, which makes the
// magnitude spectrum of a unit-amplitude sinusoid peak at roughly 1.
type Hann struct {
	size         int
	normalized   bool
	coefficients []float64
}

// NewHann creates a Hann window of the given size
func NewHann(size int, normalized bool) *Hann {
	h := &Hann{
		size:       size,
		normalized: normalized,
	}
	h.generate()
	return h
}

func (h *Hann) generate() {
	if h.size <= 0 {
		h.coefficients = []float64{}
		return
	}

	if h.size == 1 {
		h.coefficients = []float64{1}
	} else {
		h.coefficients = window.Hann(h.size)
	}

	if h.normalized {
		if sum := floats.Sum(h.coefficients); sum > 0 {
			floats.Scale(2.0/sum, h.coefficients)
		}
	}
}

// Apply returns a windowed copy of signal, or nil on a size mismatch
func (h *Hann) Apply(signal []float64) []float64 {
	if len(signal) != h.size {
		return nil
	}

	windowed := make([]float64, h.size)
	floats.MulTo(windowed, signal, h.coefficients)
	return windowed
}

// ApplyInPlace multiplies signal by the window
func (h *Hann) ApplyInPlace(signal []float64) error {
	if len(signal) != h.size {
		return fmt.Errorf("signal length (%d) doesn't match window size (%d)", len(signal), h.size)
	}

	floats.Mul(signal, h.coefficients)
	return nil
}

// GetCoefficients returns a copy of the window coefficients
func (h *Hann) GetCoefficients() []float64 {
	coeffs := make([]float64, len(h.coefficients))
	copy(coeffs, h.coefficients)
	return coeffs
}

// GetSize returns the window size
func (h *Hann) GetSize() int {
	return h.size
}

// GetType returns the window type
func (h *Hann) GetType() string {
	return "hann"
}
