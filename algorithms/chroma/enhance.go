package chroma

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/RyanBlaney/sonido-chroma/algorithms/common"
)

// EnhanceParams configures the chromagram enhancement chain
type EnhanceParams struct {
	CompressionGain float64                `json:"compression_gain"` // g in ln(g*v + 1)
	ThresholdRatio  float64                `json:"threshold_ratio"`  // T = ratio * ln(g + 1)
	MedianHalfWidth int                    `json:"median_half_width"`
	MedianSelection common.MedianSelection `json:"median_selection"`
}

// DefaultEnhanceParams returns gain 1000, ratio 0.2 and a 33-frame upper median
func DefaultEnhanceParams() EnhanceParams {
	return EnhanceParams{
		CompressionGain: 1000,
		ThresholdRatio:  0.2,
		MedianHalfWidth: 16,
		MedianSelection: common.UpperMedian,
	}
}

// Enhancer sharpens a raw chromagram: global normalization, log compression,
// a per-cell floor, per-frame normalization, then temporal median smoothing.
type Enhancer struct {
	params EnhanceParams
}

func NewEnhancer(params EnhanceParams) *Enhancer {
	return &Enhancer{params: params}
}

// Threshold returns the floor applied to compressed cells and frame maxima
func (e *Enhancer) Threshold() float64 {
	return e.params.ThresholdRatio * math.Log(e.params.CompressionGain+1)
}

// Enhance returns a new matrix of the same shape. The input is not modified.
func (e *Enhancer) Enhance(m Matrix) Matrix {
	if m.IsEmpty() {
		return Matrix{}
	}

	out := Normalize(m)
	out = Compress(out, e.params.CompressionGain)
	out = Threshold(out, e.Threshold())
	out = NormalizeColumns(out, e.Threshold())
	return MedianSmooth(out, e.params.MedianHalfWidth, e.params.MedianSelection)
}

// Normalize divides every cell by the global maximum when it is positive
func Normalize(m Matrix) Matrix {
	out := m.clone()
	if peak := out.Max(); peak > 0 {
		floats.Scale(1/peak, out.data)
	}
	return out
}

// Compress maps every cell v to ln(gain*v + 1)
func Compress(m Matrix, gain float64) Matrix {
	out := m.clone()
	for i, v := range out.data {
		out.data[i] = math.Log1p(gain * v)
	}
	return out
}

// Threshold zeroes every cell below t
func Threshold(m Matrix, t float64) Matrix {
	out := m.clone()
	for i, v := range out.data {
		if v < t {
			out.data[i] = 0
		}
	}
	return out
}

// NormalizeColumns zeroes every frame whose maximum is below threshold and
// scales the rest so their maximum is 1
func NormalizeColumns(m Matrix, threshold float64) Matrix {
	out := m.clone()
	for f := 0; f < out.frames; f++ {
		peak := math.Inf(-1)
		for b := 0; b < out.bins; b++ {
			peak = math.Max(peak, out.data[b*out.frames+f])
		}

		for b := 0; b < out.bins; b++ {
			i := b*out.frames + f
			if peak < threshold || peak <= 0 {
				out.data[i] = 0
			} else {
				out.data[i] /= peak
			}
		}
	}
	return out
}

// MedianSmooth replaces each cell by the median of its bin over the frames
// [f-halfWidth, f+halfWidth] clipped to the matrix. Windows always read the
// unsmoothed input.
func MedianSmooth(m Matrix, halfWidth int, sel common.MedianSelection) Matrix {
	out := m.clone()
	if out.IsEmpty() || halfWidth <= 0 {
		return out
	}

	window := make([]float64, 0, 2*halfWidth+1)
	for b := 0; b < m.bins; b++ {
		row := m.data[b*m.frames : (b+1)*m.frames]
		for f := range row {
			lo := max(0, f-halfWidth)
			hi := min(m.frames, f+halfWidth+1)

			window = append(window[:0], row[lo:hi]...)
			out.data[b*m.frames+f] = common.SelectMedian(window, sel)
		}
	}
	return out
}
