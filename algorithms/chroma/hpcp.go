package chroma

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/RyanBlaney/sonido-chroma/algorithms/harmonic"
)

// HPCPParams holds parameters for HPCP computation
type HPCPParams struct {
	Size          int     `json:"size"`           // Size of output HPCP vector (12, 24, 36)
	ReferenceFreq float64 `json:"reference_freq"` // Frequency folded onto bin 0
	MinFreq       float64 `json:"min_freq"`       // Minimum frequency to consider
	MaxFreq       float64 `json:"max_freq"`       // Maximum frequency to consider
	WindowSize    float64 `json:"window_size"`    // Contribution width in semitones
	WeightType    string  `json:"weight_type"`    // "none", "cosine", "squared_cosine"
	NonLinear     bool    `json:"non_linear"`     // Apply log(1+x) to every bin
	Normalized    string  `json:"normalized"`     // "none", "unit_max", "unit_sum"
}

// DefaultHPCPParams returns a 12-bin, unnormalized, linear profile over [100, 5000] Hz anchored at 440 Hz
func DefaultHPCPParams() HPCPParams {
	return HPCPParams{
		Size:          12,
		ReferenceFreq: 440.0,
		MinFreq:       100.0,
		MaxFreq:       5000.0,
		WindowSize:    1.0,
		WeightType:    "squared_cosine",
		NonLinear:     false,
		Normalized:    "none",
	}
}

// HPCP folds spectral peaks into a Harmonic Pitch Class Profile.
// Bin 0 is the pitch class of ReferenceFreq; bins ascend in 12/Size semitone steps.
// Each peak contributes its energy (squared magnitude) to the bins within
// WindowSize/2 semitones of its pitch, weighted by WeightType.
type HPCP struct {
	params     HPCPParams
	windowBins float64
}

// NewHPCP creates a folder with custom parameters
func NewHPCP(params HPCPParams) *HPCP {
	return &HPCP{
		params:     params,
		windowBins: params.WindowSize * float64(params.Size) / 12.0,
	}
}

// Compute folds one frame's peaks into a fresh HPCP vector
func (h *HPCP) Compute(peaks harmonic.PeakSet) []float64 {
	hpcp := make([]float64, h.params.Size)

	for i, freq := range peaks.Frequencies {
		if freq < h.params.MinFreq || freq > h.params.MaxFreq || freq <= 0 {
			continue
		}

		mag := peaks.Magnitudes[i]
		h.addContribution(hpcp, h.pitchPosition(freq), mag*mag)
	}

	if h.params.NonLinear {
		for i := range hpcp {
			if hpcp[i] > 0 {
				hpcp[i] = math.Log1p(hpcp[i])
			}
		}
	}

	switch h.params.Normalized {
	case "unit_max":
		if m := floats.Max(hpcp); m > 0 {
			floats.Scale(1/m, hpcp)
		}
	case "unit_sum":
		if s := floats.Sum(hpcp); s > 0 {
			floats.Scale(1/s, hpcp)
		}
	}

	return hpcp
}

// pitchPosition maps a frequency to its fractional bin in [0, Size)
func (h *HPCP) pitchPosition(freq float64) float64 {
	size := float64(h.params.Size)
	pos := math.Mod(size*math.Log2(freq/h.params.ReferenceFreq), size)
	if pos < 0 {
		pos += size
	}
	return pos
}

func (h *HPCP) addContribution(hpcp []float64, position, energy float64) {
	size := float64(h.params.Size)
	half := h.windowBins / 2

	for bin := range hpcp {
		distance := math.Abs(float64(bin) - position)
		if distance > size/2 {
			distance = size - distance
		}
		if distance > half {
			continue
		}
		hpcp[bin] += energy * h.windowWeight(distance)
	}
}

func (h *HPCP) windowWeight(distance float64) float64 {
	if h.windowBins == 0 {
		return 1.0
	}

	switch h.params.WeightType {
	case "cosine":
		return math.Max(0, math.Cos(math.Pi*distance/h.windowBins))
	case "squared_cosine":
		c := math.Max(0, math.Cos(math.Pi*distance/h.windowBins))
		return c * c
	default:
		return 1.0
	}
}

// GetParams returns the current parameters
func (h *HPCP) GetParams() HPCPParams {
	return h.params
}

// RotateLeft returns a copy of v with element i taken from v[(i+k) mod n]
func RotateLeft(v []float64, k int) []float64 {
	n := len(v)
	out := make([]float64, n)
	if n == 0 {
		return out
	}

	k = ((k % n) + n) % n
	for i := range out {
		out[i] = v[(i+k)%n]
	}
	return out
}

// RotateRight undoes RotateLeft by the same k
func RotateRight(v []float64, k int) []float64 {
	return RotateLeft(v, -k)
}
