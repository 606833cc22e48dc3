package harmonic

import (
	"math"
	"sort"
)

// SpectralPeak represents a detected spectral peak
type SpectralPeak struct {
	Frequency float64 // Peak frequency in Hz
	Magnitude float64 // Peak magnitude
	BinIndex  int     // Original FFT bin index
}

// PeakSet holds peaks as two parallel sequences ordered by descending magnitude
type PeakSet struct {
	Frequencies []float64
	Magnitudes  []float64
}

// Len returns the number of peaks
func (ps PeakSet) Len() int {
	return len(ps.Frequencies)
}

// Peaks returns the set as a slice of SpectralPeak, bin indices unset
func (ps PeakSet) Peaks() []SpectralPeak {
	peaks := make([]SpectralPeak, ps.Len())
	for i := range peaks {
		peaks[i] = SpectralPeak{Frequency: ps.Frequencies[i], Magnitude: ps.Magnitudes[i], BinIndex: -1}
	}
	return peaks
}

// PeakParams configures SpectralPeaks
type PeakParams struct {
	MaxPeaks           int     `json:"max_peaks"`
	MagnitudeThreshold float64 `json:"magnitude_threshold"`
	MinFrequency       float64 `json:"min_frequency"`
	MaxFrequency       float64 `json:"max_frequency"`
	Interpolate        bool    `json:"interpolate"`
}

// SpectralPeaks finds local maxima of a magnitude spectrum
type SpectralPeaks struct {
	sampleRate int
	windowSize int
	params     PeakParams
}

// NewSpectralPeaks creates a detector for spectra computed from frames of windowSize samples
func NewSpectralPeaks(sampleRate, windowSize int, params PeakParams) *SpectralPeaks {
	return &SpectralPeaks{
		sampleRate: sampleRate,
		windowSize: windowSize,
		params:     params,
	}
}

// Detect returns at most MaxPeaks local maxima whose magnitude is at least
// MagnitudeThreshold and whose frequency lies within [MinFrequency, MaxFrequency],
// strongest first.
func (sp *SpectralPeaks) Detect(magnitudeSpectrum []float64) PeakSet {
	peaks := sp.DetectPeaks(magnitudeSpectrum)

	set := PeakSet{
		Frequencies: make([]float64, len(peaks)),
		Magnitudes:  make([]float64, len(peaks)),
	}
	for i, p := range peaks {
		set.Frequencies[i] = p.Frequency
		set.Magnitudes[i] = p.Magnitude
	}
	return set
}

// DetectPeaks is Detect returning SpectralPeak values with bin indices
func (sp *SpectralPeaks) DetectPeaks(magnitudeSpectrum []float64) []SpectralPeak {
	if len(magnitudeSpectrum) < 3 || sp.windowSize <= 0 || sp.params.MaxPeaks <= 0 {
		return []SpectralPeak{}
	}

	freqResolution := float64(sp.sampleRate) / float64(sp.windowSize)
	var peaks []SpectralPeak

	for i := 1; i < len(magnitudeSpectrum)-1; i++ {
		if magnitudeSpectrum[i] <= magnitudeSpectrum[i-1] || magnitudeSpectrum[i] <= magnitudeSpectrum[i+1] {
			continue
		}

		peak := SpectralPeak{
			Frequency: float64(i) * freqResolution,
			Magnitude: magnitudeSpectrum[i],
			BinIndex:  i,
		}
		if sp.params.Interpolate {
			peak = refine(magnitudeSpectrum, peak, freqResolution)
		}

		if peak.Magnitude < sp.params.MagnitudeThreshold {
			continue
		}
		if peak.Frequency < sp.params.MinFrequency || peak.Frequency > sp.params.MaxFrequency {
			continue
		}

		peaks = append(peaks, peak)
	}

	sort.SliceStable(peaks, func(i, j int) bool {
		return peaks[i].Magnitude > peaks[j].Magnitude
	})

	if len(peaks) > sp.params.MaxPeaks {
		peaks = peaks[:sp.params.MaxPeaks]
	}

	return peaks
}

// refine moves a peak to the vertex of the parabola through its bin and both neighbours
func refine(magnitudeSpectrum []float64, peak SpectralPeak, freqResolution float64) SpectralPeak {
	binIdx := peak.BinIndex
	y1 := magnitudeSpectrum[binIdx-1]
	y2 := magnitudeSpectrum[binIdx]
	y3 := magnitudeSpectrum[binIdx+1]

	denom := y1 - 2.0*y2 + y3
	if math.Abs(denom) < 1e-12 {
		return peak
	}

	offset := 0.5 * (y1 - y3) / denom
	peak.Frequency = (float64(binIdx) + offset) * freqResolution
	peak.Magnitude = y2 - 0.25*(y1-y3)*offset
	return peak
}
