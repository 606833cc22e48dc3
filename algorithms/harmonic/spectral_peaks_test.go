package harmonic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// spectrumWith builds a 1025-bin spectrum with isolated triangular bumps at the given bins
func spectrumWith(bumps map[int]float64) []float64 {
	spectrum := make([]float64, 1025)
	for bin, mag := range bumps {
		spectrum[bin] = mag
		spectrum[bin-1] = mag / 2
		spectrum[bin+1] = mag / 2
	}
	return spectrum
}

func params() PeakParams {
	return PeakParams{
		MaxPeaks:           100,
		MagnitudeThreshold: 0.0001,
		MinFrequency:       0,
		MaxFrequency:       22050,
	}
}

func TestDetectOrdersByDescendingMagnitude(t *testing.T) {
	sp := NewSpectralPeaks(2048, 2048, params()) // 1 Hz per bin
	set := sp.Detect(spectrumWith(map[int]float64{10: 1, 20: 3, 30: 2}))

	require.Equal(t, 3, set.Len())
	assert.Equal(t, []float64{20, 30, 10}, set.Frequencies)
	assert.Equal(t, []float64{3, 2, 1}, set.Magnitudes)
	assert.Len(t, set.Magnitudes, len(set.Frequencies))
}

func TestDetectDropsBelowThreshold(t *testing.T) {
	sp := NewSpectralPeaks(2048, 2048, params())
	set := sp.Detect(spectrumWith(map[int]float64{10: 0.00005, 20: 0.0001, 30: 0.5}))

	assert.Equal(t, []float64{30, 20}, set.Frequencies)
}

func TestDetectCapsPeakCount(t *testing.T) {
	bumps := map[int]float64{}
	for i := 0; i < 150; i++ {
		bumps[5+i*6] = float64(i + 1)
	}

	p := params()
	sp := NewSpectralPeaks(2048, 2048, p)
	set := sp.Detect(spectrumWith(bumps))

	require.Equal(t, 100, set.Len())
	assert.Equal(t, 150.0, set.Magnitudes[0])
	assert.Equal(t, 51.0, set.Magnitudes[99])
	for i := 1; i < set.Len(); i++ {
		assert.GreaterOrEqual(t, set.Magnitudes[i-1], set.Magnitudes[i])
	}
}

func TestDetectHonoursFrequencyBand(t *testing.T) {
	p := params()
	p.MinFrequency = 15
	p.MaxFrequency = 25
	sp := NewSpectralPeaks(2048, 2048, p)

	set := sp.Detect(spectrumWith(map[int]float64{10: 1, 20: 1, 30: 1}))
	assert.Equal(t, []float64{20}, set.Frequencies)
}

func TestInterpolationRefinesAsymmetricPeak(t *testing.T) {
	p := params()
	p.Interpolate = true
	sp := NewSpectralPeaks(2048, 2048, p)

	spectrum := make([]float64, 64)
	spectrum[10], spectrum[11], spectrum[12] = 0.5, 1.0, 0.75
	peaks := sp.DetectPeaks(spectrum)

	require.Len(t, peaks, 1)
	assert.Equal(t, 11, peaks[0].BinIndex)
	assert.Greater(t, peaks[0].Frequency, 11.0)
	assert.Less(t, peaks[0].Frequency, 11.5)
	assert.GreaterOrEqual(t, peaks[0].Magnitude, 1.0)

	// Symmetric neighbours leave the peak on its bin
	spectrum[12] = 0.5
	peaks = sp.DetectPeaks(spectrum)
	require.Len(t, peaks, 1)
	assert.InDelta(t, 11.0, peaks[0].Frequency, 1e-12)
	assert.InDelta(t, 1.0, peaks[0].Magnitude, 1e-12)
}

func TestDetectDegenerateInput(t *testing.T) {
	sp := NewSpectralPeaks(44100, 2048, params())
	assert.Equal(t, 0, sp.Detect(nil).Len())
	assert.Equal(t, 0, sp.Detect(make([]float64, 1025)).Len())

	set := PeakSet{Frequencies: []float64{440}, Magnitudes: []float64{1}}
	assert.Equal(t, []SpectralPeak{{Frequency: 440, Magnitude: 1, BinIndex: -1}}, set.Peaks())
}
