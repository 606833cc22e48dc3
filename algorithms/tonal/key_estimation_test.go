package tonal

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chord(n int, freqs ...float64) []float64 {
	out := make([]float64, n)
	for _, f := range freqs {
		for i := range out {
			out[i] += 0.3 * math.Sin(2*math.Pi*f*float64(i)/44100)
		}
	}
	return out
}

func newEstimator(t *testing.T) *KeyEstimator {
	t.Helper()
	ke, err := NewKeyEstimator(DefaultKeyEstimationParams(44100))
	require.NoError(t, err)
	return ke
}

func TestEstimateMajorTriads(t *testing.T) {
	tests := []struct {
		name  string
		freqs []float64
		want  string
	}{
		{"C major", []float64{261.63, 329.63, 392.00}, "C major"},
		{"G major", []float64{196.00, 246.94, 293.66}, "G major"},
	}

	ke := newEstimator(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			est, err := ke.Estimate(chord(44100, tt.freqs...))
			require.NoError(t, err)
			assert.Equal(t, tt.want, est.String())
			assert.Greater(t, est.Strength, 0.5)
		})
	}
}

func TestEstimateSilenceIsDegenerate(t *testing.T) {
	ke := newEstimator(t)

	_, err := ke.Estimate(make([]float64, 8192))
	assert.ErrorIs(t, err, ErrDegenerateInput)

	_, err = ke.Estimate(nil)
	assert.ErrorIs(t, err, ErrDegenerateInput)
}

func TestEstimateShortBufferIsPadded(t *testing.T) {
	ke := newEstimator(t)

	est, err := ke.Estimate(chord(2000, 440))
	require.NoError(t, err)
	assert.NotEmpty(t, est.Name())
}

func TestEstimateFromProfileRecoversTransposition(t *testing.T) {
	ke := newEstimator(t)
	major := keyProfiles[KeyProfileBgate].MajorProfile
	minor := keyProfiles[KeyProfileBgate].MinorProfile

	for root := 0; root < 12; root++ {
		pcp := make([]float64, 12)
		for i := range pcp {
			pcp[i] = major[(i-root+12)%12]
		}
		est, err := ke.EstimateFromProfile(pcp)
		require.NoError(t, err)
		assert.Equal(t, root, est.Root)
		assert.Equal(t, KeyModeMajor, est.Mode)
		assert.InDelta(t, 1.0, est.Strength, 1e-9)
	}

	pcp := make([]float64, 12)
	for i := range pcp {
		pcp[i] = minor[(i-9+12)%12]
	}
	est, err := ke.EstimateFromProfile(pcp)
	require.NoError(t, err)
	assert.Equal(t, "A minor", est.String())
}

func TestEstimateFromProfileRejectsFlatInput(t *testing.T) {
	ke := newEstimator(t)

	_, err := ke.EstimateFromProfile(make([]float64, 12))
	assert.ErrorIs(t, err, ErrDegenerateInput)

	// Constant profiles have no variance to correlate
	flat := []float64{1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1}
	_, err = ke.EstimateFromProfile(flat)
	assert.ErrorIs(t, err, ErrDegenerateInput)

	_, err = ke.EstimateFromProfile([]float64{1, 2})
	assert.ErrorIs(t, err, ErrDegenerateInput)
}

func TestParseKeyProfile(t *testing.T) {
	p, err := ParseKeyProfile("bgate")
	require.NoError(t, err)
	assert.Equal(t, KeyProfileBgate, p)

	p, err = ParseKeyProfile("Tonic_Triad")
	require.NoError(t, err)
	assert.Equal(t, KeyProfileTonicTriad, p)

	_, err = ParseKeyProfile("lydian")
	assert.ErrorIs(t, err, ErrUnknownProfile)

	params := DefaultKeyEstimationParams(44100)
	params.Profile = KeyProfile(99)
	_, err = NewKeyEstimator(params)
	assert.ErrorIs(t, err, ErrUnknownProfile)
}

func TestKeyNames(t *testing.T) {
	assert.Equal(t, "C# minor", KeyEstimate{Root: 1, Mode: KeyModeMinor}.String())
	assert.Equal(t, "B major", KeyEstimate{Root: 11}.String())
	assert.Equal(t, "minor", KeyModeMinor.String())
}
