package tonal

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/RyanBlaney/sonido-chroma/algorithms/chroma"
	"github.com/RyanBlaney/sonido-chroma/algorithms/common"
	"github.com/RyanBlaney/sonido-chroma/algorithms/harmonic"
	"github.com/RyanBlaney/sonido-chroma/algorithms/spectral"
)

var (
	// ErrDegenerateInput is returned when the audio carries no pitch content to correlate
	ErrDegenerateInput = errors.New("degenerate input: no tonal content")
	// ErrUnknownProfile is returned by ParseKeyProfile
	ErrUnknownProfile = errors.New("unknown key profile")
)

// KeyProfile represents different key detection profiles
type KeyProfile int

const (
	KeyProfileKrumhansl KeyProfile = iota
	KeyProfileTemperley
	KeyProfileShaath
	KeyProfileEDMA
	KeyProfileBgate
	KeyProfileDiatonic
	KeyProfileTonicTriad
)

var profileNames = map[string]KeyProfile{
	"krumhansl":   KeyProfileKrumhansl,
	"temperley":   KeyProfileTemperley,
	"shaath":      KeyProfileShaath,
	"edma":        KeyProfileEDMA,
	"bgate":       KeyProfileBgate,
	"diatonic":    KeyProfileDiatonic,
	"tonic_triad": KeyProfileTonicTriad,
}

// ParseKeyProfile maps a configuration name to a KeyProfile
func ParseKeyProfile(name string) (KeyProfile, error) {
	p, ok := profileNames[strings.ToLower(name)]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownProfile, name)
	}
	return p, nil
}

// KeyMode represents major or minor mode
type KeyMode int

const (
	KeyModeMajor KeyMode = iota
	KeyModeMinor
)

func (m KeyMode) String() string {
	if m == KeyModeMinor {
		return "minor"
	}
	return "major"
}

var keyNames = []string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// KeyEstimate is the best matching key for a buffer
type KeyEstimate struct {
	Root     int     `json:"root"`     // Pitch class of the tonic (0=C, 1=C#, ..., 11=B)
	Mode     KeyMode `json:"mode"`     // Major or Minor
	Strength float64 `json:"strength"` // Pearson correlation with the winning profile
}

// Name returns the tonic name, e.g. "F#"
func (k KeyEstimate) Name() string {
	return keyNames[k.Root%12]
}

// String returns "<tonic> <mode>", e.g. "C major"
func (k KeyEstimate) String() string {
	return k.Name() + " " + k.Mode.String()
}

// KeyProfileTemplate contains template for key profile, tonic first
type KeyProfileTemplate struct {
	MajorProfile []float64 `json:"major_profile"`
	MinorProfile []float64 `json:"minor_profile"`
	Name         string    `json:"name"`
}

// KeyEstimationParams contains parameters for key estimation
type KeyEstimationParams struct {
	SampleRate   int                 `json:"sample_rate"`
	FrameSize    int                 `json:"frame_size"`
	HopSize      int                 `json:"hop_size"`
	Backend      string              `json:"backend"` // spectrum backend, see spectral.NewTransform
	Profile      KeyProfile          `json:"profile"`
	PCPThreshold float64             `json:"pcp_threshold"` // per-frame bins below this fraction of the frame max are zeroed
	Rotation     int                 `json:"rotation"`      // left rotation in semitones bringing bin 0 to C
	Peaks        harmonic.PeakParams `json:"peaks"`
	HPCP         chroma.HPCPParams   `json:"hpcp"`
}

// DefaultKeyEstimationParams mirrors the usual key extractor settings:
// 4096-sample frames without overlap, 60 peaks, cosine-weighted HPCP over [25, 3500] Hz
func DefaultKeyEstimationParams(sampleRate int) KeyEstimationParams {
	hpcp := chroma.DefaultHPCPParams()
	hpcp.MinFreq = 25
	hpcp.MaxFreq = 3500
	hpcp.WeightType = "cosine"
	hpcp.Normalized = "unit_max"

	return KeyEstimationParams{
		SampleRate:   sampleRate,
		FrameSize:    4096,
		HopSize:      4096,
		Backend:      "godsp",
		Profile:      KeyProfileBgate,
		PCPThreshold: 0.2,
		Rotation:     3,
		Peaks: harmonic.PeakParams{
			MaxPeaks:           60,
			MagnitudeThreshold: 0.0001,
			MinFrequency:       0,
			MaxFrequency:       3500,
			Interpolate:        true,
		},
		HPCP: hpcp,
	}
}

// KeyEstimator finds the major or minor key whose profile best correlates
// with the average pitch class profile of a buffer. It owns a spectral
// front end, so one estimator serves one goroutine at a time.
type KeyEstimator struct {
	params   KeyEstimationParams
	frontEnd *spectral.FrontEnd
	hpcp     *chroma.HPCP
	profile  *KeyProfileTemplate
}

// NewKeyEstimator creates a key estimator with custom parameters
func NewKeyEstimator(params KeyEstimationParams) (*KeyEstimator, error) {
	transform, err := spectral.NewTransform(params.Backend, params.FrameSize)
	if err != nil {
		return nil, fmt.Errorf("key estimator: %w", err)
	}

	profile, ok := keyProfiles[params.Profile]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownProfile, params.Profile)
	}

	return &KeyEstimator{
		params:   params,
		frontEnd: spectral.NewFrontEnd(transform, params.SampleRate, params.Peaks),
		hpcp:     chroma.NewHPCP(params.HPCP),
		profile:  profile,
	}, nil
}

// Estimate returns the key of samples. Empty input, or input whose frames
// carry no in-band peaks, yields ErrDegenerateInput.
func (ke *KeyEstimator) Estimate(samples []float64) (KeyEstimate, error) {
	if len(samples) == 0 {
		return KeyEstimate{}, ErrDegenerateInput
	}

	pcp, err := ke.averageProfile(samples)
	if err != nil {
		return KeyEstimate{}, err
	}

	return ke.EstimateFromProfile(pcp)
}

// EstimateFromProfile correlates a C-origin pitch class profile with all
// 24 rotated key templates and returns the best match
func (ke *KeyEstimator) EstimateFromProfile(pcp []float64) (KeyEstimate, error) {
	if len(pcp) != 12 || floats.Max(pcp) <= 0 {
		return KeyEstimate{}, ErrDegenerateInput
	}

	best := KeyEstimate{Strength: math.Inf(-1)}
	found := false

	for root := 0; root < 12; root++ {
		for _, mode := range []KeyMode{KeyModeMajor, KeyModeMinor} {
			template := ke.profile.MajorProfile
			if mode == KeyModeMinor {
				template = ke.profile.MinorProfile
			}

			corr := correlateWithProfile(pcp, template, root)
			if math.IsNaN(corr) {
				continue
			}
			if corr > best.Strength {
				best = KeyEstimate{Root: root, Mode: mode, Strength: corr}
				found = true
			}
		}
	}

	if !found {
		return KeyEstimate{}, ErrDegenerateInput
	}
	return best, nil
}

// averageProfile folds every frame, thresholds it relative to its maximum
// and averages. The result is rotated so bin 0 is C.
func (ke *KeyEstimator) averageProfile(samples []float64) ([]float64, error) {
	size := ke.params.HPCP.Size
	sum := make([]float64, size)
	frames := 0

	cutter := common.NewPaddedFrameCutter(samples, ke.params.FrameSize, ke.params.HopSize)
	for {
		frame, ok := cutter.Next()
		if !ok {
			break
		}

		peaks, err := ke.frontEnd.Extract(frame)
		if err != nil {
			return nil, err
		}

		pcp := ke.hpcp.Compute(peaks)
		peak := floats.Max(pcp)
		for i, v := range pcp {
			if peak <= 0 || v/peak < ke.params.PCPThreshold {
				pcp[i] = 0
			}
		}

		floats.Add(sum, pcp)
		frames++
	}

	if frames == 0 {
		return nil, ErrDegenerateInput
	}
	floats.Scale(1/float64(frames), sum)

	return foldToSemitones(chroma.RotateLeft(sum, ke.params.Rotation*size/12), size), nil
}

// foldToSemitones sums groups of size/12 adjacent bins. Bins already centred
// on semitones pass through unchanged for size 12.
func foldToSemitones(pcp []float64, size int) []float64 {
	if size == 12 {
		return pcp
	}

	per := size / 12
	out := make([]float64, 12)
	for i, v := range pcp {
		out[i/per] += v
	}
	return out
}

// correlateWithProfile returns the Pearson correlation of pcp with profile
// transposed so its tonic sits on root
func correlateWithProfile(pcp, profile []float64, root int) float64 {
	n := len(profile)
	shifted := make([]float64, n)
	for i := range shifted {
		shifted[i] = profile[(i-root+n)%n]
	}
	return stat.Correlation(pcp, shifted, nil)
}

// GetParams returns the current parameters
func (ke *KeyEstimator) GetParams() KeyEstimationParams {
	return ke.params
}

// ProfileName returns the display name of the active profile
func (ke *KeyEstimator) ProfileName() string {
	return ke.profile.Name
}

var keyProfiles = map[KeyProfile]*KeyProfileTemplate{
	// Krumhansl-Schmuckler profiles (empirically derived)
	KeyProfileKrumhansl: {
		MajorProfile: []float64{6.35, 2.23, 3.48, 2.33, 4.38, 4.09, 2.52, 5.19, 2.39, 3.66, 2.29, 2.88},
		MinorProfile: []float64{6.33, 2.68, 3.52, 5.38, 2.60, 3.53, 2.54, 4.75, 3.98, 2.69, 3.34, 3.17},
		Name:         "Krumhansl-Schmuckler",
	},
	// Temperley profiles (corpus-based)
	KeyProfileTemperley: {
		MajorProfile: []float64{5.0, 2.0, 3.5, 2.0, 4.5, 4.0, 2.0, 4.5, 2.0, 3.5, 1.5, 4.0},
		MinorProfile: []float64{5.0, 2.0, 3.5, 4.5, 2.0, 4.0, 2.0, 4.5, 3.5, 2.0, 1.5, 4.0},
		Name:         "Temperley",
	},
	KeyProfileShaath: {
		MajorProfile: []float64{6.6, 2.0, 3.5, 2.3, 4.6, 4.0, 2.5, 5.2, 2.4, 3.7, 2.3, 3.4},
		MinorProfile: []float64{6.5, 2.7, 3.5, 5.4, 2.6, 3.5, 2.5, 4.7, 4.0, 2.7, 3.4, 3.2},
		Name:         "Shaath",
	},
	// Electronic dance music analysis
	KeyProfileEDMA: {
		MajorProfile: []float64{17.7661, 0.145624, 14.9265, 0.160186, 19.8049, 11.3587, 0.291248, 22.062, 0.145624, 8.15494, 0.232998, 4.95122},
		MinorProfile: []float64{18.2648, 0.737619, 14.0499, 16.8599, 0.702494, 14.4362, 0.702494, 18.6161, 4.56621, 1.93186, 7.37619, 1.75623},
		Name:         "EDMA",
	},
	KeyProfileBgate: {
		MajorProfile: []float64{16.8, 0.86, 12.95, 1.41, 13.49, 11.93, 1.25, 20.28, 1.80, 8.04, 0.62, 10.57},
		MinorProfile: []float64{18.16, 0.69, 12.99, 13.34, 1.07, 11.15, 1.38, 21.07, 7.49, 1.53, 6.24, 1.61},
		Name:         "Bgate",
	},
	KeyProfileDiatonic: {
		MajorProfile: []float64{5.0, 0.0, 3.0, 0.0, 4.0, 3.5, 0.0, 4.5, 0.0, 3.0, 0.0, 2.0},
		MinorProfile: []float64{5.0, 0.0, 3.0, 3.5, 0.0, 3.5, 0.0, 4.5, 3.0, 0.0, 2.0, 0.0},
		Name:         "Diatonic",
	},
	// Tonic triad only
	KeyProfileTonicTriad: {
		MajorProfile: []float64{5.0, 0.0, 0.0, 0.0, 3.0, 0.0, 0.0, 4.0, 0.0, 0.0, 0.0, 0.0},
		MinorProfile: []float64{5.0, 0.0, 0.0, 3.0, 0.0, 0.0, 0.0, 4.0, 0.0, 0.0, 0.0, 0.0},
		Name:         "Tonic Triad",
	},
}
