package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// ErrInvalidConfig is wrapped by every Validate failure
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds every tunable of the analysis engine
type Config struct {
	SampleRate int            `json:"sample_rate"`
	Frames     FrameConfig    `json:"frames"`
	Spectrum   SpectrumConfig `json:"spectrum"`
	Peaks      PeakConfig     `json:"peaks"`
	HPCP       HPCPConfig     `json:"hpcp"`
	Enhance    EnhanceConfig  `json:"enhance"`
	Key        KeyConfig      `json:"key"`
	Logging    LoggingConfig  `json:"logging"`
}

// FrameConfig controls the frame source feeding the chroma pipeline
type FrameConfig struct {
	Size int `json:"size"`
	Hop  int `json:"hop"`
}

type SpectrumConfig struct {
	Backend string `json:"backend"` // "godsp" or "gonum"
}

// PeakConfig controls spectral peak extraction
type PeakConfig struct {
	MaxPeaks           int     `json:"max_peaks"`
	MagnitudeThreshold float64 `json:"magnitude_threshold"`
	MinFrequency       float64 `json:"min_frequency"`
	MaxFrequency       float64 `json:"max_frequency"`
	Interpolate        bool    `json:"interpolate"`
}

// HPCPConfig controls harmonic folding of peaks into pitch classes
type HPCPConfig struct {
	Size               int     `json:"size"`
	ReferenceFrequency float64 `json:"reference_frequency"`
	MinFrequency       float64 `json:"min_frequency"`
	MaxFrequency       float64 `json:"max_frequency"`
	WindowSize         float64 `json:"window_size"` // semitones
	WeightType         string  `json:"weight_type"` // "none", "cosine", "squared_cosine"
	NonLinear          bool    `json:"non_linear"`
	Normalized         string  `json:"normalized"` // "none", "unit_max", "unit_sum"
	Rotation           int     `json:"rotation"`   // left rotation in semitones applied to every folded vector
}

// EnhanceConfig controls chroma enhancement
type EnhanceConfig struct {
	CompressionGain float64 `json:"compression_gain"`
	ThresholdRatio  float64 `json:"threshold_ratio"`
	MedianHalfWidth int     `json:"median_half_width"`
	MedianSelection string  `json:"median_selection"` // "upper" or "lower"
}

// KeyConfig controls the key estimator, which runs on the raw buffer
type KeyConfig struct {
	FrameSize    int     `json:"frame_size"`
	HopSize      int     `json:"hop_size"`
	Profile      string  `json:"profile"`
	MaxPeaks     int     `json:"max_peaks"`
	MinFrequency float64 `json:"min_frequency"`
	MaxFrequency float64 `json:"max_frequency"`
	PCPThreshold float64 `json:"pcp_threshold"`
	WeightType   string  `json:"weight_type"`
}

type LoggingConfig struct {
	Level string `json:"level"`
	Color bool   `json:"color"`
}

// DefaultConfig returns the reference analysis settings: 44.1 kHz, 2048/512 frames,
// 100 peaks above 1e-4, a 12-bin HPCP anchored at 440 Hz over [100, 5000] Hz.
func DefaultConfig() *Config {
	return &Config{
		SampleRate: 44100,
		Frames: FrameConfig{
			Size: 2048,
			Hop:  512,
		},
		Spectrum: SpectrumConfig{
			Backend: "godsp",
		},
		Peaks: PeakConfig{
			MaxPeaks:           100,
			MagnitudeThreshold: 0.0001,
			MinFrequency:       0,
			MaxFrequency:       5000,
			Interpolate:        true,
		},
		HPCP: HPCPConfig{
			Size:               12,
			ReferenceFrequency: 440.0,
			MinFrequency:       100.0,
			MaxFrequency:       5000.0,
			WindowSize:         1.0,
			WeightType:         "squared_cosine",
			NonLinear:          false,
			Normalized:         "none",
			Rotation:           3,
		},
		Enhance: EnhanceConfig{
			CompressionGain: 1000.0,
			ThresholdRatio:  0.2,
			MedianHalfWidth: 16,
			MedianSelection: "upper",
		},
		Key: KeyConfig{
			FrameSize:    4096,
			HopSize:      4096,
			Profile:      "bgate",
			MaxPeaks:     60,
			MinFrequency: 25.0,
			MaxFrequency: 3500.0,
			PCPThreshold: 0.2,
			WeightType:   "cosine",
		},
		Logging: LoggingConfig{
			Level: "info",
			Color: false,
		},
	}
}

// Load reads a JSON file on top of DefaultConfig and validates the result
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks value ranges across all sections
func (c *Config) Validate() error {
	if c.SampleRate <= 0 {
		return invalid("sample_rate must be positive: %d", c.SampleRate)
	}

	nyquist := float64(c.SampleRate) / 2

	if c.Frames.Size <= 0 || c.Frames.Hop <= 0 {
		return invalid("frame size and hop must be positive: %d/%d", c.Frames.Size, c.Frames.Hop)
	}

	switch c.Spectrum.Backend {
	case "godsp", "gonum":
	default:
		return invalid("unknown spectrum backend %q", c.Spectrum.Backend)
	}

	if c.Peaks.MaxPeaks <= 0 {
		return invalid("peaks.max_peaks must be positive: %d", c.Peaks.MaxPeaks)
	}
	if c.Peaks.MagnitudeThreshold < 0 {
		return invalid("peaks.magnitude_threshold must not be negative: %g", c.Peaks.MagnitudeThreshold)
	}
	if c.Peaks.MinFrequency < 0 || c.Peaks.MaxFrequency <= c.Peaks.MinFrequency {
		return invalid("peaks frequency band is empty: [%g, %g]", c.Peaks.MinFrequency, c.Peaks.MaxFrequency)
	}

	if c.HPCP.Size <= 0 || c.HPCP.Size%12 != 0 {
		return invalid("hpcp.size must be a positive multiple of 12: %d", c.HPCP.Size)
	}
	if c.HPCP.ReferenceFrequency <= 0 {
		return invalid("hpcp.reference_frequency must be positive: %g", c.HPCP.ReferenceFrequency)
	}
	if c.HPCP.MinFrequency <= 0 || c.HPCP.MaxFrequency <= c.HPCP.MinFrequency || c.HPCP.MaxFrequency > nyquist {
		return invalid("hpcp frequency band invalid: [%g, %g]", c.HPCP.MinFrequency, c.HPCP.MaxFrequency)
	}
	if c.HPCP.WindowSize <= 0 {
		return invalid("hpcp.window_size must be positive: %g", c.HPCP.WindowSize)
	}
	if err := validateWeightType(c.HPCP.WeightType); err != nil {
		return err
	}
	switch c.HPCP.Normalized {
	case "none", "unit_max", "unit_sum":
	default:
		return invalid("unknown hpcp normalization %q", c.HPCP.Normalized)
	}

	if c.Enhance.CompressionGain <= 0 {
		return invalid("enhance.compression_gain must be positive: %g", c.Enhance.CompressionGain)
	}
	if c.Enhance.ThresholdRatio < 0 || c.Enhance.ThresholdRatio > 1 {
		return invalid("enhance.threshold_ratio must be within [0, 1]: %g", c.Enhance.ThresholdRatio)
	}
	if c.Enhance.MedianHalfWidth < 0 {
		return invalid("enhance.median_half_width must not be negative: %d", c.Enhance.MedianHalfWidth)
	}
	switch c.Enhance.MedianSelection {
	case "upper", "lower":
	default:
		return invalid("unknown median selection %q", c.Enhance.MedianSelection)
	}

	if c.Key.FrameSize <= 0 || c.Key.HopSize <= 0 {
		return invalid("key frame size and hop must be positive: %d/%d", c.Key.FrameSize, c.Key.HopSize)
	}
	if c.Key.MaxPeaks <= 0 {
		return invalid("key.max_peaks must be positive: %d", c.Key.MaxPeaks)
	}
	if c.Key.MinFrequency <= 0 || c.Key.MaxFrequency <= c.Key.MinFrequency || c.Key.MaxFrequency > nyquist {
		return invalid("key frequency band invalid: [%g, %g]", c.Key.MinFrequency, c.Key.MaxFrequency)
	}
	if c.Key.PCPThreshold < 0 || c.Key.PCPThreshold >= 1 {
		return invalid("key.pcp_threshold must be within [0, 1): %g", c.Key.PCPThreshold)
	}
	if err := validateWeightType(c.Key.WeightType); err != nil {
		return err
	}
	if c.Key.Profile == "" {
		return invalid("key.profile must be set")
	}

	return nil
}

func validateWeightType(weightType string) error {
	switch weightType {
	case "none", "cosine", "squared_cosine":
		return nil
	default:
		return invalid("unknown weight type %q", weightType)
	}
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}
