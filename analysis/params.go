package analysis

import (
	"github.com/RyanBlaney/sonido-chroma/algorithms/chroma"
	"github.com/RyanBlaney/sonido-chroma/algorithms/common"
	"github.com/RyanBlaney/sonido-chroma/algorithms/harmonic"
	"github.com/RyanBlaney/sonido-chroma/algorithms/tonal"
	"github.com/RyanBlaney/sonido-chroma/config"
)

// Translation from the JSON configuration to the per-algorithm parameter structs

func peakParams(cfg *config.Config) harmonic.PeakParams {
	return harmonic.PeakParams{
		MaxPeaks:           cfg.Peaks.MaxPeaks,
		MagnitudeThreshold: cfg.Peaks.MagnitudeThreshold,
		MinFrequency:       cfg.Peaks.MinFrequency,
		MaxFrequency:       cfg.Peaks.MaxFrequency,
		Interpolate:        cfg.Peaks.Interpolate,
	}
}

func hpcpParams(cfg *config.Config) chroma.HPCPParams {
	return chroma.HPCPParams{
		Size:          cfg.HPCP.Size,
		ReferenceFreq: cfg.HPCP.ReferenceFrequency,
		MinFreq:       cfg.HPCP.MinFrequency,
		MaxFreq:       cfg.HPCP.MaxFrequency,
		WindowSize:    cfg.HPCP.WindowSize,
		WeightType:    cfg.HPCP.WeightType,
		NonLinear:     cfg.HPCP.NonLinear,
		Normalized:    cfg.HPCP.Normalized,
	}
}

func enhanceParams(cfg *config.Config) chroma.EnhanceParams {
	return chroma.EnhanceParams{
		CompressionGain: cfg.Enhance.CompressionGain,
		ThresholdRatio:  cfg.Enhance.ThresholdRatio,
		MedianHalfWidth: cfg.Enhance.MedianHalfWidth,
		MedianSelection: common.ParseMedianSelection(cfg.Enhance.MedianSelection),
	}
}

func keyParams(cfg *config.Config) (tonal.KeyEstimationParams, error) {
	profile, err := tonal.ParseKeyProfile(cfg.Key.Profile)
	if err != nil {
		return tonal.KeyEstimationParams{}, err
	}

	params := tonal.DefaultKeyEstimationParams(cfg.SampleRate)
	params.FrameSize = cfg.Key.FrameSize
	params.HopSize = cfg.Key.HopSize
	params.Backend = cfg.Spectrum.Backend
	params.Profile = profile
	params.PCPThreshold = cfg.Key.PCPThreshold
	params.Rotation = cfg.HPCP.Rotation

	params.Peaks.MaxPeaks = cfg.Key.MaxPeaks
	params.Peaks.MagnitudeThreshold = cfg.Peaks.MagnitudeThreshold
	params.Peaks.MaxFrequency = cfg.Key.MaxFrequency
	params.Peaks.Interpolate = cfg.Peaks.Interpolate

	params.HPCP.Size = cfg.HPCP.Size
	params.HPCP.ReferenceFreq = cfg.HPCP.ReferenceFrequency
	params.HPCP.MinFreq = cfg.Key.MinFrequency
	params.HPCP.MaxFreq = cfg.Key.MaxFrequency
	params.HPCP.WindowSize = cfg.HPCP.WindowSize
	params.HPCP.WeightType = cfg.Key.WeightType

	return params, nil
}

// rotationBins converts the configured semitone rotation to HPCP bins
func rotationBins(cfg *config.Config) int {
	return cfg.HPCP.Rotation * cfg.HPCP.Size / 12
}
