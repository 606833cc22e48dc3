package transcode

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/farcloser/primordium/fault"
	"github.com/go-audio/wav"

	"github.com/RyanBlaney/sonido-chroma/logging"
)

// ErrMisalignedData is returned when a raw file is not a whole number of float32 samples
var ErrMisalignedData = errors.New("raw sample data is not a multiple of 4 bytes")

// AnalysisSampleRate is the only rate the analysis pipeline accepts
const AnalysisSampleRate = 44100

// LoadRaw reads a headerless file of little-endian float32 mono samples
func LoadRaw(path string) ([]float32, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", fault.ErrReadFailure, err)
	}

	return DecodeRaw(data)
}

// DecodeRaw converts little-endian float32 bytes to samples
func DecodeRaw(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrMisalignedData, len(data))
	}

	samples := make([]float32, len(data)/4)
	for i := range samples {
		samples[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return samples, nil
}

// EncodeRaw is the inverse of DecodeRaw
func EncodeRaw(samples []float32) []byte {
	data := make([]byte, len(samples)*4)
	for i, s := range samples {
		binary.LittleEndian.PutUint32(data[i*4:], math.Float32bits(s))
	}
	return data
}

// LoadWAV reads a PCM WAV file at 44.1 kHz, averaging channels down to mono.
// Integer samples are scaled to [-1, 1).
func LoadWAV(path string) (*AudioData, error) {
	logger := logging.WithFields(logging.Fields{
		"component": "audio_loader",
		"function":  "LoadWAV",
		"filename":  path,
	})

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", fault.ErrReadFailure, err)
	}
	defer file.Close()

	decoder := wav.NewDecoder(file)
	if !decoder.IsValidFile() {
		return nil, fmt.Errorf("%w: invalid WAV file %s", ErrUnsupportedFormat, path)
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("%w: could not read PCM buffer: %w", fault.ErrReadFailure, err)
	}

	if buf.Format == nil || buf.Format.NumChannels <= 0 {
		return nil, fmt.Errorf("%w: missing channel layout in %s", ErrUnsupportedFormat, path)
	}
	if buf.Format.SampleRate != AnalysisSampleRate {
		return nil, fmt.Errorf("%w: sample rate %d, want %d", ErrUnsupportedFormat, buf.Format.SampleRate, AnalysisSampleRate)
	}

	channels := buf.Format.NumChannels
	frames := len(buf.Data) / channels
	if frames == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoSamples, path)
	}

	scale := math.Pow(2, float64(buf.SourceBitDepth)-1)
	// 8-bit WAV is unsigned, centered on 128
	var offset float64
	if buf.SourceBitDepth == 8 {
		offset = 128
	}

	pcm := make([]float64, frames)
	for i := range pcm {
		var sum float64
		for c := 0; c < channels; c++ {
			sum += float64(buf.Data[i*channels+c]) - offset
		}
		pcm[i] = sum / float64(channels) / scale
	}

	logger.Debug("WAV decoded", logging.Fields{
		"channels":  channels,
		"bit_depth": buf.SourceBitDepth,
		"samples":   len(pcm),
	})

	return &AudioData{
		PCM:        pcm,
		SampleRate: AnalysisSampleRate,
		Channels:   1,
		Duration:   time.Duration(frames) * time.Second / AnalysisSampleRate,
		Source:     path,
		Codec:      "pcm",
	}, nil
}

// Load picks a reader from the file extension: .raw and .f32 are headerless
// float32, .wav goes through the WAV reader, anything else through ffmpeg.
func Load(ctx context.Context, path string, decoder *Decoder) (*AudioData, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".raw", ".f32":
		samples, err := LoadRaw(path)
		if err != nil {
			return nil, err
		}
		pcm := make([]float64, len(samples))
		for i, s := range samples {
			pcm[i] = float64(s)
		}
		return &AudioData{
			PCM:        pcm,
			SampleRate: AnalysisSampleRate,
			Channels:   1,
			Duration:   time.Duration(len(pcm)) * time.Second / AnalysisSampleRate,
			Source:     path,
			Codec:      "f32le",
		}, nil

	case ".wav":
		return LoadWAV(path)

	default:
		if decoder == nil {
			decoder = NewDecoder(nil)
		}
		return decoder.DecodeFile(ctx, path)
	}
}
