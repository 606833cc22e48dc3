package transcode

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/farcloser/primordium/fault"

	"github.com/RyanBlaney/sonido-chroma/logging"
)

var (
	ErrNoSamples         = errors.New("no audio samples decoded")
	ErrUnsupportedFormat = errors.New("unsupported audio format")
)

// AudioData is a decoded mono buffer ready for analysis
type AudioData struct {
	PCM        []float64     `json:"-"`
	SampleRate int           `json:"sample_rate"`
	Channels   int           `json:"channels"`
	Duration   time.Duration `json:"duration"`
	Source     string        `json:"source"`
	Codec      string        `json:"codec,omitempty"`
}

// DecoderConfig holds decoder configuration
type DecoderConfig struct {
	TargetSampleRate int           `json:"target_sample_rate"`
	TargetChannels   int           `json:"target_channels"`
	MaxDuration      time.Duration `json:"max_duration"`
	ResampleQuality  string        `json:"resample_quality"` // "fast", "medium", "high"
	FFmpegPath       string        `json:"ffmpeg_path"`      // Path to ffmpeg binary
	FFprobePath      string        `json:"ffprobe_path"`     // Path to ffprobe binary
	Timeout          time.Duration `json:"timeout"`          // Timeout for each ffmpeg invocation
}

// DefaultDecoderConfig returns mono 44.1 kHz output with binaries taken from PATH
func DefaultDecoderConfig() *DecoderConfig {
	return &DecoderConfig{
		TargetSampleRate: 44100,
		TargetChannels:   1,
		MaxDuration:      0, // No limit
		ResampleQuality:  "high",
		FFmpegPath:       "ffmpeg",
		FFprobePath:      "ffprobe",
		Timeout:          60 * time.Second,
	}
}

// AudioMetadata holds detected audio properties from FFprobe
type AudioMetadata struct {
	SampleRate int     `json:"sample_rate"`
	Channels   int     `json:"channels"`
	Codec      string  `json:"codec"`
	Duration   float64 `json:"duration"`
	Bitrate    int     `json:"bitrate"`
	Format     string  `json:"format"`
}

// Decoder turns container formats (m4a, mp3, flac, ogg...) into analysis
// buffers by shelling out to ffmpeg
type Decoder struct {
	config *DecoderConfig
}

// NewDecoder creates a new audio decoder
func NewDecoder(config *DecoderConfig) *Decoder {
	if config == nil {
		config = DefaultDecoderConfig()
	}
	return &Decoder{config: config}
}

// DecodeFile decodes an audio file to mono PCM at the target sample rate
func (d *Decoder) DecodeFile(ctx context.Context, filename string) (*AudioData, error) {
	logger := logging.WithFields(logging.Fields{
		"component": "audio_decoder",
		"function":  "DecodeFile",
		"filename":  filename,
	})

	if d.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.config.Timeout)
		defer cancel()
	}

	metadata, err := d.probeAudioFile(ctx, filename)
	if err != nil {
		logger.Error(err, "Failed to probe audio file")
		return nil, err
	}

	logger.Debug("Audio metadata detected", logging.Fields{
		"input_sample_rate": metadata.SampleRate,
		"input_channels":    metadata.Channels,
		"input_codec":       metadata.Codec,
		"input_duration":    metadata.Duration,
	})

	args := append([]string{"-i", filename}, d.buildFFmpegArgs(metadata)...)
	args = append(args, "pipe:1")

	cmd := exec.CommandContext(ctx, d.config.FFmpegPath, args...)
	logger.Debug("Running ffmpeg command", logging.Fields{
		"args": strings.Join(args, " "),
	})

	start := time.Now()
	output, err := cmd.Output()
	if err != nil {
		var exitError *exec.ExitError
		if errors.As(err, &exitError) {
			logger.Error(err, "Ffmpeg decode failed", logging.Fields{
				"stderr": string(exitError.Stderr),
			})
		}
		return nil, fmt.Errorf("%w: ffmpeg decode %s: %w", fault.ErrReadFailure, filename, err)
	}

	samples := bytesToFloat64(output)
	if len(samples) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoSamples, filename)
	}

	duration := time.Duration(len(samples)) * time.Second / time.Duration(d.config.TargetSampleRate)
	logger.Debug("FFmpeg decode completed", logging.Fields{
		"output_samples":  len(samples),
		"output_duration": duration.Seconds(),
		"decode_time":     time.Since(start).Seconds(),
	})

	return &AudioData{
		PCM:        samples,
		SampleRate: d.config.TargetSampleRate,
		Channels:   d.config.TargetChannels,
		Duration:   duration,
		Source:     filename,
		Codec:      metadata.Codec,
	}, nil
}

// probeAudioFile uses ffprobe to get audio information from a file
func (d *Decoder) probeAudioFile(ctx context.Context, filename string) (*AudioMetadata, error) {
	args := []string{
		"-v", "quiet", // Suppress verbose output
		"-print_format", "json", // JSON output
		"-show_streams",          // Show stream info
		"-select_streams", "a:0", // First audio stream only
		filename,
	}

	output, err := exec.CommandContext(ctx, d.config.FFprobePath, args...).Output()
	if err != nil {
		var exitError *exec.ExitError
		if errors.As(err, &exitError) {
			return nil, fmt.Errorf("%w: ffprobe failed: %w, stderr: %s", fault.ErrReadFailure, err, string(exitError.Stderr))
		}
		return nil, fmt.Errorf("%w: ffprobe failed: %w", fault.ErrReadFailure, err)
	}

	return parseFFprobeOutput(output)
}

// parseFFprobeOutput parses ffprobe JSON to extract audio metadata
func parseFFprobeOutput(jsonData []byte) (*AudioMetadata, error) {
	var probe struct {
		Streams []struct {
			CodecType     string `json:"codec_type"`
			CodecName     string `json:"codec_name"`
			SampleRate    string `json:"sample_rate"`
			Channels      int    `json:"channels"`
			Duration      string `json:"duration"`
			BitRate       string `json:"bit_rate"`
			CodecLongName string `json:"codec_long_name"`
		} `json:"streams"`
	}

	if err := json.Unmarshal(jsonData, &probe); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	if len(probe.Streams) == 0 {
		return nil, fmt.Errorf("%w: no audio streams found", ErrUnsupportedFormat)
	}

	stream := probe.Streams[0]
	if stream.CodecType != "audio" {
		return nil, fmt.Errorf("%w: stream is not audio type: %s", ErrUnsupportedFormat, stream.CodecType)
	}

	sampleRate, err := strconv.Atoi(stream.SampleRate)
	if err != nil {
		sampleRate = 44100
	}

	duration, err := strconv.ParseFloat(stream.Duration, 64)
	if err != nil {
		duration = 0
	}

	bitrate, err := strconv.Atoi(stream.BitRate)
	if err != nil {
		bitrate = 0
	}

	if stream.Channels <= 0 || stream.Channels > 8 {
		return nil, fmt.Errorf("invalid channel count: %d", stream.Channels)
	}

	return &AudioMetadata{
		SampleRate: sampleRate,
		Channels:   stream.Channels,
		Codec:      stream.CodecName,
		Duration:   duration,
		Bitrate:    bitrate,
		Format:     stream.CodecLongName,
	}, nil
}

// buildFFmpegArgs downmixes and resamples to the target layout as raw float64 little-endian
func (d *Decoder) buildFFmpegArgs(metadata *AudioMetadata) []string {
	args := []string{
		"-vn",
		"-f", "f64le",
		"-ac", strconv.Itoa(d.config.TargetChannels),
		"-ar", strconv.Itoa(d.config.TargetSampleRate),
	}

	if metadata.SampleRate != d.config.TargetSampleRate {
		switch d.config.ResampleQuality {
		case "fast":
			args = append(args, "-af", "aresample=resampler=soxr:precision=16")
		case "medium":
			args = append(args, "-af", "aresample=resampler=soxr:precision=20")
		case "high":
			args = append(args, "-af", "aresample=resampler=soxr:precision=28")
		}
	}

	if d.config.MaxDuration > 0 {
		args = append(args, "-t", fmt.Sprintf("%.2f", d.config.MaxDuration.Seconds()))
	}

	return append(args, "-v", "error")
}

// bytesToFloat64 converts raw float64 little-endian bytes, dropping a trailing partial sample
func bytesToFloat64(data []byte) []float64 {
	sampleCount := len(data) / 8
	if sampleCount == 0 {
		return nil
	}

	samples := make([]float64, sampleCount)
	for i := range sampleCount {
		samples[i] = math.Float64frombits(binary.LittleEndian.Uint64(data[i*8 : i*8+8]))
	}

	return samples
}

// ValidateConfig validates the decoder configuration and checks the binaries exist
func (d *Decoder) ValidateConfig() error {
	if d.config.TargetSampleRate <= 0 {
		return fmt.Errorf("target sample rate must be positive: %d", d.config.TargetSampleRate)
	}

	if d.config.TargetChannels != 1 {
		return fmt.Errorf("analysis needs mono output, got %d channels", d.config.TargetChannels)
	}

	if _, err := exec.LookPath(d.config.FFmpegPath); err != nil {
		return fmt.Errorf("ffmpeg not found at %s: %w", d.config.FFmpegPath, err)
	}
	if _, err := exec.LookPath(d.config.FFprobePath); err != nil {
		return fmt.Errorf("ffprobe not found at %s: %w", d.config.FFprobePath, err)
	}

	return nil
}
