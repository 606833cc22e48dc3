package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/farcloser/primordium/format"

	"github.com/RyanBlaney/sonido-chroma/algorithms/tonal"
	"github.com/RyanBlaney/sonido-chroma/analysis"
	"github.com/RyanBlaney/sonido-chroma/transcode"
)

var pitchClasses = []string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

func outputAnalysis(data *transcode.AudioData, result *analysis.Result, formatName string, showChroma bool) error {
	formatter, err := format.GetFormatter(formatName)
	if err != nil {
		return err
	}

	meta := map[string]any{
		"key":      displayKey(result.Key),
		"duration": fmt.Sprintf("%.3f s", result.Duration),
		"samples":  result.SampleCount,
		"frames":   result.Chroma.Frames(),
		"bins":     result.Chroma.Bins(),
	}
	if data.Codec != "" {
		meta["codec"] = data.Codec
	}
	if result.Estimate != nil {
		meta["key_strength"] = fmt.Sprintf("%.3f", result.Estimate.Strength)
	}

	if showChroma && !result.Chroma.IsEmpty() {
		rows := make(map[string]any, result.Chroma.Bins())
		for b := 0; b < result.Chroma.Bins(); b++ {
			rows[binLabel(b, result.Chroma.Bins())] = formatRow(result.Chroma.Row(b))
		}
		meta["chroma"] = rows
	}

	return formatter.PrintAll([]*format.Data{{Object: data.Source, Meta: meta}}, os.Stdout)
}

func outputKey(data *transcode.AudioData, est tonal.KeyEstimate, found bool, formatName string) error {
	formatter, err := format.GetFormatter(formatName)
	if err != nil {
		return err
	}

	meta := map[string]any{"key": displayKey("")}
	if found {
		meta["key"] = est.String()
		meta["key_strength"] = fmt.Sprintf("%.3f", est.Strength)
	}

	return formatter.PrintAll([]*format.Data{{Object: data.Source, Meta: meta}}, os.Stdout)
}

func displayKey(key string) string {
	if key == "" {
		return "(none)"
	}
	return key
}

// binLabel names a chroma row; rows finer than a semitone get a numeric suffix
func binLabel(bin, bins int) string {
	per := bins / len(pitchClasses)
	if per <= 1 {
		return fmt.Sprintf("%02d %s", bin, pitchClasses[bin%len(pitchClasses)])
	}
	return fmt.Sprintf("%02d %s.%d", bin, pitchClasses[(bin/per)%len(pitchClasses)], bin%per)
}

func formatRow(row []float64) string {
	var sb strings.Builder
	for i, v := range row {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%.2f", v)
	}
	return sb.String()
}
