package main

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RyanBlaney/sonido-chroma/transcode"
)

func sine(freq float64, n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(0.5 * math.Sin(2*math.Pi*freq*float64(i)/44100))
	}
	return out
}

func withLibrary(t *testing.T) {
	t.Helper()
	t.Setenv(envConfig, "")
	require.EqualValues(t, 0, sonido_init())
	t.Cleanup(func() { sonido_shutdown() })
}

func TestLifecycle(t *testing.T) {
	assert.EqualValues(t, -1, sonido_shutdown())
	assert.Nil(t, analyzeSamples(sine(440, 4096)))

	require.EqualValues(t, 0, sonido_init())
	assert.EqualValues(t, -1, sonido_init())
	assert.EqualValues(t, 0, sonido_shutdown())
}

func TestInitRejectsBadConfig(t *testing.T) {
	t.Setenv(envConfig, filepath.Join(t.TempDir(), "missing.json"))
	assert.EqualValues(t, -1, sonido_init())
}

func TestAnalyzeNullBuffer(t *testing.T) {
	withLibrary(t)

	res := analyzeSamples(nil)
	require.NotNil(t, res)

	v := viewResult(res)
	assert.Equal(t, "", v.Key)
	assert.Equal(t, float32(0), v.Duration)
	assert.Nil(t, v.Chromagram)
	assert.Zero(t, v.FrameCount)
	assert.Zero(t, v.BinCount)

	assert.NotPanics(t, func() { sonido_delete_analysis_result(res) })
	assert.NotPanics(t, func() { sonido_delete_analysis_result(nil) })
}

func TestAnalyzeSineBuffer(t *testing.T) {
	withLibrary(t)

	res := analyzeSamples(sine(440, 4096))
	require.NotNil(t, res)
	defer sonido_delete_analysis_result(res)

	v := viewResult(res)
	assert.NotEmpty(t, v.Key)
	assert.InDelta(t, 4096.0/44100.0, v.Duration, 1e-6)
	assert.Equal(t, 5, v.FrameCount)
	assert.Equal(t, 12, v.BinCount)
	require.Len(t, v.Chromagram, 60)

	for f := 0; f < v.FrameCount; f++ {
		assert.InDelta(t, 1.0, v.Chromagram[9*v.FrameCount+f], 1e-6, "frame %d", f)
	}
}

func TestAnalyzeReportsAllocationFailure(t *testing.T) {
	withLibrary(t)

	original := calloc
	t.Cleanup(func() { calloc = original })

	// Record shell
	calloc = func(uintptr, uintptr) unsafe.Pointer { return nil }
	assert.Nil(t, analyzeSamples(sine(440, 4096)))

	// Chromagram buffer, after the shell succeeded
	calls := 0
	calloc = func(count, size uintptr) unsafe.Pointer {
		calls++
		if calls > 1 {
			return nil
		}
		return original(count, size)
	}
	assert.Nil(t, analyzeSamples(sine(440, 4096)))
	assert.Equal(t, 2, calls)

	calloc = original
	res := analyzeSamples(sine(440, 4096))
	require.NotNil(t, res)
	sonido_delete_analysis_result(res)
}

func TestComputeKeyFromBuffer(t *testing.T) {
	withLibrary(t)

	key, ok := keyOfSamples(sine(440, 8192))
	require.True(t, ok)
	assert.NotEmpty(t, key)

	key, ok = keyOfSamples(nil)
	require.True(t, ok)
	assert.Equal(t, "", key)

	key, ok = keyOfSamples(make([]float32, 8192))
	require.True(t, ok)
	assert.Equal(t, "", key)
}

func TestComputeKeyFromFile(t *testing.T) {
	withLibrary(t)

	samples := sine(440, 8192)
	path := filepath.Join(t.TempDir(), "tone.raw")
	require.NoError(t, os.WriteFile(path, transcode.EncodeRaw(samples), 0o600))

	fromFile, ok := keyOfFile(path)
	require.True(t, ok)
	fromBuffer, ok := keyOfSamples(samples)
	require.True(t, ok)
	assert.Equal(t, fromBuffer, fromFile)

	_, ok = keyOfFile(filepath.Join(t.TempDir(), "missing.raw"))
	assert.False(t, ok)

	assert.Nil(t, sonido_compute_key_from_file(nil))
	assert.NotPanics(t, func() { sonido_delete_c_string(nil) })
}
