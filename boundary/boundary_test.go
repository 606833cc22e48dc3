package boundary

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RyanBlaney/sonido-chroma/algorithms/chroma"
	"github.com/RyanBlaney/sonido-chroma/analysis"
	"github.com/RyanBlaney/sonido-chroma/transcode"
)

func sine(freq float64, n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(0.5 * math.Sin(2*math.Pi*freq*float64(i)/44100))
	}
	return out
}

func withEngine(t *testing.T) {
	t.Helper()
	require.NoError(t, Init(nil))
	t.Cleanup(func() { _ = Shutdown() })
}

func TestInitLifecycle(t *testing.T) {
	assert.False(t, Initialized())
	assert.ErrorIs(t, Shutdown(), ErrNotInitialized)

	_, err := Analyze(sine(440, 4096))
	assert.ErrorIs(t, err, ErrNotInitialized)
	_, err = ComputeKey(sine(440, 4096))
	assert.ErrorIs(t, err, ErrNotInitialized)
	_, err = ComputeKeyFromFile("whatever.raw")
	assert.ErrorIs(t, err, ErrNotInitialized)

	require.NoError(t, Init(nil))
	assert.True(t, Initialized())
	assert.ErrorIs(t, Init(nil), ErrAlreadyInitialized)

	require.NoError(t, Shutdown())
	assert.False(t, Initialized())

	// The engine can be brought back after a shutdown
	require.NoError(t, Init(nil))
	require.NoError(t, Shutdown())
}

func TestAnalyzeEmptyBuffer(t *testing.T) {
	withEngine(t)

	for _, buf := range [][]float32{nil, {}} {
		rec, err := Analyze(buf)
		require.NoError(t, err)
		assert.Equal(t, "", rec.Key)
		assert.Equal(t, float32(0), rec.Duration)
		assert.Nil(t, rec.Chromagram)
		assert.Equal(t, int32(0), rec.FrameCount)
		assert.Equal(t, int32(0), rec.BinCount)
	}
}

func TestAnalyzeSineRecord(t *testing.T) {
	withEngine(t)

	rec, err := Analyze(sine(440, 4096))
	require.NoError(t, err)

	assert.InDelta(t, 4096.0/44100.0, rec.Duration, 1e-6)
	assert.Equal(t, int32(12), rec.BinCount)
	assert.Equal(t, int32(5), rec.FrameCount)
	require.Len(t, rec.Chromagram, 60)
	assert.NotEmpty(t, rec.Key)

	for f := 0; f < 5; f++ {
		assert.InDelta(t, 1.0, rec.At(9, f), 1e-6, "frame %d", f)
	}
}

func TestShortBufferHasNoChroma(t *testing.T) {
	withEngine(t)

	rec, err := Analyze(sine(440, 2047))
	require.NoError(t, err)
	assert.Nil(t, rec.Chromagram)
	assert.Equal(t, int32(0), rec.FrameCount)
	assert.Equal(t, int32(0), rec.BinCount)
	assert.InDelta(t, 2047.0/44100.0, rec.Duration, 1e-6)
}

func TestAssembleLayout(t *testing.T) {
	m := chroma.NewMatrixFromRows([][]float64{
		{1, 2, 3},
		{4, 5, 6},
	})
	rec := Assemble(&analysis.Result{Key: "E minor", Duration: 1.5, Chroma: m})

	assert.Equal(t, "E minor", rec.Key)
	assert.Equal(t, float32(1.5), rec.Duration)
	assert.Equal(t, int32(2), rec.BinCount)
	assert.Equal(t, int32(3), rec.FrameCount)
	assert.Equal(t, []float32{1, 2, 3, 4, 5, 6}, rec.Chromagram)

	for b := 0; b < 2; b++ {
		for f := 0; f < 3; f++ {
			assert.Equal(t, float32(m.At(b, f)), rec.Chromagram[b*3+f])
			assert.Equal(t, float32(m.At(b, f)), rec.At(b, f))
		}
	}

	assert.Equal(t, &Record{}, Assemble(nil))
}

func TestReleaseIsIdempotent(t *testing.T) {
	rec := Assemble(&analysis.Result{Key: "C major", Chroma: chroma.NewMatrix(12, 2)})
	require.Len(t, rec.Chromagram, 24)

	rec.Release()
	assert.True(t, rec.Released())
	assert.Nil(t, rec.Chromagram)
	assert.Equal(t, "", rec.Key)

	rec.Release()
	assert.True(t, rec.Released())

	var nilRecord *Record
	assert.NotPanics(t, nilRecord.Release)
}

func TestComputeKey(t *testing.T) {
	withEngine(t)

	key, err := ComputeKey(sine(440, 8192))
	require.NoError(t, err)
	assert.NotEmpty(t, key)

	key, err = ComputeKey(make([]float32, 8192))
	require.NoError(t, err)
	assert.Equal(t, "", key)

	key, err = ComputeKey(nil)
	require.NoError(t, err)
	assert.Equal(t, "", key)
}

func TestComputeKeyFromFile(t *testing.T) {
	withEngine(t)

	samples := sine(440, 8192)
	path := filepath.Join(t.TempDir(), "tone.raw")
	require.NoError(t, os.WriteFile(path, transcode.EncodeRaw(samples), 0o600))

	fromFile, err := ComputeKeyFromFile(path)
	require.NoError(t, err)
	fromBuffer, err := ComputeKey(samples)
	require.NoError(t, err)
	assert.Equal(t, fromBuffer, fromFile)

	bad := filepath.Join(t.TempDir(), "bad.raw")
	require.NoError(t, os.WriteFile(bad, []byte{1, 2, 3}, 0o600))
	_, err = ComputeKeyFromFile(bad)
	assert.ErrorIs(t, err, transcode.ErrMisalignedData)
}
