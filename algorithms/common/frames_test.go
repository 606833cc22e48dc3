package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func ramp(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i)
	}
	return out
}

func countFrames(fc *FrameCutter) int {
	n := 0
	for {
		if _, ok := fc.Next(); !ok {
			return n
		}
		n++
	}
}

func TestFrameCountBoundaries(t *testing.T) {
	cases := []struct {
		length int
		want   int
	}{
		{0, 0},
		{1, 0},
		{2047, 0},
		{2048, 1},
		{2559, 1},
		{2560, 2},
		{4096, 5},
		{44100, 83},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, FrameCount(tc.length, 2048, 512), "length %d", tc.length)
		assert.Equal(t, tc.want, countFrames(NewFrameCutter(ramp(tc.length), 2048, 512)), "cutter length %d", tc.length)
	}
}

func TestFrameCutterOffsets(t *testing.T) {
	fc := NewFrameCutter(ramp(2560), 2048, 512)

	first, ok := fc.Next()
	assert.True(t, ok)
	assert.Equal(t, 0.0, first[0])
	assert.Equal(t, 2047.0, first[2047])

	second, ok := fc.Next()
	assert.True(t, ok)
	assert.Equal(t, 512.0, second[0])
	assert.Equal(t, 2559.0, second[2047])

	_, ok = fc.Next()
	assert.False(t, ok)
}

func TestFrameCutterIsSinglePass(t *testing.T) {
	fc := NewFrameCutter(ramp(2048), 2048, 512)
	assert.Equal(t, 1, countFrames(fc))
	assert.Equal(t, 0, countFrames(fc))
}

func TestFrameCutterEmptyAndNil(t *testing.T) {
	assert.Equal(t, 0, countFrames(NewFrameCutter(nil, 2048, 512)))
	assert.Equal(t, 0, countFrames(NewPaddedFrameCutter(nil, 2048, 512)))
	assert.Equal(t, 0, countFrames(NewFrameCutter(ramp(10), 0, 512)))
}

func TestPaddedFrameCutter(t *testing.T) {
	fc := NewPaddedFrameCutter(ramp(100), 4096, 4096)
	frame, ok := fc.Next()
	assert.True(t, ok)
	assert.Len(t, frame, 4096)
	assert.Equal(t, 99.0, frame[99])
	assert.Equal(t, 0.0, frame[100])
	assert.Equal(t, 0.0, frame[4095])

	_, ok = fc.Next()
	assert.False(t, ok)

	assert.Equal(t, 1, countFrames(NewPaddedFrameCutter(ramp(4096), 4096, 4096)))
	assert.Equal(t, 2, countFrames(NewPaddedFrameCutter(ramp(5000), 4096, 4096)))
}

func TestSelectMedian(t *testing.T) {
	assert.Equal(t, 0.0, SelectMedian(nil, UpperMedian))
	assert.Equal(t, 2.0, SelectMedian([]float64{3, 1, 2}, UpperMedian))
	assert.Equal(t, 2.0, SelectMedian([]float64{3, 1, 2}, LowerMedian))
	assert.Equal(t, 3.0, SelectMedian([]float64{4, 1, 3, 2}, UpperMedian))
	assert.Equal(t, 2.0, SelectMedian([]float64{4, 1, 3, 2}, LowerMedian))

	assert.Equal(t, LowerMedian, ParseMedianSelection("lower"))
	assert.Equal(t, UpperMedian, ParseMedianSelection("upper"))
}
