package common

// FrameCutter walks a finite buffer in fixed-size overlapping frames.
// Frames start at offset 0 and advance by hopSize. Only full frames are emitted:
// a trailing remainder shorter than frameSize is dropped unless padding is enabled,
// in which case one zero-padded frame is emitted for it.
//
// A FrameCutter is single-pass. Once Next reports false it stays exhausted.
type FrameCutter struct {
	signal    []float64
	frameSize int
	hopSize   int
	pos       int
	padLast   bool
	done      bool
	buffer    []float64
}

// NewFrameCutter creates a cutter emitting full frames only
func NewFrameCutter(signal []float64, frameSize, hopSize int) *FrameCutter {
	return &FrameCutter{
		signal:    signal,
		frameSize: frameSize,
		hopSize:   hopSize,
		buffer:    make([]float64, frameSize),
	}
}

// NewPaddedFrameCutter creates a cutter that also emits the trailing partial frame, zero padded
func NewPaddedFrameCutter(signal []float64, frameSize, hopSize int) *FrameCutter {
	fc := NewFrameCutter(signal, frameSize, hopSize)
	fc.padLast = true
	return fc
}

// Next returns the next frame. The returned slice is owned by the cutter and
// is overwritten by the following call; copy it to retain it.
func (fc *FrameCutter) Next() ([]float64, bool) {
	if fc.done || fc.frameSize <= 0 || fc.hopSize <= 0 {
		fc.done = true
		return nil, false
	}

	remaining := len(fc.signal) - fc.pos
	switch {
	case remaining >= fc.frameSize:
		copy(fc.buffer, fc.signal[fc.pos:fc.pos+fc.frameSize])
	case fc.padLast && remaining > 0:
		n := copy(fc.buffer, fc.signal[fc.pos:])
		clear(fc.buffer[n:])
		// A padded frame is always the last one
		fc.done = true
		return fc.buffer, true
	default:
		fc.done = true
		return nil, false
	}

	fc.pos += fc.hopSize
	if fc.padLast && fc.pos >= len(fc.signal) {
		fc.done = true
	}

	return fc.buffer, true
}

// FrameSize returns the frame length
func (fc *FrameCutter) FrameSize() int {
	return fc.frameSize
}

// HopSize returns the frame advance
func (fc *FrameCutter) HopSize() int {
	return fc.hopSize
}

// FrameCount returns how many full frames a buffer of the given length yields:
// floor((length - frameSize) / hopSize) + 1, or 0 when length < frameSize.
func FrameCount(length, frameSize, hopSize int) int {
	if frameSize <= 0 || hopSize <= 0 || length < frameSize {
		return 0
	}
	return (length-frameSize)/hopSize + 1
}
