package boundary

import (
	"github.com/RyanBlaney/sonido-chroma/analysis"
)

// Record is the flat result handed across the C boundary.
// Chromagram holds BinCount*FrameCount values, bin-major: the value for
// (bin, frame) is Chromagram[bin*FrameCount + frame]. It is nil when either
// count is zero.
type Record struct {
	Key        string    `json:"key"`
	Duration   float32   `json:"duration"`
	Chromagram []float32 `json:"chromagram"`
	FrameCount int32     `json:"chroma_n_frames"`
	BinCount   int32     `json:"chroma_n_bins"`

	released bool
}

// Assemble flattens an analysis result into a Record
func Assemble(result *analysis.Result) *Record {
	if result == nil {
		return &Record{}
	}

	r := &Record{
		Key:      result.Key,
		Duration: float32(result.Duration),
	}

	if result.Chroma.IsEmpty() {
		return r
	}

	flat := result.Chroma.Flatten()
	r.Chromagram = make([]float32, len(flat))
	for i, v := range flat {
		r.Chromagram[i] = float32(v)
	}
	r.FrameCount = int32(result.Chroma.Frames())
	r.BinCount = int32(result.Chroma.Bins())

	return r
}

// At returns the chroma value for (bin, frame)
func (r *Record) At(bin, frame int) float32 {
	return r.Chromagram[bin*int(r.FrameCount)+frame]
}

// Release drops the record's buffers. Calling it more than once is a no-op.
func (r *Record) Release() {
	if r == nil || r.released {
		return
	}
	r.Key = ""
	r.Chromagram = nil
	r.FrameCount = 0
	r.BinCount = 0
	r.released = true
}

// Released reports whether Release has run
func (r *Record) Released() bool {
	return r.released
}
