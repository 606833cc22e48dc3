package chroma

import "gonum.org/v1/gonum/floats"

// Matrix is an immutable bins x frames chroma matrix stored bin-major:
// the cell (bin, frame) lives at index bin*frames + frame.
// The zero Matrix is the empty matrix (0 bins, 0 frames).
type Matrix struct {
	bins   int
	frames int
	data   []float64
}

// NewMatrix returns a zero-filled matrix. Either dimension <= 0 yields the empty matrix.
func NewMatrix(bins, frames int) Matrix {
	if bins <= 0 || frames <= 0 {
		return Matrix{}
	}
	return Matrix{bins: bins, frames: frames, data: make([]float64, bins*frames)}
}

// NewMatrixFromFrames transposes frame-major vectors (one per frame) into a
// bin-major matrix. No frames, or zero-width frames, give the empty matrix.
// Every vector must have the width of the first.
func NewMatrixFromFrames(vectors [][]float64) Matrix {
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return Matrix{}
	}

	m := NewMatrix(len(vectors[0]), len(vectors))
	for f, vec := range vectors {
		if len(vec) != m.bins {
			panic("chroma: ragged frame vectors")
		}
		for b, v := range vec {
			m.data[b*m.frames+f] = v
		}
	}
	return m
}

// NewMatrixFromRows builds a matrix from bin-major rows of equal length
func NewMatrixFromRows(rows [][]float64) Matrix {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return Matrix{}
	}

	m := NewMatrix(len(rows), len(rows[0]))
	for b, row := range rows {
		if len(row) != m.frames {
			panic("chroma: ragged rows")
		}
		copy(m.data[b*m.frames:], row)
	}
	return m
}

func (m Matrix) Bins() int {
	return m.bins
}

func (m Matrix) Frames() int {
	return m.frames
}

// IsEmpty reports whether the matrix has no cells
func (m Matrix) IsEmpty() bool {
	return m.bins == 0 || m.frames == 0
}

// At returns the cell at (bin, frame)
func (m Matrix) At(bin, frame int) float64 {
	return m.data[bin*m.frames+frame]
}

// Row returns a copy of one bin's values across all frames
func (m Matrix) Row(bin int) []float64 {
	row := make([]float64, m.frames)
	copy(row, m.data[bin*m.frames:(bin+1)*m.frames])
	return row
}

// Column returns a copy of one frame's values across all bins
func (m Matrix) Column(frame int) []float64 {
	col := make([]float64, m.bins)
	for b := range col {
		col[b] = m.data[b*m.frames+frame]
	}
	return col
}

// Rows returns a bin-major copy as nested slices
func (m Matrix) Rows() [][]float64 {
	rows := make([][]float64, m.bins)
	for b := range rows {
		rows[b] = m.Row(b)
	}
	return rows
}

// Flatten returns a copy of the bin-major cells, or nil for the empty matrix
func (m Matrix) Flatten() []float64 {
	if m.IsEmpty() {
		return nil
	}
	out := make([]float64, len(m.data))
	copy(out, m.data)
	return out
}

// Max returns the largest cell; 0 for the empty matrix
func (m Matrix) Max() float64 {
	if m.IsEmpty() {
		return 0
	}
	return floats.Max(m.data)
}

func (m Matrix) clone() Matrix {
	if m.IsEmpty() {
		return Matrix{}
	}
	c := Matrix{bins: m.bins, frames: m.frames, data: make([]float64, len(m.data))}
	copy(c.data, m.data)
	return c
}
