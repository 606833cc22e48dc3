package common

import "sort"

// MedianSelection picks the middle element of an even-length window
type MedianSelection int

const (
	// UpperMedian selects sorted[n/2]
	UpperMedian MedianSelection = iota
	// LowerMedian selects sorted[(n-1)/2]
	LowerMedian
)

// ParseMedianSelection maps "upper"/"lower" to a MedianSelection
func ParseMedianSelection(name string) MedianSelection {
	if name == "lower" {
		return LowerMedian
	}
	return UpperMedian
}

// SelectMedian sorts window in place and returns its middle element.
// Odd lengths return the true median under both selections. An empty window returns 0.
func SelectMedian(window []float64, selection MedianSelection) float64 {
	n := len(window)
	if n == 0 {
		return 0
	}

	sort.Float64s(window)

	if selection == LowerMedian {
		return window[(n-1)/2]
	}
	return window[n/2]
}
