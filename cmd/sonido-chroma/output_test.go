package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBinLabel(t *testing.T) {
	assert.Equal(t, "00 C", binLabel(0, 12))
	assert.Equal(t, "09 A", binLabel(9, 12))
	assert.Equal(t, "19 A.1", binLabel(19, 24))
}

func TestFormatRow(t *testing.T) {
	assert.Equal(t, "0.00 0.50 1.00", formatRow([]float64{0, 0.5, 1}))
	assert.Equal(t, "", formatRow(nil))
}

func TestDisplayKey(t *testing.T) {
	assert.Equal(t, "(none)", displayKey(""))
	assert.Equal(t, "A minor", displayKey("A minor"))
}
