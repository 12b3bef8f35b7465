package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDuplicateFrame(t *testing.T) {
	assert.True(t, duplicateFrame("d41d8cd9", "d41d8cd9"))
	assert.False(t, duplicateFrame("d41d8cd9", "9e107d9d"))
	assert.False(t, duplicateFrame("", "9e107d9d"))

	// Unreadable frames are never skipped, however many arrive in a row.
	assert.False(t, duplicateFrame("", ""))
}
