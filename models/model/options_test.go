package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLayout(t *testing.T) {
	tests := []struct {
		in       string
		expected Layout
		wantErr  bool
	}{
		{"", LayoutNHWC, false},
		{"nhwc", LayoutNHWC, false},
		{"NCHW", LayoutNCHW, false},
		{" nchw ", LayoutNCHW, false},
		{"chw", "", true},
	}

	for _, tt := range tests {
		got, err := ParseLayout(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.expected, got)
	}
}

func TestLayoutShape(t *testing.T) {
	assert.Equal(t, []int64{1, 240, 320, 3}, LayoutNHWC.Shape(320, 240))
	assert.Equal(t, []int64{1, 3, 240, 320}, LayoutNCHW.Shape(320, 240))
}
