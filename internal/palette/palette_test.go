package palette

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want color.RGBA
	}{
		{"#fff", color.RGBA{255, 255, 255, 255}},
		{"#000", color.RGBA{0, 0, 0, 255}},
		{"#333", color.RGBA{51, 51, 51, 255}},
		{"#ff8000", color.RGBA{255, 128, 0, 255}},
		{"#ff800080", color.RGBA{255, 128, 0, 128}},
		{"yellow", color.RGBA{255, 255, 0, 255}},
		{"Red", color.RGBA{255, 0, 0, 255}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseErrors(t *testing.T) {
	for _, in := range []string{"", "#ff", "#ggg", "not-a-colour"} {
		_, err := Parse(in)
		assert.Error(t, err, in)
	}
}

func TestHex(t *testing.T) {
	assert.Equal(t, "#ffff00", Hex(MustParse("yellow")))
	assert.Equal(t, "#333333", Hex(MustParse("#333")))
}
