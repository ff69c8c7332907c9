package snapshot

import (
	"bytes"
	"image/color"
	"image/png"
	"testing"

	"github.com/PixPMusic/gopher-keys/internal/keyboard"
	"github.com/PixPMusic/gopher-keys/internal/layout"
	"github.com/PixPMusic/gopher-keys/internal/notes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	white  = color.RGBA{255, 255, 255, 255}
	black  = color.RGBA{0, 0, 0, 255}
	yellow = color.RGBA{255, 255, 0, 255}
	grey   = color.RGBA{128, 128, 128, 255}

	colours = keyboard.Colours{WhiteKey: white, BlackKey: black, Active: yellow, Border: grey}
)

func oneOctave(t *testing.T) *layout.Layout {
	t.Helper()
	l, err := layout.Build(1, notes.MustParse("C4"), 300, 120)
	require.NoError(t, err)
	return l
}

func centre(k layout.Key, y int) (int, int) {
	return int(k.Left + k.Width/2), y
}

func TestRenderColours(t *testing.T) {
	l := oneOctave(t)
	img, err := Render(l, colours, Options{Active: map[string]bool{"E4": true, "F#4": true}})
	require.NoError(t, err)

	assert.Equal(t, 300, img.Bounds().Dx())
	assert.Equal(t, 120, img.Bounds().Dy())

	c4, _ := l.Find("C4")
	assert.Equal(t, white, img.RGBAAt(centre(c4, 110)))

	cs4, _ := l.Find("C#4")
	assert.Equal(t, black, img.RGBAAt(centre(cs4, 40)))

	e4, _ := l.Find("E4")
	assert.Equal(t, yellow, img.RGBAAt(centre(e4, 110)))

	fs4, _ := l.Find("F#4")
	assert.Equal(t, yellow, img.RGBAAt(centre(fs4, 40)))

	// gap between C4 and D4 shows the border
	d4, _ := l.Find("D4")
	assert.Equal(t, grey, img.RGBAAt(int(d4.Left)-1, 110))
}

func TestRenderLabels(t *testing.T) {
	l := oneOctave(t)
	plain, err := Render(l, colours, Options{})
	require.NoError(t, err)
	labelled, err := Render(l, colours, Options{Labels: true})
	require.NoError(t, err)

	assert.NotEqual(t, plain.Pix, labelled.Pix)

	// labels stay off the black keys
	cs4, _ := l.Find("C#4")
	assert.Equal(t, black, labelled.RGBAAt(centre(cs4, 40)))
}

func TestWritePNG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePNG(&buf, oneOctave(t), colours, Options{Labels: true}))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 300, img.Bounds().Dx())
}

func TestRenderEmptySize(t *testing.T) {
	l, err := layout.Build(1, notes.MustParse("C4"), 0, 0)
	require.NoError(t, err)
	_, err = Render(l, colours, Options{})
	assert.Error(t, err)
}
