// Package snapshot renders a keyboard layout to a PNG image.
package snapshot

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"

	"github.com/PixPMusic/gopher-keys/internal/keyboard"
	"github.com/PixPMusic/gopher-keys/internal/label"
	"github.com/PixPMusic/gopher-keys/internal/layout"
	"github.com/golang/freetype/truetype"
)

// Options for Render. A nil Font uses Go Regular.
type Options struct {
	Active map[string]bool // note ids drawn in the active colour
	Labels bool            // print note ids on white keys
	Font   *truetype.Font
}

// Render draws l with colours c
func Render(l *layout.Layout, c keyboard.Colours, opts Options) (*image.RGBA, error) {
	w, h := size(l)
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("cannot render a %dx%d keyboard", w, h)
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(c.Border), image.Point{}, draw.Src)

	f := opts.Font
	if opts.Labels && f == nil {
		var err error
		if f, err = label.Regular(); err != nil {
			return nil, err
		}
	}

	fill := func(k layout.Key) color.RGBA {
		if opts.Active[k.NoteID] {
			return c.Active
		}
		return c.Resting(k.Colour)
	}

	for _, k := range l.WhiteKeys() {
		r := keyRect(k, h)
		draw.Draw(img, r, image.NewUniform(fill(k)), image.Point{}, draw.Src)
		if opts.Labels {
			if err := drawLabel(img, f, k.NoteID, r, c.Resting(layout.Black)); err != nil {
				return nil, err
			}
		}
	}

	bh := int(math.Round(l.BlackKeyHeight))
	for _, k := range l.BlackKeys() {
		outer := keyRect(k, bh)
		draw.Draw(img, outer, image.NewUniform(c.Border), image.Point{}, draw.Src)
		inner := image.Rect(outer.Min.X+1, outer.Min.Y, outer.Max.X-1, outer.Max.Y-1)
		if !inner.Empty() {
			draw.Draw(img, inner, image.NewUniform(fill(k)), image.Point{}, draw.Src)
		}
	}
	return img, nil
}

// WritePNG renders l and encodes it as PNG to w
func WritePNG(w io.Writer, l *layout.Layout, c keyboard.Colours, opts Options) error {
	img, err := Render(l, c, opts)
	if err != nil {
		return err
	}
	return png.Encode(w, img)
}

func size(l *layout.Layout) (int, int) {
	w := int(math.Round(l.Width))
	if whites := l.WhiteKeys(); len(whites) > 0 {
		last := whites[len(whites)-1]
		if right := int(last.Left + last.Width); right > w {
			w = right
		}
	}
	return w, int(math.Round(l.Height))
}

func keyRect(k layout.Key, height int) image.Rectangle {
	x := int(k.Left)
	return image.Rect(x, 0, x+int(k.Width), height)
}

// drawLabel centres text near the bottom of r when it fits
func drawLabel(dst *image.RGBA, f *truetype.Font, text string, r image.Rectangle, ink color.Color) error {
	s := label.DefaultStyle()
	s.Colour = ink
	s.Size = math.Min(12, float64(r.Dx())/3)
	if s.Size < 5 {
		return nil
	}
	img, err := label.Render(f, text, s)
	if err != nil {
		return err
	}
	b := img.Bounds()
	if b.Dx() > r.Dx() || b.Dy() > r.Dy() {
		return nil
	}
	at := image.Pt(r.Min.X+(r.Dx()-b.Dx())/2, r.Max.Y-b.Dy()-2)
	draw.Draw(dst, b.Add(at), img, image.Point{}, draw.Over)
	return nil
}
