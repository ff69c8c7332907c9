// Package label rasterises short strings such as note names with freetype.
package label

import (
	"image"
	"image/color"
	"sync"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font/gofont/goregular"
)

// Style controls how a label is drawn
type Style struct {
	Size    float64 // points
	DPI     float64
	Colour  color.Color
	Padding int
	Rotate  bool // 90 degrees counter-clockwise, reading bottom to top
}

// DefaultStyle is 12pt black text at 72 DPI
func DefaultStyle() Style {
	return Style{Size: 12, DPI: 72, Colour: color.Black, Padding: 2}
}

var (
	regularOnce sync.Once
	regular     *truetype.Font
	regularErr  error
)

// Regular returns the Go Regular font
func Regular() (*truetype.Font, error) {
	regularOnce.Do(func() {
		regular, regularErr = freetype.ParseFont(goregular.TTF)
	})
	return regular, regularErr
}

// Parse reads a TrueType font
func Parse(ttf []byte) (*truetype.Font, error) {
	return freetype.ParseFont(ttf)
}

// Render draws text on a transparent image just large enough to hold it
func Render(f *truetype.Font, text string, s Style) (*image.RGBA, error) {
	if s.Size <= 0 {
		s.Size = 12
	}
	if s.DPI <= 0 {
		s.DPI = 72
	}
	if s.Colour == nil {
		s.Colour = color.Black
	}

	face := truetype.NewFace(f, &truetype.Options{Size: s.Size, DPI: s.DPI})
	defer face.Close()

	textWidth := 0
	for _, r := range text {
		if adv, ok := face.GlyphAdvance(r); ok {
			textWidth += adv.Round()
		}
	}
	metrics := face.Metrics()
	textHeight := (metrics.Ascent + metrics.Descent).Ceil()
	ascent := metrics.Ascent.Ceil()

	w := textWidth + s.Padding*2
	h := textHeight + s.Padding*2
	img := image.NewRGBA(image.Rect(0, 0, w, h))

	c := freetype.NewContext()
	c.SetFont(f)
	c.SetFontSize(s.Size)
	c.SetDPI(s.DPI)
	c.SetClip(img.Bounds())
	c.SetDst(img)
	c.SetSrc(image.NewUniform(s.Colour))

	if _, err := c.DrawString(text, freetype.Pt(s.Padding, s.Padding+ascent)); err != nil {
		return nil, err
	}

	if !s.Rotate {
		return img, nil
	}

	// (x, y) -> (y, w-1-x)
	rotated := image.NewRGBA(image.Rect(0, 0, h, w))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			rotated.Set(y, w-1-x, img.At(x, y))
		}
	}
	return rotated, nil
}
