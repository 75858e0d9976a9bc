// Package render draws recognition results onto frames.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/kozaktomas/attendance-tracker/internal/attendance"
	"github.com/kozaktomas/attendance-tracker/internal/facematch"
)

var (
	colorKnown   = color.RGBA{0, 255, 0, 255}
	colorUnknown = color.RGBA{255, 0, 0, 255}
	colorLabel   = color.RGBA{255, 255, 255, 255}
)

const (
	boxLineWidth = 2
	labelInset   = 6
)

// Face is a detected region together with its recognition outcome.
type Face struct {
	Region image.Rectangle
	Result facematch.MatchResult
}

// Label returns the display text for a result, e.g. "Alice (87.43%)".
func Label(result facematch.MatchResult) string {
	if !result.IsKnown() {
		return result.DisplayName()
	}
	return fmt.Sprintf("%s (%s)", result.Name, attendance.FormatConfidence(result.Confidence))
}

// Annotate returns a copy of img with a box and label per face and a face count
// in the top left corner.
func Annotate(img image.Image, faces []Face) *image.RGBA {
	bounds := img.Bounds()
	dst := image.NewRGBA(bounds)
	draw.Draw(dst, bounds, img, bounds.Min, draw.Src)

	for _, f := range faces {
		c := colorUnknown
		if f.Result.IsKnown() {
			c = colorKnown
		}
		r := f.Region.Add(bounds.Min)
		drawBox(dst, r, boxLineWidth, c)
		drawText(dst, r.Min.X+labelInset, r.Max.Y-labelInset, Label(f.Result), colorLabel)
	}

	drawText(dst, bounds.Min.X+10, bounds.Min.Y+30, fmt.Sprintf("Faces: %d", len(faces)), colorKnown)
	return dst
}

func drawBox(dst *image.RGBA, r image.Rectangle, lineWidth int, c color.RGBA) {
	for w := range lineWidth {
		drawHLine(dst, r.Min.X, r.Max.X, r.Min.Y+w, c)
		drawHLine(dst, r.Min.X, r.Max.X, r.Max.Y-w, c)
		drawVLine(dst, r.Min.Y, r.Max.Y, r.Min.X+w, c)
		drawVLine(dst, r.Min.Y, r.Max.Y, r.Max.X-w, c)
	}
}

func drawHLine(dst *image.RGBA, x1, x2, y int, c color.RGBA) {
	bounds := dst.Bounds()
	if y < bounds.Min.Y || y >= bounds.Max.Y {
		return
	}
	for x := max(x1, bounds.Min.X); x <= x2 && x < bounds.Max.X; x++ {
		dst.SetRGBA(x, y, c)
	}
}

func drawVLine(dst *image.RGBA, y1, y2, x int, c color.RGBA) {
	bounds := dst.Bounds()
	if x < bounds.Min.X || x >= bounds.Max.X {
		return
	}
	for y := max(y1, bounds.Min.Y); y <= y2 && y < bounds.Max.Y; y++ {
		dst.SetRGBA(x, y, c)
	}
}

// drawText writes s with its baseline at (x, y).
func drawText(dst *image.RGBA, x, y int, s string, c color.RGBA) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}
