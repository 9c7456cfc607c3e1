// Package match locates a template image inside a screenshot.
//
// Similarity is one minus the mean absolute pixel difference across the red,
// green and blue channels, normalized to [0, 1]. A score of 1 means the
// template matches the region exactly.
package match

import (
	"fmt"
	"image"
	"image/draw"
	"os"

	_ "image/jpeg"
	_ "image/png"

	"github.com/Alex-deVis/xControl/internal/geometry"
)

// DefaultConfidence is the similarity a placement must reach to count as a
// match when the caller does not set a threshold.
const DefaultConfidence = 0.7

// Result describes the best placement of a template inside a screenshot.
// Location is the top-left corner of the placement. When Found is false the
// fields still describe the closest candidate, except for templates larger
// than the screenshot, where no placement exists at all.
type Result struct {
	Found      bool
	Confidence float64
	Location   geometry.Point
}

// FindTemplate scans haystack row by row for the placement of needle with
// the highest similarity. Ties keep the earliest placement in scan order.
// A needle wider or taller than the haystack cannot match anywhere and
// yields a zero Result.
func FindTemplate(haystack, needle image.Image, confidence float64) Result {
	if confidence <= 0 {
		confidence = DefaultConfidence
	}
	hay := toRGBA(haystack)
	tpl := toRGBA(needle)

	hw, hh := hay.Rect.Dx(), hay.Rect.Dy()
	tw, th := tpl.Rect.Dx(), tpl.Rect.Dy()
	if tw == 0 || th == 0 || tw > hw || th > hh {
		return Result{}
	}

	denom := float64(tw * th * 3 * 255)
	best := Result{Confidence: -1}
	for y := 0; y <= hh-th; y++ {
		for x := 0; x <= hw-tw; x++ {
			sim := 1 - float64(diffAt(hay, tpl, x, y, tw, th))/denom
			if sim > best.Confidence {
				best.Confidence = sim
				best.Location = geometry.Point{X: x, Y: y}
			}
		}
	}
	best.Found = best.Confidence >= confidence
	return best
}

// diffAt sums the absolute RGB differences between the template and the
// haystack region whose top-left corner is at (ox, oy).
func diffAt(hay, tpl *image.RGBA, ox, oy, tw, th int) uint64 {
	var sum uint64
	for y := 0; y < th; y++ {
		hi := hay.PixOffset(hay.Rect.Min.X+ox, hay.Rect.Min.Y+oy+y)
		ti := tpl.PixOffset(tpl.Rect.Min.X, tpl.Rect.Min.Y+y)
		for x := 0; x < tw; x++ {
			sum += absDiff(hay.Pix[hi], tpl.Pix[ti])
			sum += absDiff(hay.Pix[hi+1], tpl.Pix[ti+1])
			sum += absDiff(hay.Pix[hi+2], tpl.Pix[ti+2])
			hi += 4
			ti += 4
		}
	}
	return sum
}

func absDiff(a, b uint8) uint64 {
	if a > b {
		return uint64(a - b)
	}
	return uint64(b - a)
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	b := img.Bounds()
	out := image.NewRGBA(b)
	draw.Draw(out, b, img, b.Min, draw.Src)
	return out
}

// LoadImage reads a template image from disk. PNG and JPEG are supported.
func LoadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open template: %w", err)
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode template %s: %w", path, err)
	}
	return img, nil
}
