package ocr

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
)

const (
	// foreground and background values of the binarized image.
	fgGray = 0
	bgGray = 255

	// whitePadding is the border added around the cropped glyphs so the
	// engine never sees text touching an edge.
	whitePadding = 15

	// upscaleFactor enlarges glyphs rendered at UI size to something the
	// engine recognizes reliably.
	upscaleFactor = 2.5
)

// Prepare runs the full preprocessing pipeline: binarize by color range,
// crop to the glyph bounding box, pad with a white border, upscale, then
// smooth the staircase artifacts with a morphological close and a light
// blur.
func Prepare(img image.Image, r ColorRange) *image.Gray {
	g := Binarize(img, r)
	g = cropToForeground(g)
	g = padWhite(g, whitePadding)
	g = upscale(g)
	g = erode(g)
	g = dilate(g)
	return gaussian(g)
}

// Binarize maps img to grayscale with foreground pixels black and all
// other pixels white.
func Binarize(img image.Image, r ColorRange) *image.Gray {
	b := img.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))

	if rgba, ok := img.(*image.RGBA); ok {
		for y := 0; y < b.Dy(); y++ {
			src := rgba.PixOffset(b.Min.X, b.Min.Y+y)
			dst := out.PixOffset(0, y)
			for x := 0; x < b.Dx(); x++ {
				out.Pix[dst] = bgGray
				if r.contains(rgba.Pix[src], rgba.Pix[src+1], rgba.Pix[src+2]) {
					out.Pix[dst] = fgGray
				}
				src += 4
				dst++
			}
		}
		return out
	}

	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			c := color.RGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.RGBA)
			v := uint8(bgGray)
			if r.contains(c.R, c.G, c.B) {
				v = fgGray
			}
			out.SetGray(x, y, color.Gray{Y: v})
		}
	}
	return out
}

// cropToForeground trims rows and columns that contain no foreground off
// the edges. An image without any foreground is returned unchanged.
func cropToForeground(img *image.Gray) *image.Gray {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	minX, minY := w, h
	maxX, maxY := -1, -1
	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+w]
		for x, v := range row {
			if v != fgGray {
				continue
			}
			if x < minX {
				minX = x
			}
			if x > maxX {
				maxX = x
			}
			if y < minY {
				minY = y
			}
			if y > maxY {
				maxY = y
			}
		}
	}
	if maxX < 0 {
		return img
	}

	cw, ch := maxX-minX+1, maxY-minY+1
	out := image.NewGray(image.Rect(0, 0, cw, ch))
	for y := 0; y < ch; y++ {
		src := (minY+y)*img.Stride + minX
		copy(out.Pix[y*out.Stride:y*out.Stride+cw], img.Pix[src:src+cw])
	}
	return out
}

// padWhite adds a uniform white border of px pixels on every side.
func padWhite(img *image.Gray, px int) *image.Gray {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	out := image.NewGray(image.Rect(0, 0, w+2*px, h+2*px))
	for i := range out.Pix {
		out.Pix[i] = bgGray
	}
	for y := 0; y < h; y++ {
		copy(out.Pix[(y+px)*out.Stride+px:(y+px)*out.Stride+px+w], img.Pix[y*img.Stride:y*img.Stride+w])
	}
	return out
}

// upscale enlarges the image by upscaleFactor with bilinear interpolation.
func upscale(img *image.Gray) *image.Gray {
	w := int(math.Round(float64(img.Rect.Dx()) * upscaleFactor))
	h := int(math.Round(float64(img.Rect.Dy()) * upscaleFactor))
	out := image.NewGray(image.Rect(0, 0, w, h))
	draw.BiLinear.Scale(out, out.Rect, img, img.Rect, draw.Src, nil)
	return out
}

// erode replaces every pixel with the minimum of its 3x3 neighborhood,
// thickening dark glyph strokes.
func erode(img *image.Gray) *image.Gray {
	return neighborhood3x3(img, func(a, b uint8) uint8 {
		if b < a {
			return b
		}
		return a
	})
}

// dilate replaces every pixel with the maximum of its 3x3 neighborhood,
// thinning dark strokes back after an erode.
func dilate(img *image.Gray) *image.Gray {
	return neighborhood3x3(img, func(a, b uint8) uint8 {
		if b > a {
			return b
		}
		return a
	})
}

// neighborhood3x3 applies pick across each pixel's 3x3 neighborhood with
// edges clamped.
func neighborhood3x3(img *image.Gray, pick func(a, b uint8) uint8) *image.Gray {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := img.Pix[y*img.Stride+x]
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					nx := clampInt(x+dx, 0, w-1)
					ny := clampInt(y+dy, 0, h-1)
					v = pick(v, img.Pix[ny*img.Stride+nx])
				}
			}
			out.Pix[y*out.Stride+x] = v
		}
	}
	return out
}

// gaussian applies a fixed 3x3 binomial blur with edges clamped.
func gaussian(img *image.Gray) *image.Gray {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var sum int
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					nx := clampInt(x+dx, 0, w-1)
					ny := clampInt(y+dy, 0, h-1)
					weight := (2 - absInt(dx)) * (2 - absInt(dy))
					sum += weight * int(img.Pix[ny*img.Stride+nx])
				}
			}
			out.Pix[y*out.Stride+x] = uint8((sum + 8) / 16)
		}
	}
	return out
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
