package x11

import (
	"fmt"
	"image"

	"github.com/BurntSushi/xgb/xproto"
)

// CaptureRegion grabs a rectangular area of the root window as an RGBA image.
// The caller is responsible for keeping the region inside the screen; the X
// server rejects out-of-bounds requests with a Match error.
func (c *Connection) CaptureRegion(x, y, width, height int) (*image.RGBA, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("capture region %dx%d has no area", width, height)
	}

	reply, err := xproto.GetImage(
		c.XUtil.Conn(),
		xproto.ImageFormatZPixmap,
		xproto.Drawable(c.Root),
		int16(x), int16(y),
		uint16(width), uint16(height),
		0xffffffff,
	).Reply()
	if err != nil {
		return nil, fmt.Errorf("GetImage on %s failed: %w", c.Display, err)
	}

	// ZPixmap data for 24- and 32-bit visuals is 4 bytes per pixel in
	// BGRX order.
	expected := width * height * 4
	if len(reply.Data) < expected {
		return nil, fmt.Errorf("GetImage returned %d bytes for %dx%d (depth %d), expected %d",
			len(reply.Data), width, height, reply.Depth, expected)
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for i := 0; i < width*height; i++ {
		src := i * 4
		dst := i * 4
		img.Pix[dst+0] = reply.Data[src+2]
		img.Pix[dst+1] = reply.Data[src+1]
		img.Pix[dst+2] = reply.Data[src+0]
		img.Pix[dst+3] = 0xff
	}
	return img, nil
}
