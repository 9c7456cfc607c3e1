// Package capture grabs screenshots of session displays over the X protocol.
package capture

import (
	"fmt"
	"image"
	"image/png"
	"os"

	"github.com/Alex-deVis/xControl/internal/geometry"
	"github.com/Alex-deVis/xControl/internal/x11"
)

// Grabber captures regions of a display. Each capture opens a fresh
// connection, so a display that restarted since the last call still works.
type Grabber struct{}

// Capture returns the pixels of a region of the display as RGBA.
func (Grabber) Capture(display string, region geometry.Region) (*image.RGBA, error) {
	conn, err := x11.Connect(display)
	if err != nil {
		return nil, err
	}
	defer conn.Close()
	return conn.CaptureRegion(region.Origin.X, region.Origin.Y, region.Width, region.Height)
}

// WritePNG encodes img to a file at path.
func WritePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}
