package screenshot

import (
	"context"
	"fmt"
	"image"

	"github.com/kbinani/screenshot"

	"region-ocr/src/capture"
)

// VirtualBounds returns the union of all active display bounds in physical pixels.
func VirtualBounds() (image.Rectangle, error) {
	n := screenshot.NumActiveDisplays()
	if n == 0 {
		return image.Rectangle{}, fmt.Errorf("no active displays found")
	}
	union := screenshot.GetDisplayBounds(0)
	for i := 1; i < n; i++ {
		union = union.Union(screenshot.GetDisplayBounds(i))
	}
	return union, nil
}

// Capture captures the entire virtual screen across all active displays.
func Capture() (*image.RGBA, error) {
	union, err := VirtualBounds()
	if err != nil {
		return nil, err
	}
	img, err := screenshot.CaptureRect(union)
	if err != nil {
		return nil, fmt.Errorf("failed to capture screen: %w", err)
	}
	return img, nil
}

// Snapshot is a frozen copy of the desktop. The overlay displays it as the
// document the user selects on, and capture renders from it, so the pixels
// that are cropped are the ones the user saw.
type Snapshot struct {
	Image *image.RGBA
}

// TakeSnapshot freezes the current desktop.
func TakeSnapshot() (*Snapshot, error) {
	img, err := Capture()
	if err != nil {
		return nil, err
	}
	return &Snapshot{Image: img}, nil
}

// Size is the snapshot size in physical pixels.
func (s *Snapshot) Size() image.Point {
	return s.Image.Bounds().Size()
}

func (s *Snapshot) Render(ctx context.Context) (image.Image, error) {
	if s == nil || s.Image == nil {
		return nil, fmt.Errorf("no snapshot")
	}
	return s.Image, ctx.Err()
}

// Desktop renders by capturing the live desktop on every call.
func Desktop() capture.Renderer {
	return capture.RendererFunc(func(ctx context.Context) (image.Image, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return Capture()
	})
}
