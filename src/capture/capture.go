package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"log"
	"math"

	"github.com/disintegration/imaging"

	"region-ocr/src/geometry"
)

var (
	// ErrNoSelection is returned when a capture is requested without a usable rectangle.
	ErrNoSelection = errors.New("no region selected")
	// ErrCaptureFailed wraps renderer and encoding failures.
	ErrCaptureFailed = errors.New("capture failed")
)

// Renderer produces a bitmap of the whole document at device resolution.
type Renderer interface {
	Render(ctx context.Context) (image.Image, error)
}

// RendererFunc adapts a function to the Renderer interface.
type RendererFunc func(ctx context.Context) (image.Image, error)

func (f RendererFunc) Render(ctx context.Context) (image.Image, error) { return f(ctx) }

// Region is the request handed to the engine: a document rectangle and the
// device pixel ratio it was selected under.
type Region struct {
	Rect geometry.Rect
	DPR  float64
}

// Capture is a cropped bitmap sized in logical (CSS-equivalent) pixels.
type Capture struct {
	Region Region
	// Source is the device-pixel rectangle that was sampled, before clipping.
	Source image.Rectangle
	Image  *image.NRGBA
}

// PNG encodes the capture for hand-off to a recognizer.
func (c *Capture) PNG() ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, c.Image, imaging.PNG); err != nil {
		return nil, fmt.Errorf("%w: encode png: %w", ErrCaptureFailed, err)
	}
	return buf.Bytes(), nil
}

// Engine crops regions out of freshly rendered documents.
type Engine struct {
	renderer Renderer
	// DebugImages saves every capture next to the working directory.
	DebugImages bool
}

func NewEngine(renderer Renderer) *Engine {
	return &Engine{renderer: renderer}
}

// CaptureRegion renders the document and returns exactly the selected region.
func (e *Engine) CaptureRegion(ctx context.Context, region Region) (*Capture, error) {
	if region.Rect.Empty() {
		return nil, ErrNoSelection
	}
	region.DPR = geometry.NormalizeDPR(region.DPR)

	src, err := e.renderer.Render(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: render: %w", ErrCaptureFailed, err)
	}
	if src == nil {
		return nil, fmt.Errorf("%w: renderer returned no image", ErrCaptureFailed)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	want := geometry.ToDevicePixels(region.Rect, region.DPR).Bounds().Add(src.Bounds().Min)
	out := Crop(src, want, region.Rect, region.DPR)

	log.Printf("capture: rect=%+v dpr=%.2f source=%v output=%dx%d",
		region.Rect, region.DPR, want, out.Bounds().Dx(), out.Bounds().Dy())

	c := &Capture{Region: region, Source: want, Image: out}
	if e.DebugImages {
		saveDebug(c)
	}
	return c, nil
}

// Crop samples want (device pixels, in src coordinates) into a transparent
// canvas of rect's logical size. Parts of want outside src stay transparent.
func Crop(src image.Image, want image.Rectangle, rect geometry.Rect, dpr float64) *image.NRGBA {
	dpr = geometry.NormalizeDPR(dpr)
	dst := imaging.New(atLeastOne(rect.Width), atLeastOne(rect.Height), color.Transparent)

	inter := want.Intersect(src.Bounds())
	if inter.Empty() {
		return dst
	}

	part := imaging.Crop(src, inter)
	w := atLeastOne(float64(inter.Dx()) / dpr)
	h := atLeastOne(float64(inter.Dy()) / dpr)
	if w != part.Bounds().Dx() || h != part.Bounds().Dy() {
		part = imaging.Resize(part, w, h, imaging.Lanczos)
	}

	offset := image.Pt(
		int(math.Round(float64(inter.Min.X-want.Min.X)/dpr)),
		int(math.Round(float64(inter.Min.Y-want.Min.Y)/dpr)),
	)
	return imaging.Paste(dst, part, offset)
}

func atLeastOne(v float64) int {
	n := int(math.Round(v))
	if n < 1 {
		return 1
	}
	return n
}

func saveDebug(c *Capture) {
	name := fmt.Sprintf("debug_captured_region_%dx%d.png", c.Image.Bounds().Dx(), c.Image.Bounds().Dy())
	if err := imaging.Save(c.Image, name); err != nil {
		log.Printf("Warning: Could not save debug image: %v", err)
		return
	}
	log.Printf("DEBUG: Saved captured region to %s", name)
}

// FileRenderer renders by decoding an image file. The file is treated as a
// document already rasterized at device resolution.
func FileRenderer(path string) Renderer {
	return RendererFunc(func(ctx context.Context) (image.Image, error) {
		img, err := imaging.Open(path, imaging.AutoOrientation(true))
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", path, err)
		}
		return img, nil
	})
}
