package geometry

import (
	"image"
	"math"
)

// DefaultDPR is used whenever the device pixel ratio is unknown or unusable.
const DefaultDPR = 1.0

// Point is a position in either viewport or document space.
type Point struct {
	X float64
	Y float64
}

// Rect is a selection rectangle in document coordinates.
// Width and Height are never negative once produced by Normalize.
type Rect struct {
	Left   float64
	Top    float64
	Width  float64
	Height float64
}

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// DeviceRect is a sampling rectangle in device (physical) pixels.
type DeviceRect struct {
	X float64
	Y float64
	W float64
	H float64
}

// Bounds rounds the device rectangle to whole pixels.
func (d DeviceRect) Bounds() image.Rectangle {
	x0 := int(math.Round(d.X))
	y0 := int(math.Round(d.Y))
	return image.Rect(x0, y0, x0+int(math.Round(d.W)), y0+int(math.Round(d.H)))
}

// ToDocument offsets a viewport position by the current scroll offset.
func ToDocument(viewport, scroll Point) Point {
	return Point{X: viewport.X + scroll.X, Y: viewport.Y + scroll.Y}
}

// Normalize builds the rectangle spanned by two corners, whatever the drag direction.
func Normalize(a, b Point) Rect {
	return Rect{
		Left:   math.Min(a.X, b.X),
		Top:    math.Min(a.Y, b.Y),
		Width:  math.Abs(b.X - a.X),
		Height: math.Abs(b.Y - a.Y),
	}
}

// NormalizeDPR returns dpr, or DefaultDPR when dpr is not a positive finite number.
func NormalizeDPR(dpr float64) float64 {
	if dpr <= 0 || math.IsNaN(dpr) || math.IsInf(dpr, 0) {
		return DefaultDPR
	}
	return dpr
}

// ToDevicePixels scales a document rectangle component-wise by the device pixel ratio.
// Renderers produce bitmaps at device resolution, so every crop must sample through this.
func ToDevicePixels(r Rect, dpr float64) DeviceRect {
	dpr = NormalizeDPR(dpr)
	return DeviceRect{
		X: r.Left * dpr,
		Y: r.Top * dpr,
		W: r.Width * dpr,
		H: r.Height * dpr,
	}
}
