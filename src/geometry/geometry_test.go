package geometry

import (
	"image"
	"math"
	"testing"
)

func TestNormalizeAnyDirection(t *testing.T) {
	tests := []struct {
		name string
		a, b Point
	}{
		{"down-right", Point{10, 20}, Point{110, 70}},
		{"up-left", Point{110, 70}, Point{10, 20}},
		{"down-left", Point{110, 20}, Point{10, 70}},
		{"up-right", Point{10, 70}, Point{110, 20}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Normalize(tt.a, tt.b)
			want := Rect{Left: 10, Top: 20, Width: 100, Height: 50}
			if r != want {
				t.Errorf("Normalize(%v, %v) = %+v, want %+v", tt.a, tt.b, r, want)
			}
			if r.Width < 0 || r.Height < 0 {
				t.Errorf("negative size: %+v", r)
			}
		})
	}
}

func TestNormalizeSamePointIsEmpty(t *testing.T) {
	r := Normalize(Point{5, 5}, Point{5, 5})
	if !r.Empty() {
		t.Fatalf("expected empty rect, got %+v", r)
	}
}

func TestToDocumentAddsScroll(t *testing.T) {
	got := ToDocument(Point{100, 100}, Point{0, 50})
	if got != (Point{100, 150}) {
		t.Fatalf("ToDocument = %v, want {100 150}", got)
	}
}

func TestToDevicePixels(t *testing.T) {
	r := Rect{Left: 100, Top: 150, Width: 200, Height: 150}

	got := ToDevicePixels(r, 2)
	want := DeviceRect{X: 200, Y: 300, W: 400, H: 300}
	if got != want {
		t.Errorf("ToDevicePixels(dpr=2) = %+v, want %+v", got, want)
	}

	if got := ToDevicePixels(r, 1); got != (DeviceRect{X: 100, Y: 150, W: 200, H: 150}) {
		t.Errorf("dpr=1 must be an identity scale, got %+v", got)
	}

	if got := ToDevicePixels(r, 1.5); got != (DeviceRect{X: 150, Y: 225, W: 300, H: 225}) {
		t.Errorf("ToDevicePixels(dpr=1.5) = %+v", got)
	}
}

func TestToDevicePixelsFallsBackToDefaultRatio(t *testing.T) {
	r := Rect{Left: 1, Top: 2, Width: 3, Height: 4}
	for _, dpr := range []float64{0, -2, math.NaN(), math.Inf(1)} {
		got := ToDevicePixels(r, dpr)
		if got != (DeviceRect{X: 1, Y: 2, W: 3, H: 4}) {
			t.Errorf("dpr=%v: got %+v, want unscaled rect", dpr, got)
		}
	}
}

func TestDeviceRectBounds(t *testing.T) {
	d := ToDevicePixels(Rect{Left: 100, Top: 150, Width: 200, Height: 150}, 2)
	if got := d.Bounds(); got != image.Rect(200, 300, 600, 600) {
		t.Fatalf("Bounds() = %v", got)
	}
}
