package overlay

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"region-ocr/src/geometry"
	"region-ocr/src/selection"
)

var (
	boxFill   = color.NRGBA{R: 0x00, G: 0x78, B: 0xd4, A: 0x33}
	boxStroke = color.NRGBA{R: 0x00, G: 0x78, B: 0xd4, A: 0xff}
)

// pageSurface sits on top of the scrolled snapshot and turns mouse input into
// selection pointer events. Positions are relative to the viewport; boxes are
// placed in the scrolled content, so they follow the document when scrolled.
type pageSurface struct {
	widget.BaseWidget

	scroll *container.Scroll
	boxes  *fyne.Container
	// overControls reports whether an absolute position hits toolbar or panel UI.
	overControls func(abs fyne.Position) bool

	handlers map[selection.EventKind]map[int]selection.Handler
	nextID   int
	last     fyne.Position
}

func newPageSurface(scroll *container.Scroll, boxes *fyne.Container, overControls func(fyne.Position) bool) *pageSurface {
	s := &pageSurface{
		scroll:       scroll,
		boxes:        boxes,
		overControls: overControls,
		handlers:     map[selection.EventKind]map[int]selection.Handler{},
	}
	s.ExtendBaseWidget(s)
	return s
}

func (s *pageSurface) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(canvas.NewRectangle(color.Transparent))
}

func (s *pageSurface) Listen(kind selection.EventKind, h selection.Handler) func() {
	if s.handlers[kind] == nil {
		s.handlers[kind] = map[int]selection.Handler{}
	}
	s.nextID++
	id := s.nextID
	s.handlers[kind][id] = h
	return func() { delete(s.handlers[kind], id) }
}

func (s *pageSurface) ScrollOffset() geometry.Point {
	return geometry.Point{X: float64(s.scroll.Offset.X), Y: float64(s.scroll.Offset.Y)}
}

func (s *pageSurface) NewBox(r geometry.Rect) selection.Box {
	rect := canvas.NewRectangle(boxFill)
	rect.StrokeColor = boxStroke
	rect.StrokeWidth = 2
	s.boxes.Add(rect)
	b := &rectBox{layer: s.boxes, rect: rect}
	b.Move(r)
	return b
}

func (s *pageSurface) dispatch(kind selection.EventKind, pos, abs fyne.Position) {
	ev := selection.PointerEvent{
		Position: geometry.Point{X: float64(pos.X), Y: float64(pos.Y)},
	}
	if kind == selection.PointerDown && s.overControls != nil {
		ev.OverControls = s.overControls(abs)
	}
	hs := make([]selection.Handler, 0, len(s.handlers[kind]))
	for _, h := range s.handlers[kind] {
		hs = append(hs, h)
	}
	for _, h := range hs {
		h(ev)
	}
}

// MouseDown implements desktop.Mouseable.
func (s *pageSurface) MouseDown(ev *desktop.MouseEvent) {
	if ev.Button != desktop.MouseButtonPrimary {
		return
	}
	s.last = ev.Position
	s.dispatch(selection.PointerDown, ev.Position, ev.AbsolutePosition)
}

// MouseUp implements desktop.Mouseable.
func (s *pageSurface) MouseUp(ev *desktop.MouseEvent) {
	if ev.Button != desktop.MouseButtonPrimary {
		return
	}
	s.dispatch(selection.PointerUp, ev.Position, ev.AbsolutePosition)
}

// Dragged implements fyne.Draggable.
func (s *pageSurface) Dragged(ev *fyne.DragEvent) {
	s.last = ev.Position
	s.dispatch(selection.PointerMove, ev.Position, ev.AbsolutePosition)
}

// DragEnd implements fyne.Draggable.
func (s *pageSurface) DragEnd() {
	s.dispatch(selection.PointerUp, s.last, s.last)
}

// Scrolled forwards wheel input to the scroll container underneath.
func (s *pageSurface) Scrolled(ev *fyne.ScrollEvent) {
	s.scroll.Scrolled(ev)
}

type rectBox struct {
	layer *fyne.Container
	rect  *canvas.Rectangle
}

func (b *rectBox) Move(r geometry.Rect) {
	b.rect.Move(fyne.NewPos(float32(r.Left), float32(r.Top)))
	b.rect.Resize(fyne.NewSize(float32(r.Width), float32(r.Height)))
}

func (b *rectBox) Remove() {
	b.layer.Remove(b.rect)
}
