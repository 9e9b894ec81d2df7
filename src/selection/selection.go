package selection

import (
	"log"

	"region-ocr/src/geometry"
)

// Phase is the selection controller's own view of the pointer lifecycle.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseSelecting
	PhaseDragging
	PhaseSelected
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseSelecting:
		return "selecting"
	case PhaseDragging:
		return "dragging"
	case PhaseSelected:
		return "selected"
	default:
		return "unknown"
	}
}

// EventKind identifies a pointer listener slot on a Surface.
type EventKind int

const (
	PointerDown EventKind = iota
	PointerMove
	PointerUp
)

// PointerEvent is a pointer sample in viewport coordinates.
type PointerEvent struct {
	Position geometry.Point
	// OverControls is set when the pointer is over the toolbar or result panel.
	OverControls bool
}

// Handler receives pointer events from a Surface.
type Handler func(PointerEvent)

// Box is the visual representation of the live selection.
type Box interface {
	Move(r geometry.Rect)
	Remove()
}

// Surface is the page the user draws on.
// Listen returns a function that unregisters the handler.
type Surface interface {
	Listen(kind EventKind, h Handler) (cancel func())
	ScrollOffset() geometry.Point
	NewBox(r geometry.Rect) Box
}

// Controller turns raw pointer input into a finalized selection rectangle.
// It must only be used from the goroutine that delivers surface events.
type Controller struct {
	surface  Surface
	phase    Phase
	origin   geometry.Point
	rect     geometry.Rect
	hasRect  bool
	box      Box
	offDown  func()
	offUp    func()
	offMove  func()
	onChange func(Phase)
}

// New returns a controller bound to surface. Nothing is registered until Activate.
func New(surface Surface) *Controller {
	return &Controller{surface: surface}
}

// OnChange sets the callback invoked after every phase or rectangle change.
func (c *Controller) OnChange(fn func(Phase)) { c.onChange = fn }

// Phase returns the current phase.
func (c *Controller) Phase() Phase { return c.phase }

// Active reports whether pointer listeners are registered.
func (c *Controller) Active() bool { return c.offDown != nil }

// Rect returns the selection rectangle in document coordinates, if one exists.
// A rectangle still being dragged is reported too.
func (c *Controller) Rect() (geometry.Rect, bool) {
	return c.rect, c.hasRect
}

// Selected returns the finalized rectangle. ok is false unless the phase is Selected.
func (c *Controller) Selected() (geometry.Rect, bool) {
	if c.phase != PhaseSelected || !c.hasRect {
		return geometry.Rect{}, false
	}
	return c.rect, true
}

// Activate registers pointer-down and pointer-up listeners. Calling it again while active
// registers nothing.
func (c *Controller) Activate() {
	if c.offDown == nil {
		c.offDown = c.surface.Listen(PointerDown, c.OnPointerDown)
		c.offUp = c.surface.Listen(PointerUp, c.OnPointerUp)
	}
	if c.phase == PhaseIdle {
		c.setPhase(PhaseSelecting)
	}
}

// OnPointerDown starts a new selection, discarding any previous one.
func (c *Controller) OnPointerDown(ev PointerEvent) {
	if !c.Active() || ev.OverControls {
		return
	}
	c.stopMove()
	c.discard()

	c.origin = geometry.ToDocument(ev.Position, c.surface.ScrollOffset())
	c.rect = geometry.Rect{Left: c.origin.X, Top: c.origin.Y}
	c.hasRect = true
	c.box = c.surface.NewBox(c.rect)
	c.offMove = c.surface.Listen(PointerMove, c.OnPointerMove)
	c.setPhase(PhaseDragging)
}

// OnPointerMove grows the rectangle towards the pointer.
func (c *Controller) OnPointerMove(ev PointerEvent) {
	if c.phase != PhaseDragging {
		return
	}
	current := geometry.ToDocument(ev.Position, c.surface.ScrollOffset())
	c.rect = geometry.Normalize(c.origin, current)
	if c.box != nil {
		c.box.Move(c.rect)
	}
}

// OnPointerUp finalizes the drag. Zero-area drags are treated as cancelled.
func (c *Controller) OnPointerUp(PointerEvent) {
	if c.phase != PhaseDragging {
		return
	}
	c.stopMove()
	if c.rect.Empty() {
		log.Printf("selection: zero-area drag discarded")
		c.discard()
		c.setPhase(PhaseSelecting)
		return
	}
	c.setPhase(PhaseSelected)
}

// Clear removes the box and forgets the rectangle. Safe to call with nothing selected.
func (c *Controller) Clear() {
	c.stopMove()
	c.discard()
	c.setPhase(PhaseIdle)
}

// Deactivate unregisters every listener this controller added.
func (c *Controller) Deactivate() {
	c.stopMove()
	if c.offDown != nil {
		c.offDown()
		c.offDown = nil
	}
	if c.offUp != nil {
		c.offUp()
		c.offUp = nil
	}
	if c.phase == PhaseDragging {
		c.discard()
		c.setPhase(PhaseIdle)
	}
}

func (c *Controller) stopMove() {
	if c.offMove != nil {
		c.offMove()
		c.offMove = nil
	}
}

// discard drops the box and rectangle without touching the phase.
func (c *Controller) discard() {
	if c.box != nil {
		c.box.Remove()
		c.box = nil
	}
	c.rect = geometry.Rect{}
	c.hasRect = false
}

func (c *Controller) setPhase(p Phase) {
	changed := c.phase != p
	c.phase = p
	if changed && c.onChange != nil {
		c.onChange(p)
	}
}
