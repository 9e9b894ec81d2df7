package overlay

import (
	"context"
	"errors"
	"image"
	"testing"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/test"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"region-ocr/src/geometry"
	"region-ocr/src/ocr"
	"region-ocr/src/result"
	"region-ocr/src/screenshot"
	"region-ocr/src/selection"
)

func mouse(x, y float32) *desktop.MouseEvent {
	pos := fyne.NewPos(x, y)
	return &desktop.MouseEvent{
		PointEvent: fyne.PointEvent{Position: pos, AbsolutePosition: pos},
		Button:     desktop.MouseButtonPrimary,
	}
}

func drag(x, y float32) *fyne.DragEvent {
	pos := fyne.NewPos(x, y)
	return &fyne.DragEvent{PointEvent: fyne.PointEvent{Position: pos, AbsolutePosition: pos}}
}

func newTestSurface() (*pageSurface, *container.Scroll, *fyne.Container) {
	boxes := container.NewWithoutLayout()
	page := widget.NewLabel("page")
	scroll := container.NewScroll(container.NewStack(page, boxes))
	scroll.Resize(fyne.NewSize(400, 300))
	return newPageSurface(scroll, boxes, nil), scroll, boxes
}

func TestSurfaceDrivesSelection(t *testing.T) {
	a := test.NewApp()
	defer a.Quit()

	s, scroll, boxes := newTestSurface()
	scroll.Offset = fyne.NewPos(0, 50)

	c := selection.New(s)
	c.Activate()

	s.MouseDown(mouse(100, 100))
	s.Dragged(drag(300, 250))
	s.DragEnd()
	s.MouseUp(mouse(300, 250))

	r, ok := c.Selected()
	if !ok {
		t.Fatalf("no selection, phase %v", c.Phase())
	}
	if r != (geometry.Rect{Left: 100, Top: 150, Width: 200, Height: 150}) {
		t.Fatalf("rect = %+v", r)
	}
	if len(boxes.Objects) != 1 {
		t.Fatalf("boxes = %d", len(boxes.Objects))
	}
	box := boxes.Objects[0]
	if box.Position() != fyne.NewPos(100, 150) || box.Size() != fyne.NewSize(200, 150) {
		t.Errorf("box at %v size %v", box.Position(), box.Size())
	}

	c.Clear()
	if len(boxes.Objects) != 0 {
		t.Error("box not removed on clear")
	}
}

func TestSurfaceIgnoresSecondaryButtonAndControls(t *testing.T) {
	a := test.NewApp()
	defer a.Quit()

	boxes := container.NewWithoutLayout()
	scroll := container.NewScroll(boxes)
	s := newPageSurface(scroll, boxes, func(abs fyne.Position) bool { return abs.Y < 40 })
	c := selection.New(s)
	c.Activate()

	right := mouse(100, 100)
	right.Button = desktop.MouseButtonSecondary
	s.MouseDown(right)
	s.MouseDown(mouse(100, 10))

	if c.Phase() != selection.PhaseSelecting || len(boxes.Objects) != 0 {
		t.Fatalf("selection started from ignored input, phase %v", c.Phase())
	}
}

func TestSurfaceListenCancel(t *testing.T) {
	a := test.NewApp()
	defer a.Quit()

	s, _, _ := newTestSurface()
	calls := 0
	cancel := s.Listen(selection.PointerDown, func(selection.PointerEvent) { calls++ })
	s.MouseDown(mouse(1, 1))
	cancel()
	s.MouseDown(mouse(1, 1))
	if calls != 1 {
		t.Errorf("handler ran %d times", calls)
	}
}

func TestResultViewPanel(t *testing.T) {
	a := test.NewApp()
	defer a.Quit()

	slot := container.NewGridWrap(panelSize)
	v := &resultView{slot: slot}
	copied := 0
	p := v.ShowPanel("Hello\nworld", func() { copied++ }, func() {}).(*resultPanel)

	if len(slot.Objects) != 1 {
		t.Fatalf("slot holds %d objects", len(slot.Objects))
	}
	test.Tap(p.copyBtn)
	if copied != 1 {
		t.Error("copy button not wired")
	}

	p.SetCopyConfirmed(true)
	if p.copyBtn.Icon.Name() != theme.ConfirmIcon().Name() {
		t.Errorf("icon = %s, want confirm", p.copyBtn.Icon.Name())
	}
	p.SetCopyConfirmed(false)
	if p.copyBtn.Icon.Name() != theme.ContentCopyIcon().Name() {
		t.Errorf("icon = %s, want copy", p.copyBtn.Icon.Name())
	}

	p.Remove()
	if len(slot.Objects) != 0 {
		t.Error("panel not removed")
	}
}

func TestToolbarView(t *testing.T) {
	a := test.NewApp()
	defer a.Quit()

	var clicked []string
	v := newToolbarView(toolbarActions{
		Select:    func() { clicked = append(clicked, "select") },
		Delete:    func() { clicked = append(clicked, "delete") },
		Translate: func() { clicked = append(clicked, "translate") },
		Close:     func() { clicked = append(clicked, "close") },
	})

	if !v.deleteBtn.Disabled() {
		t.Error("delete should start disabled")
	}
	v.SetDeleteEnabled(true)
	test.Tap(v.selectBtn)
	test.Tap(v.deleteBtn)
	test.Tap(v.translate)
	test.Tap(v.closeBtn)
	if len(clicked) != 4 {
		t.Errorf("clicked = %v", clicked)
	}

	v.SetBusy(true)
	if v.translate.Text != busyLabel {
		t.Errorf("busy label = %q", v.translate.Text)
	}
	v.SetBusy(false)
	v.Remove()
	if v.root.Visible() {
		t.Error("toolbar still visible after Remove")
	}
}

func TestManagerOpensOnce(t *testing.T) {
	a := test.NewApp()
	defer a.Quit()

	snaps := 0
	m := NewManager(Options{
		App: a,
		Recognizer: ocr.NewAdapter(ocr.EngineFunc(func(context.Context, []byte, string) (string, error) {
			return "text", nil
		})),
		Clipboard: result.ClipboardFunc(func(string) error { return nil }),
		Snapshot: func() (*screenshot.Snapshot, error) {
			snaps++
			return &screenshot.Snapshot{Image: image.NewRGBA(image.Rect(0, 0, 800, 600))}, nil
		},
	})

	if err := m.Open(); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := m.Open(); !errors.Is(err, ErrActive) {
		t.Fatalf("second Open: %v, want ErrActive", err)
	}
	if snaps != 1 || !m.Active() {
		t.Fatalf("snapshots=%d active=%v", snaps, m.Active())
	}
}

func TestManagerSnapshotFailure(t *testing.T) {
	a := test.NewApp()
	defer a.Quit()

	m := NewManager(Options{
		App: a,
		Snapshot: func() (*screenshot.Snapshot, error) {
			return nil, errors.New("no display")
		},
	})
	if err := m.Open(); err == nil {
		t.Fatal("expected snapshot error")
	}
	if m.Active() {
		t.Error("failed open must not leave the overlay marked active")
	}
}
