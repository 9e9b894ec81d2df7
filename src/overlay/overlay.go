package overlay

import (
	"errors"
	"fmt"
	"image/color"
	"log"
	"sync/atomic"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"

	"region-ocr/src/capture"
	"region-ocr/src/geometry"
	"region-ocr/src/result"
	"region-ocr/src/screenshot"
	"region-ocr/src/selection"
	"region-ocr/src/toolbar"
)

// ErrActive is returned when an overlay is already open.
var ErrActive = errors.New("overlay already active")

var (
	panelSize = fyne.NewSize(380, 320)
	dimColor  = color.NRGBA{A: 0x30}
)

type Options struct {
	App        fyne.App
	Recognizer toolbar.Recognizer
	Clipboard  result.Clipboard
	// Deadline bounds one capture and recognition. Zero means no limit.
	Deadline    time.Duration
	DebugImages bool
	// Snapshot freezes the desktop. Defaults to screenshot.TakeSnapshot.
	Snapshot func() (*screenshot.Snapshot, error)
}

// Manager opens at most one overlay at a time.
type Manager struct {
	opts   Options
	active atomic.Bool
}

func NewManager(opts Options) *Manager {
	if opts.Snapshot == nil {
		opts.Snapshot = screenshot.TakeSnapshot
	}
	return &Manager{opts: opts}
}

// Active reports whether an overlay is open.
func (m *Manager) Active() bool { return m.active.Load() }

// Open freezes the desktop and shows the selection overlay on top of it.
// It must be called on the fyne goroutine.
func (m *Manager) Open() error {
	if !m.active.CompareAndSwap(false, true) {
		return ErrActive
	}
	snap, err := m.opts.Snapshot()
	if err != nil {
		m.active.Store(false)
		return fmt.Errorf("snapshot: %w", err)
	}

	w := m.opts.App.NewWindow("Region OCR")
	ov := newOverlay(m.opts, w, snap, func() { m.active.Store(false) })
	w.SetContent(ov.content)
	w.SetPadded(false)
	w.SetFullScreen(true)
	w.Show()
	ov.fit()
	ov.toolbar.Start()
	log.Printf("overlay: opened on %dx%d snapshot at scale %.2f", snap.Size().X, snap.Size().Y, ov.dpr())
	return nil
}

// overlay is one open selection window and the components behind it.
type overlay struct {
	window  fyne.Window
	snap    *screenshot.Snapshot
	image   *canvas.Image
	content fyne.CanvasObject
	toolbar *toolbar.Controller
}

func newOverlay(opts Options, w fyne.Window, snap *screenshot.Snapshot, onClosed func()) *overlay {
	ov := &overlay{window: w, snap: snap}

	ov.image = canvas.NewImageFromImage(snap.Image)
	ov.image.FillMode = canvas.ImageFillStretch
	boxes := container.NewWithoutLayout()
	page := container.NewStack(ov.image, canvas.NewRectangle(dimColor), boxes)
	scroll := container.NewScroll(page)

	var tb *toolbar.Controller
	bar := newToolbarView(toolbarActions{
		Select:    func() { tb.Select() },
		Delete:    func() { tb.Delete() },
		Translate: func() { tb.Translate() },
		Close:     func() { tb.Close() },
	})
	panels := container.NewGridWrap(panelSize)

	driver := opts.App.Driver()
	overControls := func(abs fyne.Position) bool {
		return hit(driver, bar.root, abs) || hit(driver, panels, abs)
	}
	surface := newPageSurface(scroll, boxes, overControls)

	presenter := result.NewPresenter(&resultView{slot: panels}, opts.Clipboard, func(d time.Duration, f func()) {
		time.AfterFunc(d, func() { fyne.Do(f) })
	})
	engine := capture.NewEngine(snap)
	engine.DebugImages = opts.DebugImages

	tb = toolbar.New(toolbar.Options{
		Selection:        selection.New(surface),
		Results:          presenter,
		Capturer:         engine,
		Recognizer:       opts.Recognizer,
		View:             bar,
		DevicePixelRatio: ov.dpr,
		Post:             fyne.Do,
		Deadline:         opts.Deadline,
		OnClose: func() {
			w.Close()
			onClosed()
		},
	})
	ov.toolbar = tb

	top := container.NewHBox(layout.NewSpacer(), bar.root, layout.NewSpacer())
	controls := container.NewBorder(container.NewPadded(top), nil, nil, container.NewPadded(panels))
	ov.content = container.NewStack(scroll, surface, controls)

	w.SetCloseIntercept(tb.Close)
	w.Canvas().SetOnTypedKey(func(ev *fyne.KeyEvent) {
		if ev.Name == fyne.KeyEscape {
			tb.Close()
		}
	})
	return ov
}

func (ov *overlay) dpr() float64 {
	return geometry.NormalizeDPR(float64(ov.window.Canvas().Scale()))
}

// fit sizes the snapshot so one snapshot pixel is one device pixel.
func (ov *overlay) fit() {
	size := ov.snap.Size()
	scale := float32(ov.dpr())
	ov.image.SetMinSize(fyne.NewSize(float32(size.X)/scale, float32(size.Y)/scale))
	ov.image.Refresh()
}

func hit(d fyne.Driver, obj fyne.CanvasObject, abs fyne.Position) bool {
	if obj == nil || !obj.Visible() {
		return false
	}
	p := d.AbsolutePositionForObject(obj)
	s := obj.Size()
	return abs.X >= p.X && abs.Y >= p.Y && abs.X < p.X+s.Width && abs.Y < p.Y+s.Height
}
