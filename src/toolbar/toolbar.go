package toolbar

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"region-ocr/src/capture"
	"region-ocr/src/geometry"
	"region-ocr/src/logutil"
	"region-ocr/src/result"
	"region-ocr/src/selection"
)

// State is the session state shown to the user.
type State int

const (
	StateIdle State = iota
	StateSelecting
	StateDragging
	StateSelected
	StateCapturing
	StateResultShown
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateSelecting:
		return "Selecting"
	case StateDragging:
		return "Dragging"
	case StateSelected:
		return "Selected"
	case StateCapturing:
		return "Capturing"
	case StateResultShown:
		return "ResultShown"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Capturer crops the selected region out of a freshly rendered document.
type Capturer interface {
	CaptureRegion(ctx context.Context, region capture.Region) (*capture.Capture, error)
}

// Recognizer extracts text from an encoded image.
type Recognizer interface {
	Recognize(ctx context.Context, image []byte) (string, error)
}

// View is the toolbar's own UI.
type View interface {
	SetDeleteEnabled(enabled bool)
	SetBusy(busy bool)
	Remove()
}

type Options struct {
	Selection  *selection.Controller
	Results    *result.Presenter
	Capturer   Capturer
	Recognizer Recognizer
	View       View

	// DevicePixelRatio is sampled when Translate is clicked.
	DevicePixelRatio func() float64
	// Post runs f on the UI goroutine.
	Post func(f func())
	// Go runs f in the background. Defaults to a new goroutine.
	Go func(f func())
	// Deadline bounds one capture and recognition. Zero means no limit.
	Deadline time.Duration
	// OnClose runs after the session has been torn down.
	OnClose func()
}

// Session is the state of one open overlay. It exists from Start until Close.
type Session struct {
	ID     uuid.UUID
	ctx    context.Context
	cancel context.CancelFunc
	// generation identifies the latest Translate; older continuations are dropped.
	generation uint64
	inFlight   bool
}

// Controller wires the toolbar actions to selection, capture, recognition and
// result presentation. All methods must be called on the UI goroutine.
type Controller struct {
	opts    Options
	session *Session
	state   State
}

func New(opts Options) *Controller {
	if opts.Go == nil {
		opts.Go = func(f func()) { go f() }
	}
	if opts.Post == nil {
		opts.Post = func(f func()) { f() }
	}
	if opts.DevicePixelRatio == nil {
		opts.DevicePixelRatio = func() float64 { return geometry.DefaultDPR }
	}
	c := &Controller{opts: opts}
	opts.Selection.OnChange(func(selection.Phase) { c.refresh() })
	opts.Results.OnChange(func(bool) { c.refresh() })
	return c
}

// Start creates the session. It returns false if one is already open.
func (c *Controller) Start() bool {
	if c.session != nil {
		log.Printf("toolbar: session %s already active", c.session.ID)
		return false
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.session = &Session{ID: uuid.New(), ctx: ctx, cancel: cancel}
	log.Printf("toolbar: session %s started", c.session.ID)
	c.refresh()
	return true
}

// Session returns the open session, or nil.
func (c *Controller) Session() *Session { return c.session }

func (c *Controller) State() State { return c.state }

// Select enters drawing mode.
func (c *Controller) Select() {
	if c.session == nil {
		return
	}
	c.opts.Selection.Activate()
}

// Delete discards the current selection.
func (c *Controller) Delete() {
	if c.session == nil {
		return
	}
	c.opts.Selection.Clear()
}

// Translate captures the selected region and recognizes its text in the
// background. Without a selection it only logs.
func (c *Controller) Translate() {
	s := c.session
	if s == nil {
		return
	}
	rect, ok := c.opts.Selection.Selected()
	if !ok {
		log.Printf("toolbar: translate ignored: %v", capture.ErrNoSelection)
		return
	}

	s.generation++
	gen := s.generation
	s.inFlight = true
	region := capture.Region{Rect: rect, DPR: c.opts.DevicePixelRatio()}
	log.Printf("toolbar: session %s translate #%d rect=%+v dpr=%.2f", s.ID, gen, rect, region.DPR)

	ctx := s.ctx
	c.opts.Go(func() {
		runCtx, cancel := ctx, context.CancelFunc(func() {})
		if c.opts.Deadline > 0 {
			runCtx, cancel = context.WithTimeout(ctx, c.opts.Deadline)
		}
		text, err := c.run(runCtx, region)
		cancel()
		c.opts.Post(func() { c.finish(s, gen, rect, text, err) })
	})
	c.refresh()
}

func (c *Controller) run(ctx context.Context, region capture.Region) (string, error) {
	shot, err := c.opts.Capturer.CaptureRegion(ctx, region)
	if err != nil {
		return "", err
	}
	data, err := shot.PNG()
	if err != nil {
		return "", err
	}
	return c.opts.Recognizer.Recognize(ctx, data)
}

func (c *Controller) finish(s *Session, gen uint64, rect geometry.Rect, text string, err error) {
	if c.session != s {
		log.Printf("toolbar: dropping result #%d of closed session %s", gen, s.ID)
		return
	}
	if gen != s.generation {
		log.Printf("toolbar: dropping superseded result #%d (latest #%d)", gen, s.generation)
		return
	}
	s.inFlight = false

	if err != nil {
		switch {
		case errors.Is(err, capture.ErrCaptureFailed):
			log.Printf("toolbar: capture failed, selection kept: %v", err)
		case errors.Is(err, context.Canceled):
			log.Printf("toolbar: translate #%d cancelled", gen)
		default:
			log.Printf("toolbar: translate #%d failed: %v", gen, err)
		}
		c.refresh()
		return
	}

	log.Printf("toolbar: translate #%d recognized: %s", gen, logutil.Preview(text))
	if cur, ok := c.opts.Selection.Selected(); ok && cur == rect {
		c.opts.Selection.Clear()
	}
	c.opts.Results.Show(text)
	c.refresh()
}

// Close tears down the session whatever its state. In-flight work is
// cancelled and its result dropped.
func (c *Controller) Close() {
	s := c.session
	if s == nil {
		return
	}
	c.session = nil
	s.cancel()

	c.opts.Results.Close()
	c.opts.Selection.Clear()
	c.opts.Selection.Deactivate()
	if c.opts.View != nil {
		c.opts.View.Remove()
	}
	log.Printf("toolbar: session %s closed", s.ID)
	c.refresh()

	if c.opts.OnClose != nil {
		c.opts.OnClose()
	}
}

func (c *Controller) derive() State {
	s := c.session
	if s == nil {
		return StateIdle
	}
	phase := c.opts.Selection.Phase()
	switch {
	case phase == selection.PhaseDragging:
		return StateDragging
	case s.inFlight:
		return StateCapturing
	case phase == selection.PhaseSelected:
		return StateSelected
	case c.opts.Results.Visible():
		return StateResultShown
	case phase == selection.PhaseSelecting:
		return StateSelecting
	default:
		return StateIdle
	}
}

func (c *Controller) refresh() {
	next := c.derive()
	if next != c.state {
		id := "-"
		if c.session != nil {
			id = c.session.ID.String()
		}
		log.Printf("toolbar: session %s %v -> %v", id, c.state, next)
		c.state = next
	}
	if c.session == nil || c.opts.View == nil {
		return
	}
	_, selected := c.opts.Selection.Selected()
	c.opts.View.SetDeleteEnabled(selected)
	c.opts.View.SetBusy(c.session.inFlight)
}
