package result

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
)

// ConfirmDuration is how long the copy control shows its confirmation.
const ConfirmDuration = time.Second

// ErrClipboard wraps clipboard write failures.
var ErrClipboard = errors.New("clipboard write failed")

// Panel is a displayed result panel.
type Panel interface {
	// SetCopyConfirmed switches the copy control between its normal glyph and a check mark.
	SetCopyConfirmed(confirmed bool)
	Remove()
}

// View builds result panels. onCopy and onClose are wired to the panel's controls.
type View interface {
	ShowPanel(text string, onCopy, onClose func()) Panel
}

// Clipboard receives copied text.
type Clipboard interface {
	WriteText(text string) error
}

// ClipboardFunc adapts a function to the Clipboard interface.
type ClipboardFunc func(text string) error

func (f ClipboardFunc) WriteText(text string) error { return f(text) }

// Scheduler runs f after d on the presenter's goroutine.
type Scheduler func(d time.Duration, f func())

// Presenter owns at most one result panel and the text shown in it.
// It must only be used from the UI goroutine.
type Presenter struct {
	view      View
	clipboard Clipboard
	after     Scheduler

	panel    Panel
	text     string
	serial   uint64
	onChange func(visible bool)
}

// NewPresenter returns a presenter. after must deliver its callback on the UI
// goroutine; nil falls back to time.AfterFunc, which is only safe in tests.
func NewPresenter(view View, clipboard Clipboard, after Scheduler) *Presenter {
	if after == nil {
		after = func(d time.Duration, f func()) { time.AfterFunc(d, f) }
	}
	return &Presenter{view: view, clipboard: clipboard, after: after}
}

// OnChange is called whenever a panel appears or disappears.
func (p *Presenter) OnChange(fn func(visible bool)) { p.onChange = fn }

func (p *Presenter) Visible() bool { return p.panel != nil }

func (p *Presenter) Text() string { return p.text }

// Show replaces any existing panel with one holding text. Line breaks are kept.
func (p *Presenter) Show(text string) {
	p.remove()
	p.text = strings.ReplaceAll(text, "\r\n", "\n")
	p.serial++
	shown := p.text
	p.panel = p.view.ShowPanel(shown, func() { p.Copy(shown) }, p.Close)
	p.changed()
}

// Copy writes text to the clipboard. On success the copy control confirms for
// ConfirmDuration. The revert is scheduled whatever the outcome.
func (p *Presenter) Copy(text string) error {
	err := p.clipboard.WriteText(text)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrClipboard, err)
		log.Printf("result: %v", err)
	} else if p.panel != nil {
		p.panel.SetCopyConfirmed(true)
	}

	serial := p.serial
	p.after(ConfirmDuration, func() {
		if p.panel == nil || p.serial != serial {
			return
		}
		p.panel.SetCopyConfirmed(false)
	})
	return err
}

// Close removes the panel. Safe to call when none is shown.
func (p *Presenter) Close() {
	if p.panel == nil {
		return
	}
	p.remove()
	p.changed()
}

func (p *Presenter) remove() {
	if p.panel == nil {
		return
	}
	p.panel.Remove()
	p.panel = nil
	p.text = ""
	p.serial++
}

func (p *Presenter) changed() {
	if p.onChange != nil {
		p.onChange(p.Visible())
	}
}
