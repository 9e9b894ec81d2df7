package result

import (
	"errors"
	"testing"
	"time"
)

type mockPanel struct {
	text      string
	confirmed []bool
	removed   int
	onCopy    func()
	onClose   func()
}

func (p *mockPanel) SetCopyConfirmed(c bool) { p.confirmed = append(p.confirmed, c) }
func (p *mockPanel) Remove()                 { p.removed++ }

func (p *mockPanel) lastConfirmed() bool {
	if len(p.confirmed) == 0 {
		return false
	}
	return p.confirmed[len(p.confirmed)-1]
}

type mockView struct{ panels []*mockPanel }

func (v *mockView) ShowPanel(text string, onCopy, onClose func()) Panel {
	p := &mockPanel{text: text, onCopy: onCopy, onClose: onClose}
	v.panels = append(v.panels, p)
	return p
}

type manualClock struct {
	delays []time.Duration
	fns    []func()
}

func (c *manualClock) after(d time.Duration, f func()) {
	c.delays = append(c.delays, d)
	c.fns = append(c.fns, f)
}

func (c *manualClock) fire() {
	fns := c.fns
	c.fns = nil
	for _, f := range fns {
		f()
	}
}

type memClipboard struct {
	text string
	err  error
}

func (m *memClipboard) WriteText(s string) error {
	if m.err != nil {
		return m.err
	}
	m.text = s
	return nil
}

func newTestPresenter() (*Presenter, *mockView, *memClipboard, *manualClock) {
	v := &mockView{}
	cb := &memClipboard{}
	clk := &manualClock{}
	return NewPresenter(v, cb, clk.after), v, cb, clk
}

func TestShowReplacesExistingPanel(t *testing.T) {
	p, v, _, _ := newTestPresenter()

	p.Show("first")
	p.Show("second")

	if len(v.panels) != 2 {
		t.Fatalf("expected 2 panels built, got %d", len(v.panels))
	}
	if v.panels[0].removed != 1 {
		t.Error("first panel should be removed")
	}
	if v.panels[1].removed != 0 || !p.Visible() || p.Text() != "second" {
		t.Errorf("second panel should be the only one visible")
	}
}

func TestShowPreservesLineBreaks(t *testing.T) {
	p, v, _, _ := newTestPresenter()
	p.Show("Hello\r\nworld\nagain")
	if got := v.panels[0].text; got != "Hello\nworld\nagain" {
		t.Fatalf("panel text = %q", got)
	}
}

func TestShowEmptyText(t *testing.T) {
	p, v, _, _ := newTestPresenter()
	p.Show("")
	if !p.Visible() || len(v.panels) != 1 {
		t.Fatal("empty recognition still shows a panel")
	}
}

func TestCopyConfirmsAndRevertsAfterOneSecond(t *testing.T) {
	p, v, cb, clk := newTestPresenter()
	p.Show("Hello\nworld")

	v.panels[0].onCopy()

	if cb.text != "Hello\nworld" {
		t.Errorf("clipboard = %q", cb.text)
	}
	if !v.panels[0].lastConfirmed() {
		t.Fatal("copy control should show confirmation")
	}
	if len(clk.delays) != 1 || clk.delays[0] != time.Second {
		t.Fatalf("revert scheduled with %v", clk.delays)
	}

	clk.fire()
	if v.panels[0].lastConfirmed() {
		t.Error("confirmation should revert")
	}
}

func TestCopyFailureSchedulesRevertWithoutConfirming(t *testing.T) {
	p, v, cb, clk := newTestPresenter()
	cb.err = errors.New("denied")
	p.Show("x")

	err := p.Copy("x")
	if !errors.Is(err, ErrClipboard) {
		t.Fatalf("err = %v, want ErrClipboard", err)
	}
	if v.panels[0].lastConfirmed() {
		t.Error("failed copy must not confirm")
	}
	if len(clk.fns) != 1 {
		t.Errorf("revert should be scheduled regardless of outcome")
	}
	clk.fire()
	if !p.Visible() {
		t.Error("panel should remain after failed copy")
	}
}

func TestRevertAfterCloseIsIgnored(t *testing.T) {
	p, v, _, clk := newTestPresenter()
	p.Show("x")
	_ = p.Copy("x")
	p.Close()

	clk.fire()
	if n := len(v.panels[0].confirmed); n != 1 {
		t.Errorf("closed panel touched by stale revert: %v", v.panels[0].confirmed)
	}
}

func TestRevertAfterReplaceIsIgnored(t *testing.T) {
	p, v, _, clk := newTestPresenter()
	p.Show("old")
	_ = p.Copy("old")
	p.Show("new")

	clk.fire()
	if len(v.panels[1].confirmed) != 0 {
		t.Errorf("new panel touched by old revert: %v", v.panels[1].confirmed)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	p, v, _, _ := newTestPresenter()
	p.Close()

	var changes []bool
	p.OnChange(func(visible bool) { changes = append(changes, visible) })
	p.Show("x")
	v.panels[0].onClose()
	p.Close()

	if v.panels[0].removed != 1 {
		t.Errorf("panel removed %d times", v.panels[0].removed)
	}
	if len(changes) != 2 || changes[0] != true || changes[1] != false {
		t.Errorf("change notifications = %v", changes)
	}
	if p.Visible() || p.Text() != "" {
		t.Error("presenter still holds a result")
	}
}

func TestCopyWithoutPanel(t *testing.T) {
	p, _, cb, _ := newTestPresenter()
	if err := p.Copy("loose"); err != nil {
		t.Fatalf("Copy: %v", err)
	}
	if cb.text != "loose" {
		t.Errorf("clipboard = %q", cb.text)
	}
}
