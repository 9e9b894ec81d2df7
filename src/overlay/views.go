package overlay

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"region-ocr/src/result"
)

const (
	translateLabel = "Translate"
	busyLabel      = "Translating..."
)

type toolbarActions struct {
	Select    func()
	Delete    func()
	Translate func()
	Close     func()
}

// toolbarView is the floating bar with the four session actions.
type toolbarView struct {
	root      fyne.CanvasObject
	selectBtn *widget.Button
	deleteBtn *widget.Button
	translate *widget.Button
	closeBtn  *widget.Button
}

func newToolbarView(a toolbarActions) *toolbarView {
	v := &toolbarView{
		selectBtn: widget.NewButtonWithIcon("Select", theme.ViewFullScreenIcon(), a.Select),
		deleteBtn: widget.NewButtonWithIcon("Delete", theme.ContentClearIcon(), a.Delete),
		translate: widget.NewButtonWithIcon(translateLabel, theme.SearchIcon(), a.Translate),
		closeBtn:  widget.NewButtonWithIcon("Close", theme.WindowCloseIcon(), a.Close),
	}
	v.translate.Importance = widget.HighImportance
	v.deleteBtn.Disable()

	bar := container.NewHBox(v.selectBtn, v.deleteBtn, v.translate, v.closeBtn)
	bg := canvas.NewRectangle(theme.Color(theme.ColorNameOverlayBackground))
	bg.CornerRadius = theme.InputRadiusSize()
	v.root = container.NewStack(bg, container.NewPadded(bar))
	return v
}

func (v *toolbarView) SetDeleteEnabled(enabled bool) {
	if enabled {
		v.deleteBtn.Enable()
	} else {
		v.deleteBtn.Disable()
	}
}

func (v *toolbarView) SetBusy(busy bool) {
	if busy {
		v.translate.SetText(busyLabel)
	} else {
		v.translate.SetText(translateLabel)
	}
}

func (v *toolbarView) Remove() {
	v.root.Hide()
}

// resultView shows result panels in a fixed slot of the overlay.
type resultView struct {
	slot *fyne.Container
}

func (v *resultView) ShowPanel(text string, onCopy, onClose func()) result.Panel {
	body := widget.NewLabel(text)
	body.Wrapping = fyne.TextWrapWord

	p := &resultPanel{slot: v.slot}
	p.copyBtn = widget.NewButtonWithIcon("", theme.ContentCopyIcon(), onCopy)
	closeBtn := widget.NewButtonWithIcon("", theme.CancelIcon(), onClose)
	closeBtn.Importance = widget.LowImportance

	title := widget.NewLabelWithStyle("Translation", fyne.TextAlignLeading, fyne.TextStyle{Bold: true})
	header := container.NewBorder(nil, nil, nil, container.NewHBox(p.copyBtn, closeBtn), title)
	card := container.NewBorder(header, nil, nil, nil, container.NewVScroll(body))

	bg := canvas.NewRectangle(theme.Color(theme.ColorNameOverlayBackground))
	bg.CornerRadius = theme.InputRadiusSize()
	p.root = container.NewStack(bg, container.NewPadded(card))

	v.slot.Add(p.root)
	return p
}

type resultPanel struct {
	slot    *fyne.Container
	root    fyne.CanvasObject
	copyBtn *widget.Button
}

func (p *resultPanel) SetCopyConfirmed(confirmed bool) {
	if confirmed {
		p.copyBtn.SetIcon(theme.ConfirmIcon())
	} else {
		p.copyBtn.SetIcon(theme.ContentCopyIcon())
	}
}

func (p *resultPanel) Remove() {
	p.slot.Remove(p.root)
}
