package tray

import (
	"log"
	"runtime"

	"github.com/getlantern/systray"
)

const title = "Region OCR"

// Menu holds the actions behind the tray menu entries. Callbacks run on the
// tray goroutine.
type Menu struct {
	// Tooltip defaults to the application title.
	Tooltip   string
	OnCapture func()
	OnQuit    func()
}

// Start runs the tray on its own locked OS thread and returns immediately.
func Start(m Menu) {
	go func() {
		runtime.LockOSThread()
		systray.Run(func() { onReady(m) }, func() { log.Printf("tray: exited") })
	}()
}

// Quit removes the tray icon.
func Quit() {
	systray.Quit()
}

func onReady(m Menu) {
	if icon, err := Icon(); err == nil {
		systray.SetIcon(icon)
	} else {
		log.Printf("tray: icon unavailable: %v", err)
	}
	systray.SetTitle(title)
	tooltip := m.Tooltip
	if tooltip == "" {
		tooltip = title
	}
	systray.SetTooltip(tooltip)

	mCapture := systray.AddMenuItem("Capture region", "Select a screen region and recognize its text")
	systray.AddSeparator()
	mQuit := systray.AddMenuItem("Quit", "Quit the application")

	go func() {
		for {
			select {
			case <-mCapture.ClickedCh:
				if m.OnCapture != nil {
					m.OnCapture()
				}
			case <-mQuit.ClickedCh:
				if m.OnQuit != nil {
					m.OnQuit()
				}
				systray.Quit()
				return
			}
		}
	}()
}
