//go:build windows

package dpi

import (
	"fmt"
	"log"

	"golang.org/x/sys/windows"
)

const processPerMonitorDPIAware = 2

// Enable sets per-monitor DPI awareness so screen captures and window
// coordinates are reported in physical pixels. It must run before any window
// is created.
func Enable() error {
	setProcessDpiAwareness := windows.NewLazySystemDLL("Shcore.dll").NewProc("SetProcessDpiAwareness")
	if err := setProcessDpiAwareness.Find(); err == nil {
		ret, _, _ := setProcessDpiAwareness.Call(uintptr(processPerMonitorDPIAware))
		// E_ACCESSDENIED means awareness was already set, e.g. by the manifest.
		if ret == 0 || uint32(ret) == uint32(windows.E_ACCESSDENIED) {
			log.Printf("DPI: per-monitor DPI awareness enabled")
			return nil
		}
		log.Printf("DPI: SetProcessDpiAwareness failed with 0x%x, trying fallback", uint32(ret))
	}

	setProcessDPIAware := windows.NewLazySystemDLL("user32.dll").NewProc("SetProcessDPIAware")
	if err := setProcessDPIAware.Find(); err != nil {
		return fmt.Errorf("no DPI awareness API available: %w", err)
	}
	if ret, _, _ := setProcessDPIAware.Call(); ret == 0 {
		return fmt.Errorf("SetProcessDPIAware failed")
	}
	log.Printf("DPI: system DPI awareness enabled (fallback)")
	return nil
}
