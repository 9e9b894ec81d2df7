//go:build !windows

package dpi

// Enable is a no-op outside Windows, where screen capture already reports
// physical pixels.
func Enable() error { return nil }
