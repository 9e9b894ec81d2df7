package tray

import (
	"bytes"
	"encoding/binary"
	"image/png"
	"runtime"
	"testing"
)

func TestIcon(t *testing.T) {
	data, err := Icon()
	if err != nil {
		t.Fatalf("Icon: %v", err)
	}
	if runtime.GOOS == "windows" {
		data = data[22:]
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("icon is not a PNG: %v", err)
	}
	if cfg.Width != iconSize || cfg.Height != iconSize {
		t.Errorf("icon is %dx%d", cfg.Width, cfg.Height)
	}
}

func TestWrapICO(t *testing.T) {
	payload := []byte("pngdata")
	ico := wrapICO(payload, 32)
	if len(ico) != 22+len(payload) {
		t.Fatalf("ico length %d", len(ico))
	}
	if binary.LittleEndian.Uint16(ico[2:]) != 1 || binary.LittleEndian.Uint16(ico[4:]) != 1 {
		t.Error("bad ICO header")
	}
	if ico[6] != 32 || binary.LittleEndian.Uint32(ico[18:]) != 22 {
		t.Error("bad directory entry")
	}
	if !bytes.Equal(ico[22:], payload) {
		t.Error("payload not appended")
	}
}
