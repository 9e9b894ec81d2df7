package tray

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"runtime"

	"github.com/disintegration/imaging"
)

const iconSize = 32

var (
	frameColor = color.NRGBA{R: 0x00, G: 0x78, B: 0xd4, A: 0xff}
	textColor  = color.NRGBA{R: 0x33, G: 0x33, B: 0x33, A: 0xff}
)

// Icon returns the tray icon: a selection frame around two text lines. The
// image is PNG, wrapped in an ICO container on Windows.
func Icon() ([]byte, error) {
	img := imaging.New(iconSize, iconSize, color.Transparent)

	// frame
	for i := 3; i < iconSize-3; i++ {
		for _, p := range []image.Point{{i, 3}, {i, iconSize - 4}, {3, i}, {iconSize - 4, i}} {
			if (p.X+p.Y)%4 != 0 {
				img.SetNRGBA(p.X, p.Y, frameColor)
			}
		}
	}
	// text lines
	img = imaging.Paste(img, imaging.New(18, 3, textColor), image.Pt(7, 11))
	img = imaging.Paste(img, imaging.New(12, 3, textColor), image.Pt(7, 18))

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, err
	}
	if runtime.GOOS == "windows" {
		return wrapICO(buf.Bytes(), iconSize), nil
	}
	return buf.Bytes(), nil
}

// wrapICO embeds a PNG in a single-image ICO file.
func wrapICO(pngData []byte, size int) []byte {
	var b bytes.Buffer
	_ = binary.Write(&b, binary.LittleEndian, [3]uint16{0, 1, 1}) // reserved, type icon, count
	entry := struct {
		Width, Height, Colors, Reserved uint8
		Planes, BitCount                uint16
		Size, Offset                    uint32
	}{
		Width:    uint8(size),
		Height:   uint8(size),
		Planes:   1,
		BitCount: 32,
		Size:     uint32(len(pngData)),
		Offset:   6 + 16,
	}
	_ = binary.Write(&b, binary.LittleEndian, entry)
	b.Write(pngData)
	return b.Bytes()
}
