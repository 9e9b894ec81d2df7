//go:build !cgo

package ocr

import (
	"context"
	"errors"
)

// ErrTesseractUnavailable is returned by builds without cgo.
var ErrTesseractUnavailable = errors.New("tesseract support requires a cgo build")

type Tesseract struct{}

func NewTesseract() (*Tesseract, error) {
	return nil, ErrTesseractUnavailable
}

func (t *Tesseract) Recognize(context.Context, []byte, string) (string, error) {
	return "", ErrTesseractUnavailable
}

func (t *Tesseract) Version() string { return "" }

func (t *Tesseract) Close() error { return nil }
