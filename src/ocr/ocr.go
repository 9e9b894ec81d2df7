package ocr

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
)

// DefaultLanguage is the only recognition language the tool offers.
const DefaultLanguage = "eng"

// ErrRecognition wraps every failure reported by an engine.
var ErrRecognition = errors.New("recognition failed")

// Engine turns an encoded image into text.
type Engine interface {
	Recognize(ctx context.Context, image []byte, lang string) (string, error)
}

// EngineFunc adapts a function to the Engine interface.
type EngineFunc func(ctx context.Context, image []byte, lang string) (string, error)

func (f EngineFunc) Recognize(ctx context.Context, image []byte, lang string) (string, error) {
	return f(ctx, image, lang)
}

// Adapter invokes an engine with the fixed language and normalizes its errors.
type Adapter struct {
	engine Engine
}

func NewAdapter(engine Engine) *Adapter {
	return &Adapter{engine: engine}
}

// Recognize returns the text found in image. An empty string means the region
// holds no text and is not an error.
func (a *Adapter) Recognize(ctx context.Context, image []byte) (string, error) {
	if a == nil || a.engine == nil {
		return "", fmt.Errorf("%w: no engine configured", ErrRecognition)
	}
	if len(image) == 0 {
		return "", fmt.Errorf("%w: empty image", ErrRecognition)
	}

	text, err := a.engine.Recognize(ctx, image, DefaultLanguage)
	if err != nil {
		if errors.Is(err, ErrRecognition) {
			return "", err
		}
		return "", fmt.Errorf("%w: %w", ErrRecognition, err)
	}
	log.Printf("ocr: recognized %d characters", len(text))
	return strings.TrimRight(text, "\n"), nil
}
