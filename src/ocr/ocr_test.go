package ocr

import (
	"context"
	"errors"
	"testing"
)

func TestAdapterUsesDefaultLanguage(t *testing.T) {
	var gotLang string
	a := NewAdapter(EngineFunc(func(_ context.Context, img []byte, lang string) (string, error) {
		gotLang = lang
		return "Hello\nworld\n", nil
	}))

	text, err := a.Recognize(context.Background(), []byte{1, 2, 3})
	if err != nil {
		t.Fatalf("Recognize: %v", err)
	}
	if gotLang != "eng" {
		t.Errorf("lang = %q, want eng", gotLang)
	}
	if text != "Hello\nworld" {
		t.Errorf("text = %q", text)
	}
}

func TestAdapterEmptyTextIsNotAnError(t *testing.T) {
	a := NewAdapter(EngineFunc(func(context.Context, []byte, string) (string, error) {
		return "", nil
	}))
	text, err := a.Recognize(context.Background(), []byte{1})
	if err != nil || text != "" {
		t.Fatalf("got (%q, %v), want empty text and no error", text, err)
	}
}

func TestAdapterWrapsEngineErrors(t *testing.T) {
	cause := errors.New("worker crashed")
	a := NewAdapter(EngineFunc(func(context.Context, []byte, string) (string, error) {
		return "", cause
	}))

	_, err := a.Recognize(context.Background(), []byte{1})
	if !errors.Is(err, ErrRecognition) {
		t.Fatalf("err = %v, want ErrRecognition", err)
	}
	if !errors.Is(err, cause) {
		t.Errorf("cause lost: %v", err)
	}
}

func TestAdapterRejectsMissingInput(t *testing.T) {
	if _, err := NewAdapter(nil).Recognize(context.Background(), []byte{1}); !errors.Is(err, ErrRecognition) {
		t.Errorf("nil engine: err = %v", err)
	}

	a := NewAdapter(EngineFunc(func(context.Context, []byte, string) (string, error) {
		t.Fatal("engine must not be called for an empty image")
		return "", nil
	}))
	if _, err := a.Recognize(context.Background(), nil); !errors.Is(err, ErrRecognition) {
		t.Errorf("empty image: err = %v", err)
	}
}
