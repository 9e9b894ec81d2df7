package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func completionBody(content string) string {
	b, _ := json.Marshal(map[string]any{
		"id":      "gen-1",
		"object":  "chat.completion",
		"created": 1,
		"model":   "test_model",
		"choices": []map[string]any{{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]any{"role": "assistant", "content": content},
		}},
	})
	return string(b)
}

type recorded struct {
	path string
	auth string
	body map[string]any
}

func newServer(t *testing.T, content string, rec *recorded) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.path = r.URL.Path
		rec.auth = r.Header.Get("Authorization")
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &rec.body)
		w.Header().Set("Content-Type", "application/json")
		if strings.HasSuffix(r.URL.Path, "/models") {
			_, _ = io.WriteString(w, `{"object":"list","data":[]}`)
			return
		}
		_, _ = io.WriteString(w, completionBody(content))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNewVisionEngineValidation(t *testing.T) {
	if _, err := NewVisionEngine(Config{Model: "m"}); err == nil {
		t.Error("Expected error with missing API key")
	}
	if _, err := NewVisionEngine(Config{APIKey: "k"}); err == nil {
		t.Error("Expected error with missing model")
	}
}

func TestRecognizeSendsImageAndReturnsText(t *testing.T) {
	var rec recorded
	srv := newServer(t, "Hello\nworld</image>", &rec)

	e, err := NewVisionEngine(Config{
		APIKey:    "test_api_key",
		Model:     "test_model",
		Providers: []string{"fireworks"},
		BaseURL:   srv.URL + "/",
	})
	if err != nil {
		t.Fatal(err)
	}

	text, err := e.Recognize(context.Background(), []byte{0x89, 'P', 'N', 'G'}, "eng")
	if err != nil {
		t.Fatalf("Recognize: %v", err)
	}
	if text != "Hello\nworld" {
		t.Errorf("text = %q", text)
	}
	if rec.path != "/chat/completions" {
		t.Errorf("path = %s", rec.path)
	}
	if rec.auth != "Bearer test_api_key" {
		t.Errorf("auth header = %q", rec.auth)
	}
	if rec.body["model"] != "test_model" {
		t.Errorf("model = %v", rec.body["model"])
	}
	provider, ok := rec.body["provider"].(map[string]any)
	if !ok || provider["allow_fallbacks"] != false {
		t.Errorf("provider preferences missing: %v", rec.body["provider"])
	}

	raw, _ := json.Marshal(rec.body["messages"])
	if !strings.Contains(string(raw), "data:image/png;base64,iVBORw") {
		t.Errorf("image data URL missing from request: %s", raw)
	}
}

func TestRecognizeNoTextMarkerIsEmpty(t *testing.T) {
	var rec recorded
	srv := newServer(t, "NO_TEXT_FOUND", &rec)

	e, _ := NewVisionEngine(Config{APIKey: "k", Model: "m", BaseURL: srv.URL + "/"})
	text, err := e.Recognize(context.Background(), []byte{1}, "eng")
	if err != nil {
		t.Fatalf("Recognize: %v", err)
	}
	if text != "" {
		t.Errorf("text = %q, want empty", text)
	}
	if _, ok := rec.body["provider"]; ok {
		t.Error("provider preferences sent without configured providers")
	}
}

func TestRecognizeServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error":{"message":"bad key","type":"auth","code":401}}`)
	}))
	defer srv.Close()

	e, _ := NewVisionEngine(Config{APIKey: "k", Model: "m", BaseURL: srv.URL + "/"})
	if _, err := e.Recognize(context.Background(), []byte{1}, "eng"); err == nil {
		t.Fatal("expected error from 401 response")
	}
}

func TestPing(t *testing.T) {
	var rec recorded
	srv := newServer(t, "", &rec)
	e, _ := NewVisionEngine(Config{APIKey: "k", Model: "m", BaseURL: srv.URL + "/"})
	if err := e.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if rec.path != "/models" {
		t.Errorf("path = %s", rec.path)
	}
}

func TestCleanExtractedText(t *testing.T) {
	tests := map[string]string{
		"</image>":          "",
		"abc</image>":       "abc",
		"line1\nline2\n\n":  "line1\nline2",
		"no tags at all":    "no tags at all",
	}
	for in, want := range tests {
		if got := cleanExtractedText(in); got != want {
			t.Errorf("cleanExtractedText(%q) = %q, want %q", in, got, want)
		}
	}
}
