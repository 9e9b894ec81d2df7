package llm

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared/constant"
)

const (
	openRouterURL  = "https://openrouter.ai/api/v1/"
	maxRetries     = 3
	requestTimeout = 45 * time.Second
	noTextMarker   = "NO_TEXT_FOUND"

	prompt = "Perform OCR on this image. Return ONLY the raw extracted text with:\n" +
		"- No formatting\n" +
		"- No XML/HTML tags\n" +
		"- No markdown\n" +
		"- No explanations\n" +
		"- Preserve line breaks accurately from the visual layout.\n" +
		"If no text found, return '" + noTextMarker + "'"
)

type Config struct {
	APIKey    string
	Model     string
	Providers []string
	// BaseURL defaults to OpenRouter.
	BaseURL    string
	MaxRetries int
}

// VisionEngine recognizes text by sending the image to a vision model through
// the OpenRouter chat completions API.
type VisionEngine struct {
	client openai.Client
	cfg    Config
}

func NewVisionEngine(cfg Config) (*VisionEngine, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("API key is required")
	}
	if cfg.Model == "" {
		return nil, errors.New("model is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = openRouterURL
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(cfg.BaseURL),
		option.WithMaxRetries(cfg.MaxRetries),
		option.WithRequestTimeout(requestTimeout),
		option.WithHeader("X-Title", "Region OCR"),
	}
	if len(cfg.Providers) > 0 {
		opts = append(opts, option.WithJSONSet("provider", map[string]any{
			"order":           cfg.Providers,
			"allow_fallbacks": false,
		}))
	}

	return &VisionEngine{client: openai.NewClient(opts...), cfg: cfg}, nil
}

// DefaultConfig returns a config with the retry budget used in production.
func DefaultConfig(apiKey, model string, providers []string) Config {
	return Config{APIKey: apiKey, Model: model, Providers: providers, MaxRetries: maxRetries}
}

// Recognize implements ocr.Engine. The language hint is passed to the model
// only when it is not English.
func (e *VisionEngine) Recognize(ctx context.Context, image []byte, lang string) (string, error) {
	text := prompt
	if lang != "" && lang != "eng" {
		text += "\nThe text language is '" + lang + "'."
	}

	imageURL := "data:image/png;base64," + base64.StdEncoding.EncodeToString(image)
	parts := []openai.ChatCompletionContentPartUnionParam{
		{
			OfText: &openai.ChatCompletionContentPartTextParam{
				Type: constant.Text("text"),
				Text: text,
			},
		},
		{
			OfImageURL: &openai.ChatCompletionContentPartImageParam{
				Type: constant.ImageURL("image_url"),
				ImageURL: openai.ChatCompletionContentPartImageImageURLParam{
					URL:    imageURL,
					Detail: "high",
				},
			},
		},
	}

	params := openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{{
			OfUser: &openai.ChatCompletionUserMessageParam{
				Content: openai.ChatCompletionUserMessageParamContentUnion{
					OfArrayOfContentParts: parts,
				},
			},
		}},
	}
	params.Model = e.cfg.Model
	params.Temperature = openai.Float(0.1)
	params.MaxTokens = openai.Int(2000)

	start := time.Now()
	completion, err := e.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("vision request: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", errors.New("no choices in API response")
	}
	log.Printf("llm: model=%s completed in %v", e.cfg.Model, time.Since(start))

	extracted := strings.TrimSpace(completion.Choices[0].Message.Content)
	if extracted == "" || extracted == noTextMarker {
		return "", nil
	}
	return cleanExtractedText(extracted), nil
}

// Ping verifies the key and endpoint by listing models.
func (e *VisionEngine) Ping(ctx context.Context) error {
	if _, err := e.client.Models.List(ctx); err != nil {
		return fmt.Errorf("ping %s: %w", e.cfg.BaseURL, err)
	}
	return nil
}

// cleanExtractedText removes stray image tags some models append.
func cleanExtractedText(text string) string {
	text = strings.TrimSuffix(text, "</image>")
	return strings.TrimRight(text, " \t\r\n")
}
