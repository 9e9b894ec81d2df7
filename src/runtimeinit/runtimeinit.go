package runtimeinit

import (
	"context"
	"fmt"
	"log"
	"time"

	"region-ocr/src/clipboard"
	"region-ocr/src/config"
	"region-ocr/src/dpi"
	"region-ocr/src/llm"
	"region-ocr/src/logutil"
	"region-ocr/src/ocr"
)

const pingTimeout = 15 * time.Second

type Options struct {
	LoadOptions  config.LoadOptions
	SetupLogging func(bool)
	// SkipClipboard is set by headless callers that never copy.
	SkipClipboard bool
	// PingLLM verifies the OpenRouter key before the engine is accepted.
	PingLLM bool
}

// Runtime is what a successful bootstrap produces.
type Runtime struct {
	Config *config.Config
	Engine ocr.Engine
	close  []func() error
}

// Close releases engine resources.
func (r *Runtime) Close() {
	for i := len(r.close) - 1; i >= 0; i-- {
		if err := r.close[i](); err != nil {
			log.Printf("runtime: close: %v", err)
		}
	}
	r.close = nil
}

// Step is one named stage of startup.
type Step struct {
	Name string
	Run  func(ctx context.Context, rt *Runtime) error
}

// Steps returns the startup sequence in order.
func Steps(opts Options) []Step {
	steps := []Step{
		{Name: "config", Run: func(_ context.Context, rt *Runtime) error {
			cfg, err := config.LoadWithOptions(opts.LoadOptions)
			if err != nil {
				return err
			}
			rt.Config = cfg
			return nil
		}},
		{Name: "logging", Run: func(_ context.Context, rt *Runtime) error {
			if opts.SetupLogging != nil {
				opts.SetupLogging(rt.Config.EnableFileLogging)
			}
			return nil
		}},
		{Name: "dpi", Run: func(context.Context, *Runtime) error { return dpi.Enable() }},
	}
	if !opts.SkipClipboard {
		steps = append(steps, Step{Name: "clipboard", Run: func(context.Context, *Runtime) error {
			return clipboard.Init()
		}})
	}
	return append(steps, Step{Name: "ocr-engine", Run: func(ctx context.Context, rt *Runtime) error {
		return buildEngine(ctx, rt, opts.PingLLM)
	}})
}

// Run executes steps in order and stops at the first failure.
func Run(ctx context.Context, steps []Step, rt *Runtime) error {
	for _, s := range steps {
		start := time.Now()
		if err := s.Run(ctx, rt); err != nil {
			return fmt.Errorf("startup step %q failed: %w", s.Name, err)
		}
		log.Printf("startup: %s ok (%v)", s.Name, time.Since(start).Round(time.Millisecond))
	}
	return nil
}

// Bootstrap runs the default startup sequence.
func Bootstrap(ctx context.Context, opts Options) (*Runtime, error) {
	rt := &Runtime{}
	if err := Run(ctx, Steps(opts), rt); err != nil {
		rt.Close()
		return nil, err
	}
	return rt, nil
}

func buildEngine(ctx context.Context, rt *Runtime, ping bool) error {
	cfg := rt.Config
	if err := cfg.Validate(); err != nil {
		return err
	}

	switch cfg.Engine {
	case config.EngineLLM:
		log.Printf("ocr: using OpenRouter model %s (key %s)", cfg.Model, logutil.RedactKey(cfg.APIKey))
		engine, err := llm.NewVisionEngine(llm.DefaultConfig(cfg.APIKey, cfg.Model, cfg.Providers))
		if err != nil {
			return err
		}
		if ping {
			pctx, cancel := context.WithTimeout(ctx, pingTimeout)
			defer cancel()
			if err := engine.Ping(pctx); err != nil {
				return fmt.Errorf("LLM unavailable: %w", err)
			}
			log.Printf("LLM ping succeeded")
		}
		rt.Engine = engine
	default:
		t, err := ocr.NewTesseract()
		if err != nil {
			return err
		}
		log.Printf("ocr: using tesseract %s", t.Version())
		rt.Engine = t
		rt.close = append(rt.close, t.Close)
	}
	return nil
}
