package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"github.com/spf13/cobra"

	"region-ocr/src/clipboard"
	"region-ocr/src/config"
	"region-ocr/src/hotkey"
	"region-ocr/src/logutil"
	"region-ocr/src/ocr"
	"region-ocr/src/overlay"
	"region-ocr/src/runtimeinit"
	"region-ocr/src/singleinstance"
	"region-ocr/src/tray"
)

const appID = "io.github.region-ocr"

type mainOptions struct {
	apiKeyPath string
	engine     string
	envPath    string
	open       bool
}

func main() {
	opts := &mainOptions{}
	cmd := newRootCmd(opts)
	cmd.SetArgs(normalizeLegacyArgs(os.Args)[1:])
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd(opts *mainOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "region-ocr",
		Short:         "Select a screen region and extract its text",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApp(*opts)
		},
	}

	cmd.Flags().StringVar(&opts.apiKeyPath, "api-key-path", "", "Path to API key file (highest precedence)")
	cmd.Flags().StringVar(&opts.engine, "engine", "", "OCR engine: tesseract or llm (overrides OCR_ENGINE)")
	cmd.Flags().StringVar(&opts.envPath, "env", "", "Path to a .env file")
	cmd.Flags().BoolVar(&opts.open, "open", false, "Open the selection overlay immediately")
	return cmd
}

// normalizeLegacyArgs maps single-dash long flags to their double-dash form.
func normalizeLegacyArgs(args []string) []string {
	if len(args) == 0 {
		return []string{"region-ocr"}
	}
	out := make([]string, len(args))
	copy(out, args)
	for i := 1; i < len(out); i++ {
		arg := out[i]
		if strings.HasPrefix(arg, "--") || !strings.HasPrefix(arg, "-") {
			continue
		}
		name, _, _ := strings.Cut(arg[1:], "=")
		switch name {
		case "api-key-path", "engine", "env", "open":
			out[i] = "-" + arg
		}
	}
	return out
}

func runApp(opts mainOptions) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	delegated, err := singleinstance.RequestOpen(ctx)
	if delegated {
		if err != nil {
			return fmt.Errorf("resident instance: %w", err)
		}
		log.Printf("Asked the running instance to open its overlay")
		return nil
	}

	rt, err := runtimeinit.Bootstrap(ctx, runtimeinit.Options{
		LoadOptions: config.LoadOptions{
			APIKeyPathOverride: opts.apiKeyPath,
			EngineOverride:     opts.engine,
			EnvPath:            opts.envPath,
		},
		SetupLogging: logutil.Setup,
		PingLLM:      true,
	})
	if err != nil {
		return err
	}
	defer rt.Close()
	cfg := rt.Config

	combo, err := hotkey.Parse(cfg.Hotkey)
	if err != nil {
		return err
	}

	a := app.NewWithID(appID)
	// The overlay windows come and go; this one keeps the app alive between them.
	control := a.NewWindow("Region OCR")
	control.SetMaster()

	mgr := overlay.NewManager(overlay.Options{
		App:         a,
		Recognizer:  ocr.NewAdapter(rt.Engine),
		Clipboard:   clipboard.System{},
		Deadline:    time.Duration(cfg.OCRDeadlineSec) * time.Second,
		DebugImages: cfg.DebugSaveImages,
	})
	open := func() {
		if err := mgr.Open(); err != nil && !errors.Is(err, overlay.ErrActive) {
			log.Printf("overlay: %v", err)
		}
	}

	srv, err := singleinstance.Listen(func() bool {
		fyne.Do(open)
		return true
	})
	if err != nil {
		return fmt.Errorf("another instance is already running: %w", err)
	}
	defer srv.Close()
	go srv.Serve(ctx)

	hotkey.Listen(ctx, combo, func() { fyne.Do(open) })
	tray.Start(tray.Menu{
		Tooltip:   fmt.Sprintf("Region OCR - Press %s to capture", combo),
		OnCapture: func() { fyne.Do(open) },
		OnQuit:    func() { fyne.Do(a.Quit) },
	})
	defer tray.Quit()

	go func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-ch:
			fyne.Do(a.Quit)
		case <-ctx.Done():
		}
	}()

	if opts.open {
		a.Lifecycle().SetOnStarted(open)
	}

	log.Printf("Region OCR ready: engine=%s hotkey=%s deadline=%ds", cfg.Engine, combo, cfg.OCRDeadlineSec)
	a.Run()
	log.Printf("Region OCR exiting")
	return nil
}
