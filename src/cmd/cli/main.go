package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/spf13/cobra"

	"region-ocr/src/capture"
	"region-ocr/src/config"
	"region-ocr/src/geometry"
	"region-ocr/src/ocr"
	"region-ocr/src/runtimeinit"
	"region-ocr/src/screenshot"
)

const (
	maxFileSizeMB = 10
	maxFileSize   = maxFileSizeMB * 1024 * 1024
)

var pngMagic = []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a}

type cliOptions struct {
	filePath   string
	screen     bool
	rect       string
	dpr        float64
	engine     string
	jsonOutput bool
	verbose    bool
	apiKeyPath string
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	return runWithArgs(normalizeLegacyArgs(os.Args))
}

func runWithArgs(args []string) error {
	if len(args) == 0 {
		args = []string{"region-ocr-cli"}
	}

	opts := &cliOptions{}
	cmd := newRootCmd(opts)
	cmd.SetArgs(args[1:])
	return cmd.Execute()
}

func newRootCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "region-ocr-cli",
		Short:         "Recognize text in an image file or a screen region",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithOptions(cmd.Context(), *opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.filePath, "file", "", "Path to image file (use '-' for stdin)")
	cmd.Flags().BoolVar(&opts.screen, "screen", false, "Capture from the live desktop instead of a file")
	cmd.Flags().StringVar(&opts.rect, "rect", "", "Region to crop as left,top,width,height in CSS pixels")
	cmd.Flags().Float64Var(&opts.dpr, "dpr", geometry.DefaultDPR, "Device pixel ratio of the source image")
	cmd.Flags().StringVar(&opts.engine, "engine", "", "OCR engine: tesseract or llm (overrides OCR_ENGINE)")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output results as JSON")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose output to stderr")
	cmd.Flags().StringVar(&opts.apiKeyPath, "api-key-path", "", "Path to API key file (highest precedence)")
	cmd.MarkFlagsMutuallyExclusive("file", "screen")
	cmd.MarkFlagsOneRequired("file", "screen")

	return cmd
}

func runWithOptions(ctx context.Context, opts cliOptions, stdout io.Writer) error {
	// Configure logging BEFORE any other operations.
	if !opts.verbose {
		log.SetOutput(io.Discard)
	} else {
		log.SetOutput(os.Stderr)
		fmt.Fprintf(os.Stderr, "[verbose] Starting OCR tool\n")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	in, err := resolveInput(opts)
	if err != nil {
		return err
	}

	rt, err := runtimeinit.Bootstrap(ctx, runtimeinit.Options{
		LoadOptions: config.LoadOptions{
			APIKeyPathOverride: opts.apiKeyPath,
			EngineOverride:     opts.engine,
		},
		SkipClipboard: true,
	})
	if err != nil {
		return err
	}
	defer rt.Close()

	if opts.verbose {
		fmt.Fprintf(os.Stderr, "[verbose] Engine: %s\n", rt.Config.Engine)
	}

	res, err := recognize(ctx, in, ocr.NewAdapter(rt.Engine))
	if err != nil {
		return err
	}
	if opts.verbose {
		fmt.Fprintf(os.Stderr, "[verbose] OCR completed in %.2fs, extracted %d characters\n", res.Duration, res.CharCount)
	}
	return outputResult(stdout, res, opts.jsonOutput)
}

// input is what the pipeline reads: either encoded PNG bytes sent as-is, or a
// renderer plus the region to crop from it.
type input struct {
	source   string
	png      []byte
	renderer capture.Renderer
	region   capture.Region
}

func resolveInput(opts cliOptions) (*input, error) {
	var rect geometry.Rect
	if opts.rect != "" {
		r, err := parseRect(opts.rect)
		if err != nil {
			return nil, err
		}
		rect = r
	}
	region := capture.Region{Rect: rect, DPR: opts.dpr}

	if opts.screen {
		if opts.rect == "" {
			return nil, errors.New("--screen requires --rect")
		}
		return &input{source: "screen", renderer: screenshot.Desktop(), region: region}, nil
	}

	if opts.rect == "" {
		data, err := readImage(opts.filePath)
		if err != nil {
			return nil, err
		}
		if err := validatePNG(data); err != nil {
			return nil, err
		}
		return &input{source: opts.filePath, png: data}, nil
	}

	if opts.filePath == "-" {
		data, err := readImage("-")
		if err != nil {
			return nil, err
		}
		return &input{source: "-", renderer: bytesRenderer(data), region: region}, nil
	}
	return &input{source: opts.filePath, renderer: capture.FileRenderer(opts.filePath), region: region}, nil
}

func readImage(path string) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(io.LimitReader(os.Stdin, maxFileSize+1))
		if err != nil {
			return nil, fmt.Errorf("failed to read from stdin: %w", err)
		}
	} else {
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read file %s: %w", path, err)
		}
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("input file is empty")
	}
	if len(data) > maxFileSize {
		return nil, fmt.Errorf("input file exceeds maximum size of %d MB", maxFileSizeMB)
	}
	return data, nil
}

func bytesRenderer(data []byte) capture.Renderer {
	return capture.RendererFunc(func(context.Context) (image.Image, error) {
		return imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	})
}

func validatePNG(data []byte) error {
	if len(data) < len(pngMagic) || !bytes.Equal(data[:len(pngMagic)], pngMagic) {
		return fmt.Errorf("input is not a valid PNG file (invalid magic number)")
	}
	return nil
}

// parseRect reads "left,top,width,height".
func parseRect(s string) (geometry.Rect, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return geometry.Rect{}, fmt.Errorf("invalid --rect %q: want left,top,width,height", s)
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return geometry.Rect{}, fmt.Errorf("invalid --rect %q: %w", s, err)
		}
		v[i] = f
	}
	if v[2] <= 0 || v[3] <= 0 {
		return geometry.Rect{}, fmt.Errorf("invalid --rect %q: width and height must be positive", s)
	}
	return geometry.Rect{Left: v[0], Top: v[1], Width: v[2], Height: v[3]}, nil
}

type OCRResult struct {
	Text      string  `json:"text"`
	Source    string  `json:"source"`
	Region    *Region `json:"region,omitempty"`
	Timestamp string  `json:"timestamp"`
	Duration  float64 `json:"duration_seconds"`
	CharCount int     `json:"character_count"`
}

type Region struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	DPR    float64 `json:"dpr"`
}

type recognizer interface {
	Recognize(ctx context.Context, image []byte) (string, error)
}

func recognize(ctx context.Context, in *input, rec recognizer) (*OCRResult, error) {
	start := time.Now()
	res := &OCRResult{Source: in.source}

	data := in.png
	if in.renderer != nil {
		c, err := capture.NewEngine(in.renderer).CaptureRegion(ctx, in.region)
		if err != nil {
			return nil, err
		}
		if data, err = c.PNG(); err != nil {
			return nil, err
		}
		r := c.Region.Rect
		res.Region = &Region{Left: r.Left, Top: r.Top, Width: r.Width, Height: r.Height, DPR: c.Region.DPR}
	}

	text, err := rec.Recognize(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("OCR failed: %w", err)
	}
	res.Text = text
	res.CharCount = len([]rune(text))
	res.Duration = time.Since(start).Seconds()
	res.Timestamp = time.Now().UTC().Format(time.RFC3339)
	return res, nil
}

func outputResult(w io.Writer, res *OCRResult, jsonOutput bool) error {
	if !jsonOutput {
		_, err := fmt.Fprint(w, res.Text)
		return err
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(res); err != nil {
		return fmt.Errorf("failed to encode JSON output: %w", err)
	}
	return nil
}

func normalizeLegacyArgs(args []string) []string {
	if len(args) == 0 {
		return args
	}

	normalized := make([]string, len(args))
	copy(normalized, args)

	for i := 1; i < len(normalized); i++ {
		arg := normalized[i]
		if strings.HasPrefix(arg, "--") || !strings.HasPrefix(arg, "-") {
			continue
		}
		name, _, _ := strings.Cut(arg[1:], "=")
		switch name {
		case "file", "screen", "rect", "dpr", "engine", "json", "verbose", "api-key-path":
			normalized[i] = "-" + arg
		}
	}

	return normalized
}
