package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	DefaultAPIKeyPath = "/run/secrets/api_keys/openrouter"
	APIKeyPathEnvVar  = "OPENROUTER_API_KEY_FILE"
	AltEnvPathEnvVar  = "REGION_OCR_ENV"
	DefaultHotkey     = "Ctrl+Alt+T"

	EngineTesseract = "tesseract"
	EngineLLM       = "llm"
)

// LoadOptions carries command-line overrides that win over the environment.
type LoadOptions struct {
	APIKeyPathOverride string
	EngineOverride     string
	// EnvPath replaces .env discovery when set.
	EnvPath string
}

type Config struct {
	Engine            string
	APIKey            string
	APIKeyPath        string
	Model             string
	Providers         []string
	EnableFileLogging bool
	Hotkey            string
	// OCRDeadlineSec bounds one capture and recognition. Zero means unbounded.
	OCRDeadlineSec    int
	DebugSaveImages   bool
}

func Load() (*Config, error) {
	return LoadWithOptions(LoadOptions{})
}

func LoadWithOptions(opts LoadOptions) (*Config, error) {
	// Sources in priority order:
	// 1) .env in the executable directory
	// 2) otherwise the file named by REGION_OCR_ENV
	envPath := opts.EnvPath
	if envPath == "" {
		envPath = resolveEnvPath()
	}
	dotenvValues := readDotenvValues(envPath)
	if envPath != "" {
		_ = godotenv.Load(envPath)
	}

	var providers []string
	for _, provider := range strings.Split(os.Getenv("PROVIDERS"), ",") {
		if trimmed := strings.TrimSpace(provider); trimmed != "" {
			providers = append(providers, trimmed)
		}
	}

	ocrDeadlineSec := 0
	if v := os.Getenv("OCR_DEADLINE_SEC"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("OCR_DEADLINE_SEC must be a non-negative integer, got %q", v)
		}
		ocrDeadlineSec = n
	}

	engine, err := resolveEngine(opts)
	if err != nil {
		return nil, err
	}

	apiKeyPath := resolveAPIKeyPath(opts, dotenvValues)

	return &Config{
		Engine:            engine,
		APIKey:            resolveAPIKey(apiKeyPath),
		APIKeyPath:        apiKeyPath,
		Model:             os.Getenv("MODEL"),
		Providers:         providers,
		EnableFileLogging: isTrue(os.Getenv("ENABLE_FILE_LOGGING")),
		Hotkey:            getEnvWithDefault("HOTKEY", DefaultHotkey),
		OCRDeadlineSec:    ocrDeadlineSec,
		DebugSaveImages:   isTrue(os.Getenv("OCR_DEBUG_SAVE_IMAGES")),
	}, nil
}

// Validate checks the settings the selected engine depends on.
func (c *Config) Validate() error {
	if c.Engine != EngineLLM {
		return nil
	}
	if c.APIKey == "" {
		return fmt.Errorf("OPENROUTER_API_KEY is required for the llm engine. Checked key file %s and OPENROUTER_API_KEY env var", c.APIKeyPath)
	}
	if c.Model == "" {
		return fmt.Errorf("MODEL is required for the llm engine. Please set it in your .env file")
	}
	return nil
}

func resolveEnvPath() string {
	if execPath, err := os.Executable(); err == nil {
		exeEnv := filepath.Join(filepath.Dir(execPath), ".env")
		if _, err := os.Stat(exeEnv); err == nil {
			return exeEnv
		}
	}

	if alt := os.Getenv(AltEnvPathEnvVar); alt != "" {
		if _, err := os.Stat(alt); err == nil {
			return alt
		}
	}

	return ""
}

func readDotenvValues(envPath string) map[string]string {
	if envPath == "" {
		return map[string]string{}
	}
	values, err := godotenv.Read(envPath)
	if err != nil {
		return map[string]string{}
	}
	return values
}

func resolveEngine(opts LoadOptions) (string, error) {
	value := os.Getenv("OCR_ENGINE")
	if override := strings.TrimSpace(opts.EngineOverride); override != "" {
		value = override
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", EngineTesseract:
		return EngineTesseract, nil
	case EngineLLM, "openrouter":
		return EngineLLM, nil
	default:
		return "", fmt.Errorf("unknown OCR engine %q (want %s or %s)", value, EngineTesseract, EngineLLM)
	}
}

func resolveAPIKeyPath(opts LoadOptions, dotenvValues map[string]string) string {
	keyPath := DefaultAPIKeyPath

	if envPath := strings.TrimSpace(os.Getenv(APIKeyPathEnvVar)); envPath != "" {
		keyPath = envPath
	}
	if dotenvPath := strings.TrimSpace(dotenvValues[APIKeyPathEnvVar]); dotenvPath != "" {
		keyPath = dotenvPath
	}
	if overridePath := strings.TrimSpace(opts.APIKeyPathOverride); overridePath != "" {
		keyPath = overridePath
	}

	return keyPath
}

func resolveAPIKey(keyPath string) string {
	if data, err := os.ReadFile(keyPath); err == nil {
		if fileKey := strings.TrimSpace(string(data)); fileKey != "" {
			return fileKey
		}
	}
	return os.Getenv("OPENROUTER_API_KEY")
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func isTrue(v string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	return err == nil && b
}
