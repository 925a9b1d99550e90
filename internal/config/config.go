// Package config provides the configuration structure for pdf-to-audio.
package config

import (
	"fmt"
	"os"
	"runtime"

	"github.com/book-expert/configurator"
	"github.com/book-expert/logger"
	"github.com/pelletier/go-toml/v2"
)

// Default values used when no configuration file is present.
const (
	DefaultTextDirName      = "output"
	DefaultAudioDirName     = "audio"
	DefaultLogsDirName      = "logs"
	DefaultLanguage         = "en"
	DefaultEndpoint         = "https://translate.google.com"
	DefaultTimeoutSeconds   = 30
	DefaultMaxChunkChars    = 100
	DefaultMaxAttempts      = 10
	DefaultBaseDelaySeconds = 5
	DefaultRetryMultiplier  = 2.0
	DefaultOCRLanguage      = "eng"
	DefaultMinTextLength    = 16
)

const dirPermissions = 0o750

// PathsConfig holds the configuration for file paths.
type PathsConfig struct {
	InputDir    string `toml:"input_dir"`
	TextDir     string `toml:"text_dir"`
	AudioDir    string `toml:"audio_dir"`
	BaseLogsDir string `toml:"base_logs_dir"`
}

// TTSConfig holds the configuration for the speech synthesis endpoint.
type TTSConfig struct {
	Language       string `toml:"language"`
	Endpoint       string `toml:"endpoint"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	MaxChunkChars  int    `toml:"max_chunk_chars"`
}

// RetryConfig holds the exponential backoff policy for synthesis requests.
type RetryConfig struct {
	MaxAttempts      int     `toml:"max_attempts"`
	BaseDelaySeconds int     `toml:"base_delay_seconds"`
	Multiplier       float64 `toml:"multiplier"`
}

// OCRConfig holds the configuration for the OCR fallback.
type OCRConfig struct {
	Language      string `toml:"language"`
	MinTextLength int    `toml:"min_text_length"`
}

// PipelineConfig holds the configuration for per-file fan-out.
type PipelineConfig struct {
	Workers int `toml:"workers"`
}

// Config is the root configuration structure.
type Config struct {
	Paths    PathsConfig    `toml:"paths"`
	TTS      TTSConfig      `toml:"tts"`
	Retry    RetryConfig    `toml:"retry"`
	OCR      OCRConfig      `toml:"ocr"`
	Pipeline PipelineConfig `toml:"pipeline"`
}

// Default returns a fully usable configuration with no file present.
func Default() *Config {
	return &Config{
		Paths: PathsConfig{
			InputDir:    ".",
			TextDir:     DefaultTextDirName,
			AudioDir:    DefaultAudioDirName,
			BaseLogsDir: DefaultLogsDirName,
		},
		TTS: TTSConfig{
			Language:       DefaultLanguage,
			Endpoint:       DefaultEndpoint,
			TimeoutSeconds: DefaultTimeoutSeconds,
			MaxChunkChars:  DefaultMaxChunkChars,
		},
		Retry: RetryConfig{
			MaxAttempts:      DefaultMaxAttempts,
			BaseDelaySeconds: DefaultBaseDelaySeconds,
			Multiplier:       DefaultRetryMultiplier,
		},
		OCR: OCRConfig{
			Language:      DefaultOCRLanguage,
			MinTextLength: DefaultMinTextLength,
		},
		Pipeline: PipelineConfig{
			Workers: runtime.NumCPU(),
		},
	}
}

// LoadFile loads configuration from an explicit TOML file, layered over the
// defaults so a partial file is valid.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %s: %w", path, err)
	}

	err = toml.Unmarshal(data, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %s: %w", path, err)
	}

	return cfg, nil
}

// Load loads configuration via the central configurator, which resolves the
// project TOML from the environment. This is the path used when pdf-to-audio
// runs inside a managed deployment rather than ad hoc from the shell.
func Load(log *logger.Logger) (*Config, error) {
	cfg := Default()

	err := configurator.Load(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration from configurator: %w", err)
	}

	return cfg, nil
}

// EnsureDirectories creates the text, audio, and log directories if missing.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.TextDir, c.Paths.AudioDir, c.Paths.BaseLogsDir}

	for _, dir := range dirs {
		err := os.MkdirAll(dir, dirPermissions)
		if err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}
