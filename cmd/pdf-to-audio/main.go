// main package for the pdf-to-audio command.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"
	"time"

	"github.com/book-expert/logger"
	"github.com/spf13/cobra"

	"github.com/book-expert/pdf-to-audio/internal/artifacts"
	"github.com/book-expert/pdf-to-audio/internal/config"
	"github.com/book-expert/pdf-to-audio/internal/extract"
	"github.com/book-expert/pdf-to-audio/internal/fsutil"
	"github.com/book-expert/pdf-to-audio/internal/ocr"
	"github.com/book-expert/pdf-to-audio/internal/pipeline"
	"github.com/book-expert/pdf-to-audio/internal/tts"
)

// Flag names.
const (
	flagConfig        = "config"
	flagTextDir       = "text-dir"
	flagAudioDir      = "audio-dir"
	flagLanguage      = "language"
	flagParallel      = "parallel"
	flagWorkers       = "workers"
	flagRetryDelay    = "retry-delay"
	flagMaxRetries    = "max-retries"
	flagMinTextLength = "min-text-length"
)

const logFileName = "pdf-to-audio.log"

// Static errors.
var (
	ErrNoPDFFiles    = errors.New("no PDF files found in input directory")
	ErrFilesFailed   = errors.New("one or more files failed to convert")
	ErrInputDirEmpty = errors.New("input directory must be provided")
)

func main() {
	err := newRootCommand().Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newRootCommand builds the cobra root command and its flags.
func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pdf-to-audio [input-dir]",
		Short: "Convert a folder of PDF documents into spoken-word audio files",
		Long: "pdf-to-audio extracts the text of every PDF in a folder (falling back " +
			"to OCR for image-only pages), saves it, and synthesizes it into MP3 " +
			"audio with retry handling for rate limits.",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          run,
	}

	flags := cmd.Flags()
	flags.String(flagConfig, "", "path to a TOML configuration file")
	flags.String(flagTextDir, "", "directory for extracted text files")
	flags.String(flagAudioDir, "", "directory for synthesized audio files")
	flags.String(flagLanguage, "", "language for text-to-speech conversion")
	flags.Bool(flagParallel, false, "process files in parallel")
	flags.Int(flagWorkers, 0, "worker count for parallel processing (default: CPU count)")
	flags.Int(flagRetryDelay, 0, "initial delay in seconds before retrying synthesis")
	flags.Int(flagMaxRetries, 0, "maximum synthesis attempts per chunk")
	flags.Int(flagMinTextLength, 0, "page text length below which OCR is used")

	return cmd
}

// run is the main application entry point, returning an error on failure.
func run(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup(cmd)
	if err != nil {
		return err
	}
	defer log.Close()

	applyFlagOverrides(cmd, cfg, args)

	err = cfg.EnsureDirectories()
	if err != nil {
		log.Error("Failed to create directories: %v", err)

		return fmt.Errorf("failed to create directories: %w", err)
	}

	pdfPaths, err := discoverPDFs(cfg.Paths.InputDir)
	if err != nil {
		log.Error("Input discovery failed: %v", err)

		return err
	}

	log.Info("Found %d PDF files in %s", len(pdfPaths), cfg.Paths.InputDir)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return convert(ctx, cfg, log, pdfPaths)
}

// setup loads configuration and initializes the logger, following the
// bootstrap-then-final logger pattern.
func setup(cmd *cobra.Command) (*config.Config, *logger.Logger, error) {
	bootstrapLog, err := logger.New(os.TempDir(), "pdf-to-audio-bootstrap.log")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create bootstrap logger: %w", err)
	}

	cfg, err := loadConfig(cmd, bootstrapLog)
	if err != nil {
		bootstrapLog.Error("Failed to load configuration: %v", err)

		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	closeErr := bootstrapLog.Close()
	if closeErr != nil {
		fmt.Fprintf(os.Stderr, "error closing bootstrap logger: %v\n", closeErr)
	}

	err = fsutil.EnsureDir(cfg.Paths.BaseLogsDir)
	if err != nil {
		return nil, nil, err
	}

	log, err := logger.New(cfg.Paths.BaseLogsDir, logFileName)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return cfg, log, nil
}

// loadConfig resolves configuration in priority order: explicit --config
// file, then the environment-driven configurator, then built-in defaults.
func loadConfig(cmd *cobra.Command, log *logger.Logger) (*config.Config, error) {
	configPath, err := cmd.Flags().GetString(flagConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to read --config flag: %w", err)
	}

	if configPath != "" {
		return config.LoadFile(configPath)
	}

	if os.Getenv("PROJECT_TOML") != "" {
		return config.Load(log)
	}

	return config.Default(), nil
}

// applyFlagOverrides layers explicit command-line flags over the loaded
// configuration.
func applyFlagOverrides(cmd *cobra.Command, cfg *config.Config, args []string) {
	if len(args) > 0 {
		cfg.Paths.InputDir = args[0]
	}

	flags := cmd.Flags()

	if value, err := flags.GetString(flagTextDir); err == nil && flags.Changed(flagTextDir) {
		cfg.Paths.TextDir = value
	}

	if value, err := flags.GetString(flagAudioDir); err == nil && flags.Changed(flagAudioDir) {
		cfg.Paths.AudioDir = value
	}

	if value, err := flags.GetString(flagLanguage); err == nil && flags.Changed(flagLanguage) {
		cfg.TTS.Language = value
	}

	if value, err := flags.GetInt(flagRetryDelay); err == nil && flags.Changed(flagRetryDelay) {
		cfg.Retry.BaseDelaySeconds = value
	}

	if value, err := flags.GetInt(flagMaxRetries); err == nil && flags.Changed(flagMaxRetries) {
		cfg.Retry.MaxAttempts = value
	}

	if value, err := flags.GetInt(flagMinTextLength); err == nil && flags.Changed(flagMinTextLength) {
		cfg.OCR.MinTextLength = value
	}

	parallel, parallelErr := flags.GetBool(flagParallel)
	workers, workersErr := flags.GetInt(flagWorkers)

	switch {
	case workersErr == nil && flags.Changed(flagWorkers):
		cfg.Pipeline.Workers = workers
	case parallelErr == nil && !parallel:
		// Sequential unless --parallel or an explicit worker count is given.
		cfg.Pipeline.Workers = 1
	}
}

// discoverPDFs lists the PDF files in the input directory, sorted by name.
func discoverPDFs(inputDir string) ([]string, error) {
	if inputDir == "" {
		return nil, ErrInputDirEmpty
	}

	entries, err := os.ReadDir(inputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read input directory %s: %w", inputDir, err)
	}

	var pdfPaths []string

	for _, entry := range entries {
		if entry.IsDir() || !fsutil.IsPDFFile(entry.Name()) {
			continue
		}

		pdfPaths = append(pdfPaths, filepath.Join(inputDir, entry.Name()))
	}

	if len(pdfPaths) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoPDFFiles, inputDir)
	}

	sort.Strings(pdfPaths)

	return pdfPaths, nil
}

// convert wires the pipeline components together and runs them over the
// discovered files.
func convert(ctx context.Context, cfg *config.Config, log *logger.Logger, pdfPaths []string) error {
	ocrEngine := ocr.NewTesseractEngine(cfg.OCR.Language)

	defer func() {
		closeErr := ocrEngine.Close()
		if closeErr != nil {
			log.Warn("Failed to close OCR engine: %v", closeErr)
		}
	}()

	extractor := extract.New(ocrEngine, cfg.OCR.MinTextLength, log)

	client := tts.NewClient(
		cfg.TTS.Endpoint,
		cfg.TTS.Language,
		time.Duration(cfg.TTS.TimeoutSeconds)*time.Second,
	)

	policy := tts.RetryPolicy{
		MaxAttempts: cfg.Retry.MaxAttempts,
		BaseDelay:   time.Duration(cfg.Retry.BaseDelaySeconds) * time.Second,
		Multiplier:  cfg.Retry.Multiplier,
	}

	engine := tts.NewEngine(client, policy, cfg.TTS.MaxChunkChars, log)

	textStore, err := artifacts.New(cfg.Paths.TextDir)
	if err != nil {
		return fmt.Errorf("failed to open text store: %w", err)
	}

	audioStore, err := artifacts.New(cfg.Paths.AudioDir)
	if err != nil {
		return fmt.Errorf("failed to open audio store: %w", err)
	}

	converter := pipeline.New(extractor, engine, textStore, audioStore, cfg.Pipeline.Workers, log)

	results, err := converter.Run(ctx, pdfPaths)
	if err != nil {
		return fmt.Errorf("pipeline run failed: %w", err)
	}

	converter.Report(results)

	failures := pipeline.FailureCount(results)
	if failures > 0 {
		return fmt.Errorf("%w: %d of %d", ErrFilesFailed, failures, len(results))
	}

	return nil
}
