package pipeline

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/GT-610/chaos-translator/internal/apperrors"
	"github.com/GT-610/chaos-translator/internal/chain"
	"github.com/GT-610/chaos-translator/internal/checkpoint"
	"github.com/GT-610/chaos-translator/internal/files"
	"github.com/GT-610/chaos-translator/internal/gemini"
	"github.com/GT-610/chaos-translator/internal/google"
	"github.com/GT-610/chaos-translator/internal/language"
	"github.com/GT-610/chaos-translator/internal/logger"
	"github.com/GT-610/chaos-translator/internal/provider"
	"github.com/GT-610/chaos-translator/internal/translator"
)

// RunChain executes a full translation chain, fresh or resumed.
func RunChain(ctx context.Context, cfg Config) (ChainResult, error) {
	var notes []string
	cfg, notes = cfg.Normalize()
	for _, note := range notes {
		logger.Warn("Config normalized", "detail", note)
	}
	if err := cfg.Validate(); err != nil {
		return ChainResult{}, fmt.Errorf("invalid configuration: %w", err)
	}

	catalog := language.Default()
	if !catalog.Has(cfg.SourceLang) {
		return ChainResult{}, apperrors.UnknownLanguage(cfg.SourceLang)
	}

	// 1. Output path checks
	shouldOverwrite := cfg.Overwrite
	outputExists := false
	if cfg.OutputPath != "" {
		if err := checkDistinct(cfg.InputPath, cfg.OutputPath); err != nil {
			return ChainResult{}, err
		}
		if err := files.RejectSymlinkPath(cfg.OutputPath); err != nil {
			return ChainResult{}, err
		}
		if _, err := os.Stat(cfg.OutputPath); err == nil {
			outputExists = true
			if cfg.OnConfirmOverwrite != nil {
				shouldOverwrite = cfg.OnConfirmOverwrite(cfg.OutputPath)
			}
			if !shouldOverwrite {
				logger.Info("Output file exists. Aborted by user.", "path", cfg.OutputPath)
				return ChainResult{Status: ChainStatusSkipped, Iterations: cfg.Iterations}, nil
			}
			logger.Info("Overwriting output file", "path", cfg.OutputPath)
		}
	}

	// 2. Load input or checkpoint
	var (
		original string
		cp       *checkpoint.Checkpoint
		cpPath   string
	)
	if cfg.ResumePath != "" {
		loaded, err := checkpoint.Load(cfg.ResumePath)
		if err != nil {
			return ChainResult{}, fmt.Errorf("failed to load checkpoint: %w", err)
		}
		cp = loaded
		cpPath = cfg.ResumePath
		original = cp.Text
		logger.Info("Loaded checkpoint", "path", cpPath, "iteration", cp.Iteration, "total", cfg.Iterations)
	} else {
		text, err := LoadInput(cfg.InputPath)
		if err != nil {
			return ChainResult{}, err
		}
		original = text
		cpPath = checkpoint.PathFor(cfg.CheckpointDir, cfg.SourceLang, cfg.Iterations)
		if cfg.CheckpointDir != "" {
			if err := os.MkdirAll(cfg.CheckpointDir, 0755); err != nil {
				return ChainResult{}, fmt.Errorf("failed to create checkpoint directory: %w", err)
			}
		}
		if _, err := os.Stat(cpPath); err == nil {
			logger.Warn("Existing checkpoint will be replaced; use --resume to continue it", "path", cpPath)
		}
		logger.Info("Loaded input text", "path", cfg.InputPath, "chars", utf8.RuneCountInString(text))
	}

	// 3. Provider & translator
	open, err := providerFactory(cfg)
	if err != nil {
		return ChainResult{}, err
	}
	trOpts := []translator.Option{
		translator.WithMaxRetries(cfg.MaxRetries),
		translator.WithRequestsPerMinute(cfg.RequestsPerMinute),
	}
	if cfg.BaseDelay > 0 {
		trOpts = append(trOpts, translator.WithBaseDelay(cfg.BaseDelay))
	}
	if cfg.OnAttempt != nil {
		trOpts = append(trOpts, translator.WithProgress(cfg.OnAttempt))
	}
	tr, err := translator.New(open, trOpts...)
	if err != nil {
		return ChainResult{}, fmt.Errorf("failed to initialize translator: %w", err)
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	orchOpts := []chain.Option{
		chain.WithRand(rand.New(rand.NewSource(seed))),
		chain.WithPacing(cfg.PaceMin, cfg.PaceMax),
		chain.WithCheckpoint(cpPath, cfg.CheckpointEveryStep),
	}
	if cfg.Sleep != nil {
		orchOpts = append(orchOpts, chain.WithSleeper(cfg.Sleep))
	}
	if cfg.OnStep != nil {
		orchOpts = append(orchOpts, chain.WithStepCallback(cfg.OnStep))
	}
	orch := chain.New(catalog, tr, orchOpts...)

	// 4. Run
	logger.Info("Starting translation chain", "provider", cfg.Provider, "iterations", cfg.Iterations, "source", cfg.SourceLang)
	var res chain.Result
	if cp != nil {
		res, err = orch.Resume(ctx, cp, cfg.SourceLang, cfg.Iterations)
	} else {
		res, err = orch.Run(ctx, original, cfg.SourceLang, cfg.Iterations)
	}
	if err != nil {
		return ChainResult{}, err
	}

	result := ChainResult{
		Status:         chainStatus(res.Status),
		Original:       original,
		Resumed:        cp != nil,
		Text:           res.Text,
		Path:           res.PathStrings(),
		Iterations:     cfg.Iterations,
		Completed:      res.Completed,
		CheckpointPath: res.CheckpointPath,
		Err:            res.Err,
	}
	if cp != nil {
		result.ResumedFrom = cp.Iteration
	}
	logger.Info("Translation chain finished", "status", result.Status, "completed", result.Completed, "total", result.Iterations)

	// 5. Output
	if !result.Finished() || cfg.OutputPath == "" {
		return result, nil
	}
	effectiveOutputPath := cfg.OutputPath
	if !(outputExists && shouldOverwrite) {
		safePath, changed, err := files.SafePath(cfg.OutputPath)
		if err != nil {
			return result, fmt.Errorf("failed to resolve output path: %w", err)
		}
		if changed {
			logger.Warn("Output path adjusted to avoid overwrite", "original", cfg.OutputPath, "effective", safePath)
			effectiveOutputPath = safePath
		}
	}
	if err := files.AtomicWrite(effectiveOutputPath, []byte(result.Text+"\n"), 0644); err != nil {
		return result, fmt.Errorf("failed to save output file: %w", err)
	}
	result.OutputPath = effectiveOutputPath
	logger.Info("Saved result", "path", effectiveOutputPath)
	return result, nil
}

// LoadInput reads a UTF-8 text file and trims surrounding whitespace.
func LoadInput(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read input file: %w", err)
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("input file is not valid UTF-8: %s", path)
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", fmt.Errorf("input file is empty: %s", path)
	}
	return text, nil
}

func providerFactory(cfg Config) (provider.Factory, error) {
	if cfg.Factory != nil {
		return cfg.Factory, nil
	}
	switch cfg.Provider {
	case ProviderGoogle:
		return google.NewFactory(google.Config{Proxy: cfg.Proxy}), nil
	case ProviderGemini:
		return gemini.NewFactory(gemini.Config{APIKey: cfg.APIKey, Model: cfg.Model}), nil
	default:
		return nil, fmt.Errorf("unsupported provider %q", cfg.Provider)
	}
}

func checkDistinct(inputPath, outputPath string) error {
	if inputPath == "" {
		return nil
	}
	absIn, err := filepath.Abs(inputPath)
	if err != nil {
		return fmt.Errorf("failed to resolve input path: %w", err)
	}
	absOut, err := filepath.Abs(outputPath)
	if err != nil {
		return fmt.Errorf("failed to resolve output path: %w", err)
	}
	if absIn == absOut {
		return fmt.Errorf("input and output files are the same (%s)", absIn)
	}
	inInfo, err := os.Stat(absIn)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to stat input path: %w", err)
	}
	outInfo, err := os.Stat(absOut)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to stat output path: %w", err)
	}
	if os.SameFile(inInfo, outInfo) {
		return fmt.Errorf("input and output files are the same (%s)", absIn)
	}
	return nil
}
