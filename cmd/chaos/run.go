package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/GT-610/chaos-translator/internal/apperrors"
	"github.com/GT-610/chaos-translator/internal/auth"
	"github.com/GT-610/chaos-translator/internal/cleanup"
	"github.com/GT-610/chaos-translator/internal/config"
	"github.com/GT-610/chaos-translator/internal/files"
	"github.com/GT-610/chaos-translator/internal/logger"
	"github.com/GT-610/chaos-translator/internal/pipeline"
	"github.com/GT-610/chaos-translator/internal/prompt"
	"github.com/GT-610/chaos-translator/internal/translator"
)

type runOptions struct {
	iterations          int
	sourceLang          string
	inputPath           string
	outputPath          string
	resumePath          string
	provider            string
	model               string
	maxRetries          int
	checkpointDir       string
	checkpointEveryStep bool
	paceMin             time.Duration
	paceMax             time.Duration
	seed                int64
	yes                 bool
	logFilePath         string
	debug               bool
	allowEnv            bool
	envOnly             bool
	proxy               string
	rpm                 int

	envErr error
}

func newRunCmd(defaults config.Defaults, envErr error) *cobra.Command {
	opts := runOptions{envErr: envErr}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a translation chain (same as the root flags)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranslateChain(cmd, &opts)
		},
		SilenceUsage: true,
	}
	cmd.SetUsageTemplate(subcommandUsageTemplate)
	addRunFlags(cmd, &opts, defaults)
	return cmd
}

func addRunFlags(cmd *cobra.Command, opts *runOptions, d config.Defaults) {
	f := cmd.Flags()
	f.IntVarP(&opts.iterations, "iterations", "i", 0, "Number of translation hops (>= 1, required)")
	f.StringVarP(&opts.sourceLang, "src-lang", "s", "", "Source language code, e.g. en (required)")
	f.StringVarP(&opts.inputPath, "file", "f", "", "UTF-8 text file to translate (required unless --resume)")
	f.StringVarP(&opts.outputPath, "output", "o", "", "Also write the final text to this file")
	f.StringVarP(&opts.resumePath, "resume", "r", "", "Resume from a checkpoint file")
	f.StringVar(&opts.provider, "provider", d.Provider, "Translation provider (google or gemini)")
	f.StringVar(&opts.model, "model", d.Model, "Gemini model name (gemini provider only)")
	f.IntVar(&opts.maxRetries, "max-retries", d.MaxRetries, "Attempts per hop before the chain aborts (1-10)")
	f.StringVar(&opts.checkpointDir, "checkpoint-dir", d.CheckpointDir, "Directory for checkpoint files")
	f.BoolVar(&opts.checkpointEveryStep, "checkpoint-every-step", d.CheckpointEveryStep, "Save a checkpoint after every hop")
	f.DurationVar(&opts.paceMin, "pace-min", d.PaceMin, "Minimum pause between hops")
	f.DurationVar(&opts.paceMax, "pace-max", d.PaceMax, "Maximum pause between hops")
	f.Int64Var(&opts.seed, "seed", 0, "Random seed for hop selection (0 = random)")
	f.BoolVarP(&opts.yes, "yes", "y", false, "Overwrite output file without asking")
	f.StringVar(&opts.logFilePath, "log-file", "", "Path to save machine-readable JSONL logs")
	f.BoolVar(&opts.debug, "debug", false, "Enable debug logging with per-hop text previews")
	f.BoolVar(&opts.allowEnv, "allow-env", false, "Allow reading the API key from "+auth.EnvVar)
	f.BoolVar(&opts.envOnly, "env-only", false, "Use only environment variables for the API key")
	f.StringVar(&opts.proxy, "proxy", d.Proxy, "HTTP proxy for the google provider")
	f.IntVar(&opts.rpm, "rpm", d.RequestsPerMinute, "Maximum provider requests per minute (0 = unlimited)")
}

func runTranslateChain(cmd *cobra.Command, opts *runOptions) error {
	if opts.envErr != nil {
		return fmt.Errorf("invalid %s environment: %w", config.Prefix+"*", opts.envErr)
	}
	if opts.iterations < 1 {
		return fmt.Errorf("--iterations must be at least 1")
	}
	if opts.sourceLang == "" {
		return fmt.Errorf("--src-lang is required")
	}
	if opts.inputPath == "" && opts.resumePath == "" {
		return fmt.Errorf("--file is required unless --resume is given")
	}

	logLevel := logger.LevelInfo
	if opts.debug {
		logLevel = logger.LevelDebug
	}
	var logFileW io.Writer
	if opts.logFilePath != "" {
		if err := files.RejectSymlinkPath(opts.logFilePath); err != nil {
			return err
		}
		f, err := os.OpenFile(opts.logFilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		cleanup.Register(f.Close)
		logFileW = f
	}
	logger.Init(logLevel, logFileW)

	cfg := pipeline.Config{
		InputPath:           opts.inputPath,
		OutputPath:          opts.outputPath,
		LogPath:             opts.logFilePath,
		ResumePath:          opts.resumePath,
		CheckpointDir:       opts.checkpointDir,
		CheckpointEveryStep: opts.checkpointEveryStep,
		Provider:            strings.ToLower(strings.TrimSpace(opts.provider)),
		Model:               opts.model,
		Proxy:               opts.proxy,
		SourceLang:          opts.sourceLang,
		Iterations:          opts.iterations,
		MaxRetries:          opts.maxRetries,
		PaceMin:             opts.paceMin,
		PaceMax:             opts.paceMax,
		Seed:                opts.seed,
		RequestsPerMinute:   opts.rpm,
		Overwrite:           opts.yes,
		OnAttempt: func(p translator.Progress) {
			if p.State == translator.StateRetrying {
				logger.Warn("Hop retry", "attempt", p.Attempt, "max_attempts", p.MaxAttempts, "delay", p.Delay, "error", apperrors.PublicMessage(p.Error))
			}
		},
		OnConfirmOverwrite: func(path string) bool {
			confirmed, err := prompt.DefaultConfirmer().ConfirmOverwrite(path, opts.yes)
			if err != nil {
				logger.Error("Overwrite confirmation failed", "error", err)
				return false
			}
			return confirmed
		},
	}

	if cfg.Provider == pipeline.ProviderGemini {
		key, source, err := resolveAPIKey(opts.allowEnv, opts.envOnly)
		if err != nil {
			return err
		}
		logger.Info("Using API Key", "service", "gemini", "source", source)
		cfg.APIKey = key
	}

	ctx, stop := signalContext()
	defer stop()
	result, err := runChain(ctx, cfg)
	if err != nil {
		return err
	}
	if result.Status != pipeline.ChainStatusSkipped {
		printSummary(cmd.OutOrStdout(), result)
	}
	return chainStatusError(result)
}

func chainStatusError(result pipeline.ChainResult) error {
	switch result.Status {
	case pipeline.ChainStatusSuccess, pipeline.ChainStatusAlreadyComplete, pipeline.ChainStatusSkipped:
		return nil
	case pipeline.ChainStatusCanceled:
		logger.Warn("Chain canceled", "completed", result.Completed, "total", result.Iterations)
		return nil
	case pipeline.ChainStatusFailure:
		msg := "translation chain failed"
		if result.Err != nil {
			msg += ": " + apperrors.PublicMessage(result.Err)
		}
		if result.CheckpointPath != "" {
			return fmt.Errorf("%s (checkpoint: %s)", msg, result.CheckpointPath)
		}
		return errors.New(msg)
	default:
		return fmt.Errorf("translation chain finished with unknown status: %q", result.Status)
	}
}
