package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/GT-610/chaos-translator/internal/auth"
	"github.com/GT-610/chaos-translator/internal/chain"
	"github.com/GT-610/chaos-translator/internal/logger"
	"github.com/GT-610/chaos-translator/internal/pipeline"
)

const summaryPreviewLen = 50

var (
	isTerminal   = term.IsTerminal
	getKey       = auth.GetKey
	getEnvKey    = auth.GetEnvKey
	getStatus    = auth.GetStatus
	saveKey      = auth.SaveKey
	deleteKey    = auth.DeleteKey
	promptForKey = func(prompt string) (string, error) { return auth.PromptForAPIKey(os.Stderr, prompt) }
	runChain     = pipeline.RunChain
)

// resolveAPIKey handles the logic for finding the Gemini API key.
func resolveAPIKey(allowEnv, envOnly bool) (string, auth.Source, error) {
	if envOnly {
		if key, ok := getEnvKey(); ok {
			return key, auth.SourceEnv, nil
		}
		return "", auth.SourceNone, fmt.Errorf("env-only set but %s is not set", auth.EnvVar)
	}

	if key, source := getKey(false); key != "" {
		return key, source, nil
	}

	if allowEnv {
		if key, ok := getEnvKey(); ok {
			return key, auth.SourceEnv, nil
		}
	}

	if isTerminal(int(os.Stdin.Fd())) {
		key, err := promptForKey("Gemini API Key (press Enter to skip): ")
		if err != nil {
			return "", auth.SourceNone, fmt.Errorf("error reading API key: %w", err)
		}
		if key = strings.TrimSpace(key); key != "" {
			return key, "Terminal Prompt", nil
		}
		if allowEnv {
			return "", auth.SourceNone, fmt.Errorf("API key is required; not found in keychain or environment")
		}
		return "", auth.SourceNone, fmt.Errorf("API key is required; not found in keychain (environment disabled by default; use --allow-env)")
	}
	return "", auth.SourceNone, fmt.Errorf("no API key available (non-interactive shell); run 'chaos env setup' or use --allow-env")
}

// printSummary writes the final report of a chain run.
func printSummary(w io.Writer, res pipeline.ChainResult) {
	rule := strings.Repeat("=", 50)
	fmt.Fprintln(w)
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "Status: %s\n", res.Status)
	fmt.Fprintf(w, "Iterations: %d/%d\n", res.Completed, res.Iterations)
	if res.Resumed {
		fmt.Fprintf(w, "Resumed from: iteration %d, %s\n", res.ResumedFrom, chain.Preview(res.Original, summaryPreviewLen))
	} else {
		fmt.Fprintf(w, "Original text: %s\n", chain.Preview(res.Original, summaryPreviewLen))
	}
	if res.Finished() {
		fmt.Fprintf(w, "Final result: %s\n", res.Text)
		fmt.Fprintf(w, "Language path: %s\n", strings.Join(res.Path, " → "))
	}
	if res.OutputPath != "" {
		fmt.Fprintf(w, "Saved to: %s\n", res.OutputPath)
	}
	if res.CheckpointPath != "" && !res.Finished() {
		fmt.Fprintf(w, "Checkpoint: %s (continue with --resume %s)\n", res.CheckpointPath, res.CheckpointPath)
	}
	fmt.Fprintln(w, rule)
}

func signalContext() (context.Context, func()) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			logger.Warn("Cancellation requested")
			cancel()
		case <-ctx.Done():
		}
	}()
	stop := func() {
		signal.Stop(sigCh)
		cancel()
	}
	return ctx, stop
}
