package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/GT-610/chaos-translator/internal/auth"
)

func newEnvCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "env",
		Short: "Manage the Gemini API key in the OS keychain",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEnvStatus(cmd)
		},
	}
	cmd.SetUsageTemplate(subcommandUsageTemplate)
	cmd.AddCommand(
		&cobra.Command{
			Use:   "setup",
			Short: "Save API key to keychain (prompt only)",
			Args:  cobra.NoArgs,
			RunE:  func(cmd *cobra.Command, args []string) error { return runEnvSetup(cmd) },
		},
		&cobra.Command{
			Use:   "delete",
			Short: "Delete key from keychain",
			Args:  cobra.NoArgs,
			RunE:  func(cmd *cobra.Command, args []string) error { return runEnvDelete(cmd) },
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show key status (default if no action given)",
			Args:  cobra.NoArgs,
			RunE:  func(cmd *cobra.Command, args []string) error { return runEnvStatus(cmd) },
		},
	)
	for _, sub := range cmd.Commands() {
		sub.SetUsageTemplate(subcommandUsageTemplate)
	}
	return cmd
}

func runEnvSetup(cmd *cobra.Command) error {
	key, err := promptForKey("Gemini API Key: ")
	if err != nil {
		return fmt.Errorf("error reading key: %w", err)
	}
	if key == "" {
		return fmt.Errorf("API key is required for setup")
	}
	if err := saveKey(key); err != nil {
		return fmt.Errorf("error saving key: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Saved Gemini API key to keychain.")
	return nil
}

func runEnvDelete(cmd *cobra.Command) error {
	if err := deleteKey(); err != nil {
		return fmt.Errorf("error deleting key: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Deleted Gemini API key from keychain.")
	return nil
}

func runEnvStatus(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()
	if getStatus() {
		fmt.Fprintf(out, "Gemini API Key: Found (source=%s)\n", auth.SourceKeychain)
		return nil
	}
	if _, ok := getEnvKey(); ok {
		fmt.Fprintf(out, "Gemini API Key: Found (source=%s; disabled by default, use --allow-env)\n", auth.SourceEnv)
		return nil
	}
	fmt.Fprintln(out, "Gemini API Key: Not Found (keychain empty, env not set)")
	fmt.Fprintln(out, "The default google provider needs no key.")
	return nil
}
