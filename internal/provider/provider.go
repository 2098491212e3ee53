// Package provider defines the translation capability the chain depends on.
package provider

import "context"

// Client is a single provider connection. Callers close it after each use.
type Client interface {
	Translate(ctx context.Context, text, src, dest string) (string, error)
	Detect(ctx context.Context, text string) (string, error)
	Close() error
}

// Factory opens a new Client.
type Factory func(ctx context.Context) (Client, error)
