// Package google adapts the public Google Translate web endpoint to provider.Client.
package google

import (
	"context"
	"fmt"
	"strings"

	translator "github.com/Conight/go-googletrans"

	"github.com/GT-610/chaos-translator/internal/apperrors"
	"github.com/GT-610/chaos-translator/internal/provider"
)

// detectProbeTarget is the destination used for detection requests; only the reported source matters.
const detectProbeTarget = "en"

// Config configures the Google adapter.
type Config struct {
	Proxy       string
	ServiceURLs []string
}

type engine interface {
	Translate(origin, src, dest string) (*translator.Translated, error)
}

// Client is a single connection to the translate endpoint.
type Client struct {
	eng engine
}

// NewFactory returns a provider.Factory that opens a fresh Client per call.
func NewFactory(cfg Config) provider.Factory {
	return func(ctx context.Context) (provider.Client, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		tc := translator.Config{Proxy: strings.TrimSpace(cfg.Proxy)}
		if len(cfg.ServiceURLs) > 0 {
			tc.ServiceUrls = cfg.ServiceURLs
		}
		return &Client{eng: translator.New(tc)}, nil
	}
}

// Translate translates text from src to dest.
func (c *Client) Translate(ctx context.Context, text, src, dest string) (string, error) {
	res, err := c.call(ctx, text, src, dest)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(res.Text) == "" {
		return "", apperrors.New(apperrors.KindTransient, "Translation service returned an empty result.", fmt.Errorf("empty translation"))
	}
	return res.Text, nil
}

// Detect reports the language code the endpoint identifies for text.
func (c *Client) Detect(ctx context.Context, text string) (string, error) {
	res, err := c.call(ctx, text, "auto", detectProbeTarget)
	if err != nil {
		return "", err
	}
	code := strings.ToLower(strings.TrimSpace(res.Src))
	if code == "" {
		return "", apperrors.New(apperrors.KindTransient, "Language detection returned no result.", fmt.Errorf("empty source language"))
	}
	return code, nil
}

// Close is a no-op; the underlying client holds no persistent connection.
func (c *Client) Close() error { return nil }

type callResult struct {
	res *translator.Translated
	err error
}

// call runs the blocking request and gives up when ctx is done.
func (c *Client) call(ctx context.Context, text, src, dest string) (*translator.Translated, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	done := make(chan callResult, 1)
	go func() {
		res, err := c.eng.Translate(text, src, dest)
		done <- callResult{res: res, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-done:
		if r.err != nil {
			return nil, classify(r.err)
		}
		if r.res == nil {
			return nil, apperrors.New(apperrors.KindTransient, "Translation service returned no result.", fmt.Errorf("nil response"))
		}
		return r.res, nil
	}
}

func classify(err error) error {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "429") || strings.Contains(msg, "too many requests"):
		return apperrors.RateLimit(err)
	case strings.Contains(msg, "403") || strings.Contains(msg, "forbidden"):
		return apperrors.New(apperrors.KindAuth, "Translation service refused the request.", err)
	default:
		return apperrors.Transient(err)
	}
}
