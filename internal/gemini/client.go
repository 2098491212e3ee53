package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/GT-610/chaos-translator/internal/apperrors"
	"github.com/GT-610/chaos-translator/internal/provider"
)

const (
	DefaultModel = "gemini-2.0-flash"
	// DefaultTimeout bounds a single request; genai is not given a custom HTTP client.
	DefaultTimeout = 2 * time.Minute
)

const translateInstruction = `You are a translation engine. The user message is a JSON object with "text", "source_language" and "target_language" (ISO 639-1 codes, or "auto").
Translate "text" into the target language. Preserve line breaks. Do not explain.
Respond with a JSON object: {"translation": "<translated text>"}`

const detectInstruction = `You identify languages. The user message is a JSON object with "text".
Respond with a JSON object: {"language": "<lowercase ISO 639-1 code of the text>"}`

// Config configures the Gemini adapter.
type Config struct {
	APIKey string
	Model  string
}

// Client handles communication with the Gemini API.
type Client struct {
	client *genai.Client
	model  string
}

// NewFactory returns a provider.Factory that opens a new genai client per call.
func NewFactory(cfg Config) provider.Factory {
	return func(ctx context.Context) (provider.Client, error) {
		return NewClient(ctx, cfg.APIKey, cfg.Model)
	}
}

// NewClient creates a new Gemini client.
func NewClient(ctx context.Context, apiKey, modelName string) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, apperrors.New(apperrors.KindAuth, "Gemini API key is not set.", fmt.Errorf("empty api key"))
	}
	if strings.TrimSpace(modelName) == "" {
		modelName = DefaultModel
	}
	// option.WithHTTPClient breaks genai's API key header injection; timeouts go through ctx.
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, classifyGeminiError(err)
	}
	return &Client{client: client, model: modelName}, nil
}

// Close closes the underlying genai client.
func (c *Client) Close() error {
	return c.client.Close()
}

var _ provider.Client = (*Client)(nil)

// Translate translates text from src to dest.
func (c *Client) Translate(ctx context.Context, text, src, dest string) (string, error) {
	raw, err := c.generate(ctx, translateInstruction, translateRequest{Text: text, Source: src, Target: dest})
	if err != nil {
		return "", err
	}
	return parseTranslation(raw)
}

// Detect asks the model for the language code of text.
func (c *Client) Detect(ctx context.Context, text string) (string, error) {
	raw, err := c.generate(ctx, detectInstruction, detectRequest{Text: text})
	if err != nil {
		return "", err
	}
	return parseDetection(raw)
}

// generate returns the raw text of the model's reply.
func (c *Client) generate(ctx context.Context, instruction string, request any) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()

	requestJSON, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	model := c.client.GenerativeModel(c.model)
	model.ResponseMIMEType = "application/json"
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(instruction)}}

	resp, err := model.GenerateContent(ctx, genai.Text(string(requestJSON)))
	if err != nil {
		return "", classifyGeminiError(err)
	}
	text, err := extractResponseText(resp)
	if err != nil {
		return "", apperrors.Validation(err)
	}
	return text, nil
}

// parseTranslation rejects replies without a translation; an empty string would
// otherwise replace the chain text.
func parseTranslation(raw string) (string, error) {
	var out translateResponse
	if err := decodeResponse(raw, &out); err != nil {
		return "", apperrors.Validation(err)
	}
	if strings.TrimSpace(out.Translation) == "" {
		return "", apperrors.Validation(fmt.Errorf("empty translation in response"))
	}
	return out.Translation, nil
}

func parseDetection(raw string) (string, error) {
	var out detectResponse
	if err := decodeResponse(raw, &out); err != nil {
		return "", apperrors.Validation(err)
	}
	code := strings.ToLower(strings.TrimSpace(out.Language))
	if code == "" {
		return "", apperrors.Validation(fmt.Errorf("empty language in detection response"))
	}
	return code, nil
}

// decodeResponse tolerates a fenced code block around the JSON object.
func decodeResponse(text string, out any) error {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	}
	if err := json.Unmarshal([]byte(text), out); err != nil {
		// Omit the raw text; it may contain user content.
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}

func extractResponseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", fmt.Errorf("no response received from Gemini")
	}
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates returned from Gemini")
	}
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
			continue
		}
		var combined strings.Builder
		for _, part := range candidate.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				combined.WriteString(string(text))
			}
		}
		if combined.Len() > 0 {
			return combined.String(), nil
		}
	}
	return "", fmt.Errorf("no text parts found in Gemini response")
}
