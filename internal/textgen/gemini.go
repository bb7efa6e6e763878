package textgen

import (
	"context"
	"sync"

	"google.golang.org/genai"

	"github.com/gamedex/gamedex/pkg/errors"
)

// Gemini generates text through the Google Gemini API. The underlying
// client is created lazily and reused across calls.
type Gemini struct {
	apiKey string
	model  string

	mu     sync.Mutex
	client *genai.Client
}

// NewGemini creates a Gemini backend for the given API key and model.
func NewGemini(apiKey, model string) *Gemini {
	return &Gemini{apiKey: apiKey, model: model}
}

// Name identifies the backend for logging.
func (g *Gemini) Name() string { return "gemini" }

// Generate sends the prompt and returns the concatenated text response.
func (g *Gemini) Generate(ctx context.Context, prompt string) (string, error) {
	client, err := g.getClient(ctx)
	if err != nil {
		return "", err
	}

	resp, err := client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return "", errors.WrapAPI("gemini", 0, err)
	}

	text := resp.Text()
	if text == "" {
		return "", errors.NewAPIError("gemini", 0, "empty response")
	}
	return text, nil
}

// getClient returns the cached client, creating it on first use.
func (g *Gemini) getClient(ctx context.Context) (*genai.Client, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.client != nil {
		return g.client, nil
	}

	if g.apiKey == "" {
		return nil, &errors.ConfigError{
			Component: "generator",
			Message:   "no API key configured - set GEMINI_API_KEY or GAMEDEX_GENERATOR_API_KEY",
		}
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  g.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, &errors.ConfigError{Component: "generator", Message: "failed to create client", Err: err}
	}

	g.client = client
	return client, nil
}
