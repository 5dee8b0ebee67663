// Package completion talks to the LLM that writes posts and replies.
// Every call is a single request with no retry.
package completion

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/synapsocial/synapsocial/internal/config"
	"github.com/synapsocial/synapsocial/internal/model"
)

const (
	ProviderOpenRouter = "openrouter"
	ProviderGemini     = "gemini"
)

// Request is one completion call.
type Request struct {
	System    string
	Parts     []model.Part
	Model     string
	MaxTokens int
}

// Provider is an LLM backend.
type Provider interface {
	Name() string
	Complete(ctx context.Context, req Request) (string, error)
}

// Result is the text produced for a prompt and the model that wrote it.
type Result struct {
	Text  string
	Model string
}

// Client picks the model and token budget for each prompt variant.
type Client struct {
	provider       Provider
	models         map[model.Variant]string
	maxTokens      int
	replyMaxTokens int
}

func NewClient(provider Provider, cfg *config.Config) *Client {
	return &Client{
		provider: provider,
		models: map[model.Variant]string{
			model.VariantMultimodal: cfg.AIModelMultimodal,
			model.VariantText:       cfg.AIModelText,
			model.VariantReply:      cfg.AIModelReply,
		},
		maxTokens:      cfg.AIMaxTokens,
		replyMaxTokens: cfg.AIReplyMaxTokens,
	}
}

func (c *Client) Complete(ctx context.Context, prompt model.Prompt) (Result, error) {
	variant := prompt.Variant
	if variant == "" {
		variant = model.VariantText
	}
	req := Request{
		System:    prompt.System,
		Parts:     prompt.Parts,
		Model:     c.models[variant],
		MaxTokens: c.maxTokens,
	}
	if variant == model.VariantReply {
		req.MaxTokens = c.replyMaxTokens
	}

	text, err := c.provider.Complete(ctx, req)
	if err != nil {
		return Result{}, err
	}

	slog.Debug("completion done", "provider", c.provider.Name(), "model", req.Model, "variant", variant, "chars", len(text))
	return Result{Text: strings.TrimSpace(text), Model: req.Model}, nil
}

// NewProvider creates the completion provider selected by AI_PROVIDER.
// A missing API key is not an error here; each call reports it instead.
func NewProvider(cfg *config.Config) (Provider, error) {
	provider := strings.ToLower(strings.TrimSpace(cfg.AIProvider))

	slog.Info("initializing completion provider", "provider", provider)

	switch provider {
	case ProviderOpenRouter, "":
		return NewOpenRouter(OpenRouterConfig{
			APIKey:  cfg.OpenRouterAPIKey,
			BaseURL: cfg.OpenRouterBaseURL,
			Referer: cfg.AIReferer,
			Title:   cfg.AppName,
			Timeout: cfg.AIRequestTimeout,
		}), nil

	case ProviderGemini:
		return NewGemini(cfg.GeminiAPIKey), nil

	default:
		return nil, fmt.Errorf("unknown AI provider: %s (supported: openrouter, gemini)", provider)
	}
}
