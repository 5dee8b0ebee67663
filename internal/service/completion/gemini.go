package completion

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/synapsocial/synapsocial/internal/apperr"
	"github.com/synapsocial/synapsocial/internal/model"
	"google.golang.org/genai"
)

// Gemini calls the Gemini API directly through the genai SDK.
type Gemini struct {
	apiKey string

	once   sync.Once
	client *genai.Client
	err    error
}

// NewGemini returns a provider whose SDK client is created on first use.
func NewGemini(apiKey string) *Gemini {
	return &Gemini{apiKey: strings.TrimSpace(apiKey)}
}

func (g *Gemini) Name() string {
	return ProviderGemini
}

func (g *Gemini) init(ctx context.Context) (*genai.Client, error) {
	g.once.Do(func() {
		g.client, g.err = genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  g.apiKey,
			Backend: genai.BackendGeminiAPI,
		})
	})
	return g.client, g.err
}

func (g *Gemini) Complete(ctx context.Context, req Request) (string, error) {
	if g.apiKey == "" {
		return "", apperr.Configuration("GEMINI_API_KEY is not set")
	}
	if req.Model == "" {
		return "", apperr.Configuration("no model configured for completion")
	}

	client, err := g.init(ctx)
	if err != nil {
		return "", apperr.Configuration("create genai client: %v", err)
	}

	var cfg genai.GenerateContentConfig
	if req.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxTokens)
	}

	contents := []*genai.Content{genai.NewContentFromParts(geminiParts(req.Parts), genai.RoleUser)}

	resp, err := client.Models.GenerateContent(ctx, geminiModel(req.Model), contents, &cfg)
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			return "", apperr.Upstream("gemini", "generate content", apiErr.Code, apiErr.Message, nil)
		}
		return "", apperr.Transport(ctx, "gemini", "generate content", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", apperr.Upstream("gemini", "generate content", 0, "empty content", nil)
	}
	return text, nil
}

func geminiParts(parts []model.Part) []*genai.Part {
	out := make([]*genai.Part, 0, len(parts))
	for _, p := range parts {
		if p.IsInline() {
			out = append(out, genai.NewPartFromBytes(p.Data, p.MimeType))
			continue
		}
		out = append(out, genai.NewPartFromText(p.Text))
	}
	return out
}

// geminiModel strips an OpenRouter vendor prefix ("google/gemini-...").
func geminiModel(name string) string {
	if i := strings.LastIndex(name, "/"); i != -1 {
		return name[i+1:]
	}
	return name
}

