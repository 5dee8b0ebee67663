package completion

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/synapsocial/synapsocial/internal/apperr"
)

const (
	defaultOpenRouterURL = "https://openrouter.ai/api/v1/chat/completions"
	defaultTimeout       = 60 * time.Second
	maxDetailBytes       = 512
)

type OpenRouterConfig struct {
	APIKey  string
	BaseURL string
	Referer string
	Title   string
	Timeout time.Duration
}

// OpenRouter wraps the OpenRouter chat completion API.
type OpenRouter struct {
	cfg        OpenRouterConfig
	httpClient *http.Client
}

// Option customizes the client.
type Option func(*OpenRouter)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(o *OpenRouter) {
		if client != nil {
			o.httpClient = client
		}
	}
}

func NewOpenRouter(cfg OpenRouterConfig, opts ...Option) *OpenRouter {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	o := &OpenRouter{
		cfg: OpenRouterConfig{
			APIKey:  strings.TrimSpace(cfg.APIKey),
			BaseURL: strings.TrimSpace(cfg.BaseURL),
			Referer: strings.TrimSpace(cfg.Referer),
			Title:   strings.TrimSpace(cfg.Title),
			Timeout: timeout,
		},
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.cfg.BaseURL == "" {
		o.cfg.BaseURL = defaultOpenRouterURL
	}
	return o
}

func (o *OpenRouter) Name() string {
	return ProviderOpenRouter
}

type chatRequest struct {
	Model     string        `json:"model"`
	MaxTokens int           `json:"max_tokens,omitempty"`
	Messages  []chatMessage `json:"messages"`
}

// chatMessage content is a string or a list of contentPart.
type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *providerError `json:"error"`
}

type providerError struct {
	Message string `json:"message"`
	Code    any    `json:"code"`
}

func (o *OpenRouter) Complete(ctx context.Context, req Request) (string, error) {
	if o.cfg.APIKey == "" {
		return "", apperr.Configuration("OPENROUTER_API_KEY is not set")
	}
	if req.Model == "" {
		return "", apperr.Configuration("no model configured for completion")
	}

	payload := chatRequest{
		Model:     req.Model,
		MaxTokens: req.MaxTokens,
		Messages:  buildMessages(req),
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("openrouter: encode body: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.cfg.BaseURL, bytes.NewReader(encoded))
	if err != nil {
		return "", fmt.Errorf("openrouter: new request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+o.cfg.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")
	if o.cfg.Referer != "" {
		httpReq.Header.Set("HTTP-Referer", o.cfg.Referer)
	}
	if o.cfg.Title != "" {
		httpReq.Header.Set("X-Title", o.cfg.Title)
	}

	resp, err := o.httpClient.Do(httpReq)
	if err != nil {
		return "", apperr.Transport(ctx, "openrouter", "chat completion", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctx.Err() != nil {
			return "", apperr.Canceled("chat completion", err)
		}
		return "", apperr.Upstream("openrouter", "chat completion", resp.StatusCode, "read body", err)
	}

	var completion chatResponse
	decodeErr := json.Unmarshal(body, &completion)

	if resp.StatusCode >= http.StatusMultipleChoices {
		detail := snippet(body)
		if decodeErr == nil && completion.Error != nil && completion.Error.Message != "" {
			detail = completion.Error.Message
		}
		return "", apperr.Upstream("openrouter", "chat completion", resp.StatusCode, detail, nil)
	}
	if decodeErr != nil {
		return "", apperr.Upstream("openrouter", "chat completion", resp.StatusCode, "decode response", decodeErr)
	}
	if completion.Error != nil {
		return "", apperr.Upstream("openrouter", "chat completion", resp.StatusCode, completion.Error.Message, nil)
	}

	for _, choice := range completion.Choices {
		if content := strings.TrimSpace(choice.Message.Content); content != "" {
			return content, nil
		}
	}
	finish := ""
	if len(completion.Choices) > 0 {
		finish = completion.Choices[0].FinishReason
	}
	return "", apperr.Upstream("openrouter", "chat completion", resp.StatusCode, fmt.Sprintf("empty content (finish_reason=%q)", finish), nil)
}

func buildMessages(req Request) []chatMessage {
	var messages []chatMessage
	if req.System != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.System})
	}

	// A single text part goes over the wire as a plain string
	if len(req.Parts) == 1 && !req.Parts[0].IsInline() {
		return append(messages, chatMessage{Role: "user", Content: req.Parts[0].Text})
	}

	parts := make([]contentPart, 0, len(req.Parts))
	for _, p := range req.Parts {
		if p.IsInline() {
			url := "data:" + p.MimeType + ";base64," + base64.StdEncoding.EncodeToString(p.Data)
			parts = append(parts, contentPart{Type: "image_url", ImageURL: &imageURL{URL: url}})
			continue
		}
		parts = append(parts, contentPart{Type: "text", Text: p.Text})
	}
	return append(messages, chatMessage{Role: "user", Content: parts})
}

func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > maxDetailBytes {
		s = s[:maxDetailBytes] + "..."
	}
	return s
}
