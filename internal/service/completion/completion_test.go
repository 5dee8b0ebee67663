package completion

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/synapsocial/synapsocial/internal/apperr"
	"github.com/synapsocial/synapsocial/internal/config"
	"github.com/synapsocial/synapsocial/internal/model"
)

func TestOpenRouterMissingKeyIsConfigurationError(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))
	defer srv.Close()

	client := NewOpenRouter(OpenRouterConfig{BaseURL: srv.URL})
	_, err := client.Complete(context.Background(), Request{Model: "m", Parts: []model.Part{{Text: "hi"}}})

	assert.ErrorIs(t, err, apperr.ErrConfiguration)
	assert.False(t, called, "no network call without a key")
}

func TestOpenRouterRequestShape(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		assert.Equal(t, "http://localhost:3000", r.Header.Get("HTTP-Referer"))
		assert.Equal(t, "SynapSocial", r.Header.Get("X-Title"))
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"  A caption  "}}]}`))
	}))
	defer srv.Close()

	client := NewOpenRouter(OpenRouterConfig{APIKey: "key", BaseURL: srv.URL, Referer: "http://localhost:3000", Title: "SynapSocial"})
	text, err := client.Complete(context.Background(), Request{
		System:    "sys",
		Model:     "google/gemini",
		MaxTokens: 600,
		Parts: []model.Part{
			{Data: []byte("img"), MimeType: "image/png"},
			{Text: "describe"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "A caption", text)

	assert.Equal(t, "google/gemini", got["model"])
	assert.Equal(t, float64(600), got["max_tokens"])
	messages := got["messages"].([]any)
	require.Len(t, messages, 2)
	assert.Equal(t, "sys", messages[0].(map[string]any)["content"])

	parts := messages[1].(map[string]any)["content"].([]any)
	require.Len(t, parts, 2)
	image := parts[0].(map[string]any)
	assert.Equal(t, "image_url", image["type"])
	assert.Equal(t, "data:image/png;base64,aW1n", image["image_url"].(map[string]any)["url"])
	assert.Equal(t, "describe", parts[1].(map[string]any)["text"])
}

func TestOpenRouterSingleTextPartIsString(t *testing.T) {
	msgs := buildMessages(Request{Parts: []model.Part{{Text: "hello"}}})
	require.Len(t, msgs, 1)
	assert.Equal(t, "hello", msgs[0].Content)
}

func TestOpenRouterUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		_, _ = w.Write([]byte(`{"error":{"message":"Insufficient credits","code":402}}`))
	}))
	defer srv.Close()

	client := NewOpenRouter(OpenRouterConfig{APIKey: "key", BaseURL: srv.URL})
	_, err := client.Complete(context.Background(), Request{Model: "m", Parts: []model.Part{{Text: "hi"}}})

	require.ErrorIs(t, err, apperr.ErrUpstream)
	var upstream *apperr.UpstreamError
	require.True(t, errors.As(err, &upstream))
	assert.Equal(t, http.StatusPaymentRequired, upstream.StatusCode)
	assert.Equal(t, "Insufficient credits", upstream.Detail)
}

func TestOpenRouterEmptyContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":""},"finish_reason":"length"}]}`))
	}))
	defer srv.Close()

	client := NewOpenRouter(OpenRouterConfig{APIKey: "key", BaseURL: srv.URL})
	_, err := client.Complete(context.Background(), Request{Model: "m", Parts: []model.Part{{Text: "hi"}}})

	assert.ErrorIs(t, err, apperr.ErrUpstream)
	assert.Contains(t, err.Error(), "length")
}

func TestOpenRouterCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewOpenRouter(OpenRouterConfig{APIKey: "key", BaseURL: srv.URL})
	_, err := client.Complete(ctx, Request{Model: "m", Parts: []model.Part{{Text: "hi"}}})

	assert.ErrorIs(t, err, apperr.ErrCanceled)
	assert.NotErrorIs(t, err, apperr.ErrUpstream)
}

func TestGeminiMissingKey(t *testing.T) {
	_, err := NewGemini("").Complete(context.Background(), Request{Model: "m"})
	assert.ErrorIs(t, err, apperr.ErrConfiguration)
}

func TestGeminiModelName(t *testing.T) {
	assert.Equal(t, "gemini-2.5-flash", geminiModel("google/gemini-2.5-flash"))
	assert.Equal(t, "gemini-2.5-flash", geminiModel("gemini-2.5-flash"))
}

type fakeProvider struct {
	req Request
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Complete(_ context.Context, req Request) (string, error) {
	f.req = req
	return " ok ", nil
}

func TestClientPicksModelAndBudget(t *testing.T) {
	cfg := &config.Config{
		AIModelMultimodal: "vision",
		AIModelText:       "text",
		AIModelReply:      "reply",
		AIMaxTokens:       600,
		AIReplyMaxTokens:  80,
	}
	fake := &fakeProvider{}
	client := NewClient(fake, cfg)

	res, err := client.Complete(context.Background(), model.Prompt{Variant: model.VariantMultimodal})
	require.NoError(t, err)
	assert.Equal(t, "ok", res.Text)
	assert.Equal(t, "vision", res.Model)
	assert.Equal(t, 600, fake.req.MaxTokens)

	_, err = client.Complete(context.Background(), model.Prompt{Variant: model.VariantReply})
	require.NoError(t, err)
	assert.Equal(t, "reply", fake.req.Model)
	assert.Equal(t, 80, fake.req.MaxTokens)

	_, err = client.Complete(context.Background(), model.Prompt{})
	require.NoError(t, err)
	assert.Equal(t, "text", fake.req.Model)
}

func TestNewProvider(t *testing.T) {
	p, err := NewProvider(&config.Config{AIProvider: "Gemini"})
	require.NoError(t, err)
	assert.Equal(t, ProviderGemini, p.Name())

	p, err = NewProvider(&config.Config{})
	require.NoError(t, err)
	assert.Equal(t, ProviderOpenRouter, p.Name())

	_, err = NewProvider(&config.Config{AIProvider: "bard"})
	assert.Error(t, err)
}
