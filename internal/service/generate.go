package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"

	"github.com/synapsocial/synapsocial/internal/ingest"
	"github.com/synapsocial/synapsocial/internal/model"
	"github.com/synapsocial/synapsocial/internal/service/completion"
)

var ErrEmptyMessage = errors.New("message or file is required")

// Completer turns a prompt into text.
type Completer interface {
	Complete(ctx context.Context, prompt model.Prompt) (completion.Result, error)
}

type GenerateRequest struct {
	Message  string
	Platform string
	Filename string
	File     io.Reader // nil when no file was attached
}

type GenerateService struct {
	completer Completer
	uploadDir string
}

func NewGenerateService(completer Completer, uploadDir string) *GenerateService {
	return &GenerateService{completer: completer, uploadDir: uploadDir}
}

// Generate writes social copy for the message and optional attachment.
// The staged upload is removed on every path.
func (s *GenerateService) Generate(ctx context.Context, req GenerateRequest) (*model.GeneratedContent, error) {
	if strings.TrimSpace(req.Message) == "" && req.File == nil {
		return nil, ErrEmptyMessage
	}

	var payload *ingest.Payload
	if req.File != nil {
		asset, err := ingest.Stage(s.uploadDir, req.Filename, req.File)
		if err != nil {
			return nil, err
		}
		defer func() { _ = asset.Release() }()

		p := ingest.Extract(asset)
		_ = asset.Release()
		payload = &p

		slog.Debug("upload extracted", "file", asset.Filename, "kind", p.Kind, "inline", p.Inline, "degraded", p.Degraded)
	}

	prompt := ingest.BuildPrompt(payload, req.Message, req.Platform)

	result, err := s.completer.Complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	return &model.GeneratedContent{
		Text:           result.Text,
		Platform:       ingest.NormalizePlatform(req.Platform),
		Model:          result.Model,
		Conversational: prompt.Conversational,
	}, nil
}
