package service

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/synapsocial/synapsocial/internal/apperr"
	"github.com/synapsocial/synapsocial/internal/model"
	"github.com/synapsocial/synapsocial/internal/permission"
	"github.com/synapsocial/synapsocial/internal/platform"
	"github.com/synapsocial/synapsocial/internal/platform/instagram"
	"github.com/synapsocial/synapsocial/internal/storage"
)

// PublishRequest is the content of one post.
type PublishRequest struct {
	Text        string
	Title       string
	Description string
	Tags        []string
	Media       *model.Media
}

type PublishService struct {
	accounts   AccountReader
	publishers map[model.Platform]platform.Publisher
	storage    storage.Storage // nil disables staging of Instagram bytes
}

func NewPublishService(accounts AccountReader, publishers map[model.Platform]platform.Publisher, storage storage.Storage) *PublishService {
	return &PublishService{
		accounts:   accounts,
		publishers: publishers,
		storage:    storage,
	}
}

// Publish posts req to one platform as userID.
// Connection and the auto-post flag are checked before any network call.
func (s *PublishService) Publish(ctx context.Context, userID string, p model.Platform, req PublishRequest, origin model.Origin) (*model.PublishJob, error) {
	publisher, ok := s.publishers[p]
	if !ok {
		return nil, apperr.Configuration("no publisher for %s", p)
	}

	account, err := loadAccount(ctx, s.accounts, userID)
	if err != nil {
		return nil, err
	}
	conn, ok := account.Connection(p)
	if !ok || !conn.Usable() {
		return nil, fmt.Errorf("%w: %s", apperr.ErrNotConnected, p)
	}
	if !permission.CheckAutoPost(account, p) {
		return nil, fmt.Errorf("%w: auto-post is off for %s", apperr.ErrPermissionDenied, p)
	}

	job := &model.PublishJob{
		ID:          uuid.New().String(),
		Platform:    p,
		Origin:      origin,
		Text:        req.Text,
		Title:       req.Title,
		Description: req.Description,
		Tags:        req.Tags,
		Media:       req.Media,
		State:       "start",
		StartedAt:   time.Now(),
	}
	job.Recheck = func(ctx context.Context) error {
		fresh, err := loadAccount(ctx, s.accounts, userID)
		if err != nil {
			return err
		}
		if !permission.CheckAutoPost(fresh, p) {
			return fmt.Errorf("%w: auto-post was turned off for %s", apperr.ErrPermissionDenied, p)
		}
		return nil
	}

	log := slog.With("user_id", userID, "platform", p, "job_id", job.ID, "origin", origin)

	if p == model.PlatformInstagram {
		cleanup, err := s.stage(ctx, job)
		if err != nil {
			job.Fail(err)
			return job, err
		}
		defer cleanup()
	}

	log.Info("publish started", "media", job.Media != nil)

	if err := publisher.Publish(ctx, conn.Credentials, job); err != nil {
		return job, err
	}

	log.Info("publish done", "post_id", job.PostID, "trace", strings.Join(job.Trace, ">"))
	return job, nil
}

// stage uploads Instagram media bytes to storage so Instagram can fetch them.
// The returned cleanup deletes the object and must run on every path.
func (s *PublishService) stage(ctx context.Context, job *model.PublishJob) (func(), error) {
	media := job.Media
	if media == nil || media.URL != "" || !media.HasBytes() {
		return func() {}, nil
	}
	if s.storage == nil {
		return nil, instagram.ErrMediaURLRequired
	}

	body, err := media.Open()
	if err != nil {
		return nil, fmt.Errorf("open media: %w", err)
	}
	defer body.Close()

	key := "staging/" + job.ID + strings.ToLower(filepath.Ext(media.Filename))
	if err := s.storage.Save(ctx, key, body, media.MimeType); err != nil {
		return nil, fmt.Errorf("stage media: %w", err)
	}

	cleanup := func() {
		// the request context may already be gone
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if err := s.storage.Delete(ctx, key); err != nil {
			slog.Error("failed to delete staged media", "key", key, "error", err)
		}
	}

	url, err := s.storage.PresignedURL(ctx, key)
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("presign staged media: %w", err)
	}
	media.URL = url
	return cleanup, nil
}
