// Package platform holds what the LinkedIn, Instagram and YouTube clients share:
// the publish and engagement contracts, the state runner and the JSON transport.
package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/synapsocial/synapsocial/internal/apperr"
	"github.com/synapsocial/synapsocial/internal/model"
)

// StateDone is the terminal state name of every successful publish.
const StateDone = "done"

// Publisher runs one publish job against a platform.
type Publisher interface {
	Publish(ctx context.Context, creds model.Credentials, job *model.PublishJob) error
}

// Engager lists recent comments and replies to them.
type Engager interface {
	RecentPosts(ctx context.Context, creds model.Credentials, limit int) ([]model.PostRef, error)
	Comments(ctx context.Context, creds model.Credentials, post model.PostRef, limit int) ([]model.EngagementItem, error)
	Reply(ctx context.Context, creds model.Credentials, item model.EngagementItem, text string) error
}

// State is one node of a publish state machine. Step performs the work that
// leads out of the state; a nil next state ends the run.
type State[R any] interface {
	Name() string
	Step(ctx context.Context, run R) (State[R], error)
}

// Committed is embedded by states entered only after the remote post exists.
// Run never cancels a job from such a state.
type Committed struct{}

func (Committed) committed() {}

type committer interface{ committed() }

// Run drives a state machine from start, recording each entered state on job.
// The context is checked at every boundary until the job is committed.
func Run[R any](ctx context.Context, job *model.PublishJob, start State[R], run R) error {
	log := slog.With("platform", job.Platform, "job_id", job.ID)

	for s := start; s != nil; {
		if _, committed := s.(committer); !committed {
			if err := apperr.CheckContext(ctx, s.Name()); err != nil {
				job.Fail(err)
				log.Warn("publish canceled", "state", s.Name())
				return err
			}
		}

		next, err := s.Step(ctx, run)
		if err != nil {
			job.Fail(err)
			log.Error("publish step failed", "state", s.Name(), "error", err)
			return err
		}
		if next != nil {
			job.Advance(next.Name())
			log.Debug("publish state", "state", next.Name())
		}
		s = next
	}
	return nil
}

// Sleep waits for d or until ctx ends.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Do sends req and decodes a JSON response into out (which may be nil).
// Non-2xx responses become *apperr.UpstreamError with detail pulled from the body.
func Do(client *http.Client, req *http.Request, service, op string, out any) (http.Header, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, apperr.Transport(req.Context(), service, op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if req.Context().Err() != nil {
			return nil, apperr.Canceled(op, err)
		}
		return nil, apperr.Upstream(service, op, resp.StatusCode, "read body", err)
	}

	if resp.StatusCode >= http.StatusMultipleChoices {
		return nil, apperr.Upstream(service, op, resp.StatusCode, ErrorDetail(body), nil)
	}

	if out != nil && len(strings.TrimSpace(string(body))) > 0 {
		if err := json.Unmarshal(body, out); err != nil {
			return nil, apperr.Upstream(service, op, resp.StatusCode, "decode response", err)
		}
	}
	return resp.Header, nil
}

// ErrorDetail extracts the message from the error shapes used by LinkedIn
// ({"message"}) and the Graph API ({"error":{"message"}}), else a body snippet.
func ErrorDetail(body []byte) string {
	var shape struct {
		Message string `json:"message"`
		Error   *struct {
			Message string `json:"message"`
			Type    string `json:"type"`
			Code    int    `json:"code"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &shape) == nil {
		if shape.Error != nil && shape.Error.Message != "" {
			if shape.Error.Code != 0 {
				return fmt.Sprintf("%s (code %d)", shape.Error.Message, shape.Error.Code)
			}
			return shape.Error.Message
		}
		if shape.Message != "" {
			return shape.Message
		}
	}
	s := strings.TrimSpace(string(body))
	if len(s) > 512 {
		s = s[:512] + "..."
	}
	return s
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
