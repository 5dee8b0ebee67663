package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/synapsocial/synapsocial/internal/apperr"
	"github.com/synapsocial/synapsocial/internal/ingest"
	"github.com/synapsocial/synapsocial/internal/model"
	"github.com/synapsocial/synapsocial/internal/permission"
	"github.com/synapsocial/synapsocial/internal/platform"
	"golang.org/x/sync/errgroup"
)

var (
	ErrNotEligible    = errors.New("comment is not eligible for a reply")
	ErrNoCommentsAPI  = errors.New("platform has no comment support")
	ErrEmptyReplyText = errors.New("reply text is required")
)

// EligibleItems keeps items that have no reply yet and are younger than the recency window.
func EligibleItems(items []model.EngagementItem, now time.Time) []model.EngagementItem {
	eligible := make([]model.EngagementItem, 0, len(items))
	for _, it := range items {
		if it.Eligible(now) {
			eligible = append(eligible, it)
		}
	}
	return eligible
}

type EngagementConfig struct {
	PostLimit    int
	CommentLimit int
}

// EngagementService is the interactive reply path: list, suggest, confirm.
type EngagementService struct {
	accounts  AccountReader
	engagers  map[model.Platform]platform.Engager
	completer Completer
	gate      *permission.Gate
	cfg       EngagementConfig
	now       func() time.Time
}

func NewEngagementService(accounts AccountReader, engagers map[model.Platform]platform.Engager, completer Completer, gate *permission.Gate, cfg EngagementConfig) *EngagementService {
	return &EngagementService{
		accounts:  accounts,
		engagers:  engagers,
		completer: completer,
		gate:      gate,
		cfg:       cfg,
		now:       time.Now,
	}
}

func (s *EngagementService) connection(ctx context.Context, userID string, p model.Platform) (*model.Account, model.Connection, platform.Engager, error) {
	engager, ok := s.engagers[p]
	if !ok {
		return nil, model.Connection{}, nil, fmt.Errorf("%w: %s", ErrNoCommentsAPI, p)
	}
	account, err := loadAccount(ctx, s.accounts, userID)
	if err != nil {
		return nil, model.Connection{}, nil, err
	}
	conn, ok := account.Connection(p)
	if !ok || !conn.Usable() {
		return nil, model.Connection{}, nil, fmt.Errorf("%w: %s", apperr.ErrNotConnected, p)
	}
	return account, conn, engager, nil
}

// commentFetchConcurrency bounds parallel comment listing for one user.
const commentFetchConcurrency = 3

// EligibleComments lists reply candidates across the user's recent posts, in post order.
// A post whose comments fail to load is skipped.
func (s *EngagementService) EligibleComments(ctx context.Context, userID string, p model.Platform) ([]model.EngagementItem, error) {
	_, conn, engager, err := s.connection(ctx, userID, p)
	if err != nil {
		return nil, err
	}

	posts, err := engager.RecentPosts(ctx, conn.Credentials, s.cfg.PostLimit)
	if err != nil {
		return nil, err
	}

	now := s.now()
	perPost := make([][]model.EngagementItem, len(posts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(commentFetchConcurrency)
	for i, post := range posts {
		g.Go(func() error {
			comments, err := engager.Comments(gctx, conn.Credentials, post, s.cfg.CommentLimit)
			if err != nil {
				if errors.Is(err, apperr.ErrCanceled) {
					return err
				}
				slog.Warn("failed to list comments", "user_id", userID, "platform", p, "post_id", post.ID, "error", err)
				return nil
			}
			perPost[i] = EligibleItems(comments, now)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	items := []model.EngagementItem{}
	for _, batch := range perPost {
		items = append(items, batch...)
	}
	return items, nil
}

// liveItem re-reads the comment from the platform and returns the fetched copy
// if it still passes EligibleItems. The caller's copy only identifies it.
func (s *EngagementService) liveItem(ctx context.Context, conn model.Connection, engager platform.Engager, item model.EngagementItem) (model.EngagementItem, error) {
	if item.ID == "" || item.PostID == "" {
		return model.EngagementItem{}, ErrNotEligible
	}
	post := model.PostRef{ID: item.PostID, Title: item.PostTitle}
	comments, err := engager.Comments(ctx, conn.Credentials, post, s.cfg.CommentLimit)
	if err != nil {
		return model.EngagementItem{}, err
	}
	for _, c := range EligibleItems(comments, s.now()) {
		if c.ID == item.ID {
			if c.PostTitle == "" {
				c.PostTitle = item.PostTitle
			}
			return c, nil
		}
	}
	return model.EngagementItem{}, ErrNotEligible
}

// SuggestReply drafts a reply for item. With "don't ask again" set on the
// platform the reply is posted right away.
func (s *EngagementService) SuggestReply(ctx context.Context, userID string, p model.Platform, item model.EngagementItem) (*model.ReplyDecision, error) {
	account, conn, engager, err := s.connection(ctx, userID, p)
	if err != nil {
		return nil, err
	}
	item, err = s.liveItem(ctx, conn, engager, item)
	if err != nil {
		return nil, err
	}
	item.Platform = p

	result, err := s.completer.Complete(ctx, ingest.ReplyPrompt(p, item.PostTitle, item.Text))
	if err != nil {
		return nil, err
	}

	decision := &model.ReplyDecision{Item: item, Text: result.Text, Disposition: model.DispositionPending}
	if !permission.SkipReplyConfirm(account, p) {
		return decision, nil
	}

	if err := engager.Reply(ctx, conn.Credentials, item, decision.Text); err != nil {
		return nil, err
	}
	decision.Disposition = model.DispositionAutoPosted
	slog.Info("reply auto-posted", "user_id", userID, "platform", p, "comment_id", item.ID)
	return decision, nil
}

// ConfirmReply posts or drops a pending decision. dontAskAgain turns on
// SkipReplyConfirm for the platform once the reply is posted.
func (s *EngagementService) ConfirmReply(ctx context.Context, userID string, p model.Platform, decision model.ReplyDecision, confirmed, dontAskAgain bool) (*model.ReplyDecision, error) {
	if !confirmed {
		decision.Disposition = model.DispositionSkipped
		return &decision, nil
	}

	decision.Text = strings.TrimSpace(decision.Text)
	if decision.Text == "" {
		return nil, ErrEmptyReplyText
	}

	_, conn, engager, err := s.connection(ctx, userID, p)
	if err != nil {
		return nil, err
	}
	item, err := s.liveItem(ctx, conn, engager, decision.Item)
	if err != nil {
		return nil, err
	}
	item.Platform = p
	decision.Item = item

	if err := engager.Reply(ctx, conn.Credentials, decision.Item, decision.Text); err != nil {
		return nil, err
	}
	decision.Disposition = model.DispositionConfirmed

	if dontAskAgain {
		if err := s.gate.SetSkipReplyConfirm(ctx, userID, p, true); err != nil {
			// the reply is already out; report the flag failure without failing the call
			slog.Error("failed to save don't-ask-again", "user_id", userID, "platform", p, "error", err)
		}
	}
	return &decision, nil
}
