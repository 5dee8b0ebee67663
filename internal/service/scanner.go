package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/robfig/cron/v3"
	"github.com/synapsocial/synapsocial/internal/apperr"
	"github.com/synapsocial/synapsocial/internal/ingest"
	"github.com/synapsocial/synapsocial/internal/logger"
	"github.com/synapsocial/synapsocial/internal/model"
	"github.com/synapsocial/synapsocial/internal/permission"
	"github.com/synapsocial/synapsocial/internal/platform"
)

// ScanAccounts is what the scanner reads from the account store.
type ScanAccounts interface {
	AccountReader
	ListAutoReply(ctx context.Context, platform model.Platform) ([]*model.Account, error)
}

type ScannerConfig struct {
	Interval     time.Duration
	PostLimit    int
	CommentLimit int
	ReplyDelay   time.Duration
	// LockPath is a file lock shared by every process that scans; empty disables it.
	LockPath string
}

// Scanner replies to fresh comments on behalf of users who turned auto-reply on.
type Scanner struct {
	accounts  ScanAccounts
	engagers  map[model.Platform]platform.Engager
	completer Completer
	cfg       ScannerConfig
	log       *slog.Logger

	now   func() time.Time
	sleep func(context.Context, time.Duration) error

	running sync.Mutex // held for the duration of one scan
	cron    *cron.Cron
	cancel  context.CancelFunc
}

func NewScanner(accounts ScanAccounts, engagers map[model.Platform]platform.Engager, completer Completer, cfg ScannerConfig) *Scanner {
	return &Scanner{
		accounts:  accounts,
		engagers:  engagers,
		completer: completer,
		cfg:       cfg,
		log:       logger.Component("scanner"),
		now:       time.Now,
		sleep:     platform.Sleep,
	}
}

// Start schedules RunOnce every Interval until Stop.
func (s *Scanner) Start(ctx context.Context) error {
	if s.cfg.Interval <= 0 {
		return fmt.Errorf("scanner interval must be positive, got %s", s.cfg.Interval)
	}

	ctx, s.cancel = context.WithCancel(ctx)
	cronLog := cronLogger{s.log}
	s.cron = cron.New(cron.WithLogger(cronLog), cron.WithChain(cron.SkipIfStillRunning(cronLog)))
	s.cron.Schedule(cron.Every(s.cfg.Interval), cron.FuncJob(func() {
		s.RunOnce(ctx)
	}))
	s.cron.Start()

	s.log.Info("scanner started", "interval", s.cfg.Interval)
	return nil
}

// Stop cancels a running scan and waits for it to return.
func (s *Scanner) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
	s.log.Info("scanner stopped")
}

// RunOnce scans every eligible account once. A call that overlaps another scan,
// in this process or any process holding LockPath, returns immediately with
// Skipped set. Failures are logged and reported, never returned.
func (s *Scanner) RunOnce(ctx context.Context) model.ScanReport {
	report := model.ScanReport{StartedAt: s.now()}
	if !s.running.TryLock() {
		report.Skipped = true
		report.FinishedAt = s.now()
		s.log.Info("scan skipped, previous scan still running")
		return report
	}
	defer s.running.Unlock()

	if s.cfg.LockPath != "" {
		lock := flock.New(s.cfg.LockPath)
		ok, err := lock.TryLock()
		if err != nil {
			s.log.Error("failed to acquire scan lock", "path", s.cfg.LockPath, "error", err)
			report.Failures = append(report.Failures, model.ScanFailure{Err: fmt.Sprintf("scan lock: %v", err)})
			report.FinishedAt = s.now()
			return report
		}
		if !ok {
			report.Skipped = true
			report.FinishedAt = s.now()
			s.log.Info("scan skipped, another process holds the scan lock", "path", s.cfg.LockPath)
			return report
		}
		defer func() { _ = lock.Unlock() }()
	}

	for _, p := range model.Platforms {
		engager, ok := s.engagers[p]
		if !ok {
			continue
		}
		if ctx.Err() != nil {
			break
		}

		accounts, err := s.accounts.ListAutoReply(ctx, p)
		if err != nil {
			s.log.Error("failed to list auto-reply accounts", "platform", p, "error", err)
			report.Failures = append(report.Failures, model.ScanFailure{Platform: p, Err: err.Error()})
			continue
		}

		for _, account := range accounts {
			if ctx.Err() != nil {
				break
			}
			conn, ok := account.Connection(p)
			if !ok || !conn.Usable() || !permission.CheckAutoReply(account, p) {
				continue
			}
			report.Accounts++
			s.scanAccount(ctx, &report, account.UserID, p, conn.Credentials, engager)
		}
	}

	report.FinishedAt = s.now()
	s.log.Info("scan finished",
		"accounts", report.Accounts,
		"eligible", report.Eligible,
		"replied", report.Replied,
		"failures", len(report.Failures),
		"duration", report.FinishedAt.Sub(report.StartedAt),
	)
	return report
}

func (s *Scanner) scanAccount(ctx context.Context, report *model.ScanReport, userID string, p model.Platform, creds model.Credentials, engager platform.Engager) {
	log := s.log.With("user_id", userID, "platform", p)

	posts, err := engager.RecentPosts(ctx, creds, s.cfg.PostLimit)
	if err != nil {
		log.Error("failed to list recent posts", "error", err)
		report.Failures = append(report.Failures, model.ScanFailure{UserID: userID, Platform: p, Err: err.Error()})
		return
	}

	for _, post := range posts {
		comments, err := engager.Comments(ctx, creds, post, s.cfg.CommentLimit)
		if err != nil {
			log.Error("failed to list comments", "post_id", post.ID, "error", err)
			report.Failures = append(report.Failures, model.ScanFailure{UserID: userID, Platform: p, PostID: post.ID, Err: err.Error()})
			continue
		}

		for _, item := range EligibleItems(comments, s.now()) {
			if ctx.Err() != nil {
				return
			}
			report.Eligible++

			err := s.reply(ctx, userID, p, creds, engager, item)
			if errors.Is(err, apperr.ErrPermissionDenied) {
				log.Info("auto-reply turned off mid-scan, skipping account")
				return
			}
			if err != nil {
				log.Error("auto-reply failed", "post_id", post.ID, "comment_id", item.ID, "error", err)
				report.Failures = append(report.Failures, model.ScanFailure{
					UserID:    userID,
					Platform:  p,
					PostID:    post.ID,
					CommentID: item.ID,
					Err:       err.Error(),
				})
			} else {
				report.Replied++
				log.Info("auto-replied", "post_id", post.ID, "comment_id", item.ID)
			}

			// spaced out even after a rejection
			if err := s.sleep(ctx, s.cfg.ReplyDelay); err != nil {
				return
			}
		}
	}
}

// reply writes and submits one reply. The auto-reply flag is read again from
// the store right before submitting.
func (s *Scanner) reply(ctx context.Context, userID string, p model.Platform, creds model.Credentials, engager platform.Engager, item model.EngagementItem) error {
	result, err := s.completer.Complete(ctx, ingest.ReplyPrompt(p, item.PostTitle, item.Text))
	if err != nil {
		return err
	}

	fresh, err := loadAccount(ctx, s.accounts, userID)
	if err != nil {
		return err
	}
	if !permission.CheckAutoReply(fresh, p) {
		return apperr.ErrPermissionDenied
	}

	return engager.Reply(ctx, creds, item, result.Text)
}

// cronLogger routes robfig/cron logging into slog.
type cronLogger struct {
	log *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error(msg, append(keysAndValues, "error", err)...)
}
