package service

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gofrs/flock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/synapsocial/synapsocial/internal/model"
	"github.com/synapsocial/synapsocial/internal/platform"
	"go.uber.org/goleak"
)

type sleepRecorder struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (s *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.waits = append(s.waits, d)
	s.mu.Unlock()
	return ctx.Err()
}

func newTestScanner(accounts *fakeAccounts, engager *fakeEngager, completer *fakeCompleter, sleeps *sleepRecorder) *Scanner {
	s := NewScanner(accounts, map[model.Platform]platform.Engager{model.PlatformYouTube: engager}, completer, ScannerConfig{
		Interval:     30 * time.Minute,
		PostLimit:    5,
		CommentLimit: 20,
		ReplyDelay:   1500 * time.Millisecond,
	})
	s.now = func() time.Time { return now }
	if sleeps != nil {
		s.sleep = sleeps.sleep
	}
	return s
}

func TestRunOnceRepliesToEligibleOnly(t *testing.T) {
	engager := &fakeEngager{
		posts: []model.PostRef{{ID: "v1", Title: "Vlog"}},
		comments: map[string][]model.EngagementItem{
			"v1": {
				comment("fresh1", time.Hour, false),
				comment("answered", time.Hour, true),
				comment("stale", 25*time.Hour, false),
				comment("fresh2", 23*time.Hour, false),
			},
		},
	}
	accounts := newFakeAccounts(
		connected("on", model.PlatformYouTube, model.Permissions{AutoReply: true}),
		connected("off", model.PlatformYouTube, model.Permissions{AutoReply: false}),
	)
	sleeps := &sleepRecorder{}

	report := newTestScanner(accounts, engager, &fakeCompleter{text: "Thank you!"}, sleeps).RunOnce(context.Background())

	assert.False(t, report.Skipped)
	assert.Equal(t, 1, report.Accounts)
	assert.Equal(t, 2, report.Eligible)
	assert.Equal(t, 2, report.Replied)
	assert.Empty(t, report.Failures)
	assert.ElementsMatch(t, []string{"fresh1:Thank you!", "fresh2:Thank you!"}, engager.replies)
	assert.Equal(t, []time.Duration{1500 * time.Millisecond, 1500 * time.Millisecond}, sleeps.waits)
}

func TestRunOnceRecordsFailuresAndContinues(t *testing.T) {
	engager := &fakeEngager{
		posts: []model.PostRef{{ID: "v1"}, {ID: "v2"}},
		comments: map[string][]model.EngagementItem{
			"v1": {comment("bad", time.Hour, false), comment("good", time.Hour, false)},
		},
		commentErrs: map[string]error{"v2": errors.New("comments disabled")},
		replyErrs:   map[string]error{"bad": errors.New("quota exceeded")},
	}
	accounts := newFakeAccounts(connected("u1", model.PlatformYouTube, model.Permissions{AutoReply: true}))

	sleeps := &sleepRecorder{}
	report := newTestScanner(accounts, engager, &fakeCompleter{}, sleeps).RunOnce(context.Background())

	assert.Equal(t, 1, report.Replied)
	assert.Len(t, sleeps.waits, 2, "delay follows the failed reply too")
	require.Len(t, report.Failures, 2)
	assert.Equal(t, "bad", report.Failures[0].CommentID)
	assert.Contains(t, report.Failures[0].Err, "quota exceeded")
	assert.Equal(t, "v2", report.Failures[1].PostID)
}

func TestRunOnceStopsWhenAutoReplyTurnedOff(t *testing.T) {
	engager := &fakeEngager{
		posts:    []model.PostRef{{ID: "v1"}},
		comments: map[string][]model.EngagementItem{"v1": {comment("a", time.Hour, false), comment("b", time.Hour, false)}},
	}
	accounts := newFakeAccounts(connected("u1", model.PlatformYouTube, model.Permissions{AutoReply: true}))
	// the listing read returns the flag on, then the user turns it off
	accounts.onRead = func(reads int, all map[string]*model.Account) {
		c := all["u1"].Connections[model.PlatformYouTube]
		c.Permissions.AutoReply = false
		all["u1"].Connections[model.PlatformYouTube] = c
	}

	report := newTestScanner(accounts, engager, &fakeCompleter{}, &sleepRecorder{}).RunOnce(context.Background())

	assert.Zero(t, report.Replied)
	assert.Empty(t, engager.replies)
}

func TestRunOnceSingleFlight(t *testing.T) {
	scanner := newTestScanner(newFakeAccounts(), &fakeEngager{}, &fakeCompleter{}, nil)
	scanner.running.Lock()

	report := scanner.RunOnce(context.Background())
	scanner.running.Unlock()

	assert.True(t, report.Skipped)
	assert.False(t, scanner.RunOnce(context.Background()).Skipped)
}

func TestScannerStartStopLeavesNoGoroutines(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	scanner := newTestScanner(newFakeAccounts(), &fakeEngager{}, &fakeCompleter{}, nil)
	require.NoError(t, scanner.Start(context.Background()))
	scanner.Stop()
}

func TestScannerRejectsZeroInterval(t *testing.T) {
	scanner := NewScanner(newFakeAccounts(), nil, &fakeCompleter{}, ScannerConfig{})
	assert.Error(t, scanner.Start(context.Background()))
}

func TestRunOnceSkipsWhenLockFileHeld(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), "scan.lock")
	held := flock.New(lockPath)
	ok, err := held.TryLock()
	require.NoError(t, err)
	require.True(t, ok)

	engager := &fakeEngager{
		posts:    []model.PostRef{{ID: "v1"}},
		comments: map[string][]model.EngagementItem{"v1": {comment("a", time.Hour, false)}},
	}
	accounts := newFakeAccounts(connected("u1", model.PlatformYouTube, model.Permissions{AutoReply: true}))
	scanner := newTestScanner(accounts, engager, &fakeCompleter{}, &sleepRecorder{})
	scanner.cfg.LockPath = lockPath

	report := scanner.RunOnce(context.Background())
	assert.True(t, report.Skipped)
	assert.Empty(t, engager.replies)

	require.NoError(t, held.Unlock())
	report = scanner.RunOnce(context.Background())
	assert.False(t, report.Skipped)
	assert.Equal(t, []string{"a:Thanks for watching!"}, engager.replies)
}
