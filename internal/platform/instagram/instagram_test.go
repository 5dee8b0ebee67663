package instagram

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/synapsocial/synapsocial/internal/apperr"
	"github.com/synapsocial/synapsocial/internal/model"
)

type fakeGraph struct {
	mu        sync.Mutex
	calls     []string
	forms     []map[string]string
	statuses  []string // returned by successive status polls, last one repeats
	polls     int
	srv       *httptest.Server
	failPaths map[string]bool
}

func newFakeGraph(t *testing.T, statuses ...string) *fakeGraph {
	f := &fakeGraph{statuses: statuses, failPaths: map[string]bool{}}
	f.srv = httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeGraph) handle(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	_ = r.ParseForm()
	f.calls = append(f.calls, r.Method+" "+r.URL.Path)
	form := map[string]string{}
	for k := range r.PostForm {
		form[k] = r.PostForm.Get(k)
	}
	f.forms = append(f.forms, form)

	if r.FormValue("access_token") != "tok" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	if f.failPaths[r.URL.Path] {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"Invalid parameter","type":"OAuthException","code":100}}`))
		return
	}

	switch {
	case r.URL.Path == "/acct/media" && r.Method == http.MethodPost:
		_, _ = w.Write([]byte(`{"id":"container1"}`))
	case r.URL.Path == "/acct/media_publish":
		_, _ = w.Write([]byte(`{"id":"media99"}`))
	case r.URL.Path == "/container1":
		status := f.statuses[len(f.statuses)-1]
		if f.polls < len(f.statuses) {
			status = f.statuses[f.polls]
		}
		f.polls++
		_, _ = w.Write([]byte(`{"status_code":"` + status + `","id":"container1"}`))
	case r.URL.Path == "/acct/media":
		_, _ = w.Write([]byte(`{"data":[{"id":"m1","caption":"sunset","timestamp":"2026-10-14T10:00:00+0000"}]}`))
	case r.URL.Path == "/m1/comments":
		_, _ = w.Write([]byte(`{"data":[
			{"id":"c1","text":"wow","username":"ana","timestamp":"2026-10-14T11:00:00+0000"},
			{"id":"c2","text":"nice","username":"bo","timestamp":"2026-10-14T11:30:00+0000","replies":{"data":[{"id":"r1"}]}}
		]}`))
	case strings.HasSuffix(r.URL.Path, "/replies"):
		_, _ = w.Write([]byte(`{"id":"r2"}`))
	}
}

func (f *fakeGraph) count(prefix string) int {
	n := 0
	for _, c := range f.calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

type sleeps struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (s *sleeps) sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.waits = append(s.waits, d)
	s.mu.Unlock()
	return ctx.Err()
}

var creds = model.Credentials{AccessToken: "tok", ExternalID: "acct"}

func newClient(f *fakeGraph, s *sleeps) *Client {
	return NewClient(f.srv.URL, WithSleeper(s.sleep))
}

func TestPublishImage(t *testing.T) {
	fake := newFakeGraph(t)
	s := &sleeps{}
	job := &model.PublishJob{Text: "Caption #tag", Media: &model.Media{MimeType: "image/jpeg", URL: "https://cdn.example/p.jpg"}}

	require.NoError(t, newClient(fake, s).Publish(context.Background(), creds, job))

	assert.Equal(t, []string{"POST /acct/media", "POST /acct/media_publish"}, fake.calls)
	assert.Equal(t, "https://cdn.example/p.jpg", fake.forms[0]["image_url"])
	assert.Equal(t, "Caption #tag", fake.forms[0]["caption"])
	assert.Equal(t, "container1", fake.forms[1]["creation_id"])
	assert.Equal(t, []time.Duration{3 * time.Second}, s.waits)
	assert.Equal(t, "media99", job.PostID)
	assert.Equal(t, []string{"container_created", "published", "done"}, job.Trace)
}

func TestPublishReelPublishesOnFirstFinished(t *testing.T) {
	fake := newFakeGraph(t, "IN_PROGRESS", "IN_PROGRESS", "FINISHED")
	s := &sleeps{}
	job := &model.PublishJob{Text: "reel", Media: &model.Media{MimeType: "video/mp4", URL: "https://cdn.example/v.mp4"}}

	require.NoError(t, newClient(fake, s).Publish(context.Background(), creds, job))

	assert.Equal(t, "REELS", fake.forms[0]["media_type"])
	assert.Equal(t, "https://cdn.example/v.mp4", fake.forms[0]["video_url"])
	assert.Equal(t, 3, fake.polls)
	assert.Equal(t, 1, fake.count("POST /acct/media_publish"))
	assert.Len(t, s.waits, 3)
	assert.Equal(t, 5*time.Second, s.waits[0])
	assert.Equal(t, "done", job.State)
}

func TestPublishReelTimesOutAfterBudget(t *testing.T) {
	fake := newFakeGraph(t, "IN_PROGRESS")
	s := &sleeps{}
	job := &model.PublishJob{Media: &model.Media{MimeType: "video/mp4", URL: "https://cdn.example/v.mp4"}}

	err := newClient(fake, s).Publish(context.Background(), creds, job)

	require.ErrorIs(t, err, apperr.ErrProcessingTimeout)
	assert.NotErrorIs(t, err, apperr.ErrUpstream)
	assert.Equal(t, 20, fake.polls)
	assert.Zero(t, fake.count("POST /acct/media_publish"))
	assert.Equal(t, "failed", job.State)
}

func TestPublishReelErrorStatusAborts(t *testing.T) {
	fake := newFakeGraph(t, "IN_PROGRESS", "ERROR")
	job := &model.PublishJob{Media: &model.Media{MimeType: "video/mp4", URL: "https://cdn.example/v.mp4"}}

	err := newClient(fake, &sleeps{}).Publish(context.Background(), creds, job)

	require.ErrorIs(t, err, apperr.ErrUpstream)
	assert.Contains(t, err.Error(), "ERROR")
	assert.Equal(t, 2, fake.polls)
	assert.Zero(t, fake.count("POST /acct/media_publish"))
}

func TestPublishUpstreamDetail(t *testing.T) {
	fake := newFakeGraph(t)
	fake.failPaths["/acct/media"] = true
	job := &model.PublishJob{Media: &model.Media{MimeType: "image/png", URL: "https://cdn.example/p.png"}}

	err := newClient(fake, &sleeps{}).Publish(context.Background(), creds, job)

	require.ErrorIs(t, err, apperr.ErrUpstream)
	assert.Contains(t, err.Error(), "Invalid parameter (code 100)")
}

func TestPublishRequiresMediaURLAndAccount(t *testing.T) {
	client := NewClient("http://unused")

	err := client.Publish(context.Background(), creds, &model.PublishJob{Media: &model.Media{Data: []byte("x")}})
	assert.ErrorIs(t, err, ErrMediaURLRequired)

	err = client.Publish(context.Background(), creds, &model.PublishJob{Text: "text only"})
	assert.ErrorIs(t, err, ErrMediaURLRequired)

	err = client.Publish(context.Background(), model.Credentials{AccessToken: "tok"}, &model.PublishJob{Media: &model.Media{URL: "u"}})
	assert.ErrorIs(t, err, apperr.ErrNotConnected)
}

func TestPublishCanceledDuringPoll(t *testing.T) {
	fake := newFakeGraph(t, "IN_PROGRESS")
	ctx, cancel := context.WithCancel(context.Background())
	client := NewClient(fake.srv.URL, WithSleeper(func(ctx context.Context, d time.Duration) error {
		cancel()
		return ctx.Err()
	}))
	job := &model.PublishJob{Media: &model.Media{MimeType: "video/mp4", URL: "https://cdn.example/v.mp4"}}

	err := client.Publish(ctx, creds, job)

	assert.ErrorIs(t, err, apperr.ErrCanceled)
	assert.Zero(t, fake.polls)
}

func TestEngagement(t *testing.T) {
	fake := newFakeGraph(t)
	client := NewClient(fake.srv.URL)
	ctx := context.Background()

	posts, err := client.RecentPosts(ctx, creds, 5)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "sunset", posts[0].Title)
	assert.Equal(t, 2026, posts[0].Created.Year())

	items, err := client.Comments(ctx, creds, posts[0], 20)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.False(t, items[0].Replied)
	assert.True(t, items[1].Replied)
	assert.Equal(t, "ana", items[0].Author)
	assert.Equal(t, time.Date(2026, 10, 14, 11, 0, 0, 0, time.UTC), items[0].PublishedAt.UTC())

	require.NoError(t, client.Reply(ctx, creds, items[0], " Thanks! 🌅 "))
	last := fake.forms[len(fake.forms)-1]
	assert.Equal(t, "Thanks! 🌅", last["message"])
	assert.Equal(t, "POST /c1/replies", fake.calls[len(fake.calls)-1])
}
