package service

import (
	"context"
	"io"
	"sync"

	"github.com/synapsocial/synapsocial/internal/model"
	"github.com/synapsocial/synapsocial/internal/repository"
	"github.com/synapsocial/synapsocial/internal/service/completion"
)

type fakeAccounts struct {
	mu       sync.Mutex
	accounts map[string]*model.Account
	reads    int
	// onRead runs after every ByUserID; tests use it to flip flags mid-flow
	onRead func(reads int, accounts map[string]*model.Account)
}

func newFakeAccounts(accounts ...*model.Account) *fakeAccounts {
	f := &fakeAccounts{accounts: map[string]*model.Account{}}
	for _, a := range accounts {
		f.accounts[a.UserID] = a
	}
	return f
}

func (f *fakeAccounts) ByUserID(_ context.Context, userID string) (*model.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	a, ok := f.accounts[userID]
	if !ok {
		return nil, repository.ErrAccountNotFound
	}
	copied := &model.Account{UserID: a.UserID, Connections: map[model.Platform]model.Connection{}}
	for p, c := range a.Connections {
		copied.Connections[p] = c
	}
	if f.onRead != nil {
		f.onRead(f.reads, f.accounts)
	}
	return copied, nil
}

func (f *fakeAccounts) ListAutoReply(ctx context.Context, p model.Platform) ([]*model.Account, error) {
	f.mu.Lock()
	var ids []string
	for id, a := range f.accounts {
		if c, ok := a.Connections[p]; ok && c.Connected && c.Permissions.AutoReply {
			ids = append(ids, id)
		}
	}
	f.mu.Unlock()

	var out []*model.Account
	for _, id := range ids {
		a, _ := f.ByUserID(ctx, id)
		out = append(out, a)
	}
	return out, nil
}

func (f *fakeAccounts) set(userID string, p model.Platform, mutate func(*model.Connection)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := f.accounts[userID].Connections[p]
	mutate(&c)
	f.accounts[userID].Connections[p] = c
}

func connected(userID string, p model.Platform, perms model.Permissions) *model.Account {
	return &model.Account{
		UserID: userID,
		Connections: map[model.Platform]model.Connection{
			p: {
				UserID:      userID,
				Platform:    p,
				Connected:   true,
				Credentials: model.Credentials{AccessToken: "tok-" + userID, RefreshToken: "rt-" + userID, ExternalID: "ext-" + userID},
				Permissions: perms,
			},
		},
	}
}

type fakeCompleter struct {
	mu      sync.Mutex
	prompts []model.Prompt
	text    string
	err     error
}

func (f *fakeCompleter) Complete(_ context.Context, prompt model.Prompt) (completion.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return completion.Result{}, f.err
	}
	text := f.text
	if text == "" {
		text = "Thanks for watching!"
	}
	return completion.Result{Text: text, Model: "fake-model"}, nil
}

type fakePublisher struct {
	calls int
	creds model.Credentials
	job   *model.PublishJob
	err   error
	// media URL seen at publish time
	mediaURL string
}

func (f *fakePublisher) Publish(ctx context.Context, creds model.Credentials, job *model.PublishJob) error {
	f.calls++
	f.creds = creds
	f.job = job
	if job.Media != nil {
		f.mediaURL = job.Media.URL
	}
	if job.Recheck != nil && job.Media != nil {
		if err := job.Recheck(ctx); err != nil {
			job.Fail(err)
			return err
		}
	}
	if f.err != nil {
		job.Fail(f.err)
		return f.err
	}
	job.PostID = "post-1"
	job.Advance("done")
	return nil
}

type fakeEngager struct {
	mu          sync.Mutex
	posts       []model.PostRef
	comments    map[string][]model.EngagementItem
	commentErrs map[string]error
	replyErrs   map[string]error
	replies     []string
}

func (f *fakeEngager) RecentPosts(context.Context, model.Credentials, int) ([]model.PostRef, error) {
	return f.posts, nil
}

func (f *fakeEngager) Comments(_ context.Context, _ model.Credentials, post model.PostRef, _ int) ([]model.EngagementItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.commentErrs[post.ID]; err != nil {
		return nil, err
	}
	return append([]model.EngagementItem(nil), f.comments[post.ID]...), nil
}

func (f *fakeEngager) Reply(_ context.Context, _ model.Credentials, item model.EngagementItem, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.replyErrs[item.ID]; err != nil {
		return err
	}
	f.replies = append(f.replies, item.ID+":"+text)
	// a posted reply shows up on the next listing
	for i, c := range f.comments[item.PostID] {
		if c.ID == item.ID {
			f.comments[item.PostID][i].Replied = true
		}
	}
	return nil
}

type fakeStorage struct {
	saved   map[string][]byte
	deleted []string
}

func (f *fakeStorage) Save(_ context.Context, key string, body io.Reader, _ string) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	if f.saved == nil {
		f.saved = map[string][]byte{}
	}
	f.saved[key] = data
	return nil
}

func (f *fakeStorage) Delete(_ context.Context, key string) error {
	f.deleted = append(f.deleted, key)
	return nil
}

func (f *fakeStorage) PresignedURL(_ context.Context, key string) (string, error) {
	return "https://bucket.example/" + key + "?sig=1", nil
}

type recordingStore struct {
	mu    sync.Mutex
	calls []string
}

func (s *recordingStore) UpdatePermission(_ context.Context, userID string, p model.Platform, feature model.Feature, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	state := "off"
	if enabled {
		state = "on"
	}
	s.calls = append(s.calls, userID+"/"+string(p)+"/"+string(feature)+"/"+state)
	return nil
}
