package permission

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/synapsocial/synapsocial/internal/model"
)

func account(platform model.Platform, connected bool, perms model.Permissions) *model.Account {
	return &model.Account{
		UserID: "u1",
		Connections: map[model.Platform]model.Connection{
			platform: {UserID: "u1", Platform: platform, Connected: connected, Permissions: perms},
		},
	}
}

func TestPredicates(t *testing.T) {
	all := model.Permissions{AutoPost: true, AutoReply: true, AutoApply: true, SkipReplyConfirm: true}

	tests := []struct {
		name    string
		account *model.Account
		want    bool
	}{
		{"nil account", nil, false},
		{"no connection", &model.Account{UserID: "u1"}, false},
		{"disconnected", account(model.PlatformYouTube, false, all), false},
		{"flags off", account(model.PlatformYouTube, true, model.Permissions{}), false},
		{"flags on", account(model.PlatformYouTube, true, all), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CheckAutoPost(tt.account, model.PlatformYouTube))
			assert.Equal(t, tt.want, CheckAutoReply(tt.account, model.PlatformYouTube))
			assert.Equal(t, tt.want, CheckAutoApply(tt.account, model.PlatformYouTube))
			assert.Equal(t, tt.want, SkipReplyConfirm(tt.account, model.PlatformYouTube))
		})
	}
}

func TestPredicatesArePerPlatform(t *testing.T) {
	acct := account(model.PlatformInstagram, true, model.Permissions{AutoReply: true})

	assert.True(t, CheckAutoReply(acct, model.PlatformInstagram))
	assert.False(t, CheckAutoReply(acct, model.PlatformYouTube))
	assert.False(t, CheckAutoPost(acct, model.PlatformInstagram))
}

type recordingStore struct {
	calls []string
	err   error
}

func (s *recordingStore) UpdatePermission(_ context.Context, userID string, platform model.Platform, feature model.Feature, enabled bool) error {
	if s.err != nil {
		return s.err
	}
	s.calls = append(s.calls, userID+"/"+string(platform)+"/"+string(feature)+"/"+map[bool]string{true: "on", false: "off"}[enabled])
	return nil
}

func TestGateSetters(t *testing.T) {
	store := &recordingStore{}
	gate := NewGate(store)
	ctx := context.Background()

	require.NoError(t, gate.SetAutoPost(ctx, "u1", model.PlatformLinkedIn, true))
	require.NoError(t, gate.SetAutoReply(ctx, "u1", model.PlatformYouTube, false))
	require.NoError(t, gate.SetAutoApply(ctx, "u1", model.PlatformLinkedIn, true))
	require.NoError(t, gate.SetSkipReplyConfirm(ctx, "u1", model.PlatformInstagram, true))

	assert.Equal(t, []string{
		"u1/linkedin/auto_post/on",
		"u1/youtube/auto_reply/off",
		"u1/linkedin/auto_apply/on",
		"u1/instagram/skip_reply_confirm/on",
	}, store.calls)
}

func TestGateErrors(t *testing.T) {
	boom := errors.New("boom")
	gate := NewGate(&recordingStore{err: boom})

	assert.Error(t, gate.SetAutoPost(context.Background(), "", model.PlatformLinkedIn, true))
	assert.ErrorIs(t, gate.SetAutoPost(context.Background(), "u1", model.PlatformLinkedIn, true), boom)
}
