package model

import (
	"time"
)

// Account is a user's credential and permission record across platforms.
// It is owned by the account store; the publish and engagement code only reads it.
type Account struct {
	UserID      string
	Connections map[Platform]Connection
}

// Connection returns the platform connection, if any.
func (a *Account) Connection(p Platform) (Connection, bool) {
	if a == nil || a.Connections == nil {
		return Connection{}, false
	}
	c, ok := a.Connections[p]
	return c, ok
}

type Connection struct {
	UserID      string
	Platform    Platform
	Connected   bool
	Credentials Credentials
	Permissions Permissions
	UpdatedAt   time.Time
}

// Usable reports whether the connection carries a credential that can be sent upstream.
// YouTube can mint an access token from a refresh token alone.
func (c Connection) Usable() bool {
	if !c.Connected {
		return false
	}
	if c.Credentials.AccessToken != "" {
		return true
	}
	return c.Platform == PlatformYouTube && c.Credentials.RefreshToken != ""
}

type Credentials struct {
	AccessToken  string
	RefreshToken string
	Expiry       *time.Time
	ExternalID   string // LinkedIn member sub, Instagram business account id, YouTube channel id
	ExternalName string
}

type Permissions struct {
	AutoPost         bool `json:"autoPost"`
	AutoReply        bool `json:"autoReply"`
	AutoApply        bool `json:"autoApply"`
	SkipReplyConfirm bool `json:"skipReplyConfirm"` // "don't ask again" on interactive replies
}

// Feature names a permission flag.
type Feature string

const (
	FeatureAutoPost         Feature = "auto_post"
	FeatureAutoReply        Feature = "auto_reply"
	FeatureAutoApply        Feature = "auto_apply"
	FeatureSkipReplyConfirm Feature = "skip_reply_confirm"
)
