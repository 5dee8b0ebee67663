package ctxkeys

import (
	"context"

	"github.com/synapsocial/synapsocial/internal/config"
)

// contextKey is a type for context keys to avoid collisions
type contextKey string

const (
	UserIDKey     contextKey = "user_id"
	AuthSourceKey contextKey = "auth_source"
	ConfigKey     contextKey = "config"
	CSRFTokenKey  contextKey = "csrf_token"
)

// AuthSource tells where the request's identity came from.
type AuthSource string

const (
	AuthBearer AuthSource = "bearer"
	AuthCookie AuthSource = "cookie"
)

func UserID(ctx context.Context) string {
	id, _ := ctx.Value(UserIDKey).(string)
	return id
}

func WithUserID(ctx context.Context, userID string, source AuthSource) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, userID)
	return context.WithValue(ctx, AuthSourceKey, source)
}

func Source(ctx context.Context) AuthSource {
	source, _ := ctx.Value(AuthSourceKey).(AuthSource)
	return source
}

func Config(ctx context.Context) *config.Config {
	cfg, _ := ctx.Value(ConfigKey).(*config.Config)
	return cfg
}

func WithConfig(ctx context.Context, cfg *config.Config) context.Context {
	return context.WithValue(ctx, ConfigKey, cfg)
}

func CSRFToken(ctx context.Context) string {
	token, _ := ctx.Value(CSRFTokenKey).(string)
	return token
}

func WithCSRFToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, CSRFTokenKey, token)
}
