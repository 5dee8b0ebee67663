// Package permission holds the per-platform auto-mode predicates and the only
// path that mutates those flags.
package permission

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/synapsocial/synapsocial/internal/model"
)

// CheckAutoPost reports whether autonomous posting is allowed on platform.
func CheckAutoPost(account *model.Account, platform model.Platform) bool {
	return check(account, platform, func(p model.Permissions) bool { return p.AutoPost })
}

// CheckAutoReply reports whether autonomous comment replies are allowed on platform.
func CheckAutoReply(account *model.Account, platform model.Platform) bool {
	return check(account, platform, func(p model.Permissions) bool { return p.AutoReply })
}

// CheckAutoApply reports whether automatic job applications are allowed on platform.
func CheckAutoApply(account *model.Account, platform model.Platform) bool {
	return check(account, platform, func(p model.Permissions) bool { return p.AutoApply })
}

// SkipReplyConfirm reports whether interactive replies on platform post without confirmation.
func SkipReplyConfirm(account *model.Account, platform model.Platform) bool {
	return check(account, platform, func(p model.Permissions) bool { return p.SkipReplyConfirm })
}

func check(account *model.Account, platform model.Platform, flag func(model.Permissions) bool) bool {
	conn, ok := account.Connection(platform)
	if !ok || !conn.Connected {
		return false
	}
	return flag(conn.Permissions)
}

// Store persists one flag. Implemented by repository.AccountRepository.
type Store interface {
	UpdatePermission(ctx context.Context, userID string, platform model.Platform, feature model.Feature, enabled bool) error
}

type Gate struct {
	store Store
}

func NewGate(store Store) *Gate {
	return &Gate{store: store}
}

func (g *Gate) SetAutoPost(ctx context.Context, userID string, platform model.Platform, enabled bool) error {
	return g.Set(ctx, userID, platform, model.FeatureAutoPost, enabled)
}

func (g *Gate) SetAutoReply(ctx context.Context, userID string, platform model.Platform, enabled bool) error {
	return g.Set(ctx, userID, platform, model.FeatureAutoReply, enabled)
}

func (g *Gate) SetAutoApply(ctx context.Context, userID string, platform model.Platform, enabled bool) error {
	return g.Set(ctx, userID, platform, model.FeatureAutoApply, enabled)
}

func (g *Gate) SetSkipReplyConfirm(ctx context.Context, userID string, platform model.Platform, enabled bool) error {
	return g.Set(ctx, userID, platform, model.FeatureSkipReplyConfirm, enabled)
}

// Set writes feature for (userID, platform).
func (g *Gate) Set(ctx context.Context, userID string, platform model.Platform, feature model.Feature, enabled bool) error {
	if userID == "" {
		return fmt.Errorf("set %s: empty user id", feature)
	}
	err := g.store.UpdatePermission(ctx, userID, platform, feature, enabled)
	if err != nil {
		return fmt.Errorf("set %s on %s: %w", feature, platform, err)
	}

	slog.Info("permission updated", "user_id", userID, "platform", platform, "feature", feature, "enabled", enabled)
	return nil
}
