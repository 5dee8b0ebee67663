package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/synapsocial/synapsocial/internal/model"
)

var (
	ErrAccountNotFound = errors.New("account not found")
	ErrUnknownFeature  = errors.New("unknown permission feature")
)

// AccountRepository is the credential/permission store keyed by user id.
type AccountRepository interface {
	ByUserID(ctx context.Context, userID string) (*model.Account, error)
	ListAutoReply(ctx context.Context, platform model.Platform) ([]*model.Account, error)
	Connect(ctx context.Context, conn model.Connection) error
	Disconnect(ctx context.Context, userID string, platform model.Platform) error
	UpdatePermission(ctx context.Context, userID string, platform model.Platform, feature model.Feature, enabled bool) error
}

type accountRepository struct {
	db *sqlx.DB
}

func NewAccountRepository(db *sqlx.DB) AccountRepository {
	return &accountRepository{db: db}
}

// connectionRow mirrors one platform_accounts row.
type connectionRow struct {
	UserID           string     `db:"user_id"`
	Platform         string     `db:"platform"`
	Connected        bool       `db:"connected"`
	AccessToken      string     `db:"access_token"`
	RefreshToken     string     `db:"refresh_token"`
	TokenExpiry      *time.Time `db:"token_expiry"`
	ExternalID       string     `db:"external_id"`
	ExternalName     string     `db:"external_name"`
	AutoPost         bool       `db:"auto_post"`
	AutoReply        bool       `db:"auto_reply"`
	AutoApply        bool       `db:"auto_apply"`
	SkipReplyConfirm bool       `db:"skip_reply_confirm"`
	UpdatedAt        time.Time  `db:"updated_at"`
}

func (row connectionRow) connection() model.Connection {
	return model.Connection{
		UserID:    row.UserID,
		Platform:  model.Platform(row.Platform),
		Connected: row.Connected,
		Credentials: model.Credentials{
			AccessToken:  row.AccessToken,
			RefreshToken: row.RefreshToken,
			Expiry:       row.TokenExpiry,
			ExternalID:   row.ExternalID,
			ExternalName: row.ExternalName,
		},
		Permissions: model.Permissions{
			AutoPost:         row.AutoPost,
			AutoReply:        row.AutoReply,
			AutoApply:        row.AutoApply,
			SkipReplyConfirm: row.SkipReplyConfirm,
		},
		UpdatedAt: row.UpdatedAt,
	}
}

// featureColumns whitelists the columns UpdatePermission may write.
var featureColumns = map[model.Feature]string{
	model.FeatureAutoPost:         "auto_post",
	model.FeatureAutoReply:        "auto_reply",
	model.FeatureAutoApply:        "auto_apply",
	model.FeatureSkipReplyConfirm: "skip_reply_confirm",
}

func (r *accountRepository) ByUserID(ctx context.Context, userID string) (*model.Account, error) {
	var rows []connectionRow
	query := `SELECT * FROM platform_accounts WHERE user_id = $1`

	err := r.db.SelectContext(ctx, &rows, query, userID)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrAccountNotFound
	}

	account := &model.Account{UserID: userID, Connections: make(map[model.Platform]model.Connection, len(rows))}
	for _, row := range rows {
		account.Connections[model.Platform(row.Platform)] = row.connection()
	}
	return account, nil
}

// ListAutoReply returns accounts whose platform connection is live with auto-reply on.
// Each account carries every platform row, not just the matching one.
func (r *accountRepository) ListAutoReply(ctx context.Context, platform model.Platform) ([]*model.Account, error) {
	var userIDs []string
	query := `SELECT user_id FROM platform_accounts
	          WHERE platform = $1 AND connected = $2 AND auto_reply = $3 AND (access_token <> '' OR refresh_token <> '')
	          ORDER BY user_id`

	err := r.db.SelectContext(ctx, &userIDs, query, string(platform), true, true)
	if err != nil {
		return nil, err
	}

	accounts := make([]*model.Account, 0, len(userIDs))
	for _, id := range userIDs {
		account, err := r.ByUserID(ctx, id)
		if errors.Is(err, ErrAccountNotFound) {
			continue // disconnected between the two reads
		}
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	return accounts, nil
}

func (r *accountRepository) Connect(ctx context.Context, conn model.Connection) error {
	query := `INSERT INTO platform_accounts (user_id, platform, connected, access_token, refresh_token, token_expiry, external_id, external_name, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	          ON CONFLICT (user_id, platform) DO UPDATE SET
	              connected = excluded.connected,
	              access_token = excluded.access_token,
	              refresh_token = excluded.refresh_token,
	              token_expiry = excluded.token_expiry,
	              external_id = excluded.external_id,
	              external_name = excluded.external_name,
	              updated_at = excluded.updated_at`

	_, err := r.db.ExecContext(ctx, query,
		conn.UserID,
		string(conn.Platform),
		true,
		conn.Credentials.AccessToken,
		conn.Credentials.RefreshToken,
		conn.Credentials.Expiry,
		conn.Credentials.ExternalID,
		conn.Credentials.ExternalName,
		time.Now().UTC(),
	)
	return err
}

func (r *accountRepository) Disconnect(ctx context.Context, userID string, platform model.Platform) error {
	query := `UPDATE platform_accounts
	          SET connected = $1, access_token = '', refresh_token = '', token_expiry = NULL, updated_at = $2
	          WHERE user_id = $3 AND platform = $4`

	result, err := r.db.ExecContext(ctx, query, false, time.Now().UTC(), userID, string(platform))
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// UpdatePermission upserts one flag. Flags may be set before the platform is connected.
func (r *accountRepository) UpdatePermission(ctx context.Context, userID string, platform model.Platform, feature model.Feature, enabled bool) error {
	column, ok := featureColumns[feature]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownFeature, feature)
	}

	query := fmt.Sprintf(`INSERT INTO platform_accounts (user_id, platform, %[1]s, updated_at)
	          VALUES ($1, $2, $3, $4)
	          ON CONFLICT (user_id, platform) DO UPDATE SET %[1]s = excluded.%[1]s, updated_at = excluded.updated_at`, column)

	_, err := r.db.ExecContext(ctx, query, userID, string(platform), enabled, time.Now().UTC())
	return err
}
