package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/synapsocial/synapsocial/internal/model"
	"github.com/synapsocial/synapsocial/internal/repository"
)

// AccountReader loads a user's credential and permission record.
type AccountReader interface {
	ByUserID(ctx context.Context, userID string) (*model.Account, error)
}

// loadAccount treats a user with no record as an account with no connections.
func loadAccount(ctx context.Context, accounts AccountReader, userID string) (*model.Account, error) {
	account, err := accounts.ByUserID(ctx, userID)
	if errors.Is(err, repository.ErrAccountNotFound) {
		return &model.Account{UserID: userID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load account: %w", err)
	}
	return account, nil
}

// PlatformStatus is what the settings screen shows per platform.
type PlatformStatus struct {
	Platform    model.Platform    `json:"platform"`
	Connected   bool              `json:"connected"`
	Name        string            `json:"name,omitempty"`
	Permissions model.Permissions `json:"permissions"`
	UpdatedAt   *time.Time        `json:"updatedAt,omitempty"`
}

type AccountService struct {
	accountRepo repository.AccountRepository
}

func NewAccountService(accountRepo repository.AccountRepository) *AccountService {
	return &AccountService{accountRepo: accountRepo}
}

func (s *AccountService) Account(ctx context.Context, userID string) (*model.Account, error) {
	return loadAccount(ctx, s.accountRepo, userID)
}

// Status lists every platform in display order, connected or not.
func (s *AccountService) Status(ctx context.Context, userID string) ([]PlatformStatus, error) {
	account, err := loadAccount(ctx, s.accountRepo, userID)
	if err != nil {
		return nil, err
	}

	statuses := make([]PlatformStatus, 0, len(model.Platforms))
	for _, p := range model.Platforms {
		st := PlatformStatus{Platform: p}
		if conn, ok := account.Connection(p); ok {
			st.Connected = conn.Usable()
			st.Name = conn.Credentials.ExternalName
			st.Permissions = conn.Permissions
			if !conn.UpdatedAt.IsZero() {
				updated := conn.UpdatedAt
				st.UpdatedAt = &updated
			}
		}
		statuses = append(statuses, st)
	}
	return statuses, nil
}

// Connect stores credentials obtained by the external OAuth flow.
func (s *AccountService) Connect(ctx context.Context, conn model.Connection) error {
	if conn.UserID == "" {
		return fmt.Errorf("connect: empty user id")
	}
	if conn.Credentials.AccessToken == "" && conn.Credentials.RefreshToken == "" {
		return fmt.Errorf("connect %s: no token", conn.Platform)
	}
	return s.accountRepo.Connect(ctx, conn)
}

func (s *AccountService) Disconnect(ctx context.Context, userID string, platform model.Platform) error {
	return s.accountRepo.Disconnect(ctx, userID, platform)
}
