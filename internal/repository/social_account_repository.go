package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/maheshrc27/storepost/internal/models"
)

type SocialAccountRepository interface {
	ListByUserID(ctx context.Context, userID int64) ([]*models.SocialAccount, error)
	GetByPlatform(ctx context.Context, userID int64, platform models.Platform) (*models.SocialAccount, error)
	ListExpiring(ctx context.Context, platform models.Platform, before time.Time) ([]*models.SocialAccount, error)
	SetToken(ctx context.Context, id int64, accessToken string, expiresAt time.Time) error
	RemoveByPlatform(ctx context.Context, userID int64, platform models.Platform) (int64, error)
}

type socialAccountRepository struct {
	db *sql.DB
}

func NewSocialAccountRepository(db *sql.DB) SocialAccountRepository {
	return &socialAccountRepository{db: db}
}

const socialAccountColumns = `id, user_id, platform, account_id, account_name, account_username,
	access_token, refresh_token, token_expires_at, account_status, created_at, updated_at`

func scanSocialAccount(row rowScanner) (*models.SocialAccount, error) {
	var sa models.SocialAccount
	err := row.Scan(&sa.ID, &sa.UserID, &sa.Platform, &sa.AccountID, &sa.AccountName,
		&sa.AccountUsername, &sa.AccessToken, &sa.RefreshToken,
		&sa.TokenExpiresAt, &sa.AccountStatus, &sa.CreatedAt, &sa.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &sa, nil
}

func (r *socialAccountRepository) ListByUserID(ctx context.Context, userID int64) ([]*models.SocialAccount, error) {
	query := `SELECT ` + socialAccountColumns + ` FROM social_accounts WHERE user_id = $1`
	return r.list(ctx, query, userID)
}

// ListExpiring returns active accounts on the platform whose access token
// expires before the given time.
func (r *socialAccountRepository) ListExpiring(ctx context.Context, platform models.Platform, before time.Time) ([]*models.SocialAccount, error) {
	query := `SELECT ` + socialAccountColumns + ` FROM social_accounts
		WHERE platform = $1 AND account_status = $2 AND token_expires_at < $3
		ORDER BY token_expires_at`
	return r.list(ctx, query, platform, models.AccountStatusActive, before)
}

func (r *socialAccountRepository) list(ctx context.Context, query string, args ...any) ([]*models.SocialAccount, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var accounts []*models.SocialAccount
	for rows.Next() {
		sa, err := scanSocialAccount(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		accounts = append(accounts, sa)
	}
	return accounts, rows.Err()
}

// GetByPlatform returns the most recently updated account of the user on
// the platform.
func (r *socialAccountRepository) GetByPlatform(ctx context.Context, userID int64, platform models.Platform) (*models.SocialAccount, error) {
	query := `SELECT ` + socialAccountColumns + ` FROM social_accounts
		WHERE user_id = $1 AND platform = $2
		ORDER BY updated_at DESC
		LIMIT 1`

	sa, err := scanSocialAccount(r.db.QueryRowContext(ctx, query, userID, platform))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return sa, nil
}

func (r *socialAccountRepository) SetToken(ctx context.Context, id int64, accessToken string, expiresAt time.Time) error {
	query := `
		UPDATE social_accounts
		SET
			access_token = COALESCE(NULLIF($2, ''), access_token),
			token_expires_at = $3,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query, id, accessToken, expiresAt)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	if affected != 1 {
		slog.Info("no rows affected; account may not exist", "account", id)
		return errors.New("no rows affected; account may not exist")
	}
	return nil
}

// RemoveByPlatform deletes every account of the user on the platform and
// returns how many went.
func (r *socialAccountRepository) RemoveByPlatform(ctx context.Context, userID int64, platform models.Platform) (int64, error) {
	query := `DELETE FROM social_accounts WHERE user_id = $1 AND platform = $2`
	result, err := r.db.ExecContext(ctx, query, userID, platform)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return result.RowsAffected()
}
