package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/maheshrc27/storepost/internal/models"
)

type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*models.User, bool, error)
	SetListing(ctx context.Context, id int64, account, refreshToken string) error
}

type userRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*models.User, bool, error) {
	var user models.User
	var account, token sql.NullString
	query := `SELECT id, google_id, email, name, listing_account, listing_refresh_token, created_at, updated_at
		FROM users WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&user.ID, &user.GoogleID, &user.Email, &user.Name,
		&account, &token, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		slog.Info(err.Error())
		return nil, false, err
	}
	user.ListingAccount = account.String
	user.ListingRefreshToken = token.String
	return &user, true, nil
}

// SetListing links or, with empty values, unlinks the primary listing.
func (r *userRepository) SetListing(ctx context.Context, id int64, account, refreshToken string) error {
	query := `
		UPDATE users
		SET listing_account = $1,
			listing_refresh_token = $2,
			updated_at = $3
		WHERE id = $4
	`
	_, err := r.db.ExecContext(ctx, query, nullString(account), nullString(refreshToken), time.Now(), id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	return nil
}
