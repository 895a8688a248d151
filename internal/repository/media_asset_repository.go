package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/maheshrc27/storepost/internal/models"
)

type MediaAssetRepository interface {
	Create(ctx context.Context, tx *sql.Tx, ma *models.MediaAsset) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.MediaAsset, error)
	ListByStore(ctx context.Context, userID int64, storeID string) ([]*models.MediaAsset, error)
}

type mediaAssetRepository struct {
	db *sql.DB
}

func NewMediaAssetRepository(db *sql.DB) MediaAssetRepository {
	return &mediaAssetRepository{db: db}
}

func (r *mediaAssetRepository) Create(ctx context.Context, tx *sql.Tx, ma *models.MediaAsset) (int64, error) {
	var id int64
	var err error

	query := `
		INSERT INTO media_assets (user_id, store_id, file_name, file_type, kind, file_size, file_url, thumbnail_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	args := []any{ma.UserID, ma.StoreID, ma.FileName, ma.FileType, ma.Kind, ma.FileSize, ma.FileURL, nullString(ma.ThumbnailURL)}
	if tx != nil {
		err = tx.QueryRowContext(ctx, query, args...).Scan(&id)
	} else {
		err = r.db.QueryRowContext(ctx, query, args...).Scan(&id)
	}

	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

const mediaAssetColumns = "id, user_id, store_id, file_name, file_type, kind, file_size, file_url, thumbnail_url, created_at"

func scanMediaAsset(row rowScanner) (*models.MediaAsset, error) {
	var ma models.MediaAsset
	var thumb sql.NullString
	err := row.Scan(&ma.ID, &ma.UserID, &ma.StoreID, &ma.FileName, &ma.FileType, &ma.Kind,
		&ma.FileSize, &ma.FileURL, &thumb, &ma.CreatedAt)
	if err != nil {
		return nil, err
	}
	ma.ThumbnailURL = thumb.String
	return &ma, nil
}

func (r *mediaAssetRepository) GetByID(ctx context.Context, id int64) (*models.MediaAsset, error) {
	query := `SELECT ` + mediaAssetColumns + ` FROM media_assets WHERE id = $1`

	ma, err := scanMediaAsset(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return ma, nil
}

// ListByStore returns the store's media library, newest first.
func (r *mediaAssetRepository) ListByStore(ctx context.Context, userID int64, storeID string) ([]*models.MediaAsset, error) {
	query := `SELECT ` + mediaAssetColumns + ` FROM media_assets WHERE user_id = $1 AND store_id = $2 ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID, storeID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var assets []*models.MediaAsset
	for rows.Next() {
		ma, err := scanMediaAsset(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		assets = append(assets, ma)
	}
	return assets, rows.Err()
}
