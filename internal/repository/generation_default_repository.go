package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/maheshrc27/storepost/internal/models"
)

type GenerationDefaultRepository interface {
	ListByUserID(ctx context.Context, userID int64) ([]*models.GenerationDefault, error)
	Upsert(ctx context.Context, d *models.GenerationDefault) error
}

type generationDefaultRepository struct {
	db *sql.DB
}

func NewGenerationDefaultRepository(db *sql.DB) GenerationDefaultRepository {
	return &generationDefaultRepository{db: db}
}

func (r *generationDefaultRepository) ListByUserID(ctx context.Context, userID int64) ([]*models.GenerationDefault, error) {
	query := `SELECT user_id, name, value, locked, updated_at FROM generation_defaults WHERE user_id = $1`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var defaults []*models.GenerationDefault
	for rows.Next() {
		var d models.GenerationDefault
		if err := rows.Scan(&d.UserID, &d.Name, &d.Value, &d.Locked, &d.UpdatedAt); err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		defaults = append(defaults, &d)
	}
	return defaults, rows.Err()
}

func (r *generationDefaultRepository) Upsert(ctx context.Context, d *models.GenerationDefault) error {
	query := `
		INSERT INTO generation_defaults (user_id, name, value, locked, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, name) DO UPDATE
		SET value = EXCLUDED.value,
			locked = EXCLUDED.locked,
			updated_at = EXCLUDED.updated_at
	`
	_, err := r.db.ExecContext(ctx, query, d.UserID, d.Name, d.Value, d.Locked, time.Now())
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	return nil
}
