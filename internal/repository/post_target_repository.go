package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/lib/pq"
	"github.com/maheshrc27/storepost/internal/models"
)

type PostTargetRepository interface {
	Replace(ctx context.Context, tx *sql.Tx, postID int64, targets []*models.PostTarget) error
	SaveResult(ctx context.Context, tx *sql.Tx, t *models.PostTarget) error
	ListByPostID(ctx context.Context, postID int64) ([]*models.PostTarget, error)
	ListByPostIDs(ctx context.Context, postIDs []int64) (map[int64][]*models.PostTarget, error)
}

type postTargetRepository struct {
	db *sql.DB
}

func NewPostTargetRepository(db *sql.DB) PostTargetRepository {
	return &postTargetRepository{db: db}
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Replace drops every target of the post and inserts the given ones. Pass the
// transaction that writes the post row.
func (r *postTargetRepository) Replace(ctx context.Context, tx *sql.Tx, postID int64, targets []*models.PostTarget) error {
	var db execer = r.db
	if tx != nil {
		db = tx
	}

	if _, err := db.ExecContext(ctx, `DELETE FROM post_targets WHERE post_id = $1`, postID); err != nil {
		slog.Info(err.Error())
		return fmt.Errorf("delete targets: %w", err)
	}

	query := `
		INSERT INTO post_targets (post_id, platform, status, remote_id, error_message, attempted_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	for _, t := range targets {
		t.PostID = postID
		_, err := db.ExecContext(ctx, query, postID, t.Platform, t.Status, t.RemoteID, t.ErrorMessage, t.AttemptedAt)
		if err != nil {
			slog.Info(err.Error())
			return fmt.Errorf("insert target %s: %w", t.Platform, err)
		}
	}
	return nil
}

func (r *postTargetRepository) SaveResult(ctx context.Context, tx *sql.Tx, t *models.PostTarget) error {
	query := `
		UPDATE post_targets
		SET status = $1,
			remote_id = $2,
			error_message = $3,
			attempted_at = $4
		WHERE post_id = $5 AND platform = $6
	`

	var err error
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, t.Status, t.RemoteID, t.ErrorMessage, t.AttemptedAt, t.PostID, t.Platform)
	} else {
		_, err = r.db.ExecContext(ctx, query, t.Status, t.RemoteID, t.ErrorMessage, t.AttemptedAt, t.PostID, t.Platform)
	}
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *postTargetRepository) ListByPostID(ctx context.Context, postID int64) ([]*models.PostTarget, error) {
	byPost, err := r.ListByPostIDs(ctx, []int64{postID})
	if err != nil {
		return nil, err
	}
	return byPost[postID], nil
}

func (r *postTargetRepository) ListByPostIDs(ctx context.Context, postIDs []int64) (map[int64][]*models.PostTarget, error) {
	out := make(map[int64][]*models.PostTarget, len(postIDs))
	if len(postIDs) == 0 {
		return out, nil
	}

	query := `
		SELECT post_id, platform, status, remote_id, error_message, attempted_at
		FROM post_targets
		WHERE post_id = ANY($1)
		ORDER BY post_id, platform
	`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(postIDs))
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("query rows: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var t models.PostTarget
		if err := rows.Scan(&t.PostID, &t.Platform, &t.Status, &t.RemoteID, &t.ErrorMessage, &t.AttemptedAt); err != nil {
			slog.Info(err.Error())
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out[t.PostID] = append(out[t.PostID], &t)
	}

	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return out, nil
}
