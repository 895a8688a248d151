package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"
	"github.com/maheshrc27/storepost/internal/models"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

const postColumns = "id, user_id, store_id, content, media_url, media_kind, platforms, status, scheduled_at, created_at, updated_at"

// PostFilter narrows a post listing. Zero values match everything.
type PostFilter struct {
	StoreID string
	Status  models.PostStatus
	Limit   uint64
}

type PostRepository interface {
	Create(ctx context.Context, tx *sql.Tx, post *models.Post) (int64, error)
	Update(ctx context.Context, tx *sql.Tx, post *models.Post) error
	GetByID(ctx context.Context, id int64) (*models.Post, error)
	List(ctx context.Context, userID int64, filter PostFilter) ([]*models.Post, error)
	ListOverdueScheduled(ctx context.Context, before time.Time) ([]*models.Post, error)
	UpdateStatus(ctx context.Context, tx *sql.Tx, id int64, status models.PostStatus) error
	Remove(ctx context.Context, id int64) error
}

type postRepository struct {
	db *sql.DB
}

func NewPostRepository(db *sql.DB) PostRepository {
	return &postRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (*models.Post, error) {
	var post models.Post
	var mediaURL, mediaKind sql.NullString
	var platforms pq.StringArray

	err := row.Scan(&post.ID, &post.UserID, &post.StoreID, &post.Content, &mediaURL, &mediaKind,
		&platforms, &post.Status, &post.ScheduledAt, &post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		return nil, err
	}

	post.MediaURL = mediaURL.String
	post.MediaKind = models.MediaKind(mediaKind.String)
	post.Platforms = make([]models.Platform, len(platforms))
	for i, p := range platforms {
		post.Platforms[i] = models.Platform(p)
	}
	return &post, nil
}

func platformArray(platforms []models.Platform) pq.StringArray {
	out := make(pq.StringArray, len(platforms))
	for i, p := range platforms {
		out[i] = string(p)
	}
	return out
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func (r *postRepository) Create(ctx context.Context, tx *sql.Tx, post *models.Post) (int64, error) {
	query := `
		INSERT INTO posts (user_id, store_id, content, media_url, media_kind, platforms, status, scheduled_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	args := []any{post.UserID, post.StoreID, post.Content, nullString(post.MediaURL), nullString(string(post.MediaKind)),
		platformArray(post.Platforms), post.Status, post.ScheduledAt}

	var id int64
	var err error

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

func (r *postRepository) Update(ctx context.Context, tx *sql.Tx, post *models.Post) error {
	query := `
		UPDATE posts
		SET store_id = $1,
			content = $2,
			media_url = $3,
			media_kind = $4,
			platforms = $5,
			status = $6,
			scheduled_at = $7,
			updated_at = $8
		WHERE id = $9
	`
	args := []any{post.StoreID, post.Content, nullString(post.MediaURL), nullString(string(post.MediaKind)),
		platformArray(post.Platforms), post.Status, post.ScheduledAt, time.Now(), post.ID}

	var err error
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, args...)
	} else {
		_, err = r.db.ExecContext(ctx, query, args...)
	}
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE id = $1`

	post, err := scanPost(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return post, nil
}

func (r *postRepository) List(ctx context.Context, userID int64, filter PostFilter) ([]*models.Post, error) {
	q := psql.Select(postColumns).
		From("posts").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("created_at DESC")

	if filter.StoreID != "" {
		q = q.Where(sq.Eq{"store_id": filter.StoreID})
	}
	if filter.Status != "" {
		q = q.Where(sq.Eq{"status": filter.Status})
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}

	return r.query(ctx, q)
}

// ListOverdueScheduled returns scheduled posts due before the given time that
// still have undelivered targets.
func (r *postRepository) ListOverdueScheduled(ctx context.Context, before time.Time) ([]*models.Post, error) {
	q := psql.Select(postColumns).
		From("posts").
		Where(sq.Eq{"status": models.PostStatusScheduled}).
		Where(sq.Lt{"scheduled_at": before}).
		Where("EXISTS (SELECT 1 FROM post_targets t WHERE t.post_id = posts.id AND t.status = ?)", models.TargetStatusPending).
		OrderBy("scheduled_at")

	return r.query(ctx, q)
}

func (r *postRepository) query(ctx context.Context, q sq.SelectBuilder) ([]*models.Post, error) {
	query, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var posts []*models.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}

func (r *postRepository) UpdateStatus(ctx context.Context, tx *sql.Tx, id int64, status models.PostStatus) error {
	query := `
		UPDATE posts
		SET status = $1,
			updated_at = $2
		WHERE id = $3
	`

	var err error
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, status, time.Now(), id)
	} else {
		_, err = r.db.ExecContext(ctx, query, status, time.Now(), id)
	}
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *postRepository) Remove(ctx context.Context, id int64) error {
	query := `DELETE FROM posts WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)

	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
