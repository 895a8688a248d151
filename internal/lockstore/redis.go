package lockstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/maheshrc27/storepost/internal/composer"
	"github.com/redis/go-redis/v9"
)

// Redis keeps one hash per user; fields are parameter names and values are
// JSON encoded snapshots.
type Redis struct {
	client *redis.Client
	prefix string
}

func NewRedis(client *redis.Client, prefix string) *Redis {
	if prefix == "" {
		prefix = "generation_defaults"
	}
	return &Redis{client: client, prefix: prefix}
}

func (r *Redis) key(userID int64) string {
	return fmt.Sprintf("%s:%d", r.prefix, userID)
}

func (r *Redis) Load(ctx context.Context, userID int64) (map[string]composer.StoredParameter, error) {
	fields, err := r.client.HGetAll(ctx, r.key(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("read generation defaults: %w", err)
	}

	out := make(map[string]composer.StoredParameter, len(fields))
	for name, raw := range fields {
		var p composer.StoredParameter
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			slog.Info("skipping malformed generation default", "user", userID, "name", name, "error", err)
			continue
		}
		out[name] = p
	}
	return out, nil
}

func (r *Redis) Save(ctx context.Context, userID int64, name string, p composer.StoredParameter) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}
	if err := r.client.HSet(ctx, r.key(userID), name, raw).Err(); err != nil {
		return fmt.Errorf("write generation default: %w", err)
	}
	return nil
}
