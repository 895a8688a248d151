package models

import "time"

// GenerationDefault is the durable snapshot of a locked generation parameter.
type GenerationDefault struct {
	UserID    int64     `db:"user_id" json:"user_id"`
	Name      string    `db:"name" json:"name"`
	Value     string    `db:"value" json:"value"`
	Locked    bool      `db:"locked" json:"locked"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
