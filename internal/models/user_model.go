package models

import "time"

type User struct {
	ID                  int64     `db:"id" json:"id"`
	GoogleID            string    `db:"google_id" json:"google_id"`
	Email               string    `db:"email" json:"email"`
	Name                string    `db:"name" json:"name"`
	ListingAccount      string    `db:"listing_account" json:"listing_account,omitempty"`
	ListingRefreshToken string    `db:"listing_refresh_token" json:"-"`
	CreatedAt           time.Time `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time `db:"updated_at" json:"updated_at"`
}

// ListingConnected reports whether the profile carries a usable primary listing link.
func (u *User) ListingConnected() bool {
	return u != nil && u.ListingAccount != "" && u.ListingRefreshToken != ""
}
