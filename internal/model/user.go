// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered account.
//
// Identity is email + password for the normal flow. PasswordHash holds the
// bcrypt output — never the raw password — and is excluded from JSON with
// the `json:"-"` tag so no handler can accidentally serialize it.
//
// GitHubID is set only for accounts created through the optional GitHub
// sign-in flow. Zero means "no linked GitHub account"; the repository
// stores it as NULL so the UNIQUE constraint only applies to real IDs.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	GitHubID     int64     `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}
