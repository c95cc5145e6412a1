// Package models defines server-side data models persisted in the database.
package models

import "time"

// User is an account record. Password holds the opaque hash, never plaintext.
type User struct {
	ID           int64
	UserName     string
	Email        string
	Password     string
	Confirmed    bool
	Avatar       *string
	RefreshToken *string
	CreatedAt    time.Time
}

// UserDraft is the input of account creation. Password is already hashed.
type UserDraft struct {
	UserName string
	Email    string
	Password string
}
