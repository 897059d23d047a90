package models

import "time"

// User is an account identified by email address.
// The email doubles as the owner id on conversations.
type User struct {
	Email          string    `json:"email" db:"email"`
	HashedPassword string    `json:"-" db:"hashed_password"`
	FullName       *string   `json:"full_name,omitempty" db:"full_name"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}
