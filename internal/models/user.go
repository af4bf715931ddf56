package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents a registered user account.
// Users are created on signup and are never updated or deleted.
type User struct {
	// ID is the unique identifier for the user (UUID format).
	ID string `json:"id"`

	// Email is the user's email address (unique).
	Email string `json:"email"`

	// Username is the user's handle (unique). Login accepts either email or username.
	Username string `json:"username"`

	// DisplayName is the human-readable name shown to other members.
	DisplayName string `json:"displayName"`

	// PasswordHash is owned by the identity collaborator and never serialized.
	PasswordHash string `json:"-"`

	// CreatedAt is the Unix timestamp when the account was created.
	CreatedAt int64 `json:"createdAt"`
}

// NewUser creates a user with a fresh ID and creation timestamp.
func NewUser(email, username, displayName, passwordHash string) *User {
	return &User{
		ID:           uuid.New().String(),
		Email:        email,
		Username:     username,
		DisplayName:  displayName,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().Unix(),
	}
}
