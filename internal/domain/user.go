package domain

import "time"

// User is the domain entity for a user account. Accounts are never deleted.
type User struct {
	ID           int64
	FirstName    string
	LastName     string
	Email        string
	PasswordHash string
	APIKey       string
	CreatedAt    time.Time
}
