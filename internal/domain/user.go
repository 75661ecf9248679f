package domain

import "time"

// User represents a registered account. PasswordHash and the token hashes
// are never exposed through the API.
type User struct {
	ID                       int64
	Name                     string
	Email                    string
	PasswordHash             string
	IsVerified               bool
	VerificationTokenHash    string
	VerificationTokenExpires *time.Time
	ResetTokenHash           string
	ResetTokenExpires        *time.Time
	CreatedAt                time.Time
	UpdatedAt                time.Time
}
