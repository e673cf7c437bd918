package models

import (
	"strings"
	"time"

	id "kycportal/pkg/domain"
	dErrors "kycportal/pkg/domain-errors"
)

// User is a portal account, either internal staff or an external client.
//
// Invariants:
//   - Email is non-empty and stored lowercased
//   - PasswordHash is a bcrypt hash, never the cleartext password
//   - Groups holds role-group names from the directory vocabulary
type User struct {
	ID           id.UserID `json:"id"`
	Email        string    `json:"email"`
	FullName     string    `json:"full_name"`
	PasswordHash string    `json:"-"`
	Groups       []string  `json:"groups"`
	IsStaff      bool      `json:"is_staff"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewUser constructs an active user, normalizing the email.
func NewUser(userID id.UserID, email, fullName, passwordHash string, groups []string, now time.Time) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "user email cannot be empty")
	}
	if passwordHash == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "user password hash cannot be empty")
	}
	return &User{
		ID:           userID,
		Email:        email,
		FullName:     fullName,
		PasswordHash: passwordHash,
		Groups:       groups,
		Active:       true,
		CreatedAt:    now,
	}, nil
}

// InGroup reports whether the user belongs to the named role group.
func (u *User) InGroup(group string) bool {
	for _, g := range u.Groups {
		if g == group {
			return true
		}
	}
	return false
}
