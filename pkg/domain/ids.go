// Package domain holds the typed identifiers shared across the portal.
//
// Each ID is a distinct UUID wrapper so the compiler rejects accidental
// cross-assignment (passing a CompanyID where a UserID is expected).
package domain

import (
	"github.com/google/uuid"

	dErrors "kycportal/pkg/domain-errors"
)

// CompanyID identifies a company going through onboarding.
type CompanyID uuid.UUID

// UserID identifies a portal user (internal staff or client).
type UserID uuid.UUID

// ThreadID identifies a Reverse Due Diligence thread.
type ThreadID uuid.UUID

// NotificationID identifies a single notification.
type NotificationID uuid.UUID

// MessageID identifies one message inside an RDD thread.
type MessageID uuid.UUID

func (id CompanyID) String() string      { return uuid.UUID(id).String() }
func (id UserID) String() string         { return uuid.UUID(id).String() }
func (id ThreadID) String() string       { return uuid.UUID(id).String() }
func (id NotificationID) String() string { return uuid.UUID(id).String() }
func (id MessageID) String() string      { return uuid.UUID(id).String() }

func (id CompanyID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id UserID) IsNil() bool         { return uuid.UUID(id) == uuid.Nil }
func (id ThreadID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }
func (id NotificationID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id MessageID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }

// ParseCompanyID validates and parses a company ID from its string form.
// IDs must be valid, non-empty, non-nil UUIDs.
func ParseCompanyID(s string) (CompanyID, error) {
	u, err := parseUUID(s, "company id")
	return CompanyID(u), err
}

// ParseUserID validates and parses a user ID from its string form.
func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID(s, "user id")
	return UserID(u), err
}

// ParseThreadID validates and parses an RDD thread ID from its string form.
func ParseThreadID(s string) (ThreadID, error) {
	u, err := parseUUID(s, "thread id")
	return ThreadID(u), err
}

// ParseNotificationID validates and parses a notification ID from its string form.
func ParseNotificationID(s string) (NotificationID, error) {
	u, err := parseUUID(s, "notification id")
	return NotificationID(u), err
}

func parseUUID(s, what string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, what+" is required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, what+" is not a valid UUID")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, what+" must not be the nil UUID")
	}
	return u, nil
}
