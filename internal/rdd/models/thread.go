package models

import (
	"strings"
	"time"

	id "kycportal/pkg/domain"
	dErrors "kycportal/pkg/domain-errors"
)

// ThreadStatus is the lifecycle state of an RDD thread.
type ThreadStatus string

const (
	// StatusOpen means the thread is awaiting an answer from staff.
	StatusOpen ThreadStatus = "OPEN"
	// StatusResponded means staff have replied since the client last wrote.
	StatusResponded ThreadStatus = "RESPONDED"
	// StatusClosed means the thread is resolved. Closed threads reject new
	// messages until reopened.
	StatusClosed ThreadStatus = "CLOSED"
)

// Thread is a Reverse Due Diligence conversation: a client-raised question
// answered by internal staff, scoped to one company.
type Thread struct {
	ID            id.ThreadID  `json:"id"`
	CompanyID     id.CompanyID `json:"company_id"`
	CreatedBy     id.UserID    `json:"created_by"`
	Subject       string       `json:"subject"`
	Status        ThreadStatus `json:"status"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
	LastMessageAt time.Time    `json:"last_message_at"`
}

// Message is one entry in a thread. Internal is recorded at write time so
// the audience of a historical message does not change when the author's
// group memberships do.
type Message struct {
	ID        id.MessageID `json:"id"`
	ThreadID  id.ThreadID  `json:"thread_id"`
	AuthorID  id.UserID    `json:"author_id"`
	Body      string       `json:"body"`
	Internal  bool         `json:"internal"`
	CreatedAt time.Time    `json:"created_at"`
}

// NewThread constructs an open thread with its first message pending.
func NewThread(threadID id.ThreadID, companyID id.CompanyID, createdBy id.UserID, subject string, now time.Time) (*Thread, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "thread subject cannot be empty")
	}
	if companyID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "company id is required")
	}
	return &Thread{
		ID:            threadID,
		CompanyID:     companyID,
		CreatedBy:     createdBy,
		Subject:       subject,
		Status:        StatusOpen,
		CreatedAt:     now,
		UpdatedAt:     now,
		LastMessageAt: now,
	}, nil
}

// CanPost reports whether the thread accepts new messages.
func (t *Thread) CanPost() error {
	if t.Status == StatusClosed {
		return dErrors.New(dErrors.CodePreconditionFailed, "thread is closed; reopen it to continue the conversation")
	}
	return nil
}

// ApplyMessage records a new message on the thread. A staff reply moves an
// open thread to RESPONDED; a client message moves it back to OPEN.
func (t *Thread) ApplyMessage(internal bool, now time.Time) {
	if internal {
		t.Status = StatusResponded
	} else {
		t.Status = StatusOpen
	}
	t.LastMessageAt = now
	t.UpdatedAt = now
}

// CanClose reports whether the thread can be closed.
func (t *Thread) CanClose() error {
	if t.Status == StatusClosed {
		return dErrors.New(dErrors.CodePreconditionFailed, "thread is already closed")
	}
	return nil
}

// ApplyClose marks the thread resolved.
func (t *Thread) ApplyClose(now time.Time) {
	t.Status = StatusClosed
	t.UpdatedAt = now
}

// CanReopen reports whether the thread can be reopened.
func (t *Thread) CanReopen() error {
	if t.Status != StatusClosed {
		return dErrors.New(dErrors.CodePreconditionFailed, "only closed threads can be reopened")
	}
	return nil
}

// ApplyReopen returns a closed thread to the open state.
func (t *Thread) ApplyReopen(now time.Time) {
	t.Status = StatusOpen
	t.UpdatedAt = now
}
