package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	companymodels "kycportal/internal/company/models"
	"kycportal/internal/directory"
	"kycportal/internal/rdd/models"
	id "kycportal/pkg/domain"
	dErrors "kycportal/pkg/domain-errors"
	"kycportal/pkg/platform/sentinel"
	"kycportal/pkg/requestcontext"
)

// Store is the persistence port for RDD threads and messages.
type Store interface {
	CreateThread(ctx context.Context, t *models.Thread) error
	UpdateThread(ctx context.Context, t *models.Thread) error
	FindThread(ctx context.Context, threadID id.ThreadID) (*models.Thread, error)
	ListThreads(ctx context.Context) ([]*models.Thread, error)
	ListThreadsByCreator(ctx context.Context, creator id.UserID) ([]*models.Thread, error)
	AppendMessage(ctx context.Context, m *models.Message) error
	ListMessages(ctx context.Context, threadID id.ThreadID) ([]*models.Message, error)
}

// CompanyReader checks that a thread's company exists.
type CompanyReader interface {
	FindByID(ctx context.Context, companyID id.CompanyID) (*companymodels.Company, error)
}

// Directory answers membership questions about a user.
type Directory interface {
	IsInternal(ctx context.Context, userID id.UserID) (bool, error)
}

// Notifier delivers notifications to users and role groups.
type Notifier interface {
	Notify(ctx context.Context, recipient id.UserID, message, url string, threadID id.ThreadID) error
	NotifyGroup(ctx context.Context, role, message, url string, threadID id.ThreadID) error
}

// ThreadView pairs a thread with its messages for read endpoints.
type ThreadView struct {
	Thread   *models.Thread    `json:"thread"`
	Messages []*models.Message `json:"messages"`
}

// Service runs the Reverse Due Diligence conversations: client questions
// raised against a company and answered by internal staff.
type Service struct {
	store     Store
	companies CompanyReader
	directory Directory
	notifier  Notifier
	logger    *slog.Logger
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func New(store Store, companies CompanyReader, dir Directory, notifier Notifier, opts ...Option) *Service {
	s := &Service{
		store:     store,
		companies: companies,
		directory: dir,
		notifier:  notifier,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create opens a thread with its first message and alerts the staff group.
func (s *Service) Create(ctx context.Context, companyID id.CompanyID, subject, body string) (*models.Thread, error) {
	creator := requestcontext.UserID(ctx)
	if creator.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	if strings.TrimSpace(body) == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "message body cannot be empty")
	}

	if _, err := s.companies.FindByID(ctx, companyID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "company not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load company")
	}

	now := requestcontext.Now(ctx)
	thread, err := models.NewThread(id.ThreadID(uuid.New()), companyID, creator, subject, now)
	if err != nil {
		return nil, err
	}
	if err := s.store.CreateThread(ctx, thread); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create thread")
	}

	internal, err := s.isInternal(ctx, creator)
	if err != nil {
		return nil, err
	}
	msg := &models.Message{
		ID:        id.MessageID(uuid.New()),
		ThreadID:  thread.ID,
		AuthorID:  creator,
		Body:      body,
		Internal:  internal,
		CreatedAt: now,
	}
	if err := s.store.AppendMessage(ctx, msg); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record first message")
	}

	s.notifyGroup(ctx, thread, fmt.Sprintf("New RDD: %s", thread.Subject))
	s.logger.InfoContext(ctx, "rdd thread created",
		"request_id", requestcontext.RequestID(ctx),
		"thread_id", thread.ID,
		"company_id", companyID,
	)
	return thread, nil
}

// Get returns a thread with its messages. Clients only see their own
// threads; internal users see all of them.
func (s *Service) Get(ctx context.Context, threadID id.ThreadID) (*ThreadView, error) {
	thread, err := s.authorizeRead(ctx, threadID)
	if err != nil {
		return nil, err
	}
	messages, err := s.store.ListMessages(ctx, threadID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list messages")
	}
	return &ThreadView{Thread: thread, Messages: messages}, nil
}

// List returns the threads visible to the caller.
func (s *Service) List(ctx context.Context) ([]*models.Thread, error) {
	actor := requestcontext.UserID(ctx)
	if actor.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	internal, err := s.isInternal(ctx, actor)
	if err != nil {
		return nil, err
	}

	var threads []*models.Thread
	if internal {
		threads, err = s.store.ListThreads(ctx)
	} else {
		threads, err = s.store.ListThreadsByCreator(ctx, actor)
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list threads")
	}
	return threads, nil
}

// PostMessage appends a message to an open thread. A staff reply notifies
// the thread creator; a client message alerts the staff group.
func (s *Service) PostMessage(ctx context.Context, threadID id.ThreadID, body string) (*models.Message, error) {
	if strings.TrimSpace(body) == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "message body cannot be empty")
	}

	thread, err := s.authorizeRead(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if err := thread.CanPost(); err != nil {
		return nil, err
	}

	actor := requestcontext.UserID(ctx)
	internal, err := s.isInternal(ctx, actor)
	if err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	msg := &models.Message{
		ID:        id.MessageID(uuid.New()),
		ThreadID:  threadID,
		AuthorID:  actor,
		Body:      body,
		Internal:  internal,
		CreatedAt: now,
	}
	if err := s.store.AppendMessage(ctx, msg); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record message")
	}

	thread.ApplyMessage(internal, now)
	if err := s.store.UpdateThread(ctx, thread); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update thread")
	}

	if internal {
		if actor != thread.CreatedBy {
			s.notifyCreator(ctx, thread, fmt.Sprintf("Reply to RDD: %s", thread.Subject))
		}
	} else {
		s.notifyGroup(ctx, thread, fmt.Sprintf("New message on RDD: %s", thread.Subject))
	}
	return msg, nil
}

// Close marks a thread resolved. Staff only.
func (s *Service) Close(ctx context.Context, threadID id.ThreadID) (*models.Thread, error) {
	thread, err := s.authorizeInternal(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if err := thread.CanClose(); err != nil {
		return nil, err
	}

	thread.ApplyClose(requestcontext.Now(ctx))
	if err := s.store.UpdateThread(ctx, thread); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to close thread")
	}

	s.notifyCreator(ctx, thread, fmt.Sprintf("RDD closed: %s", thread.Subject))
	return thread, nil
}

// Reopen returns a closed thread to the open state and alerts the staff
// group that the conversation resumed.
func (s *Service) Reopen(ctx context.Context, threadID id.ThreadID) (*models.Thread, error) {
	thread, err := s.authorizeRead(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if err := thread.CanReopen(); err != nil {
		return nil, err
	}

	thread.ApplyReopen(requestcontext.Now(ctx))
	if err := s.store.UpdateThread(ctx, thread); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to reopen thread")
	}

	s.notifyGroup(ctx, thread, fmt.Sprintf("RDD reopened: %s", thread.Subject))
	return thread, nil
}

func (s *Service) authorizeRead(ctx context.Context, threadID id.ThreadID) (*models.Thread, error) {
	actor := requestcontext.UserID(ctx)
	if actor.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}

	thread, err := s.findThread(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if thread.CreatedBy == actor {
		return thread, nil
	}

	internal, err := s.isInternal(ctx, actor)
	if err != nil {
		return nil, err
	}
	if !internal {
		return nil, dErrors.New(dErrors.CodeForbidden, "you do not have access to this thread")
	}
	return thread, nil
}

func (s *Service) authorizeInternal(ctx context.Context, threadID id.ThreadID) (*models.Thread, error) {
	actor := requestcontext.UserID(ctx)
	if actor.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	internal, err := s.isInternal(ctx, actor)
	if err != nil {
		return nil, err
	}
	if !internal {
		return nil, dErrors.New(dErrors.CodeForbidden, "only staff can perform this action")
	}
	return s.findThread(ctx, threadID)
}

func (s *Service) findThread(ctx context.Context, threadID id.ThreadID) (*models.Thread, error) {
	thread, err := s.store.FindThread(ctx, threadID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "thread not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load thread")
	}
	return thread, nil
}

func (s *Service) isInternal(ctx context.Context, userID id.UserID) (bool, error) {
	internal, err := s.directory.IsInternal(ctx, userID)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve user groups")
	}
	return internal, nil
}

// Notification failures never fail the write that triggered them.

func (s *Service) notifyCreator(ctx context.Context, thread *models.Thread, message string) {
	if err := s.notifier.Notify(ctx, thread.CreatedBy, message, threadLink(thread.ID), thread.ID); err != nil {
		s.logger.WarnContext(ctx, "creator notification failed",
			"thread_id", thread.ID,
			"error", err,
		)
	}
}

func (s *Service) notifyGroup(ctx context.Context, thread *models.Thread, message string) {
	if err := s.notifier.NotifyGroup(ctx, directory.RoleStaff, message, threadLink(thread.ID), thread.ID); err != nil {
		s.logger.WarnContext(ctx, "staff notification failed",
			"thread_id", thread.ID,
			"error", err,
		)
	}
}

func threadLink(threadID id.ThreadID) string {
	return "/rdd/" + threadID.String()
}
