package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"kycportal/internal/directory"
	"kycportal/internal/identity/models"
	"kycportal/internal/identity/token"
	id "kycportal/pkg/domain"
	dErrors "kycportal/pkg/domain-errors"
	"kycportal/pkg/platform/sentinel"
	"kycportal/pkg/requestcontext"
	"kycportal/pkg/secrets"
)

// AccessTokenTTL bounds how long an issued access token stays valid.
const AccessTokenTTL = 8 * time.Hour

// UserStore is the persistence port for portal accounts.
type UserStore interface {
	Create(ctx context.Context, u *models.User) error
	FindByID(ctx context.Context, userID id.UserID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
}

// Service authenticates portal users and issues access tokens.
type Service struct {
	users  UserStore
	tokens *token.JWTService
	logger *slog.Logger
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func New(users UserStore, tokens *token.JWTService, opts ...Option) *Service {
	s := &Service{users: users, tokens: tokens, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Login verifies credentials and returns a signed access token carrying the
// user's role groups. Unknown emails and wrong passwords are indistinguishable
// to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return "", nil, dErrors.New(dErrors.CodeBadRequest, "email and password are required")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return "", nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
		}
		return "", nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up user")
	}
	if !user.Active {
		return "", nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
	}
	if err := secrets.Verify(password, user.PasswordHash); err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvalidInput) {
			return "", nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
		}
		return "", nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to verify password")
	}

	roles := user.Groups
	if user.IsStaff && !user.InGroup(directory.RoleStaff) {
		roles = append(append([]string{}, roles...), directory.RoleStaff)
	}

	accessToken, err := s.tokens.GenerateAccessToken(user.ID, roles, AccessTokenTTL)
	if err != nil {
		return "", nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign access token")
	}

	s.logger.InfoContext(ctx, "user logged in",
		"request_id", requestcontext.RequestID(ctx),
		"user_id", user.ID,
	)
	return accessToken, user, nil
}

// GetUser returns a user by ID.
func (s *Service) GetUser(ctx context.Context, userID id.UserID) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}
	return user, nil
}
