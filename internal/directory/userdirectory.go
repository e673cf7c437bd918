package directory

import (
	"context"
	"errors"

	"kycportal/internal/identity/models"
	id "kycportal/pkg/domain"
	dErrors "kycportal/pkg/domain-errors"
	"kycportal/pkg/platform/sentinel"
)

// UserSource is the slice of the identity store the directory reads from.
type UserSource interface {
	FindByID(ctx context.Context, userID id.UserID) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
}

// UserDirectory resolves role membership against the identity store.
type UserDirectory struct {
	users UserSource
}

func NewUserDirectory(users UserSource) *UserDirectory {
	return &UserDirectory{users: users}
}

func (d *UserDirectory) IsMember(ctx context.Context, userID id.UserID, role string) (bool, error) {
	user, err := d.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return false, nil
		}
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user for membership check")
	}
	return user.InGroup(role), nil
}

func (d *UserDirectory) MembersOf(ctx context.Context, role string) ([]id.UserID, error) {
	users, err := d.users.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list users for role")
	}
	var members []id.UserID
	for _, u := range users {
		if u.Active && u.InGroup(role) {
			members = append(members, u.ID)
		}
	}
	return members, nil
}

// IsInternal classifies a user for notification audience tagging. Staff
// accounts and members of any internal role group count as internal; a user
// whose only groups are client groups counts as external. Users with no
// groups at all default to internal, matching how staff-created accounts
// behave before group assignment.
func (d *UserDirectory) IsInternal(ctx context.Context, userID id.UserID) (bool, error) {
	user, err := d.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return false, nil
		}
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user for classification")
	}
	if user.IsStaff {
		return true, nil
	}
	for _, g := range user.Groups {
		if IsInternalRole(g) {
			return true, nil
		}
	}
	if user.InGroup(RoleClients) {
		return false, nil
	}
	return true, nil
}
