// Package directory answers role-membership questions for the portal.
//
// The workflow engine never compares group-name strings itself; it asks the
// directory whether an actor holds a role, and the notification dispatcher
// asks it for the member set of a role when fanning out.
package directory

import (
	"context"

	id "kycportal/pkg/domain"
)

// Role-group names. These match the group names carried in JWT role claims.
const (
	RoleCompliance  = "Compliance"
	RoleFinance     = "Finance"
	RoleTrading     = "Trading"
	RoleProcurement = "Procurement"
	RoleStaff       = "Staff"
	RoleClients     = "Clients"
)

// internalRoles are the groups whose members count as internal staff for
// notification audience tagging.
var internalRoles = map[string]bool{
	RoleCompliance:  true,
	RoleFinance:     true,
	RoleTrading:     true,
	RoleProcurement: true,
	RoleStaff:       true,
}

// Directory is the role/membership lookup consumed by the workflow engine
// and the notification dispatcher.
type Directory interface {
	// IsMember reports whether the user belongs to the named role group.
	IsMember(ctx context.Context, userID id.UserID, role string) (bool, error)
	// MembersOf returns the user IDs belonging to the named role group.
	// An unknown role yields an empty set, not an error.
	MembersOf(ctx context.Context, role string) ([]id.UserID, error)
	// IsInternal classifies the user as internal staff or external client.
	IsInternal(ctx context.Context, userID id.UserID) (bool, error)
}

// IsInternalRole reports whether the named role group counts as internal.
func IsInternalRole(role string) bool {
	return internalRoles[role]
}
