package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"kycportal/internal/directory"
	"kycportal/internal/identity/models"
	id "kycportal/pkg/domain"
	"kycportal/pkg/platform/sentinel"
	"kycportal/pkg/secrets"
)

// SeedAccount describes one bootstrap account.
type SeedAccount struct {
	Email    string
	FullName string
	Password string
	Groups   []string
	IsStaff  bool
}

// DefaultSeedAccounts returns one account per role group so every gate can be
// exercised against a fresh in-memory deployment.
func DefaultSeedAccounts() []SeedAccount {
	return []SeedAccount{
		{Email: "compliance@example.com", FullName: "Compliance Analyst", Password: "compliance-dev", Groups: []string{directory.RoleCompliance}},
		{Email: "finance@example.com", FullName: "Finance Analyst", Password: "finance-dev", Groups: []string{directory.RoleFinance}},
		{Email: "trading@example.com", FullName: "Trading Desk", Password: "trading-dev", Groups: []string{directory.RoleTrading}},
		{Email: "procurement@example.com", FullName: "Procurement Officer", Password: "procurement-dev", Groups: []string{directory.RoleProcurement}},
		{Email: "staff@example.com", FullName: "Portal Staff", Password: "staff-dev", Groups: []string{directory.RoleStaff}, IsStaff: true},
		{Email: "client@example.com", FullName: "Client User", Password: "client-dev", Groups: []string{directory.RoleClients}},
	}
}

// Seed creates the given accounts, hashing each password with bcrypt.
// Existing emails are skipped so seeding is idempotent across restarts.
func Seed(ctx context.Context, users *InMemory, accounts []SeedAccount) error {
	now := time.Now()
	for _, acct := range accounts {
		hash, err := secrets.Hash(acct.Password)
		if err != nil {
			return err
		}
		u, err := models.NewUser(id.UserID(uuid.New()), acct.Email, acct.FullName, hash, acct.Groups, now)
		if err != nil {
			return err
		}
		u.IsStaff = acct.IsStaff
		if err := users.Create(ctx, u); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				continue
			}
			return fmt.Errorf("seed account %s: %w", acct.Email, err)
		}
	}
	return nil
}
