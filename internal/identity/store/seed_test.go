package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedIsIdempotent(t *testing.T) {
	ctx := context.Background()
	users := NewInMemory()
	accounts := DefaultSeedAccounts()

	require.NoError(t, Seed(ctx, users, accounts))
	// Re-seeding an already populated store skips existing emails instead of
	// failing on the duplicate.
	require.NoError(t, Seed(ctx, users, accounts))

	for _, acct := range accounts {
		u, err := users.FindByEmail(ctx, acct.Email)
		require.NoError(t, err, acct.Email)
		assert.Equal(t, acct.FullName, u.FullName)
	}
}

func TestSeedRejectsUnusableAccount(t *testing.T) {
	ctx := context.Background()
	users := NewInMemory()

	err := Seed(ctx, users, []SeedAccount{{Email: "broken@example.com", Password: ""}})
	assert.Error(t, err, "empty password cannot be hashed")
}
