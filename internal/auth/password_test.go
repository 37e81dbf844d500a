package auth

import (
	"testing"
	"time"

	"bazaar/infrastructure"
	"bazaar/internal/user"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestPasswordPolicyValidate(t *testing.T) {
	policy := PasswordPolicy{}

	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"accepts strong password", "Passw0rd!", false},
		{"rejects too short", "Pa0!", true},
		{"rejects missing uppercase", "passw0rd!", true},
		{"rejects missing lowercase", "PASSW0RD!", true},
		{"rejects missing digit", "Password!", true},
		{"rejects missing special", "Passw0rd1", true},
		{"rejects empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := policy.Validate(tt.password)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, infrastructure.ErrPasswordPolicy)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPasswordPolicyCheckReuse(t *testing.T) {
	policy := PasswordPolicy{}

	hash, err := bcrypt.GenerateFromPassword([]byte("Passw0rd!"), bcrypt.MinCost)
	require.NoError(t, err)
	history := []user.PasswordHistoryEntry{{PasswordHash: string(hash), CreatedAt: time.Now()}}

	assert.ErrorIs(t, policy.CheckReuse("Passw0rd!", history), infrastructure.ErrPasswordReused)
	assert.NoError(t, policy.CheckReuse("Different1!", history))
	assert.NoError(t, policy.CheckReuse("Passw0rd!", nil))
}

func TestPasswordPolicyApply(t *testing.T) {
	policy := PasswordPolicy{}
	u := &user.User{}

	before := time.Now()
	require.NoError(t, policy.Apply(u, "Passw0rd!"))

	assert.True(t, verifyPassword(u.PasswordHash, "Passw0rd!"))
	require.Len(t, u.PasswordHistory, 1)
	assert.Equal(t, u.PasswordHash, u.PasswordHistory[0].PasswordHash)

	require.True(t, u.PasswordExpiresAt.Valid)
	expires := u.PasswordExpiresAt.Time
	assert.WithinDuration(t, before.Add(PasswordLifetime), expires, time.Minute)

	// changing to the same password again is a reuse violation
	assert.ErrorIs(t, policy.Apply(u, "Passw0rd!"), infrastructure.ErrPasswordReused)
	assert.Len(t, u.PasswordHistory, 1)

	require.NoError(t, policy.Apply(u, "An0ther$ecret"))
	assert.Len(t, u.PasswordHistory, 2)
}

func TestPasswordExpired(t *testing.T) {
	now := time.Now()

	u := &user.User{}
	assert.False(t, PasswordExpired(u, now), "no expiry set means not expired")

	u.PasswordExpiresAt.Valid = true
	u.PasswordExpiresAt.Time = now.Add(time.Hour)
	assert.False(t, PasswordExpired(u, now))

	u.PasswordExpiresAt.Time = now.Add(-time.Hour)
	assert.True(t, PasswordExpired(u, now))
}

func TestLocked(t *testing.T) {
	now := time.Now()

	u := &user.User{}
	assert.False(t, Locked(u, now))

	u.LockedUntil.Valid = true
	u.LockedUntil.Time = now.Add(LockoutDuration)
	assert.True(t, Locked(u, now))

	u.LockedUntil.Time = now.Add(-time.Second)
	assert.False(t, Locked(u, now), "expired lock counts as unlocked")
}
