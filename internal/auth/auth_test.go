package auth

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	require.NoError(t, err)
	require.NotEqual(t, "s3cret-pass", hash)

	require.NoError(t, CheckPassword(hash, "s3cret-pass"))
	require.ErrorIs(t, CheckPassword(hash, "wrong"), ErrPasswordMismatch)
}

func TestTokenManager_IssueAndParse(t *testing.T) {
	m := NewTokenManager("secret", time.Hour, nil)

	raw, err := m.Issue(42, "admin")
	require.NoError(t, err)

	claims, err := m.Parse(context.Background(), raw)
	require.NoError(t, err)
	id, err := claims.UserID()
	require.NoError(t, err)
	require.Equal(t, int64(42), id)
	require.Equal(t, "admin", claims.Role)
	require.NotEmpty(t, claims.ID)
}

func TestTokenManager_RejectsBadTokens(t *testing.T) {
	m := NewTokenManager("secret", time.Hour, nil)
	other := NewTokenManager("other-secret", time.Hour, nil)

	foreign, err := other.Issue(1, "user")
	require.NoError(t, err)

	expiredManager := NewTokenManager("secret", time.Hour, nil)
	expiredManager.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, err := expiredManager.Issue(1, "user")
	require.NoError(t, err)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   "1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "garbage", token: "not-a-token"},
		{name: "empty", token: ""},
		{name: "wrong secret", token: foreign},
		{name: "expired", token: expired},
		{name: "alg none", token: unsigned},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.Parse(context.Background(), tt.token)
			require.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestTokenManager_Revoke(t *testing.T) {
	ctx := context.Background()
	m := NewTokenManager("secret", time.Hour, NewMemoryRevoker())

	raw, err := m.Issue(7, "user")
	require.NoError(t, err)
	claims, err := m.Parse(ctx, raw)
	require.NoError(t, err)

	require.NoError(t, m.Revoke(ctx, claims))
	_, err = m.Parse(ctx, raw)
	require.ErrorIs(t, err, ErrInvalidToken)

	fresh, err := m.Issue(7, "user")
	require.NoError(t, err)
	_, err = m.Parse(ctx, fresh)
	require.NoError(t, err)
}

func TestMemoryRevoker_Expires(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	r := NewMemoryRevoker()
	r.now = func() time.Time { return now }

	require.NoError(t, r.Revoke(ctx, "a", time.Minute))
	revoked, err := r.Revoked(ctx, "a")
	require.NoError(t, err)
	require.True(t, revoked)

	now = now.Add(2 * time.Minute)
	revoked, err = r.Revoked(ctx, "a")
	require.NoError(t, err)
	require.False(t, revoked)

	require.NoError(t, r.Revoke(ctx, "b", time.Minute))
	require.NotContains(t, r.entries, "a")
}

func TestRedisRevoker(t *testing.T) {
	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	ctx := context.Background()
	r, err := NewRedisRevoker(ctx, addr)
	require.NoError(t, err)
	defer r.Close()

	id := uuid.NewString()
	revoked, err := r.Revoked(ctx, id)
	require.NoError(t, err)
	require.False(t, revoked)

	require.NoError(t, r.Revoke(ctx, id, time.Minute))
	revoked, err = r.Revoked(ctx, id)
	require.NoError(t, err)
	require.True(t, revoked)
}
