package tokens

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secret = []byte("unit-test-secret")

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{in: "admin", want: RoleAdmin},
		{in: "Admin", want: RoleAdmin},
		{in: " ADMIN ", want: RoleAdmin},
		{in: "user", want: RoleUser},
		{in: "Moderator", want: RoleModerator},
		{in: "tester", want: RoleTester},
		{in: "root", want: RoleUnknown},
		{in: "", want: RoleUnknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Normalize(tt.in), "Normalize(%q)", tt.in)
	}
}

func TestKnown(t *testing.T) {
	t.Parallel()

	assert.True(t, Known("Admin"))
	assert.True(t, Known("tester"))
	assert.False(t, Known("superhero"))
	assert.False(t, Known(""))
}

func TestAccessTokenRoundTrip(t *testing.T) {
	t.Parallel()

	exp := time.Now().Add(time.Minute)
	token, err := SignAccessToken("user-1", "Admin", true, exp, secret)
	require.NoError(t, err)

	claims, err := AccessClaimsFromToken(token, secret)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, RoleAdmin, claims.Role, "role is normalized at signing")
	assert.True(t, claims.Approved)
	assert.WithinDuration(t, exp, claims.ExpiresAt.Time, time.Second)
}

func TestAccessToken_WrongSecret(t *testing.T) {
	t.Parallel()

	token, err := SignAccessToken("user-1", RoleUser, true, time.Now().Add(time.Minute), secret)
	require.NoError(t, err)

	_, err = AccessClaimsFromToken(token, []byte("a different secret"))
	assert.Error(t, err)
}

func TestAccessToken_Expired(t *testing.T) {
	t.Parallel()

	token, err := SignAccessToken("user-1", RoleUser, true, time.Now().Add(-time.Minute), secret)
	require.NoError(t, err)

	_, err = AccessClaimsFromToken(token, secret)
	assert.Error(t, err)
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	t.Parallel()

	token, jti, err := SignRefreshToken("user-1", time.Now().Add(time.Hour), secret)
	require.NoError(t, err)
	require.NotEmpty(t, jti)

	claims, err := RefreshClaimsFromToken(token, secret)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, jti, claims.ID)

	// Every signing gets a fresh JTI.
	_, jti2, err := SignRefreshToken("user-1", time.Now().Add(time.Hour), secret)
	require.NoError(t, err)
	assert.NotEqual(t, jti, jti2)
}

func TestSha256Hex(t *testing.T) {
	t.Parallel()

	h := Sha256Hex("some-token")
	assert.Len(t, h, 64)
	assert.Equal(t, h, Sha256Hex("some-token"))
	assert.NotEqual(t, h, Sha256Hex("other-token"))
}
