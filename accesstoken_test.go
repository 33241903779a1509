package adminauth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/minto5z/adminauth/tokenstore"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "u-1",
		"exp": exp.Unix(),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

func TestAccessTokenExpiry(t *testing.T) {
	exp := time.Now().Add(15 * time.Minute).Truncate(time.Second)

	got, err := AccessTokenExpiry(signedToken(t, exp))
	require.NoError(t, err)
	require.True(t, got.Equal(exp), "expected %v, got %v", exp, got)
}

func TestAccessTokenExpiryRejectsGarbage(t *testing.T) {
	_, err := AccessTokenExpiry("not-a-jwt")
	require.Error(t, err)
}

func TestAccessTokenExpiryRequiresExpClaim(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "u-1"})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = AccessTokenExpiry(signed)
	require.Error(t, err)
}

func TestTokenExpiresAt(t *testing.T) {
	_, server := newFakeBackend(t)
	session := newTestSession(t, server.URL)
	client := session.Client()
	ctx := context.Background()

	_, ok := client.TokenExpiresAt(ctx)
	require.False(t, ok, "no stored token, no expiry")

	exp := time.Now().Add(15 * time.Minute).Truncate(time.Second)
	require.NoError(t, client.Store().Set(ctx, tokenstore.TokenPair{
		AccessToken:  signedToken(t, exp),
		RefreshToken: "r",
	}))

	got, ok := client.TokenExpiresAt(ctx)
	require.True(t, ok)
	require.True(t, got.Equal(exp))
}
