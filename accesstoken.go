package adminauth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AccessTokenExpiry reads the exp claim of a JWT access token without
// verifying its signature. The client holds no verification key; the backend
// remains the authority on validity. This exists only to schedule a refresh
// before the short access lifetime runs out.
func AccessTokenExpiry(token string) (time.Time, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, fmt.Errorf("adminauth: parse access token: %w", err)
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, fmt.Errorf("adminauth: access token has no exp claim")
	}
	return exp.Time, nil
}

// TokenExpiresAt reports when the stored access token expires. ok is false
// when no token is stored or its claims are unreadable.
func (c *Client) TokenExpiresAt(ctx context.Context) (expiry time.Time, ok bool) {
	pair, present, err := c.store.Get(ctx)
	if err != nil || !present {
		return time.Time{}, false
	}
	expiry, err = AccessTokenExpiry(pair.AccessToken)
	if err != nil {
		return time.Time{}, false
	}
	return expiry, true
}
