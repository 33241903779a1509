package adminauth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/minto5z/adminauth/tokenstore"
)

// Login exchanges credentials for a token pair and the authenticated user.
// The rotated pair is persisted before Login returns. A backend 401 maps to
// [ErrInvalidCredentials].
func (c *Client) Login(ctx context.Context, creds Credentials) (AuthResult, error) {
	var result AuthResult
	if err := c.do(ctx, http.MethodPost, "/auth/login", nil, creds, &result); err != nil {
		if apiErr, ok := AsAPIError(err); ok && apiErr.Status == http.StatusUnauthorized {
			return AuthResult{}, fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
		}
		return AuthResult{}, err
	}

	if err := c.persistPair(ctx, result); err != nil {
		return AuthResult{}, err
	}
	return result, nil
}

// Register creates an account and, like Login, persists the returned pair.
func (c *Client) Register(ctx context.Context, data RegisterData) (AuthResult, error) {
	var result AuthResult
	if err := c.do(ctx, http.MethodPost, "/auth/register", nil, data, &result); err != nil {
		return AuthResult{}, err
	}

	if err := c.persistPair(ctx, result); err != nil {
		return AuthResult{}, err
	}
	return result, nil
}

// RefreshToken forces a token rotation outside the 401 interception path,
// honoring the same coalescing and throttle rules.
func (c *Client) RefreshToken(ctx context.Context) error {
	return c.refresh(ctx)
}

// Logout revokes the current backend session. Local token cleanup is the
// session's job; Logout only makes the backend call.
func (c *Client) Logout(ctx context.Context) error {
	pair, ok, err := c.store.Get(ctx)
	if err != nil {
		return fmt.Errorf("adminauth: token store: %w", err)
	}
	if !ok {
		return nil
	}

	body := map[string]string{"refreshToken": pair.RefreshToken}
	return c.do(ctx, http.MethodPost, "/auth/logout", nil, body, nil)
}

// LogoutAll revokes every backend session for the current user.
func (c *Client) LogoutAll(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/auth/logout-all", nil, nil, nil)
}

// ChangePassword rotates the password for the authenticated user.
func (c *Client) ChangePassword(ctx context.Context, current, updated string) error {
	body := map[string]string{
		"currentPassword": current,
		"newPassword":     updated,
	}
	return c.do(ctx, http.MethodPost, "/auth/change-password", nil, body, nil)
}

// ForgotPassword requests a password reset email. The backend answers
// uniformly whether or not the address exists.
func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	body := map[string]string{"email": email}
	return c.do(ctx, http.MethodPost, "/auth/forgot-password", nil, body, nil)
}

// ResetPassword completes a reset started by ForgotPassword.
func (c *Client) ResetPassword(ctx context.Context, token, newPassword string) error {
	body := map[string]string{
		"token":       token,
		"newPassword": newPassword,
	}
	return c.do(ctx, http.MethodPost, "/auth/reset-password", nil, body, nil)
}

// VerifyEmail confirms the address behind an emailed verification token.
func (c *Client) VerifyEmail(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodGet, "/auth/verify-email/"+url.PathEscape(token), nil, nil, nil)
}

// Profile fetches the current user. An exhausted refresh surfaces as
// [ErrUnauthenticated].
func (c *Client) Profile(ctx context.Context) (User, error) {
	c.metrics.Inc(MetricProfileFetch)

	var user User
	if err := c.do(ctx, http.MethodGet, "/auth/profile", nil, nil, &user); err != nil {
		return User{}, err
	}
	return user, nil
}

// UpdateProfile applies a partial update and returns the replacement
// snapshot.
func (c *Client) UpdateProfile(ctx context.Context, patch ProfilePatch) (User, error) {
	var user User
	if err := c.do(ctx, http.MethodPut, "/auth/profile", nil, patch, &user); err != nil {
		return User{}, err
	}
	c.metrics.Inc(MetricProfileUpdate)
	return user, nil
}

// Sessions lists the backend-tracked login sessions of the current user.
func (c *Client) Sessions(ctx context.Context) ([]SessionInfo, error) {
	var sessions []SessionInfo
	if err := c.do(ctx, http.MethodGet, "/auth/sessions", nil, nil, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// RevokeSession revokes one backend session by ID.
func (c *Client) RevokeSession(ctx context.Context, sessionID string) error {
	return c.do(ctx, http.MethodDelete, "/auth/sessions/"+url.PathEscape(sessionID), nil, nil, nil)
}

// RevokeOtherSessions revokes every backend session except the current one.
func (c *Client) RevokeOtherSessions(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/auth/sessions", nil, nil, nil)
}

func (c *Client) persistPair(ctx context.Context, result AuthResult) error {
	if result.AccessToken == "" {
		return errors.New("adminauth: auth response missing access token")
	}
	pair := tokenstore.TokenPair{
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
	}
	if err := c.store.Set(ctx, pair); err != nil {
		return fmt.Errorf("adminauth: persist tokens: %w", err)
	}
	return nil
}
