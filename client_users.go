package adminauth

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// ListUsers returns one page of users.
func (c *Client) ListUsers(ctx context.Context, params ListParams) ([]User, Pagination, error) {
	var payload listPayload[User]
	if err := c.do(ctx, http.MethodGet, "/users", params.query(), nil, &payload); err != nil {
		return nil, Pagination{}, err
	}
	return payload.Items, payload.Pagination, nil
}

// GetUser fetches one user by ID.
func (c *Client) GetUser(ctx context.Context, id string) (User, error) {
	var user User
	if err := c.do(ctx, http.MethodGet, "/users/"+url.PathEscape(id), nil, nil, &user); err != nil {
		return User{}, err
	}
	return user, nil
}

// CreateUser creates a user through the admin surface.
func (c *Client) CreateUser(ctx context.Context, input CreateUserInput) (User, error) {
	var user User
	if err := c.do(ctx, http.MethodPost, "/users", nil, input, &user); err != nil {
		return User{}, err
	}
	return user, nil
}

// UpdateUser applies a partial update and returns the replacement snapshot.
func (c *Client) UpdateUser(ctx context.Context, id string, input UpdateUserInput) (User, error) {
	var user User
	if err := c.do(ctx, http.MethodPut, "/users/"+url.PathEscape(id), nil, input, &user); err != nil {
		return User{}, err
	}
	return user, nil
}

// DeleteUser removes a user.
func (c *Client) DeleteUser(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/users/"+url.PathEscape(id), nil, nil, nil)
}

// ActivateUser re-enables a deactivated user.
func (c *Client) ActivateUser(ctx context.Context, id string) (User, error) {
	var user User
	if err := c.do(ctx, http.MethodPatch, "/users/"+url.PathEscape(id)+"/activate", nil, nil, &user); err != nil {
		return User{}, err
	}
	return user, nil
}

// DeactivateUser disables a user without deleting it.
func (c *Client) DeactivateUser(ctx context.Context, id string) (User, error) {
	var user User
	if err := c.do(ctx, http.MethodPatch, "/users/"+url.PathEscape(id)+"/deactivate", nil, nil, &user); err != nil {
		return User{}, err
	}
	return user, nil
}

func (p ListParams) query() url.Values {
	q := url.Values{}
	if p.Page > 0 {
		q.Set("page", strconv.Itoa(p.Page))
	}
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.Search != "" {
		q.Set("search", p.Search)
	}
	if p.SortBy != "" {
		q.Set("sortBy", p.SortBy)
	}
	if p.SortOrder != "" {
		q.Set("sortOrder", p.SortOrder)
	}
	return q
}
