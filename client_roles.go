package adminauth

import (
	"context"
	"net/http"
	"net/url"
)

// ListRoles returns one page of roles.
func (c *Client) ListRoles(ctx context.Context, params ListParams) ([]Role, Pagination, error) {
	var payload listPayload[Role]
	if err := c.do(ctx, http.MethodGet, "/roles", params.query(), nil, &payload); err != nil {
		return nil, Pagination{}, err
	}
	return payload.Items, payload.Pagination, nil
}

// AllRoles returns the unpaginated role list, as used by assignment
// dropdowns.
func (c *Client) AllRoles(ctx context.Context) ([]Role, error) {
	var roles []Role
	if err := c.do(ctx, http.MethodGet, "/roles/all", nil, nil, &roles); err != nil {
		return nil, err
	}
	return roles, nil
}

// GetRole fetches one role by ID.
func (c *Client) GetRole(ctx context.Context, id string) (Role, error) {
	var role Role
	if err := c.do(ctx, http.MethodGet, "/roles/"+url.PathEscape(id), nil, nil, &role); err != nil {
		return Role{}, err
	}
	return role, nil
}

// RolePermissions returns the catalog of assignable permission tokens.
func (c *Client) RolePermissions(ctx context.Context) ([]string, error) {
	var perms []string
	if err := c.do(ctx, http.MethodGet, "/roles/permissions", nil, nil, &perms); err != nil {
		return nil, err
	}
	return perms, nil
}

// CreateRole creates a role.
func (c *Client) CreateRole(ctx context.Context, input RoleInput) (Role, error) {
	var role Role
	if err := c.do(ctx, http.MethodPost, "/roles", nil, input, &role); err != nil {
		return Role{}, err
	}
	return role, nil
}

// UpdateRole replaces a role's name, description, and permission list.
func (c *Client) UpdateRole(ctx context.Context, id string, input RoleInput) (Role, error) {
	var role Role
	if err := c.do(ctx, http.MethodPut, "/roles/"+url.PathEscape(id), nil, input, &role); err != nil {
		return Role{}, err
	}
	return role, nil
}

// DeleteRole removes a role.
func (c *Client) DeleteRole(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/roles/"+url.PathEscape(id), nil, nil, nil)
}
