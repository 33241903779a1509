// Package permission evaluates string permission tokens against a user's
// granted set.
//
// Permissions follow the "resource:action" convention ("user:write",
// "role:read"). Evaluation is pure and fails closed: a nil or empty set
// satisfies no check.
package permission
