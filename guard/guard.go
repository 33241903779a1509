package guard

import (
	adminauth "github.com/minto5z/adminauth"
	"github.com/minto5z/adminauth/permission"
)

// DefaultLoginPath is where anonymous visitors are redirected when a
// requirement does not name its own target.
const DefaultLoginPath = "/login"

// Outcome classifies a gating decision.
type Outcome uint8

const (
	// OutcomeAllow means the gated content may render.
	OutcomeAllow Outcome = iota
	// OutcomeLoading means the session has not resolved; show a placeholder.
	OutcomeLoading
	// OutcomeRedirect means navigate to Decision.Target, preserving
	// Decision.From for the post-login return trip.
	OutcomeRedirect
	// OutcomeDenied means the user is authenticated but not authorized;
	// render the fallback.
	OutcomeDenied
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAllow:
		return "allow"
	case OutcomeLoading:
		return "loading"
	case OutcomeRedirect:
		return "redirect"
	case OutcomeDenied:
		return "denied"
	}
	return "unknown"
}

// Decision is the result of evaluating a guard against a session snapshot.
type Decision struct {
	Outcome Outcome
	// Target is the redirect destination for OutcomeRedirect.
	Target string
	// From is the originally intended destination, carried so the caller can
	// return there after login.
	From string
}

// Allowed reports whether the gated content may render.
func (d Decision) Allowed() bool {
	return d.Outcome == OutcomeAllow
}

// Requirement describes what the permission guard demands on top of
// authentication. Zero requirements degrade to a pure authentication guard.
type Requirement struct {
	// Permissions that the user's role must grant, combined per Mode.
	Permissions []string
	Mode        permission.Mode
	// Role, when set, requires the user's role name to match exactly.
	Role string
	// RedirectTo, when set, turns authorization failure into a redirect
	// instead of OutcomeDenied.
	RedirectTo string
}

// Authentication gates on login state alone. intended is the destination the
// caller was heading to; it is preserved on the redirect decision.
func Authentication(snap adminauth.Snapshot, intended string) Decision {
	switch {
	case snap.IsLoading():
		return Decision{Outcome: OutcomeLoading}
	case !snap.IsAuthenticated():
		return Decision{Outcome: OutcomeRedirect, Target: DefaultLoginPath, From: intended}
	}
	return Decision{Outcome: OutcomeAllow}
}

// Permissions composes Authentication with role and permission checks.
// A user without a role fails every non-empty requirement.
func Permissions(snap adminauth.Snapshot, intended string, req Requirement) Decision {
	if d := Authentication(snap, intended); !d.Allowed() {
		return d
	}

	if req.Role != "" {
		role := snap.User.Role
		if role == nil || role.Name != req.Role {
			return deny(req, intended)
		}
	}

	if len(req.Permissions) > 0 {
		if !permission.Evaluate(granted(snap.User), req.Permissions, req.Mode) {
			return deny(req, intended)
		}
	}

	return Decision{Outcome: OutcomeAllow}
}

func deny(req Requirement, intended string) Decision {
	if req.RedirectTo != "" {
		return Decision{Outcome: OutcomeRedirect, Target: req.RedirectTo, From: intended}
	}
	return Decision{Outcome: OutcomeDenied}
}

func granted(user *adminauth.User) permission.Set {
	if user == nil || user.Role == nil {
		return nil
	}
	return permission.NewSet(user.Role.Permissions...)
}
