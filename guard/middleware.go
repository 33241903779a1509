package guard

import (
	"net/http"
	"net/url"

	adminauth "github.com/minto5z/adminauth"
)

// Middleware adapts a [Requirement] to an http.Handler chain, for embedding
// applications that serve the admin UI themselves. Loading maps to 503 with
// Retry-After, redirects carry ?from=<intended>, and denial is 403.
func Middleware(session *adminauth.Session, req Requirement) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			decision := Permissions(session.Snapshot(), r.URL.Path, req)

			switch decision.Outcome {
			case OutcomeAllow:
				next.ServeHTTP(w, r)
			case OutcomeLoading:
				w.Header().Set("Retry-After", "1")
				http.Error(w, "session resolving", http.StatusServiceUnavailable)
			case OutcomeRedirect:
				target := decision.Target
				if decision.From != "" {
					target += "?from=" + url.QueryEscape(decision.From)
				}
				http.Redirect(w, r, target, http.StatusFound)
			default:
				http.Error(w, "forbidden", http.StatusForbidden)
			}
		})
	}
}
