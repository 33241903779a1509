// Package adminauth is a client SDK for the admin REST backend: token
// persistence, a self-refreshing HTTP client, an observable session state
// machine, and typed access to the auth/users/roles API surface.
//
// The package is designed for concurrent callers: Session and Client methods
// are safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// adminauth is the public surface. It exposes [Session], [Client], [Builder],
// [Config], and value types (User, Role, Snapshot, Event, etc.). Token
// persistence lives in [github.com/minto5z/adminauth/tokenstore], permission
// evaluation in [github.com/minto5z/adminauth/permission], and gating in
// [github.com/minto5z/adminauth/guard].
//
// # What this package must NOT do
//
//   - Decide navigation. Transport failures that mean "not logged in" are
//     returned as [ErrUnauthenticated]; the guard layer (or the embedding
//     application) turns that into a redirect.
//   - Surface raw transport errors. Every backend failure is normalized into
//     [*APIError] or a sentinel error before it reaches a caller.
//   - Retry anything except the single refresh-then-replay cycle on a 401.
//
// # Token refresh contract
//
// A request that receives a 401 triggers at most one refresh and one replay.
// Concurrent 401s coalesce into a single refresh call when
// [RefreshConfig].Coalesce is enabled (the default). Refresh failure clears
// the token store and forces the session to anonymous.
package adminauth
