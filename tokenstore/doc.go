// Package tokenstore persists the access/refresh token pair.
//
// Tokens are opaque strings; no backend inspects or validates them. Three
// backends are provided: [Memory] for tests and ephemeral processes, [File]
// for durable single-machine persistence, and [Redis] for shared key-value
// persistence. All backends assume a single writer; cross-process
// coordination is out of scope.
//
// The contract every backend honors: after Clear, Get reports absent; a Set
// with an empty refresh token keeps the previously stored refresh token
// (access-only rotation).
package tokenstore
