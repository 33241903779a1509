// Package guard turns session snapshots into gating decisions.
//
// Two composable primitives mirror the page/widget gating of the admin UI:
// [Authentication] answers "is anyone logged in", and [Permissions] layers
// role and permission requirements on top. Both return a [Decision] value,
// so the caller owns navigation, never the transport. [Middleware] adapts
// the same logic to net/http handler chains.
package guard
