package tokenstore

import "context"

// TokenPair holds both credentials. A pair is present when AccessToken is
// non-empty.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// Store is the token persistence contract. Get returns the stored pair and
// whether one is present; storage failures are reported separately so callers
// can distinguish "logged out" from "backend down".
type Store interface {
	Get(ctx context.Context) (TokenPair, bool, error)
	Set(ctx context.Context, pair TokenPair) error
	Clear(ctx context.Context) error
}
