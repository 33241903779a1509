package tokenstore

import (
	"context"
	"sync"
)

// Memory is an in-process Store. Contents are lost on restart.
type Memory struct {
	mu      sync.Mutex
	pair    TokenPair
	present bool
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Get(context.Context) (TokenPair, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pair, m.present, nil
}

func (m *Memory) Set(_ context.Context, pair TokenPair) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if pair.RefreshToken == "" && m.present {
		pair.RefreshToken = m.pair.RefreshToken
	}
	m.pair = pair
	m.present = pair.AccessToken != ""
	return nil
}

func (m *Memory) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pair = TokenPair{}
	m.present = false
	return nil
}
