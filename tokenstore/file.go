package tokenstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// File persists the token pair as a small JSON document. Writes go through a
// temp file and rename so a crash never leaves a half-written document. The
// two tokens are stored under configurable key names, matching whatever the
// embedding application already uses.
type File struct {
	path       string
	accessKey  string
	refreshKey string

	mu sync.Mutex
}

// NewFile returns a file-backed store at path. accessKey and refreshKey name
// the two values inside the document and must differ.
func NewFile(path, accessKey, refreshKey string) (*File, error) {
	if path == "" {
		return nil, fmt.Errorf("tokenstore: file path required")
	}
	if accessKey == "" || refreshKey == "" || accessKey == refreshKey {
		return nil, fmt.Errorf("tokenstore: access and refresh keys must be distinct and non-empty")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("tokenstore: create %s: %w", dir, err)
		}
	}
	return &File{path: path, accessKey: accessKey, refreshKey: refreshKey}, nil
}

func (f *File) Get(context.Context) (TokenPair, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.read()
	if err != nil {
		return TokenPair{}, false, err
	}
	pair := TokenPair{
		AccessToken:  doc[f.accessKey],
		RefreshToken: doc[f.refreshKey],
	}
	return pair, pair.AccessToken != "", nil
}

func (f *File) Set(_ context.Context, pair TokenPair) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.read()
	if err != nil {
		return err
	}
	doc[f.accessKey] = pair.AccessToken
	if pair.RefreshToken != "" {
		doc[f.refreshKey] = pair.RefreshToken
	}
	return f.write(doc)
}

func (f *File) Clear(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	err := os.Remove(f.path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("tokenstore: clear %s: %w", f.path, err)
	}
	return nil
}

func (f *File) read() (map[string]string, error) {
	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("tokenstore: read %s: %w", f.path, err)
	}

	doc := map[string]string{}
	if err := json.Unmarshal(data, &doc); err != nil {
		// Corrupt document: treat as logged out rather than wedging the client.
		return map[string]string{}, nil
	}
	return doc, nil
}

func (f *File) write(doc map[string]string) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("tokenstore: encode: %w", err)
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("tokenstore: write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("tokenstore: rename %s: %w", f.path, err)
	}
	return nil
}
