package tokenstore

import (
	"context"
	"path/filepath"
	"testing"
)

func testRoundTrip(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	_, present, err := store.Get(ctx)
	if err != nil {
		t.Fatalf("get on empty store: %v", err)
	}
	if present {
		t.Fatalf("empty store reported a pair")
	}

	pair := TokenPair{AccessToken: "acc-1", RefreshToken: "ref-1"}
	if err := store.Set(ctx, pair); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	got, present, err := store.Get(ctx)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if !present || got != pair {
		t.Fatalf("round trip mismatch: present=%v got=%+v", present, got)
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	_, present, err = store.Get(ctx)
	if err != nil {
		t.Fatalf("get after clear: %v", err)
	}
	if present {
		t.Fatalf("pair survived clear")
	}

	// Clear is idempotent.
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("second clear failed: %v", err)
	}
}

func testAccessOnlyRotation(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	if err := store.Set(ctx, TokenPair{AccessToken: "acc-1", RefreshToken: "ref-1"}); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	if err := store.Set(ctx, TokenPair{AccessToken: "acc-2"}); err != nil {
		t.Fatalf("rotation failed: %v", err)
	}

	got, present, err := store.Get(ctx)
	if err != nil || !present {
		t.Fatalf("get after rotation: present=%v err=%v", present, err)
	}
	if got.AccessToken != "acc-2" || got.RefreshToken != "ref-1" {
		t.Fatalf("access-only rotation lost the refresh token: %+v", got)
	}
}

func TestMemoryRoundTrip(t *testing.T) {
	testRoundTrip(t, NewMemory())
}

func TestMemoryAccessOnlyRotation(t *testing.T) {
	testAccessOnlyRotation(t, NewMemory())
}

func TestFileRoundTrip(t *testing.T) {
	store, err := NewFile(filepath.Join(t.TempDir(), "tokens.json"), "accessToken", "refreshToken")
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	testRoundTrip(t, store)
}

func TestFileAccessOnlyRotation(t *testing.T) {
	store, err := NewFile(filepath.Join(t.TempDir(), "tokens.json"), "accessToken", "refreshToken")
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	testAccessOnlyRotation(t, store)
}

func TestFileSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "tokens.json")

	first, err := NewFile(path, "accessToken", "refreshToken")
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	pair := TokenPair{AccessToken: "acc", RefreshToken: "ref"}
	if err := first.Set(ctx, pair); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	second, err := NewFile(path, "accessToken", "refreshToken")
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	got, present, err := second.Get(ctx)
	if err != nil || !present {
		t.Fatalf("get after reopen: present=%v err=%v", present, err)
	}
	if got != pair {
		t.Fatalf("pair changed across reopen: %+v", got)
	}
}

func TestFileRejectsBadKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens.json")

	if _, err := NewFile(path, "same", "same"); err == nil {
		t.Fatalf("identical keys should be rejected")
	}
	if _, err := NewFile(path, "", "refreshToken"); err == nil {
		t.Fatalf("empty access key should be rejected")
	}
	if _, err := NewFile("", "a", "r"); err == nil {
		t.Fatalf("empty path should be rejected")
	}
}
