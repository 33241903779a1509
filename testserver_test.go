package adminauth

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/minto5z/adminauth/tokenstore"
)

const (
	testEmail    = "a@x.com"
	testPassword = "Secret1!"
)

// fakeBackend is an in-memory rendition of the admin REST backend: one valid
// token pair at a time, rotated by login and refresh.
type fakeBackend struct {
	mu           sync.Mutex
	seq          int
	access       string
	refresh      string
	refreshCalls int
	logoutCalls  int

	refreshFails   bool
	rejectProfiles bool
	failLogout     bool

	// profileGate, when set, blocks profile fetches until closed.
	profileGate chan struct{}
	// refreshGate, when set, holds refresh responses until closed.
	refreshGate chan struct{}
	// on401 runs after each profile 401 is written.
	on401 func()

	lastAuthHeader string
	lastRequestID  string

	user User
}

func newFakeBackend(t *testing.T) (*fakeBackend, *httptest.Server) {
	t.Helper()

	b := &fakeBackend{
		user: User{
			ID:        "u-1",
			Email:     testEmail,
			FirstName: "Ada",
			LastName:  "Lovelace",
			RoleID:    "r-1",
			Role: &Role{
				ID:          "r-1",
				Name:        "editor",
				Permissions: []string{"user:read", "role:read", "role:write"},
			},
			IsActive:      true,
			EmailVerified: true,
			CreatedAt:     time.Now().Add(-time.Hour),
			UpdatedAt:     time.Now(),
		},
	}

	r := chi.NewRouter()
	r.Post("/auth/login", b.handleLogin)
	r.Post("/auth/register", b.handleRegister)
	r.Post("/auth/refresh-token", b.handleRefresh)
	r.Post("/auth/logout", b.handleLogout)
	r.Get("/auth/profile", b.handleProfile)
	r.Put("/auth/profile", b.handleUpdateProfile)
	r.Get("/users", b.handleListUsers)
	r.Get("/roles/all", b.handleAllRoles)
	r.Post("/auth/change-password", b.handleNoContent)
	r.Post("/auth/forgot-password", b.handleNoContent)

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)
	return b, server
}

// issuePair rotates the valid pair. Callers must hold b.mu.
func (b *fakeBackend) issuePair() (string, string) {
	b.seq++
	b.access = fmt.Sprintf("access-%d", b.seq)
	b.refresh = fmt.Sprintf("refresh-%d", b.seq)
	return b.access, b.refresh
}

func (b *fakeBackend) currentPair() tokenstore.TokenPair {
	b.mu.Lock()
	defer b.mu.Unlock()
	return tokenstore.TokenPair{AccessToken: b.access, RefreshToken: b.refresh}
}

func (b *fakeBackend) refreshCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.refreshCalls
}

func (b *fakeBackend) handleLogin(w http.ResponseWriter, r *http.Request) {
	var creds Credentials
	_ = json.NewDecoder(r.Body).Decode(&creds)

	if creds.Email != testEmail || creds.Password != testPassword {
		writeErrorEnvelope(w, http.StatusUnauthorized, "Invalid email or password", "INVALID_CREDENTIALS", nil)
		return
	}

	b.mu.Lock()
	access, refresh := b.issuePair()
	user := b.user
	b.mu.Unlock()

	writeDataEnvelope(w, http.StatusOK, AuthResult{User: user, AccessToken: access, RefreshToken: refresh})
}

func (b *fakeBackend) handleRegister(w http.ResponseWriter, r *http.Request) {
	var data RegisterData
	_ = json.NewDecoder(r.Body).Decode(&data)

	if data.Email == "" || data.Password == "" {
		writeErrorEnvelope(w, http.StatusUnprocessableEntity, "Validation failed", "VALIDATION_ERROR",
			map[string]string{"email": "required"})
		return
	}

	b.mu.Lock()
	access, refresh := b.issuePair()
	user := b.user
	user.Email = data.Email
	user.FirstName = data.FirstName
	user.LastName = data.LastName
	b.mu.Unlock()

	writeDataEnvelope(w, http.StatusCreated, AuthResult{User: user, AccessToken: access, RefreshToken: refresh})
}

func (b *fakeBackend) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var body struct {
		RefreshToken string `json:"refreshToken"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)

	b.mu.Lock()
	gate := b.refreshGate
	b.mu.Unlock()
	if gate != nil {
		<-gate
		// Give late 401 receivers time to join the in-flight refresh.
		time.Sleep(50 * time.Millisecond)
	}

	b.mu.Lock()
	b.refreshCalls++
	fails := b.refreshFails
	valid := body.RefreshToken != "" && body.RefreshToken == b.refresh
	b.mu.Unlock()

	if fails || !valid {
		writeErrorEnvelope(w, http.StatusUnauthorized, "Invalid refresh token", "INVALID_REFRESH_TOKEN", nil)
		return
	}

	b.mu.Lock()
	access, refresh := b.issuePair()
	user := b.user
	b.mu.Unlock()

	writeDataEnvelope(w, http.StatusOK, AuthResult{User: user, AccessToken: access, RefreshToken: refresh})
}

func (b *fakeBackend) handleLogout(w http.ResponseWriter, _ *http.Request) {
	b.mu.Lock()
	b.logoutCalls++
	fail := b.failLogout
	b.mu.Unlock()

	if fail {
		writeErrorEnvelope(w, http.StatusInternalServerError, "logout backend down", "INTERNAL", nil)
		return
	}
	writeDataEnvelope(w, http.StatusOK, nil)
}

func (b *fakeBackend) handleProfile(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	gate := b.profileGate
	b.mu.Unlock()
	if gate != nil {
		<-gate
	}

	b.mu.Lock()
	b.lastAuthHeader = r.Header.Get("Authorization")
	b.lastRequestID = r.Header.Get("X-Request-ID")
	authorized := !b.rejectProfiles && r.Header.Get("Authorization") == "Bearer "+b.access && b.access != ""
	user := b.user
	hook := b.on401
	b.mu.Unlock()

	if !authorized {
		writeErrorEnvelope(w, http.StatusUnauthorized, "Access token expired", "TOKEN_EXPIRED", nil)
		if hook != nil {
			hook()
		}
		return
	}
	writeDataEnvelope(w, http.StatusOK, user)
}

func (b *fakeBackend) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	authorized := r.Header.Get("Authorization") == "Bearer "+b.access && b.access != ""
	b.mu.Unlock()
	if !authorized {
		writeErrorEnvelope(w, http.StatusUnauthorized, "Access token expired", "TOKEN_EXPIRED", nil)
		return
	}

	var patch ProfilePatch
	_ = json.NewDecoder(r.Body).Decode(&patch)

	b.mu.Lock()
	if patch.FirstName != nil {
		b.user.FirstName = *patch.FirstName
	}
	if patch.LastName != nil {
		b.user.LastName = *patch.LastName
	}
	b.user.UpdatedAt = time.Now()
	user := b.user
	b.mu.Unlock()

	writeDataEnvelope(w, http.StatusOK, user)
}

func (b *fakeBackend) handleListUsers(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	authorized := r.Header.Get("Authorization") == "Bearer "+b.access && b.access != ""
	user := b.user
	b.mu.Unlock()
	if !authorized {
		writeErrorEnvelope(w, http.StatusUnauthorized, "Access token expired", "TOKEN_EXPIRED", nil)
		return
	}

	writeDataEnvelope(w, http.StatusOK, listPayload[User]{
		Items: []User{user},
		Pagination: Pagination{
			Page: 1, Limit: 10, Total: 1, TotalPages: 1,
		},
	})
}

func (b *fakeBackend) handleAllRoles(w http.ResponseWriter, _ *http.Request) {
	b.mu.Lock()
	role := *b.user.Role
	b.mu.Unlock()
	writeDataEnvelope(w, http.StatusOK, []Role{role})
}

func (b *fakeBackend) handleNoContent(w http.ResponseWriter, _ *http.Request) {
	writeDataEnvelope(w, http.StatusOK, nil)
}

func writeDataEnvelope(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := map[string]any{"success": true}
	if data != nil {
		resp["data"] = data
	}
	_ = json.NewEncoder(w).Encode(resp)
}

func writeErrorEnvelope(w http.ResponseWriter, status int, message, code string, details any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := map[string]any{
		"success": false,
		"message": message,
		"error":   map[string]any{"code": code, "details": details},
	}
	_ = json.NewEncoder(w).Encode(resp)
}

func newTestSession(t *testing.T, baseURL string) *Session {
	t.Helper()

	cfg := defaultConfig()
	cfg.API.BaseURL = baseURL

	session, err := New().WithConfig(cfg).Build()
	if err != nil {
		t.Fatalf("build session: %v", err)
	}
	t.Cleanup(session.Close)
	return session
}

func bearerOf(header string) string {
	return strings.TrimPrefix(header, "Bearer ")
}
