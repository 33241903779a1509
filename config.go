package adminauth

import (
	"errors"
	"net/url"
	"strings"
	"time"
)

// Config is assembled once, validated by [Builder.Build], and treated as
// immutable afterwards.
type Config struct {
	API     APIConfig
	Storage StorageConfig
	Refresh RefreshConfig
	Events  EventsConfig
	Metrics MetricsConfig
}

/*
====================================
API CONFIG
====================================
*/

// APIConfig locates the backend and shapes outbound requests.
type APIConfig struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

/*
====================================
STORAGE CONFIG
====================================
*/

// StorageBackend selects the token persistence backend.
type StorageBackend string

const (
	// StorageMemory keeps tokens in process memory only.
	StorageMemory StorageBackend = "memory"
	// StorageFile persists tokens to a JSON file on disk.
	StorageFile StorageBackend = "file"
	// StorageRedis persists tokens under two Redis keys.
	StorageRedis StorageBackend = "redis"
)

// StorageConfig controls where the token pair is persisted. AccessTokenKey
// and RefreshTokenKey name the two stored values in whichever backend is
// selected; they survive process restarts for file and redis backends.
type StorageConfig struct {
	Backend         StorageBackend
	FilePath        string
	AccessTokenKey  string
	RefreshTokenKey string
	RedisTTL        time.Duration
}

/*
====================================
REFRESH CONFIG
====================================
*/

// RefreshConfig controls the 401 refresh-and-replay cycle.
//
// Coalesce collapses concurrent refresh attempts into a single backend call.
// Disabling it restores one-refresh-per-failing-request behavior.
type RefreshConfig struct {
	Path         string
	Coalesce     bool
	MaxPerMinute int
	Burst        int
}

/*
====================================
EVENTS / METRICS CONFIG
====================================
*/

// EventsConfig controls the session event dispatcher.
type EventsConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig toggles the in-process counters.
type MetricsConfig struct {
	Enabled bool
}

func defaultConfig() Config {
	return Config{
		API: APIConfig{
			Timeout:   30 * time.Second,
			UserAgent: "adminauth-go",
		},
		Storage: StorageConfig{
			Backend:         StorageMemory,
			AccessTokenKey:  "accessToken",
			RefreshTokenKey: "refreshToken",
		},
		Refresh: RefreshConfig{
			Path:         "/auth/refresh-token",
			Coalesce:     true,
			MaxPerMinute: 30,
			Burst:        5,
		},
		Events: EventsConfig{
			Enabled:    false,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

func validateConfig(cfg Config) error {
	if strings.TrimSpace(cfg.API.BaseURL) == "" {
		return errors.New("config: API.BaseURL is required")
	}
	u, err := url.Parse(cfg.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.New("config: API.BaseURL must be an absolute URL")
	}
	if cfg.API.Timeout <= 0 {
		return errors.New("config: API.Timeout must be positive")
	}

	switch cfg.Storage.Backend {
	case StorageMemory, StorageRedis:
	case StorageFile:
		if cfg.Storage.FilePath == "" {
			return errors.New("config: Storage.FilePath is required for the file backend")
		}
	default:
		return errors.New("config: unknown storage backend " + string(cfg.Storage.Backend))
	}
	if cfg.Storage.AccessTokenKey == "" || cfg.Storage.RefreshTokenKey == "" {
		return errors.New("config: storage token keys cannot be empty")
	}
	if cfg.Storage.AccessTokenKey == cfg.Storage.RefreshTokenKey {
		return errors.New("config: access and refresh token keys must differ")
	}

	if !strings.HasPrefix(cfg.Refresh.Path, "/") {
		return errors.New("config: Refresh.Path must start with /")
	}
	if cfg.Refresh.MaxPerMinute <= 0 {
		return errors.New("config: Refresh.MaxPerMinute must be positive")
	}
	if cfg.Refresh.Burst <= 0 {
		return errors.New("config: Refresh.Burst must be positive")
	}

	if cfg.Events.Enabled && cfg.Events.BufferSize <= 0 {
		return errors.New("config: Events.BufferSize must be positive when events are enabled")
	}

	return nil
}
