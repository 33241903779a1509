package adminauth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/redis/go-redis/v9"

	"github.com/minto5z/adminauth/tokenstore"
)

// Builder assembles a [Session] and its [Client]. Configure with the With*
// methods, then call [Builder.Build] exactly once.
type Builder struct {
	config Config

	httpClient *http.Client
	store      tokenstore.Store
	redis      *redis.Client
	sink       Sink
	logger     *slog.Logger

	built bool
}

// New returns a Builder carrying the default configuration.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithBaseURL sets the backend location without replacing the rest of the
// configuration.
func (b *Builder) WithBaseURL(baseURL string) *Builder {
	b.config.API.BaseURL = baseURL
	return b
}

// WithHTTPClient injects the underlying transport, e.g. for proxies or test
// servers. Defaults to a client honoring APIConfig.Timeout.
func (b *Builder) WithHTTPClient(client *http.Client) *Builder {
	b.httpClient = client
	return b
}

// WithTokenStore injects a token store, overriding StorageConfig.Backend.
func (b *Builder) WithTokenStore(store tokenstore.Store) *Builder {
	b.store = store
	return b
}

// WithRedis supplies the Redis client for the redis storage backend.
func (b *Builder) WithRedis(client *redis.Client) *Builder {
	b.redis = client
	return b
}

// WithEventSink receives session lifecycle events and enables the
// dispatcher.
func (b *Builder) WithEventSink(sink Sink) *Builder {
	b.sink = sink
	b.config.Events.Enabled = true
	return b
}

// WithLogger injects the slog logger used for best-effort failure logging.
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithMetricsEnabled toggles the in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// Build validates the configuration, constructs the token store, client, and
// session, and wires them together.
func (b *Builder) Build() (*Session, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	if err := validateConfig(b.config); err != nil {
		return nil, err
	}

	store := b.store
	if store == nil {
		var err error
		store, err = b.buildStore()
		if err != nil {
			return nil, err
		}
	}

	events := newEventDispatcher(b.config.Events, b.sink)
	metrics := NewMetrics(b.config.Metrics)

	client := newClient(b.config, b.httpClient, store, events, metrics, b.logger)
	session := newSession(client, events, metrics, b.logger)

	b.built = true
	return session, nil
}

func (b *Builder) buildStore() (tokenstore.Store, error) {
	cfg := b.config.Storage
	switch cfg.Backend {
	case StorageMemory:
		return tokenstore.NewMemory(), nil
	case StorageFile:
		return tokenstore.NewFile(cfg.FilePath, cfg.AccessTokenKey, cfg.RefreshTokenKey)
	case StorageRedis:
		if b.redis == nil {
			return nil, errors.New("redis storage backend requires WithRedis")
		}
		return tokenstore.NewRedis(b.redis, cfg.AccessTokenKey, cfg.RefreshTokenKey, cfg.RedisTTL)
	}
	return nil, errors.New("unknown storage backend " + string(cfg.Backend))
}
