package adminauth

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// FromEnv builds a Config from ADMINAUTH_* environment variables, reading a
// .env file first when one is present. Unset variables keep their defaults.
func FromEnv() (Config, error) {
	_ = godotenv.Load()

	cfg := defaultConfig()
	cfg.API.BaseURL = getEnv("ADMINAUTH_BASE_URL", cfg.API.BaseURL)
	cfg.API.Timeout = getDuration("ADMINAUTH_TIMEOUT", cfg.API.Timeout)
	cfg.API.UserAgent = getEnv("ADMINAUTH_USER_AGENT", cfg.API.UserAgent)

	cfg.Storage.Backend = StorageBackend(getEnv("ADMINAUTH_STORAGE_BACKEND", string(cfg.Storage.Backend)))
	cfg.Storage.FilePath = getEnv("ADMINAUTH_STORAGE_FILE", cfg.Storage.FilePath)
	cfg.Storage.AccessTokenKey = getEnv("ADMINAUTH_ACCESS_TOKEN_KEY", cfg.Storage.AccessTokenKey)
	cfg.Storage.RefreshTokenKey = getEnv("ADMINAUTH_REFRESH_TOKEN_KEY", cfg.Storage.RefreshTokenKey)
	cfg.Storage.RedisTTL = getDuration("ADMINAUTH_REDIS_TTL", cfg.Storage.RedisTTL)

	cfg.Refresh.Path = getEnv("ADMINAUTH_REFRESH_PATH", cfg.Refresh.Path)
	cfg.Refresh.Coalesce = getBool("ADMINAUTH_REFRESH_COALESCE", cfg.Refresh.Coalesce)
	cfg.Refresh.MaxPerMinute = getInt("ADMINAUTH_REFRESH_MAX_PER_MINUTE", cfg.Refresh.MaxPerMinute)

	cfg.Events.Enabled = getBool("ADMINAUTH_EVENTS_ENABLED", cfg.Events.Enabled)
	cfg.Events.BufferSize = getInt("ADMINAUTH_EVENTS_BUFFER", cfg.Events.BufferSize)
	cfg.Metrics.Enabled = getBool("ADMINAUTH_METRICS_ENABLED", cfg.Metrics.Enabled)

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

type yamlConfig struct {
	API struct {
		BaseURL   string        `yaml:"base_url"`
		Timeout   time.Duration `yaml:"timeout"`
		UserAgent string        `yaml:"user_agent"`
	} `yaml:"api"`
	Storage struct {
		Backend         string        `yaml:"backend"`
		FilePath        string        `yaml:"file_path"`
		AccessTokenKey  string        `yaml:"access_token_key"`
		RefreshTokenKey string        `yaml:"refresh_token_key"`
		RedisTTL        time.Duration `yaml:"redis_ttl"`
	} `yaml:"storage"`
	Refresh struct {
		Path         string `yaml:"path"`
		Coalesce     *bool  `yaml:"coalesce"`
		MaxPerMinute int    `yaml:"max_per_minute"`
		Burst        int    `yaml:"burst"`
	} `yaml:"refresh"`
	Events struct {
		Enabled    bool `yaml:"enabled"`
		BufferSize int  `yaml:"buffer_size"`
		DropIfFull bool `yaml:"drop_if_full"`
	} `yaml:"events"`
	Metrics struct {
		Enabled *bool `yaml:"enabled"`
	} `yaml:"metrics"`
}

// LoadFile builds a Config from a YAML file. Absent fields keep their
// defaults.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var raw yamlConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	cfg := defaultConfig()
	if raw.API.BaseURL != "" {
		cfg.API.BaseURL = raw.API.BaseURL
	}
	if raw.API.Timeout > 0 {
		cfg.API.Timeout = raw.API.Timeout
	}
	if raw.API.UserAgent != "" {
		cfg.API.UserAgent = raw.API.UserAgent
	}
	if raw.Storage.Backend != "" {
		cfg.Storage.Backend = StorageBackend(raw.Storage.Backend)
	}
	if raw.Storage.FilePath != "" {
		cfg.Storage.FilePath = raw.Storage.FilePath
	}
	if raw.Storage.AccessTokenKey != "" {
		cfg.Storage.AccessTokenKey = raw.Storage.AccessTokenKey
	}
	if raw.Storage.RefreshTokenKey != "" {
		cfg.Storage.RefreshTokenKey = raw.Storage.RefreshTokenKey
	}
	if raw.Storage.RedisTTL > 0 {
		cfg.Storage.RedisTTL = raw.Storage.RedisTTL
	}
	if raw.Refresh.Path != "" {
		cfg.Refresh.Path = raw.Refresh.Path
	}
	if raw.Refresh.Coalesce != nil {
		cfg.Refresh.Coalesce = *raw.Refresh.Coalesce
	}
	if raw.Refresh.MaxPerMinute > 0 {
		cfg.Refresh.MaxPerMinute = raw.Refresh.MaxPerMinute
	}
	if raw.Refresh.Burst > 0 {
		cfg.Refresh.Burst = raw.Refresh.Burst
	}
	if raw.Events.Enabled {
		cfg.Events.Enabled = true
		if raw.Events.BufferSize > 0 {
			cfg.Events.BufferSize = raw.Events.BufferSize
		}
		cfg.Events.DropIfFull = raw.Events.DropIfFull
	}
	if raw.Metrics.Enabled != nil {
		cfg.Metrics.Enabled = *raw.Metrics.Enabled
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
