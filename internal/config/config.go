package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// PathEnvVar points at an optional YAML file layered between defaults and environment.
const PathEnvVar = "CONFIG_PATH"

// Config captures all runtime configuration. Every key can be set from an
// environment variable of the same name in upper case (db_url -> DB_URL).
type Config struct {
	Port              string        `koanf:"port"`
	DBURL             string        `koanf:"db_url"`
	RunMigrations     bool          `koanf:"run_migrations"`
	ReadTimeoutSecs   int           `koanf:"server_read_timeout"`
	WriteTimeoutSecs  int           `koanf:"server_write_timeout"`
	IdleTimeoutSecs   int           `koanf:"server_idle_timeout"`
	DBMaxConns        int           `koanf:"db_max_conns"`
	DBMinConns        int           `koanf:"db_min_conns"`
	DBMaxIdleSecs     int           `koanf:"db_max_conn_idle_secs"`
	DBMaxLifeSecs     int           `koanf:"db_max_conn_lifetime_secs"`
	DBConnTimeoutSecs int           `koanf:"db_conn_timeout_secs"`
	DBStatementCache  int           `koanf:"db_statement_cache_capacity"`
	JWTSecret         string        `koanf:"jwt_secret"`
	TokenTTL          time.Duration `koanf:"token_ttl"`
	RedisAddr         string        `koanf:"redis_addr"`
	MediaRoot         string        `koanf:"media_root"`
	MediaURL          string        `koanf:"media_url"`
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitRequests int           `koanf:"rate_limit_requests"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	PageSize          int           `koanf:"page_size"`
	MaxPageSize       int           `koanf:"max_page_size"`
	LogLevel          string        `koanf:"log_level"`
	LogFormat         string        `koanf:"log_format"`
}

func defaults() Config {
	return Config{
		Port:              "8080",
		RunMigrations:     true,
		ReadTimeoutSecs:   15,
		WriteTimeoutSecs:  15,
		IdleTimeoutSecs:   60,
		DBMaxConns:        20,
		DBMinConns:        2,
		DBMaxIdleSecs:     300,
		DBMaxLifeSecs:     3600,
		DBConnTimeoutSecs: 10,
		DBStatementCache:  256,
		TokenTTL:          24 * time.Hour,
		MediaRoot:         "media",
		MediaURL:          "/media/",
		CORSOrigins:       []string{"*"},
		RateLimitRequests: 300,
		RateLimitWindow:   time.Minute,
		PageSize:          6,
		MaxPageSize:       100,
		LogLevel:          "info",
		LogFormat:         "json",
	}
}

// Load layers defaults, an optional YAML file and environment variables, then validates.
func Load() (Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaults(), "koanf"), nil); err != nil {
		return Config{}, fmt.Errorf("load defaults: %w", err)
	}

	if path := os.Getenv(PathEnvVar); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envKey), nil); err != nil {
		return Config{}, fmt.Errorf("load environment: %w", err)
	}

	if err := splitList(k, "cors_origins"); err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (cfg Config) validate() error {
	if cfg.DBURL == "" {
		return fmt.Errorf("DB_URL is required")
	}
	if cfg.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive")
	}
	if cfg.DBMaxConns <= 0 {
		return fmt.Errorf("DB_MAX_CONNS must be positive")
	}
	if cfg.DBMinConns < 0 {
		return fmt.Errorf("DB_MIN_CONNS must be non-negative")
	}
	if cfg.DBMinConns > cfg.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS cannot exceed DB_MAX_CONNS")
	}
	if cfg.DBStatementCache < 0 {
		return fmt.Errorf("DB_STATEMENT_CACHE_CAPACITY must be non-negative")
	}
	if cfg.RateLimitRequests < 0 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be non-negative")
	}
	if cfg.RateLimitRequests > 0 && cfg.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive")
	}
	if cfg.PageSize <= 0 || cfg.MaxPageSize < cfg.PageSize {
		return fmt.Errorf("PAGE_SIZE must be positive and not exceed MAX_PAGE_SIZE")
	}
	if cfg.MediaRoot == "" {
		return fmt.Errorf("MEDIA_ROOT is required")
	}
	if !strings.HasPrefix(cfg.MediaURL, "/") || !strings.HasSuffix(cfg.MediaURL, "/") {
		return fmt.Errorf("MEDIA_URL must start and end with a slash")
	}
	return nil
}

var knownKeys = func() map[string]struct{} {
	keys := make(map[string]struct{})
	values, _ := structs.Provider(defaults(), "koanf").Read()
	for key := range values {
		keys[key] = struct{}{}
	}
	return keys
}()

// envKey maps DB_URL to db_url and drops variables that are not configuration keys.
func envKey(name string) string {
	key := strings.ToLower(name)
	if _, ok := knownKeys[key]; !ok {
		return ""
	}
	return key
}

func splitList(k *koanf.Koanf, path string) error {
	raw, ok := k.Get(path).(string)
	if !ok {
		return nil
	}
	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			values = append(values, p)
		}
	}
	if err := k.Set(path, values); err != nil {
		return fmt.Errorf("set %s: %w", path, err)
	}
	return nil
}
