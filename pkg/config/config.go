package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database DatabaseConfig
	Redis    RedisConfig
	Tokens   TokenConfig
	Lock     LockConfig
	Engine   EngineConfig
	CORS     CORSConfig
	Log      LogConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// TokenConfig carries the per-class signing secrets and lifetimes.
// Access and refresh secrets must never be shared; each token class is
// verified only against its own key.
type TokenConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// LockConfig governs the per-project exclusive edit lock.
type LockConfig struct {
	Timeout time.Duration
}

// EngineConfig points at the external model-checking engine.
type EngineConfig struct {
	Addr           string
	RequestTimeout time.Duration
	ResultCacheTTL time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.Tokens = TokenConfig{
		AccessSecret:  v.GetString("ACCESS_TOKEN_SECRET"),
		RefreshSecret: v.GetString("REFRESH_TOKEN_SECRET"),
		AccessTTL:     parseDuration(v.GetString("ACCESS_TOKEN_TTL"), 20*time.Minute),
		RefreshTTL:    parseDuration(v.GetString("REFRESH_TOKEN_TTL"), 90*24*time.Hour),
	}

	cfg.Lock = LockConfig{
		Timeout: parseDuration(v.GetString("PROJECT_LOCK_TIMEOUT"), 10*time.Minute),
	}

	cfg.Engine = EngineConfig{
		Addr:           v.GetString("ENGINE_ADDR"),
		RequestTimeout: parseDuration(v.GetString("ENGINE_REQUEST_TIMEOUT"), 30*time.Second),
		ResultCacheTTL: parseDuration(v.GetString("ENGINE_RESULT_CACHE_TTL"), 10*time.Minute),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate rejects configurations that must not reach a running server.
// Missing token secrets are a fatal startup error, never a request-time one.
func (c *Config) validate() error {
	if c.Tokens.AccessSecret == "" {
		return fmt.Errorf("config: ACCESS_TOKEN_SECRET must be set")
	}
	if c.Tokens.RefreshSecret == "" {
		return fmt.Errorf("config: REFRESH_TOKEN_SECRET must be set")
	}
	if c.Tokens.AccessSecret == c.Tokens.RefreshSecret {
		return fmt.Errorf("config: access and refresh token secrets must differ")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "modelhub")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ACCESS_TOKEN_TTL", "20m")
	v.SetDefault("REFRESH_TOKEN_TTL", "2160h")
	v.SetDefault("PROJECT_LOCK_TIMEOUT", "10m")

	v.SetDefault("ENGINE_ADDR", "http://localhost:7125")
	v.SetDefault("ENGINE_REQUEST_TIMEOUT", "30s")
	v.SetDefault("ENGINE_RESULT_CACHE_TTL", "10m")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
}

func parseDuration(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
