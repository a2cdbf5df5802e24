package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates all runtime settings for the session service.
type Config struct {
	AppName     string
	Environment string
	HTTP        HTTPConfig
	Redis       RedisConfig
	Database    DatabaseConfig
	Session     SessionConfig
	Azure       AzureConfig
	Users       []UserCredential
	CORSOrigins []string
	Context     ContextConfig
	Logger      LoggerConfig
	Migrations  MigrationsConfig
}

type HTTPConfig struct {
	Host         string
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type RedisConfig struct {
	URL      string
	Password string
	DB       int
}

type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	MaxConnLifetime time.Duration
}

type SessionConfig struct {
	TTL time.Duration
}

// AzureConfig describes the delegated identity provider. The federated flow
// stays disabled unless tenant, client id and secret are all present.
type AzureConfig struct {
	TenantID     string
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Scopes       []string
}

func (a AzureConfig) Enabled() bool {
	return a.TenantID != "" && a.ClientID != "" && a.ClientSecret != ""
}

// UserCredential is a demo login seeded into the in-memory credential set.
type UserCredential struct {
	Username string
	Password string
	Email    string
	Role     string
}

type ContextConfig struct {
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

type LoggerConfig struct {
	Level    string
	Encoding string
}

type MigrationsConfig struct {
	Enabled bool
	Path    string
}

// Origin is one participating web application: a name used in cascade state
// and the base URL the browser reaches it at.
type Origin struct {
	Name string
	URL  string
}

// AppConfig aggregates runtime settings for one origin app server.
type AppConfig struct {
	Name          string
	Environment   string
	HTTP          HTTPConfig
	PublicURL     string
	AuthServerURL string
	FrontdoorURL  string
	Origins       []Origin
	CachePath     string
	AzureLoginURL string
	Watch         WatchConfig
	Context       ContextConfig
	Logger        LoggerConfig
}

// WatchConfig controls the periodic session validation sweep.
type WatchConfig struct {
	Interval      time.Duration
	RefreshBuffer time.Duration
	ProbeTimeout  time.Duration
}

// Default origin set: frontdoor orchestrates, crm and revenue are protected.
// Ports mirror the demo deployment layout.
const defaultOrigins = "frontdoor=http://localhost:5173,crm=http://localhost:5174,revenue=http://localhost:5175"

var defaultAppPorts = map[string]string{
	"frontdoor": "5173",
	"crm":       "5174",
	"revenue":   "5175",
}

// Load reads session service configuration from environment variables
// (optionally .env) and applies defaults so the service can boot with
// nothing but a reachable Redis.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := &Config{
		AppName:     getString("APP_NAME", "session-service"),
		Environment: getString("APP_ENV", "development"),
		HTTP: HTTPConfig{
			Host:         getString("SERVER_HOST", "0.0.0.0"),
			Port:         getString("SERVER_PORT", "5176"),
			ReadTimeout:  getDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
			IdleTimeout:  getDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
		},
		Redis: RedisConfig{
			URL:      getString("REDIS_URL", "redis://localhost:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getInt("REDIS_DB", 0),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    getInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getInt("DB_MAX_IDLE_CONNS", 5),
			MaxConnLifetime: getDuration("DB_CONN_LIFETIME", time.Hour),
		},
		Session: SessionConfig{
			TTL: getDuration("SESSION_TTL_SECONDS", 1800*time.Second),
		},
		Azure: AzureConfig{
			TenantID:     os.Getenv("AZURE_AD_TENANT_ID"),
			ClientID:     os.Getenv("AZURE_AD_CLIENT_ID"),
			ClientSecret: os.Getenv("AZURE_AD_CLIENT_SECRET"),
			RedirectURI:  getString("AZURE_AD_REDIRECT_URI", "http://localhost:5176/auth/azure/callback"),
			Scopes:       []string{"openid", "profile", "email", "User.Read"},
		},
		Users:       defaultUsers(),
		CORSOrigins: splitList(getString("CORS_ORIGINS", originURLs(defaultOrigins))),
		Context: ContextConfig{
			RequestTimeout:  getDuration("REQUEST_TIMEOUT_SECONDS", 5*time.Second),
			ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT_SECONDS", 15*time.Second),
		},
		Logger: LoggerConfig{
			Level:    getString("LOG_LEVEL", "info"),
			Encoding: getString("LOG_ENCODING", "json"),
		},
		Migrations: MigrationsConfig{
			Enabled: getBool("RUN_MIGRATIONS", true),
			Path:    getString("MIGRATIONS_PATH", "./assets/migrations"),
		},
	}

	return cfg, nil
}

// LoadApp reads configuration for one origin app server. The name selects
// env defaults (port, public URL) and identifies the origin in cascade state.
func LoadApp(name string) (*AppConfig, error) {
	_ = godotenv.Load(".env")

	if name == "" {
		return nil, fmt.Errorf("app name is required")
	}

	prefix := strings.ToUpper(name)
	port := getString(prefix+"_PORT", defaultAppPorts[name])
	if port == "" {
		port = "8080"
	}

	origins, err := parseOrigins(getString("APP_ORIGINS", defaultOrigins))
	if err != nil {
		return nil, err
	}

	cfg := &AppConfig{
		Name:        name,
		Environment: getString("APP_ENV", "development"),
		HTTP: HTTPConfig{
			Host:         getString("SERVER_HOST", "0.0.0.0"),
			Port:         port,
			ReadTimeout:  getDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
			IdleTimeout:  getDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
		},
		PublicURL:     getString(prefix+"_PUBLIC_URL", "http://localhost:"+port),
		AuthServerURL: getString("AUTH_SERVER_URL", "http://localhost:5176"),
		Origins:       origins,
		CachePath:     getString(prefix+"_CACHE_PATH", "./data/"+name+"-sessions.db"),
		Watch: WatchConfig{
			Interval:      getDuration("VALIDATE_INTERVAL_SECONDS", 30*time.Second),
			RefreshBuffer: getDuration("REFRESH_BUFFER_SECONDS", 5*time.Minute),
			ProbeTimeout:  getDuration("VALIDATE_TIMEOUT_SECONDS", 5*time.Second),
		},
		Context: ContextConfig{
			RequestTimeout:  getDuration("REQUEST_TIMEOUT_SECONDS", 5*time.Second),
			ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT_SECONDS", 15*time.Second),
		},
		Logger: LoggerConfig{
			Level:    getString("LOG_LEVEL", "info"),
			Encoding: getString("LOG_ENCODING", "json"),
		},
	}

	// The frontdoor advertises federated login only when the session service
	// has the provider configured.
	if os.Getenv("AZURE_AD_CLIENT_ID") != "" {
		cfg.AzureLoginURL = cfg.AuthServerURL + "/auth/azure/login"
	}

	for _, origin := range origins {
		if origin.Name == "frontdoor" {
			cfg.FrontdoorURL = origin.URL
		}
	}
	if cfg.FrontdoorURL == "" {
		return nil, fmt.Errorf("origin set %q has no frontdoor entry", getString("APP_ORIGINS", defaultOrigins))
	}

	return cfg, nil
}

// Address returns the HTTP listen address for the fasthttp server.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%s", c.HTTP.Host, c.HTTP.Port)
}

func (c *AppConfig) Address() string {
	return fmt.Sprintf("%s:%s", c.HTTP.Host, c.HTTP.Port)
}

func defaultUsers() []UserCredential {
	return []UserCredential{
		{Username: "admin", Password: "admin", Email: "admin@example.com", Role: "admin"},
		{Username: "user", Password: "user", Email: "user@example.com", Role: "user"},
		{Username: "demo", Password: "demo", Email: "demo@example.com", Role: "demo"},
	}
}

func parseOrigins(raw string) ([]Origin, error) {
	var out []Origin
	for _, pair := range splitList(raw) {
		name, url, ok := strings.Cut(pair, "=")
		if !ok || name == "" || url == "" {
			return nil, fmt.Errorf("malformed origin entry %q", pair)
		}
		out = append(out, Origin{Name: name, URL: strings.TrimRight(url, "/")})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("origin set is empty")
	}
	return out, nil
}

func originURLs(raw string) string {
	var urls []string
	for _, pair := range splitList(raw) {
		if _, url, ok := strings.Cut(pair, "="); ok {
			urls = append(urls, url)
		}
	}
	return strings.Join(urls, ",")
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func getString(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
		if seconds, err := strconv.Atoi(val); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return fallback
}
