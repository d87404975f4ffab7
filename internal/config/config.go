package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type Config struct {
	Mode     Mode
	HTTPAddr string
	LogLevel slog.Level

	DBDriver string // sqlite|postgres|none
	DBDSN    string

	ItemStore string // sql|mongo|none
	MongoURI  string
	MongoDB   string

	ResultStore   string // memory|redis|fs
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	ResultTTL     time.Duration
	BlobBasePath  string

	BankFile    string // seed items, any supported format
	DomainsFile string // domain thresholds
	InboxDir    string // watched for generated item files; empty disables

	EnableBankWrites bool // mounts POST /bank/items

	AuthSecret string // HS256 key for operator tokens; empty leaves admin and authoring open
	TokenTTL   time.Duration

	DefaultTarget   int
	Alpha           float64
	SessionIdleTTL  time.Duration
	CleanupInterval time.Duration

	CORSOriginsOnline  []string
	CORSOriginsOffline []string
}

func FromEnv() Config {
	mode := Mode(os.Getenv("MODE"))
	if mode == "" {
		mode = ModeOffline
	}
	return Config{
		Mode:     mode,
		HTTPAddr: envOr("HTTP_ADDR", ":8080"),
		LogLevel: envLevel("LOG_LEVEL", slog.LevelInfo),

		DBDriver: envOr("DB_DRIVER", "sqlite"),
		DBDSN:    envOr("DB_DSN", ""),

		ItemStore: envOr("ITEM_STORE", "sql"),
		MongoURI:  envOr("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:   envOr("MONGO_DB", "psy"),

		ResultStore:   envOr("RESULT_STORE", "memory"),
		RedisAddr:     envOr("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       envInt("REDIS_DB", 0),
		ResultTTL:     envDuration("RESULT_TTL", 30*24*time.Hour),
		BlobBasePath:  envOr("BLOB_BASE_PATH", "./data"),

		BankFile:    os.Getenv("BANK_FILE"),
		DomainsFile: os.Getenv("DOMAINS_FILE"),
		InboxDir:    os.Getenv("INBOX_DIR"),

		EnableBankWrites: envBool("ENABLE_BANK_WRITES", mode == ModeOffline),

		AuthSecret: os.Getenv("AUTH_JWT_SECRET"),
		TokenTTL:   envDuration("AUTH_TOKEN_TTL", 8*time.Hour),

		DefaultTarget:   envInt("DEFAULT_TARGET", 10),
		Alpha:           envFloat("ALPHA", 0.3),
		SessionIdleTTL:  envDuration("SESSION_IDLE_TTL", 2*time.Hour),
		CleanupInterval: envDuration("CLEANUP_INTERVAL", 5*time.Minute),

		CORSOriginsOnline:  csvOr("CORS_ORIGINS_ONLINE", "https://psy.mindengage.ai"),
		CORSOriginsOffline: csvOr("CORS_ORIGINS_OFFLINE", "http://localhost:3000,http://localhost:5173"),
	}
}

// Validate rejects combinations the gateway cannot start with.
func (c Config) Validate() error {
	switch c.Mode {
	case ModeOffline, ModeOnline:
	default:
		return fmt.Errorf("invalid MODE: %q", c.Mode)
	}
	switch c.DBDriver {
	case "sqlite", "postgres", "none":
	default:
		return fmt.Errorf("invalid DB_DRIVER: %q", c.DBDriver)
	}
	switch c.ItemStore {
	case "sql":
		if c.DBDriver == "none" {
			return fmt.Errorf("ITEM_STORE=sql needs a DB_DRIVER")
		}
	case "mongo":
		if c.MongoURI == "" || c.MongoDB == "" {
			return fmt.Errorf("ITEM_STORE=mongo needs MONGO_URI and MONGO_DB")
		}
	case "none":
	default:
		return fmt.Errorf("invalid ITEM_STORE: %q", c.ItemStore)
	}
	switch c.ResultStore {
	case "memory", "fs":
	case "redis":
		if c.RedisAddr == "" {
			return fmt.Errorf("RESULT_STORE=redis needs REDIS_ADDR")
		}
	default:
		return fmt.Errorf("invalid RESULT_STORE: %q", c.ResultStore)
	}
	if c.DefaultTarget < 1 {
		return fmt.Errorf("DEFAULT_TARGET must be positive, got %d", c.DefaultTarget)
	}
	if c.Alpha <= 0 || c.Alpha > 1 {
		return fmt.Errorf("ALPHA must be in (0,1], got %g", c.Alpha)
	}
	if c.Mode == ModeOnline && c.AuthSecret == "" && c.EnableBankWrites {
		return fmt.Errorf("ENABLE_BANK_WRITES in online mode needs AUTH_JWT_SECRET")
	}
	if c.SessionIdleTTL <= 0 || c.CleanupInterval <= 0 {
		return fmt.Errorf("SESSION_IDLE_TTL and CLEANUP_INTERVAL must be positive")
	}
	return nil
}

// CORSOrigins returns the allowed origins for the active mode.
func (c Config) CORSOrigins() []string {
	if c.Mode == ModeOnline {
		return c.CORSOriginsOnline
	}
	return c.CORSOriginsOffline
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}
func envBool(k string, def bool) bool {
	switch os.Getenv(k) {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return def
	}
}
func envInt(k string, def int) int {
	if n, err := strconv.Atoi(os.Getenv(k)); err == nil {
		return n
	}
	return def
}
func envFloat(k string, def float64) float64 {
	if f, err := strconv.ParseFloat(os.Getenv(k), 64); err == nil {
		return f
	}
	return def
}
func envDuration(k string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(k)); err == nil {
		return d
	}
	return def
}
func envLevel(k string, def slog.Level) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(os.Getenv(k))); err == nil {
		return l
	}
	return def
}
func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
