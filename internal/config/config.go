package config

import (
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Document store backends
const (
	StorePostgres  = "postgres"
	StoreFirestore = "firestore"
)

// MinSessionSecretLength is the shortest accepted cookie signing secret
const MinSessionSecretLength = 32

// Config validation errors
var (
	ErrUnknownStore        = errors.New("DOCUMENT_STORE must be 'postgres' or 'firestore'")
	ErrMissingDatabaseURL  = errors.New("DATABASE_URL is required for the postgres store")
	ErrMissingFirestore    = errors.New("FIRESTORE_PROJECT_ID is required for the firestore store")
	ErrMissingAuth         = errors.New("AUTH_API_KEY and AUTH_PROJECT_ID are required")
	ErrMissingCloudinary   = errors.New("CLOUDINARY_CLOUD_NAME and CLOUDINARY_UPLOAD_PRESET are required")
	ErrWeakSessionSecret   = errors.New("SESSION_SECRET must be at least 32 bytes")
	ErrInvalidSessionCache = errors.New("SESSION_CACHE_SIZE must be positive")
)

// Config holds every setting the server reads at startup
type Config struct {
	Port string

	// DocumentStore selects the posts/users backend
	DocumentStore string
	DatabaseURL   string
	MigrationsDir string

	FirestoreProjectID       string
	FirestoreCredentialsFile string
	// FirestoreEndpoint overrides the API root (emulators, tests)
	FirestoreEndpoint string

	AuthAPIKey    string
	AuthProjectID string
	AuthAPIBase   string
	AuthTokenBase string
	AuthJWKSURL   string
	JWKSCacheTTL  time.Duration

	CloudinaryCloudName    string
	CloudinaryUploadPreset string
	CloudinaryFolder       string
	CloudinaryAPIBase      string

	SessionSecret    string
	SessionCacheSize int
	CookieSecure     bool

	CORSOrigin string
}

// DefaultConfig returns a Config with defaults for every optional setting
func DefaultConfig() Config {
	return Config{
		Port:             "8080",
		DocumentStore:    StorePostgres,
		MigrationsDir:    "internal/db/migrations",
		JWKSCacheTTL:     time.Hour,
		CloudinaryFolder: "findit-posts",
		SessionCacheSize: 1000,
		CookieSecure:     true,
	}
}

// Load reads an optional .env file, then the environment, and validates the result
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := FromEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// FromEnv builds a Config from environment variables over DefaultConfig.
// Malformed numeric or boolean values fall back to the default with a warning.
func FromEnv() Config {
	cfg := DefaultConfig()

	setString(&cfg.Port, "PORT")
	setString(&cfg.DocumentStore, "DOCUMENT_STORE")
	setString(&cfg.DatabaseURL, "DATABASE_URL")
	setString(&cfg.MigrationsDir, "MIGRATIONS_DIR")

	setString(&cfg.FirestoreProjectID, "FIRESTORE_PROJECT_ID")
	setString(&cfg.FirestoreCredentialsFile, "FIRESTORE_CREDENTIALS_FILE")
	setString(&cfg.FirestoreEndpoint, "FIRESTORE_ENDPOINT")

	setString(&cfg.AuthAPIKey, "AUTH_API_KEY")
	setString(&cfg.AuthProjectID, "AUTH_PROJECT_ID")
	setString(&cfg.AuthAPIBase, "AUTH_API_BASE")
	setString(&cfg.AuthTokenBase, "AUTH_TOKEN_BASE")
	setString(&cfg.AuthJWKSURL, "AUTH_JWKS_URL")

	if v := os.Getenv("AUTH_JWKS_CACHE_MINUTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.JWKSCacheTTL = time.Duration(n) * time.Minute
		} else {
			slog.Warn("[CONFIG] invalid AUTH_JWKS_CACHE_MINUTES value, using default",
				"value", v,
				"default_minutes", int(cfg.JWKSCacheTTL.Minutes()),
				"error", err,
			)
		}
	}

	setString(&cfg.CloudinaryCloudName, "CLOUDINARY_CLOUD_NAME")
	setString(&cfg.CloudinaryUploadPreset, "CLOUDINARY_UPLOAD_PRESET")
	setString(&cfg.CloudinaryFolder, "CLOUDINARY_FOLDER")
	setString(&cfg.CloudinaryAPIBase, "CLOUDINARY_API_BASE")

	setString(&cfg.SessionSecret, "SESSION_SECRET")
	if v := os.Getenv("SESSION_CACHE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.SessionCacheSize = n
		} else {
			slog.Warn("[CONFIG] invalid SESSION_CACHE_SIZE value, using default",
				"value", v,
				"default", cfg.SessionCacheSize,
				"error", err,
			)
		}
	}
	if v := os.Getenv("COOKIE_SECURE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.CookieSecure = b
		} else {
			slog.Warn("[CONFIG] invalid COOKIE_SECURE value, using default",
				"value", v,
				"default", cfg.CookieSecure,
			)
		}
	}

	setString(&cfg.CORSOrigin, "CORS_ORIGIN")

	return cfg
}

// Validate checks required settings for the selected backends
func (c Config) Validate() error {
	switch c.DocumentStore {
	case StorePostgres:
		if c.DatabaseURL == "" {
			return ErrMissingDatabaseURL
		}
	case StoreFirestore:
		if c.FirestoreProjectID == "" {
			return ErrMissingFirestore
		}
	default:
		return fmt.Errorf("%w: got %q", ErrUnknownStore, c.DocumentStore)
	}

	if c.AuthAPIKey == "" || c.AuthProjectID == "" {
		return ErrMissingAuth
	}
	if c.CloudinaryCloudName == "" || c.CloudinaryUploadPreset == "" {
		return ErrMissingCloudinary
	}
	if len(c.SessionSecret) < MinSessionSecretLength {
		return fmt.Errorf("%w: got %d", ErrWeakSessionSecret, len(c.SessionSecret))
	}
	if c.SessionCacheSize <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidSessionCache, c.SessionCacheSize)
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
