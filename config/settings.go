package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorageProviderGCS    = "gcs"
	StorageProviderLocal  = "local"
	StorageProviderMemory = "memory"
)

// Settings is the process configuration, resolved once from the environment.
type Settings struct {
	Environment string
	Port        string

	PendingTableKey   string
	FinalizedTableKey string

	StorageProvider    string
	GCSBucket          string
	GCSCredentials     string
	LocalStorageDir    string
	DeeliverCatalogKey string

	ProcessingTimeout time.Duration

	RedisAddress  string
	TableLockName string
	TableLockTTL  time.Duration
	TableLockWait time.Duration
	UndoTTL       time.Duration

	BasicAuthUsername     string
	BasicAuthPassword     string
	BasicAuthPasswordHash string
	SecretKey             string

	PubSubTopic string

	InitialSuggestionSource string
	CorsAllowedOrigins      string
	Production              bool
}

func init() {
	// Load env from .env
	godotenv.Load()
}

// LoadSettings reads the environment. Table keys are selected per ENVIRONMENT,
// e.g. PENDING_TABLE_KEY_PRODUCTION when ENVIRONMENT=production.
func LoadSettings() *Settings {
	env := strings.ToLower(getEnv("ENVIRONMENT", "staging"))
	envSuffix := strings.ToUpper(env)

	return &Settings{
		Environment: env,
		Port:        getEnv("PORT", "8080"),

		PendingTableKey:   getEnv("PENDING_TABLE_KEY_"+envSuffix, fmt.Sprintf("main_inventory_%s.xlsx", env)),
		FinalizedTableKey: getEnv("FINALIZED_TABLE_KEY_"+envSuffix, fmt.Sprintf("finalized_inventory_%s.xlsx", env)),

		StorageProvider:    strings.ToLower(getEnv("STORAGE_PROVIDER", StorageProviderGCS)),
		GCSBucket:          getEnv("GCS_BUCKET", ""),
		GCSCredentials:     os.Getenv("GCS_CREDENTIALS_JSON"),
		LocalStorageDir:    getEnv("LOCAL_STORAGE_DIR", "data"),
		DeeliverCatalogKey: getEnv("DEELIVER_CATALOG_KEY", ""),

		ProcessingTimeout: getMinutes("PROCESSING_TIMEOUT_MINUTES", 10),

		RedisAddress:  getEnv("REDIS_ADDRESS", ""),
		TableLockName: getEnv("TABLE_LOCK_NAME", "inventory-tables:"+env),
		TableLockTTL:  getSeconds("TABLE_LOCK_TTL_SECONDS", 60),
		TableLockWait: getSeconds("TABLE_LOCK_WAIT_SECONDS", 30),
		UndoTTL:       time.Duration(getInt("UNDO_TTL_HOURS", 24)) * time.Hour,

		BasicAuthUsername:     getEnv("BASIC_AUTH_USERNAME", ""),
		BasicAuthPassword:     os.Getenv("BASIC_AUTH_PASSWORD"),
		BasicAuthPasswordHash: getEnv("BASIC_AUTH_PASSWORD_HASH", ""),
		SecretKey:             os.Getenv("SECRET_KEY"),

		PubSubTopic: getEnv("PUBSUB_TOPIC", ""),

		InitialSuggestionSource: strings.ToLower(getEnv("INITIAL_SUGGESTION_SOURCE", "pnp")),
		CorsAllowedOrigins:      getEnv("CORS_ALLOWED_ORIGINS", ""),
		Production:              strings.EqualFold(getEnv("GO_ENV", ""), "production"),
	}
}

// ValidateForServer checks the settings the review surface cannot start without.
func (s *Settings) ValidateForServer() error {
	if s.BasicAuthUsername == "" || (s.BasicAuthPassword == "" && s.BasicAuthPasswordHash == "") {
		return errors.New("BASIC_AUTH_USERNAME and BASIC_AUTH_PASSWORD (or BASIC_AUTH_PASSWORD_HASH) must be set")
	}
	if s.SecretKey == "" {
		return errors.New("SECRET_KEY is required")
	}
	return s.ValidateStorage()
}

func (s *Settings) ValidateStorage() error {
	switch s.StorageProvider {
	case StorageProviderGCS:
		if s.GCSBucket == "" {
			return errors.New("GCS_BUCKET is required")
		}
	case StorageProviderLocal, StorageProviderMemory:
	default:
		return fmt.Errorf("unsupported STORAGE_PROVIDER %q", s.StorageProvider)
	}
	if s.PendingTableKey == s.FinalizedTableKey {
		return errors.New("pending and finalized table keys must differ")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func getMinutes(key string, fallback int) time.Duration {
	return time.Duration(getInt(key, fallback)) * time.Minute
}

func getSeconds(key string, fallback int) time.Duration {
	return time.Duration(getInt(key, fallback)) * time.Second
}
