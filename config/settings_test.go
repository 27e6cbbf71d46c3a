package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadSettings_PerEnvironmentTableKeys(t *testing.T) {
	t.Setenv("ENVIRONMENT", "Production")
	t.Setenv("PENDING_TABLE_KEY_PRODUCTION", "prod/pending.xlsx")
	t.Setenv("FINALIZED_TABLE_KEY_PRODUCTION", "")
	t.Setenv("PROCESSING_TIMEOUT_MINUTES", "15")
	t.Setenv("TABLE_LOCK_WAIT_SECONDS", "not-a-number")

	s := LoadSettings()
	assert.Equal(t, "production", s.Environment)
	assert.Equal(t, "prod/pending.xlsx", s.PendingTableKey)
	assert.Equal(t, "finalized_inventory_production.xlsx", s.FinalizedTableKey)
	assert.Equal(t, 15*time.Minute, s.ProcessingTimeout)
	assert.Equal(t, 30*time.Second, s.TableLockWait)
	assert.Equal(t, "inventory-tables:production", s.TableLockName)
}

func TestSettings_Validate(t *testing.T) {
	s := &Settings{
		StorageProvider:   StorageProviderGCS,
		PendingTableKey:   "p.xlsx",
		FinalizedTableKey: "f.xlsx",
	}
	assert.ErrorContains(t, s.ValidateStorage(), "GCS_BUCKET")

	s.GCSBucket = "bucket"
	assert.NoError(t, s.ValidateStorage())

	s.FinalizedTableKey = "p.xlsx"
	assert.Error(t, s.ValidateStorage())
	s.FinalizedTableKey = "f.xlsx"

	s.StorageProvider = "s3"
	assert.Error(t, s.ValidateStorage())
	s.StorageProvider = StorageProviderMemory

	assert.Error(t, s.ValidateForServer())
	s.BasicAuthUsername = "reviewer"
	s.BasicAuthPasswordHash = "$2a$10$abc"
	assert.ErrorContains(t, s.ValidateForServer(), "SECRET_KEY")
	s.SecretKey = "k"
	assert.NoError(t, s.ValidateForServer())
}

func TestEnvFlags(t *testing.T) {
	t.Setenv("SKIP_INITIAL_SUGGESTIONS", "Yes")
	t.Setenv("SESSION_COOKIE_SECURE", "0")
	assert.True(t, SkipInitialSuggestions())
	assert.False(t, SecureSessionCookie())
}
