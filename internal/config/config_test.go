package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Port:                "8480",
		Env:                 "development",
		JWTSecret:           "change-me-in-production",
		DBPassword:          "password",
		FileStorageBackend:  "disk",
		FileUploadDir:       "/tmp/uploads",
		FileMaxUploadSizeMB: 10,
	}
}

func TestValidateAcceptsDevelopmentDefaults(t *testing.T) {
	require.NoError(t, validConfig().Validate())
}

func TestValidateRequiredFields(t *testing.T) {
	cfg := validConfig()
	cfg.Port = ""
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.JWTSecret = ""
	assert.Error(t, cfg.Validate())
}

func TestValidateStorageBackend(t *testing.T) {
	cfg := validConfig()
	cfg.FileStorageBackend = "disk"
	cfg.FileUploadDir = ""
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.FileStorageBackend = "s3"
	cfg.FileS3Bucket = ""
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.FileStorageBackend = "s3"
	cfg.FileS3Bucket = "inkwell-files"
	assert.NoError(t, cfg.Validate())

	cfg = validConfig()
	cfg.FileStorageBackend = "floppy"
	assert.Error(t, cfg.Validate())
}

func TestValidateUploadSize(t *testing.T) {
	cfg := validConfig()
	cfg.FileMaxUploadSizeMB = 0
	assert.Error(t, cfg.Validate())
}

func TestValidateProductionHardening(t *testing.T) {
	cfg := validConfig()
	cfg.Env = "production"
	cfg.DBPassword = "s3cure-db-password"

	cfg.JWTSecret = "change-me-in-production"
	assert.Error(t, cfg.Validate(), "default secret must be rejected in production")

	cfg.JWTSecret = "short-secret"
	assert.Error(t, cfg.Validate(), "short secret must be rejected in production")

	cfg.JWTSecret = "a-properly-long-production-secret-value"
	require.NoError(t, cfg.Validate())

	cfg.DBPassword = "password"
	assert.Error(t, cfg.Validate(), "default db password must be rejected in production")
}
