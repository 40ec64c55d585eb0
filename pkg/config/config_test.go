package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, "uploads", cfg.Uploads.Dir)
	assert.Equal(t, int64(10485760), cfg.Uploads.MaxFileSizeBytes)
	assert.Equal(t, 15*time.Minute, cfg.Uploads.SignedURLTTL)
	assert.Equal(t, "admin@campus.com", cfg.Bootstrap.AdminEmail)
	assert.True(t, cfg.Bootstrap.SeedCatalog)
	assert.False(t, cfg.Redis.SemesterCacheEnabled)
}

func TestLoadFromEnvironment(t *testing.T) {
	chdirTemp(t)
	t.Setenv("UPLOAD_DIR", "/srv/studyhub")
	t.Setenv("UPLOAD_MAX_FILE_SIZE", "2048")
	t.Setenv("ALLOWED_ORIGINS", "http://localhost:3000, https://hub.campus.edu ,")
	t.Setenv("JWT_EXPIRATION", "not-a-duration")
	t.Setenv("ENABLE_SEMESTER_CACHE", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/srv/studyhub", cfg.Uploads.Dir)
	assert.Equal(t, int64(2048), cfg.Uploads.MaxFileSizeBytes)
	assert.Equal(t, []string{"http://localhost:3000", "https://hub.campus.edu"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, 24*time.Hour, cfg.JWT.Expiration)
	assert.True(t, cfg.Redis.SemesterCacheEnabled)
}

func chdirTemp(t *testing.T) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
