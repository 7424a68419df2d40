package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/boddenberg/sales-onboarding-bfa-go/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("CV_BUCKET", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")
	t.Setenv("UPLOAD_TIMEOUT", "")

	cfg := config.Load()

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "cvs", cfg.CVBucket)
	assert.Equal(t, "recordings", cfg.RecordingsBucket)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, 5*time.Minute, cfg.UploadTimeout)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("SUPABASE_URL", "https://proj.supabase.co/")
	t.Setenv("TOKEN_CACHE_TTL", "30s")
	t.Setenv("TRACING_ENABLED", "true")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.fr, https://b.fr,")

	cfg := config.Load()

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "https://proj.supabase.co", cfg.SupabaseURL)
	assert.Equal(t, 30*time.Second, cfg.TokenCacheTTL)
	assert.True(t, cfg.TracingEnabled)
	assert.Equal(t, []string{"https://a.fr", "https://b.fr"}, cfg.CORSAllowedOrigins)
}

func TestValidate_ReportsMissingKeys(t *testing.T) {
	cfg := &config.Config{SupabaseURL: "https://proj.supabase.co"}

	err := cfg.Validate()

	var missing *config.MissingError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []string{"SUPABASE_ANON_KEY", "SUPABASE_SERVICE_ROLE_KEY"}, missing.Keys)
}

func TestLocation_FallsBackToUTC(t *testing.T) {
	cfg := &config.Config{AppTimezone: "Nowhere/Invalid"}
	assert.Equal(t, time.UTC, cfg.Location())
}

func TestLoadDotEnv_DoesNotOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("DOTENV_TEST_A=from-file\nDOTENV_TEST_B=\"quoted\"\n"), 0o600))

	t.Setenv("DOTENV_TEST_A", "from-env")
	os.Unsetenv("DOTENV_TEST_B")
	t.Cleanup(func() { os.Unsetenv("DOTENV_TEST_B") })

	require.NoError(t, config.LoadDotEnv(path))

	assert.Equal(t, "from-env", os.Getenv("DOTENV_TEST_A"))
	assert.Equal(t, "quoted", os.Getenv("DOTENV_TEST_B"))
}

func TestLoadDotEnv_MissingFileIsSkipped(t *testing.T) {
	assert.NoError(t, config.LoadDotEnv(filepath.Join(t.TempDir(), "absent.env")))
}
