package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_RequiresSecret(t *testing.T) {
	t.Setenv("TASKMATE_JWT_SECRET", "")

	_, err := Load("")
	assert.Error(t, err)
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("TASKMATE_JWT_SECRET", "s3cret")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":5000", cfg.Addr)
	assert.Equal(t, "taskmate.db", cfg.DatabaseURL)
	assert.Equal(t, 168*time.Hour, cfg.TokenTTL)
	assert.Contains(t, cfg.CORSOrigins, "http://localhost:3000")
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("TASKMATE_JWT_SECRET", "s3cret")
	t.Setenv("TASKMATE_ADDR", ":8080")
	t.Setenv("TASKMATE_TOKEN_TTL", "2h")
	t.Setenv("TASKMATE_CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, 2*time.Hour, cfg.TokenTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
}

func TestLoad_File(t *testing.T) {
	t.Setenv("TASKMATE_JWT_SECRET", "")
	path := filepath.Join(t.TempDir(), "taskmate.yaml")
	require.NoError(t, os.WriteFile(path, []byte("jwt_secret: from-file\ndatabase_url: data/tm.db\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.JWTSecret)
	assert.Equal(t, "data/tm.db", cfg.DatabaseURL)
}

func TestLoadClient(t *testing.T) {
	t.Setenv("TASKMATE_API_URL", "http://api.example/api/")
	t.Setenv("TASKMATE_STATE_DIR", t.TempDir())
	t.Setenv("TASKMATE_AUTOMATION_INTERVAL", "")

	cfg, err := LoadClient("")
	require.NoError(t, err)
	assert.Equal(t, "http://api.example/api", cfg.APIURL)
	assert.Equal(t, 5*time.Minute, cfg.AutomationInterval)
}

func TestLoadClient_TelegramNeedsChat(t *testing.T) {
	t.Setenv("TASKMATE_TELEGRAM_TOKEN", "123:abc")
	t.Setenv("TASKMATE_TELEGRAM_CHAT_ID", "")

	_, err := LoadClient("")
	assert.Error(t, err)
}
