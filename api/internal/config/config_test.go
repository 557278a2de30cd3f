package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allKeys = []string{
	"PORT", "DETECTOR", "STORE", "DATABASE_URL", "SQLITE_PATH", "UPLOAD_DIR",
	"GEMINI_API_KEY", "GEMINI_MODEL", "OPENAI_API_KEY", "OPENAI_MODEL",
	"YC_OAUTH_TOKEN", "YC_FOLDER_ID", "DETECT_TIMEOUT_SEC", "MAX_IMAGE_BYTES",
	"TELEGRAM_BOT_TOKEN", "TELEGRAM_CHAT_ID",
	"POSTGRES_USER", "POSTGRES_PASSWORD", "PGHOST", "PGPORT", "POSTGRES_DB",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range allKeys {
		t.Setenv(k, "")
	}
}

func TestDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := LoadFile("")
	require.NoError(t, err)
	assert.Equal(t, "8000", cfg.Port)
	assert.Equal(t, "none", cfg.Detector)
	assert.Equal(t, "sqlite", cfg.Store)
	assert.Equal(t, "uploads", cfg.UploadDir)
	assert.Equal(t, 30*time.Second, cfg.DetectTimeout())
	assert.EqualValues(t, 10<<20, cfg.MaxImageBytes)
}

func TestYAMLThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "explorer.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: "9000"
detector: gemini
store: memory
detect_timeout_sec: 5
telegram_chat_id: 42
`), 0o600))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "gemini", cfg.Detector)
	assert.Equal(t, "memory", cfg.Store)
	assert.Equal(t, 5, cfg.DetectTimeoutSec)
	assert.EqualValues(t, 42, cfg.TelegramChatID)

	t.Setenv("PORT", "9100")
	t.Setenv("DETECTOR", "YANDEX")
	cfg, err = LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "9100", cfg.Port)
	assert.Equal(t, "yandex", cfg.Detector)
}

func TestValidate(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORE", "redis")
	_, err := LoadFile("")
	assert.Error(t, err)

	clearEnv(t)
	t.Setenv("DETECTOR", "tesseract")
	_, err = LoadFile("")
	assert.Error(t, err)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestResolveDSN(t *testing.T) {
	clearEnv(t)
	cfg := &Config{DatabaseURL: "postgres://a@b/c"}
	assert.Equal(t, "postgres://a@b/c", cfg.ResolveDSN())

	t.Setenv("POSTGRES_USER", "robot")
	t.Setenv("POSTGRES_PASSWORD", "pw")
	t.Setenv("PGHOST", "localhost")
	cfg = &Config{}
	assert.Equal(t, "postgres://robot:pw@localhost:5432/explorer?sslmode=disable", cfg.ResolveDSN())
}
