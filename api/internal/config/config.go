package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Port     string `yaml:"port"`
	Detector string `yaml:"detector"`
	Store    string `yaml:"store"`

	DatabaseURL string `yaml:"database_url"`
	SQLitePath  string `yaml:"sqlite_path"`
	UploadDir   string `yaml:"upload_dir"`

	GeminiAPIKey string `yaml:"gemini_api_key"`
	GeminiModel  string `yaml:"gemini_model"`
	OpenAIAPIKey string `yaml:"openai_api_key"`
	OpenAIModel  string `yaml:"openai_model"`
	YCOAuthToken string `yaml:"yc_oauth_token"`
	YCFolderID   string `yaml:"yc_folder_id"`

	DetectTimeoutSec int   `yaml:"detect_timeout_sec"`
	MaxImageBytes    int64 `yaml:"max_image_bytes"`

	TelegramBotToken string `yaml:"telegram_bot_token"`
	TelegramChatID   int64  `yaml:"telegram_chat_id"`
}

func defaults() *Config {
	return &Config{
		Port:             "8000",
		Detector:         "none",
		Store:            "sqlite",
		SQLitePath:       "explorer.db",
		UploadDir:        "uploads",
		GeminiModel:      "gemini-2.5-flash",
		OpenAIModel:      "gpt-4o-mini",
		DetectTimeoutSec: 30,
		MaxImageBytes:    10 << 20,
	}
}

func getEnv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getEnvInt64(k string, def int64) int64 {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return def
}

// Load builds the config from defaults, then the YAML file named by
// EXPLORER_CONFIG (if any), then environment variables.
func Load() (*Config, error) {
	return LoadFile(os.Getenv("EXPLORER_CONFIG"))
}

// LoadFile is Load with an explicit YAML path; an empty path skips the file.
func LoadFile(path string) (*Config, error) {
	cfg := defaults()
	if path = strings.TrimSpace(path); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.Detector = strings.ToLower(getEnv("DETECTOR", cfg.Detector))
	cfg.Store = strings.ToLower(getEnv("STORE", cfg.Store))

	cfg.DatabaseURL = getEnv("DATABASE_URL", cfg.DatabaseURL)
	cfg.SQLitePath = getEnv("SQLITE_PATH", cfg.SQLitePath)
	cfg.UploadDir = getEnv("UPLOAD_DIR", cfg.UploadDir)

	cfg.GeminiAPIKey = getEnv("GEMINI_API_KEY", cfg.GeminiAPIKey)
	cfg.GeminiModel = getEnv("GEMINI_MODEL", cfg.GeminiModel)
	cfg.OpenAIAPIKey = getEnv("OPENAI_API_KEY", cfg.OpenAIAPIKey)
	cfg.OpenAIModel = getEnv("OPENAI_MODEL", cfg.OpenAIModel)
	cfg.YCOAuthToken = getEnv("YC_OAUTH_TOKEN", cfg.YCOAuthToken)
	cfg.YCFolderID = getEnv("YC_FOLDER_ID", cfg.YCFolderID)

	cfg.DetectTimeoutSec = int(getEnvInt64("DETECT_TIMEOUT_SEC", int64(cfg.DetectTimeoutSec)))
	cfg.MaxImageBytes = getEnvInt64("MAX_IMAGE_BYTES", cfg.MaxImageBytes)

	cfg.TelegramBotToken = getEnv("TELEGRAM_BOT_TOKEN", cfg.TelegramBotToken)
	cfg.TelegramChatID = getEnvInt64("TELEGRAM_CHAT_ID", cfg.TelegramChatID)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Detector {
	case "gemini", "gpt", "openai", "yandex", "none":
	default:
		return fmt.Errorf("config: unknown detector %q", c.Detector)
	}
	switch c.Store {
	case "postgres", "sqlite", "memory":
	default:
		return fmt.Errorf("config: unknown store %q", c.Store)
	}
	if c.DetectTimeoutSec <= 0 {
		return fmt.Errorf("config: detect_timeout_sec must be positive")
	}
	if c.MaxImageBytes <= 0 {
		return fmt.Errorf("config: max_image_bytes must be positive")
	}
	return nil
}

func (c *Config) DetectTimeout() time.Duration {
	return time.Duration(c.DetectTimeoutSec) * time.Second
}

// ResolveDSN prefers DatabaseURL and otherwise builds one from POSTGRES_* / PG* vars.
func (c *Config) ResolveDSN() string {
	if v := strings.TrimSpace(c.DatabaseURL); v != "" {
		return v
	}
	user := getEnv("POSTGRES_USER", "explorer")
	pass := os.Getenv("POSTGRES_PASSWORD")
	host := getEnv("PGHOST", "db")
	port := getEnv("PGPORT", "5432")
	db := getEnv("POSTGRES_DB", "explorer")

	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(user, pass),
		Host:     net.JoinHostPort(host, port),
		Path:     "/" + db,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}
