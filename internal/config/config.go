package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "TASKMATE"

// Config keeps runtime settings for the API server.
type Config struct {
	Addr        string
	DatabaseURL string
	JWTSecret   string
	TokenTTL    time.Duration
	CORSOrigins []string
	LogLevel    string
}

// ClientConfig keeps settings for the dashboard and automation runner.
type ClientConfig struct {
	APIURL             string
	StateDir           string
	AutomationInterval time.Duration
	TelegramToken      string
	TelegramChatID     int64
	LogLevel           string
}

// Load reads server configuration from TASKMATE_* environment variables and an
// optional yaml file, with sane defaults.
func Load(file string) (Config, error) {
	v, err := newViper(file)
	if err != nil {
		return Config{}, err
	}
	v.SetDefault("addr", ":5000")
	v.SetDefault("database_url", "taskmate.db")
	v.SetDefault("token_ttl", "168h")
	v.SetDefault("cors_origins", []string{"http://localhost:3000", "http://localhost:5173", "http://127.0.0.1:3000"})
	v.SetDefault("log_level", "info")

	cfg := Config{
		Addr:        strings.TrimSpace(v.GetString("addr")),
		DatabaseURL: strings.TrimSpace(v.GetString("database_url")),
		JWTSecret:   strings.TrimSpace(v.GetString("jwt_secret")),
		TokenTTL:    v.GetDuration("token_ttl"),
		CORSOrigins: splitList(v.GetStringSlice("cors_origins")),
		LogLevel:    v.GetString("log_level"),
	}

	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 168 * time.Hour
	}

	if cfg.JWTSecret == "" {
		return cfg, fmt.Errorf("TASKMATE_JWT_SECRET is required")
	}

	return cfg, nil
}

// LoadClient reads client configuration the same way Load does.
func LoadClient(file string) (ClientConfig, error) {
	v, err := newViper(file)
	if err != nil {
		return ClientConfig{}, err
	}
	v.SetDefault("api_url", "http://localhost:5000/api")
	v.SetDefault("state_dir", defaultStateDir())
	v.SetDefault("automation_interval", "5m")
	v.SetDefault("log_level", "info")

	cfg := ClientConfig{
		APIURL:             strings.TrimRight(strings.TrimSpace(v.GetString("api_url")), "/"),
		StateDir:           strings.TrimSpace(v.GetString("state_dir")),
		AutomationInterval: v.GetDuration("automation_interval"),
		TelegramToken:      strings.TrimSpace(v.GetString("telegram_token")),
		TelegramChatID:     v.GetInt64("telegram_chat_id"),
		LogLevel:           v.GetString("log_level"),
	}

	if cfg.AutomationInterval <= 0 {
		cfg.AutomationInterval = 5 * time.Minute
	}

	if cfg.APIURL == "" {
		return cfg, fmt.Errorf("TASKMATE_API_URL is required")
	}
	if cfg.TelegramToken != "" && cfg.TelegramChatID == 0 {
		return cfg, fmt.Errorf("TASKMATE_TELEGRAM_CHAT_ID is required when TASKMATE_TELEGRAM_TOKEN is set")
	}

	return cfg, nil
}

func newViper(file string) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file == "" {
		return v, nil
	}
	v.SetConfigFile(file)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %q: %w", file, err)
	}
	return v, nil
}

// splitList accepts both yaml lists and comma separated env values.
func splitList(raw []string) []string {
	var out []string
	for _, item := range raw {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func defaultStateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".taskmate"
	}
	return filepath.Join(home, ".taskmate")
}
