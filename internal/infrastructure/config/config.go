package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config 儲存後台 API 及外部相依的執行設定。
type Config struct {
	Environment string         `yaml:"environment"`
	HTTP        HTTPConfig     `yaml:"http"`
	DB          DBConfig       `yaml:"db"`
	Auth        AuthConfig     `yaml:"auth"`
	Orders      OrdersConfig   `yaml:"orders"`
	Notifier    NotifierConfig `yaml:"notifier"`
}

type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

type DBConfig struct {
	DSN          string        `yaml:"dsn"`
	MaxOpenConns int           `yaml:"max_open_conns"`
	MaxIdleConns int           `yaml:"max_idle_conns"`
	MaxIdleTime  time.Duration `yaml:"max_idle_time"`
}

type AuthConfig struct {
	AccessTTL     time.Duration `yaml:"access_ttl"`
	RefreshTTL    time.Duration `yaml:"refresh_ttl"`
	AccessSecret  string        `yaml:"access_secret"`
	RefreshSecret string        `yaml:"refresh_secret"`
	CookieDomain  string        `yaml:"cookie_domain"`
}

type OrdersConfig struct {
	UnpaidTTL       time.Duration `yaml:"unpaid_ttl"`
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
	UndoWindow      time.Duration `yaml:"undo_window"`
}

type NotifierConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

type TelegramConfig struct {
	Enabled bool   `yaml:"enabled"`
	Token   string `yaml:"token"`
	ChatID  int64  `yaml:"chat_id"`
}

// Production 決定是否啟用 Secure cookie 等正式環境行為。
func (c Config) Production() bool {
	return c.Environment == "production"
}

// LoadFromFile 從 YAML 組態檔載入設定。
func LoadFromFile(path string) (Config, error) {
	// 嘗試載入 .env 檔案（如果存在）
	_ = godotenv.Load()

	var cfg Config
	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config yaml: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	cfg = applyDefaults(cfg)
	cfg = applyEnv(cfg)
	return cfg, nil
}

func applyDefaults(cfg Config) Config {
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = ":8080"
	}
	if cfg.DB.MaxOpenConns == 0 {
		cfg.DB.MaxOpenConns = 5
	}
	if cfg.DB.MaxIdleConns == 0 {
		cfg.DB.MaxIdleConns = 2
	}
	if cfg.DB.MaxIdleTime == 0 {
		cfg.DB.MaxIdleTime = 15 * time.Minute
	}
	if cfg.Auth.AccessTTL == 0 {
		cfg.Auth.AccessTTL = 15 * time.Minute
	}
	if cfg.Auth.RefreshTTL == 0 {
		cfg.Auth.RefreshTTL = 7 * 24 * time.Hour
	}
	if cfg.Auth.AccessSecret == "" {
		cfg.Auth.AccessSecret = "dev-access-secret-change-me"
	}
	if cfg.Auth.RefreshSecret == "" {
		cfg.Auth.RefreshSecret = "dev-refresh-secret-change-me"
	}
	if cfg.Orders.UnpaidTTL == 0 {
		cfg.Orders.UnpaidTTL = 24 * time.Hour
	}
	if cfg.Orders.CleanupInterval == 0 {
		cfg.Orders.CleanupInterval = time.Hour
	}
	if cfg.Orders.UndoWindow == 0 {
		cfg.Orders.UndoWindow = 30 * time.Minute
	}
	return cfg
}

func applyEnv(cfg Config) Config {
	if val := os.Getenv("APP_ENV"); val != "" {
		cfg.Environment = val
	}
	if val := os.Getenv("HTTP_ADDR"); val != "" {
		cfg.HTTP.Addr = val
	}
	if val := os.Getenv("PORT"); val != "" {
		cfg.HTTP.Addr = ":" + val
	}
	if val := os.Getenv("DB_DSN"); val != "" {
		cfg.DB.DSN = val
	}
	if val := os.Getenv("AUTH_ACCESS_SECRET"); val != "" {
		cfg.Auth.AccessSecret = val
	}
	if val := os.Getenv("AUTH_REFRESH_SECRET"); val != "" {
		cfg.Auth.RefreshSecret = val
	}
	if val := os.Getenv("AUTH_ACCESS_TTL"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Auth.AccessTTL = d
		}
	}
	if val := os.Getenv("AUTH_REFRESH_TTL"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Auth.RefreshTTL = d
		}
	}
	if val := os.Getenv("COOKIE_DOMAIN"); val != "" {
		cfg.Auth.CookieDomain = val
	}
	if val := os.Getenv("TELEGRAM_TOKEN"); val != "" {
		cfg.Notifier.Telegram.Token = val
	}
	if val := os.Getenv("TELEGRAM_CHAT_ID"); val != "" {
		if id, err := strconv.ParseInt(val, 10, 64); err == nil {
			cfg.Notifier.Telegram.ChatID = id
		}
	}
	if val := os.Getenv("TELEGRAM_ENABLED"); val != "" {
		cfg.Notifier.Telegram.Enabled = (val == "true")
	}
	return cfg
}
