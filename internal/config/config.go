// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type BotConfig struct {
	Token       string  `yaml:"token"`
	Mode        string  `yaml:"mode"` // polling only for now
	Workers     int     `yaml:"workers"`
	SendRPS     float64 `yaml:"send_rps"`
	AdminChatID int64   `yaml:"admin_chat_id"`
	Language    string  `yaml:"language"` // ru | en
	// RateLimitPerMinute caps inbound events per chat; 0 disables the limiter.
	RateLimitPerMinute int `yaml:"rate_limit_per_minute"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type CommerceConfig struct {
	BaseURL      string        `yaml:"base_url"`
	ClientID     string        `yaml:"client_id"`
	ClientSecret string        `yaml:"client_secret"`
	PriceBook    string        `yaml:"price_book"`
	Currency     string        `yaml:"currency"`
	ProbePath    string        `yaml:"probe_path"`
	Timeout      time.Duration `yaml:"timeout"`
	RPS          float64       `yaml:"rps"`
	Burst        int           `yaml:"burst"`
}

type ShopConfig struct {
	QuantityTiers []int `yaml:"quantity_tiers"`
}

type RedisConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	MaxConns int32  `yaml:"max_conns"`
}

type SessionConfig struct {
	TTL    time.Duration `yaml:"ttl"`
	Shards int           `yaml:"shards"`
}

type AlertConfig struct {
	SentryDSN   string `yaml:"sentry_dsn"`
	Environment string `yaml:"environment"`
	QueueSize   int    `yaml:"queue_size"`
}

type AdminConfig struct {
	Port      int           `yaml:"port"`
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

type SchedulerConfig struct {
	OrderDigestInterval time.Duration `yaml:"order_digest_interval"`
}

type SecurityConfig struct {
	EncryptionKey string `yaml:"encryption_key"`
}

type Config struct {
	Bot       BotConfig       `yaml:"bot"`
	Log       LogConfig       `yaml:"log"`
	Commerce  CommerceConfig  `yaml:"commerce"`
	Shop      ShopConfig      `yaml:"shop"`
	Redis     RedisConfig     `yaml:"redis"`
	Database  DatabaseConfig  `yaml:"database"`
	Session   SessionConfig   `yaml:"session"`
	Alert     AlertConfig     `yaml:"alert"`
	Admin     AdminConfig     `yaml:"admin"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Security  SecurityConfig  `yaml:"security"`

	Runtime RuntimeConfig `yaml:"-"`
}

// secrets are read from SHOP_* environment variables and win over the YAML file.
type secrets struct {
	BotToken       string `envconfig:"BOT_TOKEN"`
	ClientID       string `envconfig:"CLIENT_ID"`
	ClientSecret   string `envconfig:"CLIENT_SECRET"`
	RedisPassword  string `envconfig:"REDIS_PASSWORD"`
	DatabaseURL    string `envconfig:"DATABASE_URL"`
	SentryDSN      string `envconfig:"SENTRY_DSN"`
	AdminJWTSecret string `envconfig:"ADMIN_JWT_SECRET"`
	EncryptionKey  string `envconfig:"ENCRYPTION_KEY"`
	AdminChatID    int64  `envconfig:"ADMIN_CHAT_ID"`
}

const envPrefix = "SHOP"

// LoadConfig reads path, overlays SHOP_* secrets (a .env file next to the
// process is honoured when present), applies defaults and validates.
func LoadConfig(path string, dev bool) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(b)
	if err != nil {
		return nil, err
	}
	cfg.Runtime.Dev = dev
	return cfg, nil
}

// Parse builds a Config from YAML bytes plus the environment.
func Parse(b []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	var env secrets
	if err := envconfig.Process(envPrefix, &env); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}
	cfg.applySecrets(env)
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applySecrets(env secrets) {
	override := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	override(&c.Bot.Token, env.BotToken)
	override(&c.Commerce.ClientID, env.ClientID)
	override(&c.Commerce.ClientSecret, env.ClientSecret)
	override(&c.Redis.Password, env.RedisPassword)
	override(&c.Database.URL, env.DatabaseURL)
	override(&c.Alert.SentryDSN, env.SentryDSN)
	override(&c.Admin.JWTSecret, env.AdminJWTSecret)
	override(&c.Security.EncryptionKey, env.EncryptionKey)
	if env.AdminChatID != 0 {
		c.Bot.AdminChatID = env.AdminChatID
	}
}

func (c *Config) applyDefaults() {
	if c.Bot.Workers <= 0 {
		c.Bot.Workers = 64
	}
	if c.Bot.SendRPS <= 0 {
		c.Bot.SendRPS = 25
	}
	if c.Bot.Language == "" {
		c.Bot.Language = "ru"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.Commerce.BaseURL == "" {
		c.Commerce.BaseURL = "https://useast.api.elasticpath.com"
	}
	c.Commerce.BaseURL = strings.TrimRight(c.Commerce.BaseURL, "/")
	if c.Commerce.Currency == "" {
		c.Commerce.Currency = "USD"
	}
	if c.Commerce.ProbePath == "" {
		c.Commerce.ProbePath = "/v2/carts/abc"
	}
	if c.Commerce.Timeout <= 0 {
		c.Commerce.Timeout = 15 * time.Second
	}
	if c.Commerce.RPS <= 0 {
		c.Commerce.RPS = 10
	}
	if c.Commerce.Burst <= 0 {
		c.Commerce.Burst = 5
	}
	if len(c.Shop.QuantityTiers) == 0 {
		c.Shop.QuantityTiers = []int{1, 5, 10}
	}
	if c.Database.MaxConns <= 0 {
		c.Database.MaxConns = 10
	}
	if c.Session.TTL <= 0 {
		c.Session.TTL = 24 * time.Hour
	}
	if c.Session.Shards <= 0 {
		c.Session.Shards = 64
	}
	if c.Alert.QueueSize <= 0 {
		c.Alert.QueueSize = 64
	}
	if c.Alert.Environment == "" {
		c.Alert.Environment = "production"
	}
	if c.Admin.Port == 0 {
		c.Admin.Port = 8080
	}
	if c.Admin.TokenTTL <= 0 {
		c.Admin.TokenTTL = 30 * time.Minute
	}
	if c.Scheduler.OrderDigestInterval <= 0 {
		c.Scheduler.OrderDigestInterval = time.Hour
	}
}

// Validate checks the fields the process cannot start without.
func (c *Config) Validate() error {
	if c.Bot.Token == "" {
		return errors.New("bot.token is required")
	}
	if c.Commerce.ClientID == "" || c.Commerce.ClientSecret == "" {
		return errors.New("commerce.client_id and commerce.client_secret are required")
	}
	if c.Commerce.PriceBook == "" {
		return errors.New("commerce.price_book is required")
	}
	if c.Redis.URL == "" {
		return errors.New("redis.url is required")
	}
	if c.Database.URL == "" {
		return errors.New("database.url is required")
	}
	// Shards must be a power of two for bigcache.
	if c.Session.Shards&(c.Session.Shards-1) != 0 {
		return fmt.Errorf("session.shards must be a power of two, got %d", c.Session.Shards)
	}
	prev := 0
	for _, t := range c.Shop.QuantityTiers {
		if t <= prev {
			return fmt.Errorf("shop.quantity_tiers must be positive and ascending, got %v", c.Shop.QuantityTiers)
		}
		prev = t
	}
	return nil
}
