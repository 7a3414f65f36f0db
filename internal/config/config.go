// File: internal/config/config.go
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type BotConfig struct {
	Token    string  `yaml:"token"`
	Mode     string  `yaml:"mode"` // polling | webhook (future)
	Workers  int     `yaml:"workers"`
	AdminIDs []int64 `yaml:"admin_ids"`
	ShopURL  string  `yaml:"shop_url"` // promo redemption site
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	FlowTTL  time.Duration `yaml:"flow_ttl"` // admin flow abandonment timeout
}

type PromoConfig struct {
	RateLimitWindow time.Duration `yaml:"rate_limit_window"` // min interval between issuances per user
	ExpiryWindow    time.Duration `yaml:"expiry_window"`     // pool entry shelf life
}

type TicketConfig struct {
	Cooldown time.Duration `yaml:"cooldown"` // min interval between questions per user
}

// WipeConfig drives the recurring announcement schedule. The event recurs
// weekly on Weekday; the hour depends on whether the occurrence is the first
// such weekday of its calendar month.
type WipeConfig struct {
	Timezone       string       `yaml:"timezone"`
	Weekday        time.Weekday `yaml:"weekday"`
	FirstWeekHour  int          `yaml:"first_week_hour"`  // day-of-month <= 7
	RegularHour    int          `yaml:"regular_hour"`     // otherwise
	NotifyTarget   string       `yaml:"notify_target"`    // channel | all_users
	AnnounceChatID int64        `yaml:"announce_chat_id"` // destination for notify_target=channel
}

type GameServerConfig struct {
	Name    string `yaml:"name"`
	Address string `yaml:"address"` // host:port of the A2S query endpoint
}

type ProbeConfig struct {
	Timeout  time.Duration      `yaml:"timeout"`
	Interval time.Duration      `yaml:"interval"` // background status-log period
	Servers  []GameServerConfig `yaml:"servers"`
}

type WebConfig struct {
	Port      int           `yaml:"port"`
	APIKey    string        `yaml:"api_key"`
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

type Config struct {
	Bot      BotConfig      `yaml:"bot"`
	Log      LogConfig      `yaml:"log"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Promo    PromoConfig    `yaml:"promo"`
	Ticket   TicketConfig   `yaml:"ticket"`
	Wipe     WipeConfig     `yaml:"wipe"`
	Probe    ProbeConfig    `yaml:"probe"`
	Web      WebConfig      `yaml:"web"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig() (*Config, error) {
	var configPath string
	var dev bool
	flag.StringVar(&configPath, "config", "config.yaml", "path to config yaml")
	flag.BoolVar(&dev, "dev", false, "development mode")
	flag.Parse()

	b, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	applyDefaults(&cfg)

	// Minimal validation
	if cfg.Bot.Token == "" {
		return nil, errors.New("bot.token is required")
	}
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required")
	}
	if cfg.Wipe.NotifyTarget == "channel" && cfg.Wipe.AnnounceChatID == 0 {
		return nil, errors.New("wipe.announce_chat_id is required for notify_target=channel")
	}
	if _, err := time.LoadLocation(cfg.Wipe.Timezone); err != nil {
		return nil, fmt.Errorf("wipe.timezone: %w", err)
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Bot.Workers <= 0 {
		cfg.Bot.Workers = 8
	}
	if cfg.Bot.Mode == "" {
		cfg.Bot.Mode = "polling"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Redis.FlowTTL <= 0 {
		cfg.Redis.FlowTTL = 15 * time.Minute
	}
	if cfg.Promo.RateLimitWindow <= 0 {
		cfg.Promo.RateLimitWindow = 24 * time.Hour
	}
	if cfg.Promo.ExpiryWindow <= 0 {
		cfg.Promo.ExpiryWindow = 30 * 24 * time.Hour
	}
	if cfg.Ticket.Cooldown <= 0 {
		cfg.Ticket.Cooldown = 10 * time.Minute
	}
	if cfg.Wipe.Timezone == "" {
		cfg.Wipe.Timezone = "Europe/Moscow"
	}
	if cfg.Wipe.Weekday == 0 && cfg.Wipe.FirstWeekHour == 0 && cfg.Wipe.RegularHour == 0 {
		cfg.Wipe.Weekday = time.Thursday
		cfg.Wipe.FirstWeekHour = 22
		cfg.Wipe.RegularHour = 12
	}
	if cfg.Wipe.NotifyTarget == "" {
		cfg.Wipe.NotifyTarget = "channel"
	}
	if cfg.Probe.Timeout <= 0 {
		cfg.Probe.Timeout = 3 * time.Second
	}
	if cfg.Probe.Interval <= 0 {
		cfg.Probe.Interval = 5 * time.Minute
	}
	if cfg.Web.Port == 0 {
		cfg.Web.Port = 8080
	}
	if cfg.Web.TokenTTL <= 0 {
		cfg.Web.TokenTTL = time.Hour
	}
}
