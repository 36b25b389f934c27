package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Config represents the global ~/.wppbot/config.toml.
type Config struct {
	DefaultSession string  `toml:"default_session"`
	Log            Log     `toml:"log"`
	Bot            Bot     `toml:"bot"`
	Address        Address `toml:"address"`
	Sync           Sync    `toml:"sync"`
	Send           Send    `toml:"send"`
	HTTP           HTTP    `toml:"http"`
	Relay          Relay   `toml:"relay"`
}

// Log controls the daemon logger.
type Log struct {
	Level string `toml:"level"`
}

// Bot holds the values seeded into the config table on first start.
type Bot struct {
	Name           string `toml:"name"`
	WelcomeMessage string `toml:"welcome_message"`
}

// Address controls how bare phone numbers become transport addresses.
// An empty CountryCode leaves digits untouched.
type Address struct {
	CountryCode string `toml:"country_code"`
	TrunkPrefix string `toml:"trunk_prefix"`
	Suffix      string `toml:"suffix"`
}

// Sync selects when the directory is refreshed: "once" on the first ready
// of the process, or "every_ready".
type Sync struct {
	Policy string `toml:"policy"`
}

// Send paces outbound traffic.
type Send struct {
	RatePerSecond float64 `toml:"rate_per_second"`
	Burst         int     `toml:"burst"`
}

// HTTP configures the dashboard API. Empty Addr disables it.
type HTTP struct {
	Addr string `toml:"addr"`
}

// Relay configures optional event forwarding.
type Relay struct {
	AMQPURL    string `toml:"amqp_url"`
	AMQPQueue  string `toml:"amqp_queue"`
	WebhookURL string `toml:"webhook_url"`
}

const (
	SyncOnce       = "once"
	SyncEveryReady = "every_ready"
)

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Log: Log{Level: "info"},
		Bot: Bot{
			Name:           "WhatsApp Bot",
			WelcomeMessage: "Bonjour ! Comment puis-je vous aider ?",
		},
		Address: Address{Suffix: "@s.whatsapp.net"},
		Sync:    Sync{Policy: SyncOnce},
		Send:    Send{RatePerSecond: 5, Burst: 5},
		Relay:   Relay{AMQPQueue: "wppbot_events"},
	}
}

// Load reads config from the given path on top of Default. Returns an
// error if the file is missing.
func Load(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault is Load that treats a missing file as the defaults.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Save writes config to the given path, creating parent dirs as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(cfg)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}

// ApplyEnv loads an optional .env file and overlays WPPBOT_* variables.
// Variables already present in the environment win over the file.
func (c *Config) ApplyEnv(envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	setString(&c.Log.Level, "WPPBOT_LOG_LEVEL")
	setString(&c.Bot.Name, "WPPBOT_BOT_NAME")
	setString(&c.Bot.WelcomeMessage, "WPPBOT_WELCOME_MESSAGE")
	setString(&c.Address.CountryCode, "WPPBOT_COUNTRY_CODE")
	setString(&c.Address.TrunkPrefix, "WPPBOT_TRUNK_PREFIX")
	setString(&c.Sync.Policy, "WPPBOT_SYNC_POLICY")
	setString(&c.HTTP.Addr, "WPPBOT_HTTP_ADDR")
	setString(&c.Relay.AMQPURL, "WPPBOT_AMQP_URL")
	setString(&c.Relay.AMQPQueue, "WPPBOT_AMQP_QUEUE")
	setString(&c.Relay.WebhookURL, "WPPBOT_WEBHOOK_URL")
	if v, ok := os.LookupEnv("WPPBOT_SEND_RATE"); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return errors.New("WPPBOT_SEND_RATE: " + err.Error())
		}
		c.Send.RatePerSecond = f
	}
	return nil
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = strings.TrimSpace(v)
	}
}
