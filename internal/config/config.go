// Package config loads the slackdispatch server configuration.
//
// Values are resolved in three layers: built-in defaults, then an optional
// JSON file, then SLACKDISPATCH_* environment variables.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the complete server configuration.
type Config struct {
	Slack     SlackConfig     `json:"slack"`
	Server    ServerConfig    `json:"server"`
	Dialogs   DialogConfig    `json:"dialogs"`
	Logging   LoggingConfig   `json:"logging"`
	Telemetry TelemetryConfig `json:"telemetry"`
}

type SlackConfig struct {
	BotToken          string   `env:"SLACKDISPATCH_SLACK_BOT_TOKEN"           json:"bot_token"`
	SigningSecret     string   `env:"SLACKDISPATCH_SLACK_SIGNING_SECRET"      json:"signing_secret"`
	IgnoreBotMessages bool     `env:"SLACKDISPATCH_SLACK_IGNORE_BOT_MESSAGES" json:"ignore_bot_messages"`
	CallTimeout       Duration `env:"SLACKDISPATCH_SLACK_CALL_TIMEOUT"        json:"call_timeout"`
}

type ServerConfig struct {
	Addr             string   `env:"SLACKDISPATCH_SERVER_ADDR"              json:"addr"`
	EventsPath       string   `env:"SLACKDISPATCH_SERVER_EVENTS_PATH"       json:"events_path"`
	CommandsPath     string   `env:"SLACKDISPATCH_SERVER_COMMANDS_PATH"     json:"commands_path"`
	InteractionsPath string   `env:"SLACKDISPATCH_SERVER_INTERACTIONS_PATH" json:"interactions_path"`
	ShutdownTimeout  Duration `env:"SLACKDISPATCH_SERVER_SHUTDOWN_TIMEOUT"  json:"shutdown_timeout"`
}

// DialogConfig bounds how long opened dialogs wait for their submission. A
// zero PendingTTL keeps them until submitted.
type DialogConfig struct {
	PendingTTL    Duration `env:"SLACKDISPATCH_DIALOGS_PENDING_TTL"    json:"pending_ttl"`
	SweepInterval Duration `env:"SLACKDISPATCH_DIALOGS_SWEEP_INTERVAL" json:"sweep_interval"`
}

type LoggingConfig struct {
	Level  string `env:"SLACKDISPATCH_LOG_LEVEL"  json:"level"`
	Format string `env:"SLACKDISPATCH_LOG_FORMAT" json:"format"`
}

type TelemetryConfig struct {
	Exporter string   `env:"SLACKDISPATCH_TELEMETRY_EXPORTER" json:"exporter"`
	Endpoint string   `env:"SLACKDISPATCH_TELEMETRY_ENDPOINT" json:"endpoint"`
	Interval Duration `env:"SLACKDISPATCH_TELEMETRY_INTERVAL" json:"interval"`
}

// Duration is a time.Duration written as a string such as "90s" in JSON
// and in the environment.
type Duration time.Duration

func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) String() string { return time.Duration(d).String() }

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	*d = Duration(v)
	return nil
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		Slack: SlackConfig{
			IgnoreBotMessages: true,
			CallTimeout:       Duration(10 * time.Second),
		},
		Server: ServerConfig{
			Addr:             ":3000",
			EventsPath:       "/slack/events",
			CommandsPath:     "/slack/commands",
			InteractionsPath: "/slack/interactions",
			ShutdownTimeout:  Duration(15 * time.Second),
		},
		Dialogs: DialogConfig{
			SweepInterval: Duration(time.Minute),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Telemetry: TelemetryConfig{
			Exporter: "none",
			Interval: Duration(15 * time.Second),
		},
	}
}

// Load reads the configuration. path may be empty or name a file that does
// not exist, in which case only defaults and the environment apply.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config: %w", err)
		default:
			if err := json.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config environment: %w", err)
	}
	return cfg, nil
}

// Validate reports the first setting that prevents the server from running.
func (c *Config) Validate() error {
	if c.Slack.BotToken == "" {
		return errors.New("slack.bot_token is required (SLACKDISPATCH_SLACK_BOT_TOKEN)")
	}
	if c.Server.Addr == "" {
		return errors.New("server.addr is required")
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format %q must be text or json", c.Logging.Format)
	}
	if c.Dialogs.PendingTTL < 0 {
		return errors.New("dialogs.pending_ttl must not be negative")
	}
	if c.Dialogs.PendingTTL > 0 && c.Dialogs.SweepInterval <= 0 {
		return errors.New("dialogs.sweep_interval must be positive when pending_ttl is set")
	}
	return nil
}
