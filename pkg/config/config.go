package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Slack     SlackConfig     `mapstructure:"slack"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	OpenAI    OpenAIConfig    `mapstructure:"openai"`
	Assistant AssistantConfig `mapstructure:"assistant"`
	Log       LogConfig       `mapstructure:"log"`
}

type SlackConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	BotToken      string `mapstructure:"bot_token"`
	SigningSecret string `mapstructure:"signing_secret"`
	BotUserID     string `mapstructure:"bot_user_id"`
	AppToken      string `mapstructure:"app_token"`
	SocketMode    bool   `mapstructure:"socket_mode"`
	ListenAddr    string `mapstructure:"listen_addr"`
	EventsPath    string `mapstructure:"events_path"`
}

type TelegramConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Token   string `mapstructure:"token"`
}

type OpenAIConfig struct {
	APIKey              string        `mapstructure:"api_key"`
	BaseURL             string        `mapstructure:"base_url"`
	Model               string        `mapstructure:"model"`
	ImageModel          string        `mapstructure:"image_model"`
	ImageSize           string        `mapstructure:"image_size"`
	MaxTokens           int           `mapstructure:"max_tokens"`
	CreativeTemperature float32       `mapstructure:"creative_temperature"`
	HTTPTimeout         time.Duration `mapstructure:"http_timeout"`
}

type AssistantConfig struct {
	Signature string `mapstructure:"signature"`
}

type LogConfig struct {
	Development bool `mapstructure:"development"`
}

// LoadConfig reads the optional YAML file at path and overlays the environment.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	// Set default values
	v.SetDefault("slack.enabled", true)
	v.SetDefault("slack.socket_mode", false)
	v.SetDefault("slack.listen_addr", ":3000")
	v.SetDefault("slack.events_path", "/slack/events")
	v.SetDefault("telegram.enabled", false)
	v.SetDefault("openai.model", "gpt-4o")
	v.SetDefault("openai.image_model", "dall-e-3")
	v.SetDefault("openai.image_size", "1024x1024")
	v.SetDefault("openai.max_tokens", 0)
	v.SetDefault("openai.creative_temperature", 1.0)
	v.SetDefault("openai.http_timeout", 2*time.Minute)
	v.SetDefault("assistant.signature", "MengC")
	v.SetDefault("log.development", false)

	// Enable environment variable support
	v.AutomaticEnv()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("reading config %s: %w", path, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	// Credentials usually arrive through the environment
	overrides := map[string]*string{
		"SLACK_BOT_TOKEN":      &config.Slack.BotToken,
		"SLACK_SIGNING_SECRET": &config.Slack.SigningSecret,
		"SLACK_BOT_USER_ID":    &config.Slack.BotUserID,
		"SLACK_APP_TOKEN":      &config.Slack.AppToken,
		"TELEGRAM_TOKEN":       &config.Telegram.Token,
		"OPENAI_API_KEY":       &config.OpenAI.APIKey,
		"OPENAI_BASE_URL":      &config.OpenAI.BaseURL,
	}
	for key, target := range overrides {
		if value := v.GetString(key); value != "" {
			*target = value
		}
	}

	return &config, nil
}

// Validate reports every missing credential for the enabled surfaces.
func (c *Config) Validate() error {
	var errs []error

	if c.OpenAI.APIKey == "" {
		errs = append(errs, errors.New("openai.api_key (OPENAI_API_KEY) is required"))
	}

	if c.Slack.Enabled {
		if c.Slack.BotToken == "" {
			errs = append(errs, errors.New("slack.bot_token (SLACK_BOT_TOKEN) is required"))
		}
		if c.Slack.BotUserID == "" {
			errs = append(errs, errors.New("slack.bot_user_id (SLACK_BOT_USER_ID) is required"))
		}
		if c.Slack.SocketMode {
			if c.Slack.AppToken == "" {
				errs = append(errs, errors.New("slack.app_token (SLACK_APP_TOKEN) is required in socket mode"))
			}
		} else if c.Slack.SigningSecret == "" {
			errs = append(errs, errors.New("slack.signing_secret (SLACK_SIGNING_SECRET) is required"))
		}
	}

	if c.Telegram.Enabled && c.Telegram.Token == "" {
		errs = append(errs, errors.New("telegram.token (TELEGRAM_TOKEN) is required"))
	}

	if !c.Slack.Enabled && !c.Telegram.Enabled {
		errs = append(errs, errors.New("no chat platform enabled"))
	}

	return errors.Join(errs...)
}
