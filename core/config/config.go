package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// TelegramConfig holds Telegram bot related settings.
type TelegramConfig struct {
	Token     string `yaml:"token" envconfig:"BOT_TOKEN"`
	TokenFile string `yaml:"token_file" envconfig:"BOT_TOKEN_FILE"`
	AdminID   int64  `yaml:"admin_id" envconfig:"TELEGRAM_ADMIN_ID"`
	RunMode   string `yaml:"run_mode" envconfig:"TELEGRAM_RUN_MODE"`
	// LongPollTimeoutSeconds defines long polling timeout; 0 -> default
	LongPollTimeoutSeconds int `yaml:"longpoll_timeout_seconds" envconfig:"TELEGRAM_LONGPOLL_TIMEOUT_SECONDS"`
	// OnePoll stops the process after the first polling failure instead of
	// resuming. When polling resumes, all dialog sessions are reset.
	OnePoll bool `yaml:"one_poll" envconfig:"TELEGRAM_ONE_POLL"`
}

// WebhookConfig specifies webhook settings.
type WebhookConfig struct {
	URL    string `yaml:"url" envconfig:"WEBHOOK_URL"`
	Listen string `yaml:"listen" envconfig:"WEBHOOK_LISTEN"`
	Port   int    `yaml:"port" envconfig:"WEBHOOK_PORT"`
}

// LoggingConfig defines logging related configuration.
type LoggingConfig struct {
	Level       string `yaml:"level"`
	Format      string `yaml:"format"`
	KeysOrder   string `yaml:"keys_order"`
	DebugSample string `yaml:"debug_sample"`
	Dir         string `yaml:"dir"`
	BotFile     string `yaml:"bot_file"`
	// Profile indicates environment profile such as "debug" or "prod".
	Profile string `yaml:"profile"`
}

// EngineConfig describes how to reach the decision engine.
type EngineConfig struct {
	// Address of the engine endpoint, a unix socket path.
	Address string `yaml:"address" envconfig:"ENGINE_ADDRESS"`
	// DefaultTimezoneOffset is passed on user registration, in hours.
	DefaultTimezoneOffset int `yaml:"default_timezone_offset" envconfig:"ENGINE_DEFAULT_TZ_OFFSET"`
}

// VoiceConfig configures the voice message transcription pipeline.
type VoiceConfig struct {
	Enabled bool `yaml:"enabled" envconfig:"VOICE_ENABLED"`
	// OpusDec is the opus decoder binary used to produce WAV input.
	OpusDec string `yaml:"opusdec" envconfig:"VOICE_OPUSDEC"`
	// ASRCommand is the speech recognition CLI invoked with the WAV file.
	ASRCommand string `yaml:"asr_command" envconfig:"VOICE_ASR_COMMAND"`
	APIKeyFile string `yaml:"api_key_file" envconfig:"VOICE_API_KEY_FILE"`
	WorkDir    string `yaml:"work_dir" envconfig:"VOICE_WORK_DIR"`
}

const (
	// RunModeWebhook selects webhook mode for Telegram updates.
	RunModeWebhook = "webhook"
	// RunModeLongpoll selects long-polling mode for Telegram updates.
	RunModeLongpoll = "longpoll"
)

const (
	// UpdateCallback identifies callback updates for rate limit exclusions.
	UpdateCallback = "callback"
	// UpdateMessage identifies message updates for rate limit exclusions.
	UpdateMessage = "message"
)

// RateLimitConfig holds settings for rate limiting.
// ExcludeUpdates accepts update types to bypass limiting:
// - "callback": Telegram callback button presses
// - "message": standard text messages
type RateLimitConfig struct {
	IntervalMS     int      `yaml:"interval_ms" envconfig:"RATE_LIMIT_INTERVAL_MS"`
	ExcludeUpdates []string `yaml:"exclude_updates" envconfig:"RATE_LIMIT_EXCLUDE_UPDATES"`
}

// Config aggregates the full bot configuration.
type Config struct {
	Telegram  TelegramConfig  `yaml:"telegram"`
	Webhook   WebhookConfig   `yaml:"webhook"`
	Logging   LoggingConfig   `yaml:"logging"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Engine    EngineConfig    `yaml:"engine"`
	Voice     VoiceConfig     `yaml:"voice"`
}

// Load reads configuration from a YAML file and environment variables.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize performs basic validation of required configuration fields and adjusts defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}

	if cfg.Telegram.Token == "" && cfg.Telegram.TokenFile != "" {
		data, err := os.ReadFile(cfg.Telegram.TokenFile)
		if err != nil {
			return fmt.Errorf("failed to read token file: %w", err)
		}
		cfg.Telegram.Token = strings.TrimSpace(string(data))
	}
	if cfg.Telegram.Token == "" {
		return fmt.Errorf("telegram token is required")
	}

	rm := strings.ToLower(strings.TrimSpace(cfg.Telegram.RunMode))
	if rm == "" {
		rm = RunModeLongpoll
	}
	if rm == "polling" { // accept alias
		rm = RunModeLongpoll
	}
	switch rm {
	case RunModeWebhook:
		if strings.TrimSpace(cfg.Webhook.URL) == "" {
			return fmt.Errorf("webhook.url is required when telegram.run_mode is 'webhook'")
		}
		if strings.TrimSpace(cfg.Webhook.Listen) == "" {
			return fmt.Errorf("webhook.listen is required when telegram.run_mode is 'webhook'")
		}
		if cfg.Webhook.Port <= 0 {
			return fmt.Errorf("webhook.port must be > 0 when telegram.run_mode is 'webhook'")
		}
	case RunModeLongpoll:
		if cfg.Telegram.LongPollTimeoutSeconds < 0 {
			return fmt.Errorf("telegram.longpoll_timeout_seconds must be >= 0")
		}
	default:
		return fmt.Errorf("invalid telegram.run_mode %q; allowed: webhook, longpoll", cfg.Telegram.RunMode)
	}
	cfg.Telegram.RunMode = rm

	if strings.TrimSpace(cfg.Engine.Address) == "" {
		return fmt.Errorf("engine.address is required")
	}

	if cfg.Voice.Enabled {
		if cfg.Voice.OpusDec == "" {
			cfg.Voice.OpusDec = "opusdec"
		}
		if cfg.Voice.ASRCommand == "" {
			return fmt.Errorf("voice.asr_command is required when voice is enabled")
		}
		if cfg.Voice.WorkDir == "" {
			cfg.Voice.WorkDir = "voice"
		}
	}

	allowed := map[string]struct{}{
		UpdateCallback: {},
		UpdateMessage:  {},
	}
	for i, v := range cfg.RateLimit.ExcludeUpdates {
		key := strings.ToLower(strings.TrimSpace(v))
		if key == "" {
			continue
		}
		if _, ok := allowed[key]; !ok {
			return fmt.Errorf("invalid rate_limit.exclude_updates value %q; allowed: callback, message", v)
		}
		cfg.RateLimit.ExcludeUpdates[i] = key
	}
	return nil
}
