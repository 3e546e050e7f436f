package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete voicedesk configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	LLM     LLMConfig     `yaml:"llm"`
	SMTP    SMTPConfig    `yaml:"smtp"`
	Session SessionConfig `yaml:"session"`
	Filler  FillerConfig  `yaml:"filler"`
	KB      KBConfig      `yaml:"kb"`
	Log     LogConfig     `yaml:"log"`
}

// ServerConfig configures the websocket gateway.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	// UtterancesPerMinute caps inbound turns per connection.
	UtterancesPerMinute int `yaml:"utterances_per_minute"`
}

// LLMConfig configures the upstream language-model collaborator.
type LLMConfig struct {
	APIKey          string        `yaml:"api_key"`
	BaseURL         string        `yaml:"base_url"`
	ChatModel       string        `yaml:"chat_model"`
	ClassifierModel string        `yaml:"classifier_model"`
	Timeout         time.Duration `yaml:"timeout"`
}

// SMTPConfig configures the email notification collaborator.
type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

// SessionConfig configures per-call session behaviour.
type SessionConfig struct {
	// JournalPath is the append-only JSONL file for completed sessions.
	JournalPath string `yaml:"journal_path"`
	Greeting    string `yaml:"greeting"`
}

// FillerConfig configures the thinking-audio side channel.
type FillerConfig struct {
	Dir   string        `yaml:"dir"`
	Count int           `yaml:"count"`
	Delay time.Duration `yaml:"delay"`
}

// KBConfig configures the markdown knowledge base.
type KBConfig struct {
	Dir string `yaml:"dir"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:                ":8080",
			ReadTimeout:         30 * time.Second,
			WriteTimeout:        30 * time.Second,
			ShutdownTimeout:     10 * time.Second,
			UtterancesPerMinute: 60,
		},
		LLM: LLMConfig{
			ChatModel:       "gpt-4o",
			ClassifierModel: "gpt-4o-mini",
			Timeout:         30 * time.Second,
		},
		SMTP: SMTPConfig{
			Host: "smtp.gmail.com",
			Port: 465,
		},
		Session: SessionConfig{
			JournalPath: "voicedesk_sessions.jsonl",
			Greeting:    "Hello, you have reached the voicedesk front desk. How can I help you today?",
		},
		Filler: FillerConfig{
			Dir:   "audio",
			Count: 32,
			Delay: time.Second,
		},
		KB: KBConfig{
			Dir: "info",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Loader loads configuration with defaults, file, and env precedence.
type Loader struct {
	configPath string
	envPrefix  string
}

// NewLoader creates a loader with the default env prefix.
func NewLoader() *Loader {
	return &Loader{envPrefix: "VOICEDESK"}
}

// WithConfigPath sets the YAML file path. A missing file is not an error;
// defaults and env overrides still apply.
func (l *Loader) WithConfigPath(path string) *Loader {
	l.configPath = path
	return l
}

// WithEnvPrefix overrides the environment variable prefix.
func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

// Load resolves the effective configuration.
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	if l.configPath != "" {
		data, err := os.ReadFile(l.configPath)
		switch {
		case os.IsNotExist(err):
			// fall through to env overrides
		case err != nil:
			return nil, fmt.Errorf("read config %s: %w", l.configPath, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", l.configPath, err)
			}
		}
	}

	l.applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (l *Loader) applyEnv(cfg *Config) {
	l.envString("SERVER_ADDR", &cfg.Server.Addr)
	l.envInt("SERVER_UTTERANCES_PER_MINUTE", &cfg.Server.UtterancesPerMinute)
	l.envString("LLM_API_KEY", &cfg.LLM.APIKey)
	l.envString("LLM_BASE_URL", &cfg.LLM.BaseURL)
	l.envString("LLM_CHAT_MODEL", &cfg.LLM.ChatModel)
	l.envString("LLM_CLASSIFIER_MODEL", &cfg.LLM.ClassifierModel)
	l.envString("SMTP_HOST", &cfg.SMTP.Host)
	l.envInt("SMTP_PORT", &cfg.SMTP.Port)
	l.envString("SMTP_USER", &cfg.SMTP.User)
	l.envString("SMTP_PASSWORD", &cfg.SMTP.Password)
	l.envString("SMTP_FROM", &cfg.SMTP.From)
	l.envString("SESSION_JOURNAL_PATH", &cfg.Session.JournalPath)
	l.envString("KB_DIR", &cfg.KB.Dir)
	l.envString("LOG_LEVEL", &cfg.Log.Level)
	l.envString("LOG_FORMAT", &cfg.Log.Format)

	// Bare OPENAI_API_KEY works too, matching common deployments.
	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
	}
}

func (l *Loader) envString(key string, dst *string) {
	if v, ok := os.LookupEnv(l.envPrefix + "_" + key); ok && v != "" {
		*dst = v
	}
}

func (l *Loader) envInt(key string, dst *int) {
	if v, ok := os.LookupEnv(l.envPrefix + "_" + key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

// Validate checks invariants that would otherwise surface as silent
// misbehaviour at runtime.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr must not be empty")
	}
	if c.Server.UtterancesPerMinute <= 0 {
		return fmt.Errorf("server.utterances_per_minute must be positive, got %d", c.Server.UtterancesPerMinute)
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug/info/warn/error, got %q", c.Log.Level)
	}
	return nil
}
