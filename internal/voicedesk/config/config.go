// Package config loads the voicedeskd configuration.
//
// Settings come from an optional YAML file, then environment variables with
// the VOICEDESK_ prefix override individual values.  The environment always
// wins, which keeps container deployments simple: ship one config file and
// override secrets at runtime.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/bdobrica/voicedesk/common/environment"
)

// Config is the full daemon configuration.
type Config struct {
	Server  Server  `yaml:"server"`
	Log     Log     `yaml:"log"`
	NLU     NLU     `yaml:"nlu"`
	Mgmt    Mgmt    `yaml:"mgmt"`
	Session Session `yaml:"session"`
	Notify  Notify  `yaml:"notify"`
	Dialog  Dialog  `yaml:"dialog"`
}

// Server configures the HTTP listener.
type Server struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string `yaml:"addr"`
	// WebhookSecret enables HMAC verification of inbound envelopes.
	// Empty disables verification (development only).
	WebhookSecret string `yaml:"webhook_secret"`
}

// Log configures structured logging.
type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// NLU configures the conversational engine client.
type NLU struct {
	BaseURL     string        `yaml:"base_url"`
	Username    string        `yaml:"username"`
	Password    string        `yaml:"password"`
	WorkspaceID string        `yaml:"workspace_id"`
	Timeout     time.Duration `yaml:"timeout"`
}

// Mgmt configures the system-management API client.  An empty BaseURL is a
// supported degraded mode.
type Mgmt struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// Session configures context persistence.
type Session struct {
	// Backend selects the store: "sqlite" (default) or "redis".
	Backend    string        `yaml:"backend"`
	SQLitePath string        `yaml:"sqlite_path"`
	RedisURL   string        `yaml:"redis_url"`
	RedisTTL   time.Duration `yaml:"redis_ttl"`
}

// Notify configures verification-code delivery.
type Notify struct {
	SMSBaseURL string `yaml:"sms_base_url"`
	SMSAPIKey  string `yaml:"sms_api_key"`
	SMSSender  string `yaml:"sms_sender"`

	MailBaseURL string `yaml:"mail_base_url"`
	MailAPIKey  string `yaml:"mail_api_key"`
	MailFrom    string `yaml:"mail_from"`

	// CodeSubject is the subject line for emailed verification codes.
	CodeSubject string `yaml:"code_subject"`
}

// Dialog configures utterance handling and reply presentation.
type Dialog struct {
	// WakePhrase is stripped from the front of raw utterances.
	WakePhrase string `yaml:"wake_phrase"`
	// AudioURL and AudioToken configure the audio directive attached to
	// system age replies.  Empty AudioURL disables the directive.
	AudioURL   string `yaml:"audio_url"`
	AudioToken string `yaml:"audio_token"`
}

// Default returns the built-in defaults.
func Default() Config {
	return Config{
		Server: Server{Addr: ":8080"},
		Log:    Log{Level: "info", Format: "json"},
		NLU:    NLU{Timeout: 30 * time.Second},
		Mgmt:   Mgmt{Timeout: 15 * time.Second},
		Session: Session{
			Backend:    "sqlite",
			SQLitePath: "voicedesk.db",
			RedisTTL:   24 * time.Hour,
		},
		Notify: Notify{CodeSubject: "Voicedesk: Authentication code"},
	}
}

// Load builds the configuration from defaults, an optional YAML file, and
// environment overrides, then validates it.  path may be empty.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.applyEnvironment()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyEnvironment overlays VOICEDESK_* variables onto the configuration.
func (c *Config) applyEnvironment() {
	c.Server.Addr = environment.StringOr("VOICEDESK_SERVER_ADDR", c.Server.Addr)
	c.Server.WebhookSecret = environment.StringOr("VOICEDESK_WEBHOOK_SECRET", c.Server.WebhookSecret)

	c.Log.Level = environment.StringOr("VOICEDESK_LOG_LEVEL", c.Log.Level)
	c.Log.Format = environment.StringOr("VOICEDESK_LOG_FORMAT", c.Log.Format)

	c.NLU.BaseURL = environment.StringOr("VOICEDESK_NLU_URL", c.NLU.BaseURL)
	c.NLU.Username = environment.StringOr("VOICEDESK_NLU_USERNAME", c.NLU.Username)
	c.NLU.Password = environment.StringOr("VOICEDESK_NLU_PASSWORD", c.NLU.Password)
	c.NLU.WorkspaceID = environment.StringOr("VOICEDESK_NLU_WORKSPACE", c.NLU.WorkspaceID)
	c.NLU.Timeout = environment.DurationOr("VOICEDESK_NLU_TIMEOUT", c.NLU.Timeout)

	c.Mgmt.BaseURL = environment.StringOr("VOICEDESK_MGMT_URL", c.Mgmt.BaseURL)
	c.Mgmt.Timeout = environment.DurationOr("VOICEDESK_MGMT_TIMEOUT", c.Mgmt.Timeout)

	c.Session.Backend = environment.StringOr("VOICEDESK_SESSION_BACKEND", c.Session.Backend)
	c.Session.SQLitePath = environment.StringOr("VOICEDESK_SQLITE_PATH", c.Session.SQLitePath)
	c.Session.RedisURL = environment.StringOr("VOICEDESK_REDIS_URL", c.Session.RedisURL)
	c.Session.RedisTTL = environment.DurationOr("VOICEDESK_REDIS_TTL", c.Session.RedisTTL)

	c.Notify.SMSBaseURL = environment.StringOr("VOICEDESK_SMS_URL", c.Notify.SMSBaseURL)
	c.Notify.SMSAPIKey = environment.StringOr("VOICEDESK_SMS_API_KEY", c.Notify.SMSAPIKey)
	c.Notify.SMSSender = environment.StringOr("VOICEDESK_SMS_SENDER", c.Notify.SMSSender)
	c.Notify.MailBaseURL = environment.StringOr("VOICEDESK_MAIL_URL", c.Notify.MailBaseURL)
	c.Notify.MailAPIKey = environment.StringOr("VOICEDESK_MAIL_API_KEY", c.Notify.MailAPIKey)
	c.Notify.MailFrom = environment.StringOr("VOICEDESK_MAIL_FROM", c.Notify.MailFrom)
	c.Notify.CodeSubject = environment.StringOr("VOICEDESK_CODE_SUBJECT", c.Notify.CodeSubject)

	c.Dialog.WakePhrase = environment.StringOr("VOICEDESK_WAKE_PHRASE", c.Dialog.WakePhrase)
	c.Dialog.AudioURL = environment.StringOr("VOICEDESK_AUDIO_URL", c.Dialog.AudioURL)
	c.Dialog.AudioToken = environment.StringOr("VOICEDESK_AUDIO_TOKEN", c.Dialog.AudioToken)
}

// Validate checks the configuration for fatal misconfiguration.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return errors.New("config: server.addr is required")
	}
	if c.NLU.BaseURL == "" {
		return errors.New("config: nlu.base_url is required")
	}
	if c.NLU.WorkspaceID == "" {
		return errors.New("config: nlu.workspace_id is required")
	}
	switch c.Session.Backend {
	case "sqlite":
		if c.Session.SQLitePath == "" {
			return errors.New("config: session.sqlite_path is required for the sqlite backend")
		}
	case "redis":
		if c.Session.RedisURL == "" {
			return errors.New("config: session.redis_url is required for the redis backend")
		}
	default:
		return fmt.Errorf("config: unknown session backend %q", c.Session.Backend)
	}
	return nil
}
