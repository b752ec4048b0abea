package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"outreach/internal/domain"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is the root configuration for outreach. All values come from the
// environment (a .env file is merged in first when present) and are
// immutable after Load.
type Config struct {
	CCAI     CCAIConfig
	Sender   SenderConfig
	AWS      AWSConfig
	LinkedIn LinkedInConfig
	Model    ModelConfig
	Browser  BrowserConfig
	Cache    CacheConfig
	Telegram TelegramConfig

	// ScheduleLead is how far in the future dispatched campaigns are
	// scheduled on the remote side.
	ScheduleLead time.Duration `env:"OUTREACH_SCHEDULE_LEAD" envDefault:"2m"`
}

// CCAIConfig holds the outbound email API credentials and endpoint.
type CCAIConfig struct {
	APIKey    string `env:"CCAI_API_KEY"`
	ClientID  string `env:"CCAI_CLIENT_ID"`
	EmailURL  string `env:"CCAI_EMAIL_URL"`
	AccountID string `env:"CCAI_ACCOUNT_ID" envDefault:"1223"`
}

// SenderConfig is the outbound sender identity used in campaign payloads
// and email signatures.
type SenderConfig struct {
	Email      string `env:"SENDER_EMAIL"`
	Name       string `env:"SENDER_NAME"`
	Title      string `env:"SENDER_TITLE"`
	Phone      string `env:"SENDER_PHONE"`
	LinkedIn   string `env:"SENDER_LINKEDIN"`
	Company    string `env:"SENDER_COMPANY"`
	CompanyURL string `env:"SENDER_COMPANY_URL"`
	Address    string `env:"SENDER_ADDRESS"`
}

type AWSConfig struct {
	Region          string `env:"AWS_REGION" envDefault:"us-east-1"`
	Profile         string `env:"AWS_PROFILE"`
	AccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`
	SecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY"`
}

// LinkedInConfig holds scraper authentication. A session cookie (li_at)
// takes precedence over username/password login.
type LinkedInConfig struct {
	SessionCookie string `env:"LINKEDIN_SESSION_COOKIE"`
	Username      string `env:"LINKEDIN_USERNAME"`
	Password      string `env:"LINKEDIN_PASSWORD"`
}

type ModelConfig struct {
	ID           string  `env:"OUTREACH_MODEL_ID" envDefault:"us.amazon.nova-pro-v1:0"`
	MaxTokens    int     `env:"OUTREACH_MAX_TOKENS" envDefault:"400"`
	Temperature  float64 `env:"OUTREACH_TEMPERATURE" envDefault:"0.7"`
	TemplateFile string  `env:"OUTREACH_TEMPLATES"`
}

type BrowserConfig struct {
	Headless   bool   `env:"OUTREACH_HEADLESS" envDefault:"true"`
	ProfileDir string `env:"OUTREACH_CHROME_PROFILE"`
}

type CacheConfig struct {
	DBPath string        `env:"OUTREACH_CACHE_DB" envDefault:"outreach.db"`
	TTL    time.Duration `env:"OUTREACH_CACHE_TTL" envDefault:"168h"`
}

type TelegramConfig struct {
	BotToken string `env:"TELEGRAM_BOT_TOKEN"`
	ChatID   int64  `env:"TELEGRAM_CHAT_ID"`
}

// Load reads the .env file at envPath (default ".env"; a missing file is
// fine) and parses the environment into a Config. Required keys are checked
// by Validate before any network call happens.
func Load(envPath string) (*Config, error) {
	if envPath == "" {
		envPath = ".env"
	}
	if err := godotenv.Load(envPath); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load %s: %w", envPath, err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if cfg.Browser.ProfileDir == "" {
		home, err := os.UserHomeDir()
		if err == nil {
			cfg.Browser.ProfileDir = filepath.Join(home, ".outreach", "chrome-profile")
		} else {
			cfg.Browser.ProfileDir = ".outreach-chrome"
		}
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the keys every command needs. Returns a
// *domain.ConfigError naming each missing key.
func Validate(cfg *Config) error {
	var missing []string
	if cfg.CCAI.APIKey == "" {
		missing = append(missing, "CCAI_API_KEY")
	}
	if cfg.CCAI.ClientID == "" {
		missing = append(missing, "CCAI_CLIENT_ID")
	}
	if cfg.CCAI.EmailURL == "" {
		missing = append(missing, "CCAI_EMAIL_URL")
	}
	if len(missing) > 0 {
		return &domain.ConfigError{Missing: missing}
	}
	if cfg.ScheduleLead < 0 {
		return fmt.Errorf("OUTREACH_SCHEDULE_LEAD must not be negative")
	}
	if cfg.Model.MaxTokens < 1 {
		return fmt.Errorf("OUTREACH_MAX_TOKENS must be >= 1")
	}
	return nil
}

// ValidateSender checks the identity keys needed by dispatching commands.
func ValidateSender(cfg *Config) error {
	var missing []string
	if cfg.Sender.Email == "" {
		missing = append(missing, "SENDER_EMAIL")
	}
	if cfg.Sender.Name == "" {
		missing = append(missing, "SENDER_NAME")
	}
	if len(missing) > 0 {
		return &domain.ConfigError{Missing: missing}
	}
	return nil
}

// ValidateLinkedIn checks that at least one scraper auth method is present.
func ValidateLinkedIn(cfg *Config) error {
	if cfg.LinkedIn.SessionCookie != "" {
		return nil
	}
	if cfg.LinkedIn.Username != "" && cfg.LinkedIn.Password != "" {
		return nil
	}
	return &domain.ConfigError{Missing: []string{"LINKEDIN_SESSION_COOKIE or LINKEDIN_USERNAME+LINKEDIN_PASSWORD"}}
}

// EmailBase returns the email endpoint without a trailing slash.
func (c CCAIConfig) EmailBase() string {
	return strings.TrimRight(c.EmailURL, "/")
}
