package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
	"github.com/teambition/rrule-go"
	"gopkg.in/yaml.v3"
)

const (
	DefaultListen       = ":8080"
	DefaultTimezone     = "Europe/Paris"
	DefaultModel        = "gemini-2.5-flash"
	DefaultGenAITimeout = 30 * time.Second
	DefaultSessionTTL   = 12 * time.Hour
	DefaultExportWeeks  = 2

	// APIKeyEnv is read when genai.apiKey is not set in the file
	APIKeyEnv = "API_KEY"
)

// GenAIConfig configures the generative interpretation service.
// An empty API key disables slot generation and voice commands.
type GenAIConfig struct {
	APIKey  string        `yaml:"apiKey,omitempty"`
	Model   string        `yaml:"model,omitempty"`
	BaseURL string        `yaml:"baseURL,omitempty" validate:"omitempty,url"`
	Timeout time.Duration `yaml:"timeout,omitempty" validate:"gte=0"`
}

// RedisConfig configures the session store; an empty address keeps sessions in memory
type RedisConfig struct {
	Addr     string `yaml:"addr,omitempty" validate:"omitempty,hostname_port"`
	Password string `yaml:"password,omitempty"`
	DB       int    `yaml:"db,omitempty" validate:"gte=0"`
}

type SessionConfig struct {
	TTL time.Duration `yaml:"ttl,omitempty" validate:"gte=0"`
}

// ExportConfig configures the scheduled export; an empty schedule disables it
type ExportConfig struct {
	Schedule   string `yaml:"schedule,omitempty"`
	Directory  string `yaml:"directory,omitempty" validate:"required_with=Schedule"`
	Weeks      int    `yaml:"weeks,omitempty" validate:"gte=0"`
	Recurrence string `yaml:"recurrence,omitempty"`
}

// SheetsConfig configures publication to Google Sheets
type SheetsConfig struct {
	SpreadsheetID   string `yaml:"spreadsheetID,omitempty"`
	CredentialsFile string `yaml:"credentialsFile,omitempty" validate:"required_with=SpreadsheetID"`
	// VolunteersRange is the A1 range volunteer names are imported from
	VolunteersRange string `yaml:"volunteersRange,omitempty"`
}

// Config represents the application configuration
type Config struct {
	DatabaseURL string        `yaml:"databaseURL" validate:"required"`
	Timezone    string        `yaml:"timezone,omitempty"`
	Listen      string        `yaml:"listen,omitempty"`
	GenAI       GenAIConfig   `yaml:"genai,omitempty"`
	Redis       RedisConfig   `yaml:"redis,omitempty"`
	Session     SessionConfig `yaml:"session,omitempty"`
	Export      ExportConfig  `yaml:"export,omitempty"`
	Sheets      SheetsConfig  `yaml:"sheets,omitempty"`

	location *time.Location
}

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Load loads and validates the configuration from planning_config.yaml
// It looks for the config file in the current directory first, then in the user's home directory
func Load() (*Config, error) {
	return LoadWithEnv("")
}

// LoadWithEnv prefers planning_config.<env>.yaml over planning_config.yaml
func LoadWithEnv(env string) (*Config, error) {
	names := []string{"planning_config.yaml"}
	if env != "" {
		names = append([]string{fmt.Sprintf("planning_config.%s.yaml", env)}, names...)
	}

	configPath, err := findConfigFile(names)
	if err != nil {
		return nil, fmt.Errorf("failed to find config file: %w", err)
	}

	return LoadFromPath(configPath)
}

// LoadFromPath loads and validates the configuration from a specific path
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if cfg.GenAI.APIKey == "" {
		cfg.GenAI.APIKey = os.Getenv(APIKeyEnv)
	}
	cfg.applyDefaults()

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Timezone == "" {
		c.Timezone = DefaultTimezone
	}
	if c.Listen == "" {
		c.Listen = DefaultListen
	}
	if c.GenAI.Model == "" {
		c.GenAI.Model = DefaultModel
	}
	if c.GenAI.Timeout == 0 {
		c.GenAI.Timeout = DefaultGenAITimeout
	}
	if c.Session.TTL == 0 {
		c.Session.TTL = DefaultSessionTTL
	}
	if c.Export.Weeks == 0 {
		c.Export.Weeks = DefaultExportWeeks
	}
}

// Validate validates the configuration struct and checks timezone, cron and rrule syntax
func Validate(cfg *Config) error {
	// Run struct validation
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	timezone := cfg.Timezone
	if timezone == "" {
		timezone = DefaultTimezone
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return fmt.Errorf("invalid timezone %q: %w", timezone, err)
	}
	cfg.location = loc

	if cfg.Export.Schedule != "" {
		if _, err := cron.ParseStandard(cfg.Export.Schedule); err != nil {
			return fmt.Errorf("invalid cron schedule in export.schedule: %w", err)
		}
	}

	if cfg.Export.Recurrence != "" {
		if _, err := rrule.StrToRRule(cfg.Export.Recurrence); err != nil {
			return fmt.Errorf("invalid rrule in export.recurrence: %w", err)
		}
	}

	return nil
}

// Location returns the configured timezone; valid after Validate
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.Local
	}
	return c.location
}

// findConfigFile searches for the first of names in current directory and home directory
func findConfigFile(names []string) (string, error) {
	// Check current directory
	for _, name := range names {
		if _, err := os.Stat(name); err == nil {
			return name, nil
		}
	}

	// Check home directory
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	for _, name := range names {
		homeConfigPath := filepath.Join(homeDir, name)
		if _, err := os.Stat(homeConfigPath); err == nil {
			return homeConfigPath, nil
		}
	}

	return "", fmt.Errorf("config file not found in current directory or home directory")
}
