package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/squadcal/squadcal/pkg/core/calendar"
)

const configFileName = "squadcal.yaml"

// AnchorConfig defines the financial-year sprint anchor
type AnchorConfig struct {
	Month   int    `yaml:"month" validate:"min=1,max=12"`
	Day     int    `yaml:"day" validate:"min=1,max=31"`
	Weekday string `yaml:"weekday" validate:"omitempty,oneof=Sunday Monday Tuesday Wednesday Thursday Friday Saturday"`
}

// GenerationConfig controls the forward schedule horizons
type GenerationConfig struct {
	HostingDays int    `yaml:"hostingDays" validate:"min=1"`
	Sprints     int    `yaml:"sprints" validate:"min=1"`
	CronSpec    string `yaml:"cronSpec"`
}

// Config represents the application configuration
type Config struct {
	DatabaseURL  string           `yaml:"databaseURL" validate:"required"`
	ListenAddr   string           `yaml:"listenAddr"`
	HolidayFile  string           `yaml:"holidayFile"`
	SprintAnchor AnchorConfig     `yaml:"sprintAnchor"`
	Generation   GenerationConfig `yaml:"generation"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Load loads and validates the configuration from squadcal.yaml,
// looking in the current directory first and then the user's home
// directory
func Load() (*Config, error) {
	configPath, err := findConfigFile()
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

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func defaults() *Config {
	return &Config{
		ListenAddr: ":8080",
		SprintAnchor: AnchorConfig{
			Month:   int(time.October),
			Day:     1,
			Weekday: time.Wednesday.String(),
		},
		Generation: GenerationConfig{
			HostingDays: 90,
			Sprints:     6,
			CronSpec:    "0 2 * * *",
		},
	}
}

// Validate validates the configuration struct
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	if _, err := ParseWeekday(cfg.SprintAnchor.Weekday); err != nil {
		return err
	}
	return nil
}

// Anchor converts the sprint anchor config into a calendar anchor
func (c *Config) Anchor() (calendar.Anchor, error) {
	weekday, err := ParseWeekday(c.SprintAnchor.Weekday)
	if err != nil {
		return calendar.Anchor{}, err
	}
	return calendar.Anchor{
		Month:   time.Month(c.SprintAnchor.Month),
		Day:     c.SprintAnchor.Day,
		Weekday: weekday,
	}, nil
}

// ParseWeekday converts a weekday name to its time.Weekday value
func ParseWeekday(name string) (time.Weekday, error) {
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		if wd.String() == name {
			return wd, nil
		}
	}
	return 0, fmt.Errorf("invalid weekday %q", name)
}

// findConfigFile searches for squadcal.yaml in the current directory
// and the user's home directory
func findConfigFile() (string, error) {
	if _, err := os.Stat(configFileName); err == nil {
		return configFileName, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	homeConfigPath := filepath.Join(homeDir, configFileName)
	if _, err := os.Stat(homeConfigPath); err == nil {
		return homeConfigPath, nil
	}

	return "", fmt.Errorf("config file not found in current directory or home directory")
}
