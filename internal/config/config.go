package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Config represents the application configuration
type Config struct {
	Athlete AthleteConfig `json:"athlete"`
	Dedup   DedupConfig   `json:"dedup"`
	Metrics MetricsConfig `json:"metrics"`
}

// AthleteConfig holds athlete-specific settings used for load computation
type AthleteConfig struct {
	ID        int64   `json:"id"`
	RestingHR float64 `json:"resting_hr"`
	MaxHR     float64 `json:"max_hr"`
}

// DedupConfig holds the duplicate-resolution tolerance policy. One policy
// applies to every call site.
type DedupConfig struct {
	TimeWindowMinutes        int     `json:"time_window_minutes"`
	DurationToleranceSeconds int     `json:"duration_tolerance_seconds"`
	DistanceToleranceMeters  float64 `json:"distance_tolerance_meters"`
}

// MetricsConfig holds the optional prometheus exposure settings
type MetricsConfig struct {
	ListenAddr string `json:"listen_addr"` // empty disables the listener
}

// ErrNoConfig is returned when the config file doesn't exist
var ErrNoConfig = errors.New("config file not found")

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		Athlete: AthleteConfig{
			ID:        1,
			RestingHR: 50,
			MaxHR:     185,
		},
		Dedup: DedupConfig{
			TimeWindowMinutes:        30,
			DurationToleranceSeconds: 120,
			DistanceToleranceMeters:  500,
		},
	}
}

// GetConfigDir returns the directory holding the config file
func GetConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".trainload"), nil
}

func getConfigPath() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the configuration from ~/.trainload/config.json
func Load() (*Config, error) {
	path, err := getConfigPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, ErrNoConfig
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Apply defaults for missing values
	defaults := DefaultConfig()
	if cfg.Athlete.ID == 0 {
		cfg.Athlete.ID = defaults.Athlete.ID
	}
	if cfg.Athlete.RestingHR == 0 {
		cfg.Athlete.RestingHR = defaults.Athlete.RestingHR
	}
	if cfg.Athlete.MaxHR == 0 {
		cfg.Athlete.MaxHR = defaults.Athlete.MaxHR
	}
	if cfg.Dedup.TimeWindowMinutes == 0 {
		cfg.Dedup.TimeWindowMinutes = defaults.Dedup.TimeWindowMinutes
	}
	if cfg.Dedup.DurationToleranceSeconds == 0 {
		cfg.Dedup.DurationToleranceSeconds = defaults.Dedup.DurationToleranceSeconds
	}
	if cfg.Dedup.DistanceToleranceMeters == 0 {
		cfg.Dedup.DistanceToleranceMeters = defaults.Dedup.DistanceToleranceMeters
	}

	return &cfg, nil
}

// Save writes the configuration to ~/.trainload/config.json
func Save(cfg *Config) error {
	path, err := getConfigPath()
	if err != nil {
		return err
	}

	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// CreateExample creates an example config file if none exists
func CreateExample() error {
	path, err := getConfigPath()
	if err != nil {
		return err
	}

	// Check if config already exists
	if _, err := os.Stat(path); err == nil {
		return nil // Config exists, don't overwrite
	}

	example := DefaultConfig()
	return Save(&example)
}

// Validate checks if the config is internally consistent
func (c *Config) Validate() error {
	if c.Athlete.ID <= 0 {
		return errors.New("athlete.id must be positive")
	}
	if c.Athlete.MaxHR <= c.Athlete.RestingHR {
		return errors.New("athlete.max_hr must be greater than athlete.resting_hr")
	}
	if c.Dedup.TimeWindowMinutes <= 0 {
		return errors.New("dedup.time_window_minutes must be positive")
	}
	if c.Dedup.DurationToleranceSeconds <= 0 {
		return errors.New("dedup.duration_tolerance_seconds must be positive")
	}
	if c.Dedup.DistanceToleranceMeters <= 0 {
		return errors.New("dedup.distance_tolerance_meters must be positive")
	}
	return nil
}
