package config

import (
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Athlete.RestingHR != 50 {
		t.Errorf("Athlete.RestingHR = %v, want 50", cfg.Athlete.RestingHR)
	}
	if cfg.Athlete.MaxHR != 185 {
		t.Errorf("Athlete.MaxHR = %v, want 185", cfg.Athlete.MaxHR)
	}

	if cfg.Dedup.TimeWindowMinutes != 30 {
		t.Errorf("Dedup.TimeWindowMinutes = %v, want 30", cfg.Dedup.TimeWindowMinutes)
	}
	if cfg.Dedup.DurationToleranceSeconds != 120 {
		t.Errorf("Dedup.DurationToleranceSeconds = %v, want 120", cfg.Dedup.DurationToleranceSeconds)
	}
	if cfg.Dedup.DistanceToleranceMeters != 500 {
		t.Errorf("Dedup.DistanceToleranceMeters = %v, want 500", cfg.Dedup.DistanceToleranceMeters)
	}

	// Metrics exposure is opt-in
	if cfg.Metrics.ListenAddr != "" {
		t.Errorf("Metrics.ListenAddr should be empty, got %q", cfg.Metrics.ListenAddr)
	}
}

func TestConfigValidate(t *testing.T) {
	valid := DefaultConfig()

	tests := []struct {
		name        string
		mutate      func(*Config)
		errContains string
	}{
		{
			name:   "valid config",
			mutate: func(c *Config) {},
		},
		{
			name:        "missing athlete id",
			mutate:      func(c *Config) { c.Athlete.ID = 0 },
			errContains: "athlete.id",
		},
		{
			name:        "max HR below resting HR",
			mutate:      func(c *Config) { c.Athlete.MaxHR = 40 },
			errContains: "max_hr",
		},
		{
			name:        "zero time window",
			mutate:      func(c *Config) { c.Dedup.TimeWindowMinutes = 0 },
			errContains: "time_window",
		},
		{
			name:        "negative distance tolerance",
			mutate:      func(c *Config) { c.Dedup.DistanceToleranceMeters = -1 },
			errContains: "distance_tolerance",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.errContains == "" {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Validate() = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.errContains) {
				t.Errorf("Validate() = %q, want it to mention %q", err, tt.errContains)
			}
		})
	}
}
