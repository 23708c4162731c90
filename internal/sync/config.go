package sync

import "time"

// Config represents the timing configuration for background sync
type Config struct {
	// Interval between periodic reconciliations while signed in
	Interval time.Duration
	// Debounce delay after the last local mutation before syncing
	Debounce time.Duration
}

// DefaultConfig returns the default sync configuration
func DefaultConfig() *Config {
	return &Config{
		Interval: 60 * time.Second,
		Debounce: 2 * time.Second,
	}
}
