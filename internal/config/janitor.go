package config

import "time"

// JanitorConfig controls the paid-to-completed close job.
type JanitorConfig struct {
	// DwellPeriod is how long an order rests in "paid" before it is closed.
	DwellPeriod time.Duration `yaml:"dwell_period"`
	BatchLimit  int           `yaml:"batch_limit"`
}

const defaultDwellPeriod = 7 * 24 * time.Hour

func (c *JanitorConfig) ApplyDefaults() {
	if c.DwellPeriod <= 0 {
		c.DwellPeriod = defaultDwellPeriod
	}
}
