package engine

import "time"

const (
	DefaultActionTimeout  = 10 * time.Second
	DefaultMaxConcurrency = 8
)

// Config tunes how the engine runs executions.
type Config struct {
	// ActionTimeout bounds every executor call.
	ActionTimeout time.Duration
	// MaxConcurrency caps the executions run in parallel for one event.
	MaxConcurrency int
}

func DefaultConfig() Config {
	return Config{
		ActionTimeout:  DefaultActionTimeout,
		MaxConcurrency: DefaultMaxConcurrency,
	}
}

func (c Config) withDefaults() Config {
	if c.ActionTimeout <= 0 {
		c.ActionTimeout = DefaultActionTimeout
	}

	if c.MaxConcurrency <= 0 {
		c.MaxConcurrency = DefaultMaxConcurrency
	}

	return c
}
