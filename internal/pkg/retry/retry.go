package retry

import (
	"time"

	"github.com/avast/retry-go/v4"
)

const (
	defaultAttempts = 3
	defaultDelay    = 200 * time.Millisecond
	defaultMaxDelay = 5 * time.Second
)

// Config holds retry policy for calls to external services.
type Config struct {
	Attempts uint          `env:"ATTEMPTS" envDefault:"3"`
	Delay    time.Duration `env:"DELAY" envDefault:"200ms"`
	MaxDelay time.Duration `env:"MAX_DELAY" envDefault:"5s"`
}

// ToOptions converts the config into retry-go options. Context cancellation
// is honored between attempts.
func (c *Config) ToOptions() []retry.Option {
	return []retry.Option{
		retry.Attempts(c.Attempts),
		retry.Delay(c.Delay),
		retry.MaxDelay(c.MaxDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
	}
}

// DefaultConfig returns the policy used when nothing is configured.
func DefaultConfig() *Config {
	return &Config{
		Attempts: defaultAttempts,
		Delay:    defaultDelay,
		MaxDelay: defaultMaxDelay,
	}
}
