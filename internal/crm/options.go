package crm

import "time"

type serviceConfig struct {
	now func() time.Time
}

// Option configures a service.
type Option func(*serviceConfig)

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *serviceConfig) {
		c.now = now
	}
}

func newServiceConfig(opts []Option) serviceConfig {
	cfg := serviceConfig{now: time.Now}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}
