package modem

import (
	"context"
	"log/slog"
	"time"
)

const (
	// DefaultResponseTimeout bounds how long Send collects response lines.
	DefaultResponseTimeout = 2 * time.Second
	// DefaultSettleDelay is waited after opening the transport, giving
	// modules time to stabilise after DTR/RTS assertion.
	DefaultSettleDelay = 200 * time.Millisecond
)

type Config struct {
	dialer          Dialer
	responseTimeout time.Duration
	settleDelay     time.Duration
	logger          *slog.Logger
	sleep           SleepFunc
}

// SleepFunc pauses for d or until ctx is done, returning ctx.Err() in the
// latter case.
type SleepFunc func(ctx context.Context, d time.Duration) error

func (c *Config) validate() error {
	if c.dialer == nil {
		return ErrNoDialer
	}
	return nil
}

func (c *Config) setDefaults() {
	if c.responseTimeout == 0 {
		c.responseTimeout = DefaultResponseTimeout
	}
	if c.settleDelay == 0 {
		c.settleDelay = DefaultSettleDelay
	}
	if c.logger == nil {
		c.logger = slog.New(slog.DiscardHandler)
	}
	if c.sleep == nil {
		c.sleep = sleep
	}
}

// ConfigBuilder assembles a Config step by step.
type ConfigBuilder struct {
	config Config
}

func NewConfigBuilder() *ConfigBuilder {
	return &ConfigBuilder{}
}

func (b *ConfigBuilder) WithDialer(d Dialer) *ConfigBuilder {
	b.config.dialer = d
	return b
}

// WithResponseTimeout sets how long a single command may keep returning
// lines before Send gives up on it.
func (b *ConfigBuilder) WithResponseTimeout(d time.Duration) *ConfigBuilder {
	b.config.responseTimeout = d
	return b
}

// WithSettleDelay sets the pause after the transport is opened. A negative
// value disables it.
func (b *ConfigBuilder) WithSettleDelay(d time.Duration) *ConfigBuilder {
	b.config.settleDelay = d
	return b
}

func (b *ConfigBuilder) WithLogger(l *slog.Logger) *ConfigBuilder {
	b.config.logger = l
	return b
}

// WithSleep replaces the function used for the fixed pauses between
// commands. The response timeout of an exchange is not affected.
func (b *ConfigBuilder) WithSleep(fn SleepFunc) *ConfigBuilder {
	b.config.sleep = fn
	return b
}

// Build validates the collected settings and fills in defaults.
func (b *ConfigBuilder) Build() (Config, error) {
	c := b.config
	if err := c.validate(); err != nil {
		return Config{}, err
	}
	c.setDefaults()
	return c, nil
}
