package transport

import "time"

// Config defines optional I/O deadlines. Zero disables a deadline.
type Config struct {
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
}

// DefaultConfig bounds connect only; reads and writes block until the peer acts.
func DefaultConfig() Config {
	return Config{
		ConnectTimeout: 5 * time.Second,
	}
}

// WithDefaults clamps negative durations to zero.
func (c Config) WithDefaults() Config {
	if c.ConnectTimeout < 0 {
		c.ConnectTimeout = 0
	}
	if c.ReadTimeout < 0 {
		c.ReadTimeout = 0
	}
	if c.WriteTimeout < 0 {
		c.WriteTimeout = 0
	}
	return c
}

// deadline merges a per-operation timeout with the context deadline.
func deadline(ctxDeadline time.Time, hasCtx bool, timeout time.Duration) time.Time {
	var d time.Time
	if timeout > 0 {
		d = time.Now().Add(timeout)
	}
	if hasCtx && (d.IsZero() || ctxDeadline.Before(d)) {
		d = ctxDeadline
	}
	return d
}
