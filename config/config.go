// Package config defines Endpoint's typed, defaulted configuration
// and the functional options used to override individual fields.
package config

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Config holds every tunable the endpoint reads at Bind time.
type Config struct {
	// Address is the local bind address:port.
	Address string

	// BufferSize bounds the max decoded datagram bytes.
	BufferSize int

	// ReadTimeout is the socket read budget per poll.
	ReadTimeout time.Duration

	// AckInterval is the minimum per-record retry spacing.
	AckInterval time.Duration

	// AckLoopInterval is the retransmit-loop period.
	AckLoopInterval time.Duration

	// MaxAckAttempts is the retry budget before giving up.
	MaxAckAttempts int

	// MaxPacketBacklog bounds the per-connection inbound queue.
	MaxPacketBacklog int

	// Registry is where Prometheus instruments are registered. Nil
	// means "use a private registry" (see metrics.NewSet).
	Registry *prometheus.Registry
}

// Default returns the documented default configuration for the given
// local bind address; every other field takes its documented default.
func Default(address string) Config {
	return Config{
		Address:          address,
		BufferSize:       8192,
		ReadTimeout:      time.Second,
		AckInterval:      200 * time.Millisecond,
		AckLoopInterval:  time.Second,
		MaxAckAttempts:   20,
		MaxPacketBacklog: 32,
	}
}

// Option overrides a single field on a Config produced by Default.
type Option func(*Config)

// WithBufferSize overrides BufferSize.
func WithBufferSize(n int) Option {
	return func(c *Config) { c.BufferSize = n }
}

// WithReadTimeout overrides ReadTimeout.
func WithReadTimeout(d time.Duration) Option {
	return func(c *Config) { c.ReadTimeout = d }
}

// WithAckInterval overrides AckInterval.
func WithAckInterval(d time.Duration) Option {
	return func(c *Config) { c.AckInterval = d }
}

// WithAckLoopInterval overrides AckLoopInterval.
func WithAckLoopInterval(d time.Duration) Option {
	return func(c *Config) { c.AckLoopInterval = d }
}

// WithMaxAckAttempts overrides MaxAckAttempts.
func WithMaxAckAttempts(n int) Option {
	return func(c *Config) { c.MaxAckAttempts = n }
}

// WithMaxPacketBacklog overrides MaxPacketBacklog.
func WithMaxPacketBacklog(n int) Option {
	return func(c *Config) { c.MaxPacketBacklog = n }
}

// WithRegistry overrides Registry.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(c *Config) { c.Registry = reg }
}

// New builds a Config starting from Default(address) and applying
// opts in order.
func New(address string, opts ...Option) Config {
	c := Default(address)
	for _, opt := range opts {
		opt(&c)
	}
	return c
}
