package config

import (
	"time"
)

type Option func(*Config)

func WithWriteTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.Server.WriteTimeout = d
	}
}

func WithHost(host string) Option {
	return func(c *Config) {
		c.Server.Host = host
	}
}
