package server

import (
	"net/http"
	"net/url"
	"time"
)

// Config holds the HTTP service settings.
type Config struct {
	// Address is the listen address (default: ":8080").
	Address string

	// BodyLimit caps request bodies in bytes. Zero disables the limit.
	BodyLimit int64

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration

	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration

	// WriteWait is the deadline for a single event stream write.
	WriteWait time.Duration

	// PingInterval is how often event stream clients are pinged.
	PingInterval time.Duration

	// CheckOrigin validates the Origin of event stream upgrades.
	// Default: SameOriginCheck.
	CheckOrigin func(r *http.Request) bool
}

// DefaultConfig returns the default service configuration.
func DefaultConfig() Config {
	return Config{
		Address:           ":8080",
		BodyLimit:         10 << 20,
		ShutdownTimeout:   10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       120 * time.Second,
		WriteWait:         10 * time.Second,
		PingInterval:      30 * time.Second,
		CheckOrigin:       SameOriginCheck,
	}
}

// withDefaults fills zero durations and the origin check from DefaultConfig.
// BodyLimit and the read/write timeouts are taken as given.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Address == "" {
		c.Address = d.Address
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = d.ShutdownTimeout
	}
	if c.WriteWait <= 0 {
		c.WriteWait = d.WriteWait
	}
	if c.PingInterval <= 0 {
		c.PingInterval = d.PingInterval
	}
	if c.CheckOrigin == nil {
		c.CheckOrigin = d.CheckOrigin
	}
	return c
}

// SameOriginCheck accepts upgrades without an Origin header and those
// whose Origin host matches the request host.
func SameOriginCheck(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	originURL, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if r.Host == "" {
		return false
	}
	return originURL.Host == r.Host
}
