package server

import (
	"errors"
	"strconv"
	"time"
)

// Config holds configuration for the HTTP server.
type Config struct {
	// Host is the interface to bind. Empty binds every interface.
	Host string `mapstructure:"host" default:""`
	// Port is the port where the server will listen.
	Port string `mapstructure:"port" default:"8080"`
	// ApiKey is the secret key required to access the API.
	ApiKey string `mapstructure:"api_key" default:""`
	// MetricsPublic exempts /metrics from the API key check.
	MetricsPublic bool `mapstructure:"metrics_public" default:"true"`
	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" default:"15s"`
}

// ErrInvalidPort is returned when Port is not a usable TCP port.
var ErrInvalidPort = errors.New("invalid server port")

// Validate checks the server settings.
func (c Config) Validate() error {
	p, err := strconv.Atoi(c.Port)
	if err != nil || p < 1 || p > 65535 {
		return ErrInvalidPort
	}
	return nil
}

// Address returns the listen address.
func (c Config) Address() string {
	return c.Host + ":" + c.Port
}
