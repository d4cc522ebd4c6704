// Package server holds the HTTP server configuration.
//
// While the main application entry point handles the server startup, this package
// defines the configuration structure and its validation.
//
// # Configuration
//
// The Config struct defines the listen address, the API key protecting the
// sync endpoints, whether /metrics is public, and the graceful shutdown bound.
//
// # Usage
//
// This package is primarily used by the core/config package to embed server settings
// and by the start command to bind the listener.
package server
