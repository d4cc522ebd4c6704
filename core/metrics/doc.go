// Package metrics exposes Prometheus instrumentation for sync runs.
//
// Collectors live on a dedicated Registry rather than the global default so
// tests can inspect them without interference. Call Register once at startup
// and mount Handler on the HTTP server.
package metrics
