// Package config provides configuration management for unisync.
//
// It utilizes Viper for loading configuration from an optional config.yaml,
// environment variables and a .env file (godotenv).
//
// # Configuration Structure
//
// The Config struct is the central repository for all application settings, divided into subsections:
//   - Server: HTTP server settings (address, API key)
//   - Database: MySQL, PostgreSQL or SQLite connection details
//   - Storage: S3/MinIO credentials and snapshot bucket
//   - Archive: Whether fetched records are archived, and the key prefix
//   - Log: Logging level and format
//   - Sync: Timeouts, retry policy, parallelism and schedule
//   - Institutions: The configured sources (config.yaml only)
//
// Scalar values carry their defaults in `default` struct tags; every such key
// can be overridden by an environment variable (SYNC_MAX_PARALLEL overrides
// sync.max_parallel).
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Sync.MaxParallel)
package config
