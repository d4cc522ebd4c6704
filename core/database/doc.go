// Package database handles database connections and schema inspection.
//
// It provides a wrapper around GORM to configure MySQL, PostgreSQL or SQLite
// connections from the application's configuration.
//
// # Connect
//
// Connect selects the dialector from Config.Driver, applies pool settings and
// verifies the connection with a bounded ping. SQLite connections are limited
// to a single open connection, which also keeps ":memory:" databases usable in
// tests.
//
// # Schema Inspection
//
// The catalog schema is owned outside this service. VerifySchema compares the
// live database against the GORM models and reports missing tables and
// columns, so a deployment against an outdated schema is caught at startup.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    log.Fatal("Database connection failed", err)
//	}
//
//	issues, err := database.VerifySchema(db, models.All()...)
package database
