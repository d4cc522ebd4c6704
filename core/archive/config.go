package archive

// Config holds snapshot archiving settings.
type Config struct {
	// Enabled turns on archiving of fetched records.
	Enabled bool `mapstructure:"enabled" default:"false"`
	// Prefix is prepended to every object key.
	Prefix string `mapstructure:"prefix" default:"snapshots"`
}
