// Package institutions assembles the source registry from configuration.
//
// Each configured institution names an adapter kind (ualberta or jsonfeed).
// NewRegistry builds one adapter per institution and registers it under the
// institution code. Without configuration the University of Alberta is
// registered with its defaults. Adding an institution with a new upstream
// format means adding an adapter package and one entry to the factory table.
package institutions
