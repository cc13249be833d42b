// Package config loads and validates the seance YAML configuration.
//
// Secrets are normally supplied through ${VAR} environment expansion
// rather than written into the file. Bridge timing knobs (poll_interval,
// chunk_delay) are duration strings; unset values fall back to the
// bridge package defaults.
package config
