// Package config loads and validates ingot's TOML configuration.
//
// Load resolves the config file (explicit flag, ~/.config/ingot/config.toml,
// or a project-local ingot.toml), overlays it on repository defaults,
// expands and normalizes every path field, and validates the result. Missing
// files are not an error; defaults alone are a working configuration.
package config
