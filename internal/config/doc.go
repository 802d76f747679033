// Package config loads, normalizes, and validates trickplay configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours the TRICKPLAY_CONFIG environment
// fallback. The Config type centralizes every knob the CLI and daemon need,
// allowing library/data/staging directories and tile geometry to be discovered
// in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
