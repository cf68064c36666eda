// Package config loads, normalizes, and validates Clipforge configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and computes effective per-channel processing
// settings via explicit merges that never mutate the global defaults.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
