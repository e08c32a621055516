// Package config loads, normalizes, and validates Phonodex configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours the DISCOGS_TOKEN environment
// fallback. Always obtain settings through this package so downstream code
// receives sanitized paths, canonical log formats, and clear validation
// errors.
package config
