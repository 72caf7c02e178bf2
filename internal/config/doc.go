// Package config loads, normalizes, and validates subvoice configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, loads a .env file when present, and honours
// environment fallbacks such as PYANNOTE_API_KEY and OPENROUTER_API_KEY.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical backends, and clear validation errors.
package config
