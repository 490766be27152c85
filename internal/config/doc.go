// Package config loads, normalizes, and validates podenrich configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, loads a local .env file, and honours
// environment fallbacks such as OPENAI_API_KEY. The Config value is built once
// per invocation and passed explicitly into the pipeline; nothing in the
// repository reads configuration from package-level state.
package config
