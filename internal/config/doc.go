// Package config loads TOML settings with environment variable
// substitution and sensible defaults for every knob.
package config
