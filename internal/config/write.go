package config

import (
	_ "embed"
	"os"
	"path/filepath"
)

//go:embed default_config.toml
var defaultConfig string

// WriteDefault writes the commented example config to the specified
// path, creating parent directories if needed.
func WriteDefault(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(defaultConfig), 0644)
}
