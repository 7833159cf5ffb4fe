// Package config loads and saves persisted run defaults. The file lives in
// the project root and simply remembers the last-used choices; a missing or
// unreadable file is never an error.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// FileName is the per-project config file name.
const FileName = ".srcslice.toml"

// Config holds the persisted run defaults.
type Config struct {
	Entry    string   `toml:"entry"`
	Depth    int      `toml:"depth"`
	Output   string   `toml:"output"`
	Excludes []string `toml:"excludes,omitempty"`
}

// Default returns the defaults used when no config file exists.
func Default() Config {
	return Config{
		Depth:  3,
		Output: "slice.txt",
	}
}

// Load reads the config file under root, falling back to defaults for a
// missing or malformed file. Fields absent from the file keep their
// default values.
func Load(root string) Config {
	cfg := Default()
	if _, err := toml.DecodeFile(filepath.Join(root, FileName), &cfg); err != nil {
		return Default()
	}
	return cfg
}

// Save writes the config file under root.
func (c Config) Save(root string) error {
	f, err := os.Create(filepath.Join(root, FileName))
	if err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(c); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return nil
}
