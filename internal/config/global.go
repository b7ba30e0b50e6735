package config

import "github.com/BurntSushi/toml"

// Global represents ~/.wppbridge/config.toml, shared by every profile.
type Global struct {
	DefaultProfile string `toml:"default_profile"`
}

// LoadGlobal reads the global config. Returns an error if the file is missing.
func LoadGlobal(path string) (*Global, error) {
	var g Global
	if _, err := toml.DecodeFile(path, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

// SaveGlobal writes the global config with owner-only permissions.
func SaveGlobal(path string, g *Global) error {
	return writeTOML(path, g)
}
