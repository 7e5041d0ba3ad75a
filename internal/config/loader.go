package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"apparray/pkg/logging"
)

const (
	userConfigDir  = ".config/apparray"
	configFileName = "config.yaml"
	dataDirName    = "data"
)

// osUserHomeDir is replaced in tests.
var osUserHomeDir = os.UserHomeDir

// GetDefaultConfigPath returns ~/.config/apparray.
func GetDefaultConfigPath() (string, error) {
	homeDir, err := osUserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine user config directory: %w", err)
	}
	return filepath.Join(homeDir, userConfigDir), nil
}

// LoadConfig loads config.yaml from configPath on top of the defaults and
// resolves relative paths against configPath.
func LoadConfig(configPath string) (AppArrayConfig, error) {
	configFilePath := filepath.Join(configPath, configFileName)
	config := GetDefaultConfig()

	data, err := os.ReadFile(configFilePath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		logging.Info("ConfigLoader", "No config.yaml found at %s, using defaults", configFilePath)
	case err != nil:
		return AppArrayConfig{}, fmt.Errorf("error reading config from %s: %w", configFilePath, err)
	default:
		if err := yaml.Unmarshal(data, &config); err != nil {
			return AppArrayConfig{}, fmt.Errorf("error loading config from %s: %w", configFilePath, err)
		}
		logging.Info("ConfigLoader", "Loaded configuration from %s", configFilePath)
	}

	config.Cache.Path = resolvePath(configPath, config.Cache.Path)
	if config.Cache.Path == "" {
		config.Cache.Path = filepath.Join(configPath, dataDirName)
	}
	config.Topology.File = resolvePath(configPath, config.Topology.File)

	if err := config.Validate(); err != nil {
		return AppArrayConfig{}, fmt.Errorf("invalid config %s: %w", configFilePath, err)
	}
	return config, nil
}

// resolvePath expands a leading ~ and makes relative paths relative to base.
func resolvePath(base, p string) string {
	if p == "" {
		return ""
	}
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := osUserHomeDir(); err == nil {
			p = filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(base, p)
}
