// Package project persists FoamNest files: the application config, saved
// jobs, the foam catalog, custom G-code profiles and sheet presets.
package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/piwi3910/FoamNest/internal/model"
)

// maxRecentJobs bounds AppConfig.RecentJobs.
const maxRecentJobs = 10

// DefaultConfigDir returns the default directory for application configuration.
// On all platforms this is ~/.foamnest/
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".foamnest")
}

// DefaultConfigPath returns the default path for the application config file.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.json")
}

// writeJSON marshals v with indentation and writes it to path, creating
// parent directories.
func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// SaveAppConfig persists an AppConfig to the given path as JSON.
// It creates any missing parent directories automatically.
func SaveAppConfig(path string, config model.AppConfig) error {
	return writeJSON(path, config)
}

// LoadAppConfig reads an AppConfig from the given path.
// If the file does not exist, it returns DefaultAppConfig with no error.
// Fields missing from the file keep their default values.
func LoadAppConfig(path string) (model.AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return model.DefaultAppConfig(), nil
		}
		return model.AppConfig{}, err
	}
	config := model.DefaultAppConfig()
	if err := json.Unmarshal(data, &config); err != nil {
		return model.AppConfig{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	if config.RecentJobs == nil {
		config.RecentJobs = []string{}
	}
	return config, nil
}

// AddRecentJob moves path to the front of the recent job list, keeping at
// most maxRecentJobs entries.
func AddRecentJob(config *model.AppConfig, path string) {
	recent := []string{path}
	for _, p := range config.RecentJobs {
		if p != path && len(recent) < maxRecentJobs {
			recent = append(recent, p)
		}
	}
	config.RecentJobs = recent
}

// CatalogPath returns the configured foam catalog path, or the default
// location inside DefaultConfigDir.
func CatalogPath(config model.AppConfig) string {
	if config.CatalogPath != "" {
		return config.CatalogPath
	}
	return filepath.Join(DefaultConfigDir(), "foam_types.json")
}
