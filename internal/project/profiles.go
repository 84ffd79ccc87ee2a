package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/piwi3910/FoamNest/internal/model"
)

// DefaultProfilesPath returns the default file path for custom G-code
// profiles, ~/.foamnest/profiles.json.
func DefaultProfilesPath() string {
	return filepath.Join(DefaultConfigDir(), "profiles.json")
}

// validateProfile rejects profiles the generator cannot emit code for.
func validateProfile(p model.GCodeProfile) error {
	if p.Name == "" {
		return errors.New("profile has no name")
	}
	if p.RapidMove == "" || p.FeedMove == "" {
		return fmt.Errorf("profile %q: rapid and feed move commands are required", p.Name)
	}
	if p.DecimalPlaces < 0 || p.DecimalPlaces > 6 {
		return fmt.Errorf("profile %q: decimal places must be 0-6, got %d", p.Name, p.DecimalPlaces)
	}
	return nil
}

// SaveCustomProfiles saves custom profiles to a JSON file.
func SaveCustomProfiles(path string, profiles []model.GCodeProfile) error {
	for _, p := range profiles {
		if err := validateProfile(p); err != nil {
			return err
		}
	}
	return writeJSON(path, profiles)
}

// LoadCustomProfiles loads custom profiles from a JSON file.
// Returns an empty slice if the file does not exist.
func LoadCustomProfiles(path string) ([]model.GCodeProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []model.GCodeProfile{}, nil
		}
		return nil, err
	}

	var profiles []model.GCodeProfile
	if err := json.Unmarshal(data, &profiles); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	for _, p := range profiles {
		if err := validateProfile(p); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	return profiles, nil
}

// ExportProfile exports a single profile to a JSON file for sharing.
func ExportProfile(path string, profile model.GCodeProfile) error {
	if err := validateProfile(profile); err != nil {
		return err
	}
	return writeJSON(path, profile)
}

// ImportProfile reads a single profile from a JSON file.
func ImportProfile(path string) (model.GCodeProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.GCodeProfile{}, err
	}

	var profile model.GCodeProfile
	if err := json.Unmarshal(data, &profile); err != nil {
		return model.GCodeProfile{}, err
	}
	if err := validateProfile(profile); err != nil {
		return model.GCodeProfile{}, fmt.Errorf("imported %w", err)
	}
	return profile, nil
}

// UpsertProfile replaces the profile with the same name or appends it.
func UpsertProfile(profiles []model.GCodeProfile, p model.GCodeProfile) []model.GCodeProfile {
	for i := range profiles {
		if profiles[i].Name == p.Name {
			profiles[i] = p
			return profiles
		}
	}
	return append(profiles, p)
}
