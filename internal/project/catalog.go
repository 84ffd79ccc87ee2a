package project

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/piwi3910/FoamNest/internal/model"
)

// SaveCatalog writes the foam catalog to the specified JSON file.
// It creates parent directories if they do not exist.
func SaveCatalog(path string, catalog model.FoamCatalog) error {
	return writeJSON(path, catalog)
}

// LoadCatalog reads the foam catalog from the specified JSON file.
// If the file does not exist, it returns the default catalog and saves it.
func LoadCatalog(path string) (model.FoamCatalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			catalog := model.DefaultFoamCatalog()
			if saveErr := SaveCatalog(path, catalog); saveErr != nil {
				return catalog, saveErr
			}
			return catalog, nil
		}
		return model.FoamCatalog{}, err
	}
	var catalog model.FoamCatalog
	if err := json.Unmarshal(data, &catalog); err != nil {
		return model.FoamCatalog{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	if catalog.Types == nil {
		catalog.Types = []model.FoamType{}
	}
	return catalog, nil
}

// ImportCatalog merges the foam types of the catalog file at path into
// existing. Types whose ID is already present are skipped. The number of
// added types is returned.
func ImportCatalog(path string, existing model.FoamCatalog) (model.FoamCatalog, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return existing, 0, err
	}
	var imported model.FoamCatalog
	if err := json.Unmarshal(data, &imported); err != nil {
		return existing, 0, fmt.Errorf("parsing %s: %w", path, err)
	}

	ids := make(map[string]bool, len(existing.Types))
	for _, ft := range existing.Types {
		ids[ft.ID] = true
	}

	added := 0
	for _, ft := range imported.Types {
		if ft.ID == "" || ids[ft.ID] {
			continue
		}
		existing.Types = append(existing.Types, ft)
		ids[ft.ID] = true
		added++
	}
	return existing, added, nil
}
