package project

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/piwi3910/FoamNest/internal/model"
)

func TestSaveAndLoadAppConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	cfg := model.DefaultAppConfig()
	cfg.DefaultKerf = 4.0
	cfg.LogLevel = "debug"
	cfg.NestTimeoutSec = 5
	cfg.RecentJobs = []string{"/tmp/sofa.json", "/tmp/chair.json"}

	if err := SaveAppConfig(path, cfg); err != nil {
		t.Fatalf("SaveAppConfig failed: %v", err)
	}

	loaded, err := LoadAppConfig(path)
	if err != nil {
		t.Fatalf("LoadAppConfig failed: %v", err)
	}

	if loaded.DefaultKerf != 4.0 {
		t.Errorf("expected DefaultKerf=4.0, got %f", loaded.DefaultKerf)
	}
	if loaded.LogLevel != "debug" {
		t.Errorf("expected LogLevel=debug, got %s", loaded.LogLevel)
	}
	if loaded.NestTimeoutSec != 5 {
		t.Errorf("expected NestTimeoutSec=5, got %d", loaded.NestTimeoutSec)
	}
	if len(loaded.RecentJobs) != 2 {
		t.Errorf("expected 2 recent jobs, got %d", len(loaded.RecentJobs))
	}
}

func TestLoadAppConfigMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nonexistent", "config.json")

	cfg, err := LoadAppConfig(path)
	if err != nil {
		t.Fatalf("expected no error for missing file, got: %v", err)
	}

	defaults := model.DefaultAppConfig()
	if cfg.DefaultKerf != defaults.DefaultKerf {
		t.Errorf("expected default kerf %f, got %f", defaults.DefaultKerf, cfg.DefaultKerf)
	}
	if cfg.ListenAddr != ":8080" {
		t.Errorf("expected listen addr :8080, got %s", cfg.ListenAddr)
	}
}

func TestLoadAppConfigPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"default_kerf":3.2,"recent_jobs":null}`), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadAppConfig(path)
	if err != nil {
		t.Fatalf("LoadAppConfig failed: %v", err)
	}
	if cfg.DefaultKerf != 3.2 {
		t.Errorf("expected DefaultKerf=3.2, got %f", cfg.DefaultKerf)
	}
	if cfg.DefaultSheetLength != model.DefaultSettings().SheetLength {
		t.Errorf("missing fields should keep defaults, got sheet length %f", cfg.DefaultSheetLength)
	}
	if cfg.RecentJobs == nil {
		t.Error("RecentJobs should not be nil after loading")
	}
}

func TestLoadAppConfigInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("not valid json{{{"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadAppConfig(path); err == nil {
		t.Fatal("expected error for invalid JSON, got nil")
	}
}

func TestSaveAppConfigCreatesDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "dir", "config.json")

	if err := SaveAppConfig(path, model.DefaultAppConfig()); err != nil {
		t.Fatalf("SaveAppConfig should create parent dirs: %v", err)
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Fatal("config file was not created")
	}
}

func TestAddRecentJob(t *testing.T) {
	cfg := model.DefaultAppConfig()
	for i := 0; i < maxRecentJobs+3; i++ {
		AddRecentJob(&cfg, fmt.Sprintf("job%d.json", i))
	}
	if len(cfg.RecentJobs) != maxRecentJobs {
		t.Fatalf("expected %d recent jobs, got %d", maxRecentJobs, len(cfg.RecentJobs))
	}

	AddRecentJob(&cfg, "job5.json")
	if cfg.RecentJobs[0] != "job5.json" {
		t.Errorf("expected job5.json first, got %s", cfg.RecentJobs[0])
	}
	seen := map[string]bool{}
	for _, p := range cfg.RecentJobs {
		if seen[p] {
			t.Errorf("duplicate recent job %s", p)
		}
		seen[p] = true
	}
}

func TestCatalogPath(t *testing.T) {
	cfg := model.DefaultAppConfig()
	if got := CatalogPath(cfg); filepath.Base(got) != "foam_types.json" {
		t.Errorf("unexpected default catalog path %s", got)
	}
	cfg.CatalogPath = "/srv/foam.json"
	if got := CatalogPath(cfg); got != "/srv/foam.json" {
		t.Errorf("expected configured path, got %s", got)
	}
}
