package cliutil

import (
	"path/filepath"
	"testing"
)

func TestLoadConfigMissingFileReturnsDefault(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.WorkDir != "." {
		t.Errorf("expected default WorkDir, got %q", cfg.WorkDir)
	}
}

func TestSaveThenLoadConfigRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rgblink.json")

	cfg := &Config{Verbose: true, MinVersion: ">=1.0.0"}
	if err := cfg.SaveConfig(path); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if !loaded.Verbose || loaded.MinVersion != ">=1.0.0" {
		t.Errorf("config did not round-trip: %+v", loaded)
	}
}

func TestValidateArgsRejectsTooFew(t *testing.T) {
	if err := ValidateArgs([]string{"a"}, 2, "rgblink <a> <b>"); err == nil {
		t.Fatal("expected an error for too few arguments")
	}
}

func TestValidateArgsAcceptsEnough(t *testing.T) {
	if err := ValidateArgs([]string{"a", "b"}, 2, "rgblink <a> <b>"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
