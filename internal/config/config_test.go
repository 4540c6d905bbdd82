package config

import (
	"testing"

	"github.com/spf13/pflag"
)

func TestLoadDefaults(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	BindFlags(fs)
	if err := fs.Parse(nil); err != nil {
		t.Fatalf("Parse: %v", err)
	}

	cfg, err := Load("", fs)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.PacksDir != "./packs" {
		t.Errorf("PacksDir = %q, want %q", cfg.PacksDir, "./packs")
	}
	if cfg.StepRateHz != 60 {
		t.Errorf("StepRateHz = %d, want 60", cfg.StepRateHz)
	}
	if cfg.LogJSON {
		t.Errorf("LogJSON = true, want false by default")
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("BONES_GAME_VERSION", "2.3.4")
	t.Setenv("BONES_LOG_JSON", "true")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	BindFlags(fs)
	if err := fs.Parse(nil); err != nil {
		t.Fatalf("Parse: %v", err)
	}

	cfg, err := Load("", fs)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.GameVersion != "2.3.4" {
		t.Errorf("GameVersion = %q, want %q", cfg.GameVersion, "2.3.4")
	}
	if !cfg.LogJSON {
		t.Errorf("LogJSON = false, want true from BONES_LOG_JSON")
	}
}

func TestLoadFlagOverride(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	BindFlags(fs)
	if err := fs.Parse([]string{"--packs-dir", "/srv/packs", "--step-rate-hz", "30"}); err != nil {
		t.Fatalf("Parse: %v", err)
	}

	cfg, err := Load("", fs)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.PacksDir != "/srv/packs" {
		t.Errorf("PacksDir = %q, want %q", cfg.PacksDir, "/srv/packs")
	}
	if cfg.StepRateHz != 30 {
		t.Errorf("StepRateHz = %d, want 30", cfg.StepRateHz)
	}
}

func TestLoadMissingConfigFile(t *testing.T) {
	_, err := Load("/nonexistent/bones.yaml", nil)
	if err == nil {
		t.Fatalf("Load: want error for missing config file, got nil")
	}
}

