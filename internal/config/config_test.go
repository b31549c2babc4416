package config

import (
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("MAIAI_API_URL", "")
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.APIURL != DefaultAPIURL {
		t.Errorf("Expected APIURL %s, got %s", DefaultAPIURL, cfg.APIURL)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("Expected log level info, got %s", cfg.LogLevel)
	}
	if cfg.PresetsTTL != 15*time.Minute {
		t.Errorf("Expected presets TTL 15m, got %v", cfg.PresetsTTL)
	}
	if filepath.Base(cfg.StateDir) != ".maiai" {
		t.Errorf("Expected state dir under .maiai, got %s", cfg.StateDir)
	}
}

func TestSaveThenLoad(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "config.yaml")

	want := &Config{
		APIURL:      "https://api.mai.test/",
		StateDir:    t.TempDir(),
		LogLevel:    "debug",
		Environment: "production",
		PresetsTTL:  time.Minute,
	}
	if err := Save(path, want); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got.APIURL != "https://api.mai.test" {
		t.Errorf("Expected trailing slash trimmed, got %s", got.APIURL)
	}
	if got.LogLevel != "debug" || got.Environment != "production" {
		t.Errorf("Unexpected config: %+v", got)
	}
	if got.StateDir != want.StateDir {
		t.Errorf("Expected state dir %s, got %s", want.StateDir, got.StateDir)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := Save(path, &Config{APIURL: "http://file.test", StateDir: t.TempDir()}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	t.Setenv("MAIAI_API_URL", "http://env.test")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.APIURL != "http://env.test" {
		t.Errorf("Expected env override, got %s", cfg.APIURL)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid", Config{APIURL: "http://x", StateDir: "/tmp/x"}, false},
		{"empty url", Config{StateDir: "/tmp/x"}, true},
		{"bad scheme", Config{APIURL: "ftp://x", StateDir: "/tmp/x"}, true},
		{"no state dir", Config{APIURL: "http://x"}, true},
		{"negative ttl", Config{APIURL: "http://x", StateDir: "/tmp/x", PresetsTTL: -time.Second}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
