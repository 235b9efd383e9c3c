package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.APIURL != DefaultAPIURL {
		t.Errorf("APIURL: expected %q, got %q", DefaultAPIURL, cfg.APIURL)
	}
	if cfg.PageSize != DefaultPageSize {
		t.Errorf("PageSize: expected %d, got %d", DefaultPageSize, cfg.PageSize)
	}
	if cfg.Timeout.Duration != DefaultTimeout {
		t.Errorf("Timeout: expected %v, got %v", DefaultTimeout, cfg.Timeout.Duration)
	}
	if cfg.DefaultView != DefaultView {
		t.Errorf("DefaultView: expected %q, got %q", DefaultView, cfg.DefaultView)
	}
	if !strings.HasSuffix(cfg.StateDir, "gigs") {
		t.Errorf("StateDir: expected gigs dir, got %q", cfg.StateDir)
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	t.Chdir(t.TempDir())
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `
api_url = "https://gateway.example.com/"
page_size = 20
timeout = "3s"
state_dir = "/tmp/gigs-state"
log_level = "debug"
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.APIURL != "https://gateway.example.com" {
		t.Errorf("APIURL trailing slash not trimmed: %q", cfg.APIURL)
	}
	if cfg.PageSize != 20 {
		t.Errorf("PageSize: expected 20, got %d", cfg.PageSize)
	}
	if cfg.Timeout.Duration != 3*time.Second {
		t.Errorf("Timeout: expected 3s, got %v", cfg.Timeout.Duration)
	}
	if cfg.StateDir != "/tmp/gigs-state" {
		t.Errorf("StateDir: got %q", cfg.StateDir)
	}
	if cfg.SessionDBPath() != filepath.Join("/tmp/gigs-state", "sessions.db") {
		t.Errorf("SessionDBPath: got %q", cfg.SessionDBPath())
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("GIGS_TOKEN=from-dotenv\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("GIGS_API_URL", "http://env.example.com")
	t.Setenv("GIGS_PAGE_SIZE", "5")
	t.Setenv("GIGS_STATE_DIR", dir)

	cfg, err := LoadConfig(filepath.Join(dir, "missing.toml"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	// godotenv does not override variables that are already set, so clean up
	// the one it introduced.
	defer os.Unsetenv("GIGS_TOKEN")

	if cfg.APIURL != "http://env.example.com" {
		t.Errorf("APIURL: got %q", cfg.APIURL)
	}
	if cfg.PageSize != 5 {
		t.Errorf("PageSize: got %d", cfg.PageSize)
	}
	if cfg.Token != "from-dotenv" {
		t.Errorf("Token: got %q", cfg.Token)
	}
}

func TestLoadConfigInvalidPageSizeEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("GIGS_PAGE_SIZE", "ten")
	t.Setenv("GIGS_STATE_DIR", t.TempDir())

	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatal("expected error for non-numeric GIGS_PAGE_SIZE")
	}
}

func TestSaveTemplateConfigRoundTrip(t *testing.T) {
	t.Chdir(t.TempDir())
	path := filepath.Join(t.TempDir(), "gigs", "config.toml")
	cfg := &Config{StateDir: "/var/lib/gigs"}

	if err := cfg.SaveTemplateConfig(path); err != nil {
		t.Fatalf("SaveTemplateConfig: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if loaded.StateDir != "/var/lib/gigs" {
		t.Errorf("StateDir: got %q", loaded.StateDir)
	}
	if loaded.PageSize != 10 || loaded.RateBurst != 3 {
		t.Errorf("unexpected template values: %+v", loaded)
	}
}
