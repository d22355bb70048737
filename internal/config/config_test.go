package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Output.DefaultFormat != "yaml" {
		t.Errorf("default format = %q, want yaml", cfg.Output.DefaultFormat)
	}
	if !cfg.Cache.Enabled {
		t.Error("cache must be enabled by default")
	}
	if cfg.Scan.IncludeSystem {
		t.Error("system headers must be excluded by default")
	}
	if len(cfg.Scan.SystemIncludeDirs) == 0 {
		t.Error("default system include dirs missing")
	}
	if err := Validate(cfg); err != nil {
		t.Errorf("default config must validate: %v", err)
	}
}

func TestLoadFromPathMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadFromPath(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Output.DefaultFormat != "yaml" {
		t.Errorf("format = %q, want default", cfg.Output.DefaultFormat)
	}
}

func TestLoadFromPathMergesWithDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
scan:
  filter_header: "^api_"
  canonical: true
output:
  default_format: json
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Scan.FilterHeader != "^api_" {
		t.Errorf("filter_header = %q", cfg.Scan.FilterHeader)
	}
	if !cfg.Scan.Canonical {
		t.Error("canonical not loaded")
	}
	if cfg.Output.DefaultFormat != "json" {
		t.Errorf("format = %q, want json", cfg.Output.DefaultFormat)
	}
	// Unset fields keep their defaults.
	if len(cfg.Scan.SystemIncludeDirs) == 0 {
		t.Error("system include dirs default lost in merge")
	}
	if !cfg.Cache.Enabled {
		t.Error("cache default lost in merge")
	}
}

func TestLoadFromPathRejectsInvalidFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("output:\n  default_format: xml\n"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadFromPath(path)
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("err = %v, want ErrInvalidConfig", err)
	}
}

func TestLoadFromPathRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("scan: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadFromPath(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestFindConfigDirWalksUp(t *testing.T) {
	root := t.TempDir()
	configDir := filepath.Join(root, ConfigDirName)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		t.Fatal(err)
	}
	nested := filepath.Join(root, "a", "b", "c")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}

	found, err := FindConfigDir(nested)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if found != configDir {
		t.Errorf("found = %q, want %q", found, configDir)
	}
}

func TestFindConfigDirNotFound(t *testing.T) {
	_, err := FindConfigDir(t.TempDir())
	if !errors.Is(err, ErrConfigNotFound) {
		t.Fatalf("err = %v, want ErrConfigNotFound", err)
	}
}

func TestEnsureConfigDir(t *testing.T) {
	root := t.TempDir()

	dir, err := EnsureConfigDir(root)
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		t.Fatalf("config dir not created: %v", err)
	}

	// Idempotent.
	again, err := EnsureConfigDir(root)
	if err != nil || again != dir {
		t.Fatalf("second ensure = %q, %v", again, err)
	}
}

func TestSaveDefault(t *testing.T) {
	root := t.TempDir()

	path, err := SaveDefault(root)
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if err := Validate(cfg); err != nil {
		t.Errorf("saved config must validate: %v", err)
	}

	// Refuses to overwrite.
	if _, err := SaveDefault(root); err == nil {
		t.Fatal("expected error when config already exists")
	}
}
