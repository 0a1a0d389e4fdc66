package config

import (
	"path/filepath"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	if cfg.App.Env != AppEnvDev {
		t.Fatalf("expected App.Env to default to dev, got %q", cfg.App.Env)
	}
	if cfg.Storage.Backend != StorageSQLite {
		t.Fatalf("expected sqlite backend by default, got %q", cfg.Storage.Backend)
	}
	if cfg.App.LogFormat != "json" {
		t.Fatalf("expected json log format by default, got %q", cfg.App.LogFormat)
	}
	if cfg.Export.CurrencyPrefix != "$ " {
		t.Fatalf("unexpected currency prefix %q", cfg.Export.CurrencyPrefix)
	}
	want := []string{"format.docx", "./format.docx", "web/format.docx", "../format.docx"}
	if len(cfg.Template.Candidates) != len(want) {
		t.Fatalf("expected %d candidates, got %v", len(want), cfg.Template.Candidates)
	}
	for i := range want {
		if cfg.Template.Candidates[i] != want[i] {
			t.Fatalf("candidate %d: expected %q got %q", i, want[i], cfg.Template.Candidates[i])
		}
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv(EnvStorageBackend, StorageMemory)
	t.Setenv(EnvTemplateCandidates, "a.docx,b.docx")
	t.Setenv(EnvExportCurrencyCode, "EUR")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}
	if cfg.Storage.Backend != StorageMemory {
		t.Fatalf("expected memory backend, got %q", cfg.Storage.Backend)
	}
	if len(cfg.Template.Candidates) != 2 || cfg.Template.Candidates[1] != "b.docx" {
		t.Fatalf("unexpected candidates %v", cfg.Template.Candidates)
	}
	if cfg.Export.CurrencyCode != "EUR" {
		t.Fatalf("unexpected currency %q", cfg.Export.CurrencyCode)
	}
}

func TestLoad_RejectsUnknownLogFormat(t *testing.T) {
	t.Setenv(EnvLogFormat, "xml")
	if _, err := Load(); err == nil {
		t.Fatal("expected unknown log format to fail validation")
	}
}

func TestLoad_RejectsUnknownBackend(t *testing.T) {
	t.Setenv(EnvStorageBackend, "localstorage")
	if _, err := Load(); err == nil {
		t.Fatal("expected unknown storage backend to fail validation")
	}
}

func TestLoad_RedisBackendNeedsAddress(t *testing.T) {
	t.Setenv(EnvStorageBackend, StorageRedis)
	t.Setenv(EnvRedisURL, "")
	t.Setenv(EnvRedisAddr, "")
	if _, err := Load(); err == nil {
		t.Fatal("expected redis backend without address to fail")
	}

	t.Setenv(EnvRedisURL, "redis://localhost:6379/0")
	if _, err := Load(); err != nil {
		t.Fatalf("expected redis url to satisfy validation, got %v", err)
	}
}

func TestCandidatePathsJoinBaseDir(t *testing.T) {
	abs := filepath.Join(string(filepath.Separator), "srv", "t.docx")
	tc := TemplateConfig{BaseDir: "app", Candidates: []string{"format.docx", " ", "../format.docx", abs}}

	got := tc.CandidatePaths()
	want := []string{filepath.Join("app", "format.docx"), filepath.Join("app", "../format.docx"), abs}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("path %d: expected %q got %q", i, want[i], got[i])
		}
	}
}

func TestAppConfigEnvHelpers(t *testing.T) {
	devConfig := AppConfig{Env: "DEV"}
	if !devConfig.IsDev() {
		t.Fatalf("expected IsDev true for %q", devConfig.Env)
	}
	if devConfig.IsProd() {
		t.Fatalf("expected IsProd false for %q", devConfig.Env)
	}

	prodConfig := AppConfig{Env: "prod"}
	if !prodConfig.IsProd() {
		t.Fatalf("expected IsProd true for %q", prodConfig.Env)
	}
}
