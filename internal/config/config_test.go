package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_MissingFile(t *testing.T) {
	tmpDir := t.TempDir()

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.ShareDelayMS != DefaultShareDelayMS {
		t.Errorf("ShareDelayMS = %d, want %d", cfg.ShareDelayMS, DefaultShareDelayMS)
	}
	if cfg.DownloadsDir != "" {
		t.Errorf("DownloadsDir = %q, want empty", cfg.DownloadsDir)
	}
	if cfg.LegacyDownloads {
		t.Error("LegacyDownloads = true, want false")
	}
}

func TestLoad_ValidFile(t *testing.T) {
	tmpDir := t.TempDir()
	content := `{
		"downloads_dir": "/tmp/dl",
		"legacy_downloads": true,
		"share_delay_ms": 250,
		"db_max_open_conns": 1,
		"disabled_tools": ["favorites_clear"]
	}`
	if err := os.WriteFile(filepath.Join(tmpDir, "config.json"), []byte(content), 0600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.DownloadsDir != "/tmp/dl" {
		t.Errorf("DownloadsDir = %q, want %q", cfg.DownloadsDir, "/tmp/dl")
	}
	if !cfg.LegacyDownloads {
		t.Error("LegacyDownloads = false, want true")
	}
	if cfg.ShareDelayMS != 250 {
		t.Errorf("ShareDelayMS = %d, want 250", cfg.ShareDelayMS)
	}
	if cfg.DBMaxOpenConns != 1 {
		t.Errorf("DBMaxOpenConns = %d, want 1", cfg.DBMaxOpenConns)
	}
	if len(cfg.DisabledTools) != 1 || cfg.DisabledTools[0] != "favorites_clear" {
		t.Errorf("DisabledTools = %v", cfg.DisabledTools)
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(tmpDir, "config.json"), []byte("{not json"), 0600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	if _, err := Load(tmpDir); err == nil {
		t.Error("Load should fail for invalid JSON")
	}
}

func TestMerge(t *testing.T) {
	base := &Config{
		DownloadsDir:   "/base/dl",
		ShareDelayMS:   1000,
		DBMaxOpenConns: 2,
		DisabledTools:  []string{"favorites_clear"},
	}
	overlay := &Config{
		ShareDelayMS:    500,
		LegacyDownloads: true,
		DisabledTools:   []string{"favorites_clear", "favorites_export"},
	}

	merged := Merge(base, overlay)

	if merged.DownloadsDir != "/base/dl" {
		t.Errorf("DownloadsDir = %q, want base value", merged.DownloadsDir)
	}
	if merged.ShareDelayMS != 500 {
		t.Errorf("ShareDelayMS = %d, want overlay value 500", merged.ShareDelayMS)
	}
	if merged.DBMaxOpenConns != 2 {
		t.Errorf("DBMaxOpenConns = %d, want base value 2", merged.DBMaxOpenConns)
	}
	if !merged.LegacyDownloads {
		t.Error("LegacyDownloads = false, want true (overlay wins)")
	}
	if len(merged.DisabledTools) != 2 {
		t.Errorf("DisabledTools = %v, want deduplicated merge of 2", merged.DisabledTools)
	}
}

func TestMergeStringSlice_TrimAndDedup(t *testing.T) {
	result := mergeStringSlice([]string{" a ", "b", ""}, []string{"a", "c"})
	want := []string{"a", "b", "c"}
	if len(result) != len(want) {
		t.Fatalf("len = %d, want %d (%v)", len(result), len(want), result)
	}
	for i := range want {
		if result[i] != want[i] {
			t.Errorf("result[%d] = %q, want %q", i, result[i], want[i])
		}
	}

	if mergeStringSlice(nil, nil) != nil {
		t.Error("merging empty slices should return nil")
	}
}
