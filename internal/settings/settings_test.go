package settings

import (
	"os"
	"path/filepath"
	"testing"
)

func TestMissingFileReturnsDefaults(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Language != "en" {
		t.Errorf("expected en default, got %q", s.Language)
	}
	if s.EditCompletedForms {
		t.Error("expected edit_completed_forms off by default")
	}
}

func TestOverlayKeepsUnspecifiedDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	content := "current_project: p-1\nlanguage: es\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	s, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.CurrentProject != "p-1" || s.Language != "es" {
		t.Errorf("expected overlay applied, got %+v", s)
	}
	if s.DataDir == "" {
		t.Error("expected data_dir default preserved")
	}
}

func TestInvalidYAMLIsAnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	if err := os.WriteFile(path, []byte("current_project: [broken"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestLoadWithHashTracksContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	if err := os.WriteFile(path, []byte("language: en\n"), 0644); err != nil {
		t.Fatal(err)
	}

	_, h1, err := LoadWithHash(path)
	if err != nil {
		t.Fatal(err)
	}
	_, h2, err := LoadWithHash(path)
	if err != nil {
		t.Fatal(err)
	}
	if h1 != h2 {
		t.Error("expected stable hash for unchanged file")
	}

	if err := os.WriteFile(path, []byte("language: es\n"), 0644); err != nil {
		t.Fatal(err)
	}
	_, h3, err := LoadWithHash(path)
	if err != nil {
		t.Fatal(err)
	}
	if h3 == h1 {
		t.Error("expected hash to change with content")
	}
}

func TestDefaultYAMLParsesToDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	if err := os.WriteFile(path, []byte(DefaultYAML()), 0644); err != nil {
		t.Fatal(err)
	}

	s, err := Load(path)
	if err != nil {
		t.Fatalf("generated settings failed to parse: %v", err)
	}
	if s.Language != "en" || s.EditCompletedForms || s.Analytics.Enabled {
		t.Errorf("generated settings diverge from defaults: %+v", s)
	}
}
