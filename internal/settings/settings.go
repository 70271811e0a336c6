// Package settings loads the formgate settings file.
package settings

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Analytics configures the local analytics event sink.
type Analytics struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Settings holds all configurable runtime parameters.
type Settings struct {
	// CurrentProject is the UUID of the active project. Empty means "first
	// configured project".
	CurrentProject string `yaml:"current_project"`

	// Language selects the locale for gate error messages.
	Language string `yaml:"language"`

	// EditCompletedForms controls whether completed instances open in edit
	// mode. When false, completed instances open view-only.
	EditCompletedForms bool `yaml:"edit_completed_forms"`

	// DataDir is the root directory for form and instance files.
	DataDir string `yaml:"data_dir"`

	Analytics Analytics `yaml:"analytics"`
}

// Default returns the built-in settings.
func Default() *Settings {
	return &Settings{
		Language:           "en",
		EditCompletedForms: false,
		DataDir:            defaultDataDir(),
		Analytics: Analytics{
			Enabled: false,
		},
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "formgate")
	}
	return filepath.Join(home, ".formgate")
}

// DefaultPath returns the default settings file location.
func DefaultPath() string {
	return filepath.Join(defaultDataDir(), "settings.yaml")
}

// Load reads settings from a YAML file. Empty path falls back to
// DefaultPath. Missing file returns defaults. Invalid YAML returns an error.
func Load(path string) (*Settings, error) {
	if path == "" {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to read settings: %w", err)
	}

	// Start with defaults, YAML overwrites only specified fields.
	s := Default()
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("failed to parse settings: %w", err)
	}

	return s, nil
}

// LoadWithHash loads settings and returns the SHA-256 of the raw file bytes.
// When no file exists (defaults used), the hash is the SHA-256 of empty
// input. The hash lets hot-reload skip no-op reloads.
func LoadWithHash(path string) (*Settings, string, error) {
	if path == "" {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			h := sha256.Sum256(nil)
			return Default(), "sha256:" + hex.EncodeToString(h[:]), nil
		}
		return nil, "", fmt.Errorf("failed to read settings: %w", err)
	}

	h := sha256.Sum256(data)
	hash := "sha256:" + hex.EncodeToString(h[:])

	s := Default()
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, "", fmt.Errorf("failed to parse settings: %w", err)
	}

	return s, hash, nil
}

// DefaultYAML returns a commented settings file for `formgate init`.
func DefaultYAML() string {
	return `# formgate settings
# Generated by: formgate init

# UUID of the active project. Leave empty to use the first configured
# project.
current_project: ""

# Locale for gate error messages (en, es).
language: en

# Whether completed instances open in edit mode. When false they open
# view-only.
edit_completed_forms: false

# Root directory for form and instance files.
#data_dir: /var/lib/formgate

# Local analytics event sink (JSONL).
analytics:
  enabled: false
  #path: /var/lib/formgate/analytics.jsonl
`
}
