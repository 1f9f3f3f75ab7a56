package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Vitruves/metricalc/internal/models"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		configYAML  string
		expectError bool
		validate    func(*models.Config)
	}{
		{
			name: "full config",
			configYAML: `
language: en
input:
  delimiter: ","
  extensions: [csv, ".TXT"]
output:
  directory: ./reports
  format: xlsx
  mode: combined
  combined_file: all.xlsx
processing:
  workers: 8
labels:
  en:
    class_names: [Water, Forest, Field]
    average: Mean
`,
			validate: func(cfg *models.Config) {
				if cfg.Language != "en" {
					t.Errorf("Expected language 'en', got '%s'", cfg.Language)
				}
				if cfg.Input.Delimiter != "," {
					t.Errorf("Expected delimiter ',', got '%s'", cfg.Input.Delimiter)
				}
				if cfg.Input.Extensions[0] != ".csv" || cfg.Input.Extensions[1] != ".txt" {
					t.Errorf("Expected normalized extensions, got %v", cfg.Input.Extensions)
				}
				if cfg.Output.Mode != models.ModeCombined || cfg.Output.CombinedFile != "all.xlsx" {
					t.Errorf("Unexpected output config %+v", cfg.Output)
				}
				if cfg.Processing.Workers != 8 {
					t.Errorf("Expected 8 workers, got %d", cfg.Processing.Workers)
				}
				if len(cfg.Labels["en"].ClassNames) != 3 {
					t.Errorf("Expected 3 class names, got %v", cfg.Labels["en"].ClassNames)
				}
			},
		},
		{
			name:       "empty config uses defaults",
			configYAML: `{}`,
			validate: func(cfg *models.Config) {
				if cfg.Language != "cs" {
					t.Errorf("Expected default language 'cs', got '%s'", cfg.Language)
				}
				if cfg.Input.Delimiter != ";" {
					t.Errorf("Expected default delimiter ';', got '%s'", cfg.Input.Delimiter)
				}
				if cfg.Output.Format != "xlsx" || cfg.Output.Mode != models.ModeSeparate {
					t.Errorf("Unexpected output defaults %+v", cfg.Output)
				}
				if cfg.Processing.Workers != 4 {
					t.Errorf("Expected 4 workers, got %d", cfg.Processing.Workers)
				}
			},
		},
		{
			name: "language added through labels",
			configYAML: `
language: de
labels:
  de:
    class_names: [Wasser, Wald]
    average: Durchschnitt
`,
			validate: func(cfg *models.Config) {
				if cfg.Language != "de" {
					t.Errorf("Expected language 'de', got '%s'", cfg.Language)
				}
			},
		},
		{
			name:        "unsupported language",
			configYAML:  `language: fr`,
			expectError: true,
		},
		{
			name: "unsupported format",
			configYAML: `
output:
  format: pdf
`,
			expectError: true,
		},
		{
			name: "combined mode needs xlsx",
			configYAML: `
output:
  format: csv
  mode: combined
`,
			expectError: true,
		},
		{
			name: "multi-character delimiter",
			configYAML: `
input:
  delimiter: ";;"
`,
			expectError: true,
		},
		{
			name: "too many workers",
			configYAML: `
processing:
  workers: 1000
`,
			expectError: true,
		},
		{
			name: "wrong header count",
			configYAML: `
labels:
  cs:
    headers: [a, b]
`,
			expectError: true,
		},
		{
			name:        "invalid yaml",
			configYAML:  "language: [unclosed",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.configYAML), 0644); err != nil {
				t.Fatalf("Failed to write config: %v", err)
			}

			cfg, err := Load(path)
			if tt.expectError {
				if err == nil {
					t.Error("Expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			tt.validate(cfg)
		})
	}
}

func TestLoadExpandsEnvironment(t *testing.T) {
	t.Setenv("METRICALC_TEST_LANG", "en")

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("language: ${METRICALC_TEST_LANG}\n"), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cfg.Language != "en" {
		t.Errorf("Expected language from environment, got '%s'", cfg.Language)
	}
}

func TestLoadOrDefault(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.yaml")

	cfg, err := LoadOrDefault(missing, false)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cfg.Language != "cs" {
		t.Errorf("Expected defaults, got %+v", cfg)
	}

	if _, err := LoadOrDefault(missing, true); err == nil {
		t.Error("Expected error for explicitly requested missing file")
	}
}

func TestValidateErrorKind(t *testing.T) {
	cfg := Default()
	cfg.Output.Format = "docx"

	err := Validate(cfg)
	if !errors.Is(err, models.ErrConfiguration) {
		t.Errorf("Expected configuration error, got %v", err)
	}
}
