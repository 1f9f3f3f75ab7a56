package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/Vitruves/metricalc/internal/locale"
	"github.com/Vitruves/metricalc/internal/models"

	"gopkg.in/yaml.v3"
)

// Default returns a config with every default applied.
func Default() *models.Config {
	cfg := &models.Config{}
	setDefaults(cfg)
	return cfg
}

func Load(filename string) (*models.Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	content := os.ExpandEnv(string(data))

	var cfg models.Config
	if err := yaml.Unmarshal([]byte(content), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	setDefaults(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// LoadOrDefault loads filename, falling back to defaults when the file does
// not exist and was not asked for explicitly.
func LoadOrDefault(filename string, explicit bool) (*models.Config, error) {
	cfg, err := Load(filename)
	if err != nil && !explicit && errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Marshal renders the config as YAML.
func Marshal(cfg *models.Config) ([]byte, error) {
	return yaml.Marshal(cfg)
}

func setDefaults(cfg *models.Config) {
	if cfg.Language == "" {
		cfg.Language = "cs"
	}
	if cfg.Input.Delimiter == "" {
		cfg.Input.Delimiter = ";"
	}
	if len(cfg.Input.Extensions) == 0 {
		cfg.Input.Extensions = []string{".csv"}
	}
	for i, ext := range cfg.Input.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext != "" && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		cfg.Input.Extensions[i] = ext
	}
	if cfg.Output.Directory == "" {
		cfg.Output.Directory = "./output"
	}
	if cfg.Output.Format == "" {
		cfg.Output.Format = "xlsx"
	}
	if cfg.Output.Mode == "" {
		cfg.Output.Mode = models.ModeSeparate
	}
	if cfg.Output.CombinedFile == "" {
		cfg.Output.CombinedFile = "metrics.xlsx"
	}
	if cfg.Processing.Workers == 0 {
		cfg.Processing.Workers = 4
	}
}

// Validate checks a config after defaults have been applied. It is exported
// so CLI overrides can be checked again.
func Validate(cfg *models.Config) error {
	if _, err := locale.New(cfg.Labels).Lookup(cfg.Language); err != nil {
		return err
	}

	if utf8.RuneCountInString(cfg.Input.Delimiter) != 1 {
		return models.ConfigErrorf("delimiter must be a single character, got %q", cfg.Input.Delimiter)
	}
	switch cfg.Input.Delimiter {
	case "\"", "\r", "\n":
		return models.ConfigErrorf("invalid delimiter %q", cfg.Input.Delimiter)
	}

	validFormats := map[string]bool{"xlsx": true, "csv": true, "json": true, "parquet": true}
	if !validFormats[cfg.Output.Format] {
		return models.ConfigErrorf("unsupported output format: %s", cfg.Output.Format)
	}

	switch cfg.Output.Mode {
	case models.ModeSeparate:
	case models.ModeCombined:
		if cfg.Output.Format != "xlsx" {
			return models.ConfigErrorf("combined mode requires xlsx output, got %s", cfg.Output.Format)
		}
	default:
		return models.ConfigErrorf("unsupported output mode: %s", cfg.Output.Mode)
	}

	if cfg.Processing.Workers < 1 || cfg.Processing.Workers > 64 {
		return models.ConfigErrorf("workers must be between 1 and 64")
	}

	for lang, labels := range cfg.Labels {
		if len(labels.Headers) > 0 && len(labels.Headers) != 6 {
			return models.ConfigErrorf("labels.%s.headers must have 6 entries, got %d", lang, len(labels.Headers))
		}
	}

	return nil
}
