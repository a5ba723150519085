package launch

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Category is one kind of experiment output directory.
type Category string

const (
	CategoryLog         Category = "log"
	CategoryCheckpoint  Category = "checkpoint"
	CategoryEvaluation  Category = "evaluation"
	CategoryTensorboard Category = "tensorboard"
)

// Categories lists every output category in the order their directories are
// prepared and passed to the experiment.
var Categories = []Category{CategoryLog, CategoryCheckpoint, CategoryEvaluation, CategoryTensorboard}

// FlagName is the flag the experiment receives the category's directory under.
func (c Category) FlagName() string {
	return string(c) + "_dir"
}

// Config holds launcher settings. All fields have defaults; a YAML file only
// needs to name what it changes.
type Config struct {
	ExperimentDir string              `yaml:"experiment_dir"`
	Python        string              `yaml:"python"`
	FilteredFlags []string            `yaml:"filtered_flags"` // ignored for directory names
	Directories   map[Category]string `yaml:"directories"`    // category -> base path
	ManifestName  string              `yaml:"manifest_name"`
}

// DefaultConfig returns the built-in launcher settings.
func DefaultConfig() Config {
	return Config{
		ExperimentDir: "experiment",
		Python:        "python",
		FilteredFlags: []string{"train", "eval"},
		Directories: map[Category]string{
			CategoryLog:         "log",
			CategoryCheckpoint:  "checkpoint",
			CategoryEvaluation:  "evaluation",
			CategoryTensorboard: "tensorboard",
		},
		ManifestName: "flags",
	}
}

// LoadConfig reads a YAML launcher config on top of DefaultConfig.
// Unknown keys are rejected so typos surface as errors.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read launcher config: %w", err)
	}

	var file Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("parse launcher config %s: %w", path, err)
	}

	if file.ExperimentDir != "" {
		cfg.ExperimentDir = file.ExperimentDir
	}
	if file.Python != "" {
		cfg.Python = file.Python
	}
	if file.FilteredFlags != nil {
		cfg.FilteredFlags = file.FilteredFlags
	}
	if file.ManifestName != "" {
		cfg.ManifestName = file.ManifestName
	}
	for c, base := range file.Directories {
		if _, ok := cfg.Directories[c]; !ok {
			return cfg, fmt.Errorf("launcher config %s: unknown directory category %q", path, c)
		}
		cfg.Directories[c] = base
	}
	return cfg, nil
}

// ModulePrefix is the dotted python package the experiment scripts live in.
func (c Config) ModulePrefix() string {
	return strings.ReplaceAll(strings.Trim(c.ExperimentDir, "/"), "/", ".")
}
