package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/osroflo/openapi-generator/internal/formatter"
	"github.com/osroflo/openapi-generator/internal/inference"
	"github.com/osroflo/openapi-generator/internal/logging"
	"github.com/osroflo/openapi-generator/internal/models"
	"github.com/osroflo/openapi-generator/internal/parser"
)

// Config represents the complete configuration for openapi-gen
type Config struct {
	Inference InferenceConfig `yaml:"inference"`
	Output    OutputConfig    `yaml:"output"`
	Convert   ConvertConfig   `yaml:"convert"`
	Scaffold  ScaffoldConfig  `yaml:"scaffold"`
	Logging   LoggingConfig   `yaml:"logging"`
	Dev       DevConfig       `yaml:"dev"`
}

// InferenceConfig controls the schema inference walker
type InferenceConfig struct {
	IncludeExample     bool        `yaml:"include_example"`
	IncludeDescription bool        `yaml:"include_description"`
	CappedKeys         []string    `yaml:"capped_keys"`
	DummyValues        DummyValues `yaml:"dummy_values"`
	LegacyKeys         bool        `yaml:"legacy_keys"`
	KeepFalsy          bool        `yaml:"keep_falsy"`
}

// DummyValues maps a container key to the value substituted when the
// container is empty in a sample. Values keep their YAML mapping order.
type DummyValues map[string]models.JSONValue

// UnmarshalYAML replaces the whole table with the mapping found in the file.
func (d *DummyValues) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: dummy_values must be a mapping", value.Line)
	}
	table := make(DummyValues, len(value.Content)/2)
	for i := 0; i+1 < len(value.Content); i += 2 {
		v, err := parser.FromYAMLNode(value.Content[i+1])
		if err != nil {
			return fmt.Errorf("dummy value %q: %w", value.Content[i].Value, err)
		}
		table[value.Content[i].Value] = v
	}
	*d = table
	return nil
}

// OutputConfig controls how definitions are written
type OutputConfig struct {
	Format   string `yaml:"format"`
	Validate bool   `yaml:"validate"`
}

// ConvertConfig controls mapping-driven batch conversion
type ConvertConfig struct {
	Mapping            string `yaml:"mapping"`
	Workers            int    `yaml:"workers"`
	CacheSize          int    `yaml:"cache_size"`
	SkipMissingSamples bool   `yaml:"skip_missing_samples"`
}

// ScaffoldConfig controls path index scaffolding
type ScaffoldConfig struct {
	Index string `yaml:"index"`
}

// LoggingConfig controls log output
type LoggingConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// DevConfig contains development/debug options
type DevConfig struct {
	Debug bool `yaml:"debug"`
}

// NewConfig creates a new Config with default values
func NewConfig() *Config {
	opts := inference.DefaultOptions()
	logCfg := logging.DefaultConfig()

	return &Config{
		Inference: InferenceConfig{
			IncludeExample:     opts.IncludeExample,
			IncludeDescription: opts.IncludeDescription,
			CappedKeys:         opts.CappedKeys,
			DummyValues:        DummyValues(opts.DummyValues),
			LegacyKeys:         opts.LegacyKeys,
			KeepFalsy:          opts.KeepFalsy,
		},
		Output: OutputConfig{
			Format:   string(formatter.FormatYAML),
			Validate: false,
		},
		Convert: ConvertConfig{
			Mapping:            filepath.Join("config", "mapping.json"),
			Workers:            1,
			CacheSize:          64,
			SkipMissingSamples: false,
		},
		Scaffold: ScaffoldConfig{
			Index: filepath.Join("paths", "_index.yaml"),
		},
		Logging: LoggingConfig{
			Level:      logCfg.Level,
			File:       logCfg.FilePath,
			MaxSizeMB:  logCfg.MaxSizeMB,
			MaxBackups: logCfg.MaxBackups,
			MaxAgeDays: logCfg.MaxAgeDays,
			Compress:   logCfg.Compress,
		},
	}
}

// LoadConfig loads configuration from a YAML file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Start with defaults
	cfg := NewConfig()

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file: %w", err)
	}

	return cfg, nil
}

// FindConfigFile searches for a config file in current directory and parents
func FindConfigFile() string {
	configNames := []string{".openapi-gen.yml", ".openapi-gen.yaml", "openapi-gen.yml", "openapi-gen.yaml"}

	currentDir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		for _, name := range configNames {
			configPath := filepath.Join(currentDir, name)
			if _, err := os.Stat(configPath); err == nil {
				return configPath
			}
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			// Reached root directory
			break
		}
		currentDir = parentDir
	}

	return ""
}

// Validate checks values that cannot be defaulted
func (c *Config) Validate() error {
	if _, err := formatter.ParseFormat(c.Output.Format); err != nil {
		return err
	}
	if c.Convert.Workers < 1 {
		return fmt.Errorf("convert.workers must be at least 1, got %d", c.Convert.Workers)
	}
	if c.Convert.CacheSize < 0 {
		return fmt.Errorf("convert.cache_size must not be negative, got %d", c.Convert.CacheSize)
	}
	for _, key := range c.Inference.CappedKeys {
		if strings.TrimSpace(key) == "" {
			return fmt.Errorf("inference.capped_keys must not contain empty keys")
		}
	}
	return nil
}

// WalkerOptions returns the inference options described by the config.
// The returned options do not share memory with the config.
func (c *Config) WalkerOptions() inference.Options {
	dummies := make(map[string]models.JSONValue, len(c.Inference.DummyValues))
	for k, v := range c.Inference.DummyValues {
		dummies[k] = v
	}
	return inference.Options{
		IncludeExample:     c.Inference.IncludeExample,
		IncludeDescription: c.Inference.IncludeDescription,
		CappedKeys:         slices.Clone(c.Inference.CappedKeys),
		DummyValues:        dummies,
		LegacyKeys:         c.Inference.LegacyKeys,
		KeepFalsy:          c.Inference.KeepFalsy,
	}
}

// LoggingOptions returns the logging setup described by the config
func (c *Config) LoggingOptions() logging.Config {
	level := c.Logging.Level
	if c.Dev.Debug {
		level = "debug"
	}
	return logging.Config{
		Level:      level,
		FilePath:   c.Logging.File,
		MaxSizeMB:  c.Logging.MaxSizeMB,
		MaxBackups: c.Logging.MaxBackups,
		MaxAgeDays: c.Logging.MaxAgeDays,
		Compress:   c.Logging.Compress,
	}
}

// Overrides holds values given on the command line. Empty values leave the
// config untouched.
type Overrides struct {
	Format   string
	Validate *bool
	Debug    bool
	LogFile  string
	Workers  int
}

// Apply merges CLI overrides into the config
func (c *Config) Apply(o Overrides) {
	if o.Format != "" {
		c.Output.Format = o.Format
	}
	if o.Validate != nil {
		c.Output.Validate = *o.Validate
	}
	if o.Debug {
		c.Dev.Debug = true
	}
	if o.LogFile != "" {
		c.Logging.File = o.LogFile
	}
	if o.Workers > 0 {
		c.Convert.Workers = o.Workers
	}
}

// LoadConfigWithCLI loads config with CLI argument precedence. When
// configPath is empty the nearest config file is used, if any.
func LoadConfigWithCLI(configPath string, o Overrides) (*Config, error) {
	cfg := NewConfig()

	if configPath == "" {
		configPath = FindConfigFile()
	}
	if configPath != "" {
		fileConfig, err := LoadConfig(configPath)
		if err != nil {
			return nil, err
		}
		cfg = fileConfig
	}

	cfg.Apply(o)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
