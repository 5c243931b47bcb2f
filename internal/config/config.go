package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"

	"github.com/dotcommander/lintcompose/internal/types"
)

// Config represents the lintcompose tool settings. The composition document
// itself is loaded separately by LoadDocument.
type Config struct {
	ConfigFile  string      `mapstructure:"config"`
	ProviderDir string      `mapstructure:"providerDir"`
	Format      string      `mapstructure:"format"`
	Output      string      `mapstructure:"output"`
	Quiet       bool        `mapstructure:"quiet"`
	Verbose     bool        `mapstructure:"verbose"`
	Rules       RulesConfig `mapstructure:"rules"`
}

// RulesConfig contains rule validation settings
type RulesConfig struct {
	// Strict requires namespaced rules to be declared by their provider,
	// not just to have a registered namespace.
	Strict bool `mapstructure:"strict"`
}

// rcFiles are the tool settings files, checked in order.
var rcFiles = []string{".lintcomposerc.json", ".lintcomposerc.yaml", ".lintcomposerc.yml"}

// LoadConfig loads tool settings from defaults, rc files, environment
// variables and bound flags. configPath overrides the composition document path.
func LoadConfig(configPath string) (*Config, error) {
	viper.SetDefault("config", "")
	viper.SetDefault("providerDir", "")
	viper.SetDefault("format", types.FormatConsole)
	viper.SetDefault("output", "")
	viper.SetDefault("quiet", false)
	viper.SetDefault("verbose", false)
	viper.SetDefault("rules.strict", false)

	for _, path := range rcFiles {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		viper.SetConfigFile(path)
		if err := viper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading %s: %w", path, err)
		}
		break
	}

	viper.SetEnvPrefix("LINTCOMPOSE")
	viper.AutomaticEnv()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if configPath != "" {
		config.ConfigFile = configPath
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// validateConfig validates the configuration
func validateConfig(config *Config) error {
	switch config.Format {
	case types.FormatConsole, types.FormatJSON, types.FormatYAML, types.FormatMarkdown:
	default:
		return fmt.Errorf("invalid format: %s. Must be 'console', 'json', 'yaml', or 'markdown'", config.Format)
	}

	if config.Quiet && config.Verbose {
		return fmt.Errorf("quiet and verbose are mutually exclusive")
	}

	return nil
}
