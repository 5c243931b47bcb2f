package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dotcommander/lintcompose/internal/config"
	"github.com/dotcommander/lintcompose/internal/engine"
	errUtils "github.com/dotcommander/lintcompose/internal/errors"
	"github.com/dotcommander/lintcompose/internal/outputters"
	"github.com/dotcommander/lintcompose/internal/presets"
	"github.com/dotcommander/lintcompose/internal/scope"
)

// version is set at build time with -ldflags "-X .../cmd.version=...".
var version = "dev"

var (
	configPath   string
	providerDir  string
	quiet        bool
	verbose      bool
	strict       bool
	outputFormat string
	outputFile   string
)

// Swappable for tests.
var (
	exitFunc           = os.Exit
	stdout   io.Writer = os.Stdout
	stderr   io.Writer = os.Stderr
)

var rootCmd = &cobra.Command{
	Use:   "lintcompose",
	Short: "Compose lint rule sets from providers, overrides and path scopes",
	Long: `lintcompose turns a small composition document into the full, validated rule
configuration a linting engine consumes.

Provider flags (javascript, typescript, react, vue, formatters, ...) enable rule
providers. Providers are folded in a deterministic order, then the document's
rules, overrides and ignores are applied on top.

Without a subcommand, lintcompose composes and prints the configuration.`,
	Version: version,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runCompose("", ""); err != nil {
			reportError(err)
		}
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		exitFunc(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Composition document (default: nearest lint.config.{yaml,yml,json})")
	rootCmd.PersistentFlags().StringVar(&providerDir, "provider-dir", "", "Directory with extra *.provider.{yaml,yml,json} definitions")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress non-essential output")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&strict, "strict", false, "Require namespaced rules to be declared by their provider")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "format", "f", "console", "Output format (console|json|yaml|markdown)")
	rootCmd.PersistentFlags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")

	bindFlags()
}

// bindFlags connects persistent flags to viper keys.
func bindFlags() {
	flags := rootCmd.PersistentFlags()
	_ = viper.BindPFlag("config", flags.Lookup("config"))
	_ = viper.BindPFlag("providerDir", flags.Lookup("provider-dir"))
	_ = viper.BindPFlag("quiet", flags.Lookup("quiet"))
	_ = viper.BindPFlag("verbose", flags.Lookup("verbose"))
	_ = viper.BindPFlag("rules.strict", flags.Lookup("strict"))
	_ = viper.BindPFlag("format", flags.Lookup("format"))
	_ = viper.BindPFlag("output", flags.Lookup("output"))
}

// newLogger writes to stderr; verbose enables debug output, quiet keeps errors only.
func newLogger(cfg *config.Config) *log.Logger {
	logger := log.NewWithOptions(stderr, log.Options{Prefix: "lintcompose"})
	switch {
	case cfg.Verbose:
		logger.SetLevel(log.DebugLevel)
	case cfg.Quiet:
		logger.SetLevel(log.ErrorLevel)
	default:
		logger.SetLevel(log.WarnLevel)
	}
	return logger
}

// session bundles what every command needs.
type session struct {
	cfg       *config.Config
	logger    *log.Logger
	engine    *engine.Engine
	outputter *outputters.Outputter
}

func newSession() (*session, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("error loading configuration: %w", err)
	}
	logger := newLogger(cfg)

	loader, err := presets.NewLoader(logger)
	if err != nil {
		return nil, err
	}
	reg, err := loader.NewRegistry(cfg.ProviderDir)
	if err != nil {
		return nil, err
	}
	eng, err := engine.New(reg, engine.WithLogger(logger), engine.WithStrict(cfg.Rules.Strict))
	if err != nil {
		return nil, err
	}

	return &session{
		cfg:       cfg,
		logger:    logger,
		engine:    eng,
		outputter: outputters.NewOutputterWithFactory(cfg, outputters.NewDefaultFormatterFactory(cfg, stdout)),
	}, nil
}

// compose loads and composes the configured document, or the nearest default
// document when none is configured.
func (s *session) compose() (*scope.Configuration, error) {
	path := s.cfg.ConfigFile
	if path == "" {
		found, err := config.FindDocument(".")
		if err != nil {
			return nil, err
		}
		path = found
	}
	s.logger.Info("composing", "document", path)
	return s.engine.ComposeFile(path)
}

// reportError prints err with its hints and exits non-zero.
func reportError(err error) {
	fmt.Fprintf(stderr, "Error: %v\n", err)
	for _, hint := range errUtils.Hints(err) {
		fmt.Fprintf(stderr, "  hint: %s\n", hint)
	}
	exitFunc(1)
}
