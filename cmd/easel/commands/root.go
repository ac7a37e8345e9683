package commands

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/dyluth/easel/internal/config"
	"github.com/dyluth/easel/internal/printer"
	"github.com/spf13/cobra"
)

var (
	version string
	commit  string
	date    string
)

var (
	configPath string
	logFormat  string
	logLevel   string

	// logger is built from the global flags before any subcommand runs.
	logger = slog.Default()
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "easel",
	Short: "Easel - pixel-art gallery service",
	Long: `Easel stores pixel-art records (a name, an author and a colour mapping
for a square grid) in an ordered key-value store and serves them over HTTP.

The store can be in memory, Redis or an on-disk Pebble database; see
easel.yml. The same binary runs the server and inspects or migrates the
stored records.`,
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		printer.SetOutput(cmd.OutOrStdout(), cmd.ErrOrStderr())

		l, err := newLogger(cmd.ErrOrStderr(), logFormat, logLevel)
		if err != nil {
			return printer.Error("invalid logging flags", err.Error(), []string{
				"Use --log-format text|json and --log-level debug|info|warn|error",
			})
		}
		logger = l
		return nil
	},
	// Show help instead of silently succeeding without a subcommand
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
	FParseErrWhitelist: cobra.FParseErrWhitelist{},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	// Errors are printed by the printer package
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
	return rootCmd.Execute()
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", v, c, d)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to easel.yml (default: ./easel.yml when present)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format: text or json")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn or error")
}

func newLogger(w io.Writer, format, level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("unknown log level: %s", level)
	}
	opts := &slog.HandlerOptions{Level: lvl}

	switch format {
	case "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("unknown log format: %s", format)
	}
}

// loadConfig reads --config, or easel.yml in the working directory, or
// falls back to defaults.
func loadConfig() (*config.EaselConfig, error) {
	path := configPath
	if path == "" {
		if _, err := os.Stat(config.DefaultFile); err == nil {
			path = config.DefaultFile
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to check for %s: %w", config.DefaultFile, err)
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, printer.ErrorWithContext(
			"invalid configuration",
			err.Error(),
			map[string]string{"Config": displayPath(path)},
			[]string{"Check easel.yml against the documented fields and defaults"},
		)
	}
	return cfg, nil
}

func displayPath(path string) string {
	if path == "" {
		return "(defaults)"
	}
	return path
}
