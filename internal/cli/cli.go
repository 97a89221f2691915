// Package cli implements the sourcedeps command-line interface.
package cli

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/sourcedeps/pkg/buildinfo"
	"github.com/matzehuels/sourcedeps/pkg/config"
	apperr "github.com/matzehuels/sourcedeps/pkg/errors"
	"github.com/matzehuels/sourcedeps/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for display and the config file.
const appName = "sourcedeps"

// defaultConfigFile is read from the working directory when --config is not
// given and the file exists.
const defaultConfigFile = appName + ".toml"

// Process exit codes returned by ExitCode.
const (
	ExitOK       = 0
	ExitFailure  = 1
	ExitUsage    = 2   // unusable root, config file or flag value
	ExitCanceled = 130 // SIGINT
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// Out receives command output. Logs go to the logger's writer.
	Out io.Writer

	configPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Out:    os.Stdout,
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Sourcedeps downloads the script sources a project declares",
		Long: `Sourcedeps walks a project tree, finds dependency manifests, extracts the
declared (name, version) pairs and downloads a script artifact for each one
into <root>/external-dependencies/.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.SetOut(c.Out)
	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "config file (default ./"+defaultConfigFile+" if present)")

	root.AddCommand(c.fetchCommand())
	root.AddCommand(c.scanCommand())
	root.AddCommand(c.parseCommand())
	root.AddCommand(c.candidatesCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// ExitCode maps the error returned by the root command to a process exit
// code. Dependency failures inside a run are reported in the summary and
// never reach here.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, context.Canceled):
		return ExitCanceled
	case apperr.IsFatal(err):
		return ExitUsage
	default:
		return ExitFailure
	}
}

// =============================================================================
// Configuration
// =============================================================================

// loadConfig reads the config file, applies SOURCEDEPS_* overrides and
// validates the result. Command flags are applied by the caller through
// override before validation runs.
func (c *CLI) loadConfig(override func(*config.Config)) (*config.Config, error) {
	path := c.configPath
	if path == "" {
		if _, err := os.Stat(defaultConfigFile); err == nil {
			path = defaultConfigFile
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if override != nil {
		override(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if path != "" {
		c.Logger.Debug("loaded config", "path", path)
	}
	return cfg, nil
}

// pipelineOptions converts cfg into validated pipeline options for root.
func (c *CLI) pipelineOptions(cfg *config.Config, root string) (pipeline.Options, error) {
	opts := pipeline.Options{
		Root:      root,
		OutputDir: cfg.Output.Dir,
		Overwrite: cfg.Output.Overwrite,
		MemoSize:  cfg.Output.MemoSize,
		Scan:      cfg.ScanOptions(c.Logger),
		Locator:   cfg.LocatorOptions(),
		Fetch:     cfg.FetchOptions(c.Logger),
		Logger:    c.Logger,
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return opts, err
	}
	return opts, nil
}

// rootArg returns the optional [root] positional argument.
func rootArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return pipeline.DefaultRoot
}
