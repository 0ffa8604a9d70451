package app

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/agentstation/kinmap/cmd/kinmap/cmd"
	"github.com/agentstation/kinmap/internal/cmd/output"
	"github.com/agentstation/kinmap/pkg/logging"
)

// Execute runs the kinmap CLI application with the given arguments.
// This is the main entry point called from main.go.
func (a *App) Execute(ctx context.Context, args []string) error {
	rootCmd := a.createRootCommand()
	rootCmd.SetArgs(args)
	rootCmd.SetOut(a.out)
	return rootCmd.ExecuteContext(ctx)
}

// createRootCommand creates the root cobra command with all subcommands.
func (a *App) createRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "kinmap",
		Short:   "Keep contact relationships consistent",
		Version: a.version,
		Long: `Kinmap reconciles typed relationships between contact notes.

Each note in the vault carries its relationships twice: as RELATED
frontmatter fields and as a bulleted list under a "Related" heading.
Kinmap merges both, adds missing reciprocals (a parent's child lists
the parent back) and writes the result to both places.`,
		PersistentPreRunE: a.setupCommand,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}

	rootCmd.AddGroup(&cobra.Group{ID: "core", Title: "Core Commands:"})
	rootCmd.AddGroup(&cobra.Group{ID: "management", Title: "Management Commands:"})

	// Global flags default to the loaded configuration
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.config.ConfigFile, "config", "", "config file (default is $HOME/.kinmap.yaml)")
	flags.StringVar(&a.config.Vault, "vault", a.config.Vault, "directory of contact notes")
	flags.StringSliceVar(&a.config.Exclude, "exclude", a.config.Exclude, "glob of notes to skip, relative to the vault (repeatable)")
	flags.BoolVarP(&a.config.Verbose, "verbose", "v", a.config.Verbose, "verbose output (shortcut for --log-level=debug)")
	flags.BoolVarP(&a.config.Quiet, "quiet", "q", a.config.Quiet, "minimal output (shortcut for --log-level=warn)")
	flags.StringVarP(&a.config.Format, "format", "o", a.config.Format, "output format: table, json, yaml")
	flags.StringVar(&a.config.LogLevel, "log-level", a.config.LogLevel, "log level: trace, debug, info, warn, error (overrides -v/-q)")

	rootCmd.SetVersionTemplate("kinmap {{.Version}}\n")

	a.registerCommands(rootCmd)
	return rootCmd
}

// setupCommand is called before any command runs.
func (a *App) setupCommand(c *cobra.Command, _ []string) error {
	// An explicit --config file is read now; flags set on the command line still win
	if c.Flags().Changed("config") {
		config, err := LoadConfig(a.config.ConfigFile)
		if err != nil {
			return err
		}
		keepChangedFlags(c, a.config, config)
		a.config = config
	}

	if err := a.config.Validate(); err != nil {
		return err
	}
	if _, err := output.ParseFormat(a.config.Format); err != nil {
		return err
	}

	// Reinitialize logger with updated config
	logger := NewLogger(a.config)
	a.logger = &logger
	logging.SetDefault(logger)

	c.SetContext(logging.WithLogger(c.Context(), a.logger))
	return nil
}

// keepChangedFlags copies values given on the command line from flagged
// into loaded.
func keepChangedFlags(c *cobra.Command, flagged, loaded *Config) {
	changed := c.Flags().Changed
	loaded.ConfigFile = flagged.ConfigFile
	if changed("vault") {
		loaded.Vault = flagged.Vault
	}
	if changed("exclude") {
		loaded.Exclude = flagged.Exclude
	}
	if changed("verbose") {
		loaded.Verbose = flagged.Verbose
	}
	if changed("quiet") {
		loaded.Quiet = flagged.Quiet
	}
	if changed("format") {
		loaded.Format = flagged.Format
	}
	if changed("log-level") {
		loaded.LogLevel = flagged.LogLevel
	}
}

// registerCommands registers all subcommands with the root command.
func (a *App) registerCommands(rootCmd *cobra.Command) {
	// Core commands
	rootCmd.AddCommand(cmd.NewSyncCommand(a))
	rootCmd.AddCommand(cmd.NewCheckCommand(a))
	rootCmd.AddCommand(cmd.NewReconcileCommand(a))

	// Management commands
	rootCmd.AddCommand(cmd.NewInitCommand(a))

	// Utility commands
	rootCmd.AddCommand(cmd.NewVersionCommand(a))
}

// ExitOnError prints an error and exits with status 1.
func ExitOnError(err error) {
	if err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
}
