package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/colorprofile"
	"github.com/spf13/cobra"

	"github.com/raphi011/iwt/internal/config"
	"github.com/raphi011/iwt/internal/log"
	"github.com/raphi011/iwt/internal/output"
)

var (
	// Global flags
	verbose bool
	quiet   bool

	// closeTrace flushes the trace log, if one was opened.
	closeTrace = func() error { return nil }
)

// Command group IDs for organizing help output
const (
	GroupCore   = "core"
	GroupConfig = "config"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "iwt",
	Short: "Create git worktrees from GitHub and Linear issues",
	Long: `iwt turns an issue reference into a ready-to-use git worktree.

It derives a branch name from the issue (prefix/gh-123-title-slug or
prefix/lin-abc-123-title-slug), creates or reuses the worktree under
<worktrees-root>/<repo>/<branch>, and symlinks private files (.env and
friends) into it from a links document.`,
	SilenceUsage:               true,
	SilenceErrors:              true,
	SuggestionsMinimumDistance: 2, // Enable typo suggestions
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "completion" || cmd.Name() == "__complete" || cmd.Name() == "help" {
			return nil
		}

		// Validate mutually exclusive flags
		if verbose && quiet {
			return fmt.Errorf("--verbose and --quiet are mutually exclusive")
		}

		ctx, err := setupContext(cmd.Context(), os.Stderr, os.Stdout)
		if err != nil {
			return err
		}
		cmd.SetContext(ctx)
		return nil
	},
	// Run is not set - shows help when no subcommand provided
}

// setupContext attaches the logger, the stdout printer and the config
// resolver. Flags are parsed by now, so verbosity is final.
func setupContext(ctx context.Context, stderr, stdout io.Writer) (context.Context, error) {
	logger := log.New(colorprofile.NewWriter(stderr, os.Environ()), verbose, quiet)

	cfg, err := config.Load()
	if err != nil {
		return ctx, err
	}

	if cfg.LogFile != "" {
		z, closeFn, err := log.OpenTrace(cfg.LogFile)
		if err != nil {
			logger.Warn("trace log disabled: %v", err)
		} else {
			logger = logger.WithTrace(z)
			closeTrace = closeFn
		}
	}

	ctx = log.WithLogger(ctx, logger)
	ctx = output.WithPrinter(ctx, stdout)
	ctx = config.WithResolver(ctx, config.NewResolver(cfg))
	return ctx, nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	// Create context with signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	rootCmd.SetContext(ctx)
	err := rootCmd.Execute()

	cancel()
	_ = closeTrace()

	if err != nil {
		fmt.Fprintln(os.Stderr, "iwt:", err)
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show external commands being executed")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress all log output")
	rootCmd.MarkFlagsMutuallyExclusive("verbose", "quiet")

	// Version flag
	rootCmd.Version = versionString()
	rootCmd.SetVersionTemplate("{{.Version}}\n")

	rootCmd.AddGroup(
		&cobra.Group{ID: GroupCore, Title: "Core Commands:"},
		&cobra.Group{ID: GroupConfig, Title: "Configuration Commands:"},
	)

	rootCmd.AddCommand(newCreateCmd())
	rootCmd.AddCommand(newPathCmd())
	rootCmd.AddCommand(newLinksCmd())
	rootCmd.AddCommand(newConfigCmd())
}
