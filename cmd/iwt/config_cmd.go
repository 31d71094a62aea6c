package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/raphi011/iwt/internal/config"
	"github.com/raphi011/iwt/internal/git"
	"github.com/raphi011/iwt/internal/log"
	"github.com/raphi011/iwt/internal/output"
)

func newConfigCmd() *cobra.Command {
	var repo string

	cmd := &cobra.Command{
		Use:     "config",
		Short:   "Show effective configuration",
		Aliases: []string{"cfg"},
		GroupID: GroupConfig,
		Args:    cobra.NoArgs,
		Long: `Print the effective configuration as TOML.

Global config: ~/.config/iwt/config.toml (or $IWT_CONFIG)
Local config:  .iwt.toml (in the repository root)

Inside a repository the local overrides are included.`,
		Example: `  iwt config                 # Show effective config
  iwt config --repo ~/src/app
  iwt config init            # Create default global config`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := effectiveConfig(ctx, repo)
			if err != nil {
				return err
			}
			return cfg.Encode(output.FromContext(ctx).Writer())
		},
	}

	cmd.Flags().StringVar(&repo, "repo", "", "Repository path (default: current repository)")
	cmd.AddCommand(newConfigInitCmd())

	return cmd
}

// effectiveConfig returns the config for repo, or for the current repository
// when repo is empty. Outside a repository the global config is used.
func effectiveConfig(ctx context.Context, repo string) (config.Config, error) {
	resolver := config.ResolverFromContext(ctx)

	repoRoot, err := resolveRepoRoot(ctx, git.New(nil), repo)
	if err != nil {
		if repo != "" {
			return config.Config{}, err
		}
		log.FromContext(ctx).Debug("not in a repository, showing global config", "error", err)
		return resolver.Global(), nil
	}
	return resolver.ConfigForRepo(repoRoot)
}

func newConfigInitCmd() *cobra.Command {
	var (
		force  bool
		stdout bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create default config file",
		Args:  cobra.NoArgs,
		Example: `  iwt config init      # Create ~/.config/iwt/config.toml
  iwt config init -f   # Overwrite existing config
  iwt config init -s   # Print config to stdout`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := output.FromContext(ctx)

			if stdout {
				out.Printf("%s", config.DefaultConfig())
				return nil
			}

			path, err := config.Init(force)
			if err != nil {
				if errors.Is(err, config.ErrExists) {
					return fmt.Errorf("%w (use -f to overwrite)", err)
				}
				return err
			}
			log.FromContext(ctx).OK("created config file: %s", path)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite existing config")
	cmd.Flags().BoolVarP(&stdout, "stdout", "s", false, "Print config to stdout")

	return cmd
}
