package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/entrhq/fbsbot/pkg/config"
)

var (
	Version   = "dev"
	CommitSHA = "none"
	BuildDate = "unknown"
)

// rootFlags are shared by every subcommand.
type rootFlags struct {
	configPath string
	getenv     func(string) string
}

// load reads the config file, applies environment overrides and validates.
func (f *rootFlags) load() (*config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	cfg.ApplyEnv(f.getenv)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{getenv: os.Getenv}

	root := &cobra.Command{
		Use:           "fbsbot",
		Short:         "Telegram bot that books UTown facilities through the FBS portal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "path to configuration file (YAML)")

	root.AddCommand(newServeCmd(flags))
	root.AddCommand(newBookCmd(flags))
	root.AddCommand(newVenuesCmd(flags))
	root.AddCommand(newUserCmd(flags))
	root.AddCommand(newSealCmd(flags))
	root.AddCommand(newVersionCmd())

	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version info",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "fbsbot %s (commit=%s, built=%s)\n", Version, CommitSHA, BuildDate)
		},
	}
}
