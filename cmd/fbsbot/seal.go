package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/entrhq/fbsbot/pkg/config"
	"github.com/entrhq/fbsbot/pkg/credentials"
)

func newSealCmd(flags *rootFlags) *cobra.Command {
	var generate bool

	c := &cobra.Command{
		Use:   "seal [password]",
		Short: "Seal a portal password for the users file, or generate a sealing key",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			if generate {
				key, err := credentials.GenerateKey()
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "export %s=%s\n", config.EnvSealKey, credentials.EncodeKey(key))
				return nil
			}

			cfg, err := flags.load()
			if err != nil {
				return err
			}
			sealer, err := cfg.Sealer()
			if err != nil {
				return err
			}
			if sealer == nil {
				return fmt.Errorf("no sealing key configured (set %s or run with --generate-key)", config.EnvSealKey)
			}

			var password string
			if len(args) == 1 {
				password = args[0]
			} else if password, err = readSecret(cmd.InOrStdin()); err != nil {
				return err
			}

			sealed, err := sealer.Seal(password)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, sealed)
			return nil
		},
	}

	c.Flags().BoolVar(&generate, "generate-key", false, "print a new random sealing key")
	return c
}
