package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/entrhq/fbsbot/pkg/config"
	"github.com/entrhq/fbsbot/pkg/credentials"
)

func newUserCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage the authorized users file",
	}
	cmd.AddCommand(newUserAddCmd(flags))
	cmd.AddCommand(newUserListCmd(flags))
	cmd.AddCommand(newUserRemoveCmd(flags))
	return cmd
}

// openUsers loads the users file named by the configuration.
func openUsers(flags *rootFlags) (*config.UserStore, *credentials.Sealer, error) {
	cfg, err := flags.load()
	if err != nil {
		return nil, nil, err
	}
	sealer, err := cfg.Sealer()
	if err != nil {
		return nil, nil, err
	}
	store, err := config.NewUserStore(cfg.UsersFile, sealer)
	if err != nil {
		return nil, nil, err
	}
	return store, sealer, nil
}

func newUserAddCmd(flags *rootFlags) *cobra.Command {
	var (
		telegramID int64
		username   string
		password   string
		seal       bool
	)

	c := &cobra.Command{
		Use:   "add",
		Short: "Add or replace a user (password is read from stdin when not given)",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, sealer, err := openUsers(flags)
			if err != nil {
				return err
			}

			if password == "" {
				password, err = readSecret(cmd.InOrStdin())
				if err != nil {
					return err
				}
			}
			if seal {
				if sealer == nil {
					return fmt.Errorf("--seal needs a key (set %s)", config.EnvSealKey)
				}
				if password, err = sealer.Seal(password); err != nil {
					return err
				}
			}

			if err := store.Put(config.User{TelegramID: telegramID, Username: username, Password: password}); err != nil {
				return err
			}
			if err := store.Save(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "saved user %d (%s) to %s\n", telegramID, username, store.Path())
			return nil
		},
	}

	c.Flags().Int64Var(&telegramID, "telegram-id", 0, "telegram user id")
	c.Flags().StringVar(&username, "username", "", "portal username")
	c.Flags().StringVar(&password, "password", "", "portal password")
	c.Flags().BoolVar(&seal, "seal", false, "store the password sealed")
	_ = c.MarkFlagRequired("telegram-id")
	_ = c.MarkFlagRequired("username")
	return c
}

func newUserListCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List authorized users",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, err := openUsers(flags)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "TELEGRAM ID\tUSERNAME\tPASSWORD")
			for _, u := range store.Users() {
				kind := "plain"
				if credentials.IsSealed(u.Password) {
					kind = "sealed"
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\n", u.TelegramID, u.Username, kind)
			}
			return tw.Flush()
		},
	}
}

func newUserRemoveCmd(flags *rootFlags) *cobra.Command {
	var telegramID int64

	c := &cobra.Command{
		Use:   "remove",
		Short: "Remove a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, err := openUsers(flags)
			if err != nil {
				return err
			}
			if !store.Remove(telegramID) {
				return fmt.Errorf("no user with telegram id %d", telegramID)
			}
			if err := store.Save(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed user %d\n", telegramID)
			return nil
		},
	}

	c.Flags().Int64Var(&telegramID, "telegram-id", 0, "telegram user id")
	_ = c.MarkFlagRequired("telegram-id")
	return c
}

// readSecret reads the first line of r.
func readSecret(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read secret: %w", err)
	}
	secret := strings.TrimRight(line, "\r\n")
	if secret == "" {
		return "", fmt.Errorf("empty secret")
	}
	return secret, nil
}
