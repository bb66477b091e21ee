package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/entrhq/fbsbot/pkg/dispatch"
)

func newBookCmd(flags *rootFlags) *cobra.Command {
	var (
		userID int64
		name   string
		out    string
	)

	cmd := &cobra.Command{
		Use:     "book VENUE YYYY-MM-DD HH:mm to YYYY-MM-DD HH:mm",
		Short:   "Make one booking from the command line as an authorized user",
		Example: "  fbsbot book SR1 2025-01-25 14:00 to 2025-01-25 16:00 --user 123456789 --out booking.png",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load()
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			a, err := newApp(cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			disp, err := a.dispatcher()
			if err != nil {
				return err
			}

			msg := dispatch.Message{
				UserID:   userID,
				Username: name,
				Text:     "book " + strings.Join(args, " "),
			}
			return disp.Handle(ctx, msg, &consoleReplier{w: cmd.OutOrStdout(), out: out})
		},
	}

	cmd.Flags().Int64Var(&userID, "user", 0, "telegram id of the user whose portal account books")
	cmd.Flags().StringVar(&name, "name", "", "name recorded in the booking purpose")
	cmd.Flags().StringVarP(&out, "out", "o", "booking.png", "where to write the confirmation screenshot")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

// consoleReplier prints replies and saves any screenshot to a file.
type consoleReplier struct {
	w   io.Writer
	out string
}

func (c *consoleReplier) Reply(_ context.Context, r dispatch.Reply) error {
	if _, err := fmt.Fprintln(c.w, r.Text); err != nil {
		return err
	}
	if len(r.Photo) == 0 {
		return nil
	}
	if err := os.WriteFile(c.out, r.Photo, 0600); err != nil {
		return fmt.Errorf("failed to write screenshot: %w", err)
	}
	_, err := fmt.Fprintf(c.w, "Screenshot saved to %s\n", c.out)
	return err
}
