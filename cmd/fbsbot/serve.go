package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/entrhq/fbsbot/pkg/config"
	"github.com/entrhq/fbsbot/pkg/dispatch"
	"github.com/entrhq/fbsbot/pkg/metrics"
	"github.com/entrhq/fbsbot/pkg/telegram"
)

func newServeCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the Telegram bot",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load()
			if err != nil {
				return err
			}
			if cfg.Telegram.Token == "" {
				return fmt.Errorf("telegram token is required (set %s)", config.EnvBotToken)
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			return serve(ctx, cfg)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	m := metrics.New()
	disp, err := a.dispatcher(dispatch.WithRecorder(m))
	if err != nil {
		return err
	}

	if cfg.Metrics.Addr != "" {
		go func() {
			a.logger.Infof("Serving metrics on %s", cfg.Metrics.Addr)
			if err := m.Serve(ctx, cfg.Metrics.Addr); err != nil {
				a.logger.Errorf("Metrics server stopped: %v", err)
			}
		}()
	}

	client := telegram.NewClient(cfg.Telegram.Token,
		telegram.WithAPIURL(cfg.Telegram.APIURL),
		telegram.WithPollTimeout(cfg.Telegram.PollTimeout),
	)
	bot := telegram.NewBot(client, disp, telegram.BotOptions{
		PollTimeout: cfg.Telegram.PollTimeout,
		Observer:    m,
		Logger:      a.component("telegram"),
	})

	a.logger.Infof("Bot started (timezone %s, max sessions %d)", cfg.Timezone, cfg.Concurrency.MaxSessions)
	if err := bot.Run(ctx); err != nil {
		return fmt.Errorf("bot stopped: %w", err)
	}
	return nil
}
