package main

import (
	"fmt"

	"github.com/entrhq/fbsbot/pkg/browser"
	"github.com/entrhq/fbsbot/pkg/catalog"
	"github.com/entrhq/fbsbot/pkg/config"
	"github.com/entrhq/fbsbot/pkg/dispatch"
	"github.com/entrhq/fbsbot/pkg/logging"
	"github.com/entrhq/fbsbot/pkg/portal"
)

// app holds the long-lived pieces shared by serve and book.
type app struct {
	cfg      *config.Config
	catalog  *catalog.Catalog
	users    *config.UserStore
	browsers *browser.SessionManager
	logger   *logging.Logger
}

func newApp(cfg *config.Config) (*app, error) {
	if err := logging.Configure(cfg.Logging.Dir, cfg.Logging.Level); err != nil {
		return nil, fmt.Errorf("failed to configure logging: %w", err)
	}
	// A fallback logger is still usable; it has already warned on the console
	logger, _ := logging.NewLogger("fbsbot")

	cat, err := cfg.Catalog()
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	sealer, err := cfg.Sealer()
	if err != nil {
		return nil, fmt.Errorf("failed to create sealer: %w", err)
	}
	users, err := config.NewUserStore(cfg.UsersFile, sealer)
	if err != nil {
		return nil, err
	}
	logger.Infof("Loaded %d authorized users from %s", len(users.Users()), users.Path())

	browsers := browser.NewSessionManager(cfg.SessionOptions())
	browsers.SetMaxSessions(cfg.Concurrency.MaxSessions)
	if err := browsers.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	return &app{
		cfg:      cfg,
		catalog:  cat,
		users:    users,
		browsers: browsers,
		logger:   logger,
	}, nil
}

// component returns a logger for a named part of the process. It writes
// through the app logger's file handle.
func (a *app) component(name string) *logging.Logger {
	return a.logger.Component(name)
}

func (a *app) dispatcher(options ...dispatch.Option) (*dispatch.Dispatcher, error) {
	loc, err := a.cfg.Location()
	if err != nil {
		return nil, err
	}

	engine := portal.NewEngine(a.browsers, a.catalog, a.cfg.PortalOptions(), a.component("portal"))
	opts := dispatch.Options{
		Location:    loc,
		UsageType:   a.cfg.Portal.UsageType,
		Attendees:   a.cfg.Portal.Attendees,
		Timeout:     a.cfg.Portal.BookingTimeout,
		MaxSessions: a.cfg.Concurrency.MaxSessions,
	}
	options = append([]dispatch.Option{dispatch.WithLogger(a.component("dispatch"))}, options...)
	return dispatch.New(engine, a.catalog, a.users, opts, options...), nil
}

// Close stops the browser driver.
func (a *app) Close() {
	if err := a.browsers.Shutdown(); err != nil {
		a.logger.Warnf("Browser shutdown failed: %v", err)
	}
	a.logger.Infof("Shutdown complete")
	_ = a.logger.Close()
}
