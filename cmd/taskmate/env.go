package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"taskmate/internal/automation"
	"taskmate/internal/client"
	"taskmate/internal/config"
	"taskmate/internal/dashboard"
	"taskmate/internal/localstore"
)

// clientEnv is what every client-side command needs.
type clientEnv struct {
	cfg      config.ClientConfig
	log      zerolog.Logger
	sessions *dashboard.Sessions
	rules    *automation.Store
	api      *client.Client
}

func openClient(configFile string) (*clientEnv, error) {
	cfg, err := config.LoadClient(configFile)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	log := newLogger(cfg.LogLevel)

	storage, err := localstore.NewFile(cfg.StateDir)
	if err != nil {
		return nil, fmt.Errorf("state dir: %w", err)
	}
	log.Debug().Str("dir", storage.Dir()).Msg("local state opened")

	return &clientEnv{
		cfg:      cfg,
		log:      log,
		sessions: dashboard.NewSessions(storage),
		rules:    automation.NewStore(storage, log),
		api:      client.New(cfg.APIURL, "", nil),
	}, nil
}

// signedIn returns a client carrying the stored token.
func (e *clientEnv) signedIn(ctx context.Context) (*client.Client, client.Session, error) {
	sess, err := e.sessions.Load(ctx)
	if errors.Is(err, dashboard.ErrNoSession) {
		return nil, sess, errors.New("not logged in, run `taskmate login` first")
	}
	if err != nil {
		return nil, sess, err
	}
	return e.api.WithToken(sess.Token), sess, nil
}

// newApp wires the dashboard with an automation engine reporting to notifier.
func (e *clientEnv) newApp(ctx context.Context, notifier automation.Notifier) (*dashboard.App, *automation.Engine, error) {
	api, _, err := e.signedIn(ctx)
	if err != nil {
		return nil, nil, err
	}

	opts := []automation.Option{automation.WithLogger(e.log)}
	if notifier != nil {
		opts = append(opts, automation.WithNotifier(notifier))
	}
	engine := automation.NewEngine(e.rules, api, opts...)

	return dashboard.NewApp(api, e.rules, engine, e.log), engine, nil
}

func reauthHint(err error) error {
	if errors.Is(err, automation.ErrReauthRequired) || errors.Is(err, client.ErrUnauthorized) {
		return errors.New("session expired, run `taskmate login` again")
	}
	return err
}

// userError prefers the re-login hint over the server's own message.
func userError(err error) error {
	return describe(reauthHint(err))
}
