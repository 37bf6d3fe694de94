package cli

import (
	"context"
	"log/slog"
	"os"

	"github.com/guardianhq/guardian/internal/config"
	"github.com/guardianhq/guardian/internal/gateway"
	"github.com/guardianhq/guardian/internal/mirror"
	"github.com/guardianhq/guardian/internal/syncer"
)

// session is one started client: the open store plus a running syncer.
// Every command opens a session, performs its operation, and closes it.
type session struct {
	cfg   config.Config
	store *gateway.Store
	sync  *syncer.Syncer
}

// openSession loads configuration, sets up logging, opens the store and
// mirror, and starts a syncer. The caller must Close the session.
func openSession(ctx context.Context, opts *RootOptions) (*session, error) {
	cfg := config.Default()
	if opts.Config != "" {
		var err error
		if cfg, err = config.Load(opts.Config); err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to load config", err)
		}
	}

	level, err := cfg.LogLevel()
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if opts.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))

	store, err := gateway.Open(cfg.Database)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open store", err)
	}

	var syncOpts []syncer.Option
	if cfg.MirrorDir != "" {
		m, err := mirror.Open(cfg.MirrorDir)
		if err != nil {
			store.Close()
			return nil, WrapExitError(ExitCommandError, "failed to open mirror", err)
		}
		syncOpts = append(syncOpts, syncer.WithMirror(m))
	}

	s := syncer.New(cfg.Origin, syncer.ClientGateways(store.NewClient()), syncOpts...)
	if err := s.Start(ctx); err != nil {
		store.Close()
		return nil, WrapExitError(ExitCommandError, "failed to start client", err)
	}

	return &session{cfg: cfg, store: store, sync: s}, nil
}

func (s *session) Close() {
	s.sync.Close()
	if err := s.store.Close(); err != nil {
		slog.Error("error closing store", "error", err)
	}
}
