// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/itemcore/internal/config"
	"github.com/holomush/itemcore/internal/core"
	"github.com/holomush/itemcore/internal/dispatch"
	"github.com/holomush/itemcore/internal/itemtype"
	"github.com/holomush/itemcore/internal/logging"
	"github.com/holomush/itemcore/internal/notify"
	"github.com/holomush/itemcore/internal/observability"
	"github.com/holomush/itemcore/internal/script"
	"github.com/holomush/itemcore/internal/store"
	"github.com/holomush/itemcore/internal/world"
	"github.com/holomush/itemcore/internal/xdg"
	"github.com/holomush/itemcore/pkg/errutil"
)

const shutdownTimeout = 10 * time.Second

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the item engine",
		Long: `Run the item engine. Requests are answered over NATS and every
player receives item notifications on its own subject. Without
--nats-url an embedded NATS server is started; without --database-url
belongings are kept in memory only. Without --config,
$XDG_CONFIG_HOME/itemcore/config.yaml is read if it exists.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := configFile
			if path == "" {
				var err error
				if path, err = xdg.DefaultConfigFile(); err != nil {
					return err
				}
			}
			cfg, err := config.Load(path, cmd.Flags())
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg, nil)
		},
	}
	config.RegisterFlags(cmd.Flags())
	return cmd
}

// runServe runs until ctx ends. ready, if not nil, is closed once the engine
// accepts requests.
func runServe(ctx context.Context, cfg *config.Config, ready chan<- string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, logCloser, err := logging.New(logging.Options{
		Service: "itemcore",
		Version: version,
		Format:  cfg.LogFormat,
		Level:   cfg.LogLevel,
		File:    cfg.LogFile,
	})
	if err != nil {
		return err
	}
	defer func() { _ = logCloser.Close() }()

	types, err := itemtype.Load(cfg.TypesFile)
	if err != nil {
		return err
	}
	logger.Info("item types loaded", "path", cfg.TypesFile, "types", types.Len())

	var accepting atomic.Bool
	obs := observability.NewServer(cfg.MetricsAddr, accepting.Load)
	dispatch.RegisterMetrics(obs.Registry())
	if cfg.MetricsAddr != "" {
		errCh, err := obs.Start()
		if err != nil {
			return oops.With("operation", "start observability server").Wrap(err)
		}
		go func() {
			for err := range errCh {
				errutil.LogError(logger, "observability server failed", err)
			}
		}()
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			_ = obs.Stop(stopCtx)
		}()
	}

	natsURL := cfg.NATSURL
	if natsURL == "" {
		srv, err := notify.NewServer()
		if err != nil {
			return err
		}
		if err := srv.Start(); err != nil {
			return err
		}
		defer srv.Shutdown()
		natsURL = srv.ClientURL()
		logger.Info("embedded NATS server started", "url", natsURL)
	}
	nc, err := notify.Connect(natsURL, logger)
	if err != nil {
		return err
	}
	defer nc.Close()

	w, err := world.New(types,
		world.WithLogger(logger),
		world.WithRecorder(obs.Metrics()),
		world.WithMaxTileItems(cfg.MaxTileItems),
		world.WithNotifyDepthWarn(cfg.NotifyDepthWarn),
	)
	if err != nil {
		return err
	}

	belongings, writer, closeStore, err := openBelongings(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	saver := store.NewSaver(writer,
		store.WithSaverLogger(logger),
		store.WithResultFunc(obs.Metrics().RecordSave),
	)
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := saver.Close(closeCtx); err != nil {
			errutil.LogError(logger, "saver did not drain", err)
		}
	}()

	tasks := dispatch.New(dispatch.WithQueueSize(cfg.QueueSize), dispatch.WithLogger(logger))
	opts := []core.Option{
		core.WithLogger(logger),
		core.WithSaveQueue(saver),
		core.WithObservers(func(id string) (world.Observer, error) {
			return notify.NewPublisher(nc, cfg.NotifyPrefix, id, notify.WithPublisherLogger(logger))
		}),
	}
	if cfg.Script != "" {
		rt, err := script.New(w, script.WithLogger(logger))
		if err != nil {
			return err
		}
		defer rt.Close()
		if err := rt.LoadFile(ctx, cfg.Script); err != nil {
			return err
		}
		w.AddHook(rt)
		opts = append(opts, core.WithScript(rt))
		logger.Info("script loaded", "path", cfg.Script)
	}

	engine := core.NewEngine(w, tasks, belongings, opts...)
	if err := engine.Schedule(cfg.SaveInterval, cfg.TickInterval); err != nil {
		return err
	}

	runCtx, cancelRun := context.WithCancel(context.Background())
	runErr := make(chan error, 1)
	go func() { runErr <- tasks.Run(runCtx) }()

	stopServing, err := core.ServeRequests(nc, core.DefaultRequestSubject, engine)
	if err != nil {
		cancelRun()
		<-runErr
		return err
	}
	accepting.Store(true)
	logger.Info("itemcore started",
		"requests", core.DefaultRequestSubject,
		"notify_prefix", cfg.NotifyPrefix,
		"persistent", cfg.DatabaseURL != "",
	)
	if ready != nil {
		ready <- natsURL
		close(ready)
	}

	<-ctx.Done()
	logger.Info("shutting down")
	accepting.Store(false)
	stopServing()

	saveCtx, cancelSave := context.WithTimeout(context.Background(), shutdownTimeout)
	if n, err := engine.SaveAll(saveCtx); err != nil {
		errutil.LogError(logger, "final save incomplete", err)
	} else {
		logger.Info("final save queued", "players", n)
	}
	cancelSave()

	cancelRun()
	return <-runErr
}

// openBelongings picks the PostgreSQL store when a database is configured
// and an in-memory store otherwise.
func openBelongings(ctx context.Context, cfg *config.Config, logger *slog.Logger) (core.Belongings, store.BelongingsWriter, func(), error) {
	if cfg.DatabaseURL == "" {
		logger.Warn("no database configured, belongings are lost on exit")
		mem := core.NewMemoryStore()
		return mem, mem, func() {}, nil
	}

	m, err := store.NewMigrator(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, nil, err
	}
	err = m.Up()
	if closeErr := m.Close(); closeErr != nil {
		errutil.LogError(logger, "closing migrator", closeErr)
	}
	if err != nil {
		return nil, nil, nil, err
	}

	bs, closeStore, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, nil, err
	}
	logger.Info("connected to database")
	return bs, bs, closeStore, nil
}
