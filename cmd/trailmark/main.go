package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/nightjarlabs/trailmark/internal/adapters/http/api"
	"github.com/nightjarlabs/trailmark/internal/adapters/outbox"
	"github.com/nightjarlabs/trailmark/internal/adapters/realm"
	app "github.com/nightjarlabs/trailmark/internal/app"
	"github.com/nightjarlabs/trailmark/internal/config"
	"github.com/nightjarlabs/trailmark/internal/domain/hint"
	"github.com/nightjarlabs/trailmark/internal/domain/identity"
	"github.com/nightjarlabs/trailmark/internal/domain/model"
	"github.com/nightjarlabs/trailmark/pkg/logger"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func main() {
	// Disable default Go metrics collection; the custom registry carries
	// only domain metrics.
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info",
			logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	realms, closeRealms, err := openRealms(cfg)
	if err != nil {
		log.Error(ctx, "failed to open realms", logger.Error(err))
		return
	}
	defer closeRealms()

	store := realm.NewStore(realms, realm.WithLogger(log.Named("realm")))
	ob := outbox.New(ctx, store, cfg.AnalyticsURL, outbox.WithLogger(log.Named("outbox")))

	engine := app.New(store,
		app.WithLogger(log.Named("engine")),
		app.WithQueueSize(cfg.EventQueueSize),
		app.WithDedupeSize(cfg.DedupeSize),
		app.WithTopN(cfg.LeaderboardTopN),
		app.WithFlushInterval(cfg.FlushInterval),
		app.WithPolicy(hint.NewPolicy(
			hint.WithMinVisits(cfg.HintMinVisits),
			hint.WithSessionCap(cfg.HintSessionCap),
		)),
		app.WithSchedulerOptions(
			hint.WithInitialDelay(cfg.HintInitialDelay),
			hint.WithStagger(cfg.HintStagger),
		),
		app.WithOutbox(ob),
		app.OnDiscovery(func(rec model.DiscoveryRecord, level int) {
			log.Info(ctx, "discovery",
				logger.String("id", rec.ID),
				logger.String("title", rec.Title),
				logger.Int("level", level),
			)
		}),
		app.OnHint(func(h hint.Hint) {
			log.Info(ctx, "hint",
				logger.String("discovery", h.DiscoveryID),
				logger.Int("level", h.Level),
				logger.String("target", h.Target),
			)
		}),
	)
	if err := engine.Start(ctx, hostSignals()); err != nil {
		log.Error(ctx, "failed to start engine", logger.Error(err))
		return
	}
	defer engine.Stop(context.Background())

	mux := http.NewServeMux()
	api.NewServer(engine, cfg.LeaderboardTopN).Register(ctx, mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			os.Stderr.WriteString("HTTP server failed: " + err.Error() + "\n")
		}
	}()

	<-ctx.Done()
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	log.Info(ctx, "server stopped")
}

// openRealms builds the configured persistence backends. Returns a
// close function covering the file-backed ones.
func openRealms(cfg *config.Config) ([]realm.Realm, func(), error) {
	if err := os.MkdirAll(cfg.DataDir, 0o750); err != nil {
		return nil, nil, err
	}
	var (
		realms  []realm.Realm
		closers []func() error
	)
	for _, name := range cfg.Realms {
		switch name {
		case "bolt":
			r, err := realm.OpenBolt(filepath.Join(cfg.DataDir, "realm.db"))
			if err != nil {
				return nil, nil, err
			}
			realms = append(realms, r)
			closers = append(closers, r.Close)
		case "document":
			r, err := realm.OpenDocument(filepath.Join(cfg.DataDir, "documents.db"))
			if err != nil {
				return nil, nil, err
			}
			realms = append(realms, r)
			closers = append(closers, r.Close)
		case "crumb":
			realms = append(realms, realm.NewCrumbRealm(filepath.Join(cfg.DataDir, "crumbs.json"), cfg.CrumbQuota))
		case "memory":
			realms = append(realms, realm.NewMemoryRealm("memory"))
		}
	}
	return realms, func() {
		for _, c := range closers {
			_ = c()
		}
	}, nil
}

// hostSignals stands in for the page-reported environment signals when
// the engine runs as a daemon: host facts are the closest stable,
// low-entropy equivalents.
func hostSignals() identity.Signals {
	hostname, _ := os.Hostname()
	zone, _ := time.Now().Zone()
	return identity.Signals{
		CanvasSignature: hostname,
		Timezone:        zone,
		Language:        os.Getenv("LANG"),
		Platform:        runtime.GOOS + "/" + runtime.GOARCH,
	}
}
