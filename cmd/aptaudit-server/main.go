// Command aptaudit-server runs the apartment audit HTTP API.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/aptaudit/internal/api"
	"github.com/persistorai/aptaudit/internal/config"
	"github.com/persistorai/aptaudit/internal/db"
	"github.com/persistorai/aptaudit/internal/db/migrations"
	"github.com/persistorai/aptaudit/internal/dbpool"
	"github.com/persistorai/aptaudit/internal/photostore"
	"github.com/persistorai/aptaudit/internal/seed"
	"github.com/persistorai/aptaudit/internal/service"
	"github.com/persistorai/aptaudit/internal/store"
	"github.com/persistorai/aptaudit/internal/ws"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	if err := run(log); err != nil {
		log.WithError(err).Fatal("server exited")
	}
}

func run(log *logrus.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("parsing log level: %w", err)
	}
	log.SetLevel(level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := dbpool.NewPool(ctx, cfg.DatabaseURL.Value(), cfg.DBMaxConns)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer pool.Close()

	if err := pool.RegisterMetrics(prometheus.DefaultRegisterer); err != nil {
		return err
	}

	if err := db.RunMigrations(ctx, pool, log, migrations.FS); err != nil {
		return err
	}

	base := store.Base{Pool: pool, Log: log}

	if cfg.CatalogSeedFile != "" {
		if err := seedCatalog(ctx, base, cfg.CatalogSeedFile, log); err != nil {
			return err
		}
	}

	photos, err := photostore.NewLocal(cfg.PhotoDir, cfg.PhotoBaseURL, cfg.MaxPhotoBytes, log)
	if err != nil {
		return fmt.Errorf("opening photo store: %w", err)
	}

	activityStore := store.NewActivityStore(base)
	activityWorker := service.NewActivityWorker(activityStore, log, cfg.ActivityQueueSize)

	engine := service.NewEngine(service.EngineDeps{
		UnitOfWork: store.NewUnitOfWork(base),
		Questions:  service.NewQuestionCache(),
		Activity:   activityWorker,
		Log:        log,
	})

	hub := ws.NewHub(log)
	if err := db.NewNotifyBridge(log, pool, hub).Start(ctx); err != nil {
		return err
	}

	var photoRoute string
	if strings.HasPrefix(cfg.PhotoBaseURL, "/") {
		photoRoute = cfg.PhotoBaseURL
	}

	router := api.NewRouter(ctx, &api.RouterDeps{
		Log:           log,
		Pool:          pool,
		Hub:           hub,
		Lifecycle:     engine,
		Answers:       engine,
		Query:         service.NewQueryService(store.NewAuditReadStore(base)),
		Activity:      service.NewActivityService(activityStore, log),
		Photos:        photos,
		PhotoDir:      photos.Dir(),
		PhotoRoute:    photoRoute,
		MaxPhotoBytes: cfg.MaxPhotoBytes,
		CORSOrigins:   cfg.CORSOrigins,
		Version:       config.Version,
		RateLimit:     cfg.RateLimit,
		RateBurst:     cfg.RateBurst,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.WithFields(logrus.Fields{
		"addr":           srv.Addr,
		"version":        config.Version,
		"schema_version": db.SchemaVersion(),
	}).Info("server listening")

	return serve(ctx, log, srv, hub, activityWorker, cfg.ShutdownTimeout)
}

// seedCatalog imports the catalog seed file. Published template versions are
// never modified, so re-running on every start is safe.
func seedCatalog(ctx context.Context, base store.Base, path string, log *logrus.Logger) error {
	doc, err := seed.Load(path)
	if err != nil {
		return fmt.Errorf("loading catalog seed: %w", err)
	}

	if err := doc.Validate(); err != nil {
		return fmt.Errorf("validating catalog seed: %w", err)
	}

	stats, err := store.NewSeedStore(base).Import(ctx, doc)
	if err != nil {
		return fmt.Errorf("importing catalog seed: %w", err)
	}

	log.WithFields(logrus.Fields{
		"file":       path,
		"versions":   stats.Versions,
		"questions":  stats.Questions,
		"apartments": stats.Apartments,
	}).Info("catalog seeded")

	return nil
}
