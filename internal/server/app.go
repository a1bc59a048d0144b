// Package server initializes and runs the main application server. It wires
// the database, object store, catalog, presence tracker and HTTP surface,
// handles graceful shutdown, and runs the background reconcile sweep.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/synchub/backend/internal/logging"
	"github.com/synchub/backend/internal/server/catalog"
	"github.com/synchub/backend/internal/server/config"
	"github.com/synchub/backend/internal/server/httpapi"
	"github.com/synchub/backend/internal/server/objstore"
	"github.com/synchub/backend/internal/server/presence"
	"github.com/synchub/backend/internal/server/repositories/repomanager"
	"github.com/synchub/backend/internal/server/users"
)

type App struct {
	config         *config.Config
	logger         logging.Logger
	db             *sql.DB
	catalogService *catalog.Service
	userService    *users.Service
	tracker        *presence.Tracker
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	sl := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(sl)

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	repos := repomanager.NewPostgresRepositoryManager()
	if err := repos.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	store, err := objstore.New(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("object store init error: %w", err)
	}
	if err := store.EnsureBucket(ctx); err != nil {
		return nil, fmt.Errorf("bucket init error: %w", err)
	}

	cs := catalog.NewService(db, repos, store, logger)
	us := users.NewService(db, repos, c)
	tracker := presence.NewTracker(c.PresenceThreshold)

	return &App{
		config:         c,
		logger:         logger,
		db:             db,
		catalogService: cs,
		userService:    us,
		tracker:        tracker,
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {

	s := httpapi.NewServer(app.config.EndpointAddrHTTP, app.logger,
		app.catalogService, app.userService, app.tracker, app.config.SecretKey)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// runReconcileLoop sweeps metadata against the object store on a fixed
// interval until the context is cancelled.
func (app *App) runReconcileLoop(ctx context.Context) {
	ticker := time.NewTicker(app.config.ReconcileInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			report, err := app.catalogService.Reconcile(ctx)
			if err != nil {
				app.logger.Error(ctx, "reconcile failed", "error", err)
				continue
			}
			app.logger.Info(ctx, "reconcile finished",
				"stale_rows", report.StaleRows, "orphan_objects", report.OrphanObjects)
		}
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.runReconcileLoop(ctx)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err)
	}
}
