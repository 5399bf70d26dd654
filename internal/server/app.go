// Package server initializes and runs the GophNotes API server. It owns the
// database handle, wires services into the HTTP transport and handles
// graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/gophnotes/internal/logging"
	"github.com/dmitrijs2005/gophnotes/internal/server/auth"
	"github.com/dmitrijs2005/gophnotes/internal/server/config"
	"github.com/dmitrijs2005/gophnotes/internal/server/httpapi"
	"github.com/dmitrijs2005/gophnotes/internal/server/ratelimit"
	"github.com/dmitrijs2005/gophnotes/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophnotes/internal/server/richtext"
	"github.com/dmitrijs2005/gophnotes/internal/server/services"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// seams for tests
var (
	sqlOpen        = sql.Open
	newRepoManager = repomanager.NewPostgresRepositoryManager
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	limiter *ratelimit.RateLimiter
	server  *httpapi.HTTPServer
}

// NewApp opens the database, applies migrations and builds the HTTP server.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSON(os.Stdout, c.LogLevel)

	db, err := sqlOpen("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	rm := newRepoManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db migration error: %w", err)
	}

	limiter := ratelimit.NewRateLimiter(ratelimit.Config{
		RPS:             c.RateLimitRPS,
		Burst:           c.RateLimitBurst,
		CleanupInterval: ratelimit.DefaultConfig.CleanupInterval,
	})

	svc := httpapi.Services{
		Notes:     services.NewNoteService(db, rm, richtext.NewSanitizer(), logger),
		Trash:     services.NewTrashService(db, rm, logger),
		Lifecycle: services.NewLifecycleService(db, rm, c, logger),
		Users:     services.NewUserService(db, rm, c, logger),
		Export:    services.NewExportService(db, rm, c, logger),
	}

	srv := httpapi.NewHTTPServer(c.EndpointAddrHTTP, logger, svc, auth.NewJWTVerifier([]byte(c.SecretKey)), limiter)

	if !c.ExportEnabled() {
		logger.Info(ctx, "object storage not configured, exports disabled")
	}

	return &App{config: c, logger: logger, db: db, limiter: limiter, server: srv}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.server.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until ctx is cancelled or a termination signal arrives, then
// releases the limiter and the database.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	app.limiter.Stop()
	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}
