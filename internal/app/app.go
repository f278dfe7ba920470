// Package app wires configuration, storage backends, services and HTTP
// routes into a runnable server.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/realestate-classifieds/internal/config"
	"github.com/iliyamo/realestate-classifieds/internal/database"
	"github.com/iliyamo/realestate-classifieds/internal/handler"
	"github.com/iliyamo/realestate-classifieds/internal/logger"
	"github.com/iliyamo/realestate-classifieds/internal/metrics"
	"github.com/iliyamo/realestate-classifieds/internal/middleware"
	"github.com/iliyamo/realestate-classifieds/internal/migrations"
	"github.com/iliyamo/realestate-classifieds/internal/queue"
	"github.com/iliyamo/realestate-classifieds/internal/quota"
	"github.com/iliyamo/realestate-classifieds/internal/repository"
	"github.com/iliyamo/realestate-classifieds/internal/router"
	"github.com/iliyamo/realestate-classifieds/internal/service"
	"github.com/iliyamo/realestate-classifieds/internal/session"
	"github.com/iliyamo/realestate-classifieds/internal/storage"
	"github.com/iliyamo/realestate-classifieds/internal/validate"
)

const shutdownTimeout = 15 * time.Second

type App struct {
	cfg      config.Config
	log      *slog.Logger
	echo     *echo.Echo
	db       *sql.DB
	rdb      *redis.Client
	sessions *session.Manager
	consumer *queue.Consumer
}

// New connects to MySQL (running pending migrations) and, when reachable,
// Redis, then builds the HTTP server.  Redis is optional: without it the
// response cache is off, rate limiting is per process and session change
// notifications are not delivered.
func New(cfg config.Config, log *slog.Logger) (*App, error) {
	db, err := database.Open(database.Options{
		User: cfg.DBUser, Pass: cfg.DBPass, Host: cfg.DBHost, Port: cfg.DBPort, Name: cfg.DBName,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := migrations.Run(db, cfg.MigrationsPath); err != nil {
		_ = db.Close()
		return nil, err
	}

	rdb, err := config.NewRedisClient(config.LoadRedisConfig())
	if err != nil {
		log.Warn("redis unavailable, continuing without it", logger.Err(err))
		rdb = nil
	}

	store, err := storage.New(cfg.Storage)
	if err != nil {
		if rdb != nil {
			_ = rdb.Close()
		}
		_ = db.Close()
		return nil, fmt.Errorf("storage: %w", err)
	}

	var events service.Publisher = queue.NopPublisher{}
	if cfg.Events.Enabled {
		events = queue.NewPublisher(cfg.Events.URL, cfg.Events.Queue)
	}

	m := metrics.New()

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	roles := repository.NewRoleRepo(db)
	quotas := repository.NewQuotaRepo(db)
	listings := repository.NewListingRepo(db)
	featured := repository.NewFeaturedRepo(db)
	catalog := repository.NewCatalogRepo(db)

	evaluator := quota.NewEvaluator(quotas, listings, quota.Policy{
		DefaultLimit:      cfg.Quota.DefaultLimit,
		ImplicitCanMutate: cfg.Quota.ImplicitCanMutate,
	}, log)
	sessions := session.NewManager(session.NewResolver(roles, log), rdb, cfg.JWTSecret)

	listingSvc := service.NewListingService(listings, featured, catalog, users, evaluator, store, events, m,
		service.ListingOptions{MaxImages: cfg.Storage.MaxImages, MaxUploadBytes: cfg.Storage.MaxUploadBytes}, log)
	featuredSvc := service.NewFeaturedService(featured, listings)
	adminSvc := service.NewAdminService(users, quotas, roles, sessions, events, cfg.Quota.DefaultLimit, log)

	e := echo.New()
	e.HideBanner = true
	e.Validator = validate.New()

	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(log))
	e.Use(middleware.Metrics(m))
	e.Use(echomw.Recover())
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	router.RegisterRoutes(e, db, m, cfg.PaymentProof)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, tokens, sessions))
	router.RegisterCatalog(e, handler.NewCatalogHandler(catalog), middleware.NewRedisCache(config.LoadCacheConfig(), rdb))

	listingH := handler.NewListingHandler(listingSvc, featuredSvc)
	router.RegisterPublic(e, listingH)
	router.RegisterAccount(e, handler.NewSessionHandler(sessions, evaluator, listingSvc), listingH, cfg.JWTSecret, sessions.Resolver())
	router.RegisterAdmin(e, handler.NewAdminHandler(listingSvc, adminSvc), cfg.JWTSecret, sessions.Resolver())
	if strings.EqualFold(cfg.Storage.Type, "local") || cfg.Storage.Type == "" {
		router.RegisterUploads(e, cfg.Storage.BasePath)
	}

	a := &App{cfg: cfg, log: log, echo: e, db: db, rdb: rdb, sessions: sessions}
	if cfg.Events.ConsumerEnabled {
		a.consumer = queue.NewConsumer(cfg.Events.URL, cfg.Events.Queue, cfg.Events.LogDir, log)
	}
	return a, nil
}

// Handler exposes the router, mainly for tests.
func (a *App) Handler() http.Handler { return a.echo }

// Run serves HTTP until ctx is cancelled, then shuts down: the server stops
// accepting requests, live session streams are closed, the consumer stops
// and the connections are released.
func (a *App) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	consumerCtx, stopConsumer := context.WithCancel(context.Background())
	defer stopConsumer()
	if a.consumer != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := a.consumer.Run(consumerCtx); err != nil && !errors.Is(err, context.Canceled) {
				a.log.Error("events consumer stopped", logger.Err(err))
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + a.cfg.Port
		a.log.Info("listening", slog.String("addr", addr), slog.String("env", a.cfg.Env))
		err := a.echo.Start(addr)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		errCh <- err
	}()

	var err error
	select {
	case err = <-errCh:
	case <-ctx.Done():
		a.log.Info("shutting down")
		// SSE handlers block until their tracker closes, so close sessions
		// before waiting on in-flight requests.
		a.sessions.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err = a.echo.Shutdown(shutdownCtx)
	}

	stopConsumer()
	wg.Wait()
	a.sessions.Close()
	if a.rdb != nil {
		_ = a.rdb.Close()
	}
	_ = a.db.Close()
	return err
}
