package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/samirrijal/walkies/internal/adapters/http"
	"github.com/samirrijal/walkies/internal/adapters/mapbox"
	"github.com/samirrijal/walkies/internal/adapters/memory"
	natsadapter "github.com/samirrijal/walkies/internal/adapters/nats"
	"github.com/samirrijal/walkies/internal/adapters/nominatim"
	"github.com/samirrijal/walkies/internal/adapters/postgres"
	"github.com/samirrijal/walkies/internal/adapters/seed"
	"github.com/samirrijal/walkies/internal/adapters/valkey"
	"github.com/samirrijal/walkies/internal/core/domain"
	"github.com/samirrijal/walkies/internal/core/ports"
	"github.com/samirrijal/walkies/internal/core/usecases"
	"github.com/samirrijal/walkies/internal/pkg/config"
	"github.com/samirrijal/walkies/internal/pkg/logging"
	"github.com/samirrijal/walkies/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("walkies-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Structured logging
	logging.Setup(logging.FromEnv("walkies-api"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Reference spaces: database when enabled, embedded list otherwise
	fallback, err := seed.Spaces()
	if err != nil {
		log.Fatalf("seed spaces: %v", err)
	}
	var (
		db       *postgres.DB
		refRepo  ports.ReferenceSpaceRepository
		defaults *usecases.DefaultSpaces
	)
	if cfg.Database.Enabled {
		db, err = postgres.New(ctx, cfg.Database.DSN())
		if err != nil {
			slog.Warn("database unavailable, using built-in spaces", "error", err)
		} else {
			defer db.Close()
			go db.ReportStats(ctx, 15*time.Second)
			refRepo = postgres.NewReferenceSpaceRepo(db)
		}
	}
	defaults = usecases.LoadDefaultSpaces(ctx, refRepo, fallback)

	// Cache
	var cacheSvc ports.CacheService
	cache, err := valkey.New(cfg.Valkey.Addr,
		valkey.WithPrefix(cfg.Valkey.Prefix),
		valkey.WithLocalTTL(cfg.Valkey.LocalTTL),
	)
	if err != nil {
		slog.Warn("valkey unavailable", "error", err)
	} else {
		defer cache.Close()
		cacheSvc = cache
	}

	// NATS: JetStream publisher; the WebSocket relay shares its connection
	var (
		publisher ports.EventPublisher
		events    *natsadapter.Subscriber
	)
	nc, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable, session events disabled", "error", err)
	} else {
		defer nc.Close()
		publisher = nc
		events = natsadapter.NewSubscriber(nc.Conn())
	}

	// Upstream services
	geocoder := nominatim.New(cfg.Geocoder.BaseURL, cfg.Geocoder.UserAgent, cfg.Geocoder.Timeout)
	resolver := usecases.NewLocationResolver(geocoder, cacheSvc, cfg.Geocoder.Suffix)

	var directions ports.DirectionsProvider
	if cfg.Directions.AccessToken != "" {
		directions = usecases.NewCachedDirections(
			mapbox.NewDirections(cfg.Directions.BaseURL, cfg.Directions.AccessToken, cfg.Directions.Timeout),
			cacheSvc,
		)
	} else {
		slog.Warn("directions access token not set, routing disabled")
	}

	// Sessions
	mapOpts := usecases.DefaultMapOptions()
	mapOpts.Fallback = domain.GeoPoint{Lat: cfg.Map.FallbackLat, Lng: cfg.Map.FallbackLng}
	mapOpts.FocusZoom = cfg.Map.FocusZoom
	mapOpts.OverviewZoom = cfg.Map.OverviewZoom

	store := memory.NewSessionStore(cfg.Session.TTL)
	sessions := usecases.NewSessionService(
		store,
		defaults,
		resolver,
		directions,
		usecases.NewMapSynchronizer(mapOpts),
		publisher,
		cfg.Session.MaxChecked,
	)
	store.OnEvict(sessions.Release)
	go store.Run(ctx, cfg.Session.SweepInterval)

	navigation := usecases.NewNavigationService(sessions, cfg.Session.GeolocationTimeout)
	defer navigation.Close()

	deps := &http.Dependencies{
		Sessions:   sessions,
		Navigation: navigation,
		Resolver:   resolver,
		Events:     events,
		DB:         db,
		Cache:      cache,
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024, // 1 MB max request body
		AppName:      "Walkies API",
	})
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowOrigins,
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept",
		AllowCredentials: cfg.Server.AllowOrigins != "*", // legend cookie
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr, "reference_spaces", defaults.Len())
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	// Give in-flight requests up to 10s to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
