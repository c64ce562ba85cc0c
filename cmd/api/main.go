package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/diagnosis/inkbook/internal/graph"
	"github.com/diagnosis/inkbook/internal/http/handlers"
	"github.com/diagnosis/inkbook/internal/payments"
	"github.com/diagnosis/inkbook/internal/realtime"
	"github.com/diagnosis/inkbook/internal/repo/postgres"
	"github.com/diagnosis/inkbook/internal/service"
	"github.com/diagnosis/inkbook/internal/storage"
	"github.com/diagnosis/inkbook/pkg/cache"
	"github.com/diagnosis/inkbook/pkg/config"
	"github.com/diagnosis/inkbook/pkg/database"
	"github.com/diagnosis/inkbook/pkg/events"
	"github.com/diagnosis/inkbook/pkg/logger"
	pkgmw "github.com/diagnosis/inkbook/pkg/middleware"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg := config.Load()
	logger.SetOutput(os.Stdout, os.Getenv("LOG_LEVEL"), "api")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect to database
	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	rdb, err := cache.Connect(ctx, cfg.Redis)
	if err != nil {
		logger.Error("Invalid Redis configuration", "error", err)
		os.Exit(1)
	}
	defer rdb.Close()

	// Connect to event bus
	var bus events.EventBus = events.NopBus{}
	if nb, err := events.NewNATSEventBus(cfg.NATS.URL, "inkbook-api"); err != nil {
		logger.Warn("NATS unavailable, events will be dropped", "error", err)
	} else {
		bus = nb
	}
	defer bus.Close()

	gateway := payments.NewStripeGateway(cfg.Stripe)
	if !gateway.Enabled() {
		logger.Warn("Stripe not configured, deposits are disabled")
	}
	images := storage.NewSupabaseStore(cfg.Storage)
	if !images.Enabled() {
		logger.Warn("Supabase storage not configured, image uploads are disabled")
	}

	hub := realtime.NewHub()

	// Initialize repositories
	users := postgres.NewUsersRepo(pool)
	artists := postgres.NewArtistsRepo(pool)
	designs := postgres.NewDesignsRepo(pool)
	slots := postgres.NewSlotsRepo(pool)
	bookings := postgres.NewBookingRepo(pool)
	idempotency := postgres.NewIdempotencyRepo(pool)
	waivers := postgres.NewWaiversRepo(pool)
	verifications := postgres.NewVerificationRepo(pool)
	messages := postgres.NewMessagesRepo(pool)
	consultations := postgres.NewConsultationsRepo(pool)
	reviews := postgres.NewReviewsRepo(pool)

	// Initialize services
	svcs := handlers.Services{
		Accounts: service.NewAccountService(users, rdb, cfg),
		Artists:  service.NewArtistService(artists, rdb, cfg),
		Designs:  service.NewDesignService(designs, artists, images),
		Bookings: service.NewBookingService(service.BookingDeps{
			Slots:         slots,
			Bookings:      bookings,
			Idempotency:   idempotency,
			Artists:       artists,
			Users:         users,
			Waivers:       waivers,
			Verifications: verifications,
			Payments:      gateway,
			EventBus:      bus,
		}, cfg),
		Messaging:     service.NewMessagingService(messages, users, hub, bus),
		Consultations: service.NewConsultationService(consultations, artists, users, bus),
		Waivers:       service.NewWaiverService(waivers, artists),
		Verification:  service.NewVerificationService(verifications, cfg),
		Reviews:       service.NewReviewService(reviews, bookings, artists, rdb),
	}

	schema := graph.NewSchema(graph.NewResolver(svcs.Accounts, svcs.Artists, svcs.Designs, svcs.Bookings))

	router := handlers.NewRouter(handlers.New(svcs, cfg.Storage.MaxUpload), handlers.RouterConfig{
		JWTSecret:      cfg.Auth.JWTSecret,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		AuthLimiter:    cache.NewRateLimiter(rdb, cfg.Server.AuthRateLimit, cfg.Server.AuthRateWindow, "rl:auth"),
		Idempotency:    rdb,
		IdempotencyTTL: cfg.Booking.IdempotencyTTL,
		GraphQL:        graph.Handler(schema),
		WS:             realtime.NewHandler(hub, cfg.Auth.JWTSecret, cfg.Server.AllowedOrigins),
		HealthChecks: map[string]pkgmw.HealthCheck{
			"database": pool.Ping,
			"redis":    rdb.Ping,
		},
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting api", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error { return hub.Run(gctx) })
	g.Go(func() error { return svcs.Bookings.RunCleanup(gctx) })
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down api...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("API exited with error", "error", err)
		os.Exit(1)
	}
}
