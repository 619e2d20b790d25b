package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	server "hotel_pms/internal/adapters/http_server"
	"hotel_pms/internal/adapters/observability"
	redisad "hotel_pms/internal/adapters/redis"
	"hotel_pms/internal/app"
	"hotel_pms/internal/domain"
	"hotel_pms/internal/pricing"
	"hotel_pms/internal/shared"
	mongostore "hotel_pms/internal/storage/mongo"
	mysqlrepo "hotel_pms/internal/storage/mysql"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, "pms-api")

	reg := observability.InitRegistry()
	observability.Serve(cfg.MetricsAddr, reg)

	// db
	db, err := mysqlrepo.Open(ctx, cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	defer db.Close()
	log.Info().Msg("database connection ok")

	// deps
	repo := mysqlrepo.New(db)
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cache.Close()
	if err := cache.Ping(ctx); err != nil {
		log.Warn().Err(err).Msg("redis unreachable, serving without cache until it recovers")
	}

	var audit domain.AuditLog = mongostore.NopAudit{}
	if cfg.MongoURI != "" {
		client, err := mongostore.Connect(ctx, cfg.MongoURI)
		if err != nil {
			log.Fatal().Err(err).Msg("mongo connection failed")
		}
		defer func() { _ = client.Disconnect(context.Background()) }()
		a, err := mongostore.NewAuditLog(ctx, client, cfg.MongoDB)
		if err != nil {
			log.Fatal().Err(err).Msg("audit log init failed")
		}
		audit = a
	} else {
		log.Warn().Msg("MONGO_URI not set; booking history is not recorded")
	}

	rules, err := pricing.LoadRules(cfg.PricingFile, cfg.TaxPercent)
	if err != nil {
		log.Fatal().Err(err).Str("file", cfg.PricingFile).Msg("pricing rules")
	}

	alloc := app.NewAllocator(repo, cfg.Allocators, 512)
	allocDone := make(chan struct{})
	go func() {
		defer close(allocDone)
		alloc.Run(ctx)
	}()

	props := app.NewPropertyService(repo)
	avail := app.NewAvailabilityService(repo, repo, cache, rules, cfg.CacheTTL)
	promos := app.NewPromotionService(repo, repo, repo, avail)
	hk := app.NewHousekeepingService(repo, repo, repo)
	auth := app.NewAuthService(repo, cfg.JWTSecret, cfg.JWTTTL)

	// http
	proxies, err := server.ParseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid TRUSTED_PROXIES")
	}
	srv := server.New(server.Options{CORSOrigins: cfg.CORSOrigins, TrustedProxies: proxies})
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{
		Properties:   props,
		Availability: avail,
		Bookings:     app.NewBookingService(repo, repo, avail, promos, hk, alloc, audit),
		Promotions:   promos,
		Housekeeping: hk,
		POS:          app.NewPOSService(repo, repo, repo),
		Events:       app.NewEventService(repo, repo),
		Inventory:    app.NewInventoryService(repo),
		Analytics:    app.NewAnalyticsService(repo, repo, cache, cfg.CacheTTL),
		Auth:         auth,
		Health:       repo.Ping,
		Limiter:      server.NewIPLimiter(cfg.RateRPS, cfg.RateBurst),
	})

	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Mux(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("http shutdown failed")
		}
	}()

	log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("http server failed")
	}

	// the allocator finishes queued work once ctx is cancelled
	stop()
	<-allocDone
	log.Info().Msg("API stopped")
}
