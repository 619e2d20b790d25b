package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"hotel_pms/internal/adapters/channel"
	"hotel_pms/internal/adapters/observability"
	redisad "hotel_pms/internal/adapters/redis"
	"hotel_pms/internal/app"
	"hotel_pms/internal/domain"
	"hotel_pms/internal/pricing"
	"hotel_pms/internal/shared"
	mongostore "hotel_pms/internal/storage/mongo"
	mysqlrepo "hotel_pms/internal/storage/mysql"
)

type worker struct {
	cfg      shared.Config
	props    domain.PropertyRepository
	sync     *app.ChannelSync
	hk       *app.HousekeepingService
	bookings *app.BookingService
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := shared.Load()

	// 1) initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, "pms-worker")
	observability.Serve(cfg.MetricsAddr, observability.InitRegistry())

	log.Info().
		Str("channel", cfg.ChannelBase).
		Int("workers", cfg.SyncWorkers).
		Int("days", cfg.SyncDays).
		Dur("every", cfg.WorkerEvery).
		Msg("worker starting")

	db, err := mysqlrepo.Open(ctx, cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	defer db.Close()
	log.Info().Msg("db ping ok")

	repo := mysqlrepo.New(db)
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cache.Close()

	var audit domain.AuditLog = mongostore.NopAudit{}
	if cfg.MongoURI != "" {
		client, err := mongostore.Connect(ctx, cfg.MongoURI)
		if err != nil {
			log.Fatal().Err(err).Msg("mongo connection failed")
		}
		defer func() { _ = client.Disconnect(context.Background()) }()
		if audit, err = mongostore.NewAuditLog(ctx, client, cfg.MongoDB); err != nil {
			log.Fatal().Err(err).Msg("audit log init failed")
		}
	}

	rules, err := pricing.LoadRules(cfg.PricingFile, cfg.TaxPercent)
	if err != nil {
		log.Fatal().Err(err).Msg("pricing rules")
	}
	avail := app.NewAvailabilityService(repo, repo, cache, rules, cfg.CacheTTL)
	hk := app.NewHousekeepingService(repo, repo, repo)
	alloc := app.NewAllocator(repo, 1, 64)

	w := &worker{
		cfg:      cfg,
		props:    repo,
		hk:       hk,
		bookings: app.NewBookingService(repo, repo, avail, app.NewPromotionService(repo, repo, repo, avail), hk, alloc, audit),
	}
	if cfg.ChannelBase != "" {
		client, err := channel.New(cfg.ChannelBase, cfg.ChannelKey, cfg.ChannelRPS)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize channel client")
		}
		w.sync = app.NewChannelSync(client, repo, repo)
	} else {
		log.Warn().Msg("CHANNEL_BASE_URL not set; skipping channel sync")
	}

	w.runOnce(ctx)
	if cfg.WorkerEvery <= 0 {
		return
	}
	t := time.NewTicker(cfg.WorkerEvery)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("worker stopped")
			return
		case <-t.C:
			w.runOnce(ctx)
		}
	}
}

func (w *worker) runOnce(ctx context.Context) {
	start := time.Now()

	if w.sync != nil {
		res, err := w.sync.SyncAll(ctx, w.cfg.SyncDays, w.cfg.SyncWorkers)
		if err != nil {
			log.Error().Err(err).Msg("channel sync aborted")
		}
		log.Info().Int("pushed", res.Pushed).Int("failed", res.Failed).Msg("channel sync completed")
	}

	if err := w.stayovers(ctx); err != nil {
		log.Error().Err(err).Msg("stayover generation failed")
	}

	n, err := w.bookings.SweepNoShows(ctx)
	if err != nil {
		log.Error().Err(err).Msg("no-show sweep failed")
	}
	log.Info().Int("no_shows", n).Dur("took", time.Since(start)).Msg("worker pass completed")
}

// stayovers creates today's stayover cleaning tasks for every property.
func (w *worker) stayovers(ctx context.Context) error {
	props, err := w.props.ListProperties(ctx)
	if err != nil {
		return err
	}
	today := time.Now()
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(w.cfg.SyncWorkers, 1))
	for _, p := range props {
		g.Go(func() error {
			n, err := w.hk.GenerateStayoverTasks(ctx, p.ID, today)
			if err != nil {
				log.Warn().Int64("property_id", p.ID).Err(err).Msg("stayover tasks failed")
				return nil
			}
			log.Info().Int64("property_id", p.ID).Int("created", n).Msg("stayover tasks ok")
			return nil
		})
	}
	return g.Wait()
}
