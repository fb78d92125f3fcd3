package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/tgtdigital45-mvp/tgt-marketplace-sub001/internal/admin"
	"github.com/tgtdigital45-mvp/tgt-marketplace-sub001/internal/auth"
	"github.com/tgtdigital45-mvp/tgt-marketplace-sub001/internal/booking"
	"github.com/tgtdigital45-mvp/tgt-marketplace-sub001/internal/catalog"
	"github.com/tgtdigital45-mvp/tgt-marketplace-sub001/internal/company"
	"github.com/tgtdigital45-mvp/tgt-marketplace-sub001/internal/config"
	"github.com/tgtdigital45-mvp/tgt-marketplace-sub001/internal/db"
	"github.com/tgtdigital45-mvp/tgt-marketplace-sub001/internal/events"
	"github.com/tgtdigital45-mvp/tgt-marketplace-sub001/internal/favorites"
	"github.com/tgtdigital45-mvp/tgt-marketplace-sub001/internal/feed"
	"github.com/tgtdigital45-mvp/tgt-marketplace-sub001/internal/httpapi"
	"github.com/tgtdigital45-mvp/tgt-marketplace-sub001/internal/logging"
	"github.com/tgtdigital45-mvp/tgt-marketplace-sub001/internal/mailer"
	"github.com/tgtdigital45-mvp/tgt-marketplace-sub001/internal/messaging"
	"github.com/tgtdigital45-mvp/tgt-marketplace-sub001/internal/metrics"
	"github.com/tgtdigital45-mvp/tgt-marketplace-sub001/internal/notify"
	"github.com/tgtdigital45-mvp/tgt-marketplace-sub001/internal/order"
	"github.com/tgtdigital45-mvp/tgt-marketplace-sub001/internal/quotes"
	"github.com/tgtdigital45-mvp/tgt-marketplace-sub001/internal/realtime"
	"github.com/tgtdigital45-mvp/tgt-marketplace-sub001/internal/review"
	"github.com/tgtdigital45-mvp/tgt-marketplace-sub001/internal/stats"
	"github.com/tgtdigital45-mvp/tgt-marketplace-sub001/internal/storage"
	"github.com/tgtdigital45-mvp/tgt-marketplace-sub001/internal/wallet"
	"github.com/tgtdigital45-mvp/tgt-marketplace-sub001/internal/worker"
)

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		panic(err)
	}

	log := logging.New(cfg.Logging, cfg.App)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := db.Migrate(cfg.Database); err != nil {
		log.Fatal().Err(err).Msg("migrations failed")
	}
	pool, err := db.New(ctx, cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	defer pool.Close()

	var rdb *redis.Client
	if cfg.Redis.Address != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn().Err(err).Msg("redis unreachable, caching and fan-out disabled")
			rdb = nil
		}
	}

	mtr := metrics.New()
	bus := events.NewBus()
	hub := realtime.NewHub(rdb, log, mtr)
	store := storage.New(cfg.Storage.Root, cfg.Storage.PublicURL, []byte(cfg.Storage.SignKey))

	notifier := notify.NewNotifier(pool, log, hub, mtr)
	notifier.Wire(bus)

	// Transactional email rides the same redis instance via asynq.
	var (
		enqueuer  *mailer.Enqueuer
		processor *mailer.Processor
	)
	plunk := mailer.NewPlunkClient(cfg.Mail)
	if rdb != nil && plunk != nil {
		opt := asynq.RedisClientOpt{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}
		enqueuer = mailer.NewEnqueuer(opt, log)
		enqueuer.Wire(bus)
		processor = mailer.NewProcessor(opt, pool, log, plunk)
		if err := processor.Start(); err != nil {
			log.Fatal().Err(err).Msg("mail processor start failed")
		}
	} else {
		log.Info().Msg("transactional email disabled")
	}

	stripeClient := wallet.NewStripeClient(cfg.Stripe)
	geminiClient := wallet.NewGeminiClient(cfg.Gemini)

	handlers := httpapi.Handlers{
		Auth:      auth.NewHandler(pool, log, bus, []byte(cfg.Auth.JWTSecret), time.Duration(cfg.Auth.TokenTTL)*time.Hour),
		Catalog:   catalog.NewHandler(pool, log, store),
		Company:   company.NewHandler(pool, log, store),
		Booking:   booking.NewHandler(pool, log, bus, mtr),
		Order:     order.NewHandler(pool, log, bus, mtr, store),
		Wallet:    wallet.NewHandler(pool, log, mtr, stripeClient, geminiClient),
		Review:    review.NewHandler(pool, log),
		Feed:      feed.NewHandler(pool, log, rdb),
		Messaging: messaging.NewHandler(pool, log, hub, bus, store),
		Notify:    notify.NewHandler(pool, log, hub),
		Favorites: favorites.NewHandler(pool, log),
		Stats:     stats.NewHandler(pool, log),
		Quotes:    quotes.NewHandler(pool, log, bus),
		Admin:     admin.NewHandler(pool, log, bus),
	}

	srv := httpapi.New(*cfg, log, pool, rdb, mtr, store, handlers)

	jobs := worker.New(pool, log, notifier)
	if err := jobs.Start(cfg.Worker); err != nil {
		log.Fatal().Err(err).Msg("worker start failed")
	}

	go func() {
		if err := srv.Start(); err != nil {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown failed")
	}
	jobs.Stop()
	if processor != nil {
		processor.Stop()
	}
	_ = enqueuer.Close()
	if rdb != nil {
		_ = rdb.Close()
	}
}
