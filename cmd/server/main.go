package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"golang.org/x/sync/errgroup"

	"auszug/internal/artifact"
	"auszug/internal/audit"
	"auszug/internal/fetch"
	"auszug/internal/fulfillment"
	"auszug/internal/fulfillment/metrics"
	fulfillmentstore "auszug/internal/fulfillment/store"
	"auszug/internal/gateway"
	"auszug/internal/geocode"
	"auszug/internal/notify"
	"auszug/internal/platform/config"
	"auszug/internal/platform/httpserver"
	"auszug/internal/platform/logger"
	platformredis "auszug/internal/platform/redis"
	"auszug/internal/reminder"
	remindermetrics "auszug/internal/reminder/metrics"
	reminderstore "auszug/internal/reminder/store"
	"auszug/internal/resolver"
	httptransport "auszug/internal/transport/http"
)

// main wires high-level dependencies and keeps the server lifecycle small.
// Business logic lives in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	upstreamClient := &http.Client{Timeout: cfg.UpstreamTimeout}

	// Stores: PostgreSQL when configured, in-memory otherwise so local
	// development needs no database.
	var (
		orders   fulfillmentstore.OrderStore = fulfillmentstore.NewMemoryOrderStore()
		sessions reminderstore.SessionStore  = reminderstore.NewMemorySessionStore()
		ledgerDB audit.Store                 = audit.NewMemoryStore()
	)
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("pgx", cfg.DatabaseURL)
		if err != nil {
			log.Error("open database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		orders = fulfillmentstore.NewPostgres(db)
		sessions = reminderstore.NewPostgres(db)
		ledgerDB = audit.NewPostgres(db)
	}

	var claims fulfillment.ClaimStore = fulfillment.NewMemoryClaims()
	if redisClient, err := platformredis.New(ctx, cfg.RedisAddr); err != nil {
		log.Warn("redis unavailable, falling back to in-process claims", "error", err)
	} else {
		defer redisClient.Close()
		claims = fulfillment.NewRedisClaims(redisClient)
	}

	ledgerOpts := []audit.PublisherOption{}
	if feed, err := audit.NewKafkaFeed(cfg.KafkaBrokers, cfg.AuditTopic, log); err != nil {
		log.Warn("audit feed unavailable, ledger entries stay local", "error", err)
	} else {
		defer feed.Close(context.Background())
		ledgerOpts = append(ledgerOpts, audit.WithFeed(feed))
	}
	ledger := audit.NewPublisher(ledgerDB, log, ledgerOpts...)

	gatewayClient := gateway.NewClient(cfg.GatewayBaseURL, cfg.GatewayAPIKey, upstreamClient, log)
	parser := gateway.NewParser(gateway.WithNamespaceTolerance())
	normalizer := geocode.New(cfg.GeocoderURL, upstreamClient, log)
	artifacts := artifact.NewService(artifact.NewHTTPStore(cfg.StorageBaseURL, cfg.StorageToken, nil))
	notifier := notify.New(notify.NewHTTPMailer(cfg.MailGatewayURL, cfg.MailGatewayToken, nil), cfg.MailFrom, cfg.OpsEmail, log)

	service := fulfillment.NewService(
		orders,
		claims,
		resolver.New(normalizer, gatewayClient, parser, log),
		fetch.New(gatewayClient, parser, log),
		artifacts,
		ledger,
		notifier,
		log,
		fulfillment.WithMetrics(metrics.New()),
	)

	scheduler := reminder.NewScheduler(sessions, notifier, log,
		reminder.WithMetrics(remindermetrics.New()))

	handler := httptransport.NewHandler(service, ledger, log)
	srv := httpserver.New(cfg.Addr, httptransport.NewRouter(handler, cfg.JWTSigningKey, log))

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		log.Info("starting auszug service", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		err := scheduler.Run(ctx, cfg.ReminderEvery)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		log.Error("service stopped", "error", err)
		os.Exit(1)
	}
}
