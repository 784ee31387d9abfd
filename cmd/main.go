package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"observo/internal/broadcast"
	"observo/internal/config"
	"observo/internal/consumer"
	"observo/internal/dedup"
	"observo/internal/handlers"
	"observo/internal/lifecycle"
	"observo/internal/logger"
	"observo/internal/metrics"
	"observo/internal/notify"
	"observo/internal/pipeline"
	"observo/internal/repository"
	"observo/internal/repository/db"
	"observo/internal/server"
	"observo/internal/service"
)

const shutdownStepTimeout = 10 * time.Second

// @title        Observo Log Service
// @version      1.0
// @description  Kafka log ingestion with realtime streaming, settings and alerting.
// @BasePath     /
func main() {
	cfg, err := config.Load("configs")
	if err != nil {
		logger.New(logger.InfoLevel).Fatalw("error reading config", "err", err)
	}

	// init logger
	log := logger.NewWithFormat(cfg.Log.Level, cfg.Log.Format)
	defer func() { _ = log.Sync() }()

	// open DB
	conn, err := db.InitDB(cfg.DB.Driver, cfg.DB.DSN)
	if err != nil {
		log.Fatalw("failed to init database", "driver", cfg.DB.Driver, "err", err)
	}

	// context for background goroutines
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := metrics.New()
	store := openDedup(ctx, cfg, log)

	emailSender, err := notify.NewEmailSender(ctx, cfg.Notify, log.Named("email"))
	if err != nil {
		log.Warnw("email disabled", "provider", cfg.Notify.Email.Provider, "err", err)
	}
	dispatcher := notify.NewDispatcher(notify.Options{
		From:    cfg.Notify.From,
		Email:   emailSender,
		Retry:   notify.DefaultRetryConfig(),
		Log:     log.Named("notify"),
		Metrics: m,
	})

	// wire dependencies
	repos := repository.NewRepository(conn, cfg.DB.Driver)
	services := service.NewService(repos, dispatcher, log, m)
	hub := broadcast.NewHub(cfg.WS.SendBuffer, log.Named("hub"), m)

	pipe := pipeline.New(pipeline.Deps{
		Store:   repos.Logs,
		Hub:     hub,
		Alerts:  services.Alerts,
		Dedup:   store,
		Log:     log.Named("pipeline"),
		Metrics: m,
	})

	topics := cfg.KafkaTopics()
	reader := consumer.NewReader(cfg.Kafka, topics)
	cons := consumer.New(reader, pipe, consumer.Options{
		CommitEvery:    cfg.Kafka.CommitEvery,
		CommitInterval: cfg.Kafka.CommitInterval,
		MessageTimeout: cfg.Pipeline.MessageTimeout,
	}, log.Named("consumer"), m)
	log.Infow("consuming", "brokers", cfg.Kafka.Brokers, "topics", topics, "group", cfg.Kafka.GroupID)

	consumerDone := make(chan struct{})
	go func() {
		defer close(consumerDone)
		if err := cons.Run(ctx); err != nil {
			log.Errorw("consumer stopped", "err", err)
		}
	}()

	// background loops stop on their own context so the consumer can
	// drain first
	bgCtx, bgCancel := context.WithCancel(context.Background())
	var bg sync.WaitGroup
	bg.Add(2)
	go func() { defer bg.Done(); services.Prober.Run(bgCtx) }()
	go func() { defer bg.Done(); services.Retention.Run(bgCtx, cfg.Retention.SweepInterval) }()

	// start HTTP server
	apiHandler := handlers.NewHandler(services, hub, cons, m, log.Named("http"))
	srv := server.New()
	runHTTPServer(srv, cfg.Port, apiHandler, log)

	coord := lifecycle.NewCoordinator(log.Named("shutdown"), shutdownStepTimeout)
	coord.Add("consumer", func(stepCtx context.Context) error {
		cancel()
		return lifecycle.WaitFunc(consumerDone)(stepCtx)
	})
	coord.Add("background", func(stepCtx context.Context) error {
		bgCancel()
		done := make(chan struct{})
		go func() { bg.Wait(); close(done) }()
		return lifecycle.WaitFunc(done)(stepCtx)
	})
	coord.Add("subscribers", func(context.Context) error {
		hub.CloseAll()
		return nil
	})
	coord.Add("http", srv.Shutdown)
	coord.AddCloser("kafka reader", cons.Close)
	if store != nil {
		coord.AddCloser("dedup", store.Close)
	}
	coord.AddCloser("database", conn.Close)

	// graceful shutdown
	waitForShutdown(coord, log)
}

// openDedup returns the Redis store when configured, falling back to the
// in-process one.
func openDedup(ctx context.Context, cfg config.Config, log *logger.Logger) dedup.Store {
	if !cfg.Dedup.Enabled {
		return nil
	}
	if cfg.Redis.Addr != "" {
		r, err := dedup.ConnectRedis(ctx, cfg.Redis.Addr, cfg.Dedup.TTL)
		if err == nil {
			log.Infow("dedup store", "backend", "redis", "addr", cfg.Redis.Addr)
			return r
		}
		log.Warnw("redis unavailable, using in-memory dedup", "addr", cfg.Redis.Addr, "err", err)
	}
	return dedup.NewMemory(cfg.Dedup.MaxKeys, cfg.Dedup.TTL)
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		if err := srv.Run(port, handler.InitRoutes()); err != nil {
			log.Fatalw("error starting server", "err", err)
		}
	}()
	log.Infow("http listening", "port", port)
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(coord *lifecycle.Coordinator, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Infow("shutting down", "signal", sig.String())

	if err := coord.Shutdown(context.Background()); err != nil {
		log.Errorw("shutdown finished with errors", "err", err)
		return
	}
	log.Infow("shutdown complete")
}
