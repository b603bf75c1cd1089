package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"BondPulse/internal/handler/api"
	"BondPulse/internal/usecase"
	pkgch "BondPulse/pkg/clickhouse"
	"BondPulse/pkg/config"
	xhttp "BondPulse/pkg/http"
	pkgkafka "BondPulse/pkg/kafka"
	applogger "BondPulse/pkg/logger"
	"BondPulse/pkg/queue"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	screener   *usecase.Screener
	refresher  *usecase.Refresher
	consumer   *pkgkafka.Consumer
	producer   *pkgkafka.Producer
	kh         pkgkafka.MessageHandler
	chClient   *pkgch.Client
	jobQueue   *queue.RedisQueue
	hub        *api.UpdatesHub
	handler    xhttp.Handler
	httpServer *xhttp.Server
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	screener *usecase.Screener,
	refresher *usecase.Refresher,
	consumer *pkgkafka.Consumer,
	producer *pkgkafka.Producer,
	kh pkgkafka.MessageHandler,
	chClient *pkgch.Client,
	jobQueue *queue.RedisQueue,
	hub *api.UpdatesHub,
	handler xhttp.Handler,
) *App {
	return &App{
		cfg:       cfg,
		log:       log,
		screener:  screener,
		refresher: refresher,
		consumer:  consumer,
		producer:  producer,
		kh:        kh,
		chClient:  chClient,
		jobQueue:  jobQueue,
		hub:       hub,
		handler:   handler,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := a.log

	// Push refresh notifications to websocket subscribers.
	if a.hub != nil {
		a.screener.OnRefresh(a.hub.NotifyRefresh)
	}

	// Ship aggregated error logs to Kafka when a log topic is set.
	if a.producer != nil && a.cfg.Kafka.LogTopic != "" {
		l.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   30 * time.Second,
			CountThreshold: 100,
			Topic:          a.cfg.Kafka.LogTopic,
			Publisher:      kafkaLogSink{producer: a.producer},
		})
	}

	a.httpServer = xhttp.NewServer(a.handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)

	// Start the job queue and register the on-demand refresh job.
	if a.jobQueue != nil {
		a.jobQueue.RegisterJob(usecase.NewRefreshJob(a.screener, l))
		if err := a.jobQueue.Start(ctx); err != nil {
			l.Error("job queue start error", applogger.Error(err))
			return err
		}
	}

	// Start periodic refreshes.
	a.refresher.Start(ctx)
	l.Info("refresher started",
		applogger.String("bonds_url", a.cfg.MOEX.BondsURL),
		applogger.Duration("interval", a.cfg.MOEX.RefreshInterval))

	// Start the curve consumer if configured.
	if a.consumer != nil && a.kh != nil {
		a.consumer.RegisterHandler(a.kh)
		go func() {
			if err := a.consumer.Start(); err != nil {
				l.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		l.Info("kafka consumer started", applogger.String("topic", a.kh.Topic()))
	}

	// Start HTTP server
	if err := a.httpServer.Start(); err != nil {
		l.Error("http server start error", applogger.Error(err))
		return err
	}

	// Wait for interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	l.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	l := a.log

	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()

	// Stop the refresh loop first so no run is mid-flight during teardown.
	if err := a.refresher.Stop(shutdownCtx); err != nil {
		l.Warn("refresher stop error", applogger.Error(err))
	}

	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		l.Error("http shutdown error", applogger.Error(err))
	}

	if a.hub != nil {
		a.hub.Close()
	}

	if a.jobQueue != nil {
		if err := a.jobQueue.Stop(shutdownCtx); err != nil {
			l.Warn("job queue stop error", applogger.Error(err))
		}
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			l.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			l.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	l.RemoveCollector()

	l.Info("shutdown complete")
	return nil
}

// kafkaLogSink publishes aggregated log batches through the shared producer.
type kafkaLogSink struct {
	producer *pkgkafka.Producer
}

func (s kafkaLogSink) PublishMessage(ctx context.Context, topic string, payload interface{}) error {
	return s.producer.Publish(ctx, topic, nil, payload)
}
