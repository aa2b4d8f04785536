package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"GridPulse/internal/usecase"
	pkgch "GridPulse/pkg/clickhouse"
	"GridPulse/pkg/config"
	xhttp "GridPulse/pkg/http"
	pkgkafka "GridPulse/pkg/kafka"
	applogger "GridPulse/pkg/logger"
	"GridPulse/pkg/queue"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg         *config.Config
	logger      *applogger.Logger
	collector   *usecase.ObservationCollector
	consumer    *pkgkafka.Consumer
	obs         pkgkafka.MessageHandler
	forecasts   pkgkafka.MessageHandler
	chClient    *pkgch.Client
	httpServer  *xhttp.Server
	httpHandler xhttp.Handler
	worker      *queue.RedisQueue
	ObsProc     *usecase.ObservationProcessor
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	lgr *applogger.Logger,
	collector *usecase.ObservationCollector,
	consumer *pkgkafka.Consumer,
	obs pkgkafka.MessageHandler,
	forecasts pkgkafka.MessageHandler,
	chClient *pkgch.Client,
) *App {
	return &App{
		cfg:       cfg,
		logger:    lgr,
		collector: collector,
		consumer:  consumer,
		obs:       obs,
		forecasts: forecasts,
		chClient:  chClient,
	}
}

// SetHTTPHandler allows DI to inject an HTTP handler.
func (a *App) SetHTTPHandler(h xhttp.Handler) { a.httpHandler = h }

// SetQueueWorker attaches the in-process training queue worker. Nil means
// queue dispatch is off or an external worker drains the queue.
func (a *App) SetQueueWorker(w *queue.RedisQueue) { a.worker = w }

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := a.logger
	if l == nil {
		l, _ = applogger.New(&applogger.Config{Level: "info", Format: "console", Output: "stdout"})
	}

	a.httpServer = xhttp.NewServer(a.httpHandler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)

	// Start telemetry collector
	go func() {
		if err := a.collector.Start(ctx); err != nil {
			l.Error("collector error", applogger.Error(err))
		}
	}()
	l.Info("collector started", applogger.Strings("channels", a.cfg.Telemetry.Channels))

	// Start consumer if configured
	if a.consumer != nil && a.obs != nil {
		a.consumer.RegisterHandler(a.obs)
		topics := []string{a.obs.Topic()}
		if a.forecasts != nil {
			a.consumer.RegisterHandler(a.forecasts)
			topics = append(topics, a.forecasts.Topic())
		}
		go func() {
			if err := a.consumer.Start(); err != nil {
				l.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		l.Info("kafka consumer started", applogger.Strings("topics", topics))
	}

	// Start training queue worker if configured
	if a.worker != nil {
		if err := a.worker.Start(); err != nil {
			l.Error("queue worker start error", applogger.Error(err))
		} else {
			a.worker.StartRetryProcessor()
			l.Info("training queue worker started")
		}
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
	return a.shutdown(ctx, l)
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context, l *applogger.Logger) error {
	l.Info("shutting down...")

	// Stop collector (pipeline + stream)
	if err := a.collector.Shutdown(ctx); err != nil {
		l.Warn("collector stop error", applogger.Error(err))
	}

	// Shutdown HTTP server
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		l.Error("http shutdown error", applogger.Error(err))
	}

	// Stop consumer
	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			l.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	// Stop queue worker
	if a.worker != nil {
		if err := a.worker.Stop(shutdownCtx); err != nil {
			l.Warn("queue worker stop error", applogger.Error(err))
		}
	}

	// Final audit flush has to happen while the producer is still open
	l.RemoveCollector()

	// Close observation processor resources (publisher/storage)
	if a.ObsProc != nil {
		a.ObsProc.Close()
	}

	// Close infrastructure clients
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			l.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	l.Info("shutdown complete")
	return nil
}
