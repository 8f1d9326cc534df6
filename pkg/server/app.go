package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"StockCast/internal/domain/repository"
	"StockCast/internal/scheduler"
	"StockCast/internal/usecase"
	pkgch "StockCast/pkg/clickhouse"
	"StockCast/pkg/config"
	xhttp "StockCast/pkg/http"
	pkgkafka "StockCast/pkg/kafka"
	applogger "StockCast/pkg/logger"
	"StockCast/pkg/queue"
)

// App owns the application lifecycle: the HTTP API, the retrain queue,
// the scheduler and the optional live-tick ingress, started together
// and stopped in reverse order.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	handler    xhttp.Handler
	queue      queue.Queue
	scheduler  *scheduler.Scheduler
	collector  *usecase.Collector
	consumer   *pkgkafka.Consumer
	events     repository.EventPublisher
	runs       repository.RunStore
	versions   repository.VersionStore
	chClient   *pkgch.Client
	httpServer *xhttp.Server
}

// New creates the App. Scheduler, collector, consumer and the
// ClickHouse client may be nil when the matching feature is disabled.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	handler xhttp.Handler,
	q queue.Queue,
	sched *scheduler.Scheduler,
	collector *usecase.Collector,
	consumer *pkgkafka.Consumer,
	events repository.EventPublisher,
	runs repository.RunStore,
	versions repository.VersionStore,
	chClient *pkgch.Client,
) *App {
	return &App{
		cfg:       cfg,
		log:       log,
		handler:   handler,
		queue:     q,
		scheduler: sched,
		collector: collector,
		consumer:  consumer,
		events:    events,
		runs:      runs,
		versions:  versions,
		chClient:  chClient,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := a.queue.Start(); err != nil {
		return err
	}

	if a.scheduler != nil {
		if err := a.scheduler.Start(); err != nil {
			return err
		}
	}

	if a.collector != nil {
		go func() {
			if err := a.collector.Start(ctx); err != nil {
				a.log.Error("collector error", applogger.Error(err))
			}
		}()
		a.log.Info("tick collector started", applogger.Int("tickers", len(a.cfg.MarketData.Tickers)))
	}

	if a.consumer != nil {
		go func() {
			if err := a.consumer.Start(); err != nil {
				a.log.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		a.log.Info("kafka tick ingress started", applogger.String("topic", a.cfg.Kafka.TicksTopic))
	}

	serverOpts := []xhttp.ServerOption{
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithLogger(a.log),
	}
	if a.cfg.Metrics.Enabled {
		serverOpts = append(serverOpts, xhttp.WithMetrics(time.Second))
	}
	a.httpServer = xhttp.NewServer(a.handler, serverOpts...)
	if err := a.httpServer.Start(); err != nil {
		return err
	}
	a.log.Info("api server started", applogger.Int("port", a.cfg.Server.Port))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// shutdown stops intake first, then workers, then storage.
func (a *App) shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if a.httpServer != nil {
		if err := a.httpServer.Stop(shutdownCtx); err != nil {
			a.log.Error("http shutdown error", applogger.Error(err))
		}
	}

	if a.scheduler != nil {
		a.scheduler.Stop()
	}

	if a.collector != nil {
		if err := a.collector.Shutdown(shutdownCtx); err != nil {
			a.log.Warn("collector stop error", applogger.Error(err))
		}
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(shutdownCtx); err != nil {
			a.log.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	if err := a.queue.Stop(shutdownCtx); err != nil {
		a.log.Warn("queue stop error", applogger.Error(err))
	}

	if err := a.events.Close(); err != nil {
		a.log.Warn("event publisher close error", applogger.Error(err))
	}
	if err := a.runs.Close(); err != nil {
		a.log.Warn("run store close error", applogger.Error(err))
	}
	if err := a.versions.Close(); err != nil {
		a.log.Warn("version store close error", applogger.Error(err))
	}
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.log.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return nil
}
