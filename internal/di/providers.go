package di

import (
	"context"
	"fmt"
	"time"

	"StockCast/internal/domain/repository"
	"StockCast/internal/domain/service"
	"StockCast/internal/handler/api"
	mid "StockCast/internal/middleware"
	"StockCast/internal/registry"
	internalrepo "StockCast/internal/repository"
	"StockCast/internal/scheduler"
	"StockCast/internal/service/cache"
	"StockCast/internal/service/marketdata"
	"StockCast/internal/services/adapters"
	"StockCast/internal/services/analogue"
	"StockCast/internal/services/brain"
	"StockCast/internal/services/conformal"
	"StockCast/internal/services/tensor"
	"StockCast/internal/usecase"
	pkgch "StockCast/pkg/clickhouse"
	"StockCast/pkg/config"
	xhttp "StockCast/pkg/http"
	pkgkafka "StockCast/pkg/kafka"
	"StockCast/pkg/logger"
	"StockCast/pkg/metrics"
	"StockCast/pkg/queue"
	"StockCast/pkg/server"

	"github.com/segmentio/kafka-go"
)

// ProvideLogger builds the application logger from config.
func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	return logger.New(&logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
}

// ProvideMetrics creates the Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideClickHouseClient connects to ClickHouse and installs the
// pipeline schema. Returns nil when ClickHouse is disabled, which
// selects the in-memory stores.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !cfg.ClickHouse.Enabled {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.InitSchema(ctx, internalrepo.SchemaStatements(cfg.ClickHouse.Database)); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, nil
}

// ProvideRunStore selects the TrainingRun log backend.
func ProvideRunStore(ch *pkgch.Client) repository.RunStore {
	if ch != nil {
		return internalrepo.NewClickHouseRunStore(ch)
	}
	return internalrepo.NewMemoryRunStore()
}

// ProvideVersionStore selects the ModelVersion backend.
func ProvideVersionStore(ch *pkgch.Client) repository.VersionStore {
	if ch != nil {
		return internalrepo.NewClickHouseVersionStore(ch)
	}
	return internalrepo.NewMemoryVersionStore()
}

// ProvideArtifactStore stores serialized model artifacts on disk.
func ProvideArtifactStore(cfg *config.Config) (repository.ArtifactStore, error) {
	return internalrepo.NewFileArtifactStore(cfg.Registry.ArtifactDir)
}

// ProvideEventPublisher emits run and promotion events to Kafka, or
// nowhere when Kafka is disabled.
func ProvideEventPublisher(cfg *config.Config) (repository.EventPublisher, error) {
	if !cfg.Kafka.Enabled {
		return internalrepo.NoopPublisher{}, nil
	}
	return internalrepo.NewKafkaPublisher(cfg.Kafka.Brokers)
}

// ProvideEngine selects the tensor backend: the external training
// service when configured, otherwise the in-process engine.
func ProvideEngine(cfg *config.Config) tensor.Engine {
	if cfg.Training.EngineURL != "" {
		return tensor.NewHTTPEngine(cfg.Training.EngineURL, cfg.Training.EngineTimeout)
	}
	return tensor.NewLocalEngine()
}

// ProvideAdapterFactory builds per-architecture model adapters.
func ProvideAdapterFactory(engine tensor.Engine) usecase.AdapterFactory {
	return adapters.NewFactory(engine)
}

// ProvideSuggester creates the hyperparameter brain.
func ProvideSuggester(runs repository.RunStore, log *logger.Logger) service.Suggester {
	return brain.New(runs, log)
}

// ProvideConformal creates the shared conformal predictor.
func ProvideConformal(cfg *config.Config) *conformal.Predictor {
	return conformal.New(conformal.WithMinResiduals(cfg.Training.MinCalibration))
}

// ProvideRetriever creates the analogue index shared by the forecaster
// and the live tick collector.
func ProvideRetriever() service.AnalogueRetriever {
	return analogue.New()
}

func ProvideCalibrations() *usecase.Calibrations { return usecase.NewCalibrations() }

func ProvideServedLog() *usecase.ServedLog { return usecase.NewServedLog() }

// ProvideRegistry builds the model registry and restores promoted
// versions from the store.
func ProvideRegistry(
	versions repository.VersionStore,
	artifacts repository.ArtifactStore,
	events repository.EventPublisher,
	m repository.Metrics,
	log *logger.Logger,
) (*registry.Registry, error) {
	reg := registry.New(versions, artifacts, events, m, log)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := reg.Restore(ctx); err != nil {
		return nil, fmt.Errorf("registry restore: %w", err)
	}
	return reg, nil
}

// ProvidePriceSource creates the daily-candle REST client.
func ProvidePriceSource(cfg *config.Config) repository.PriceSource {
	return marketdata.NewClient(cfg.MarketData.APIKey, cfg.MarketData.BaseURL, cfg.MarketData.Timeout)
}

// ProvideBytesCache selects the forecast cache backend.
func ProvideBytesCache(cfg *config.Config) cache.BytesCache {
	if cfg.Redis.Enabled {
		return cache.NewRedisCache(cache.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	return cache.NewTTLCache()
}

// ProvideForecastCache wraps the byte cache with forecast encoding.
func ProvideForecastCache(cfg *config.Config, backend cache.BytesCache) *cache.ForecastCache {
	ttl := cfg.Redis.TTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return cache.NewForecastCache(backend, ttl)
}

func ProvideTrainerOptions(cfg *config.Config) usecase.TrainerOptions {
	return usecase.TrainerOptions{
		Tolerance:     cfg.Training.Tolerance,
		Coverage:      cfg.Training.Coverage,
		TrainFraction: cfg.Training.TrainFraction,
	}
}

func ProvideTrainer(
	source repository.PriceSource,
	factory usecase.AdapterFactory,
	suggester service.Suggester,
	reg *registry.Registry,
	cp *conformal.Predictor,
	calibrations *usecase.Calibrations,
	events repository.EventPublisher,
	m repository.Metrics,
	log *logger.Logger,
	opts usecase.TrainerOptions,
) *usecase.Trainer {
	return usecase.NewTrainer(source, factory, suggester, reg, cp, calibrations, events, m, log, opts)
}

func ProvideForecaster(
	source repository.PriceSource,
	factory usecase.AdapterFactory,
	reg *registry.Registry,
	cp *conformal.Predictor,
	calibrations *usecase.Calibrations,
	retriever service.AnalogueRetriever,
	fc *cache.ForecastCache,
	served *usecase.ServedLog,
	m repository.Metrics,
	log *logger.Logger,
) *usecase.Forecaster {
	return usecase.NewForecaster(source, factory, reg, cp, calibrations, retriever, fc, served, m, log)
}

func ProvideBenchmark(
	source repository.PriceSource,
	factory usecase.AdapterFactory,
	m repository.Metrics,
	log *logger.Logger,
	opts usecase.TrainerOptions,
) *usecase.Benchmark {
	return usecase.NewBenchmark(source, factory, m, log, opts)
}

func ProvideVersionLister(reg *registry.Registry) *usecase.VersionLister {
	return usecase.NewVersionLister(reg)
}

// ProvideQueue builds the retrain job queue: Redis-backed when Redis
// is enabled so replicas share a backlog, in-memory otherwise. The
// train job is registered here so both backends consume it.
func ProvideQueue(cfg *config.Config, backend cache.BytesCache, trainer *usecase.Trainer, log *logger.Logger) queue.Queue {
	qcfg := queue.Config{
		Workers:    cfg.Training.Workers,
		RetryLimit: 1,
		RetryDelay: 30 * time.Second,
	}
	var q queue.Queue
	if rc, ok := backend.(*cache.RedisCache); ok {
		q = queue.NewRedisQueue(log, qcfg, rc.Client())
	} else {
		q = queue.NewMemoryQueue(log, qcfg)
	}
	q.RegisterJob(usecase.NewTrainJob(trainer, log))
	return q
}

// ProvideScheduler builds the daily retrain scheduler. Returns nil
// when disabled.
func ProvideScheduler(cfg *config.Config, q queue.Queue, log *logger.Logger) *scheduler.Scheduler {
	if !cfg.Scheduler.Enabled {
		return nil
	}
	tickers := cfg.Scheduler.Tickers
	if len(tickers) == 0 {
		tickers = cfg.MarketData.Tickers
	}
	return scheduler.New(q, log, cfg.Scheduler.RetrainAt, tickers, cfg.Scheduler.Architectures)
}

// ProvideTickPipeline builds the throttled, buffered path from live
// ticks to the tick processor.
func ProvideTickPipeline(
	retriever service.AnalogueRetriever,
	cp *conformal.Predictor,
	calibrations *usecase.Calibrations,
	served *usecase.ServedLog,
	m repository.Metrics,
	log *logger.Logger,
) *mid.TickPipeline {
	proc := usecase.NewTickProcessor(retriever, cp, calibrations, served, log)
	return mid.NewTickPipeline(proc, m,
		mid.WithMaxRPS(10),
		mid.WithBufferSize(2000),
	)
}

// ProvideCollector builds the WebSocket tick collector. Returns nil
// when no stream is configured.
func ProvideCollector(cfg *config.Config, pipe *mid.TickPipeline, m repository.Metrics, log *logger.Logger) *usecase.Collector {
	if cfg.MarketData.WebSocketURL == "" || len(cfg.MarketData.Tickers) == 0 {
		return nil
	}
	stream := marketdata.NewStream(
		cfg.MarketData.APIKey,
		cfg.MarketData.WebSocketURL,
		cfg.MarketData.Tickers,
		cfg.MarketData.ReconnectDelay,
		cfg.MarketData.PingInterval,
		log,
	)
	return usecase.NewCollector(stream, pipe, m, log)
}

// ProvideKafkaConsumer builds the optional Kafka tick ingress. Returns
// nil unless a ticks topic is configured.
func ProvideKafkaConsumer(cfg *config.Config, pipe *mid.TickPipeline, m repository.Metrics, log *logger.Logger) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled || cfg.Kafka.TicksTopic == "" {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID("stockcast-ticks"),
		pkgkafka.WithConsumerWorkers(2),
		pkgkafka.WithConsumerLogger(log),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	consumer.RegisterHandler(usecase.NewKafkaTicksHandler(cfg.Kafka.TicksTopic, pipe, m))
	consumer.WithConsumerHook(pkgkafka.HookFuncs{
		Err: func(ctx context.Context, topic string, km kafka.Message, data []byte, err error) {
			m.RecordError("kafka_ingest")
		},
	})
	return consumer, nil
}

// ProvideHTTPHandler builds the API handler.
func ProvideHTTPHandler(
	log *logger.Logger,
	trainer *usecase.Trainer,
	forecaster *usecase.Forecaster,
	benchmark *usecase.Benchmark,
	versions *usecase.VersionLister,
	q queue.Queue,
) xhttp.Handler {
	return api.NewPipelineHandler(log, trainer, forecaster, benchmark, versions, q)
}

// ProvideApp assembles the application.
func ProvideApp(
	cfg *config.Config,
	log *logger.Logger,
	handler xhttp.Handler,
	q queue.Queue,
	sched *scheduler.Scheduler,
	collector *usecase.Collector,
	consumer *pkgkafka.Consumer,
	events repository.EventPublisher,
	runs repository.RunStore,
	versions repository.VersionStore,
	ch *pkgch.Client,
) *server.App {
	return server.New(cfg, log, handler, q, sched, collector, consumer, events, runs, versions, ch)
}
