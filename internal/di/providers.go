package di

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"GridPulse/internal/domain/models"
	"GridPulse/internal/domain/repository"
	domsvc "GridPulse/internal/domain/service"
	"GridPulse/internal/handler/api"
	mid "GridPulse/internal/middleware"
	internalrepo "GridPulse/internal/repository"
	icache "GridPulse/internal/service/cache"
	"GridPulse/internal/service/telemetry"
	"GridPulse/internal/services/abtest"
	"GridPulse/internal/services/auth"
	"GridPulse/internal/services/drift"
	"GridPulse/internal/services/policy"
	"GridPulse/internal/services/registry"
	"GridPulse/internal/services/stats"
	"GridPulse/internal/services/trainer"
	"GridPulse/internal/usecase"
	pkgch "GridPulse/pkg/clickhouse"
	"GridPulse/pkg/config"
	xhttp "GridPulse/pkg/http"
	pkgkafka "GridPulse/pkg/kafka"
	applogger "GridPulse/pkg/logger"
	"GridPulse/pkg/metrics"
	"GridPulse/pkg/queue"
	"GridPulse/pkg/server"
)

// ProvideLogger creates the application logger. Production emits JSON for
// log shipping; everything else gets the console writer.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	format := "console"
	if cfg.Environment == "production" {
		format = "json"
	}
	lgr, err := applogger.New(&applogger.Config{Level: "info", Format: format, Output: "stdout"})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return lgr, nil
}

// ProvideClickHouseClient creates a ClickHouse client.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	// Initialize schema
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.InitSchema(ctx, internalrepo.SchemaStatements()); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideKafkaProducer creates a Kafka producer.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}

	return producer, nil
}

// ProvideKafkaConsumer creates a Kafka consumer configured from YAML.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideObservationStorage creates ClickHouse storage for observations and
// forecast accuracy rows.
func ProvideObservationStorage(chClient *pkgch.Client, cfg *config.Config) repository.Storage {
	db := cfg.ClickHouse.Database
	return internalrepo.NewClickHouseStorage(chClient.DB(), db+".ml_observations", db+".ml_forecasts")
}

// ProvideObservationPublisher creates the Kafka publisher repository.
func ProvideObservationPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.Publisher {
	return internalrepo.NewKafkaPublisher(producer, cfg.Kafka.Topic)
}

// ProvideKafkaObservationsHandler registers the handler for the observations
// topic.
func ProvideKafkaObservationsHandler(store repository.Storage, metrics repository.Metrics, cfg *config.Config) *usecase.KafkaObservationsHandler {
	return usecase.NewKafkaObservationsHandler(cfg.Kafka.Topic, store, metrics)
}

// ProvideKafkaForecastsHandler registers the handler for the forecasts topic.
func ProvideKafkaForecastsHandler(store repository.Storage, metrics repository.Metrics, cfg *config.Config) *usecase.KafkaForecastsHandler {
	return usecase.NewKafkaForecastsHandler(cfg.Kafka.ForecastsTopic, store, metrics)
}

// ProvideTelemetryStream creates the SCADA telemetry WebSocket stream.
func ProvideTelemetryStream(cfg *config.Config) repository.ObservationStream {
	return telemetry.New(
		cfg.Telemetry.Token,
		cfg.Telemetry.WebSocketURL,
		cfg.Telemetry.Channels,
		cfg.Telemetry.ReconnectDelay,
		cfg.Telemetry.PingInterval,
	)
}

// ProvideObservationProcessor creates the observation processor use case.
func ProvideObservationProcessor(
	pub repository.Publisher,
	store repository.Storage,
	metrics repository.Metrics,
	cfg *config.Config,
) *usecase.ObservationProcessor {
	return usecase.NewObservationProcessor(pub, store, metrics, cfg.Backend.Type)
}

// ProvideObservationCollector creates the collector use case.
func ProvideObservationCollector(
	stream repository.ObservationStream,
	processor *usecase.ObservationProcessor,
	metrics repository.Metrics,
) *usecase.ObservationCollector {
	// Build middleware pipeline between WebSocket and the backend
	pipe := mid.NewObservationPipeline(processor, metrics,
		mid.WithMaxRPS(50),
		mid.WithBufferSize(2000),
	)
	return usecase.NewObservationCollector(stream, processor, metrics, pipe)
}

// ProvideSampleStore creates the ClickHouse-backed feature sample store.
func ProvideSampleStore(chClient *pkgch.Client, lgr *applogger.Logger) repository.SampleStore {
	s := internalrepo.NewCHSampleStore(chClient)
	s.SetLogger(lgr)
	return s
}

// ProvideAccuracySource creates the ClickHouse-backed accuracy source.
func ProvideAccuracySource(chClient *pkgch.Client, lgr *applogger.Logger) repository.AccuracySource {
	s := internalrepo.NewCHAccuracySource(chClient)
	s.SetLogger(lgr)
	return s
}

// ProvideTransitionLog creates the durable transition log.
func ProvideTransitionLog(chClient *pkgch.Client, lgr *applogger.Logger) repository.TransitionLog {
	l := internalrepo.NewCHTransitionLog(chClient)
	l.SetLogger(lgr)
	return l
}

// ProvideConfigStore seeds per-model retraining thresholds from YAML on top
// of the built-in defaults.
func ProvideConfigStore(cfg *config.Config) (*policy.ConfigStore, error) {
	seed := make(map[models.ModelType]models.RetrainingConfig, len(cfg.Monitor.Retraining))
	for name, th := range cfg.Monitor.Retraining {
		mt, ok := models.NormalizeModelType(name)
		if !ok {
			return nil, fmt.Errorf("retraining config: unknown model type %q", name)
		}
		rc := models.DefaultRetrainingConfig(mt)
		applyThresholds(&rc, th)
		seed[mt] = rc
	}

	store, err := policy.NewConfigStore(seed)
	if err != nil {
		return nil, fmt.Errorf("retraining config: %w", err)
	}
	return store, nil
}

// applyThresholds copies the non-zero YAML overrides onto the defaults.
func applyThresholds(rc *models.RetrainingConfig, th config.RetrainingThresholds) {
	if th.MetricThreshold > 0 {
		rc.MetricThreshold = th.MetricThreshold
	}
	if th.DriftScoreThreshold > 0 {
		rc.DriftScoreThreshold = th.DriftScoreThreshold
	}
	if th.SignificanceLevel > 0 {
		rc.SignificanceLevel = th.SignificanceLevel
	}
	if th.PSIModerate > 0 {
		rc.PSIModerate = th.PSIModerate
	}
	if th.PSISignificant > 0 {
		rc.PSISignificant = th.PSISignificant
	}
	if th.MaxDaysWithoutRetrain > 0 {
		rc.MaxDaysWithoutRetrain = th.MaxDaysWithoutRetrain
	}
	if th.MinDaysBetweenRetrains > 0 {
		rc.MinDaysBetweenRetrains = th.MinDaysBetweenRetrains
	}
	if th.ConsecutiveViolationsRequired > 0 {
		rc.ConsecutiveViolationsRequired = th.ConsecutiveViolationsRequired
	}
	if th.ABMinSamples > 0 {
		rc.ABMinSamples = th.ABMinSamples
	}
	if th.ABMetricMargin > 0 {
		rc.ABMetricMargin = th.ABMetricMargin
	}
}

// ProvideRegistry creates the model registry and replays the transition log
// so champions survive restarts.
func ProvideRegistry(tlog repository.TransitionLog, lgr *applogger.Logger, metrics repository.Metrics) (*registry.Registry, error) {
	reg := registry.New(tlog, lgr, metrics)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := reg.Restore(ctx); err != nil {
		return nil, fmt.Errorf("registry restore: %w", err)
	}
	return reg, nil
}

// ProvideDriftEvaluator creates the statistical drift evaluator.
func ProvideDriftEvaluator() domsvc.DriftEvaluator {
	return drift.NewEvaluator(stats.NewComparator())
}

// ProvidePolicyEngine creates the retraining policy engine.
func ProvidePolicyEngine() domsvc.PolicyEngine {
	return policy.NewEngine()
}

// ProvideViolationTracker creates the consecutive-violation tracker.
func ProvideViolationTracker() *policy.ViolationTracker {
	return policy.NewViolationTracker()
}

// ProvideDriftAnalysis creates the drift analysis use case.
func ProvideDriftAnalysis(
	samples repository.SampleStore,
	accuracy repository.AccuracySource,
	eval domsvc.DriftEvaluator,
	configs *policy.ConfigStore,
	metrics repository.Metrics,
	lgr *applogger.Logger,
) *usecase.DriftAnalysisUseCase {
	return usecase.NewDriftAnalysisUseCase(samples, accuracy, eval, configs, metrics, lgr)
}

// ProvideTrainingTrigger picks the dispatch path for retraining requests.
// Mode "http" calls the training service inline; mode "queue" enqueues to
// Redis for a worker to drain.
func ProvideTrainingTrigger(cfg *config.Config, lgr *applogger.Logger, metrics repository.Metrics) (domsvc.TrainingTrigger, error) {
	switch cfg.Trainer.Mode {
	case "queue":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Monitor.Redis.Addr,
			Password: cfg.Monitor.Redis.Password,
			DB:       cfg.Monitor.Redis.DB,
		})
		q := queue.NewRedisPublisher(lgr, client)
		return trainer.NewQueueTrigger(q, lgr), nil
	default:
		httpClient := xhttp.NewClient(xhttp.WithTimeout(30 * time.Second))
		return trainer.NewHTTPTrigger(httpClient, cfg.Trainer.URL, lgr, metrics,
			trainer.WithRetry(cfg.Trainer.Attempts, cfg.Trainer.Backoff),
			trainer.WithAuthToken(cfg.Trainer.Token),
		), nil
	}
}

// ProvideQueueWorker creates the in-process worker that drains queued
// training triggers and forwards them over HTTP. Only built when the queue
// dispatch mode is active and a trainer URL is configured; without a URL an
// external worker owns the queue.
func ProvideQueueWorker(cfg *config.Config, lgr *applogger.Logger, metrics repository.Metrics) *queue.RedisQueue {
	if cfg.Trainer.Mode != "queue" || cfg.Trainer.URL == "" {
		return nil
	}

	httpClient := xhttp.NewClient(xhttp.WithTimeout(30 * time.Second))
	trigger := trainer.NewHTTPTrigger(httpClient, cfg.Trainer.URL, lgr, metrics,
		trainer.WithRetry(cfg.Trainer.Attempts, cfg.Trainer.Backoff),
		trainer.WithAuthToken(cfg.Trainer.Token),
	)

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Monitor.Redis.Addr,
		Password: cfg.Monitor.Redis.Password,
		DB:       cfg.Monitor.Redis.DB,
	})
	return queue.NewRedisConsumer(lgr, &queue.QueueConfig{Workers: 2}, client,
		[]queue.Job{trainer.NewTrainingJob(trigger, lgr)})
}

// ProvideRetraining creates the retraining decision use case.
func ProvideRetraining(
	analyzer *usecase.DriftAnalysisUseCase,
	engine domsvc.PolicyEngine,
	tracker *policy.ViolationTracker,
	reg *registry.Registry,
	trigger domsvc.TrainingTrigger,
	configs *policy.ConfigStore,
	metrics repository.Metrics,
	lgr *applogger.Logger,
) *usecase.RetrainingUseCase {
	return usecase.NewRetrainingUseCase(analyzer, engine, tracker, reg, trigger, configs, metrics, lgr)
}

// ProvideABController creates the A/B session controller.
func ProvideABController(reg *registry.Registry, configs *policy.ConfigStore, lgr *applogger.Logger) *abtest.Controller {
	return abtest.NewController(reg, configs, lgr)
}

// ProvideSamples creates the raw-observation lookup use case.
func ProvideSamples(store repository.Storage) *usecase.SamplesUseCase {
	return usecase.NewSamplesUseCase(store)
}

// ProvideAuthorizer guards the mutating API routes with the static admin
// token.
func ProvideAuthorizer(cfg *config.Config) domsvc.Authorizer {
	return auth.NewStaticTokenAuthorizer(cfg.Monitor.AdminToken)
}

// ProvideReportCache picks the report cache backend. Redis is shared across
// replicas; the in-memory TTL cache is per-process.
func ProvideReportCache(cfg *config.Config) (icache.BytesCache, error) {
	if !cfg.Monitor.Redis.Enabled {
		return icache.NewTTLCache(), nil
	}
	c, err := icache.NewRedisCache(icache.RedisConfig{
		Addr:     cfg.Monitor.Redis.Addr,
		Password: cfg.Monitor.Redis.Password,
		DB:       cfg.Monitor.Redis.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("report cache: %w", err)
	}
	return c, nil
}

// ProvideHTTPHandler bundles the API handlers.
func ProvideHTTPHandler(
	cfg *config.Config,
	lgr *applogger.Logger,
	analysis *usecase.DriftAnalysisUseCase,
	retraining *usecase.RetrainingUseCase,
	samples *usecase.SamplesUseCase,
	reg *registry.Registry,
	abtests *abtest.Controller,
	configs *policy.ConfigStore,
	authz domsvc.Authorizer,
	reportCache icache.BytesCache,
) xhttp.Handler {
	report := api.NewReportHandler(analysis, reg, configs)
	report.SetCache(reportCache)
	report.SetLogger(lgr)
	report.SetWindows(cfg.Monitor.BaselineSize, cfg.Monitor.CurrentSize, cfg.Monitor.ReportCacheTTL)

	return api.NewMux(
		api.NewDriftHandler(lgr, analysis),
		api.NewRetrainingHandler(lgr, retraining, authz),
		api.NewSamplesHandler(lgr, samples),
		api.NewRegistryHandler(lgr, reg, authz),
		api.NewABTestHandler(lgr, abtests, authz),
		api.NewConfigHandler(lgr, configs, authz),
		report,
	)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	lgr *applogger.Logger,
	collector *usecase.ObservationCollector,
	consumer *pkgkafka.Consumer,
	producer *pkgkafka.Producer,
	obs *usecase.KafkaObservationsHandler,
	forecasts *usecase.KafkaForecastsHandler,
	chClient *pkgch.Client,
	handler xhttp.Handler,
	worker *queue.RedisQueue,
) *server.App {
	if consumer != nil {
		consumer.WithConsumerHook(pkgkafka.NoopHook{})
	}

	// Ship aggregated audit entries (decisions, dispatches, transitions,
	// config updates) to the audit topic when one is configured.
	if producer != nil && cfg.Kafka.AuditTopic != "" {
		lgr.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   30 * time.Second,
			CountThreshold: 100,
			Topic:          cfg.Kafka.AuditTopic,
			Publisher:      producer,
		})
	}

	app := server.New(cfg, lgr, collector, consumer, obs, forecasts, chClient)
	app.SetHTTPHandler(handler)
	app.SetQueueWorker(worker)
	if collector != nil {
		app.ObsProc = collector.Processor()
	}
	return app
}
