package di

import (
	"context"
	"fmt"
	"time"

	"InvestAgent/internal/domain/models"
	"InvestAgent/internal/domain/repository"
	domsvc "InvestAgent/internal/domain/service"
	"InvestAgent/internal/handler/api"
	mid "InvestAgent/internal/middleware"
	internalrepo "InvestAgent/internal/repository"
	"InvestAgent/internal/service/bedrock"
	icache "InvestAgent/internal/service/cache"
	"InvestAgent/internal/service/compliance"
	"InvestAgent/internal/service/feed"
	"InvestAgent/internal/service/modelselect"
	"InvestAgent/internal/service/notify"
	"InvestAgent/internal/usecase"
	pkgcache "InvestAgent/pkg/cache"
	pkgch "InvestAgent/pkg/clickhouse"
	"InvestAgent/pkg/config"
	xhttp "InvestAgent/pkg/http"
	pkgkafka "InvestAgent/pkg/kafka"
	applogger "InvestAgent/pkg/logger"
	"InvestAgent/pkg/metrics"
	"InvestAgent/pkg/queue"
	"InvestAgent/pkg/server"

	"github.com/segmentio/kafka-go"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	format := "json"
	if cfg.Environment == "development" {
		format = "console"
	}
	return applogger.New(&applogger.Config{Level: "info", Format: format, Output: "stdout"})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideClickHouseClient creates a ClickHouse client and initializes the schema.
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

	db := cfg.ClickHouse.Database
	ticksDDL := fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s.md_ticks_raw ("+
			"ts DateTime, symbol LowCardinality(String), price Float64, volume Float64, "+
			"source LowCardinality(String), event_id String"+
			") ENGINE=MergeTree ORDER BY (symbol, ts)", db)
	if cfg.Feed.RetentionDays > 0 {
		ticksDDL += fmt.Sprintf(" TTL ts + INTERVAL %d DAY", cfg.Feed.RetentionDays)
	}
	perfDDL := fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s.model_perf_samples ("+
			"ts DateTime, model_id LowCardinality(String), task_type LowCardinality(String), "+
			"latency_ms Int64, input_tokens Int32, output_tokens Int32, success UInt8"+
			") ENGINE=MergeTree ORDER BY (model_id, ts)", db)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.InitSchema(ctx, []string{
		"CREATE DATABASE IF NOT EXISTS " + db,
		ticksDDL,
		perfDDL,
	}); err != nil {
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

// ProvideKafkaConsumer creates a Kafka consumer when the kafka backend is
// active; the clickhouse backend writes directly and needs no consumer.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	if cfg.Backend.Type != "kafka" {
		return nil, nil
	}
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

// ProvideRedisCache creates the shared Redis cache, or nil when disabled.
func ProvideRedisCache(cfg *config.Config) (*pkgcache.RedisCache, error) {
	if !cfg.Redis.Enabled {
		return nil, nil
	}
	rc, err := pkgcache.NewRedisCache(
		pkgcache.WithRedisHost(cfg.Redis.Host),
		pkgcache.WithRedisPort(cfg.Redis.Port),
		pkgcache.WithRedisPassword(cfg.Redis.Password),
		pkgcache.WithRedisDB(cfg.Redis.DB),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return rc, nil
}

// ProvideTickStore creates the ClickHouse tick store.
func ProvideTickStore(chClient *pkgch.Client, cfg *config.Config) repository.TickStore {
	return internalrepo.NewClickHouseTickStore(chClient.DB(), cfg.ClickHouse.Database+".md_ticks_raw")
}

// ProvideCandleStore aggregates candles from the raw ticks table.
func ProvideCandleStore(chClient *pkgch.Client, cfg *config.Config, l *applogger.Logger) repository.CandleStore {
	s := internalrepo.NewCHCandleStore(chClient, cfg.ClickHouse.Database+".md_ticks_raw")
	s.SetLogger(l)
	return s
}

// ProvidePerformanceStore persists model invocation samples.
func ProvidePerformanceStore(chClient *pkgch.Client, cfg *config.Config) repository.PerformanceStore {
	return internalrepo.NewCHPerformanceStore(chClient.DB(), cfg.ClickHouse.Database+".model_perf_samples")
}

// ProvideTickPublisher creates the Kafka tick publisher.
func ProvideTickPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.Publisher {
	return internalrepo.NewKafkaTickPublisher(producer, cfg.Kafka.TicksTopic)
}

// ProvideAlertStore persists alert rules in Redis, with an in-memory
// fallback for single-instance runs without Redis.
func ProvideAlertStore(rc *pkgcache.RedisCache) repository.AlertStore {
	if rc == nil {
		return internalrepo.NewMemoryAlertStore()
	}
	return internalrepo.NewRedisAlertStore(rc.Client(), "investagent:alerts:rules")
}

// ProvideFeedRegistry registers the configured WebSocket provider.
func ProvideFeedRegistry(cfg *config.Config) *feed.Registry {
	reg := feed.NewRegistry()
	name := cfg.Feed.Provider
	apiKey := cfg.Feed.APIKey
	wsURL := cfg.Feed.WebSocketURL
	_ = reg.Register(name, func(fc *models.FeedConfig) (repository.MarketStream, error) {
		return feed.NewWSStream(name, apiKey, wsURL, fc.Symbols, fc.ReconnectDelay, fc.PingInterval), nil
	})
	return reg
}

// ProvideMarketStream opens a stream from the registry.
func ProvideMarketStream(reg *feed.Registry, cfg *config.Config) (repository.MarketStream, error) {
	return reg.Open(cfg.FeedConfig())
}

// ProvideTickProcessor creates the backend-routing processor.
func ProvideTickProcessor(
	pub repository.Publisher,
	store repository.TickStore,
	m repository.Metrics,
	cfg *config.Config,
) *usecase.TickProcessor {
	return usecase.NewTickProcessor(pub, store, m, cfg.Backend.Type, cfg.Backend.BatchSize, cfg.Backend.BatchTimeout)
}

// ProvideCooldownGuard backs the alert cooldown with Redis when available so
// multiple instances share it, and with the in-memory cache otherwise.
func ProvideCooldownGuard(rc *pkgcache.RedisCache) usecase.CooldownGuard {
	if rc == nil {
		return notify.NewCacheCooldown(pkgcache.NewMemoryCache())
	}
	return notify.NewCacheCooldown(rc)
}

// ProvideNotifiers builds the alert notification channels.
func ProvideNotifiers(producer *pkgkafka.Producer, cfg *config.Config) []domsvc.Notifier {
	ns := []domsvc.Notifier{
		notify.NewKafkaNotifier(producer, cfg.Kafka.AlertsTopic),
	}
	if cfg.Alerts.WebhookURL != "" {
		ns = append(ns, notify.NewWebhookNotifier(xhttp.NewClient(xhttp.WithTimeout(10*time.Second)), cfg.Alerts.WebhookURL))
	}
	return ns
}

// ProvideAlertEngine creates the alert engine.
func ProvideAlertEngine(
	store repository.AlertStore,
	notifiers []domsvc.Notifier,
	guard usecase.CooldownGuard,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.AlertEngine {
	return usecase.NewAlertEngine(store, notifiers, guard, m, l)
}

// ProvideTickCollector connects the stream to the pipeline, with the alert
// engine tapping the accepted flow.
func ProvideTickCollector(
	stream repository.MarketStream,
	processor *usecase.TickProcessor,
	m repository.Metrics,
	engine *usecase.AlertEngine,
	cfg *config.Config,
) *usecase.TickCollector {
	maxRPS := cfg.Feed.MaxRPS
	if maxRPS <= 0 {
		maxRPS = 50
	}
	bufSize := cfg.Feed.BufferSize
	if bufSize <= 0 {
		bufSize = 2000
	}
	pipe := mid.NewRealtimePipeline(processor, m,
		mid.WithMaxRPS(maxRPS),
		mid.WithBufferSize(bufSize),
		mid.WithTap(engine.OnTick),
	)
	return usecase.NewTickCollector(stream, processor, m, pipe)
}

// ProvideKafkaTicksHandler registers the handler for the ticks topic.
func ProvideKafkaTicksHandler(store repository.TickStore, m repository.Metrics, cfg *config.Config) *usecase.KafkaTicksHandler {
	return usecase.NewKafkaTicksHandler(cfg.Kafka.TicksTopic, store, m)
}

// ProvideModelSelector seeds the model registry from config.
func ProvideModelSelector(
	cfg *config.Config,
	perf repository.PerformanceStore,
	m repository.Metrics,
	l *applogger.Logger,
) (domsvc.ModelSelector, error) {
	return modelselect.New(cfg.Models.Profiles, modelselect.Options{
		HealthWindow:       cfg.Models.HealthWindow,
		DegradedErrorRate:  cfg.Models.DegradedErrorRate,
		UnhealthyErrorRate: cfg.Models.UnhealthyErrRate,
		HealthCacheTTL:     cfg.Models.HealthCacheTTL,
	}, perf, m, l)
}

// ProvideCompleter creates the Bedrock LLM client.
func ProvideCompleter(cfg *config.Config) (domsvc.Completer, error) {
	return bedrock.New(context.Background(), cfg)
}

// ProvideAnalysisOrchestrator creates the analysis flow.
func ProvideAnalysisOrchestrator(selector domsvc.ModelSelector, completer domsvc.Completer, l *applogger.Logger) *usecase.AnalysisOrchestrator {
	return usecase.NewAnalysisOrchestrator(selector, completer, l)
}

// ProvideComplianceChecker seeds regulations from config; the orchestrator
// doubles as the optional narrative writer.
func ProvideComplianceChecker(cfg *config.Config, orch *usecase.AnalysisOrchestrator, l *applogger.Logger) domsvc.ComplianceChecker {
	store := compliance.NewRegulationStore(cfg.Compliance.Regulations)
	return compliance.NewAgent(store, orch, cfg.Compliance.EnableLLM, cfg.Compliance.CacheTTL, l)
}

// ProvideAnalysisQueue creates the Redis-backed job queue, or nil when the
// queue or Redis is disabled.
func ProvideAnalysisQueue(cfg *config.Config, rc *pkgcache.RedisCache, l *applogger.Logger) *queue.RedisQueue {
	if rc == nil || !cfg.Queue.Enabled {
		return nil
	}
	return queue.NewRedisQueue(l, &queue.QueueConfig{
		Workers:    cfg.Queue.Workers,
		RetryLimit: cfg.Queue.RetryLimit,
		RetryDelay: cfg.Queue.RetryDelay,
	}, rc.Client(), queue.ModeProducerConsumer, queue.WithKeyPrefix("investagent:queue:analysis"))
}

// ProvideAsyncAnalysis registers the analysis job and returns the async
// facade, nil when the queue is unavailable.
func ProvideAsyncAnalysis(q *queue.RedisQueue, rc *pkgcache.RedisCache, orch *usecase.AnalysisOrchestrator, l *applogger.Logger) *usecase.AsyncAnalysis {
	if q == nil || rc == nil {
		return nil
	}
	q.RegisterJob(usecase.NewAnalysisJob(orch, rc, l))
	return usecase.NewAsyncAnalysis(q, rc, l)
}

// ProvideResponseCache picks Redis-backed or in-process response caching.
// With Redis a small in-process front is layered on top for hot keys.
func ProvideResponseCache(rc *pkgcache.RedisCache) icache.BytesCache {
	if rc == nil {
		return icache.NewTTLCache()
	}
	return icache.NewLayeredBytes(icache.NewTTLCache(), icache.NewRedisCache(rc.Client(), "investagent:rsp"), 5*time.Second)
}

// ProvideCandlesUseCase creates the candle query use case.
func ProvideCandlesUseCase(store repository.CandleStore) *usecase.CandlesUseCase {
	return usecase.NewCandlesUseCase(store)
}

// ProvideRouter builds all HTTP handlers and aggregates their routes.
func ProvideRouter(
	l *applogger.Logger,
	ticks repository.TickStore,
	candles *usecase.CandlesUseCase,
	respCache icache.BytesCache,
	alerts repository.AlertStore,
	selector domsvc.ModelSelector,
	orch *usecase.AnalysisOrchestrator,
	async *usecase.AsyncAnalysis,
	checker domsvc.ComplianceChecker,
	cfg *config.Config,
) *api.Router {
	market := api.NewMarketEchoHandler(l, ticks, candles)
	market.SetCache(respCache)
	return api.NewRouter(
		market,
		api.NewAlertsEchoHandler(l, alerts, cfg.Alerts.DefaultCooldown),
		api.NewModelsEchoHandler(l, selector),
		api.NewAnalysisEchoHandler(l, orch, async),
		api.NewComplianceEchoHandler(l, checker),
	)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	m repository.Metrics,
	collector *usecase.TickCollector,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaTicksHandler,
	chClient *pkgch.Client,
	engine *usecase.AlertEngine,
	q *queue.RedisQueue,
	router *api.Router,
) *server.App {
	if consumer != nil {
		consumer.WithConsumerHook(consumerObservabilityHook(l, m))
	}
	return server.New(cfg, l, collector, consumer, kh, chClient, engine, q, router)
}

// consumerObservabilityHook stamps trace metadata on consumed messages and
// accounts handling latency and failures.
func consumerObservabilityHook(l *applogger.Logger, m repository.Metrics) pkgkafka.ConsumerHook {
	return pkgkafka.HookFuncs{
		Before: func(ctx context.Context, _ string, km kafka.Message, data []byte) (context.Context, kafka.Message, []byte, error) {
			ctx = pkgkafka.WithStartTime(ctx, time.Now())
			ctx = pkgkafka.WithTraceID(ctx, pkgkafka.ExtractTraceID(km))
			return ctx, km, data, nil
		},
		After: func(ctx context.Context, topic string, _ kafka.Message, _ []byte, err error) {
			if err != nil {
				return
			}
			if start, ok := ctx.Value(pkgkafka.CtxStartTime).(time.Time); ok {
				m.RecordLatency("kafka_consume", time.Since(start).Seconds())
			}
		},
		Err: func(ctx context.Context, topic string, _ kafka.Message, _ []byte, err error) {
			m.RecordError("kafka_consume")
			traceID, _ := ctx.Value(pkgkafka.CtxTraceID).(string)
			l.Warn("kafka message handling failed",
				applogger.String("topic", topic),
				applogger.String("trace_id", traceID),
				applogger.Error(err))
		},
	}
}
