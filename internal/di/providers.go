package di

import (
	"context"
	"fmt"
	"time"

	"TrendPulse/internal/domain/repository"
	domsvc "TrendPulse/internal/domain/service"
	"TrendPulse/internal/handler/api"
	mid "TrendPulse/internal/middleware"
	internalrepo "TrendPulse/internal/repository"
	icache "TrendPulse/internal/service/cache"
	"TrendPulse/internal/service/feed"
	"TrendPulse/internal/services/narrator"
	"TrendPulse/internal/services/trend"
	"TrendPulse/internal/usecase"
	pkgcache "TrendPulse/pkg/cache"
	pkgch "TrendPulse/pkg/clickhouse"
	"TrendPulse/pkg/config"
	xhttp "TrendPulse/pkg/http"
	pkgkafka "TrendPulse/pkg/kafka"
	applogger "TrendPulse/pkg/logger"
	"TrendPulse/pkg/metrics"
	"TrendPulse/pkg/queue"
	"TrendPulse/pkg/server"

	"github.com/redis/go-redis/v9"
)

// ProvideLogger builds the application logger from the logging section.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{
		Level:   cfg.Logging.Level,
		Format:  cfg.Logging.Format,
		Output:  cfg.Logging.Output,
		Service: "trendpulse",
	})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideRedisCache connects to Redis, or returns nil when disabled.
func ProvideRedisCache(cfg *config.Config) (*pkgcache.RedisCache, error) {
	if !cfg.Redis.Enabled {
		return nil, nil
	}
	return pkgcache.NewRedisCache(
		pkgcache.WithRedisAddr(cfg.Redis.Addr),
		pkgcache.WithRedisPassword(cfg.Redis.Password),
		pkgcache.WithRedisDB(cfg.Redis.DB),
		pkgcache.WithRedisPool(cfg.Redis.PoolSize, cfg.Redis.MinIdleConns, cfg.Redis.PoolTimeout),
		pkgcache.WithRedisPrefix(cfg.Cache.Prefix),
	)
}

// ProvideRedisClient shares the cache connection with the job queue.
func ProvideRedisClient(rc *pkgcache.RedisCache) *redis.Client {
	if rc == nil {
		return nil
	}
	return rc.Client()
}

// ProvideClickHouseClient creates a ClickHouse client when storage.type is
// clickhouse.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if cfg.Storage.Type != "clickhouse" {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvideObservationStore opens the configured store and ensures its schema.
func ProvideObservationStore(cfg *config.Config, ch *pkgch.Client, l *applogger.Logger) (repository.ObservationStore, error) {
	var store repository.ObservationStore
	switch cfg.Storage.Type {
	case "clickhouse":
		store = internalrepo.NewCHObservationStore(ch, l)
	default:
		bs, err := internalrepo.NewBadgerObservationStore(internalrepo.BadgerOptions{
			Dir:        cfg.Badger.Dir,
			InMemory:   cfg.Badger.InMemory,
			SyncWrites: cfg.Badger.SyncWrites,
			Logger:     l,
		})
		if err != nil {
			return nil, err
		}
		store = bs
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.Init(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("init observation store: %w", err)
	}
	return store, nil
}

// ProvideKafkaProducer creates a Kafka producer, or nil without brokers.
func ProvideKafkaProducer(cfg *config.Config, l *applogger.Logger) (*pkgkafka.Producer, error) {
	if len(cfg.Kafka.Brokers) == 0 {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatching(cfg.Kafka.Producer.BatchSize, cfg.Kafka.Producer.BatchBytes, cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
		pkgkafka.WithProducerLogger(l),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideEventPublisher publishes trend events to Kafka, or logs them when
// Kafka is not configured.
func ProvideEventPublisher(cfg *config.Config, producer *pkgkafka.Producer, l *applogger.Logger) repository.EventPublisher {
	if producer == nil {
		return internalrepo.NewLogEventPublisher(l)
	}
	return internalrepo.NewKafkaEventPublisher(producer, cfg.Kafka.EventsTopic)
}

// ProvideObservationPublisher creates the Kafka observation publisher.
func ProvideObservationPublisher(cfg *config.Config, producer *pkgkafka.Producer) repository.Publisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaPublisher(producer, cfg.Kafka.Topic)
}

// ProvideCacheService shares cached responses through Redis with a local
// layer in front, or keeps them in process memory.
func ProvideCacheService(cfg *config.Config, rc *pkgcache.RedisCache) pkgcache.Service {
	if rc == nil {
		return pkgcache.NewMemoryCache(
			pkgcache.WithMemoryMaxSize(cfg.Cache.MaxEntries),
			pkgcache.WithMemoryCleanup(cfg.Cache.CleanupInterval),
		)
	}
	return pkgcache.NewLayeredCache(rc,
		pkgcache.WithLayeredMemorySize(cfg.Cache.MaxEntries),
		pkgcache.WithLayeredMemoryTTL(cfg.Cache.LocalTTL),
	)
}

// ProvideResultCache adapts the cache service for analysis results. A single
// node uses the bounded LRU instead.
func ProvideResultCache(cfg *config.Config, rc *redis.Client, svc pkgcache.Service) icache.BytesCache {
	if rc == nil {
		return icache.NewTTLCache(cfg.Cache.MaxEntries)
	}
	return icache.NewSharedCache(svc)
}

// ProvideLocker debounces recompute jobs through the cache service.
func ProvideLocker(svc pkgcache.Service) usecase.Locker {
	return svc
}

// ProvideNarrator returns the remote narrator with template fallback.
func ProvideNarrator(cfg *config.Config, l *applogger.Logger) domsvc.Narrator {
	return narrator.New(cfg.Narrator.URL, cfg.Narrator.Timeout, cfg.Narrator.Attempts, l)
}

// ProvideTrendRegistry registers the STS and simple estimators.
func ProvideTrendRegistry() *trend.Registry {
	return trend.NewDefaultRegistry()
}

// ProvideTrendAnalyzer creates the analysis use case.
func ProvideTrendAnalyzer(
	cfg *config.Config,
	store repository.ObservationStore,
	registry *trend.Registry,
	events repository.EventPublisher,
	m repository.Metrics,
	n domsvc.Narrator,
	l *applogger.Logger,
) *usecase.TrendAnalyzer {
	return usecase.NewTrendAnalyzer(store, registry, events, m,
		usecase.WithNarrator(n),
		usecase.WithDefaultMethod(cfg.Estimator.Method),
		usecase.WithLookback(cfg.Estimator.Lookback),
		usecase.WithAnalyzerLogger(l),
	)
}

func ProvideDashboardUseCase(cfg *config.Config, analyzer *usecase.TrendAnalyzer) *usecase.DashboardUseCase {
	return usecase.NewDashboardUseCase(analyzer, cfg.Estimator.DashboardTimeout)
}

func ProvideSeriesUseCase(store repository.ObservationStore) *usecase.SeriesUseCase {
	return usecase.NewSeriesUseCase(store)
}

// ProvideRecomputeJob warms the cache key of the default GET /api/trend.
func ProvideRecomputeJob(cfg *config.Config, analyzer *usecase.TrendAnalyzer, cache icache.BytesCache, l *applogger.Logger) *usecase.RecomputeJob {
	return usecase.NewRecomputeJob(analyzer, cache, cfg.Cache.TTL, l)
}

// ProvideJobQueue runs recompute jobs on Redis, or in process without Redis.
// It returns nil when the queue is disabled.
func ProvideJobQueue(cfg *config.Config, rc *redis.Client, job *usecase.RecomputeJob, l *applogger.Logger) queue.Runner {
	if !cfg.Queue.Enabled {
		return nil
	}
	qc := &queue.QueueConfig{
		Workers:    cfg.Queue.Workers,
		RetryLimit: cfg.Queue.MaxRetries,
		RetryDelay: cfg.Queue.RetryDelay,
		JobTimeout: cfg.Queue.JobTimeout,
	}
	if rc == nil {
		return queue.NewLocalQueue(l, qc, job)
	}
	q := queue.NewRedisQueue(l, qc, rc, queue.ModeProducerConsumer,
		queue.WithKeyPrefix("trendpulse:queue:"+cfg.Queue.Name))
	q.RegisterJob(job)
	return q
}

// ProvideObservationProcessor routes ingested observations to the backend.
func ProvideObservationProcessor(cfg *config.Config, pub repository.Publisher, store repository.ObservationStore, m repository.Metrics) *usecase.ObservationProcessor {
	return usecase.NewObservationProcessor(pub, store, m, cfg.Backend.Type)
}

// ProvideObservationCollector connects the websocket feed to the processor.
// It returns nil when the feed is disabled.
func ProvideObservationCollector(cfg *config.Config, proc *usecase.ObservationProcessor, m repository.Metrics, l *applogger.Logger) *usecase.ObservationCollector {
	if !cfg.Feed.Enabled {
		return nil
	}
	stream := feed.New(cfg.Feed.URL, cfg.Feed.Indicators,
		feed.WithToken(cfg.Feed.Token),
		feed.WithReconnectDelay(cfg.Feed.ReconnectDelay),
		feed.WithPingInterval(cfg.Feed.PingInterval),
		feed.WithBufferSize(cfg.Feed.BufferSize),
		feed.WithLogger(l),
	)
	pipe := mid.NewRealtimePipeline(proc, m,
		mid.WithThrottleWindow(cfg.Feed.ThrottleWindow),
		mid.WithBufferSize(cfg.Feed.BufferSize),
	)
	return usecase.NewObservationCollector(stream, pipe, m, l, cfg.Feed.ReconnectDelay)
}

// ProvideKafkaConsumer creates a Kafka consumer when consumption is enabled.
func ProvideKafkaConsumer(cfg *config.Config, l *applogger.Logger) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Consumer.Enabled {
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
		pkgkafka.WithConsumerLogger(l),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	consumer.WithConsumerHook(pkgkafka.LoggingHook(l, 500*time.Millisecond))
	return consumer, nil
}

// ProvideKafkaObservationsHandler stores consumed observations, invalidates
// cached results and schedules recomputes.
func ProvideKafkaObservationsHandler(
	cfg *config.Config,
	store repository.ObservationStore,
	m repository.Metrics,
	cache icache.BytesCache,
	jobs queue.Runner,
	locker usecase.Locker,
) *usecase.KafkaObservationsHandler {
	h := usecase.NewKafkaObservationsHandler(cfg.Kafka.Topic, store, m).WithCache(cache)
	if jobs != nil {
		h.WithRecompute(jobs, locker, 30*time.Second)
	}
	return h
}

// ProvideTrendHandler creates the trend API handler.
func ProvideTrendHandler(
	cfg *config.Config,
	l *applogger.Logger,
	analyzer *usecase.TrendAnalyzer,
	dashboard *usecase.DashboardUseCase,
	series *usecase.SeriesUseCase,
	cache icache.BytesCache,
) *api.TrendEchoHandler {
	return api.NewTrendEchoHandler(l, analyzer, dashboard, series, cache, cfg.Cache.TTL, api.RateLimit{
		Capacity:     cfg.Estimator.RateLimit.Capacity,
		RefillPerSec: cfg.Estimator.RateLimit.RefillPerSec,
	})
}

// ProvideHTTPHandler combines every route group.
func ProvideHTTPHandler(store repository.ObservationStore, rc *redis.Client, th *api.TrendEchoHandler) xhttp.Handler {
	checks := map[string]api.HealthCheck{"store": store.Health}
	if rc != nil {
		checks["redis"] = func(ctx context.Context) error { return rc.Ping(ctx).Err() }
	}
	return xhttp.Handlers{th, api.NewPeriodEchoHandler(), api.NewHealthEchoHandler(checks)}
}

// ProvideApp assembles the application and registers shutdown order.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	handler xhttp.Handler,
	th *api.TrendEchoHandler,
	rc *redis.Client,
	ch *pkgch.Client,
	store repository.ObservationStore,
	producer *pkgkafka.Producer,
	svc pkgcache.Service,
	collector *usecase.ObservationCollector,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaObservationsHandler,
	jobs queue.Runner,
) *server.App {
	opts := []server.Option{
		server.WithPeriodic("ratelimit_prune", time.Minute, func(context.Context) { th.PruneLimiter(10 * time.Minute) }),
	}
	// The cache owns the Redis connection and must close last.
	opts = append(opts, server.WithCloser("cache", svc.Close))
	if rc != nil {
		if cfg.Logging.Collector.Enabled {
			logs := queue.NewRedisPublisher(l, rc, queue.WithKeyPrefix("trendpulse:logs"))
			l.AddCollector(&applogger.CollectionConfig{
				TimeInterval:   cfg.Logging.Collector.FlushInterval,
				CountThreshold: cfg.Logging.Collector.MaxEntries,
				Topic:          cfg.Logging.Collector.Topic,
				Publisher:      logs,
				Source:         "trendpulse-" + cfg.Environment,
				MinLevel:       cfg.Logging.Collector.MinLevel,
			})
			opts = append(opts, server.WithCloser("log_collector", func() error {
				l.RemoveCollector()
				return nil
			}))
		}
	}
	if ch != nil {
		opts = append(opts, server.WithCloser("clickhouse", ch.Close))
	}
	opts = append(opts, server.WithCloser("observation_store", store.Close))
	if producer != nil {
		opts = append(opts, server.WithCloser("kafka_producer", producer.Close))
	}
	if collector != nil {
		opts = append(opts, server.WithCollector(collector))
	}
	if consumer != nil {
		opts = append(opts, server.WithConsumer(consumer, kh))
	}
	if jobs != nil {
		opts = append(opts, server.WithJobs(jobs))
	}
	return server.New(cfg, l, handler, opts...)
}
