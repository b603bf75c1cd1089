package di

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"BondPulse/internal/domain/repository"
	"BondPulse/internal/handler/api"
	internalrepo "BondPulse/internal/repository"
	icache "BondPulse/internal/service/cache"
	"BondPulse/internal/service/moex"
	"BondPulse/internal/services/analytics"
	"BondPulse/internal/usecase"
	"BondPulse/pkg/cache"
	pkgch "BondPulse/pkg/clickhouse"
	"BondPulse/pkg/config"
	xhttp "BondPulse/pkg/http"
	pkgkafka "BondPulse/pkg/kafka"
	"BondPulse/pkg/logger"
	"BondPulse/pkg/metrics"
	"BondPulse/pkg/queue"
	"BondPulse/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	level := "info"
	format := "console"
	if cfg.Environment == "production" {
		format = "json"
	}
	return logger.New(&logger.Config{Level: level, Format: format, Output: "stdout"})
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

	if err := client.InitSchema(ctx, []string{
		"CREATE DATABASE IF NOT EXISTS " + cfg.ClickHouse.Database,
		"CREATE TABLE IF NOT EXISTS " + cfg.ClickHouse.Database + ".curve_points (trade_date Date, horizon_years Float64, yield_pct Float64) ENGINE=ReplacingMergeTree ORDER BY (trade_date, horizon_years)",
	}); err != nil {
		_ = client.Close() // cannot log here (DI layer no logger); propagate error
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

// ProvideHTTPClient creates the outbound HTTP client for upstream calls.
func ProvideHTTPClient(cfg *config.Config) *xhttp.Client {
	timeout := cfg.MOEX.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return xhttp.NewClient(xhttp.WithTimeout(timeout))
}

// ProvideBondSource creates the exchange client.
func ProvideBondSource(httpClient *xhttp.Client, log *logger.Logger, cfg *config.Config) repository.BondSource {
	opts := []moex.Option{}
	if cfg.MOEX.RateLimit.RequestsPerSecond > 0 {
		opts = append(opts, moex.WithRateLimit(cfg.MOEX.RateLimit.RequestsPerSecond, cfg.MOEX.RateLimit.Burst))
	}
	if cfg.Screener.Redis.Enabled {
		opts = append(opts, moex.WithCache(icache.NewRedisCache(icache.RedisConfig{
			Addr:     cfg.Screener.Redis.Addr,
			Password: cfg.Screener.Redis.Password,
			DB:       cfg.Screener.Redis.DB,
		})))
	}
	return moex.NewClient(httpClient, log, cfg.MOEX.BondsURL, cfg.MOEX.CurveURL, opts...)
}

// ProvideCurveStore creates ClickHouse curve storage.
func ProvideCurveStore(chClient *pkgch.Client, cfg *config.Config) repository.CurveStore {
	return internalrepo.NewClickHouseCurveStore(chClient.DB(), cfg.ClickHouse.Database+".curve_points")
}

// ProvideCurvePublisher creates the Kafka curve publisher.
func ProvideCurvePublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.CurvePublisher {
	return internalrepo.NewKafkaCurvePublisher(producer, cfg.Kafka.Topic)
}

// ProvideKafkaCurveHandler registers the handler for the curve topic.
func ProvideKafkaCurveHandler(store repository.CurveStore, metrics repository.Metrics, cfg *config.Config) *usecase.KafkaCurveHandler {
	return usecase.NewKafkaCurveHandler(cfg.Kafka.Topic, store, metrics)
}

// ProvideRedisCache creates the Redis cache when enabled, nil otherwise.
func ProvideRedisCache(cfg *config.Config) (*cache.RedisCache, error) {
	if !cfg.Screener.Redis.Enabled {
		return nil, nil
	}
	host, port := splitAddr(cfg.Screener.Redis.Addr)
	return cache.NewRedisCache(
		cache.WithRedisHost(host),
		cache.WithRedisPort(port),
		cache.WithRedisPassword(cfg.Screener.Redis.Password),
		cache.WithRedisDB(cfg.Screener.Redis.DB),
	)
}

// ProvideCacheService layers memory over Redis when Redis is available.
func ProvideCacheService(rc *cache.RedisCache) cache.Service {
	if rc == nil {
		return cache.NewMemoryCache()
	}
	return cache.NewLayeredCache(rc)
}

// ProvideCollectionStore keeps collections in Redis, or in memory without it.
func ProvideCollectionStore(rc *cache.RedisCache) repository.CollectionStore {
	if rc == nil {
		return internalrepo.NewMemoryCollectionStore()
	}
	return internalrepo.NewRedisCollectionStore(rc.Client())
}

// ProvideJobQueue creates the Redis job queue for on-demand refreshes. It is
// nil without Redis; the refresh endpoint then runs inline.
func ProvideJobQueue(rc *cache.RedisCache, log *logger.Logger) *queue.RedisQueue {
	if rc == nil {
		return nil
	}
	return queue.NewRedisQueue(log, &queue.QueueConfig{
		Workers:    1,
		RetryLimit: 2,
		RetryDelay: 30 * time.Second,
	}, rc.Client(), queue.ModeProducerConsumer)
}

// ProvideQueueService exposes the queue as its publishing interface.
func ProvideQueueService(rq *queue.RedisQueue) queue.QueueService {
	if rq == nil {
		return nil
	}
	return rq
}

// ProvideCalculator creates the bond metric calculator with a one point
// parallel rate move.
func ProvideCalculator() *analytics.Calculator {
	return analytics.NewCalculator(1)
}

// ProvideCurveProcessor creates the curve backend router.
func ProvideCurveProcessor(
	pub repository.CurvePublisher,
	store repository.CurveStore,
	metrics repository.Metrics,
	cfg *config.Config,
) *usecase.CurveProcessor {
	return usecase.NewCurveProcessor(
		pub,
		store,
		metrics,
		cfg.Backend.Type,
		cfg.Backend.BatchSize,
		cfg.Backend.BatchTimeout,
	)
}

// ProvideScreener creates the screener use case.
func ProvideScreener(
	source repository.BondSource,
	calc *analytics.Calculator,
	processor *usecase.CurveProcessor,
	cacheSvc cache.Service,
	metrics repository.Metrics,
	log *logger.Logger,
	cfg *config.Config,
) *usecase.Screener {
	return usecase.NewScreener(
		source,
		calc,
		processor,
		cacheSvc,
		metrics,
		log,
		cfg.Screener.HistoryDays,
		cfg.Screener.Cache.BondsTTL,
	)
}

// ProvideCurveHistory creates the curve history use case.
func ProvideCurveHistory(store repository.CurveStore, metrics repository.Metrics) *usecase.CurveHistory {
	return usecase.NewCurveHistory(store, metrics)
}

// ProvideRefresher creates the periodic refresh loop.
func ProvideRefresher(screener *usecase.Screener, log *logger.Logger, cfg *config.Config) *usecase.Refresher {
	return usecase.NewRefresher(screener, log, cfg.MOEX.RefreshInterval)
}

// ProvideUpdatesHub creates the websocket notification hub.
func ProvideUpdatesHub(log *logger.Logger) *api.UpdatesHub {
	return api.NewUpdatesHub(log)
}

// ProvideBondsHandler creates the bonds HTTP handler.
func ProvideBondsHandler(log *logger.Logger, screener *usecase.Screener, qs queue.QueueService, metrics repository.Metrics) *api.BondsEchoHandler {
	return api.NewBondsEchoHandler(log, screener, qs, metrics)
}

// ProvideCurveHandler creates the curve HTTP handler.
func ProvideCurveHandler(log *logger.Logger, screener *usecase.Screener, history *usecase.CurveHistory) *api.CurveEchoHandler {
	return api.NewCurveEchoHandler(log, screener, history)
}

// ProvideCollectionsHandler creates the collections HTTP handler.
func ProvideCollectionsHandler(log *logger.Logger, store repository.CollectionStore, screener *usecase.Screener) *api.CollectionsEchoHandler {
	return api.NewCollectionsEchoHandler(log, store, screener)
}

// ProvideHTTPHandler bundles every route group into one registration.
func ProvideHTTPHandler(
	bonds *api.BondsEchoHandler,
	curve *api.CurveEchoHandler,
	collections *api.CollectionsEchoHandler,
	hub *api.UpdatesHub,
) xhttp.Handler {
	return api.NewRouter(bonds, curve, collections, hub)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	log *logger.Logger,
	screener *usecase.Screener,
	refresher *usecase.Refresher,
	consumer *pkgkafka.Consumer,
	producer *pkgkafka.Producer,
	kh *usecase.KafkaCurveHandler,
	chClient *pkgch.Client,
	rq *queue.RedisQueue,
	hub *api.UpdatesHub,
	handler xhttp.Handler,
) *server.App {
	if consumer != nil {
		consumer.WithConsumerHook(pkgkafka.NoopHook{})
	}
	return server.New(cfg, log, screener, refresher, consumer, producer, kh, chClient, rq, hub, handler)
}

func splitAddr(addr string) (string, int) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return addr, 6379
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return host, 6379
	}
	return host, port
}
