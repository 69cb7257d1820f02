// Package wire 提供依赖注入配置
package wire

import (
	"context"
	"fmt"
	"time"

	"github.com/google/wire"

	"novel-planner/internal/application/feasibility"
	"novel-planner/internal/application/market"
	"novel-planner/internal/application/outline"
	"novel-planner/internal/application/pipeline"
	"novel-planner/internal/application/planning"
	"novel-planner/internal/application/validation"
	"novel-planner/internal/catalog"
	"novel-planner/internal/config"
	"novel-planner/internal/domain/repository"
	"novel-planner/internal/infrastructure/llm"
	"novel-planner/internal/infrastructure/messaging"
	"novel-planner/internal/infrastructure/persistence/postgres"
	"novel-planner/internal/infrastructure/persistence/redis"
	"novel-planner/internal/infrastructure/persistence/sqlite"
	"novel-planner/internal/interfaces/http/handler"
	"novel-planner/internal/interfaces/http/middleware"
	"novel-planner/internal/interfaces/http/router"
	"novel-planner/pkg/logger"
)

// DataLayer 数据层依赖容器。Redis 与 Producer 在未启用 Redis 时为空
type DataLayer struct {
	Store      repository.ArtifactStore
	Transactor repository.Transactor

	RedisClient *redis.Client
	Cache       *redis.Cache
	Producer    *messaging.Producer
}

// Worker 任务消费进程所需的依赖
type Worker struct {
	Service *pipeline.Service
	Data    *DataLayer
}

// DataSet 存储、缓存与消息
var DataSet = wire.NewSet(
	ProvideDataLayer,
	ProvideArtifacts,
	ProvideTransactor,
	ProvidePublisher,
	ProvideSnapshotCache,
)

// MarketSet 市场数据采集
var MarketSet = wire.NewSet(
	ProvideMarketSources,
	ProvideAcquirer,
)

// PipelineSet 规划流水线
var PipelineSet = wire.NewSet(
	ProvideCatalog,
	feasibility.NewScorer,
	outline.NewSynthesizer,
	validation.NewConsistencyValidator,
	validation.NewCopyrightValidator,
	validation.NewContentFilter,
	validation.NewGate,
	validation.NewProjectValidator,
	planning.NewPlanner,
	ProvideGenerator,
	ProvidePipelineConfig,
	wire.Struct(new(pipeline.Deps), "*"),
	pipeline.NewService,
)

// ServiceSet 流水线服务及其全部依赖
var ServiceSet = wire.NewSet(DataSet, MarketSet, PipelineSet)

// HTTPSet 路由与健康检查
var HTTPSet = wire.NewSet(
	ProvideHealthHandler,
	ProvideRateLimiter,
	wire.Struct(new(router.Deps), "*"),
	router.New,
)

// ProvideDataLayer 按 storage.driver 打开产物存储，并按需连接 Redis
func ProvideDataLayer(ctx context.Context, cfg *config.Config) (*DataLayer, func(), error) {
	var (
		dl       DataLayer
		cleanups []func()
	)
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	switch cfg.Storage.Driver {
	case "postgres":
		client, err := postgres.NewClient(&cfg.Database.Postgres)
		if err != nil {
			return nil, nil, err
		}
		cleanups = append(cleanups, func() { _ = client.Close() })
		if err := client.Migrate(ctx); err != nil {
			cleanup()
			return nil, nil, err
		}
		dl.Store = postgres.NewArtifactRepository(client)
		dl.Transactor = postgres.NewTxManager(client)
	default:
		store, err := sqlite.Open(cfg.Storage.SQLite.Path)
		if err != nil {
			return nil, nil, err
		}
		cleanups = append(cleanups, func() { _ = store.Close() })
		dl.Store = store
		dl.Transactor = store
	}

	if cfg.Cache.Redis.Enabled {
		client, err := redis.NewClient(&cfg.Cache.Redis)
		if err != nil {
			logger.Warn(ctx, "redis not available, cache and job queue disabled", "error", err.Error())
		} else {
			cleanups = append(cleanups, func() { _ = client.Close() })
			dl.RedisClient = client
			dl.Cache = redis.NewCache(client)
			dl.Producer = ProvideMessagingProducer(client, cfg)
		}
	}

	return &dl, cleanup, nil
}

// ProvideArtifacts 提供类型化的产物访问
func ProvideArtifacts(dl *DataLayer) *repository.Artifacts {
	return repository.NewArtifacts(dl.Store)
}

// ProvideTransactor 提供事务管理器
func ProvideTransactor(dl *DataLayer) repository.Transactor {
	return dl.Transactor
}

// ProvidePublisher 提供任务发布端口，未启用 Redis 时为空
func ProvidePublisher(dl *DataLayer) pipeline.JobPublisher {
	if dl.Producer == nil {
		return nil
	}
	return dl.Producer
}

// ProvideMessagingProducer 提供消息生产者
func ProvideMessagingProducer(client *redis.Client, cfg *config.Config) *messaging.Producer {
	maxLen := cfg.Messaging.RedisStream.MaxLen
	if maxLen <= 0 {
		maxLen = 100000
	}
	return messaging.NewProducer(client.Redis(), int64(maxLen))
}

// ProvideSnapshotCache 提供市场快照缓存，未启用 Redis 或关闭缓存时为空
func ProvideSnapshotCache(cfg *config.Config, dl *DataLayer) repository.SnapshotCache {
	if dl.Cache == nil || !cfg.Market.CacheEnabled {
		return nil
	}
	ttl := cfg.Market.CacheTTL
	if ttl <= 0 {
		ttl = 6 * time.Hour
	}
	return redis.NewSnapshotCache(dl.Cache, ttl)
}

// ProvideCatalog 加载并校验题材目录
func ProvideCatalog(cfg *config.Config) (*catalog.Catalog, error) {
	cat, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		return nil, err
	}
	if err := cat.Validate(); err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}
	return cat, nil
}

// ProvideGenerator 提供正文生成器，默认提供商缺失或未配置 api_key 时返回 nil
func ProvideGenerator(ctx context.Context, cfg *config.Config) pipeline.TextGenerator {
	factory := llm.NewEinoFactory(&cfg.LLM)
	name, provider, err := factory.Provider("")
	if err != nil || provider.APIKey == "" {
		logger.Warn(ctx, "llm provider not configured, chapter generation disabled", "provider", name)
		return nil
	}
	gen, err := llm.NewGenerator(ctx, factory)
	if err != nil {
		logger.Warn(ctx, "llm generator not available, chapter generation disabled", "error", err.Error())
		return nil
	}
	return gen
}

// ProvideMarketSources 按配置组装数据源：排行榜接口、排行榜页面、缓存
func ProvideMarketSources(cfg *config.Config, cat *catalog.Catalog, cache repository.SnapshotCache) []market.Source {
	fetcher := market.NewFetcher(market.FetcherConfig{
		Timeout:           cfg.Market.RequestTimeout,
		RequestsPerSecond: cfg.Market.RequestsPerSecond,
		Burst:             cfg.Market.Burst,
		UserAgent:         cfg.Market.UserAgent,
	})

	var sources []market.Source
	if cfg.Market.RankingURL != "" {
		sources = append(sources, market.NewRankingSource(fetcher, cat, cfg.Market.RankingURL, cfg.Market.ProxyMetrics))
	}
	if cfg.Market.PageURL != "" {
		sources = append(sources, market.NewPageSource(fetcher, cat, cfg.Market.PageURL, cfg.Market.ProxyMetrics))
	}
	if cache != nil {
		sources = append(sources, market.NewCachedSource(cache))
	}
	return sources
}

// ProvideAcquirer 组装分层采集器，有缓存时实时数据写回
func ProvideAcquirer(sources []market.Source, cache repository.SnapshotCache) *market.Acquirer {
	var opts []market.Option
	if cache != nil {
		opts = append(opts, market.WithWriteBack(cache))
	}
	return market.NewAcquirer(sources, opts...)
}

// ProvidePipelineConfig 提供流水线配置
func ProvidePipelineConfig(cfg *config.Config) pipeline.Config {
	return pipeline.Config{
		ContextChapters: cfg.Planning.ContextChapters,
		ContextMaxRunes: cfg.Planning.ContextMaxRunes,
	}
}

// ProvideHealthHandler 存储为必需依赖，Redis 为可选依赖
func ProvideHealthHandler(cfg *config.Config, dl *DataLayer) *handler.HealthHandler {
	optional := map[string]handler.Pinger{}
	if dl.RedisClient != nil {
		optional["redis"] = dl.RedisClient
	}
	return handler.NewHealthHandler(cfg.App.Version, map[string]handler.Pinger{"storage": dl.Store}, optional)
}

// ProvideRateLimiter 有 Redis 时使用滑动窗口限流，否则由路由回退到进程内限流
func ProvideRateLimiter(cfg *config.Config, dl *DataLayer) middleware.Limiter {
	if dl.RedisClient == nil {
		return nil
	}
	return redis.NewRateLimiter(dl.RedisClient, cfg.Security.RateLimit.RequestsPerSecond, time.Second)
}
