package market

import (
	"context"
	"time"

	"novel-planner/internal/domain/entity"
	"novel-planner/internal/domain/repository"
	"novel-planner/pkg/logger"
	"novel-planner/pkg/metrics"
	"novel-planner/pkg/tracer"
)

// CachedSource 读取缓存中的最近一次实时快照
type CachedSource struct {
	cache repository.SnapshotCache
}

// NewCachedSource 创建缓存数据源
func NewCachedSource(cache repository.SnapshotCache) *CachedSource {
	return &CachedSource{cache: cache}
}

func (s *CachedSource) Name() string { return "cache" }

func (s *CachedSource) Provenance() entity.DataProvenance { return entity.ProvenanceCached }

func (s *CachedSource) Fetch(ctx context.Context, genre string) (*entity.MarketSnapshot, error) {
	return s.cache.GetSnapshot(ctx, genre)
}

// Acquirer 按顺序尝试数据源，首个返回非空快照的数据源胜出
type Acquirer struct {
	sources   []Source
	writeBack repository.SnapshotCache
}

// Option Acquirer 选项
type Option func(*Acquirer)

// WithWriteBack 实时数据命中后写回缓存
func WithWriteBack(cache repository.SnapshotCache) Option {
	return func(a *Acquirer) {
		a.writeBack = cache
	}
}

// NewAcquirer 创建采集器，sources 按降级顺序排列
func NewAcquirer(sources []Source, opts ...Option) *Acquirer {
	a := &Acquirer{sources: sources}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Acquire 获取题材市场快照。从不返回错误：全部数据源失败时返回 (nil, synthetic)
func (a *Acquirer) Acquire(ctx context.Context, genre string) (*entity.MarketSnapshot, entity.DataProvenance) {
	ctx = logger.WithContext(ctx, logger.GenreKey, genre)
	ctx, span := tracer.Start(ctx, "market.acquire")
	defer span.End()

	for _, src := range a.sources {
		snapshot, ok := a.try(ctx, src, genre)
		if !ok {
			continue
		}
		provenance := src.Provenance()
		if provenance == entity.ProvenanceLive && a.writeBack != nil {
			if err := a.writeBack.SetSnapshot(ctx, genre, snapshot); err != nil {
				logger.Warn(ctx, "failed to cache market snapshot", "error", err.Error())
			}
		}
		metrics.MarketProvenanceTotal.WithLabelValues(string(provenance)).Inc()
		logger.Info(ctx, "market snapshot acquired",
			"source", src.Name(),
			"provenance", provenance,
			"hot_items", len(snapshot.HotItems),
		)
		return snapshot, provenance
	}

	metrics.MarketProvenanceTotal.WithLabelValues(string(entity.ProvenanceSynthetic)).Inc()
	logger.Warn(ctx, "all market sources failed, falling back to estimates", "sources", len(a.sources))
	return nil, entity.ProvenanceSynthetic
}

func (a *Acquirer) try(ctx context.Context, src Source, genre string) (*entity.MarketSnapshot, bool) {
	start := time.Now()
	snapshot, err := src.Fetch(ctx, genre)
	metrics.MarketTierDuration.WithLabelValues(src.Name()).Observe(time.Since(start).Seconds())

	switch {
	case err != nil:
		metrics.MarketTierTotal.WithLabelValues(src.Name(), "error").Inc()
		logger.Warn(ctx, "market source failed", "source", src.Name(), "error", err.Error())
		return nil, false
	case snapshot.IsEmpty():
		metrics.MarketTierTotal.WithLabelValues(src.Name(), "empty").Inc()
		logger.Debug(ctx, "market source returned no works", "source", src.Name())
		return nil, false
	default:
		metrics.MarketTierTotal.WithLabelValues(src.Name(), "hit").Inc()
		return snapshot, true
	}
}
