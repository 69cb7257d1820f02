package market

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"

	"novel-planner/internal/catalog"
	"novel-planner/internal/domain/entity"
)

var rankingListPaths = []string{"data.book_list", "data.list", "data.books", "book_list"}

// RankingSource 题材排行榜 JSON 接口
type RankingSource struct {
	fetcher *Fetcher
	catalog *catalog.Catalog
	baseURL string
	proxy   bool
}

// NewRankingSource 创建排行榜接口数据源
func NewRankingSource(fetcher *Fetcher, cat *catalog.Catalog, baseURL string, proxyMetrics bool) *RankingSource {
	return &RankingSource{fetcher: fetcher, catalog: cat, baseURL: baseURL, proxy: proxyMetrics}
}

func (s *RankingSource) Name() string { return "ranking" }

func (s *RankingSource) Provenance() entity.DataProvenance { return entity.ProvenanceLive }

// Fetch 请求 {base}?category_id=<id> 并解析作品列表
func (s *RankingSource) Fetch(ctx context.Context, genre string) (*entity.MarketSnapshot, error) {
	u, err := url.Parse(s.baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid ranking url: %w", err)
	}
	q := u.Query()
	q.Set("category_id", s.catalog.GenreIDFor(genre).ID)
	u.RawQuery = q.Encode()

	body, err := s.fetcher.Get(ctx, u.String())
	if err != nil {
		return nil, err
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("ranking payload is not valid JSON")
	}
	snapshot := parseRanking(gjson.ParseBytes(body), rankingListPaths, s.proxy)
	if snapshot == nil {
		return nil, fmt.Errorf("ranking payload has no book list under %s", strings.Join(rankingListPaths, "|"))
	}
	return snapshot, nil
}
