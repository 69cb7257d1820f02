package market

import (
	"context"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"novel-planner/internal/catalog"
	"novel-planner/internal/domain/entity"
)

const (
	stateMarker = "window.__INITIAL_STATE__="
	scriptClose = "</script>"
)

var pageListPaths = []string{"rank.book_list", "rank.list", "ranking.books", "bookList"}

// PageSource 题材排行榜页面，从内嵌的初始状态脚本中提取数据
type PageSource struct {
	fetcher *Fetcher
	catalog *catalog.Catalog
	baseURL string
	proxy   bool
}

// NewPageSource 创建排行榜页面数据源
func NewPageSource(fetcher *Fetcher, cat *catalog.Catalog, baseURL string, proxyMetrics bool) *PageSource {
	return &PageSource{fetcher: fetcher, catalog: cat, baseURL: strings.TrimRight(baseURL, "/"), proxy: proxyMetrics}
}

func (s *PageSource) Name() string { return "page" }

func (s *PageSource) Provenance() entity.DataProvenance { return entity.ProvenanceLive }

// Fetch 请求 {base}/<id> 并解析页面内嵌状态
func (s *PageSource) Fetch(ctx context.Context, genre string) (*entity.MarketSnapshot, error) {
	body, err := s.fetcher.Get(ctx, s.baseURL+"/"+s.catalog.GenreIDFor(genre).ID)
	if err != nil {
		return nil, err
	}
	state, err := extractState(string(body))
	if err != nil {
		return nil, err
	}
	snapshot := parseRanking(gjson.Parse(state), pageListPaths, s.proxy)
	if snapshot == nil {
		return nil, fmt.Errorf("page state has no ranking under %s", strings.Join(pageListPaths, "|"))
	}
	return snapshot, nil
}

// extractState 截取标记与其后第一个 </script> 之间的内容，从首个 { 开始解析
func extractState(html string) (string, error) {
	start := strings.Index(html, stateMarker)
	if start < 0 {
		return "", fmt.Errorf("state marker not found")
	}
	rest := html[start+len(stateMarker):]
	if end := strings.Index(rest, scriptClose); end >= 0 {
		rest = rest[:end]
	}
	brace := strings.IndexByte(rest, '{')
	if brace < 0 {
		return "", fmt.Errorf("state blob has no object")
	}
	blob := strings.TrimSpace(rest[brace:])
	blob = strings.TrimSpace(strings.TrimSuffix(blob, ";"))
	// 页面脚本可能包含 JSON 不支持的 undefined
	blob = strings.ReplaceAll(blob, ":undefined", ":null")
	if !gjson.Valid(blob) {
		return "", fmt.Errorf("state blob is not valid JSON")
	}
	return blob, nil
}
