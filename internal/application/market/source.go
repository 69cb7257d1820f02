// Package market 提供题材市场数据采集，按数据源顺序逐级降级
package market

import (
	"context"
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"novel-planner/internal/domain/entity"
)

// 代理指标换算系数。数据源只提供字数/阅读数时用于估算浏览量/收藏量，
// 属于粗略近似，不作为精度承诺。
const (
	WordsToViewsFactor     uint64 = 1000
	ReadsToFavoritesFactor uint64 = 100
)

// Source 市场数据源
type Source interface {
	// Name 数据源名称，用于日志与指标
	Name() string
	// Provenance 该数据源命中时的数据来源标记
	Provenance() entity.DataProvenance
	// Fetch 获取题材快照；失败返回 error，无数据返回空快照
	Fetch(ctx context.Context, genre string) (*entity.MarketSnapshot, error)
}

// fieldPath 字段候选路径，Proxy 表示该字段是代理指标
type fieldPath struct {
	Path  string
	Proxy bool
}

// recordSchema 作品记录的字段候选，按优先级排列
type recordSchema struct {
	Title     []fieldPath
	Author    []fieldPath
	WordCount []fieldPath
	Likes     []fieldPath
	Rating    []fieldPath
	Tags      []fieldPath
}

var defaultSchema = recordSchema{
	Title:  []fieldPath{{Path: "book_name"}, {Path: "title"}, {Path: "name"}},
	Author: []fieldPath{{Path: "author_name"}, {Path: "author"}},
	WordCount: []fieldPath{
		{Path: "word_number", Proxy: true},
		{Path: "word_count", Proxy: true},
		{Path: "words", Proxy: true},
	},
	Likes: []fieldPath{
		{Path: "read_count", Proxy: true},
		{Path: "likes"},
		{Path: "favorites"},
	},
	Rating: []fieldPath{{Path: "score"}, {Path: "rating"}},
	Tags:   []fieldPath{{Path: "category_tags"}, {Path: "tags"}},
}

var totalPaths = []string{"data.total", "data.total_count", "total"}

// parseRanking 在 root 下按候选路径查找作品列表并解析为快照
// 缺少任一必需字段的记录被丢弃
func parseRanking(root gjson.Result, listPaths []string, proxy bool) *entity.MarketSnapshot {
	list, ok := firstArray(root, listPaths)
	if !ok {
		return nil
	}

	var works []entity.RankedWork
	var tags []string
	list.ForEach(func(_, item gjson.Result) bool {
		w, ok := parseRecord(item, defaultSchema, proxy)
		if ok {
			works = append(works, w)
			tags = append(tags, collectTags(item, defaultSchema.Tags)...)
		}
		return true
	})

	var total uint32
	for _, p := range totalPaths {
		if v := root.Get(p); v.Exists() && v.Type == gjson.Number {
			total = uint32(min(v.Uint(), math.MaxUint32))
			break
		}
	}
	return entity.NewMarketSnapshot(total, works, tags)
}

func parseRecord(item gjson.Result, schema recordSchema, proxy bool) (entity.RankedWork, bool) {
	title, ok := firstString(item, schema.Title)
	if !ok {
		return entity.RankedWork{}, false
	}
	author, ok := firstString(item, schema.Author)
	if !ok {
		return entity.RankedWork{}, false
	}
	words, wordsProxy, ok := firstUint(item, schema.WordCount)
	if !ok {
		return entity.RankedWork{}, false
	}
	likes, likesProxy, ok := firstUint(item, schema.Likes)
	if !ok {
		return entity.RankedWork{}, false
	}
	if proxy && wordsProxy {
		words = scale(words, WordsToViewsFactor)
	}
	if proxy && likesProxy {
		likes = scale(likes, ReadsToFavoritesFactor)
	}

	w := entity.RankedWork{
		Title:     title,
		Author:    author,
		WordCount: words,
		Likes:     likes,
	}
	if r, ok := firstFloat(item, schema.Rating); ok {
		w.Rating = &r
	}
	return w, true
}

func firstArray(root gjson.Result, paths []string) (gjson.Result, bool) {
	for _, p := range paths {
		if v := root.Get(p); v.IsArray() {
			return v, true
		}
	}
	return gjson.Result{}, false
}

func firstString(item gjson.Result, paths []fieldPath) (string, bool) {
	for _, p := range paths {
		v := item.Get(p.Path)
		if !v.Exists() || v.Type == gjson.Null {
			continue
		}
		if s := strings.TrimSpace(v.String()); s != "" {
			return s, true
		}
	}
	return "", false
}

// firstUint 数字或数字字符串均可
func firstUint(item gjson.Result, paths []fieldPath) (uint64, bool, bool) {
	for _, p := range paths {
		v := item.Get(p.Path)
		switch v.Type {
		case gjson.Number:
			if v.Num < 0 {
				continue
			}
			return v.Uint(), p.Proxy, true
		case gjson.String:
			n, err := strconv.ParseUint(strings.TrimSpace(v.Str), 10, 64)
			if err != nil {
				continue
			}
			return n, p.Proxy, true
		}
	}
	return 0, false, false
}

func firstFloat(item gjson.Result, paths []fieldPath) (float64, bool) {
	for _, p := range paths {
		v := item.Get(p.Path)
		switch v.Type {
		case gjson.Number:
			return v.Num, true
		case gjson.String:
			f, err := strconv.ParseFloat(strings.TrimSpace(v.Str), 64)
			if err == nil {
				return f, true
			}
		}
	}
	return 0, false
}

// collectTags 支持字符串数组、对象数组（取 name）和逗号分隔字符串
func collectTags(item gjson.Result, paths []fieldPath) []string {
	for _, p := range paths {
		v := item.Get(p.Path)
		if !v.Exists() {
			continue
		}
		var tags []string
		switch {
		case v.IsArray():
			v.ForEach(func(_, t gjson.Result) bool {
				if t.IsObject() {
					t = t.Get("name")
				}
				if s := strings.TrimSpace(t.String()); s != "" {
					tags = append(tags, s)
				}
				return true
			})
		case v.Type == gjson.String:
			for _, s := range strings.Split(v.Str, ",") {
				if s = strings.TrimSpace(s); s != "" {
					tags = append(tags, s)
				}
			}
		}
		if len(tags) > 0 {
			return tags
		}
	}
	return nil
}

func scale(v, factor uint64) uint64 {
	if v != 0 && v > math.MaxUint64/factor {
		return math.MaxUint64
	}
	return v * factor
}
