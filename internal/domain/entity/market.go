// Package entity 定义领域实体
package entity

import (
	"math"
	"math/bits"
)

// DataProvenance 市场数据来源，记录满足请求的降级层级，创建后不再升级
type DataProvenance string

const (
	ProvenanceLive      DataProvenance = "live"
	ProvenanceCached    DataProvenance = "cached"
	ProvenanceSynthetic DataProvenance = "synthetic"
)

// RankedWork 排行榜作品，解析后不可变
type RankedWork struct {
	Title     string   `json:"title"`
	Author    string   `json:"author"`
	WordCount uint64   `json:"word_count"`
	Likes     uint64   `json:"likes"`
	Rating    *float64 `json:"rating,omitempty"`
}

// MarketSnapshot 单次分析获取的题材市场快照
type MarketSnapshot struct {
	TotalItems       uint32       `json:"total_items"`
	HotItems         []RankedWork `json:"hot_items"`
	AverageWordCount uint64       `json:"average_word_count"`
	Tags             []string     `json:"tags"`
}

// NewMarketSnapshot 由热门作品与标签构造快照，标签去重并保持首次出现的顺序
func NewMarketSnapshot(totalItems uint32, works []RankedWork, tags []string) *MarketSnapshot {
	if totalItems < uint32(len(works)) {
		totalItems = uint32(len(works))
	}
	var sum uint64
	for _, w := range works {
		sum = SaturatingAdd(sum, w.WordCount)
	}
	var avg uint64
	if len(works) > 0 {
		avg = sum / uint64(len(works))
	}
	return &MarketSnapshot{
		TotalItems:       totalItems,
		HotItems:         works,
		AverageWordCount: avg,
		Tags:             dedupe(tags),
	}
}

// IsEmpty 快照为空或没有任何热门作品
func (s *MarketSnapshot) IsEmpty() bool {
	return s == nil || len(s.HotItems) == 0
}

// HasTag 判断快照是否包含标签
func (s *MarketSnapshot) HasTag(tag string) bool {
	if s == nil {
		return false
	}
	for _, t := range s.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

func dedupe(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, s := range in {
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// SaturatingAdd 无符号加法，溢出时取最大值
func SaturatingAdd(a, b uint64) uint64 {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return math.MaxUint64
	}
	return sum
}
