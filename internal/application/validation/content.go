package validation

import (
	"fmt"
	"strings"

	"novel-planner/internal/catalog"
	"novel-planner/internal/domain/entity"
)

// ContentFilter 生成正文的敏感词检查
type ContentFilter struct {
	catalog *catalog.Catalog
}

// NewContentFilter 创建敏感内容检查器
func NewContentFilter(cat *catalog.Catalog) *ContentFilter {
	return &ContentFilter{catalog: cat}
}

// Check 逐类匹配敏感词，每个命中的词记一条问题
func (f *ContentFilter) Check(content string) entity.ContentCheck {
	check := entity.ContentCheck{Passed: true, Issues: []entity.SensitiveContentIssue{}}
	for _, terms := range f.catalog.SensitiveTerms {
		for _, kw := range terms.Keywords {
			if !strings.Contains(content, kw) {
				continue
			}
			check.Issues = append(check.Issues, entity.SensitiveContentIssue{
				Category:    terms.Category,
				Keyword:     kw,
				Description: fmt.Sprintf("Found potentially %s content: %s", terms.Category, kw),
				Severity:    terms.Severity,
				Suggestion:  terms.Suggestion,
			})
			if terms.Severity != entity.RiskLow {
				check.Passed = false
			}
		}
	}
	return check
}
