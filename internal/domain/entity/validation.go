package entity

import "fmt"

// RiskLevel 版权风险等级
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// ValidationVerdict 题材一致性校验结果
type ValidationVerdict struct {
	IsConsistent       bool     `json:"is_consistent"`
	Score              float64  `json:"score"`
	MatchedKeywords    []string `json:"matched_keywords"`
	MismatchedElements []string `json:"mismatched_elements"`
	Warnings           []string `json:"warnings"`
}

// CopyrightVerdict 角色名版权校验结果
type CopyrightVerdict struct {
	CharacterName         string    `json:"character_name"`
	IsPotentialDuplicate  bool      `json:"is_potential_duplicate"`
	Risk                  RiskLevel `json:"risk"`
	SuggestedAlternatives []string  `json:"suggested_alternatives"`
	SourceWork            *string   `json:"source_work,omitempty"`
}

// OutlineValidation 大纲审核结果
type OutlineValidation struct {
	Consistency ValidationVerdict  `json:"consistency"`
	Characters  []CopyrightVerdict `json:"characters"`
}

// Passed 题材一致且没有高风险角色名
func (v *OutlineValidation) Passed() bool {
	if !v.Consistency.IsConsistent {
		return false
	}
	for _, c := range v.Characters {
		if c.Risk == RiskHigh {
			return false
		}
	}
	return true
}

// Warnings 汇总可读的提示信息
func (v *OutlineValidation) Warnings() []string {
	out := make([]string, 0, len(v.Consistency.Warnings)+len(v.Consistency.MismatchedElements))
	out = append(out, v.Consistency.MismatchedElements...)
	out = append(out, v.Consistency.Warnings...)
	if !v.Consistency.IsConsistent {
		out = append(out, fmt.Sprintf("Consistency score %.2f is below the threshold.", v.Consistency.Score))
	}
	for _, c := range v.Characters {
		if !c.IsPotentialDuplicate {
			continue
		}
		source := ""
		if c.SourceWork != nil {
			source = *c.SourceWork
		}
		out = append(out, fmt.Sprintf("Character '%s' has %s copyright risk (similar to %s).", c.CharacterName, c.Risk, source))
	}
	return out
}

// SensitiveCategory 敏感内容类别
type SensitiveCategory string

const (
	SensitiveViolence  SensitiveCategory = "violence"
	SensitiveExplicit  SensitiveCategory = "explicit"
	SensitivePolitical SensitiveCategory = "political"
)

// SensitiveContentIssue 正文中命中的敏感词
type SensitiveContentIssue struct {
	Category    SensitiveCategory `json:"category"`
	Keyword     string            `json:"keyword"`
	Description string            `json:"description"`
	Severity    RiskLevel         `json:"severity"`
	Suggestion  string            `json:"suggestion"`
}

// ContentCheck 生成正文的敏感内容检查结果，只有低风险命中时视为通过
type ContentCheck struct {
	Passed bool                    `json:"passed"`
	Issues []SensitiveContentIssue `json:"issues"`
}
