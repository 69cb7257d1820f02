package validation

import (
	"slices"
	"strings"
	"unicode/utf8"

	"novel-planner/internal/catalog"
	"novel-planner/internal/domain/entity"
)

// minPartialMatchRunes 子串匹配要求双方名字都至少有该长度，单字名不参与
const minPartialMatchRunes = 2

// CopyrightValidator 角色名版权风险校验
type CopyrightValidator struct {
	catalog *catalog.Catalog
}

// NewCopyrightValidator 创建版权校验器
func NewCopyrightValidator(cat *catalog.Catalog) *CopyrightValidator {
	return &CopyrightValidator{catalog: cat}
}

// Check 对照全部题材的已知角色库判断名字风险。
// genre 仅作为调用方上下文保留，匹配总是跨题材进行。
func (v *CopyrightValidator) Check(name string, _ *string) entity.CopyrightVerdict {
	lower := strings.ToLower(name)

	for _, kc := range v.catalog.KnownCharacters {
		if strings.ToLower(kc.Name) == lower {
			return risky(name, entity.RiskHigh, kc)
		}
	}

	if utf8.RuneCountInString(name) >= minPartialMatchRunes {
		for _, kc := range v.catalog.KnownCharacters {
			if utf8.RuneCountInString(kc.Name) < minPartialMatchRunes {
				continue
			}
			ref := strings.ToLower(kc.Name)
			if strings.Contains(ref, lower) || strings.Contains(lower, ref) {
				return risky(name, entity.RiskMedium, kc)
			}
		}
	}

	return safe(name)
}

// CheckMany 批量校验，结果顺序与输入一致
func (v *CopyrightValidator) CheckMany(names []string, genre *string) []entity.CopyrightVerdict {
	out := make([]entity.CopyrightVerdict, 0, len(names))
	for _, n := range names {
		out = append(out, v.Check(n, genre))
	}
	return out
}

// IsCommonName 常见名字不参与版权告警
func (v *CopyrightValidator) IsCommonName(name string) bool {
	return v.catalog.IsCommonName(name)
}

func risky(name string, risk entity.RiskLevel, kc catalog.KnownCharacter) entity.CopyrightVerdict {
	source := kc.Source
	alternatives := slices.Clone(kc.Alternatives)
	if alternatives == nil {
		alternatives = []string{}
	}
	return entity.CopyrightVerdict{
		CharacterName:         name,
		IsPotentialDuplicate:  true,
		Risk:                  risk,
		SuggestedAlternatives: alternatives,
		SourceWork:            &source,
	}
}

func safe(name string) entity.CopyrightVerdict {
	return entity.CopyrightVerdict{
		CharacterName:         name,
		Risk:                  entity.RiskLow,
		SuggestedAlternatives: []string{},
	}
}
