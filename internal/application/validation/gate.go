package validation

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"novel-planner/internal/domain/entity"
	apperrors "novel-planner/pkg/errors"
	"novel-planner/pkg/logger"
	"novel-planner/pkg/metrics"
)

// Gate 大纲审核：一致性与版权校验全部通过后才能从草稿进入已批准状态
type Gate struct {
	consistency *ConsistencyValidator
	copyright   *CopyrightValidator
}

// NewGate 创建审核器
func NewGate(consistency *ConsistencyValidator, copyright *CopyrightValidator) *Gate {
	return &Gate{consistency: consistency, copyright: copyright}
}

// Evaluate 并发执行一致性与角色名校验。角色结果按主角、配角顺序排列，常见名字直接视为低风险
func (g *Gate) Evaluate(ctx context.Context, o *entity.Outline) (*entity.OutlineValidation, error) {
	result := &entity.OutlineValidation{}
	characters := o.Characters()
	result.Characters = make([]entity.CopyrightVerdict, len(characters))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		if err := egCtx.Err(); err != nil {
			return err
		}
		result.Consistency = g.consistency.Check(o.Genre, OutlineText(o), o.Premise)
		return nil
	})
	for i, c := range characters {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			if g.copyright.IsCommonName(c.Name) {
				result.Characters[i] = safe(c.Name)
				return nil
			}
			genre := o.Genre
			result.Characters[i] = g.copyright.Check(c.Name, &genre)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	metrics.ValidationTotal.WithLabelValues("consistency", passLabel(result.Consistency.IsConsistent)).Inc()
	for _, c := range result.Characters {
		metrics.ValidationTotal.WithLabelValues("copyright", string(c.Risk)).Inc()
	}
	return result, nil
}

// Approve 审核通过时批准大纲；未通过时返回 ErrValidationFailed 与审核结果，大纲状态不变
func (g *Gate) Approve(ctx context.Context, o *entity.Outline) (*entity.OutlineValidation, error) {
	if err := o.EnsureEditable(); err != nil {
		return nil, err
	}
	if err := o.Validate(); err != nil {
		return nil, err
	}

	result, err := g.Evaluate(ctx, o)
	if err != nil {
		return nil, err
	}

	passed := result.Passed()
	metrics.ValidationTotal.WithLabelValues("outline", passLabel(passed)).Inc()
	if !passed {
		warnings := result.Warnings()
		logger.Warn(ctx, "outline rejected by validation gate",
			"score", result.Consistency.Score,
			"warnings", len(warnings),
		)
		return result, apperrors.ErrValidationFailed.WithDetail(strings.Join(warnings, "; "))
	}

	if err := o.Approve(); err != nil {
		return result, err
	}
	logger.Info(ctx, "outline approved", "score", result.Consistency.Score)
	return result, nil
}

func passLabel(ok bool) string {
	if ok {
		return "passed"
	}
	return "failed"
}
