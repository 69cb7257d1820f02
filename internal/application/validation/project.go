package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"novel-planner/internal/application/outline"
	"novel-planner/internal/catalog"
	"novel-planner/internal/domain/entity"
	apperrors "novel-planner/pkg/errors"
)

// 目标字数提示阈值。低于 lowTargetWarning 时无法生成三段式大纲
const (
	lowTargetWarning  = outline.MinChapters * entity.WordsPerChapter
	highTargetWarning = 5_000_000
)

// ProjectInput 新建项目的输入
type ProjectInput struct {
	Name            string `json:"name" validate:"required,max=100"`
	Summary         string `json:"summary" validate:"required,min=10,max=2000"`
	Genre           string `json:"genre" validate:"required,genre"`
	Theme           string `json:"theme" validate:"max=200"`
	TargetWordCount uint64 `json:"target_word_count" validate:"gt=0,lte=10000000"`
}

// FieldIssue 字段级错误或提示
type FieldIssue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ProjectResult 项目输入校验结果
type ProjectResult struct {
	Valid    bool         `json:"valid"`
	Errors   []FieldIssue `json:"errors"`
	Warnings []FieldIssue `json:"warnings"`
}

// Err 校验失败时返回 ErrInvalidParam
func (r *ProjectResult) Err() error {
	if r.Valid {
		return nil
	}
	msgs := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		msgs = append(msgs, e.Field+": "+e.Message)
	}
	return apperrors.ErrInvalidParam.WithDetail(strings.Join(msgs, "; "))
}

// ProjectValidator 项目输入校验
type ProjectValidator struct {
	validate *validator.Validate
	catalog  *catalog.Catalog
}

// NewProjectValidator 创建项目校验器，注册 genre 标签。注册失败属于编程错误，直接 panic
func NewProjectValidator(cat *catalog.Catalog) *ProjectValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	if err := v.RegisterValidation("genre", func(fl validator.FieldLevel) bool {
		return cat.IsKnownGenre(fl.Field().String())
	}); err != nil {
		panic(fmt.Sprintf("register genre validation: %v", err))
	}
	return &ProjectValidator{validate: v, catalog: cat}
}

// Validate 去除首尾空白后校验输入，并对异常目标字数给出提示
func (p *ProjectValidator) Validate(in *ProjectInput) *ProjectResult {
	in.Name = strings.TrimSpace(in.Name)
	in.Summary = strings.TrimSpace(in.Summary)
	in.Genre = strings.ToLower(strings.TrimSpace(in.Genre))
	in.Theme = strings.TrimSpace(in.Theme)

	result := &ProjectResult{Errors: []FieldIssue{}, Warnings: []FieldIssue{}}
	if err := p.validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			result.Errors = append(result.Errors, FieldIssue{Field: "input", Message: err.Error()})
		}
		for _, fe := range verrs {
			result.Errors = append(result.Errors, FieldIssue{Field: fe.Field(), Message: p.message(fe)})
		}
	}

	switch {
	case in.TargetWordCount < lowTargetWarning:
		result.Warnings = append(result.Warnings, FieldIssue{
			Field:   "target_word_count",
			Message: fmt.Sprintf("Target word count is very low. Consider at least %d words for a novel.", lowTargetWarning),
		})
	case in.TargetWordCount > highTargetWarning:
		result.Warnings = append(result.Warnings, FieldIssue{
			Field:   "target_word_count",
			Message: "Very large target. This may take significant time to generate.",
		})
	}

	result.Valid = len(result.Errors) == 0
	return result
}

func (p *ProjectValidator) message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "max":
		return fmt.Sprintf("%s must be %s characters or less", fe.Field(), fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
	case "genre":
		return "Invalid genre. Supported: " + strings.Join(p.catalog.Genres(), ", ")
	case "gt":
		return "Target word count must be greater than 0"
	case "lte":
		return "Target word count must be 10,000,000 or less"
	default:
		return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
}
