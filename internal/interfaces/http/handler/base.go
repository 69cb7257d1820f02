// Package handler 提供 HTTP 请求处理器
package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"novel-planner/internal/interfaces/http/dto"
	apperrors "novel-planner/pkg/errors"
	"novel-planner/pkg/logger"
)

// respondError 应用错误按其状态码返回，其余错误记录日志并返回 500
func respondError(c *gin.Context, err error, result any) {
	ctx := c.Request.Context()
	if apperrors.IsAppError(err) {
		appErr := apperrors.AsAppError(err)
		if appErr.HTTPStatus >= http.StatusInternalServerError {
			logger.Error(ctx, "request failed", err, "path", c.FullPath())
		}
		dto.AppError(c, appErr, result)
		return
	}
	if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		dto.Error(c, 499, "client closed request")
		return
	}
	logger.Error(ctx, "request failed", err, "path", c.FullPath())
	dto.Error(c, http.StatusInternalServerError, "internal server error")
}

// chapterNumber 绑定章节号，失败时已写入 400 响应
func chapterNumber(c *gin.Context) (uint32, bool) {
	n, err := dto.BindChapterNumber(c)
	if err != nil {
		dto.BadRequest(c, err.Error())
		return 0, false
	}
	return n, true
}
