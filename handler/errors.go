package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ligna159/iPadManualImageMasking/mask"
	"github.com/ligna159/iPadManualImageMasking/model"
	"github.com/ligna159/iPadManualImageMasking/service"
	"github.com/ligna159/iPadManualImageMasking/session"
	"github.com/ligna159/iPadManualImageMasking/utils"
	"go.uber.org/zap"
)

var (
	errNoMask    = errors.New("current image has no mask")
	errNoArchive = errors.New("mask archive unavailable")
)

// invalidError 请求参数校验失败
type invalidError struct{ err error }

func (e invalidError) Error() string { return e.err.Error() }
func (e invalidError) Unwrap() error { return e.err }

func invalid(err error) error { return invalidError{err} }

func (h *SessionHandler) badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, model.ErrorResponse{
		Success: false,
		Message: "请求参数错误",
		Error:   err.Error(),
	})
}

// fail 将领域错误映射为 HTTP 状态码
func (h *SessionHandler) fail(c *gin.Context, err error) {
	var inv invalidError
	status, message := http.StatusInternalServerError, "服务器内部错误"
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		status, message = http.StatusNotFound, "会话不存在或已过期"
	case errors.Is(err, session.ErrFirstImage):
		status, message = http.StatusConflict, "已经是第一张图像"
	case errors.Is(err, session.ErrLastImage):
		status, message = http.StatusConflict, "已经是最后一张图像"
	case errors.Is(err, session.ErrNoImages):
		status, message = http.StatusConflict, "请先加载图像"
	case errors.Is(err, errNoMask):
		status, message = http.StatusNotFound, "当前图像没有掩码"
	case errors.Is(err, mask.ErrInvalidSlot):
		status, message = http.StatusBadRequest, "图像序号超出范围"
	case errors.As(err, &inv):
		status, message = http.StatusBadRequest, "画笔参数无效"
	case errors.Is(err, errNoArchive):
		status, message = http.StatusServiceUnavailable, "掩码归档未启用"
	default:
		utils.Logger.Error("request failed",
			zap.String("path", c.Request.URL.Path),
			zap.Error(err))
	}
	c.JSON(status, model.ErrorResponse{
		Success: false,
		Message: message,
		Error:   err.Error(),
	})
}
