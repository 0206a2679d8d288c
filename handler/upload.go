package handler

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ligna159/iPadManualImageMasking/config"
	"github.com/ligna159/iPadManualImageMasking/decode"
	"github.com/ligna159/iPadManualImageMasking/model"
	"github.com/ligna159/iPadManualImageMasking/service"
	"github.com/ligna159/iPadManualImageMasking/session"
	"github.com/ligna159/iPadManualImageMasking/utils"
	"go.uber.org/zap"
)

type SessionHandler struct {
	cfg      *config.Config
	sessions *service.SessionManager
	exports  *service.ExportService
	redis    *service.RedisService
}

// NewSessionHandler redis 为 nil 时归档相关接口返回 503
func NewSessionHandler(cfg *config.Config, sessions *service.SessionManager, exports *service.ExportService, redis *service.RedisService) *SessionHandler {
	return &SessionHandler{
		cfg:      cfg,
		sessions: sessions,
		exports:  exports,
		redis:    redis,
	}
}

// Create 上传一批图像并创建会话
func (h *SessionHandler) Create(c *gin.Context) {
	sources, ok := h.readSources(c)
	if !ok {
		return
	}

	id, batch, err := h.sessions.Create(c.Request.Context(), sources)
	if err != nil {
		h.loadFailed(c, batch, err)
		return
	}

	report := loadReport(id, batch)
	err = h.sessions.With(id, func(s *session.Session) error {
		state := buildState(id, s)
		report.State = &state
		return nil
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, model.Response{
		Success: true,
		Message: fmt.Sprintf("加载完成 %s", batch.Ratio()),
		Data:    report,
	})
}

// Reload 用新的一批图像替换会话内容，原有掩码全部丢弃
func (h *SessionHandler) Reload(c *gin.Context) {
	id := c.Param("id")
	sources, ok := h.readSources(c)
	if !ok {
		return
	}

	batch, err := h.sessions.Reload(c.Request.Context(), id, sources)
	if err != nil {
		h.loadFailed(c, batch, err)
		return
	}

	report := loadReport(id, batch)
	h.sessions.With(id, func(s *session.Session) error {
		state := buildState(id, s)
		report.State = &state
		return nil
	})
	c.JSON(http.StatusOK, model.Response{
		Success: true,
		Message: fmt.Sprintf("加载完成 %s", batch.Ratio()),
		Data:    report,
	})
}

func (h *SessionHandler) loadFailed(c *gin.Context, batch *decode.Batch, err error) {
	switch {
	case errors.Is(err, decode.ErrNoSources):
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Success: false,
			Message: "请选择图像文件",
		})
	case errors.Is(err, decode.ErrEmptyBatch):
		c.JSON(http.StatusUnprocessableEntity, model.Response{
			Success: false,
			Message: "无法加载任何图像",
			Data:    loadReport("", batch),
		})
	case errors.Is(err, service.ErrBusy):
		c.JSON(http.StatusServiceUnavailable, model.ErrorResponse{
			Success: false,
			Message: "处理队列已满，请稍后重试",
			Error:   err.Error(),
		})
	default:
		h.fail(c, err)
	}
}

// readSources 读取表单中的全部文件；超限或类型不支持的文件以空数据参与解码，记为单文件失败
func (h *SessionHandler) readSources(c *gin.Context) ([]decode.Source, bool) {
	form, err := c.MultipartForm()
	if err != nil {
		utils.Logger.Error("failed to parse multipart form", zap.Error(err))
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Success: false,
			Message: "请上传图像文件",
			Error:   err.Error(),
		})
		return nil, false
	}

	files := form.File["images"]
	if limit := h.cfg.Upload.MaxFiles; limit > 0 && len(files) > limit {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Success: false,
			Message: fmt.Sprintf("单次最多上传 %d 个文件", limit),
		})
		return nil, false
	}

	sources := make([]decode.Source, 0, len(files))
	for _, fh := range files {
		src := decode.Source{Name: fh.Filename}
		switch {
		case !h.isAllowedExt(fh.Filename):
			utils.Logger.Warn("file type not allowed", zap.String("file", fh.Filename))
		case fh.Size > h.cfg.Upload.MaxSize:
			utils.Logger.Warn("file too large",
				zap.String("file", fh.Filename),
				zap.Int64("size", fh.Size))
		default:
			data, err := readFile(fh, h.cfg.Upload.MaxSize)
			if err != nil {
				utils.Logger.Warn("failed to read uploaded file",
					zap.String("file", fh.Filename),
					zap.Error(err))
			}
			src.Data = data
		}
		sources = append(sources, src)
	}
	return sources, true
}

func readFile(fh *multipart.FileHeader, limit int64) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("file exceeds %d bytes", limit)
	}
	return data, nil
}

func (h *SessionHandler) isAllowedExt(name string) bool {
	ext := filepath.Ext(name)
	for _, allowed := range h.cfg.Upload.AllowedExtensions {
		if strings.EqualFold(ext, allowed) {
			return true
		}
	}
	return false
}

func loadReport(id string, batch *decode.Batch) *model.LoadReport {
	report := &model.LoadReport{SessionID: id}
	if batch == nil {
		return report
	}
	report.Loaded = batch.Loaded()
	report.Requested = batch.Requested
	report.Ratio = batch.Ratio()
	for _, f := range batch.Failures {
		report.Failures = append(report.Failures, model.FileFailure{
			Index: f.Index,
			Name:  f.Name,
			Error: f.Err.Error(),
		})
	}
	return report
}
