package handler

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/ligna159/iPadManualImageMasking/brush"
	"github.com/ligna159/iPadManualImageMasking/mask"
	"github.com/ligna159/iPadManualImageMasking/model"
	"github.com/ligna159/iPadManualImageMasking/raster"
	"github.com/ligna159/iPadManualImageMasking/render"
	"github.com/ligna159/iPadManualImageMasking/service"
	"github.com/ligna159/iPadManualImageMasking/session"
	"github.com/ligna159/iPadManualImageMasking/utils"
	"go.uber.org/zap"
)

var pngEncoder = png.Encoder{CompressionLevel: png.BestSpeed}

// Get 查询会话状态
func (h *SessionHandler) Get(c *gin.Context) {
	h.withState(c, "查询成功", func(*session.Session) error { return nil })
}

// Delete 删除会话
func (h *SessionHandler) Delete(c *gin.Context) {
	if !h.sessions.Delete(c.Param("id")) {
		h.fail(c, service.ErrSessionNotFound)
		return
	}
	c.JSON(http.StatusOK, model.Response{Success: true, Message: "会话已删除"})
}

// SetBrush 修改画笔半径、模式或不透明度
func (h *SessionHandler) SetBrush(c *gin.Context) {
	var req model.BrushRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	h.withState(c, "画笔已更新", func(s *session.Session) error {
		b := s.Brush()
		if req.Radius != nil {
			b.Radius = *req.Radius
		}
		if req.Opacity != nil {
			b.Opacity = *req.Opacity
		}
		if req.Mode != nil {
			mode, err := brush.ParseMode(*req.Mode)
			if err != nil {
				return invalid(err)
			}
			b.Mode = mode
		}
		if err := s.SetBrush(b); err != nil {
			return invalid(err)
		}
		return nil
	})
}

// Navigate 按方向切换图像
func (h *SessionHandler) Navigate(c *gin.Context) {
	var req model.NavigateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	h.withState(c, "切换成功", func(s *session.Session) error {
		return s.Navigate(req.Direction)
	})
}

// Next 跳过或保存后进入下一张，掩码始终保留在会话内
func (h *SessionHandler) Next(c *gin.Context) {
	h.withState(c, "切换成功", func(s *session.Session) error {
		return s.Navigate(1)
	})
}

// GoTo 跳转到指定槽位（0 起始）
func (h *SessionHandler) GoTo(c *gin.Context) {
	slot, err := strconv.Atoi(c.Param("slot"))
	if err != nil {
		h.badRequest(c, err)
		return
	}
	h.withState(c, "切换成功", func(s *session.Session) error {
		return s.GoTo(slot)
	})
}

// StrokeStart 笔尖按下
func (h *SessionHandler) StrokeStart(c *gin.Context) {
	h.stroke(c, func(s *session.Session, p model.PointerRequest) (image.Rectangle, error) {
		return s.StartStroke(p.X, p.Y, p.Pressure)
	})
}

// StrokeMove 笔尖移动
func (h *SessionHandler) StrokeMove(c *gin.Context) {
	h.stroke(c, func(s *session.Session, p model.PointerRequest) (image.Rectangle, error) {
		return s.ContinueStroke(p.X, p.Y, p.Pressure)
	})
}

// StrokeEnd 笔尖抬起
func (h *SessionHandler) StrokeEnd(c *gin.Context) {
	var result model.StrokeResult
	err := h.sessions.With(c.Param("id"), func(s *session.Session) error {
		s.EndStroke()
		result.PixelCount = s.PixelCount()
		return nil
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, model.Response{Success: true, Message: "ok", Data: result})
}

func (h *SessionHandler) stroke(c *gin.Context, fn func(*session.Session, model.PointerRequest) (image.Rectangle, error)) {
	var req model.PointerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	var result model.StrokeResult
	err := h.sessions.With(c.Param("id"), func(s *session.Session) error {
		dirty, err := fn(s, req)
		if err != nil {
			return err
		}
		result = model.StrokeResult{
			PixelCount: s.PixelCount(),
			Dirty:      toBBox(dirty),
			Drawing:    s.Drawing(),
		}
		return nil
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, model.Response{Success: true, Message: "ok", Data: result})
}

// Clear 清空当前掩码
func (h *SessionHandler) Clear(c *gin.Context) {
	cleared := false
	h.withState(c, "", func(s *session.Session) error {
		cleared = s.Clear()
		return nil
	}, func() string {
		if cleared {
			return "掩码已清空"
		}
		return "没有可清空的掩码"
	})
}

// Composite 当前图像叠加掩码后的 PNG，可选 max_width / max_height 缩放
func (h *SessionHandler) Composite(c *gin.Context) {
	maxW, maxH, ok := h.sizeParams(c)
	if !ok {
		return
	}
	var data []byte
	err := h.sessions.With(c.Param("id"), func(s *session.Session) error {
		buf, err := s.Composite()
		if err != nil {
			return err
		}
		data, err = encodePNG(buf, maxW, maxH)
		return err
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", data)
}

// Preview 当前掩码的 PNG，按掩码自身尺寸
func (h *SessionHandler) Preview(c *gin.Context) {
	maxW, maxH, ok := h.sizeParams(c)
	if !ok {
		return
	}
	var data []byte
	err := h.sessions.With(c.Param("id"), func(s *session.Session) error {
		buf := s.Preview()
		if buf == nil {
			return errNoMask
		}
		var err error
		data, err = encodePNG(buf, maxW, maxH)
		return err
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", data)
}

func (h *SessionHandler) sizeParams(c *gin.Context) (int, int, bool) {
	maxW, err1 := strconv.Atoi(c.DefaultQuery("max_width", "0"))
	maxH, err2 := strconv.Atoi(c.DefaultQuery("max_height", "0"))
	if err := errors.Join(err1, err2); err != nil {
		h.badRequest(c, err)
		return 0, 0, false
	}
	return maxW, maxH, true
}

func encodePNG(buf *raster.Buffer, maxW, maxH int) ([]byte, error) {
	var out bytes.Buffer
	if err := pngEncoder.Encode(&out, render.Scale(buf.Image(), maxW, maxH)); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// Export 导出全部已创建的掩码到配置的目标
func (h *SessionHandler) Export(c *gin.Context) {
	id := c.Param("id")
	var report *model.ExportReport
	var exportErr error
	err := h.sessions.With(id, func(s *session.Session) error {
		report, exportErr = h.exports.Export(c.Request.Context(), id, s.Store())
		return nil
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	if exportErr != nil {
		utils.Logger.Error("failed to export masks", zap.String("session_id", id), zap.Error(exportErr))
		c.JSON(http.StatusInternalServerError, model.Response{
			Success: false,
			Message: fmt.Sprintf("部分掩码导出失败 (%d/%d)", report.Emitted, report.Emitted+len(report.Failed)),
			Data:    report,
		})
		return
	}
	message := fmt.Sprintf("已导出 %d 个掩码", report.Emitted)
	if report.Emitted == 0 {
		message = "没有可保存的掩码"
	}
	c.JSON(http.StatusOK, model.Response{Success: true, Message: message, Data: report})
}

// ExportZip 将全部掩码打包下载
func (h *SessionHandler) ExportZip(c *gin.Context) {
	id := c.Param("id")
	var buf bytes.Buffer
	err := h.sessions.With(id, func(s *session.Session) error {
		_, err := h.exports.WriteZip(c.Request.Context(), &buf, id, s.Store())
		return err
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="masks_%s.zip"`, id))
	c.Data(http.StatusOK, "application/zip", buf.Bytes())
}

// LastExport 最近一次导出记录
func (h *SessionHandler) LastExport(c *gin.Context) {
	if h.redis == nil {
		h.fail(c, errNoArchive)
		return
	}
	report, err := h.exports.LastReport(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	if report == nil {
		c.JSON(http.StatusNotFound, model.ErrorResponse{Success: false, Message: "未找到导出记录"})
		return
	}
	c.JSON(http.StatusOK, model.Response{Success: true, Message: "查询成功", Data: report})
}

// GetMask 从 Redis 归档读取导出的掩码
func (h *SessionHandler) GetMask(c *gin.Context) {
	if h.redis == nil {
		h.fail(c, errNoArchive)
		return
	}
	data, err := h.redis.GetMask(c.Request.Context(), c.Param("id")+"/"+c.Param("name"))
	if err != nil {
		h.fail(c, err)
		return
	}
	if data == nil {
		c.JSON(http.StatusNotFound, model.ErrorResponse{Success: false, Message: "未找到该掩码"})
		return
	}
	c.Data(http.StatusOK, "image/png", data)
}

// withState 在会话锁内执行 fn，成功后返回最新状态；message 可由 messageFn 在执行后决定
func (h *SessionHandler) withState(c *gin.Context, message string, fn func(*session.Session) error, messageFn ...func() string) {
	id := c.Param("id")
	var state model.SessionState
	err := h.sessions.With(id, func(s *session.Session) error {
		if err := fn(s); err != nil {
			return err
		}
		state = buildState(id, s)
		return nil
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	for _, f := range messageFn {
		message = f()
	}
	c.JSON(http.StatusOK, model.Response{Success: true, Message: message, Data: state})
}

func buildState(id string, s *session.Session) model.SessionState {
	b := s.Brush()
	state := model.SessionState{
		SessionID: id,
		Current:   s.Current(),
		Total:     s.Len(),
		Progress:  s.Progress(),
		Brush: model.BrushInfo{
			Radius:  b.Radius,
			Mode:    b.Mode.String(),
			Opacity: b.Opacity,
		},
		PixelCount: s.PixelCount(),
		Drawing:    s.Drawing(),
	}
	if img, err := s.ActiveImage(); err == nil {
		state.Image = &model.ImageInfo{
			Slot:   s.Current(),
			Name:   img.Name,
			MD5:    img.MD5,
			Width:  img.Width(),
			Height: img.Height(),
		}
	}
	if m := s.ActiveMask(); m != nil {
		state.Coverage = mask.Coverage(m)
		state.BoundingBox = toBBox(mask.Bounds(m))
	}
	return state
}

func toBBox(r image.Rectangle) model.BBox {
	return model.BBox{X: r.Min.X, Y: r.Min.Y, Width: r.Dx(), Height: r.Dy()}
}
