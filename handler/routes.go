package handler

import "github.com/gin-gonic/gin"

// Register 挂载会话相关的全部路由
func (h *SessionHandler) Register(r gin.IRouter) {
	r.POST("/sessions", h.Create)

	s := r.Group("/sessions/:id")
	{
		s.GET("", h.Get)
		s.DELETE("", h.Delete)
		s.POST("/images", h.Reload)

		s.PUT("/brush", h.SetBrush)

		s.POST("/navigate", h.Navigate)
		s.POST("/skip", h.Next)
		s.POST("/save", h.Next)
		s.POST("/goto/:slot", h.GoTo)

		s.POST("/stroke/start", h.StrokeStart)
		s.POST("/stroke/move", h.StrokeMove)
		s.POST("/stroke/end", h.StrokeEnd)
		s.POST("/clear", h.Clear)

		s.GET("/composite", h.Composite)
		s.GET("/preview", h.Preview)

		s.POST("/export", h.Export)
		s.GET("/export", h.LastExport)
		s.GET("/export.zip", h.ExportZip)
	}

	r.GET("/masks/:id/:name", h.GetMask)
}
