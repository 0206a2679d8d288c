package model

// SessionState 会话当前状态
type SessionState struct {
	SessionID   string     `json:"session_id"`
	Current     int        `json:"current"`
	Total       int        `json:"total"`
	Progress    string     `json:"progress"`
	Image       *ImageInfo `json:"image,omitempty"`
	Brush       BrushInfo  `json:"brush"`
	PixelCount  int        `json:"pixel_count"`
	Coverage    float64    `json:"coverage"`
	BoundingBox BBox       `json:"bounding_box"`
	Drawing     bool       `json:"drawing"`
}

// ImageInfo 源图像信息
type ImageInfo struct {
	Slot   int    `json:"slot"`
	Name   string `json:"name"`
	MD5    string `json:"md5"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// BrushInfo 画笔配置
type BrushInfo struct {
	Radius  float64 `json:"radius"`
	Mode    string  `json:"mode"`
	Opacity float64 `json:"opacity"`
}

// BBox 边界框
type BBox struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// LoadReport 批量加载结果
type LoadReport struct {
	SessionID string        `json:"session_id"`
	Loaded    int           `json:"loaded"`
	Requested int           `json:"requested"`
	Ratio     string        `json:"ratio"`
	Failures  []FileFailure `json:"failures,omitempty"`
	State     *SessionState `json:"state,omitempty"`
}

// FileFailure 单个文件的解码失败
type FileFailure struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
	Error string `json:"error"`
}

// ExportReport 导出结果
type ExportReport struct {
	SessionID string   `json:"session_id"`
	Emitted   int      `json:"emitted"`
	Files     []string `json:"files"`
	Failed    []string `json:"failed,omitempty"`
	Timestamp int64    `json:"timestamp"`
}
