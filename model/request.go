package model

// BrushRequest 修改画笔，未给出的字段保持不变
type BrushRequest struct {
	Radius  *float64 `json:"radius"`
	Mode    *string  `json:"mode"`
	Opacity *float64 `json:"opacity"`
}

// PointerRequest 缓冲区坐标系下的笔尖采样，pressure 缺省或为 0 视为 1
type PointerRequest struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Pressure float64 `json:"pressure"`
}

// NavigateRequest 切换方向，+1 下一张，-1 上一张
type NavigateRequest struct {
	Direction int `json:"direction" binding:"required"`
}

// StrokeResult 笔触结果
type StrokeResult struct {
	PixelCount int  `json:"pixel_count"`
	Dirty      BBox `json:"dirty"`
	Drawing    bool `json:"drawing"`
}

// Response 通用响应
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ErrorResponse 错误响应
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}
