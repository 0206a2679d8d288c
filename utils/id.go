package utils

import (
	"strconv"
	"time"
)

// GenerateID 生成基于时间戳的ID
func GenerateID() int64 {
	return time.Now().UnixNano()
}

// SessionID 会话ID：时间戳 + 首个图像内容的MD5前缀
func SessionID(seed []byte) string {
	id := strconv.FormatInt(GenerateID(), 36)
	if len(seed) == 0 {
		return id
	}
	return id + "-" + BytesMD5(seed)[:8]
}
