// Package cvdecode 基于 OpenCV 的解码后端，覆盖标准库不支持的编码（如 LZW 以外压缩的 TIFF、16 位图像）
package cvdecode

import (
	"fmt"

	"github.com/ligna159/iPadManualImageMasking/decode"
	"github.com/ligna159/iPadManualImageMasking/raster"
	"gocv.io/x/gocv"
)

// Decoder OpenCV 解码器
type Decoder struct{}

func New() Decoder { return Decoder{} }

func (Decoder) Decode(data []byte, hint string) (*raster.Buffer, error) {
	img, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("opencv %s: %w", hint, err)
	}
	defer img.Close()
	if img.Empty() {
		return nil, fmt.Errorf("opencv %s: %w", hint, decode.ErrUnsupported)
	}

	rgba := gocv.NewMat()
	defer rgba.Close()
	gocv.CvtColor(img, &rgba, gocv.ColorBGRToRGBA)

	buf := raster.New(rgba.Cols(), rgba.Rows(), 4)
	copy(buf.Pix, rgba.ToBytes())
	return buf, nil
}
