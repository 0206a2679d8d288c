package export

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// DirSink 写入本地目录
type DirSink struct {
	Dir string
}

func (s DirSink) Emit(_ context.Context, name string, data []byte) error {
	rel := filepath.Clean(filepath.FromSlash(name))
	if filepath.IsAbs(rel) || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("invalid export name %q", name)
	}
	path := filepath.Join(s.Dir, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create export dir: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// ZipSink 将所有掩码打包为一个 zip，用于浏览器一次性下载
type ZipSink struct {
	mu sync.Mutex
	zw *zip.Writer
}

func NewZipSink(w io.Writer) *ZipSink {
	return &ZipSink{zw: zip.NewWriter(w)}
}

func (s *ZipSink) Emit(_ context.Context, name string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	// PNG 已压缩，直接存储
	f, err := s.zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Store})
	if err != nil {
		return err
	}
	_, err = f.Write(data)
	return err
}

func (s *ZipSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.zw.Close()
}

// MultiSink 依次写入多个 Sink，任一失败即视为该文件失败
type MultiSink []Sink

func (m MultiSink) Emit(ctx context.Context, name string, data []byte) error {
	var errs []error
	for _, s := range m {
		if err := s.Emit(ctx, name, data); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// PrefixSink 为文件名加前缀，例如按会话划分目录
func PrefixSink(prefix string, next Sink) Sink {
	prefix = strings.TrimSuffix(prefix, "/")
	return SinkFunc(func(ctx context.Context, name string, data []byte) error {
		if prefix == "" {
			return next.Emit(ctx, name, data)
		}
		return next.Emit(ctx, prefix+"/"+name, data)
	})
}
