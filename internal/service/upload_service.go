package service

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/lumen-optics/internal/config"
	"github.com/lumen-optics/internal/logger"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/google/uuid"
)

const (
	productUploadScene   = "products"
	defaultUploadMaxSize = 5 * 1024 * 1024
)

var defaultUploadExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".webp"}

// UploadService 商品图片上传服务
type UploadService struct {
	dir        string
	maxSize    int64
	extensions []string
}

// NewUploadService 创建文件上传服务实例
func NewUploadService(cfg config.UploadConfig) *UploadService {
	dir := strings.TrimSpace(cfg.Dir)
	if dir == "" {
		dir = "./uploads"
	}
	maxSize := cfg.MaxSize
	if maxSize <= 0 {
		maxSize = defaultUploadMaxSize
	}
	extensions := cfg.AllowedExtensions
	if len(extensions) == 0 {
		extensions = defaultUploadExtensions
	}
	return &UploadService{dir: dir, maxSize: maxSize, extensions: extensions}
}

// SaveProductImage 保存商品图片，返回可访问的相对路径
func (s *UploadService) SaveProductImage(file *multipart.FileHeader) (string, error) {
	if file == nil {
		return "", ErrFileNotFound
	}
	if file.Size > s.maxSize {
		return "", fmt.Errorf("%w: max %d MB", ErrFileTooLarge, s.maxSize/1024/1024)
	}
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if ext == "" || !isAllowedExtension(ext, s.extensions) {
		return "", fmt.Errorf("%w: %s", ErrFileTypeInvalid, ext)
	}

	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	if err := ensureImageContent(src); err != nil {
		return "", err
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return "", err
	}

	filename := uuid.NewString() + ext
	savePath := filepath.Join(s.dir, productUploadScene, filename)
	if err := os.MkdirAll(filepath.Dir(savePath), 0o755); err != nil {
		return "", err
	}
	dst, err := os.Create(savePath)
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", err
	}
	logger.Infow("upload_product_image_saved", "filename", filename, "size", file.Size)
	return fmt.Sprintf("/uploads/%s/%s", productUploadScene, filename), nil
}

// DeleteProductImage 删除商品图片，拒绝路径穿越
func (s *UploadService) DeleteProductImage(filename string) error {
	name := strings.TrimSpace(filename)
	if name == "" || name != filepath.Base(name) || strings.Contains(name, "..") || strings.ContainsAny(name, `/\`) {
		return ErrFileNameInvalid
	}
	target := filepath.Join(s.dir, productUploadScene, name)
	if err := os.Remove(target); err != nil {
		if os.IsNotExist(err) {
			return ErrFileNotFound
		}
		return err
	}
	logger.Infow("upload_product_image_deleted", "filename", name)
	return nil
}

// ensureImageContent 按文件头识别图片类型，并确认可解码
func ensureImageContent(src io.ReadSeeker) error {
	header := make([]byte, 512)
	n, err := src.Read(header)
	if err != nil && err != io.EOF {
		return err
	}
	header = header[:n]
	contentType := http.DetectContentType(header)
	if !strings.HasPrefix(contentType, "image/") {
		return fmt.Errorf("%w: %s", ErrFileTypeInvalid, contentType)
	}
	if contentType == "image/webp" {
		if len(header) < 12 || !bytes.Equal(header[0:4], []byte("RIFF")) || !bytes.Equal(header[8:12], []byte("WEBP")) {
			return ErrFileTypeInvalid
		}
		return nil
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return err
	}
	if _, _, err := image.DecodeConfig(src); err != nil {
		return fmt.Errorf("%w: %v", ErrFileTypeInvalid, err)
	}
	return nil
}

func isAllowedExtension(ext string, allowed []string) bool {
	for _, allowedExt := range allowed {
		normalized := strings.ToLower(strings.TrimSpace(allowedExt))
		if normalized == "" {
			continue
		}
		if !strings.HasPrefix(normalized, ".") {
			normalized = "." + normalized
		}
		if ext == normalized {
			return true
		}
	}
	return false
}
