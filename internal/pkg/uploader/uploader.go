package uploader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"vidtube/internal/pkg/config"

	"github.com/google/uuid"
)

// Category 媒体类别，决定对象的存储前缀
type Category string

const (
	CategoryVideo Category = "video"
	CategoryImage Category = "image"
)

// ErrForeignURL 待删除的 URL 不属于当前存储桶
var ErrForeignURL = errors.New("url does not belong to this bucket")

// BlobStore 媒体对象存储
type BlobStore interface {
	// Upload 上传本地文件并返回公开访问 URL，无论成功与否都会删除本地临时文件
	Upload(ctx context.Context, localPath string, category Category) (string, error)
	// Destroy 删除 URL 指向的对象
	Destroy(ctx context.Context, category Category, url string) error
}

// New 按配置选择存储驱动
func New(cfg config.BlobConfig) (BlobStore, error) {
	switch cfg.Driver {
	case "oss":
		return NewAliyunOSSUploader(cfg.OSS)
	case "minio":
		return NewMinIOUploader(cfg.MinIO)
	default:
		return nil, fmt.Errorf("unknown blob driver %q", cfg.Driver)
	}
}

// objectKey 生成唯一对象名: category/YYYYMMDD/uuid.ext
func objectKey(category Category, localPath string, now time.Time) string {
	ext := strings.ToLower(filepath.Ext(localPath))
	return fmt.Sprintf("%s/%s/%s%s", category, now.Format("20060102"), uuid.New().String(), ext)
}

// keyFromURL 从公开 URL 反解对象名，并校验类别前缀
func keyFromURL(base, rawURL string, category Category) (string, error) {
	if !strings.HasPrefix(rawURL, base) {
		return "", ErrForeignURL
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	b, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	key := strings.TrimPrefix(strings.TrimPrefix(u.Path, b.Path), "/")
	if key == "" || !strings.HasPrefix(key, string(category)+"/") {
		return "", fmt.Errorf("object %q is not in category %s", key, category)
	}
	return path.Clean(key), nil
}

// TempPath 生成上传临时文件路径
func TempPath(dir, filename string) string {
	return filepath.Join(dir, uuid.New().String()+strings.ToLower(filepath.Ext(filename)))
}

// Discard 删除本地临时文件，空路径与已删除的文件忽略
func Discard(paths ...string) {
	for _, p := range paths {
		if p != "" {
			_ = os.Remove(p)
		}
	}
}

// SaveMultipart 把表单文件落盘到临时目录，返回本地路径
func SaveMultipart(file *multipart.FileHeader, dir string) (string, error) {
	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	dst := TempPath(dir, file.Filename)
	out, err := os.Create(dst)
	if err != nil {
		return "", err
	}
	defer out.Close()

	if _, err := io.Copy(out, src); err != nil {
		Discard(dst)
		return "", err
	}
	return dst, nil
}
