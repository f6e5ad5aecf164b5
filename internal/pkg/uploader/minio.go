package uploader

import (
	"context"
	"fmt"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"vidtube/internal/pkg/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinIOUploader 自建 MinIO 存储
type MinIOUploader struct {
	client  *minio.Client
	bucket  string
	baseURL string
}

// NewMinIOUploader 创建 MinIO 存储
func NewMinIOUploader(cfg config.MinIOConfig) (*MinIOUploader, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, err
	}

	base := cfg.PublicURL
	if base == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		base = fmt.Sprintf("%s://%s/%s", scheme, cfg.Endpoint, cfg.BucketName)
	}

	return &MinIOUploader{
		client:  client,
		bucket:  cfg.BucketName,
		baseURL: strings.TrimSuffix(base, "/") + "/",
	}, nil
}

func (u *MinIOUploader) Upload(ctx context.Context, localPath string, category Category) (string, error) {
	defer Discard(localPath)

	key := objectKey(category, localPath, time.Now())
	opts := minio.PutObjectOptions{ContentType: mime.TypeByExtension(filepath.Ext(localPath))}
	if _, err := u.client.FPutObject(ctx, u.bucket, key, localPath, opts); err != nil {
		return "", err
	}
	return u.baseURL + key, nil
}

func (u *MinIOUploader) Destroy(ctx context.Context, category Category, url string) error {
	key, err := keyFromURL(u.baseURL, url, category)
	if err != nil {
		return err
	}
	return u.client.RemoveObject(ctx, u.bucket, key, minio.RemoveObjectOptions{})
}
