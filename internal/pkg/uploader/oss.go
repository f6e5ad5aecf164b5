package uploader

import (
	"context"
	"fmt"
	"time"

	"vidtube/internal/pkg/config"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
)

// AliyunOSSUploader 阿里云 OSS 存储
type AliyunOSSUploader struct {
	bucket  *oss.Bucket
	baseURL string
}

// NewAliyunOSSUploader 创建 OSS 存储
func NewAliyunOSSUploader(cfg config.OSSConfig) (*AliyunOSSUploader, error) {
	client, err := oss.New(cfg.Endpoint, cfg.AccessKeyID, cfg.AccessKeySecret)
	if err != nil {
		return nil, err
	}

	bucket, err := client.Bucket(cfg.BucketName)
	if err != nil {
		return nil, err
	}

	return &AliyunOSSUploader{
		bucket: bucket,
		// 假设 bucket 为 public-read 或走 CDN，私有 bucket 需要签名 URL
		baseURL: fmt.Sprintf("https://%s.%s/", cfg.BucketName, cfg.Endpoint),
	}, nil
}

func (u *AliyunOSSUploader) Upload(ctx context.Context, localPath string, category Category) (string, error) {
	defer Discard(localPath)

	key := objectKey(category, localPath, time.Now())
	if err := u.bucket.PutObjectFromFile(key, localPath, oss.WithContext(ctx)); err != nil {
		return "", err
	}
	return u.baseURL + key, nil
}

func (u *AliyunOSSUploader) Destroy(ctx context.Context, category Category, url string) error {
	key, err := keyFromURL(u.baseURL, url, category)
	if err != nil {
		return err
	}
	return u.bucket.DeleteObject(key, oss.WithContext(ctx))
}
