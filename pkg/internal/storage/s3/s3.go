// Package s3 提供 S3 兼容对象存储的镜像后端，基于 MinIO 客户端.
package s3

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	minio "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/yeisme/filerelay/pkg/configs"
	nlog "github.com/yeisme/filerelay/pkg/log"
)

// separator 拼接多个对象时使用的分隔，与本地日志镜像一致.
const separator = "\n\n---\n\n"

// Client 包装 MinIO 客户端，固定操作一个 bucket.
type Client struct {
	*minio.Client

	bucket string
}

// New 初始化 MinIO 客户端，bucket 不存在时尝试创建.
func New(ctx context.Context, cfg configs.ObjectMirrorConfig) (*Client, error) {
	endpoint := cfg.Endpoint
	// 允许用户传完整 schema endpoint（http:// 或 https://）
	if u, err := url.Parse(endpoint); err == nil && u.Host != "" {
		endpoint = u.Host
		if u.Scheme == "https" {
			cfg.UseSSL = true
		}
	}

	cli, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	cli.SetAppInfo("filerelay", configs.AppVersion)

	exists, err := cli.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", cfg.Bucket, err)
	}

	if !exists {
		if err := cli.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", cfg.Bucket, err)
		}

		nlog.Logger().Info().Str("bucket", cfg.Bucket).Msg("bucket created")
	}

	nlog.Logger().Info().Str("endpoint", cfg.Endpoint).Str("bucket", cfg.Bucket).Msg("s3 connected")

	return &Client{Client: cli, bucket: cfg.Bucket}, nil
}

// PutText 写入一个文本对象.
func (c *Client) PutText(ctx context.Context, key, text string) error {
	_, err := c.PutObject(ctx, c.bucket, key, strings.NewReader(text), int64(len(text)),
		minio.PutObjectOptions{ContentType: "text/markdown; charset=utf-8"})
	if err != nil {
		return fmt.Errorf("put object %s: %w", key, err)
	}

	return nil
}

// Concat 按键名顺序读取 prefix 下的全部对象并拼接，供恢复扫描使用.
func (c *Client) Concat(ctx context.Context, prefix string) (io.Reader, error) {
	var buf bytes.Buffer

	for obj := range c.ListObjects(ctx, c.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("list objects: %w", obj.Err)
		}

		if err := c.copyObject(ctx, &buf, obj.Key); err != nil {
			return nil, err
		}

		buf.WriteString(separator)
	}

	return &buf, nil
}

func (c *Client) copyObject(ctx context.Context, w io.Writer, key string) error {
	o, err := c.GetObject(ctx, c.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return fmt.Errorf("get object %s: %w", key, err)
	}
	defer o.Close()

	if _, err := io.Copy(w, o); err != nil {
		return fmt.Errorf("read object %s: %w", key, err)
	}

	return nil
}

// HealthCheck 通过检查 bucket 验证连接.
func (c *Client) HealthCheck(ctx context.Context) error {
	_, err := c.BucketExists(ctx, c.bucket)

	return err
}
