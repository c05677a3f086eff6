// Package context 把存储资源与业务服务放入 context，供 HTTP 处理器和定时任务取用.
package context

import (
	"context"

	"github.com/yeisme/filerelay/pkg/internal/service"
	"github.com/yeisme/filerelay/pkg/internal/storage"
	kvc "github.com/yeisme/filerelay/pkg/internal/storage/kv"
	mqc "github.com/yeisme/filerelay/pkg/internal/storage/mq"
	s3c "github.com/yeisme/filerelay/pkg/internal/storage/s3"
	"github.com/yeisme/filerelay/pkg/internal/templates"
	"github.com/yeisme/filerelay/pkg/scheduler"
)

type ContextKey string

const (
	StorageManagerKey ContextKey = "storageManager"
	ServicesKey       ContextKey = "services"
)

// Services 运行期的业务服务集合.
type Services struct {
	Relay     *service.RelayService
	Stats     *service.StatsService
	Templates *templates.Store
	Scheduler *scheduler.Scheduler
}

// WithStorageManager 将 Manager 存储到 context 中.
func WithStorageManager(ctx context.Context, mgr *storage.Manager) context.Context {
	return context.WithValue(ctx, StorageManagerKey, mgr)
}

// GetManager 从 context 中获取 Manager.
func GetManager(ctx context.Context) *storage.Manager {
	if mgr, ok := ctx.Value(StorageManagerKey).(*storage.Manager); ok {
		return mgr
	}

	return nil
}

// GetMQClient 从 context 中获取 MQ 客户端.
func GetMQClient(ctx context.Context) *mqc.Client {
	if mgr := GetManager(ctx); mgr != nil {
		return mgr.GetMQClient()
	}

	return nil
}

// GetKVClient 从 context 中获取 KV 客户端.
func GetKVClient(ctx context.Context) *kvc.Client {
	if mgr := GetManager(ctx); mgr != nil {
		return mgr.GetKVClient()
	}

	return nil
}

// GetS3Client 从 context 中获取对象存储客户端.
func GetS3Client(ctx context.Context) *s3c.Client {
	if mgr := GetManager(ctx); mgr != nil {
		return mgr.GetS3Client()
	}

	return nil
}

// WithServices 将业务服务存储到 context 中.
func WithServices(ctx context.Context, svc *Services) context.Context {
	return context.WithValue(ctx, ServicesKey, svc)
}

// GetServices 从 context 中获取业务服务，未注入时返回 nil.
func GetServices(ctx context.Context) *Services {
	if svc, ok := ctx.Value(ServicesKey).(*Services); ok {
		return svc
	}

	return nil
}
