// Package storage 聚合可选的外部存储资源：KV（模板与编辑会话）、消息队列（事件）
// 以及可选的对象存储（镜像副本）.
//
// 文件索引常驻内存，不经过这里；storage 中的资源全部可以丢失或重建.
//
// Example:
//
//	mgr, err := storage.Init(ctx)
//	if err != nil {
//		// 处理错误
//	}
//
//	store := mgr.GetKVClient()
//	bus := mgr.GetMQClient()
//	objects := mgr.GetS3Client() // 未启用对象镜像时为 nil
package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/yeisme/filerelay/pkg/configs"
	kvc "github.com/yeisme/filerelay/pkg/internal/storage/kv"
	mqc "github.com/yeisme/filerelay/pkg/internal/storage/mq"
	s3c "github.com/yeisme/filerelay/pkg/internal/storage/s3"
	nlog "github.com/yeisme/filerelay/pkg/log"
)

// Manager 聚合所有存储资源.
type Manager struct {
	KV *kvc.Client
	MQ *mqc.Client
	S3 *s3c.Client
}

var (
	mgr     *Manager
	mgrErr  error
	mgrOnce sync.Once
)

// Init 按全局配置初始化存储，重复调用只返回已初始化实例.
func Init(ctx context.Context) (*Manager, error) {
	mgrOnce.Do(func() {
		mgr, mgrErr = New(ctx, configs.GetConfig())
	})

	return mgr, mgrErr
}

// New 按给定配置创建存储资源，任一资源失败都会关闭已创建的部分.
func New(ctx context.Context, cfg *configs.AppConfig) (*Manager, error) {
	m := &Manager{}

	kvi, err := kvc.NewKVClientWith(ctx, cfg.KV)
	if err != nil {
		return nil, fmt.Errorf("init kv (%s): %w", cfg.KV.Type, err)
	}

	m.KV = kvi

	mqi, err := mqc.NewWith(ctx, cfg.MQ, cfg.Metrics)
	if err != nil {
		_ = m.Close()

		return nil, err
	}

	m.MQ = mqi

	if cfg.Mirror.Object.Enabled {
		s3i, err := s3c.New(ctx, cfg.Mirror.Object)
		if err != nil {
			_ = m.Close()

			return nil, fmt.Errorf("init s3: %w", err)
		}

		m.S3 = s3i
	}

	nlog.Logger().Info().Str("kv", cfg.KV.Type).Str("mq", string(cfg.MQ.Type)).Msg("storage manager initialized")

	return m, nil
}

// GetKVClient 获取 KV 客户端.
func (m *Manager) GetKVClient() *kvc.Client {
	return m.KV
}

// GetMQClient 获取消息队列客户端.
func (m *Manager) GetMQClient() *mqc.Client {
	return m.MQ
}

// GetS3Client 获取对象存储客户端，未启用时为 nil.
func (m *Manager) GetS3Client() *s3c.Client {
	return m.S3
}

// Close 释放所有资源.
func (m *Manager) Close() error {
	var errs []error

	if m.MQ != nil {
		errs = append(errs, m.MQ.Close())
	}

	if m.KV != nil {
		errs = append(errs, m.KV.Close())
	}

	return errors.Join(errs...)
}
