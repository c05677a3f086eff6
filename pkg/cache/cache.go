// Package cache 提供基于键值存储的泛型缓存实现.
//
// 值使用 sonic 序列化为 JSON，支持 TTL.消息模板与管理员编辑会话都通过它读写 KV.
//
// 基本用法:
//
//	c := cache.NewCache(kvStore, cache.WithPrefix("filerelay.tpl."))
//
//	err := cache.Set(ctx, c, "start_message", text, 0)
//	text, err := cache.Get[string](ctx, c, "start_message")
//
//	v, err := cache.GetOrSet(ctx, c, "key", func() (T, error) { ... }, time.Hour)
//
// 线程安全取决于底层 KV 实现，所有内置实现都可并发使用.
//
// 错误处理:
//   - 未命中返回 kv.ErrKeyNotFound（可用 errors.Is 判断）
//   - 序列化/反序列化错误会被包装并返回
package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/sonic"

	"github.com/yeisme/filerelay/pkg/internal/storage/kv"
)

// Cache 基于KV存储的缓存实现.
type Cache struct {
	kvStore kv.KVStore
	prefix  string
}

// Option Cache 可选项.
type Option func(*Cache)

// WithPrefix 为所有键加上前缀，多个 Cache 可共享同一个 KV.
func WithPrefix(prefix string) Option { return func(c *Cache) { c.prefix = prefix } }

// NewCache 创建一个新的缓存实例.
func NewCache(kvStore kv.KVStore, opts ...Option) *Cache {
	c := &Cache{kvStore: kvStore}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Get 泛型获取缓存值.
func Get[T any](ctx context.Context, c *Cache, key string) (T, error) {
	var zero T

	data, err := c.kvStore.Get(ctx, c.key(key))
	if err != nil {
		return zero, err
	}

	var value T
	if err := sonic.Unmarshal(data, &value); err != nil {
		return zero, fmt.Errorf("failed to unmarshal cache value: %w", err)
	}

	return value, nil
}

// Set 泛型设置缓存值，ttl<=0 表示不过期.
func Set[T any](ctx context.Context, c *Cache, key string, value T, ttl time.Duration) error {
	data, err := sonic.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}

	return c.kvStore.Set(ctx, c.key(key), data, ttl)
}

// Delete 删除缓存键.
func (c *Cache) Delete(ctx context.Context, key string) error {
	return c.kvStore.Delete(ctx, c.key(key))
}

// Exists 检查缓存键是否存在.
func (c *Cache) Exists(ctx context.Context, key string) (bool, error) {
	return c.kvStore.Exists(ctx, c.key(key))
}

// Keys 返回前缀下的全部键（已去掉前缀）.
func (c *Cache) Keys(ctx context.Context) ([]string, error) {
	keys, err := c.kvStore.Keys(ctx, c.prefix+"*")
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if rest, ok := strings.CutPrefix(k, c.prefix); ok {
			out = append(out, rest)
		}
	}

	return out, nil
}

// GetOrSet 获取缓存值，如果不存在则设置.
func GetOrSet[T any](ctx context.Context, c *Cache, key string, getter func() (T, error), ttl time.Duration) (T, error) {
	var zero T

	if value, err := Get[T](ctx, c, key); err == nil {
		return value, nil
	}

	value, err := getter()
	if err != nil {
		return zero, err
	}

	// 写回失败不影响返回值
	_ = Set(ctx, c, key, value, ttl)

	return value, nil
}

// Clear 删除前缀下的全部键.
func (c *Cache) Clear(ctx context.Context) error {
	keys, err := c.Keys(ctx)
	if err != nil {
		return err
	}

	for _, key := range keys {
		if delErr := c.Delete(ctx, key); delErr != nil {
			return delErr
		}
	}

	return nil
}

func (c *Cache) key(k string) string {
	return c.prefix + k
}
