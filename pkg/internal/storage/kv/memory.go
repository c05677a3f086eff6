package kv

import (
	"context"
	"sync"
	"time"
)

// MemoryKV 基于 sync.Map 的进程内 KV，过期键在读取时惰性删除.
type MemoryKV struct {
	data sync.Map
}

// NewMemoryKV 创建内存 KV 实例.
func NewMemoryKV(_ context.Context, _ any) (KVStore, error) {
	return &MemoryKV{}, nil
}

// Get 获取键的值.
func (m *MemoryKV) Get(_ context.Context, key string) ([]byte, error) {
	value, ok := m.load(key)
	if !ok {
		return nil, notFound(key)
	}

	result := make([]byte, len(value))
	copy(result, value)

	return result, nil
}

// Set 设置键的值.
func (m *MemoryKV) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	encoded, err := encodeWithTTL(value, ttl)
	if err != nil {
		return err
	}

	data := make([]byte, len(encoded))
	copy(data, encoded)

	m.data.Store(key, data)

	return nil
}

// Delete 删除键.
func (m *MemoryKV) Delete(_ context.Context, key string) error {
	m.data.Delete(key)

	return nil
}

// Exists 检查键是否存在.
func (m *MemoryKV) Exists(_ context.Context, key string) (bool, error) {
	_, ok := m.load(key)

	return ok, nil
}

// Keys 获取匹配的键.
func (m *MemoryKV) Keys(_ context.Context, pattern string) ([]string, error) {
	keys := make([]string, 0)

	m.data.Range(func(key, _ any) bool {
		k, ok := key.(string)
		if !ok || !match(pattern, k) {
			return true
		}

		if _, alive := m.load(k); alive {
			keys = append(keys, k)
		}

		return true
	})

	return keys, nil
}

// Close 内存实现无需释放资源.
func (m *MemoryKV) Close() error {
	return nil
}

func (m *MemoryKV) load(key string) ([]byte, bool) {
	raw, ok := m.data.Load(key)
	if !ok {
		return nil, false
	}

	b, ok := raw.([]byte)
	if !ok {
		return nil, false
	}

	value, expired, err := decodeWithTTL(b, time.Now())
	if err != nil {
		return nil, false
	}

	if expired {
		m.data.Delete(key)

		return nil, false
	}

	return value, true
}

func init() {
	RegisterKVFactory(KVTypeMemory, NewMemoryKV)
}
