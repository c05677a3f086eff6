package kv

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang/groupcache"

	"github.com/yeisme/filerelay/pkg/configs"
)

// GroupcacheKV 基于 Groupcache 的 KV 实现.
//
// groupcache 本身不支持更新与删除，这里为每个键维护一个版本号，
// 缓存键为 "<key>@<gen>"，写入或删除后递增版本，旧缓存自然失效.
type GroupcacheKV struct {
	cache *groupcache.Group
	peers *groupcache.HTTPPool

	mu   sync.RWMutex
	data map[string]gcEntry
	gen  uint64
}

type gcEntry struct {
	value []byte
	gen   uint64
}

const genSep = "@"

// NewGroupcacheKV 创建 Groupcache KV 实例，同一进程内 Name 不可重复.
func NewGroupcacheKV(_ context.Context, config any) (KVStore, error) {
	gcConfig, ok := config.(*configs.GroupcacheKVConfig)
	if !ok || gcConfig == nil {
		return nil, fmt.Errorf("invalid Groupcache config")
	}

	kv := &GroupcacheKV{data: make(map[string]gcEntry)}
	kv.cache = groupcache.NewGroup(gcConfig.Name, gcConfig.CacheBytes, groupcache.GetterFunc(kv.load))

	if len(gcConfig.Peers) > 0 {
		kv.peers = groupcache.NewHTTPPoolOpts(gcConfig.Self, &groupcache.HTTPPoolOptions{})
		kv.peers.Set(gcConfig.Peers...)
	}

	return kv, nil
}

// load 是 groupcache 的回源函数，只接受当前版本的缓存键.
func (g *GroupcacheKV) load(_ context.Context, cacheKey string, dest groupcache.Sink) error {
	idx := strings.LastIndex(cacheKey, genSep)
	if idx < 0 {
		return notFound(cacheKey)
	}

	key := cacheKey[:idx]

	gen, err := strconv.ParseUint(cacheKey[idx+1:], 10, 64)
	if err != nil {
		return notFound(key)
	}

	g.mu.RLock()
	entry, ok := g.data[key]
	g.mu.RUnlock()

	if !ok || entry.gen != gen {
		return notFound(key)
	}

	return dest.SetBytes(entry.value)
}

// Get 获取键的值.
func (g *GroupcacheKV) Get(ctx context.Context, key string) ([]byte, error) {
	g.mu.RLock()
	entry, ok := g.data[key]
	g.mu.RUnlock()

	if !ok {
		return nil, notFound(key)
	}

	var raw []byte

	cacheKey := key + genSep + strconv.FormatUint(entry.gen, 10)
	if err := g.cache.Get(ctx, cacheKey, groupcache.AllocatingByteSliceSink(&raw)); err != nil {
		return nil, fmt.Errorf("failed to get key: %w", err)
	}

	value, expired, err := decodeWithTTL(raw, time.Now())
	if err != nil {
		return nil, err
	}

	if expired {
		_ = g.Delete(ctx, key)

		return nil, notFound(key)
	}

	return value, nil
}

// Set 设置键的值.
func (g *GroupcacheKV) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	encoded, err := encodeWithTTL(value, ttl)
	if err != nil {
		return err
	}

	data := make([]byte, len(encoded))
	copy(data, encoded)

	g.mu.Lock()
	defer g.mu.Unlock()

	g.gen++
	g.data[key] = gcEntry{value: data, gen: g.gen}

	return nil
}

// Delete 删除键.
func (g *GroupcacheKV) Delete(_ context.Context, key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	delete(g.data, key)

	return nil
}

// Exists 检查键是否存在且未过期.
func (g *GroupcacheKV) Exists(ctx context.Context, key string) (bool, error) {
	if _, err := g.Get(ctx, key); err != nil {
		return false, nil //nolint:nilerr // 不存在与过期都视为 false
	}

	return true, nil
}

// Keys 获取匹配的键.
func (g *GroupcacheKV) Keys(_ context.Context, pattern string) ([]string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	now := time.Now()
	keys := make([]string, 0, len(g.data))

	for key, entry := range g.data {
		if !match(pattern, key) {
			continue
		}

		if _, expired, err := decodeWithTTL(entry.value, now); err != nil || expired {
			continue
		}

		keys = append(keys, key)
	}

	return keys, nil
}

// Close Groupcache 没有显式的关闭方法.
func (g *GroupcacheKV) Close() error {
	return nil
}

func init() {
	RegisterKVFactory(KVTypeGroupcache, NewGroupcacheKV)
}
