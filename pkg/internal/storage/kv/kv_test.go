package kv_test

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/filerelay/pkg/configs"
	"github.com/yeisme/filerelay/pkg/internal/storage/kv"
)

var groupcacheSeq atomic.Int64

// newGroupcache groupcache 的 group 名在进程内必须唯一.
func newGroupcache(t testing.TB) kv.KVStore {
	t.Helper()

	cfg := &configs.GroupcacheKVConfig{
		Name:       fmt.Sprintf("test-groupcache-%d", groupcacheSeq.Add(1)),
		CacheBytes: 8 * 1024 * 1024,
		Self:       "http://127.0.0.1:0",
	}

	store, err := kv.NewKVStore(context.Background(), kv.KVTypeGroupcache, cfg)
	require.NoError(t, err)

	return store
}

func newMemory(t testing.TB) kv.KVStore {
	t.Helper()

	store, err := kv.NewKVStore(context.Background(), kv.KVTypeMemory, nil)
	require.NoError(t, err)

	return store
}

// TestStores_Contract 测试各实现共同遵守的读写语义.
func TestStores_Contract(t *testing.T) {
	stores := map[string]func(testing.TB) kv.KVStore{
		"memory":     newMemory,
		"groupcache": newGroupcache,
	}

	for name, mk := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := mk(t)
			defer store.Close()

			_, err := store.Get(ctx, "missing")
			assert.ErrorIs(t, err, kv.ErrKeyNotFound)

			require.NoError(t, store.Set(ctx, "filerelay.tpl.start", []byte("v1"), 0))
			got, err := store.Get(ctx, "filerelay.tpl.start")
			require.NoError(t, err)
			assert.Equal(t, "v1", string(got))

			// 覆盖写后必须读到新值
			require.NoError(t, store.Set(ctx, "filerelay.tpl.start", []byte("v2"), 0))
			got, err = store.Get(ctx, "filerelay.tpl.start")
			require.NoError(t, err)
			assert.Equal(t, "v2", string(got))

			require.NoError(t, store.Set(ctx, "filerelay.tpl.help", []byte("h"), 0))
			require.NoError(t, store.Set(ctx, "other.key", []byte("x"), 0))

			keys, err := store.Keys(ctx, "filerelay.tpl.*")
			require.NoError(t, err)
			sort.Strings(keys)
			assert.Equal(t, []string{"filerelay.tpl.help", "filerelay.tpl.start"}, keys)

			require.NoError(t, store.Delete(ctx, "filerelay.tpl.start"))
			ok, err := store.Exists(ctx, "filerelay.tpl.start")
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

// TestStores_TTL 测试过期键不可见.
func TestStores_TTL(t *testing.T) {
	for name, mk := range map[string]func(testing.TB) kv.KVStore{"memory": newMemory, "groupcache": newGroupcache} {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := mk(t)

			require.NoError(t, store.Set(ctx, "session", []byte("edit"), 30*time.Millisecond))

			ok, err := store.Exists(ctx, "session")
			require.NoError(t, err)
			assert.True(t, ok)

			assert.Eventually(t, func() bool {
				_, err := store.Get(ctx, "session")

				return err != nil
			}, time.Second, 10*time.Millisecond)

			keys, err := store.Keys(ctx, "")
			require.NoError(t, err)
			assert.NotContains(t, keys, "session")
		})
	}
}

// TestNewKVClientWith 测试按类型分派子配置.
func TestNewKVClientWith(t *testing.T) {
	client, err := kv.NewKVClientWith(context.Background(), configs.KVConfig{Type: configs.KVTypeMemory})
	require.NoError(t, err)
	assert.NotNil(t, client.KVStore)

	_, err = kv.NewKVClientWith(context.Background(), configs.KVConfig{Type: "etcd"})
	assert.Error(t, err)

	assert.Contains(t, kv.GetRegisteredKVTypes(), kv.KVTypeGroupcache)
}

func BenchmarkMemoryKV(b *testing.B) {
	benchKV(b, newMemory(b))
}

func BenchmarkGroupcacheKV(b *testing.B) {
	benchKV(b, newGroupcache(b))
}

// BenchmarkRedisKV 需设置 ENABLE_REDIS_BENCH=1，REDIS_ADDR 默认 127.0.0.1:6379.
func BenchmarkRedisKV(b *testing.B) {
	if os.Getenv("ENABLE_REDIS_BENCH") == "" {
		b.Skip("set ENABLE_REDIS_BENCH=1 to enable")
	}

	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "127.0.0.1:6379"
	}

	store, err := kv.NewKVStore(context.Background(), kv.KVTypeRedis, &configs.RedisKVConfig{Addr: addr})
	if err != nil {
		b.Skipf("redis not available: %v", err)
	}

	benchKV(b, store)
}

// BenchmarkNATSKV 需设置 ENABLE_NATS_BENCH=1，NATS_URL 默认 nats://127.0.0.1:4222.
func BenchmarkNATSKV(b *testing.B) {
	if os.Getenv("ENABLE_NATS_BENCH") == "" {
		b.Skip("set ENABLE_NATS_BENCH=1 to enable")
	}

	url := os.Getenv("NATS_URL")
	if url == "" {
		url = "nats://127.0.0.1:4222"
	}

	store, err := kv.NewKVStore(context.Background(), kv.KVTypeNATS, &configs.NATSKVConfig{URL: url, Bucket: "bench-kv"})
	if err != nil {
		b.Skipf("nats not available: %v", err)
	}

	benchKV(b, store)
}

// benchKV 模拟编辑会话的 Set/Get/Delete 循环.
func benchKV(b *testing.B, store kv.KVStore) {
	defer store.Close()

	ctx := context.Background()
	payload := []byte(`{"user_id":100,"key":"start_message","draft":"Welcome {user_name}"}`)

	for _, ttl := range []time.Duration{0, 5 * time.Second} {
		b.Run(fmt.Sprintf("ttl=%s", ttl), func(b *testing.B) {
			b.ReportAllocs()

			for i := 0; b.Loop(); i++ {
				key := fmt.Sprintf("bench-session-%d", i)
				if err := store.Set(ctx, key, payload, ttl); err != nil {
					b.Fatalf("set failed: %v", err)
				}

				if _, err := store.Get(ctx, key); err != nil {
					b.Fatalf("get failed: %v", err)
				}

				if err := store.Delete(ctx, key); err != nil {
					b.Fatalf("delete failed: %v", err)
				}
			}
		})
	}
}
