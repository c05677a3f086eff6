package cache_test

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/yeisme/filerelay/pkg/cache"
	"github.com/yeisme/filerelay/pkg/internal/storage/kv"
)

// session 测试用的结构体.
type session struct {
	Key   string `json:"key"`
	Draft string `json:"draft"`
}

func newStore(t *testing.T) kv.KVStore {
	t.Helper()

	store, err := kv.NewMemoryKV(context.Background(), nil)
	if err != nil {
		t.Fatalf("NewMemoryKV: %v", err)
	}

	t.Cleanup(func() { _ = store.Close() })

	return store
}

// TestCache_SetGet 测试写入与读取.
func TestCache_SetGet(t *testing.T) {
	ctx := context.Background()
	c := cache.NewCache(newStore(t))

	want := session{Key: "help_message", Draft: "*Help*"}
	if err := cache.Set(ctx, c, "s:1", want, 0); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, err := cache.Get[session](ctx, c, "s:1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	if got != want {
		t.Errorf("Get = %+v, want %+v", got, want)
	}

	if _, err := cache.Get[session](ctx, c, "missing"); !errors.Is(err, kv.ErrKeyNotFound) {
		t.Errorf("Get missing error = %v, want ErrKeyNotFound", err)
	}
}

// TestCache_TTL 测试过期后读取失败.
func TestCache_TTL(t *testing.T) {
	ctx := context.Background()
	c := cache.NewCache(newStore(t))

	if err := cache.Set(ctx, c, "short", "v", 20*time.Millisecond); err != nil {
		t.Fatalf("Set: %v", err)
	}

	time.Sleep(50 * time.Millisecond)

	if ok, _ := c.Exists(ctx, "short"); ok {
		t.Error("expired key still exists")
	}
}

// TestCache_Prefix 测试前缀隔离.
func TestCache_Prefix(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	tpl := cache.NewCache(store, cache.WithPrefix("tpl."))
	sess := cache.NewCache(store, cache.WithPrefix("sess."))

	for _, k := range []string{"start_message", "help_message"} {
		if err := cache.Set(ctx, tpl, k, "text", 0); err != nil {
			t.Fatalf("Set: %v", err)
		}
	}

	if err := cache.Set(ctx, sess, "42", session{Key: "start_message"}, 0); err != nil {
		t.Fatalf("Set: %v", err)
	}

	keys, err := tpl.Keys(ctx)
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}

	sort.Strings(keys)

	if len(keys) != 2 || keys[0] != "help_message" || keys[1] != "start_message" {
		t.Errorf("Keys = %v", keys)
	}

	if err := tpl.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}

	if ok, _ := sess.Exists(ctx, "42"); !ok {
		t.Error("Clear removed keys outside its prefix")
	}

	if ok, _ := tpl.Exists(ctx, "help_message"); ok {
		t.Error("Clear left keys behind")
	}
}

// TestGetOrSet 测试未命中时调用 getter 并写回.
func TestGetOrSet(t *testing.T) {
	ctx := context.Background()
	c := cache.NewCache(newStore(t))

	calls := 0
	getter := func() (string, error) {
		calls++

		return "default", nil
	}

	for i := 0; i < 3; i++ {
		v, err := cache.GetOrSet(ctx, c, "k", getter, time.Minute)
		if err != nil || v != "default" {
			t.Fatalf("GetOrSet = %q, %v", v, err)
		}
	}

	if calls != 1 {
		t.Errorf("getter called %d times, want 1", calls)
	}

	wantErr := errors.New("boom")

	_, err := cache.GetOrSet(ctx, c, "other", func() (int, error) { return 0, wantErr }, 0)
	if !errors.Is(err, wantErr) {
		t.Errorf("GetOrSet error = %v, want %v", err, wantErr)
	}
}

// TestCache_Delete 测试删除.
func TestCache_Delete(t *testing.T) {
	ctx := context.Background()
	c := cache.NewCache(newStore(t))

	_ = cache.Set(ctx, c, "k", 1, 0)

	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if ok, _ := c.Exists(ctx, "k"); ok {
		t.Error("key still exists after Delete")
	}
}
