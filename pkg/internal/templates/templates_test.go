package templates_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/filerelay/pkg/configs"
	"github.com/yeisme/filerelay/pkg/internal/storage/kv"
	"github.com/yeisme/filerelay/pkg/internal/templates"
)

func newStore(t *testing.T, ttl time.Duration) *templates.Store {
	t.Helper()

	store, err := kv.NewMemoryKV(context.Background(), nil)
	require.NoError(t, err)

	return templates.New(store, configs.TemplatesConfig{KeyPrefix: "test.", SessionTTL: ttl})
}

// TestRender 测试占位符替换.
func TestRender(t *testing.T) {
	got := templates.Render("Hi {user_name} ({user_id}), {user_name}!", templates.Vars{UserName: "Ann", UserID: 42})
	assert.Equal(t, "Hi Ann (42), Ann!", got)
	assert.Equal(t, "{other}", templates.Render("{other}", templates.Vars{}))
}

// TestSeed 测试从文件初始化且不覆盖已有模板.
func TestSeed(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, time.Minute)

	file := filepath.Join(t.TempDir(), "messages.json")
	require.NoError(t, os.WriteFile(file, []byte(`{"help_message":"custom help","bogus":"x"}`), 0o600))

	require.NoError(t, s.Update(ctx, templates.KeyAbout, "edited about"))
	require.NoError(t, s.Seed(ctx, file))

	help, err := s.Get(ctx, templates.KeyHelp)
	require.NoError(t, err)
	assert.Equal(t, "custom help", help)

	about, _ := s.Get(ctx, templates.KeyAbout)
	assert.Equal(t, "edited about", about)

	start, _ := s.Get(ctx, templates.KeyStart)
	def, _ := templates.Default(templates.KeyStart)
	assert.Equal(t, def, start)

	all, err := s.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	// 文件不存在时回退到默认值
	require.NoError(t, newStore(t, time.Minute).Seed(ctx, filepath.Join(t.TempDir(), "none.json")))
}

// TestStore_RenderAndUpdate 测试读取、渲染与非法更新.
func TestStore_RenderAndUpdate(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, time.Minute)

	text, err := s.Render(ctx, templates.KeyStart, templates.Vars{UserName: "Bob"})
	require.NoError(t, err)
	assert.Contains(t, text, "Welcome Bob!")

	_, err = s.Get(ctx, "nope")
	assert.ErrorIs(t, err, templates.ErrUnknownKey)

	assert.ErrorIs(t, s.Update(ctx, "nope", "x"), templates.ErrUnknownKey)
	assert.ErrorIs(t, s.Update(ctx, templates.KeyHelp, "  "), templates.ErrEmptyTemplate)
}

// TestEditSession 测试编辑、预览、保存流程.
func TestEditSession(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, time.Minute)

	_, err := s.Session(ctx, 7)
	assert.ErrorIs(t, err, templates.ErrNoSession)

	require.NoError(t, s.BeginEdit(ctx, 7, templates.KeyHelp))

	sess, err := s.SetDraft(ctx, 7, "new help for {user_name}")
	require.NoError(t, err)
	assert.Equal(t, templates.KeyHelp, sess.Key)

	assert.ErrorIs(t, s.Commit(ctx, 7, templates.KeyAbout), templates.ErrNoSession)
	require.NoError(t, s.Commit(ctx, 7, templates.KeyHelp))

	got, _ := s.Render(ctx, templates.KeyHelp, templates.Vars{UserName: "Zed"})
	assert.Equal(t, "new help for Zed", got)

	_, err = s.Session(ctx, 7)
	assert.ErrorIs(t, err, templates.ErrNoSession)
}

// TestEditSession_Expires 测试会话过期.
func TestEditSession_Expires(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, 20*time.Millisecond)

	require.NoError(t, s.BeginEdit(ctx, 7, templates.KeyStart))
	time.Sleep(50 * time.Millisecond)

	_, err := s.SetDraft(ctx, 7, "late")
	assert.ErrorIs(t, err, templates.ErrNoSession)
}
