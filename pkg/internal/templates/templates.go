// Package templates 管理机器人的可编辑消息模板与管理员编辑会话.
//
// 模板与会话都存放在 KV 中（通过 pkg/cache），与文件索引完全无关.
// 模板支持 {user_name} 与 {user_id} 两个占位符.
package templates

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"

	"github.com/yeisme/filerelay/pkg/cache"
	"github.com/yeisme/filerelay/pkg/configs"
	"github.com/yeisme/filerelay/pkg/internal/storage/kv"
	"github.com/yeisme/filerelay/pkg/log"
)

var (
	// ErrUnknownKey 模板键不受支持.
	ErrUnknownKey = errors.New("unknown template key")
	// ErrEmptyTemplate 模板内容为空.
	ErrEmptyTemplate = errors.New("template text is empty")
	// ErrNoSession 当前用户没有进行中的编辑.
	ErrNoSession = errors.New("no edit session")
)

// Vars 模板占位符取值.
type Vars struct {
	UserName string
	UserID   int64
}

// Render 替换占位符.
func Render(text string, vars Vars) string {
	return strings.NewReplacer(
		"{user_name}", vars.UserName,
		"{user_id}", strconv.FormatInt(vars.UserID, 10),
	).Replace(text)
}

// EditSession 管理员的一次模板编辑.
type EditSession struct {
	Key       string    `json:"key"`
	Draft     string    `json:"draft,omitempty"`
	StartedAt time.Time `json:"started_at"`
}

// Store 模板与编辑会话存储.
type Store struct {
	templates  *cache.Cache
	sessions   *cache.Cache
	sessionTTL time.Duration
}

// New 基于 KV 创建模板存储.
func New(store kv.KVStore, cfg configs.TemplatesConfig) *Store {
	ttl := cfg.SessionTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}

	return &Store{
		templates:  cache.NewCache(store, cache.WithPrefix(cfg.KeyPrefix+"tpl.")),
		sessions:   cache.NewCache(store, cache.WithPrefix(cfg.KeyPrefix+"edit.")),
		sessionTTL: ttl,
	}
}

// Seed 为 KV 中缺失的模板写入初始值：优先取 file 中的内容，其次取内置默认值.
// 已存在的模板不会被覆盖.
func (s *Store) Seed(ctx context.Context, file string) error {
	fromFile := map[string]string{}

	if file != "" {
		loaded, err := LoadFile(file)
		switch {
		case err == nil:
			fromFile = loaded
		case errors.Is(err, os.ErrNotExist):
			log.Logger().Warn().Str("file", file).Msg("templates file not found, using defaults")
		default:
			return err
		}
	}

	for _, key := range Keys() {
		exists, err := s.templates.Exists(ctx, key)
		if err != nil {
			return fmt.Errorf("check template %s: %w", key, err)
		}

		if exists {
			continue
		}

		text, ok := fromFile[key]
		if !ok || text == "" {
			text, _ = Default(key)
		}

		if err := cache.Set(ctx, s.templates, key, text, 0); err != nil {
			return fmt.Errorf("seed template %s: %w", key, err)
		}
	}

	return nil
}

// LoadFile 读取 JSON 模板文件，未知键被忽略.
func LoadFile(file string) (map[string]string, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}

	var raw map[string]string
	if err := sonic.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse templates file %s: %w", file, err)
	}

	out := make(map[string]string, len(raw))
	for k, v := range raw {
		if Known(k) {
			out[k] = v
		}
	}

	return out, nil
}

// Get 返回模板原文，KV 中不存在时回退到默认值.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	def, ok := Default(key)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}

	text, err := cache.Get[string](ctx, s.templates, key)
	if err != nil {
		if !errors.Is(err, kv.ErrKeyNotFound) {
			log.Logger().Warn().Err(err).Str("key", key).Msg("read template failed, using default")
		}

		return def, nil
	}

	return text, nil
}

// Render 读取模板并替换占位符.
func (s *Store) Render(ctx context.Context, key string, vars Vars) (string, error) {
	text, err := s.Get(ctx, key)
	if err != nil {
		return "", err
	}

	return Render(text, vars), nil
}

// All 返回全部模板.
func (s *Store) All(ctx context.Context) (map[string]string, error) {
	out := make(map[string]string, len(Keys()))

	for _, key := range Keys() {
		text, err := s.Get(ctx, key)
		if err != nil {
			return nil, err
		}

		out[key] = text
	}

	return out, nil
}

// Update 保存新模板，立即生效.
func (s *Store) Update(ctx context.Context, key, text string) error {
	if !Known(key) {
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}

	if strings.TrimSpace(text) == "" {
		return ErrEmptyTemplate
	}

	return cache.Set(ctx, s.templates, key, text, 0)
}

// BeginEdit 为管理员开启编辑会话，覆盖之前未完成的会话.
func (s *Store) BeginEdit(ctx context.Context, userID int64, key string) error {
	if !Known(key) {
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}

	return cache.Set(ctx, s.sessions, sessionKey(userID), EditSession{Key: key, StartedAt: time.Now()}, s.sessionTTL)
}

// Session 返回进行中的编辑会话.
func (s *Store) Session(ctx context.Context, userID int64) (EditSession, error) {
	sess, err := cache.Get[EditSession](ctx, s.sessions, sessionKey(userID))
	if errors.Is(err, kv.ErrKeyNotFound) {
		return EditSession{}, ErrNoSession
	}

	return sess, err
}

// SetDraft 记录管理员发来的新内容，等待预览与保存.
func (s *Store) SetDraft(ctx context.Context, userID int64, draft string) (EditSession, error) {
	sess, err := s.Session(ctx, userID)
	if err != nil {
		return EditSession{}, err
	}

	if strings.TrimSpace(draft) == "" {
		return EditSession{}, ErrEmptyTemplate
	}

	sess.Draft = draft

	return sess, cache.Set(ctx, s.sessions, sessionKey(userID), sess, s.sessionTTL)
}

// Commit 保存会话中的草稿并结束会话.key 必须与会话一致.
func (s *Store) Commit(ctx context.Context, userID int64, key string) error {
	sess, err := s.Session(ctx, userID)
	if err != nil {
		return err
	}

	if sess.Key != key {
		return fmt.Errorf("%w: editing %s, not %s", ErrNoSession, sess.Key, key)
	}

	if err := s.Update(ctx, key, sess.Draft); err != nil {
		return err
	}

	return s.EndEdit(ctx, userID)
}

// EndEdit 结束编辑会话.
func (s *Store) EndEdit(ctx context.Context, userID int64) error {
	return s.sessions.Delete(ctx, sessionKey(userID))
}

func sessionKey(userID int64) string {
	return strconv.FormatInt(userID, 10)
}
