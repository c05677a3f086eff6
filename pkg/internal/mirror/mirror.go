// Package mirror 实现日志镜像的对账契约.
//
// 每条文件记录在对外可见之前，必须先同步写入主镜像（Telegram 日志频道），
// 写入失败即视为上传失败；下载事件则尽力写入所有镜像，失败只记录日志.
// 镜像内容是自描述的文本块，内嵌完整 JSON，可通过 id 子串线性检索恢复.
package mirror

import (
	"context"
	crand "crypto/rand"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid"
	"github.com/rs/zerolog"

	"github.com/yeisme/filerelay/pkg/internal/model"
	"github.com/yeisme/filerelay/pkg/log"
)

// ErrMirrorUnavailable 主镜像不可写.
var ErrMirrorUnavailable = errors.New("log mirror unavailable")

// Sink 镜像写入目标.
type Sink interface {
	// Name 用于日志与指标标签.
	Name() string
	WriteCreate(ctx context.Context, e CreateEntry) error
	WriteDownload(ctx context.Context, e DownloadEntry) error
}

// FailureHook 镜像写入失败时的回调，op 为 create 或 download.
type FailureHook func(sink, op string)

// Mirror 聚合一个同步主镜像与若干尽力而为的次级镜像.
type Mirror struct {
	primary   Sink
	secondary []Sink
	logger    *zerolog.Logger
	onFailure FailureHook
}

// Option Mirror 可选项.
type Option func(*Mirror)

// WithSecondary 追加次级镜像.
func WithSecondary(sinks ...Sink) Option {
	return func(m *Mirror) {
		for _, s := range sinks {
			if s != nil {
				m.secondary = append(m.secondary, s)
			}
		}
	}
}

// WithLogger 指定日志器.
func WithLogger(l *zerolog.Logger) Option { return func(m *Mirror) { m.logger = l } }

// WithFailureHook 指定失败回调，通常用于指标计数.
func WithFailureHook(fn FailureHook) Option { return func(m *Mirror) { m.onFailure = fn } }

// New 创建 Mirror，primary 不可为空.
func New(primary Sink, opts ...Option) *Mirror {
	m := &Mirror{primary: primary}
	for _, opt := range opts {
		opt(m)
	}

	if m.logger == nil {
		m.logger = log.Logger()
	}

	return m
}

// MirrorCreate 同步写入主镜像，失败返回 ErrMirrorUnavailable；次级镜像失败只记录.
func (m *Mirror) MirrorCreate(ctx context.Context, rec model.FileRecord, shareLink string) error {
	entry := NewCreateEntry(rec, shareLink)

	if err := m.primary.WriteCreate(ctx, entry); err != nil {
		m.failed(m.primary.Name(), "create", rec.ID, err)

		return fmt.Errorf("%w: %s: %w", ErrMirrorUnavailable, m.primary.Name(), err)
	}

	for _, s := range m.secondary {
		if err := s.WriteCreate(ctx, entry); err != nil {
			m.failed(s.Name(), "create", rec.ID, err)
		}
	}

	return nil
}

// MirrorDownload 尽力写入下载审计，不返回错误.
func (m *Mirror) MirrorDownload(ctx context.Context, ev model.DownloadEvent) {
	entry := NewDownloadEntry(ev)

	for _, s := range m.sinks() {
		if err := s.WriteDownload(ctx, entry); err != nil {
			m.failed(s.Name(), "download", ev.FileID, err)
		}
	}
}

// Sinks 返回所有镜像名称，主镜像在前.
func (m *Mirror) Sinks() []string {
	names := make([]string, 0, 1+len(m.secondary))
	for _, s := range m.sinks() {
		names = append(names, s.Name())
	}

	return names
}

func (m *Mirror) sinks() []Sink {
	return append([]Sink{m.primary}, m.secondary...)
}

func (m *Mirror) failed(sink, op, id string, err error) {
	m.logger.Error().Err(err).Str("sink", sink).Str("op", op).Str("id", id).Msg("mirror write failed")

	if m.onFailure != nil {
		m.onFailure(sink, op)
	}
}

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(crand.Reader, 0)
)

// newEventID 生成按时间有序的事件 ID.
func newEventID(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}

	entropyMu.Lock()
	defer entropyMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}
