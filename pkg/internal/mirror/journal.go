package mirror

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/natefinch/lumberjack"

	"github.com/yeisme/filerelay/pkg/configs"
)

// journalSeparator 分隔相邻的镜像块，便于人工阅读.
const journalSeparator = "\n\n---\n\n"

// JournalSink 把镜像块追加到本地文件，按大小轮转.
type JournalSink struct {
	mu sync.Mutex
	w  io.WriteCloser
}

// NewJournalSink 基于 lumberjack 创建本地日志镜像.
func NewJournalSink(cfg configs.JournalConfig) *JournalSink {
	return NewJournalSinkWriter(&lumberjack.Logger{
		Filename:   cfg.Path,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	})
}

// NewJournalSinkWriter 使用任意 writer 创建日志镜像.
func NewJournalSinkWriter(w io.WriteCloser) *JournalSink {
	return &JournalSink{w: w}
}

// Name 实现 Sink.
func (s *JournalSink) Name() string { return "journal" }

// WriteCreate 实现 Sink.
func (s *JournalSink) WriteCreate(_ context.Context, e CreateEntry) error {
	text, err := FormatCreate(e)
	if err != nil {
		return err
	}

	return s.append(text)
}

// WriteDownload 实现 Sink.
func (s *JournalSink) WriteDownload(_ context.Context, e DownloadEntry) error {
	text, err := FormatDownload(e)
	if err != nil {
		return err
	}

	return s.append(text)
}

// Close 关闭底层文件.
func (s *JournalSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.w.Close()
}

func (s *JournalSink) append(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := io.WriteString(s.w, text+journalSeparator); err != nil {
		return fmt.Errorf("append journal: %w", err)
	}

	return nil
}
