package mirror

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/yeisme/filerelay/pkg/internal/telegram"
)

// TelegramSink 把镜像块发送到日志频道，是唯一的同步主镜像.
type TelegramSink struct {
	sender  telegram.Sender
	chatID  int64
	breaker *telegram.Breaker
}

// NewTelegramSink 创建日志频道镜像，breaker 可为 nil.
func NewTelegramSink(sender telegram.Sender, logsChannelID int64, breaker *telegram.Breaker) *TelegramSink {
	return &TelegramSink{sender: sender, chatID: logsChannelID, breaker: breaker}
}

// Name 实现 Sink.
func (s *TelegramSink) Name() string { return "telegram" }

// WriteCreate 实现 Sink.
func (s *TelegramSink) WriteCreate(ctx context.Context, e CreateEntry) error {
	text, err := FormatCreate(e)
	if err != nil {
		return err
	}

	return s.send(ctx, text)
}

// WriteDownload 实现 Sink.
func (s *TelegramSink) WriteDownload(ctx context.Context, e DownloadEntry) error {
	text, err := FormatDownload(e)
	if err != nil {
		return err
	}

	return s.send(ctx, text)
}

func (s *TelegramSink) send(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(s.chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.DisableWebPagePreview = true

	return s.breaker.Do(func() error {
		if _, err := s.sender.Send(msg); err != nil {
			return fmt.Errorf("send to logs channel %d: %w", s.chatID, err)
		}

		return nil
	})
}
