// Package gateway 封装与 Telegram 的文件存取：把上传的文件转存到文件频道，并把已存文件重新投递给请求者.
//
// 文件内容从不经过本服务，存取都只传递 Telegram 的 file_id.
// 网关不做重试，失败统一包装为 ErrGatewayUnavailable，由上层决定如何提示用户.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/yeisme/filerelay/pkg/internal/model"
	"github.com/yeisme/filerelay/pkg/internal/telegram"
	"github.com/yeisme/filerelay/pkg/metrics"
	"github.com/yeisme/filerelay/pkg/tracing"
)

// ErrGatewayUnavailable Telegram 调用失败或熔断打开.
var ErrGatewayUnavailable = errors.New("telegram gateway unavailable")

// Gateway 文件存取接口.
type Gateway interface {
	// Store 将 handle 指向的文件转存到文件频道，返回频道消息 ID.
	Store(ctx context.Context, kind model.FileKind, handle string) (storageRef string, err error)
	// Deliver 把记录对应的文件发送到 chatID，附带纯文本 caption.
	Deliver(ctx context.Context, chatID int64, rec model.FileRecord, caption string) error
}

// Telegram 基于 Bot API 的 Gateway 实现.
type Telegram struct {
	sender         telegram.Sender
	filesChannelID int64
	breaker        *telegram.Breaker
}

// NewTelegram 创建 Telegram 网关，breaker 可为 nil.
func NewTelegram(sender telegram.Sender, filesChannelID int64, breaker *telegram.Breaker) *Telegram {
	return &Telegram{sender: sender, filesChannelID: filesChannelID, breaker: breaker}
}

// Store 实现 Gateway.
func (g *Telegram) Store(ctx context.Context, kind model.FileKind, handle string) (string, error) {
	_, span := tracing.StartSpan(ctx, "gateway.Store")
	defer span.End()

	msg, err := g.send("store", outbound(g.filesChannelID, kind, handle, ""))
	if err != nil {
		tracing.RecordError(span, err)

		return "", err
	}

	return strconv.Itoa(msg.MessageID), nil
}

// Deliver 实现 Gateway.
func (g *Telegram) Deliver(ctx context.Context, chatID int64, rec model.FileRecord, caption string) error {
	_, span := tracing.StartSpan(ctx, "gateway.Deliver")
	defer span.End()

	if _, err := g.send("deliver", outbound(chatID, rec.Kind, rec.FileHandle, caption)); err != nil {
		tracing.RecordError(span, err)

		return err
	}

	return nil
}

func (g *Telegram) send(op string, c tgbotapi.Chattable) (tgbotapi.Message, error) {
	start := time.Now()

	var msg tgbotapi.Message

	err := g.breaker.Do(func() error {
		var err error
		msg, err = g.sender.Send(c)

		return err
	})

	result := metrics.ResultOK
	if err != nil {
		result = metrics.ResultError
	}

	metrics.GatewayDuration.WithLabelValues(op, result).Observe(time.Since(start).Seconds())

	if err != nil {
		return msg, fmt.Errorf("%w: %s: %w", ErrGatewayUnavailable, op, err)
	}

	return msg, nil
}

// outbound 按文件类别构造消息，未知类别按文档发送.
func outbound(chatID int64, kind model.FileKind, handle, caption string) tgbotapi.Chattable {
	file := tgbotapi.FileID(handle)

	switch kind {
	case model.KindPhoto:
		c := tgbotapi.NewPhoto(chatID, file)
		c.Caption = caption

		return c
	case model.KindVideo:
		c := tgbotapi.NewVideo(chatID, file)
		c.Caption = caption

		return c
	case model.KindAudio:
		c := tgbotapi.NewAudio(chatID, file)
		c.Caption = caption

		return c
	case model.KindVoice:
		c := tgbotapi.NewVoice(chatID, file)
		c.Caption = caption

		return c
	default:
		c := tgbotapi.NewDocument(chatID, file)
		c.Caption = caption

		return c
	}
}
