package bot

import (
	"context"
	"errors"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/yeisme/filerelay/pkg/internal/linkcodec"
	"github.com/yeisme/filerelay/pkg/internal/registry"
	"github.com/yeisme/filerelay/pkg/internal/service"
	"github.com/yeisme/filerelay/pkg/internal/templates"
)

// ack 回调应答，每个回调只应答一次.
type ack struct {
	text  string
	alert bool
}

func (b *Bot) onCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	var a ack
	defer func() { b.answer(cq.ID, a.text, a.alert) }()

	if cq.Message == nil || cq.From == nil {
		return
	}

	if !b.limiter.Allow(cq.From.ID) {
		a = ack{text: msgTooMany}

		return
	}

	a = b.dispatch(ctx, cq)
}

func (b *Bot) dispatch(ctx context.Context, cq *tgbotapi.CallbackQuery) ack {
	uid := cq.From.ID
	chatID := cq.Message.Chat.ID
	msgID := cq.Message.MessageID
	admin := b.cfg.IsAdmin(uid)

	if prefix, id, ok := linkcodec.ParseCallback(cq.Data); ok {
		return b.onRetrieve(ctx, cq, prefix, id)
	}

	switch data := cq.Data; {
	case data == cbBack || data == cbCancel:
		b.dismiss(chatID, msgID)
	case data == cbMenu:
		b.edit(chatID, msgID, renderWelcomeBack(cq.From.FirstName), ptr(b.mainMenu(uid)))
	case data == cbMyFiles:
		b.edit(chatID, msgID, b.fileListText(uid, false), ptr(backToMenu()))
	case data == cbStats:
		b.edit(chatID, msgID, b.statsText(uid), ptr(backToMenu()))
	case data == cbHelp:
		b.editTemplate(ctx, cq, templates.KeyHelp)
	case data == cbAbout:
		b.editTemplate(ctx, cq, templates.KeyAbout)
	case !admin && isAdminCallback(data):
		return ack{text: msgAdminOnly, alert: true}
	case data == cbAllFiles:
		b.edit(chatID, msgID, b.fileListText(uid, true), ptr(backToMenu()))
	case data == cbRecovery:
		b.edit(chatID, msgID, renderRecoveryInfo(b.relay.Registry().Len(), b.relay.Mirrors()), ptr(backToMenu()))
	case data == cbEditMessages:
		// 返回编辑菜单即放弃未保存的草稿
		_ = b.templates.EndEdit(ctx, uid)
		b.edit(chatID, msgID, renderEditMenu(), ptr(editMenuKeyboard()))
	case strings.HasPrefix(data, cbEditPrefix):
		return b.onEdit(ctx, cq, strings.TrimPrefix(data, cbEditPrefix))
	case strings.HasPrefix(data, cbPreviewPrefix):
		return b.onPreview(ctx, cq, strings.TrimPrefix(data, cbPreviewPrefix))
	case strings.HasPrefix(data, cbSavePrefix):
		return b.onSave(ctx, cq, strings.TrimPrefix(data, cbSavePrefix))
	default:
		b.logger.Debug().Str("data", data).Int64("user", uid).Msg("unknown callback")
	}

	return ack{}
}

func isAdminCallback(data string) bool {
	switch data {
	case cbAllFiles, cbRecovery, cbEditMessages:
		return true
	}

	return strings.HasPrefix(data, cbEditPrefix) ||
		strings.HasPrefix(data, cbPreviewPrefix) ||
		strings.HasPrefix(data, cbSavePrefix)
}

// onRetrieve 处理 get_<id>（加群提示）与 dl_<id>（上传回执）.
func (b *Bot) onRetrieve(ctx context.Context, cq *tgbotapi.CallbackQuery, prefix, id string) ack {
	chatID := cq.Message.Chat.ID

	_, err := b.relay.Retrieve(ctx, service.RetrieveRequest{
		ID:        id,
		ChatID:    chatID,
		Requester: identityOf(cq.From),
	})

	if prefix == linkcodec.CallbackDownload {
		switch {
		case err == nil:
			return ack{text: "✅ File sent successfully!"}
		case errors.Is(err, registry.ErrNotFound):
			return ack{text: "❌ File not found!", alert: true}
		default:
			return ack{text: "❌ Error sending file", alert: true}
		}
	}

	switch {
	case err == nil:
		b.edit(chatID, cq.Message.MessageID, msgSent, ptr(b.sentKeyboard()))
	case errors.Is(err, registry.ErrNotFound):
		b.edit(chatID, cq.Message.MessageID, msgFileNotFound, nil)
	default:
		b.edit(chatID, cq.Message.MessageID, msgSendFailed, nil)
	}

	return ack{}
}

func (b *Bot) onEdit(ctx context.Context, cq *tgbotapi.CallbackQuery, key string) ack {
	if err := b.templates.BeginEdit(ctx, cq.From.ID, key); err != nil {
		b.logger.Warn().Err(err).Str("key", key).Msg("begin edit failed")

		return ack{text: "❌ Unknown message", alert: true}
	}

	current, err := b.templates.Get(ctx, key)
	if err != nil {
		b.logger.Warn().Err(err).Str("key", key).Msg("load template failed")
	}

	b.edit(cq.Message.Chat.ID, cq.Message.MessageID, renderEditPrompt(key, current),
		ptr(singleButton("❌ Cancel", cbEditMessages)))

	return ack{}
}

// onPreview 预览当前生效的模板，编辑中的草稿优先.
func (b *Bot) onPreview(ctx context.Context, cq *tgbotapi.CallbackQuery, key string) ack {
	if !templates.Known(key) {
		return ack{text: "❌ Unknown message", alert: true}
	}

	text, err := b.templates.Get(ctx, key)
	if err != nil {
		return ack{text: msgSaveFailed, alert: true}
	}

	if sess, err := b.templates.Session(ctx, cq.From.ID); err == nil && sess.Key == key && sess.Draft != "" {
		text = sess.Draft
	}

	b.edit(cq.Message.Chat.ID, cq.Message.MessageID,
		renderPreview(key, templates.Render(text, varsOf(cq.From))),
		ptr(singleButton("« Back", cbEditMessages)))

	return ack{}
}

func (b *Bot) onSave(ctx context.Context, cq *tgbotapi.CallbackQuery, key string) ack {
	chatID, msgID := cq.Message.Chat.ID, cq.Message.MessageID

	if err := b.templates.Commit(ctx, cq.From.ID, key); err != nil {
		if errors.Is(err, templates.ErrNoSession) {
			return ack{text: msgNoEdit, alert: true}
		}

		b.logger.Error().Err(err).Str("key", key).Msg("save template failed")
		b.edit(chatID, msgID, msgSaveFailed, ptr(backToMenu()))

		return ack{}
	}

	b.logger.Info().Str("key", key).Int64("admin", cq.From.ID).Msg("template updated")
	b.edit(chatID, msgID, msgSaved, ptr(backToMenu()))

	return ack{text: "✅ Saved"}
}

func (b *Bot) editTemplate(ctx context.Context, cq *tgbotapi.CallbackQuery, key string) {
	text, err := b.templates.Render(ctx, key, varsOf(cq.From))
	if err != nil {
		b.logger.Error().Err(err).Str("key", key).Msg("render template failed")

		return
	}

	b.edit(cq.Message.Chat.ID, cq.Message.MessageID, text, ptr(backToMenu()))
}

// dismiss 删除消息，删除失败时改为提示已取消.
func (b *Bot) dismiss(chatID int64, msgID int) {
	if _, err := b.api.Request(tgbotapi.NewDeleteMessage(chatID, msgID)); err != nil {
		b.edit(chatID, msgID, msgCancelled, nil)
	}
}
