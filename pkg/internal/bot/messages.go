package bot

import (
	"context"
	"errors"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/yeisme/filerelay/pkg/internal/gateway"
	"github.com/yeisme/filerelay/pkg/internal/linkcodec"
	"github.com/yeisme/filerelay/pkg/internal/mirror"
	"github.com/yeisme/filerelay/pkg/internal/model"
	"github.com/yeisme/filerelay/pkg/internal/registry"
	"github.com/yeisme/filerelay/pkg/internal/service"
	"github.com/yeisme/filerelay/pkg/internal/templates"
)

func (b *Bot) onMessage(ctx context.Context, m *tgbotapi.Message) {
	if !b.limiter.Allow(m.From.ID) {
		_, _ = b.reply(m.Chat.ID, msgTooMany, nil)

		return
	}

	if m.IsCommand() {
		b.onCommand(ctx, m)

		return
	}

	if req, ok := extractFile(m); ok {
		b.onFile(ctx, m, req)

		return
	}

	if m.Text != "" {
		b.onText(ctx, m)

		return
	}

	_, _ = b.reply(m.Chat.ID, msgUnsupported, nil)
}

func (b *Bot) onCommand(ctx context.Context, m *tgbotapi.Message) {
	switch m.Command() {
	case "start":
		b.onStart(ctx, m)
	case "myfiles":
		b.sendFileList(m.Chat.ID, m.From.ID, false)
	case "stats":
		_, _ = b.reply(m.Chat.ID, b.statsText(m.From.ID), nil)
	case "help":
		b.sendTemplate(ctx, m, templates.KeyHelp)
	case "about":
		b.sendTemplate(ctx, m, templates.KeyAbout)
	case "cancel":
		b.onCancel(ctx, m)
	}
}

// onStart 无参数时展示欢迎页，带 file_<id> 参数时进入取回流程.
func (b *Bot) onStart(ctx context.Context, m *tgbotapi.Message) {
	arg := m.CommandArguments()
	if arg == "" {
		text, err := b.templates.Render(ctx, templates.KeyStart, varsOf(m.From))
		if err != nil {
			b.logger.Error().Err(err).Msg("render start message failed")
		}

		if b.cfg.IsAdmin(m.From.ID) {
			text += msgAdminMode
		}

		_, _ = b.reply(m.Chat.ID, text, b.mainMenu(m.From.ID))

		return
	}

	id, err := linkcodec.Decode(arg)
	if err != nil {
		_, _ = b.reply(m.Chat.ID, msgFileNotFound, nil)

		return
	}

	rec, err := b.relay.Lookup(id)
	if err != nil {
		_, _ = b.reply(m.Chat.ID, msgFileNotFound, nil)

		return
	}

	if !b.cfg.IsAdmin(m.From.ID) {
		_, _ = b.reply(m.Chat.ID, renderJoinPrompt(rec), b.joinPromptKeyboard(id))

		return
	}

	if _, err := b.relay.Retrieve(ctx, service.RetrieveRequest{
		ID:        id,
		ChatID:    m.Chat.ID,
		Requester: identityOf(m.From),
	}); err != nil {
		text := msgRetrieveFailed
		if errors.Is(err, registry.ErrNotFound) {
			text = msgFileNotFound
		}

		_, _ = b.reply(m.Chat.ID, text, nil)
	}
}

func (b *Bot) onFile(ctx context.Context, m *tgbotapi.Message, req service.UploadRequest) {
	processing, err := b.reply(m.Chat.ID, msgProcessing, nil)
	if err != nil {
		return
	}

	req.UploaderID = m.From.ID
	req.UploaderHandle = m.From.UserName

	res, err := b.relay.Upload(ctx, req)
	if err != nil {
		b.edit(m.Chat.ID, processing.MessageID, uploadErrorText(err), nil)

		return
	}

	b.edit(m.Chat.ID, processing.MessageID, renderReceipt(res.Record, res.ShareLink),
		ptr(receiptKeyboard(res.Record.ID, res.ShareLink)))
}

func uploadErrorText(err error) string {
	switch {
	case errors.Is(err, gateway.ErrGatewayUnavailable):
		return msgStoreFailed
	case errors.Is(err, mirror.ErrMirrorUnavailable):
		return msgMirrorFailed
	default:
		return msgInternalError
	}
}

// onText 管理员处于编辑状态时，文本被当作新模板内容.
func (b *Bot) onText(ctx context.Context, m *tgbotapi.Message) {
	if !b.cfg.IsAdmin(m.From.ID) {
		return
	}

	sess, err := b.templates.SetDraft(ctx, m.From.ID, m.Text)
	if err != nil {
		if !errors.Is(err, templates.ErrNoSession) {
			b.logger.Warn().Err(err).Int64("user", m.From.ID).Msg("store template draft failed")
		}

		return
	}

	preview := templates.Render(sess.Draft, varsOf(m.From))
	_, _ = b.reply(m.Chat.ID, renderPreview(sess.Key, preview), previewKeyboard(sess.Key))
}

func (b *Bot) onCancel(ctx context.Context, m *tgbotapi.Message) {
	if !b.cfg.IsAdmin(m.From.ID) {
		return
	}

	if _, err := b.templates.Session(ctx, m.From.ID); err != nil {
		_, _ = b.reply(m.Chat.ID, msgNoEdit, nil)

		return
	}

	if err := b.templates.EndEdit(ctx, m.From.ID); err != nil {
		b.logger.Warn().Err(err).Msg("end edit session failed")
	}

	_, _ = b.reply(m.Chat.ID, msgEditCancelled, b.mainMenu(m.From.ID))
}

func (b *Bot) sendTemplate(ctx context.Context, m *tgbotapi.Message, key string) {
	text, err := b.templates.Render(ctx, key, varsOf(m.From))
	if err != nil {
		b.logger.Error().Err(err).Str("key", key).Msg("render template failed")

		return
	}

	_, _ = b.reply(m.Chat.ID, text, nil)
}

func (b *Bot) sendFileList(chatID, userID int64, all bool) {
	_, _ = b.reply(chatID, b.fileListText(userID, all), nil)
}

func (b *Bot) fileListText(userID int64, all bool) string {
	view := listView{
		title:   "📁 *Your Uploaded Files*",
		nameMax: myFilesNameMax,
		limit:   b.cfg.ListLimit,
		link:    b.relay.ShareLink,
	}

	var recs []model.FileRecord

	if all {
		view.title = "📂 *All Files in System*"
		view.nameMax = allFilesNameMax
		view.showUploader = true
		recs = b.relay.ListAll()

		if len(recs) == 0 {
			return msgNoSystemFiles
		}
	} else {
		recs = b.relay.ListByUploader(userID)

		if len(recs) == 0 {
			return msgNoFiles
		}
	}

	return renderFileList(view, recs)
}

func (b *Bot) statsText(userID int64) string {
	if b.cfg.IsAdmin(userID) {
		return renderAdminStats(b.stats.Global())
	}

	return renderUserStats(b.stats.ForUser(userID))
}

// extractFile 识别消息中的文件，图片取最大尺寸.
func extractFile(m *tgbotapi.Message) (service.UploadRequest, bool) {
	switch {
	case m.Document != nil:
		name := m.Document.FileName
		if name == "" {
			name = "document_" + m.Document.FileUniqueID
		}

		return upload(model.KindDocument, m.Document.FileID, name, m.Document.FileSize), true
	case len(m.Photo) > 0:
		p := m.Photo[len(m.Photo)-1]

		return upload(model.KindPhoto, p.FileID, "photo_"+p.FileUniqueID+".jpg", p.FileSize), true
	case m.Video != nil:
		name := m.Video.FileName
		if name == "" {
			name = "video_" + m.Video.FileUniqueID + ".mp4"
		}

		return upload(model.KindVideo, m.Video.FileID, name, m.Video.FileSize), true
	case m.Audio != nil:
		name := m.Audio.FileName
		if name == "" {
			name = "audio_" + m.Audio.FileUniqueID + ".mp3"
		}

		return upload(model.KindAudio, m.Audio.FileID, name, m.Audio.FileSize), true
	case m.Voice != nil:
		return upload(model.KindVoice, m.Voice.FileID, "voice_"+m.Voice.FileUniqueID+".ogg", m.Voice.FileSize), true
	default:
		return service.UploadRequest{}, false
	}
}

func upload(kind model.FileKind, handle, name string, size int) service.UploadRequest {
	return service.UploadRequest{Kind: kind, FileHandle: handle, DisplayName: name, SizeBytes: int64(size)}
}

func identityOf(u *tgbotapi.User) model.Identity {
	return model.Identity{UserID: u.ID, UserName: u.UserName, FirstName: u.FirstName, LastName: u.LastName}
}

func varsOf(u *tgbotapi.User) templates.Vars {
	return templates.Vars{UserName: plain(u.FirstName), UserID: u.ID}
}
