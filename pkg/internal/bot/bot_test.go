package bot_test

import (
	"context"
	"strings"
	"sync"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/filerelay/pkg/configs"
	"github.com/yeisme/filerelay/pkg/internal/bot"
	"github.com/yeisme/filerelay/pkg/internal/gateway"
	"github.com/yeisme/filerelay/pkg/internal/mirror"
	"github.com/yeisme/filerelay/pkg/internal/registry"
	"github.com/yeisme/filerelay/pkg/internal/service"
	"github.com/yeisme/filerelay/pkg/internal/storage/kv"
	"github.com/yeisme/filerelay/pkg/internal/templates"
)

const (
	filesChannel = int64(-100)
	logsChannel  = int64(-200)
	adminID      = int64(7)
	userID       = int64(42)
)

// fakeAPI 记录所有发出的请求.
type fakeAPI struct {
	mu       sync.Mutex
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
	nextID   int
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.sent = append(f.sent, c)
	f.nextID++

	return tgbotapi.Message{MessageID: f.nextID}, nil
}

func (f *fakeAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.requests = append(f.requests, c)

	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeAPI) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.sent, f.requests = nil, nil
}

// texts 返回发往 chatID 的文本消息.
func (f *fakeAPI) texts(chatID int64) []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []string

	for _, c := range f.sent {
		if m, ok := c.(tgbotapi.MessageConfig); ok && m.ChatID == chatID {
			out = append(out, m.Text)
		}
	}

	return out
}

func (f *fakeAPI) edits() []tgbotapi.EditMessageTextConfig {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []tgbotapi.EditMessageTextConfig

	for _, c := range f.requests {
		if e, ok := c.(tgbotapi.EditMessageTextConfig); ok {
			out = append(out, e)
		}
	}

	return out
}

func (f *fakeAPI) callbacks() []tgbotapi.CallbackConfig {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []tgbotapi.CallbackConfig

	for _, c := range f.requests {
		if cb, ok := c.(tgbotapi.CallbackConfig); ok {
			out = append(out, cb)
		}
	}

	return out
}

func (f *fakeAPI) documents(chatID int64) []tgbotapi.DocumentConfig {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []tgbotapi.DocumentConfig

	for _, c := range f.sent {
		if d, ok := c.(tgbotapi.DocumentConfig); ok && d.ChatID == chatID {
			out = append(out, d)
		}
	}

	return out
}

type fixture struct {
	api       *fakeAPI
	bot       *bot.Bot
	relay     *service.RelayService
	templates *templates.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	api := &fakeAPI{}
	reg := registry.New()
	relay := service.NewRelayService(reg,
		gateway.NewTelegram(api, filesChannel, nil),
		mirror.New(mirror.NewTelegramSink(api, logsChannel, nil)),
		service.WithBotUserName("relay_bot"),
	)

	store, err := kv.NewMemoryKV(context.Background(), nil)
	require.NoError(t, err)

	tpl := templates.New(store, configs.TemplatesConfig{KeyPrefix: "test."})

	cfg := configs.BotConfig{
		FilesChannelID: filesChannel,
		LogsChannelID:  logsChannel,
		AdminIDs:       []int64{adminID},
	}

	b := bot.New(api, cfg, bot.Deps{
		Relay:     relay,
		Stats:     service.NewStatsService(reg, filesChannel, logsChannel),
		Templates: tpl,
	})

	return &fixture{api: api, bot: b, relay: relay, templates: tpl}
}

func user(id int64) *tgbotapi.User {
	return &tgbotapi.User{ID: id, FirstName: "Ann", UserName: "ann"}
}

func message(from int64, text string) tgbotapi.Update {
	m := &tgbotapi.Message{MessageID: 1, From: user(from), Chat: &tgbotapi.Chat{ID: from}, Text: text}

	if strings.HasPrefix(text, "/") {
		cmd, _, _ := strings.Cut(text, " ")
		m.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(cmd)}}
	}

	return tgbotapi.Update{Message: m}
}

func callback(from int64, data string) tgbotapi.Update {
	return tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb",
		From:    user(from),
		Message: &tgbotapi.Message{MessageID: 9, Chat: &tgbotapi.Chat{ID: from}},
		Data:    data,
	}}
}

func (fx *fixture) upload(t *testing.T, from int64) string {
	t.Helper()

	u := message(from, "")
	u.Message.Document = &tgbotapi.Document{FileID: "BQAC-doc", FileUniqueID: "u1", FileName: "report_v2.pdf", FileSize: 5 * 1024 * 1024}

	fx.bot.Handle(context.Background(), u)

	recs := fx.relay.ListByUploader(from)
	require.NotEmpty(t, recs)

	return recs[len(recs)-1].ID
}

// TestUpload 测试上传流程：转存、镜像、回执.
func TestUpload(t *testing.T) {
	fx := newFixture(t)
	id := fx.upload(t, userID)

	assert.Equal(t, []string{"⏳ Processing your file... Please wait."}, fx.api.texts(userID))
	require.Len(t, fx.api.documents(filesChannel), 1)
	assert.Equal(t, "BQAC-doc", fx.api.documents(filesChannel)[0].File.SendData())

	logs := fx.api.texts(logsChannel)
	require.Len(t, logs, 1)
	assert.Contains(t, logs[0], id)

	edits := fx.api.edits()
	require.Len(t, edits, 1)
	assert.Contains(t, edits[0].Text, "File Stored Successfully")
	assert.Contains(t, edits[0].Text, "https://t.me/relay_bot?start=file_"+id)
	assert.NotNil(t, edits[0].ReplyMarkup)
}

// TestStart_SharedLink 非管理员先看到加群提示，点击后才投递.
func TestStart_SharedLink(t *testing.T) {
	fx := newFixture(t)
	id := fx.upload(t, adminID)
	fx.api.reset()

	fx.bot.Handle(context.Background(), message(userID, "/start file_"+id))

	texts := fx.api.texts(userID)
	require.Len(t, texts, 1)
	assert.Contains(t, texts[0], "File Ready for Download")
	assert.Empty(t, fx.api.documents(userID))

	fx.bot.Handle(context.Background(), callback(userID, "get_"+id))

	docs := fx.api.documents(userID)
	require.Len(t, docs, 1)
	assert.Contains(t, docs[0].Caption, "📥 Downloads: 0")
	assert.Len(t, fx.api.callbacks(), 1)

	rec, err := fx.relay.Lookup(id)
	require.NoError(t, err)
	assert.EqualValues(t, 1, rec.DownloadCount)

	edits := fx.api.edits()
	require.Len(t, edits, 1)
	assert.Contains(t, edits[0].Text, "File Sent Successfully")
}

// TestStart_AdminDeliversDirectly 管理员打开链接直接收到文件.
func TestStart_AdminDeliversDirectly(t *testing.T) {
	fx := newFixture(t)
	id := fx.upload(t, userID)
	fx.api.reset()

	fx.bot.Handle(context.Background(), message(adminID, "/start file_"+id))

	require.Len(t, fx.api.documents(adminID), 1)
	assert.Empty(t, fx.api.texts(adminID))
}

// TestStart_NotFound 测试无效与不存在的链接.
func TestStart_NotFound(t *testing.T) {
	for _, arg := range []string{"file_deadbeef", "file_XYZ", "other"} {
		fx := newFixture(t)

		fx.bot.Handle(context.Background(), message(userID, "/start "+arg))

		texts := fx.api.texts(userID)
		require.Len(t, texts, 1, arg)
		assert.Contains(t, texts[0], "File Not Found", arg)
	}
}

// TestDownloadCallback 回执中的下载按钮只应答一次.
func TestDownloadCallback(t *testing.T) {
	fx := newFixture(t)
	id := fx.upload(t, userID)
	fx.api.reset()

	fx.bot.Handle(context.Background(), callback(userID, "dl_"+id))

	cbs := fx.api.callbacks()
	require.Len(t, cbs, 1)
	assert.Equal(t, "✅ File sent successfully!", cbs[0].Text)
	assert.Len(t, fx.api.documents(userID), 1)

	fx.api.reset()
	fx.bot.Handle(context.Background(), callback(userID, "dl_00000000"))

	cbs = fx.api.callbacks()
	require.Len(t, cbs, 1)
	assert.True(t, cbs[0].ShowAlert)
}

// TestAdminOnlyCallbacks 普通用户无法进入管理视图.
func TestAdminOnlyCallbacks(t *testing.T) {
	fx := newFixture(t)

	for _, data := range []string{"allfiles", "rebuild", "editmessages", "edit_help_message", "save_help_message"} {
		fx.api.reset()
		fx.bot.Handle(context.Background(), callback(userID, data))

		cbs := fx.api.callbacks()
		require.Len(t, cbs, 1, data)
		assert.Equal(t, "❌ Admin access required!", cbs[0].Text, data)
		assert.Empty(t, fx.api.edits(), data)
	}
}

// TestEditTemplateFlow 测试管理员编辑、预览并保存模板.
func TestEditTemplateFlow(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	fx.bot.Handle(ctx, callback(adminID, "edit_"+templates.KeyHelp))
	require.Len(t, fx.api.edits(), 1)
	assert.Contains(t, fx.api.edits()[0].Text, "Editing Help Message")

	fx.bot.Handle(ctx, message(adminID, "Need help, {user_name}?"))

	texts := fx.api.texts(adminID)
	require.Len(t, texts, 1)
	assert.Contains(t, texts[0], "Need help, Ann?")

	fx.bot.Handle(ctx, callback(adminID, "save_"+templates.KeyHelp))

	got, err := fx.templates.Get(ctx, templates.KeyHelp)
	require.NoError(t, err)
	assert.Equal(t, "Need help, {user_name}?", got)
	assert.Len(t, fx.api.callbacks(), 2)

	// 会话结束后普通文本不再被当作草稿
	fx.api.reset()
	fx.bot.Handle(ctx, message(adminID, "hello"))
	assert.Empty(t, fx.api.texts(adminID))
}

// TestCommands 测试列表与统计命令.
func TestCommands(t *testing.T) {
	fx := newFixture(t)

	fx.bot.Handle(context.Background(), message(userID, "/myfiles"))
	assert.Contains(t, fx.api.texts(userID)[0], "No Files Yet")

	id := fx.upload(t, userID)
	fx.api.reset()

	fx.bot.Handle(context.Background(), message(userID, "/myfiles"))
	assert.Contains(t, fx.api.texts(userID)[0], id)

	fx.bot.Handle(context.Background(), message(userID, "/stats"))
	assert.Contains(t, fx.api.texts(userID)[1], "Files Uploaded: 1")

	fx.bot.Handle(context.Background(), message(adminID, "/stats"))
	assert.Contains(t, fx.api.texts(adminID)[0], "Admin View")
}

// TestUnsupportedMessage 测试无法识别的消息.
func TestUnsupportedMessage(t *testing.T) {
	fx := newFixture(t)

	u := message(userID, "")
	u.Message.Sticker = &tgbotapi.Sticker{FileID: "s"}
	fx.bot.Handle(context.Background(), u)

	assert.Equal(t, []string{"❌ Unsupported file type!"}, fx.api.texts(userID))
}
