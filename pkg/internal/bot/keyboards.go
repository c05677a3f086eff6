package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/yeisme/filerelay/pkg/internal/linkcodec"
	"github.com/yeisme/filerelay/pkg/internal/templates"
)

// 回调数据.
const (
	cbMenu          = "menu"
	cbBack          = "back"
	cbCancel        = "cancel"
	cbMyFiles       = "myfiles"
	cbAllFiles      = "allfiles"
	cbStats         = "stats"
	cbHelp          = "help"
	cbAbout         = "about"
	cbRecovery      = "rebuild"
	cbEditMessages  = "editmessages"
	cbEditPrefix    = "edit_"
	cbPreviewPrefix = "preview_"
	cbSavePrefix    = "save_"
)

func (b *Bot) mainMenu(userID int64) tgbotapi.InlineKeyboardMarkup {
	if b.cfg.IsAdmin(userID) {
		return tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("📁 My Files", cbMyFiles),
				tgbotapi.NewInlineKeyboardButtonData("📂 All Files", cbAllFiles),
			),
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("📊 Statistics", cbStats),
				tgbotapi.NewInlineKeyboardButtonData("🔄 Recovery Info", cbRecovery),
			),
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("✏️ Edit Messages", cbEditMessages),
			),
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("ℹ️ Help", cbHelp),
				tgbotapi.NewInlineKeyboardButtonData("ℹ️ About", cbAbout),
			),
		)
	}

	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("📁 My Files", cbMyFiles)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("📊 Statistics", cbStats)),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("ℹ️ Help", cbHelp),
			tgbotapi.NewInlineKeyboardButtonData("ℹ️ About", cbAbout),
		),
	)
}

func backToMenu() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("« Back to Menu", cbMenu)),
	)
}

func receiptKeyboard(id, shareLink string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📥 Download Now", linkcodec.CallbackData(linkcodec.CallbackDownload, id)),
		),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonURL("🔗 Copy Share Link", shareLink)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("« Back to Menu", cbMenu)),
	)
}

// joinPromptKeyboard 没有配置备份频道时只保留获取按钮.
func (b *Bot) joinPromptKeyboard(id string) tgbotapi.InlineKeyboardMarkup {
	rows := [][]tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📥 Get File", linkcodec.CallbackData(linkcodec.CallbackGet, id)),
		),
	}

	if b.cfg.BackupChannelLink != "" {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("📢 Join Our Channel", b.cfg.BackupChannelLink),
		))
	}

	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func (b *Bot) sentKeyboard() tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton

	if b.cfg.BackupChannelLink != "" {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("📢 Join Our Backup Channel", b.cfg.BackupChannelLink),
		))
	}

	rows = append(rows, tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("✅ Done", cbCancel)))

	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func editMenuKeyboard() tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(templates.Keys())+1)
	for _, key := range templates.Keys() {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📝 Edit "+templates.Title(key), cbEditPrefix+key),
			tgbotapi.NewInlineKeyboardButtonData("👁️ Preview", cbPreviewPrefix+key),
		))
	}

	rows = append(rows, tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("« Back to Menu", cbMenu)))

	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func previewKeyboard(key string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("✅ Save", cbSavePrefix+key),
		tgbotapi.NewInlineKeyboardButtonData("❌ Cancel", cbEditMessages),
	))
}

func singleButton(text, data string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(text, data)),
	)
}

// commands 注册到 Telegram 的命令列表.
func commands() []tgbotapi.BotCommand {
	return []tgbotapi.BotCommand{
		{Command: "start", Description: "Start the bot and see menu"},
		{Command: "myfiles", Description: "View your uploaded files"},
		{Command: "stats", Description: "View bot statistics"},
		{Command: "help", Description: "Show help guide"},
		{Command: "about", Description: "About this bot"},
		{Command: "cancel", Description: "Cancel current operation"},
	}
}
