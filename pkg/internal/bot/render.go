package bot

import (
	"fmt"
	"strings"

	"github.com/yeisme/filerelay/pkg/internal/model"
	"github.com/yeisme/filerelay/pkg/internal/templates"
	"github.com/yeisme/filerelay/pkg/internal/types"
)

const (
	myFilesNameMax  = 40
	allFilesNameMax = 35
	editPreviewMax  = 500
	dateLayout      = "2006-01-02"
)

// 旧版 Markdown 中动态内容一律放进行内代码，避免 _ 与 * 破坏解析.
func code(s string) string {
	return "`" + strings.ReplaceAll(s, "`", "'") + "`"
}

// plain 去掉会被旧版 Markdown 解析的字符，用于用户名等无法放进代码块的位置.
var plain = strings.NewReplacer("_", " ", "*", "", "`", "'", "[", "(", "]", ")").Replace

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}

	return string(r[:n]) + "..."
}

func renderReceipt(rec model.FileRecord, shareLink string) string {
	var b strings.Builder

	b.WriteString("✅ *File Stored Successfully!*\n\n")
	fmt.Fprintf(&b, "%s *File Details:*\n", rec.Kind.Emoji())
	fmt.Fprintf(&b, "├ *Name:* %s\n", code(rec.DisplayName))
	fmt.Fprintf(&b, "├ *Size:* %s\n", rec.HumanSize())
	fmt.Fprintf(&b, "├ *Type:* %s\n", rec.Kind.Title())
	fmt.Fprintf(&b, "└ *ID:* %s\n\n", code(rec.ID))
	b.WriteString("📍 *Storage Info:*\n")
	fmt.Fprintf(&b, "├ Channel Message: %s\n", code(rec.StorageRef))
	b.WriteString("└ Logged to mirror ✓\n\n")
	fmt.Fprintf(&b, "🔗 *Share Link:*\n%s\n\n", code(shareLink))
	b.WriteString("💡 *Tip:* Click 'Copy Share Link' to open in browser and copy easily!")

	return b.String()
}

func renderJoinPrompt(rec model.FileRecord) string {
	var b strings.Builder

	b.WriteString("🔒 *File Ready for Download*\n\n")
	fmt.Fprintf(&b, "%s *File Details:*\n", rec.Kind.Emoji())
	fmt.Fprintf(&b, "├ *Name:* %s\n", code(rec.DisplayName))
	fmt.Fprintf(&b, "├ *Size:* %s\n", rec.HumanSize())
	fmt.Fprintf(&b, "├ *Type:* %s\n", rec.Kind.Title())
	fmt.Fprintf(&b, "└ *Downloads:* %d\n\n", rec.DownloadCount)
	b.WriteString("👇 Click below to get your file!\n\n")
	b.WriteString("💡 *Support us by joining our backup channel!*")

	return b.String()
}

// listView 文件列表视图参数.
type listView struct {
	title        string
	nameMax      int
	limit        int
	showUploader bool
	link         func(id string) string
}

// renderFileList 展示最近 limit 条记录.
func renderFileList(v listView, recs []model.FileRecord) string {
	var b strings.Builder

	b.WriteString(v.title + "\n\n")

	shown := recs
	if len(shown) > v.limit {
		shown = shown[len(shown)-v.limit:]
	}

	for _, rec := range shown {
		fmt.Fprintf(&b, "%s %s\n", rec.Kind.Emoji(), code(truncate(rec.DisplayName, v.nameMax)))
		fmt.Fprintf(&b, "├ 🆔 ID: %s\n", code(rec.ID))

		if v.showUploader {
			fmt.Fprintf(&b, "├ 👤 By: %s (%s)\n", code("@"+rec.UploaderLabel()), code(fmt.Sprint(rec.UploaderID)))
		}

		fmt.Fprintf(&b, "├ 💾 Size: %s\n", rec.HumanSize())
		fmt.Fprintf(&b, "├ 📥 Downloads: %d\n", rec.DownloadCount)
		fmt.Fprintf(&b, "├ 📅 Date: %s\n", rec.CreatedAt.Format(dateLayout))
		fmt.Fprintf(&b, "└ 🔗 [Share Link](%s)\n\n", v.link(rec.ID))
	}

	if len(recs) > v.limit {
		fmt.Fprintf(&b, "_Showing last %d of %d total files_\n\n", v.limit, len(recs))
	}

	fmt.Fprintf(&b, "📊 *Total Files:* %d", len(recs))

	return b.String()
}

func renderAdminStats(s types.GlobalStats) string {
	status := "✅ Healthy"
	if s.TotalFiles == 0 {
		status = "⚠️ Empty"
	}

	var b strings.Builder

	b.WriteString("📊 *Bot Statistics (Admin View)*\n\n")
	b.WriteString("*Global Stats:*\n")
	fmt.Fprintf(&b, "├ 📁 Total Files: %d\n", s.TotalFiles)
	fmt.Fprintf(&b, "├ 📥 Total Downloads: %d\n", s.TotalDownloads)
	fmt.Fprintf(&b, "└ 👥 Total Users: %d\n\n", s.DistinctUploaders)
	b.WriteString("*Storage Info:*\n")
	fmt.Fprintf(&b, "├ 🗄️ Files Channel: %s\n", code(fmt.Sprint(s.FilesChannelID)))
	fmt.Fprintf(&b, "├ 📝 Logs Channel: %s\n", code(fmt.Sprint(s.LogsChannelID)))
	fmt.Fprintf(&b, "└ 💾 Registry Entries: %d\n\n", s.TotalFiles)
	b.WriteString("*Average Stats:*\n")
	fmt.Fprintf(&b, "├ Avg Downloads/File: %.1f\n", s.AvgDownloads)
	fmt.Fprintf(&b, "└ Registry Status: %s", status)

	return b.String()
}

func renderUserStats(s types.UserStats) string {
	var b strings.Builder

	b.WriteString("📊 *Your Statistics*\n\n")
	b.WriteString("*Your Activity:*\n")
	fmt.Fprintf(&b, "├ 📁 Files Uploaded: %d\n", s.FilesUploaded)
	fmt.Fprintf(&b, "├ 📥 Total Downloads: %d\n", s.TotalDownloads)
	fmt.Fprintf(&b, "└ 📈 Avg Downloads/File: %.1f\n\n", s.AvgDownloads)
	b.WriteString("💡 *Tip:* Upload more files to track your sharing activity!")

	return b.String()
}

func renderRecoveryInfo(files int, sinks []string) string {
	var b strings.Builder

	b.WriteString("🔄 *Registry Recovery*\n\n")
	b.WriteString("Current registry status:\n")
	fmt.Fprintf(&b, "├ 📊 Files in registry: %d\n", files)
	fmt.Fprintf(&b, "├ 📝 Mirrors: %s\n", code(strings.Join(sinks, ", ")))
	b.WriteString("└ ✅ Status: Operational\n\n")
	b.WriteString("*About the Registry:*\n")
	b.WriteString("File metadata lives in memory for fast access. ")
	b.WriteString("Every upload is also logged to the Logs Channel before its link is returned.\n\n")
	b.WriteString("*Recovery:*\n")
	b.WriteString("After a restart, export the Logs Channel history (or use the local journal) and run ")
	b.WriteString(code("filerelay recover --input <file>"))
	b.WriteString(" to rebuild the registry.")

	return b.String()
}

func renderEditMenu() string {
	return "✏️ *Edit Bot Messages*\n\n" +
		"Select which message you want to edit:\n\n" +
		"*Available Variables:*\n" +
		"• `{user_name}` - User's first name\n" +
		"• `{user_id}` - User's ID\n\n" +
		"*Note:* Messages support Markdown formatting."
}

func renderEditPrompt(key, current string) string {
	display := current
	if len([]rune(display)) > editPreviewMax {
		display = truncate(display, editPreviewMax)
	}

	return fmt.Sprintf("✏️ *Editing %s*\n\n"+
		"*Current Message:*\n"+
		"```\n%s\n```\n\n"+
		"📝 Send me the new message text.\n\n"+
		"*Available Variables:*\n"+
		"• `{user_name}` - User's first name\n"+
		"• `{user_id}` - User's ID\n\n"+
		"Use /cancel to cancel editing.",
		templates.Title(key), strings.ReplaceAll(display, "```", "'''"))
}

func renderPreview(key, rendered string) string {
	return fmt.Sprintf("👁️ *Preview of %s*\n\n%s\n\n━━━━━━━━━━━━━━━━\n\nSave this message?", templates.Title(key), rendered)
}

const (
	msgProcessing   = "⏳ Processing your file... Please wait."
	msgUnsupported  = "❌ Unsupported file type!"
	msgTooMany      = "⏳ Too many requests, please slow down."
	msgFileNotFound = "❌ *File Not Found*\n\nThis file may have been deleted or the link is incorrect."
	msgStoreFailed  = "❌ *Error storing file*\n\n" +
		"Please check:\n" +
		"• Bot has admin rights in channels\n" +
		"• Bot can post messages\n" +
		"• Channel IDs are correct"
	msgMirrorFailed   = "❌ *Storage error*\n\nThe file could not be logged. Please try again."
	msgInternalError  = "❌ *Internal error*\n\nPlease send the file again."
	msgRetrieveFailed = "❌ Error retrieving file. Please try again."
	msgSendFailed     = "❌ *Error Sending File*\n\nThere was an error retrieving your file. Please try again later."
	msgSent           = "✅ *File Sent Successfully!*\n\n" +
		"Your file has been sent to this chat.\n\n" +
		"💡 *Support us by joining our backup channel!*\n" +
		"Get updates, exclusive content, and more files."
	msgNoFiles = "📭 *No Files Yet*\n\n" +
		"You haven't uploaded any files.\n\n" +
		"💡 Send me a file to get started!"
	msgNoSystemFiles = "📭 *No Files in System*\n\nNo files have been uploaded yet."
	msgAdminOnly     = "❌ Admin access required!"
	msgAdminMode     = "\n\n👑 *Admin Mode Active*"
	msgSaved         = "✅ *Message Updated Successfully!*\n\nThe new message has been saved and will be used immediately."
	msgSaveFailed    = "❌ *Error Saving Message*\n\nThere was an error saving the message. Please try again."
	msgEditCancelled = "✅ Editing cancelled."
	msgNoEdit        = "No active editing session."
	msgCancelled     = "✅ Cancelled"
)

func renderWelcomeBack(name string) string {
	return fmt.Sprintf("👋 *Welcome back, %s!*\n\n🗄️ *File Storage Bot - Main Menu*\n\nChoose an option below:", plain(name))
}
