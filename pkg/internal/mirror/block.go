package mirror

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/sonic"

	"github.com/yeisme/filerelay/pkg/internal/model"
)

const (
	fenceOpen  = "```json"
	fenceClose = "```"
	timeLayout = "2006-01-02 15:04:05"
)

// ErrNoBlock 文本中不存在可解析的镜像块.
var ErrNoBlock = errors.New("no mirror block found")

// CreateEntry 上传镜像块中的结构化部分，逐字段对应 FileRecord.
type CreateEntry struct {
	EventID          string         `json:"event_id,omitempty"`
	UniqueID         string         `json:"unique_id"`
	FileID           string         `json:"file_id"`
	FileName         string         `json:"file_name"`
	FileSizeBytes    int64          `json:"file_size_bytes"`
	FileType         model.FileKind `json:"file_type"`
	UploaderID       int64          `json:"uploader_id"`
	Username         string         `json:"username"`
	UploadDate       time.Time      `json:"upload_date"`
	ChannelMessageID string         `json:"channel_message_id"`

	ShareLink string `json:"-"`
}

// NewCreateEntry 由记录构造上传镜像条目.
func NewCreateEntry(rec model.FileRecord, shareLink string) CreateEntry {
	return CreateEntry{
		EventID:          newEventID(rec.CreatedAt),
		UniqueID:         rec.ID,
		FileID:           rec.FileHandle,
		FileName:         rec.DisplayName,
		FileSizeBytes:    rec.SizeBytes,
		FileType:         rec.Kind,
		UploaderID:       rec.UploaderID,
		Username:         rec.UploaderHandle,
		UploadDate:       rec.CreatedAt,
		ChannelMessageID: rec.StorageRef,
		ShareLink:        shareLink,
	}
}

// Record 还原为下载计数为 0 的 FileRecord.
func (e CreateEntry) Record() model.FileRecord {
	return model.FileRecord{
		ID:             e.UniqueID,
		FileHandle:     e.FileID,
		DisplayName:    e.FileName,
		SizeBytes:      e.FileSizeBytes,
		Kind:           e.FileType,
		UploaderID:     e.UploaderID,
		UploaderHandle: e.Username,
		CreatedAt:      e.UploadDate,
		StorageRef:     e.ChannelMessageID,
	}
}

// DownloadEntry 下载审计块中的结构化部分.
type DownloadEntry struct {
	EventID             string    `json:"event_id,omitempty"`
	FileID              string    `json:"file_id"`
	FileName            string    `json:"file_name"`
	DownloaderID        int64     `json:"downloader_id"`
	DownloaderUsername  string    `json:"downloader_username"`
	DownloaderFirstName string    `json:"downloader_first_name"`
	DownloaderLastName  string    `json:"downloader_last_name"`
	DownloadCount       int64     `json:"download_count"`
	DownloadTimestamp   time.Time `json:"download_timestamp"`
}

// NewDownloadEntry 由下载事件构造审计条目.
func NewDownloadEntry(ev model.DownloadEvent) DownloadEntry {
	return DownloadEntry{
		EventID:             newEventID(ev.OccurredAt),
		FileID:              ev.FileID,
		FileName:            ev.DisplayName,
		DownloaderID:        ev.Downloader.UserID,
		DownloaderUsername:  ev.Downloader.UserName,
		DownloaderFirstName: ev.Downloader.FirstName,
		DownloaderLastName:  ev.Downloader.LastName,
		DownloadCount:       ev.Count,
		DownloadTimestamp:   ev.OccurredAt,
	}
}

// FormatCreate 渲染上传镜像块：人类可读的摘要 + 完整 JSON.
func FormatCreate(e CreateEntry) (string, error) {
	body, err := sonic.ConfigStd.MarshalIndent(e, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal create entry: %w", err)
	}

	var b strings.Builder

	b.WriteString("📊 *File Upload Log*\n\n")
	fmt.Fprintf(&b, "🆔 *Unique ID:* `%s`\n", e.UniqueID)
	fmt.Fprintf(&b, "📄 *File Name:* `%s`\n", code(e.FileName))
	fmt.Fprintf(&b, "💾 *Size:* %s\n", model.HumanSize(e.FileSizeBytes))
	fmt.Fprintf(&b, "👤 *Uploader ID:* `%d`\n", e.UploaderID)
	fmt.Fprintf(&b, "👤 *Username:* `@%s`\n", code(orNA(e.Username)))
	fmt.Fprintf(&b, "📅 *Date:* %s\n", e.UploadDate.Format(timeLayout))
	fmt.Fprintf(&b, "📍 *Channel Message ID:* `%s`\n", code(e.ChannelMessageID))

	if e.ShareLink != "" {
		fmt.Fprintf(&b, "🔗 *Share Link:* `%s`\n", code(e.ShareLink))
	}

	b.WriteString("\n" + fenceOpen + "\n")
	b.Write(fenceSafe(body))
	b.WriteString("\n" + fenceClose)

	return b.String(), nil
}

// FormatDownload 渲染下载审计块.
func FormatDownload(e DownloadEntry) (string, error) {
	body, err := sonic.ConfigStd.MarshalIndent(e, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal download entry: %w", err)
	}

	var b strings.Builder

	b.WriteString("📥 *Download Activity*\n\n")
	fmt.Fprintf(&b, "🆔 *File ID:* `%s`\n", e.FileID)
	fmt.Fprintf(&b, "📄 *File:* `%s`\n\n", code(e.FileName))
	b.WriteString("👤 *Downloader Info:*\n")
	fmt.Fprintf(&b, "├ *User ID:* `%d`\n", e.DownloaderID)
	fmt.Fprintf(&b, "├ *Username:* `@%s`\n", code(orNA(e.DownloaderUsername)))
	fmt.Fprintf(&b, "├ *Name:* `%s`\n", code(strings.TrimSpace(e.DownloaderFirstName+" "+e.DownloaderLastName)))
	fmt.Fprintf(&b, "└ *Time:* %s\n", e.DownloadTimestamp.Format(timeLayout))
	b.WriteString("\n" + fenceOpen + "\n")
	b.Write(fenceSafe(body))
	b.WriteString("\n" + fenceClose)

	return b.String(), nil
}

// ParseCreate 从一段镜像文本中解析上传条目，忽略块外的说明文字.
func ParseCreate(text string) (CreateEntry, error) {
	for _, raw := range jsonBlocks(text) {
		if e, ok := decodeCreate(raw); ok {
			return e, nil
		}
	}

	return CreateEntry{}, ErrNoBlock
}

// jsonBlocks 按出现顺序返回文本中所有 ```json 围栏内的内容.
func jsonBlocks(text string) []string {
	var blocks []string

	for {
		start := strings.Index(text, fenceOpen)
		if start < 0 {
			return blocks
		}

		text = text[start+len(fenceOpen):]

		end := strings.Index(text, fenceClose)
		if end < 0 {
			return blocks
		}

		blocks = append(blocks, strings.TrimSpace(text[:end]))
		text = text[end+len(fenceClose):]
	}
}

func decodeCreate(raw string) (CreateEntry, bool) {
	var e CreateEntry
	if err := sonic.UnmarshalString(raw, &e); err != nil {
		return CreateEntry{}, false
	}

	if e.UniqueID == "" || e.FileID == "" {
		return CreateEntry{}, false
	}

	return e, true
}

func decodeDownload(raw string) (DownloadEntry, bool) {
	var e DownloadEntry
	if err := sonic.UnmarshalString(raw, &e); err != nil {
		return DownloadEntry{}, false
	}

	if e.FileID == "" || e.DownloaderID == 0 {
		return DownloadEntry{}, false
	}

	return e, true
}

// fenceSafe 把 JSON 中的反引号转义为 \u0060，块内容永远不会提前闭合围栏.
// 反引号只会出现在字符串值中，转义后仍是等价的 JSON.
func fenceSafe(body []byte) []byte {
	return bytes.ReplaceAll(body, []byte("`"), []byte(`\u0060`))
}

// code 使文本可以安全放入 Markdown 行内代码.
func code(s string) string {
	return strings.ReplaceAll(s, "`", "'")
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}

	return s
}
