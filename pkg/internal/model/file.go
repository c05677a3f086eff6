// Package model 定义文件中转服务的核心数据模型.
package model

import (
	"fmt"
	"strings"
	"time"
)

// FileKind 文件类别，对应 Telegram 中可转发的媒体类型.
type FileKind string

const (
	KindDocument FileKind = "document"
	KindPhoto    FileKind = "photo"
	KindVideo    FileKind = "video"
	KindAudio    FileKind = "audio"
	KindVoice    FileKind = "voice"
)

// Kinds 返回全部受支持的文件类别.
func Kinds() []FileKind {
	return []FileKind{KindDocument, KindPhoto, KindVideo, KindAudio, KindVoice}
}

// Valid 判断类别是否受支持.
func (k FileKind) Valid() bool {
	switch k {
	case KindDocument, KindPhoto, KindVideo, KindAudio, KindVoice:
		return true
	default:
		return false
	}
}

// Emoji 返回类别对应的展示图标，未知类别按文档处理.
func (k FileKind) Emoji() string {
	switch k {
	case KindPhoto:
		return "🖼️"
	case KindVideo:
		return "🎥"
	case KindAudio:
		return "🎵"
	case KindVoice:
		return "🎤"
	default:
		return "📄"
	}
}

// Title 返回首字母大写的类别名.
func (k FileKind) Title() string {
	s := string(k)
	if s == "" {
		s = string(KindDocument)
	}

	return strings.ToUpper(s[:1]) + s[1:]
}

// FileRecord 一条文件索引记录. 除 DownloadCount 外创建后不可变.
type FileRecord struct {
	ID             string    `json:"id"              rule:"required,len=8,hexadecimal,lowercase"`
	FileHandle     string    `json:"file_handle"     rule:"required"`
	DisplayName    string    `json:"display_name"    rule:"required,max=1024"`
	SizeBytes      int64     `json:"size_bytes"      rule:"min=0"`
	Kind           FileKind  `json:"kind"            rule:"required,oneof=document photo video audio voice"`
	UploaderID     int64     `json:"uploader_id"     rule:"required"`
	UploaderHandle string    `json:"uploader_handle"`
	CreatedAt      time.Time `json:"created_at"      rule:"required"`
	StorageRef     string    `json:"storage_ref"     rule:"required"`
	DownloadCount  int64     `json:"download_count"  rule:"min=0"`
}

// HumanSize 格式化文件大小：不小于 1MB 时以 MB 显示，否则以 KB 显示.
func HumanSize(size int64) string {
	const mb = 1024 * 1024

	if size >= mb {
		return fmt.Sprintf("%.2f MB", float64(size)/mb)
	}

	return fmt.Sprintf("%.2f KB", float64(size)/1024)
}

// HumanSize 返回记录的可读大小.
func (r FileRecord) HumanSize() string {
	return HumanSize(r.SizeBytes)
}

// UploaderLabel 返回上传者的展示名，无用户名时为 N/A.
func (r FileRecord) UploaderLabel() string {
	if r.UploaderHandle == "" {
		return "N/A"
	}

	return r.UploaderHandle
}
