package model

import (
	"strings"
	"time"
)

// Identity 触发下载的用户身份.
type Identity struct {
	UserID    int64  `json:"user_id"`
	UserName  string `json:"username,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

// FullName 拼接名与姓.
func (i Identity) FullName() string {
	return strings.TrimSpace(i.FirstName + " " + i.LastName)
}

// DownloadEvent 一次成功投递后的下载审计事件.
type DownloadEvent struct {
	FileID      string    `json:"file_id"`
	DisplayName string    `json:"file_name"`
	Downloader  Identity  `json:"downloader"`
	Count       int64     `json:"download_count"`
	OccurredAt  time.Time `json:"download_timestamp"`
}
