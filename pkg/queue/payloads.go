package queue

import (
	"time"

	"github.com/yeisme/filerelay/pkg/internal/model"
)

// EventHeader 定义所有事件的通用头部元数据.
type EventHeader struct {
	// Topic 冗余记录消息主题，便于离线处理或转储后定位来源主题.
	Topic string `json:"topic"`
	// EventID 与日志镜像条目共享的事件 ID.
	EventID string `json:"event_id,omitempty"`
	// TraceID 分布式追踪 ID.
	TraceID string `json:"trace_id,omitempty"`
	// Producer 生产者服务名或节点标识.
	Producer string `json:"producer,omitempty"`
	// OccurredAt 事件发生时间（UTC，RFC3339）.
	OccurredAt time.Time `json:"occurred_at"`
	// Version 事件负载版本.
	Version string `json:"version,omitempty"`
}

// Message 是统一的消息封装，Header + Payload.
type Message[T any] struct {
	Header  EventHeader `json:"header"`
	Payload T           `json:"payload"`
}

// FileStoredPayload fr.file.stored 负载.
type FileStoredPayload struct {
	Record    model.FileRecord `json:"record"`
	ShareLink string           `json:"share_link,omitempty"`
}

// FileDownloadedPayload fr.file.downloaded 负载.
type FileDownloadedPayload struct {
	FileID        string         `json:"file_id"`
	DisplayName   string         `json:"display_name"`
	Downloader    model.Identity `json:"downloader"`
	DownloadCount int64          `json:"download_count"`
}

// StatsReportedPayload fr.stats.reported 负载.
type StatsReportedPayload struct {
	TotalFiles        int     `json:"total_files"`
	TotalDownloads    int64   `json:"total_downloads"`
	DistinctUploaders int     `json:"distinct_uploaders"`
	AvgDownloads      float64 `json:"avg_downloads"`
}
