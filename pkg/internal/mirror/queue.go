package mirror

import (
	"context"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.opentelemetry.io/otel/trace"

	"github.com/yeisme/filerelay/pkg/configs"
	"github.com/yeisme/filerelay/pkg/internal/model"
	"github.com/yeisme/filerelay/pkg/queue"
)

// QueueSink 把镜像条目作为事件发布到消息队列，按 events 配置开关.
type QueueSink struct {
	pub    message.Publisher
	events configs.EventsConfig
}

// NewQueueSink 创建事件镜像.
func NewQueueSink(pub message.Publisher, events configs.EventsConfig) *QueueSink {
	return &QueueSink{pub: pub, events: events}
}

// Name 实现 Sink.
func (s *QueueSink) Name() string { return "queue" }

// WriteCreate 实现 Sink.
func (s *QueueSink) WriteCreate(ctx context.Context, e CreateEntry) error {
	if !s.events.Enabled || !s.events.File.Stored {
		return nil
	}

	return queue.PublishFileStored(s.pub, queue.FileStoredPayload{
		Record:    e.Record(),
		ShareLink: e.ShareLink,
	}, headerOpts(ctx, e.EventID, e.UploadDate)...)
}

// WriteDownload 实现 Sink.
func (s *QueueSink) WriteDownload(ctx context.Context, e DownloadEntry) error {
	if !s.events.Enabled || !s.events.File.Downloaded {
		return nil
	}

	return queue.PublishFileDownloaded(s.pub, queue.FileDownloadedPayload{
		FileID:      e.FileID,
		DisplayName: e.FileName,
		Downloader: model.Identity{
			UserID:    e.DownloaderID,
			UserName:  e.DownloaderUsername,
			FirstName: e.DownloaderFirstName,
			LastName:  e.DownloaderLastName,
		},
		DownloadCount: e.DownloadCount,
	}, headerOpts(ctx, e.EventID, e.DownloadTimestamp)...)
}

func headerOpts(ctx context.Context, eventID string, at time.Time) []func(*queue.EventHeader) {
	opts := []func(*queue.EventHeader){queue.WithEventID(eventID)}

	if !at.IsZero() {
		opts = append(opts, queue.WithOccurredAt(at))
	}

	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		opts = append(opts, queue.WithTraceID(sc.TraceID().String()))
	}

	return opts
}
