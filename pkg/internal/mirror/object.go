package mirror

import (
	"context"
	"path"
	"time"
)

// ObjectStore 对象存储的最小写接口，*s3.Client 满足该接口.
type ObjectStore interface {
	PutText(ctx context.Context, key, text string) error
}

// ObjectSink 把每个镜像块写成一个对象：<prefix><id>/<event_id>.<op>.md.
// event_id 按时间有序，同一文件的对象按键名排序即为发生顺序.
type ObjectSink struct {
	store  ObjectStore
	prefix string
}

// NewObjectSink 创建对象存储镜像.
func NewObjectSink(store ObjectStore, prefix string) *ObjectSink {
	return &ObjectSink{store: store, prefix: prefix}
}

// Name 实现 Sink.
func (s *ObjectSink) Name() string { return "object" }

// WriteCreate 实现 Sink.
func (s *ObjectSink) WriteCreate(ctx context.Context, e CreateEntry) error {
	text, err := FormatCreate(e)
	if err != nil {
		return err
	}

	return s.store.PutText(ctx, s.key(e.UniqueID, e.EventID, "create"), text)
}

// WriteDownload 实现 Sink.
func (s *ObjectSink) WriteDownload(ctx context.Context, e DownloadEntry) error {
	text, err := FormatDownload(e)
	if err != nil {
		return err
	}

	return s.store.PutText(ctx, s.key(e.FileID, e.EventID, "download"), text)
}

func (s *ObjectSink) key(id, eventID, op string) string {
	if eventID == "" {
		eventID = newEventID(time.Time{})
	}

	return s.prefix + path.Join(id, eventID+"."+op+".md")
}
