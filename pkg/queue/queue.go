// Package queue 定义 filerelay 对外发布的事件信封、主题与负载.
//
// 概览
//   - 统一的消息封装：Message[Payload] = Header + Payload
//   - 主题常量见 topics.go，负载结构体见 payloads.go
//   - JSON 编解码使用 bytedance/sonic
//
// 事件只是日志镜像的次级副本与运营通知，消费者不应依赖其送达.
//
// 消息信封 JSON 结构
//
//	{
//	  "header": {
//	    "topic": "fr.file.stored",
//	    "event_id": "01J9Z...",
//	    "trace_id": "optional-trace-id",
//	    "producer": "filerelay",
//	    "occurred_at": "2025-01-02T03:04:05.123456Z",
//	    "version": "v1"
//	  },
//	  "payload": { ... 取决于具体主题 ... }
//	}
//
// 发布与订阅
//
//	msg, _ := queue.NewWatermillMessage(queue.TopicFileStored, payload, queue.WithProducer("filerelay"))
//	_ = client.Publish(ctx, queue.TopicFileStored, msg)
//
//	ch, _ := client.Subscribe(ctx, queue.TopicFileStored)
//	for m := range ch {
//		env, _ := queue.ParseFileStored(m)
//		m.Ack()
//	}
package queue

import (
	"fmt"
	"time"

	watermill "github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/bytedance/sonic"
)

const (
	PayloadVersionV1 string = "v1"

	// DefaultProducer 默认生产者标识.
	DefaultProducer = "filerelay"
)

// NewEventHeader 便捷创建事件头.
func NewEventHeader(topic string, opts ...func(*EventHeader)) EventHeader {
	hdr := EventHeader{
		Topic:      topic,
		Producer:   DefaultProducer,
		OccurredAt: time.Now().UTC(),
		Version:    PayloadVersionV1,
	}
	for _, opt := range opts {
		opt(&hdr)
	}

	return hdr
}

// WithTraceID 设置 TraceID.
func WithTraceID(id string) func(*EventHeader) { return func(h *EventHeader) { h.TraceID = id } }

// WithProducer 设置 Producer.
func WithProducer(p string) func(*EventHeader) { return func(h *EventHeader) { h.Producer = p } }

// WithEventID 设置事件 ID，同时用作 watermill 消息 UUID，便于与日志镜像条目对应.
func WithEventID(id string) func(*EventHeader) { return func(h *EventHeader) { h.EventID = id } }

// WithOccurredAt 设置事件时间.
func WithOccurredAt(t time.Time) func(*EventHeader) {
	return func(h *EventHeader) { h.OccurredAt = t.UTC() }
}

// Encode 将消息封装为 JSON 字节切片.
func Encode[T any](msg Message[T]) ([]byte, error) { return sonic.Marshal(msg) }

// Decode 从 JSON 字节解码为消息.
func Decode[T any](b []byte) (Message[T], error) {
	var m Message[T]

	if err := sonic.Unmarshal(b, &m); err != nil {
		return m, fmt.Errorf("decode envelope: %w", err)
	}

	return m, nil
}

// NewWatermillMessage 构造一个 watermill 消息，设置 ID 与元数据.
func NewWatermillMessage[T any](topic string, payload T, opts ...func(*EventHeader)) (*message.Message, error) {
	header := NewEventHeader(topic, opts...)
	env := Message[T]{Header: header, Payload: payload}

	data, err := Encode(env)
	if err != nil {
		return nil, err
	}

	id := header.EventID
	if id == "" {
		id = watermill.NewUUID()
	}

	msg := message.NewMessage(id, data)
	msg.Metadata.Set("topic", topic)

	if header.TraceID != "" {
		msg.Metadata.Set("trace_id", header.TraceID)
	}

	if header.Producer != "" {
		msg.Metadata.Set("producer", header.Producer)
	}

	msg.Metadata.Set("occurred_at", header.OccurredAt.Format(time.RFC3339Nano))
	msg.Metadata.Set("version", header.Version)

	return msg, nil
}

// ParseWatermillMessage 解出泛型负载.
func ParseWatermillMessage[T any](msg *message.Message) (Message[T], error) {
	return Decode[T](msg.Payload)
}
