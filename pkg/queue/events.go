package queue

import "github.com/ThreeDotsLabs/watermill/message"

// PublishFileStored 发布 fr.file.stored 事件.
func PublishFileStored(pub message.Publisher, payload FileStoredPayload, opts ...func(*EventHeader)) error {
	return publish(pub, TopicFileStored, payload, opts...)
}

// ParseFileStored 将消息解析为 fr.file.stored 信封.
func ParseFileStored(msg *message.Message) (Message[FileStoredPayload], error) {
	return ParseWatermillMessage[FileStoredPayload](msg)
}

// PublishFileDownloaded 发布 fr.file.downloaded 事件.
func PublishFileDownloaded(pub message.Publisher, payload FileDownloadedPayload, opts ...func(*EventHeader)) error {
	return publish(pub, TopicFileDownloaded, payload, opts...)
}

// ParseFileDownloaded 将消息解析为 fr.file.downloaded 信封.
func ParseFileDownloaded(msg *message.Message) (Message[FileDownloadedPayload], error) {
	return ParseWatermillMessage[FileDownloadedPayload](msg)
}

// PublishStatsReported 发布 fr.stats.reported 事件.
func PublishStatsReported(pub message.Publisher, payload StatsReportedPayload, opts ...func(*EventHeader)) error {
	return publish(pub, TopicStatsReported, payload, opts...)
}

// ParseStatsReported 将消息解析为 fr.stats.reported 信封.
func ParseStatsReported(msg *message.Message) (Message[StatsReportedPayload], error) {
	return ParseWatermillMessage[StatsReportedPayload](msg)
}

func publish[T any](pub message.Publisher, topic string, payload T, opts ...func(*EventHeader)) error {
	msg, err := NewWatermillMessage(topic, payload, opts...)
	if err != nil {
		return err
	}

	return pub.Publish(topic, msg)
}
