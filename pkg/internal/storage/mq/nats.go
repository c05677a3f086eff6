package mq

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	nc "github.com/nats-io/nats.go"

	"github.com/yeisme/filerelay/pkg/configs"
	"github.com/yeisme/filerelay/pkg/queue"
)

const (
	DefaultDrainTimeout   = 30 * time.Second
	DefaultFlusherTimeout = 10 * time.Second
)

func init() {
	RegisterFactory(configs.MQTypeNATS, natsFactory)
}

// buildNatsOptions 构建 NATS 连接选项.
func buildNatsOptions(cfg *configs.MQConfig) []nc.Option {
	common := cfg.Common

	opts := []nc.Option{
		nc.Name(common.ConnectionName()),
		nc.MaxReconnects(common.MaxReconnects),
		nc.ReconnectWait(time.Duration(common.ReconnectWait) * time.Second),
		nc.ReconnectJitter(common.ReconnectJitter, common.ReconnectJitterTLS),
		nc.PingInterval(time.Duration(common.PingInterval) * time.Second),
		nc.MaxPingsOutstanding(common.MaxPingsOut),
		nc.ReconnectBufSize(common.BufferSize),
		nc.DrainTimeout(DefaultDrainTimeout),
		nc.FlusherTimeout(DefaultFlusherTimeout),
		nc.RetryOnFailedConnect(!common.StrictConnect),
	}

	if !cfg.NATS.LoadBalance {
		opts = append(opts, nc.DontRandomize())
	}

	return appendAuthOptions(opts, cfg)
}

// appendAuthOptions 添加认证选项，优先级 JWT > NKey > 用户名密码.
func appendAuthOptions(opts []nc.Option, cfg *configs.MQConfig) []nc.Option {
	switch {
	case cfg.NATS.JWT != "":
		opts = append(opts, nc.UserJWTAndSeed(cfg.NATS.JWT, cfg.NATS.NKey))
	case cfg.NATS.NKey != "":
		opts = append(opts, nc.Nkey(cfg.NATS.NKey, nil))
	case cfg.Common.User != "":
		opts = append(opts, nc.UserInfo(cfg.Common.User, cfg.Common.Password))
	}

	return opts
}

// buildJetStreamConfig 构建 JetStream 配置，未启用时使用 core NATS.
// 流由 ensureStream 统一创建，这里关闭 watermill 按主题自动建流.
func buildJetStreamConfig(cfg *configs.MQConfig, logger watermill.LoggerAdapter) nats.JetStreamConfig {
	n := cfg.NATS

	jsCfg := nats.JetStreamConfig{Disabled: !n.JetStreamEnabled}
	if !n.JetStreamEnabled {
		return jsCfg
	}

	jsCfg.AutoProvision = false
	jsCfg.TrackMsgId = n.JetStreamTrackMsgID
	jsCfg.AckAsync = n.JetStreamAckAsync
	jsCfg.DurablePrefix = n.JetStreamDurablePrefix
	jsCfg.SubscribeOptions = subscribeOptions(n)

	logger.Info("JetStream enabled", watermill.LogFields{
		"stream":         n.StreamName,
		"track_msg_id":   n.JetStreamTrackMsgID,
		"ack_async":      n.JetStreamAckAsync,
		"durable_prefix": n.JetStreamDurablePrefix,
		"max_deliver":    n.ConsumerMaxDeliver,
	})

	return jsCfg
}

// subscribeOptions 每个 JetStream 订阅的消费者参数.
func subscribeOptions(n configs.MQNATSConfig) []nc.SubOpt {
	var opts []nc.SubOpt

	if n.ConsumerMaxDeliver > 0 {
		opts = append(opts, nc.MaxDeliver(n.ConsumerMaxDeliver))
	}

	if n.ConsumerMaxAckPending > 0 {
		opts = append(opts, nc.MaxAckPending(n.ConsumerMaxAckPending))
	}

	return opts
}

// StreamConfig 由配置构造事件流定义，流覆盖全部事件主题（含主题前缀）.
func StreamConfig(cfg configs.MQConfig) *nc.StreamConfig {
	n := cfg.NATS

	storage := nc.FileStorage
	if n.StreamStorageType == "memory" {
		storage = nc.MemoryStorage
	}

	topics := queue.AllTopics()
	subjects := make([]string, 0, len(topics))

	for _, t := range topics {
		subjects = append(subjects, n.SubjectPrefix+t)
	}

	return &nc.StreamConfig{
		Name:     n.StreamName,
		Subjects: subjects,
		MaxMsgs:  n.StreamMaxMsgs,
		MaxBytes: n.StreamMaxBytes,
		MaxAge:   time.Duration(n.StreamMaxAge) * time.Hour,
		Storage:  storage,
		Replicas: n.StreamReplicas,
	}
}

// ensureStream 创建或更新事件流，使保留策略与配置一致.
func ensureStream(cfg *configs.MQConfig, opts []nc.Option) error {
	conn, err := nc.Connect(buildURL(cfg), opts...)
	if err != nil {
		return fmt.Errorf("connect nats: %w", err)
	}
	defer conn.Close()

	js, err := conn.JetStream()
	if err != nil {
		return fmt.Errorf("jetstream context: %w", err)
	}

	sc := StreamConfig(*cfg)

	_, err = js.StreamInfo(sc.Name)

	switch {
	case errors.Is(err, nc.ErrStreamNotFound):
		_, err = js.AddStream(sc)
	case err == nil:
		_, err = js.UpdateStream(sc)
	}

	if err != nil {
		return fmt.Errorf("provision stream %s: %w", sc.Name, err)
	}

	return nil
}

// buildURL 构建连接 URL，配置了集群地址时优先使用.
func buildURL(cfg *configs.MQConfig) string {
	if len(cfg.NATS.ClusterURLs) > 0 {
		return strings.Join(cfg.NATS.ClusterURLs, ",")
	}

	return cfg.Common.URL
}

// subjectCalculator 为主题加上可选前缀.
func subjectCalculator(prefix string) nats.SubjectCalculator {
	return func(queueGroupPrefix, topic string) *nats.SubjectDetail {
		detail := nats.DefaultSubjectCalculator(queueGroupPrefix, topic)
		detail.Primary = prefix + detail.Primary

		return detail
	}
}

// natsFactory 创建 NATS Publisher & Subscriber.
func natsFactory(
	_ context.Context,
	cfg *configs.MQConfig,
	logger watermill.LoggerAdapter) (
	message.Publisher, message.Subscriber, error) {
	opts := buildNatsOptions(cfg)
	jsCfg := buildJetStreamConfig(cfg, logger)

	if cfg.NATS.JetStreamEnabled && cfg.NATS.JetStreamAutoProvision {
		if err := ensureStream(cfg, opts); err != nil {
			return nil, nil, err
		}
	}
	marshaler := &nats.NATSMarshaler{}
	calc := subjectCalculator(cfg.NATS.SubjectPrefix)

	pub, err := nats.NewPublisher(nats.PublisherConfig{
		URL:               buildURL(cfg),
		NatsOptions:       opts,
		JetStream:         jsCfg,
		Marshaler:         marshaler,
		SubjectCalculator: calc,
	}, logger)
	if err != nil {
		return nil, nil, err
	}

	sub, err := nats.NewSubscriber(nats.SubscriberConfig{
		URL:               buildURL(cfg),
		NatsOptions:       opts,
		JetStream:         jsCfg,
		Unmarshaler:       marshaler,
		SubjectCalculator: calc,
		AckWaitTimeout:    time.Duration(cfg.NATS.ConsumerAckWait) * time.Second,
	}, logger)
	if err != nil {
		_ = pub.Close()

		return nil, nil, err
	}

	return pub, sub, nil
}
