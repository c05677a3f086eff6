package mq_test

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	nc "github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/filerelay/pkg/configs"
	mq "github.com/yeisme/filerelay/pkg/internal/storage/mq"
	"github.com/yeisme/filerelay/pkg/queue"
)

func memoryConfig() configs.MQConfig {
	return configs.MQConfig{
		Type:   configs.MQTypeMemory,
		Memory: configs.MQMemoryConfig{OutputBuffer: 16},
	}
}

// tailUntil 在后台运行 Tail，收到 n 条消息后停止.
func tailUntil(t *testing.T, client *mq.Client, topics []string, n int) (<-chan []string, func()) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	done := make(chan []string, 1)

	var (
		mu  sync.Mutex
		got []string
	)

	ready := make(chan struct{})

	go func() {
		close(ready)

		err := client.Tail(ctx, topics, func(topic string, msg *message.Message) error {
			mu.Lock()
			defer mu.Unlock()

			got = append(got, topic+":"+string(msg.Payload))
			if len(got) == n {
				cancel()
			}

			return nil
		})
		assert.NoError(t, err)

		mu.Lock()
		done <- got
		mu.Unlock()
	}()

	<-ready

	return done, cancel
}

func TestTail_Memory(t *testing.T) {
	client, err := mq.NewWith(context.Background(), memoryConfig(), configs.MetricsConfig{})
	require.NoError(t, err)
	defer client.Close()

	done, cancel := tailUntil(t, client, []string{queue.TopicFileStored, queue.TopicFileDownloaded}, 3)
	defer cancel()

	// 等待订阅建立，gochannel 非持久模式下订阅前的消息会丢失
	time.Sleep(100 * time.Millisecond)

	publish := func(topic, body string) {
		require.NoError(t, client.Publish(context.Background(), topic, message.NewMessage(body, []byte(body))))
	}

	publish(queue.TopicFileStored, "a")
	publish(queue.TopicStatsReported, "ignored")
	publish(queue.TopicFileDownloaded, "b")
	publish(queue.TopicFileStored, "c")

	select {
	case got := <-done:
		assert.ElementsMatch(t, []string{
			queue.TopicFileStored + ":a",
			queue.TopicFileDownloaded + ":b",
			queue.TopicFileStored + ":c",
		}, got)
	case <-time.After(10 * time.Second):
		t.Fatal("tail did not finish")
	}
}

func TestTail_HandlerErrorStops(t *testing.T) {
	client, err := mq.NewWith(context.Background(), memoryConfig(), configs.MetricsConfig{})
	require.NoError(t, err)
	defer client.Close()

	errc := make(chan error, 1)

	go func() {
		errc <- client.Tail(context.Background(), []string{queue.TopicFileStored}, func(string, *message.Message) error {
			return assert.AnError
		})
	}()

	time.Sleep(100 * time.Millisecond)
	require.NoError(t, client.Publish(context.Background(), queue.TopicFileStored, message.NewMessage("x", []byte("x"))))

	select {
	case err := <-errc:
		assert.ErrorIs(t, err, assert.AnError)
	case <-time.After(5 * time.Second):
		t.Fatal("tail did not stop on handler error")
	}
}

func TestStreamConfig(t *testing.T) {
	cfg := configs.MQConfig{NATS: configs.MQNATSConfig{
		StreamName:        "FILERELAY",
		SubjectPrefix:     "prod.",
		StreamMaxMsgs:     500,
		StreamMaxBytes:    1 << 20,
		StreamMaxAge:      48,
		StreamStorageType: "memory",
		StreamReplicas:    3,
	}}

	sc := mq.StreamConfig(cfg)
	assert.Equal(t, "FILERELAY", sc.Name)
	assert.Contains(t, sc.Subjects, "prod."+queue.TopicFileStored)
	assert.Len(t, sc.Subjects, len(queue.AllTopics()))
	assert.Equal(t, int64(500), sc.MaxMsgs)
	assert.Equal(t, int64(1<<20), sc.MaxBytes)
	assert.Equal(t, 48*time.Hour, sc.MaxAge)
	assert.Equal(t, nc.MemoryStorage, sc.Storage)
	assert.Equal(t, 3, sc.Replicas)

	cfg.NATS.StreamStorageType = "file"
	assert.Equal(t, nc.FileStorage, mq.StreamConfig(cfg).Storage)
}

func TestConnectionName(t *testing.T) {
	assert.Equal(t, "app", configs.MQCommonConfig{ClientID: "app"}.ConnectionName())
	assert.Equal(t, "prod/app", configs.MQCommonConfig{ClusterID: "prod", ClientID: "app"}.ConnectionName())
}

// TestTail_Redis 需要本地 Redis，设置 ENABLE_REDIS_MQ_TEST=1 启用.
func TestTail_Redis(t *testing.T) {
	if os.Getenv("ENABLE_REDIS_MQ_TEST") != "1" {
		t.Skip("set ENABLE_REDIS_MQ_TEST=1 to enable")
	}

	cfg := configs.MQConfig{
		Type: configs.MQTypeRedis,
		Common: configs.MQCommonConfig{
			ClientID:      "filerelay-test",
			ConnPoolSize:  2,
			MaxReconnects: 1,
			ReconnectWait: 1,
		},
		Redis: configs.MQRedisConfig{Addr: "localhost:6379"},
	}

	client, err := mq.NewWith(context.Background(), cfg, configs.MetricsConfig{})
	if err != nil {
		t.Skipf("redis not available: %v", err)
	}
	defer client.Close()

	done, cancel := tailUntil(t, client, []string{queue.TopicFileStored}, 2)
	defer cancel()

	time.Sleep(200 * time.Millisecond)

	for _, body := range []string{"a", "b"} {
		msg := message.NewMessage(body, []byte(body))
		msg.Metadata.Set("producer", "test")
		require.NoError(t, client.Publish(context.Background(), queue.TopicFileStored, msg))
	}

	select {
	case got := <-done:
		assert.Equal(t, []string{queue.TopicFileStored + ":a", queue.TopicFileStored + ":b"}, got)
	case <-time.After(10 * time.Second):
		t.Fatal("tail did not finish")
	}
}
