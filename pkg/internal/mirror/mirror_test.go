package mirror_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/filerelay/pkg/configs"
	"github.com/yeisme/filerelay/pkg/internal/mirror"
	"github.com/yeisme/filerelay/pkg/internal/model"
	"github.com/yeisme/filerelay/pkg/queue"
)

// fakeSink 记录写入并可注入错误.
type fakeSink struct {
	name string
	err  error

	mu        sync.Mutex
	creates   []mirror.CreateEntry
	downloads []mirror.DownloadEntry
}

func (f *fakeSink) Name() string { return f.name }

func (f *fakeSink) WriteCreate(_ context.Context, e mirror.CreateEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return f.err
	}

	f.creates = append(f.creates, e)

	return nil
}

func (f *fakeSink) WriteDownload(_ context.Context, e mirror.DownloadEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return f.err
	}

	f.downloads = append(f.downloads, e)

	return nil
}

type nopCloser struct{ *bytes.Buffer }

func (nopCloser) Close() error { return nil }

func sampleRecord(id string) model.FileRecord {
	return model.FileRecord{
		ID:             id,
		FileHandle:     "BQACAgUAAxkBAAIB_" + id,
		DisplayName:    "report_" + id + ".pdf",
		SizeBytes:      5 * 1024 * 1024,
		Kind:           model.KindDocument,
		UploaderID:     1001,
		UploaderHandle: "alice",
		CreatedAt:      time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC),
		StorageRef:     "42",
	}
}

// TestMirrorCreate_PrimaryFailure 测试主镜像失败时返回 ErrMirrorUnavailable 且不写次级镜像.
func TestMirrorCreate_PrimaryFailure(t *testing.T) {
	primary := &fakeSink{name: "telegram", err: errors.New("chat not found")}
	secondary := &fakeSink{name: "journal"}

	var failures []string

	m := mirror.New(primary,
		mirror.WithSecondary(secondary),
		mirror.WithFailureHook(func(sink, op string) { failures = append(failures, sink+"/"+op) }),
	)

	err := m.MirrorCreate(context.Background(), sampleRecord("0a1b2c3d"), "")
	require.Error(t, err)
	assert.ErrorIs(t, err, mirror.ErrMirrorUnavailable)
	assert.Empty(t, secondary.creates)
	assert.Equal(t, []string{"telegram/create"}, failures)
}

// TestMirrorCreate_SecondaryBestEffort 测试次级镜像失败不影响结果.
func TestMirrorCreate_SecondaryBestEffort(t *testing.T) {
	primary := &fakeSink{name: "telegram"}
	broken := &fakeSink{name: "queue", err: errors.New("broker down")}
	journal := &fakeSink{name: "journal"}

	var failures []string

	m := mirror.New(primary,
		mirror.WithSecondary(broken, journal, nil),
		mirror.WithFailureHook(func(sink, op string) { failures = append(failures, sink+"/"+op) }),
	)

	require.NoError(t, m.MirrorCreate(context.Background(), sampleRecord("0a1b2c3d"), "https://t.me/bot?start=file_0a1b2c3d"))
	require.Len(t, primary.creates, 1)
	require.Len(t, journal.creates, 1)
	assert.Equal(t, "0a1b2c3d", primary.creates[0].UniqueID)
	assert.NotEmpty(t, primary.creates[0].EventID)
	assert.Equal(t, []string{"queue/create"}, failures)
	assert.Equal(t, []string{"telegram", "queue", "journal"}, m.Sinks())
}

// TestMirrorDownload_NeverFails 测试下载审计对所有镜像尽力写入.
func TestMirrorDownload_NeverFails(t *testing.T) {
	primary := &fakeSink{name: "telegram", err: errors.New("flood wait")}
	journal := &fakeSink{name: "journal"}

	m := mirror.New(primary, mirror.WithSecondary(journal))

	m.MirrorDownload(context.Background(), model.DownloadEvent{
		FileID:      "0a1b2c3d",
		DisplayName: "report.pdf",
		Downloader:  model.Identity{UserID: 2002, UserName: "bob"},
		Count:       3,
		OccurredAt:  time.Now(),
	})

	require.Len(t, journal.downloads, 1)
	assert.Equal(t, int64(3), journal.downloads[0].DownloadCount)
}

// TestFormatCreate_ParseCreate 测试镜像块可从说明文字中独立解析.
func TestFormatCreate_ParseCreate(t *testing.T) {
	rec := sampleRecord("deadbeef")

	text, err := mirror.FormatCreate(mirror.NewCreateEntry(rec, "https://t.me/bot?start=file_deadbeef"))
	require.NoError(t, err)

	assert.Contains(t, text, "`deadbeef`")
	assert.Contains(t, text, "5.00 MB")
	assert.Contains(t, text, "```json")

	entry, err := mirror.ParseCreate("forwarded from logs\n\n" + text + "\n\nmore chatter")
	require.NoError(t, err)
	assert.Equal(t, rec, entry.Record())

	_, err = mirror.ParseCreate("no block here")
	assert.ErrorIs(t, err, mirror.ErrNoBlock)
}

// TestFormatCreate_BacktickName 测试文件名含反引号时镜像块仍可解析与恢复.
func TestFormatCreate_BacktickName(t *testing.T) {
	ctx := context.Background()
	buf := &bytes.Buffer{}
	m := mirror.New(mirror.NewJournalSinkWriter(nopCloser{buf}))

	rec := sampleRecord("0000abcd")
	rec.DisplayName = "notes```v2```json`.md"
	require.NoError(t, m.MirrorCreate(ctx, rec, ""))

	text := buf.String()
	assert.Equal(t, 2, strings.Count(text, "```"))

	entry, err := mirror.ParseCreate(text)
	require.NoError(t, err)
	assert.Equal(t, rec, entry.Record())

	m.MirrorDownload(ctx, model.DownloadEvent{
		FileID:      rec.ID,
		DisplayName: rec.DisplayName,
		Downloader:  model.Identity{UserID: 7, FirstName: "`x`"},
		Count:       1,
		OccurredAt:  time.Now(),
	})

	got, err := mirror.Scan(bytes.NewReader(buf.Bytes()), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.DisplayName, got.DisplayName)
	assert.Equal(t, int64(1), got.DownloadCount)
}

// TestJournal_Scan 测试从本地日志镜像恢复记录与下载次数.
func TestJournal_Scan(t *testing.T) {
	ctx := context.Background()
	buf := &bytes.Buffer{}
	journal := mirror.NewJournalSinkWriter(nopCloser{buf})
	m := mirror.New(journal)

	for _, id := range []string{"00000001", "00000002", "00000003"} {
		require.NoError(t, m.MirrorCreate(ctx, sampleRecord(id), ""))
	}

	for i := int64(1); i <= 4; i++ {
		m.MirrorDownload(ctx, model.DownloadEvent{
			FileID:     "00000002",
			Downloader: model.Identity{UserID: 7},
			Count:      i,
			OccurredAt: time.Now(),
		})
	}

	rec, err := mirror.Scan(bytes.NewReader(buf.Bytes()), "00000002")
	require.NoError(t, err)
	assert.Equal(t, "00000002", rec.ID)
	assert.Equal(t, int64(4), rec.DownloadCount)

	_, err = mirror.Scan(bytes.NewReader(buf.Bytes()), "ffffffff")
	assert.ErrorIs(t, err, mirror.ErrNotInMirror)

	all, err := mirror.ScanAll(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"00000001", "00000002", "00000003"}, []string{all[0].ID, all[1].ID, all[2].ID})
	assert.Equal(t, int64(0), all[0].DownloadCount)
}

// TestScanAll_DesktopExport 测试解析 Telegram Desktop 导出的频道历史.
func TestScanAll_DesktopExport(t *testing.T) {
	block := `{"unique_id":"abcdef12","file_id":"AgAD","file_name":"photo_x.jpg","file_size_bytes":2048,` +
		`"file_type":"photo","uploader_id":5,"username":"","upload_date":"2025-01-01T00:00:00Z","channel_message_id":"9"}`
	download := `{"file_id":"abcdef12","file_name":"photo_x.jpg","downloader_id":6,"download_count":2,` +
		`"download_timestamp":"2025-01-02T00:00:00Z"}`

	export := fmt.Sprintf(`{
  "name": "filerelay logs",
  "type": "private_channel",
  "messages": [
    {"id": 1, "type": "service", "text": ""},
    {"id": 2, "type": "message", "text": [{"type": "bold", "text": "File Upload Log"}, "\n\n", {"type": "pre", "language": "json", "text": %q}]},
    {"id": 3, "type": "message", "text": [{"type": "bold", "text": "Download Activity"}, "\n", {"type": "pre", "text": %q}]}
  ]
}`, block, download)

	recs, err := mirror.ScanAll(strings.NewReader(export))
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "abcdef12", recs[0].ID)
	assert.Equal(t, model.KindPhoto, recs[0].Kind)
	assert.Equal(t, int64(2), recs[0].DownloadCount)
}

// TestQueueSink 测试事件镜像发布的信封内容与开关.
func TestQueueSink(t *testing.T) {
	ps := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 8}, watermill.NopLogger{})
	defer ps.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ch, err := ps.Subscribe(ctx, queue.TopicFileStored)
	require.NoError(t, err)

	events := configs.EventsConfig{Enabled: true, File: configs.FileEventsConfig{Stored: true}}
	sink := mirror.NewQueueSink(ps, events)

	entry := mirror.NewCreateEntry(sampleRecord("0badf00d"), "https://t.me/bot?start=file_0badf00d")
	require.NoError(t, sink.WriteCreate(ctx, entry))

	select {
	case msg := <-ch:
		env, err := queue.ParseFileStored(msg)
		require.NoError(t, err)
		msg.Ack()

		assert.Equal(t, entry.EventID, msg.UUID)
		assert.Equal(t, queue.TopicFileStored, env.Header.Topic)
		assert.Equal(t, "0badf00d", env.Payload.Record.ID)
		assert.Equal(t, entry.ShareLink, env.Payload.ShareLink)
	case <-ctx.Done():
		t.Fatal("file stored event not received")
	}

	// 下载事件关闭时不发布
	require.NoError(t, sink.WriteDownload(ctx, mirror.NewDownloadEntry(model.DownloadEvent{FileID: "0badf00d", Count: 1})))
}
