package cmd

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/filerelay/pkg/configs"
	"github.com/yeisme/filerelay/pkg/internal/mirror"
	"github.com/yeisme/filerelay/pkg/internal/model"
	mq "github.com/yeisme/filerelay/pkg/internal/storage/mq"
	"github.com/yeisme/filerelay/pkg/queue"
)

const testConfig = `bot:
  token: "123:abc"
  files_channel_id: -100
  logs_channel_id: -200
metrics:
  enabled: false
mirror:
  object:
    prefix: relay/
mq:
  type: memory
  memory:
    persistent: true
`

func configDir(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(testConfig), 0o600))

	return dir
}

// execute 以给定参数与标准输入运行根命令.
func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer

	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)

	err := rootCmd.ExecuteContext(context.Background())

	return stdout.String(), stderr.String(), err
}

func journalText(t *testing.T) string {
	t.Helper()

	var b strings.Builder

	for i, id := range []string{"0000aaaa", "0000bbbb"} {
		text, err := mirror.FormatCreate(mirror.NewCreateEntry(model.FileRecord{
			ID:          id,
			FileHandle:  "BQAC_" + id,
			DisplayName: id + ".zip",
			SizeBytes:   2048,
			Kind:        model.KindDocument,
			UploaderID:  42,
			CreatedAt:   time.Date(2025, 1, 1, 0, i, 0, 0, time.UTC),
			StorageRef:  "100",
		}, ""))
		require.NoError(t, err)

		b.WriteString(text + "\n\n---\n\n")
	}

	for n := int64(1); n <= 2; n++ {
		text, err := mirror.FormatDownload(mirror.NewDownloadEntry(model.DownloadEvent{
			FileID:     "0000bbbb",
			Downloader: model.Identity{UserID: 7},
			Count:      n,
			OccurredAt: time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC),
		}))
		require.NoError(t, err)

		b.WriteString(text + "\n\n---\n\n")
	}

	return b.String()
}

// fakeObjects 记录读取的前缀并返回固定内容.
type fakeObjects struct {
	body     string
	prefixes []string
}

func (f *fakeObjects) Concat(_ context.Context, prefix string) (io.Reader, error) {
	f.prefixes = append(f.prefixes, prefix)

	return strings.NewReader(f.body), nil
}

func TestRecover_Stdin(t *testing.T) {
	dir := configDir(t)
	journal := journalText(t)

	stdout, stderr, err := execute(t, journal, "recover", "-c", dir, "-i", "-", "--id=", "--from-object=false")
	require.NoError(t, err)
	assert.Contains(t, stderr, "recovered 2 records")

	var recs []model.FileRecord
	require.NoError(t, sonic.UnmarshalString(stdout, &recs))
	require.Len(t, recs, 2)
	assert.Equal(t, "0000aaaa", recs[0].ID)
	assert.Equal(t, int64(2), recs[1].DownloadCount)

	stdout, _, err = execute(t, journal, "recover", "-c", dir, "-i", "-", "--id", "0000bbbb", "--from-object=false")
	require.NoError(t, err)

	var rec model.FileRecord
	require.NoError(t, sonic.UnmarshalString(stdout, &rec))
	assert.Equal(t, "0000bbbb.zip", rec.DisplayName)
	assert.Equal(t, int64(2), rec.DownloadCount)

	_, _, err = execute(t, journal, "recover", "-c", dir, "-i", "-", "--id", "ffffffff", "--from-object=false")
	assert.ErrorIs(t, err, mirror.ErrNotInMirror)
}

func TestRecover_FromObject(t *testing.T) {
	dir := configDir(t)
	objects := &fakeObjects{body: journalText(t)}

	orig := openObjectSource
	openObjectSource = func(context.Context, configs.ObjectMirrorConfig) (objectSource, error) {
		return objects, nil
	}

	t.Cleanup(func() { openObjectSource = orig })

	stdout, _, err := execute(t, "", "recover", "-c", dir, "--from-object", "--id", "0000aaaa")
	require.NoError(t, err)

	var rec model.FileRecord
	require.NoError(t, sonic.UnmarshalString(stdout, &rec))
	assert.Equal(t, "0000aaaa", rec.ID)

	_, _, err = execute(t, "", "recover", "-c", dir, "--from-object", "--id=")
	require.NoError(t, err)

	assert.Equal(t, []string{"relay/0000aaaa/", "relay/"}, objects.prefixes)
}

func TestMQTail(t *testing.T) {
	dir := configDir(t)
	require.NoError(t, configs.InitConfig(dir))

	client, err := mq.New(context.Background())
	require.NoError(t, err)

	stored, err := queue.NewWatermillMessage(queue.TopicFileStored, queue.FileStoredPayload{
		Record: model.FileRecord{ID: "0000aaaa", DisplayName: "a.zip"},
	})
	require.NoError(t, err)

	report, err := queue.NewWatermillMessage(queue.TopicStatsReported, queue.StatsReportedPayload{TotalFiles: 3})
	require.NoError(t, err)

	require.NoError(t, client.Publish(context.Background(), queue.TopicFileStored, stored))
	require.NoError(t, client.Publish(context.Background(), queue.TopicStatsReported, report))

	stdout, _, err := execute(t, "", "mq", "tail", "-c", dir, "-n", "2")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 2)

	topics := map[string]bool{}

	for _, line := range lines {
		var got tailLine
		require.NoError(t, sonic.UnmarshalString(line, &got))

		topics[got.Topic] = true
		assert.Equal(t, got.Topic, got.Event.Header.Topic)
		assert.NotEmpty(t, got.UUID)
	}

	assert.Equal(t, map[string]bool{queue.TopicFileStored: true, queue.TopicStatsReported: true}, topics)
}
