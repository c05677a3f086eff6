package mirror_test

import (
	"context"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/filerelay/pkg/internal/mirror"
	"github.com/yeisme/filerelay/pkg/internal/model"
)

// memObjects 按键保存对象的内存实现.
type memObjects struct {
	mu      sync.Mutex
	objects map[string]string
}

func (m *memObjects) PutText(_ context.Context, key, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.objects == nil {
		m.objects = make(map[string]string)
	}

	m.objects[key] = text

	return nil
}

// concat 与 s3.Client.Concat 一致：键名顺序拼接.
func (m *memObjects) concat() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(m.objects[k] + "\n\n---\n\n")
	}

	return b.String()
}

func TestObjectSink_ScanRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := &memObjects{}
	m := mirror.New(mirror.NewObjectSink(store, "mirror/"))

	require.NoError(t, m.MirrorCreate(ctx, sampleRecord("cafe0001"), ""))
	require.NoError(t, m.MirrorCreate(ctx, sampleRecord("cafe0002"), ""))

	for i := int64(1); i <= 3; i++ {
		m.MirrorDownload(ctx, model.DownloadEvent{
			FileID:     "cafe0001",
			Downloader: model.Identity{UserID: 9},
			Count:      i,
			OccurredAt: time.Now(),
		})
	}

	require.Len(t, store.objects, 5)

	for k := range store.objects {
		assert.True(t, strings.HasPrefix(k, "mirror/cafe000"), k)
		assert.True(t, strings.HasSuffix(k, ".create.md") || strings.HasSuffix(k, ".download.md"), k)
	}

	rec, err := mirror.Scan(strings.NewReader(store.concat()), "cafe0001")
	require.NoError(t, err)
	assert.Equal(t, int64(3), rec.DownloadCount)
	assert.Equal(t, "report_cafe0001.pdf", rec.DisplayName)

	all, err := mirror.ScanAll(strings.NewReader(store.concat()))
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
