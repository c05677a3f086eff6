package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/filerelay/pkg/internal/model"
	"github.com/yeisme/filerelay/pkg/internal/service"
)

// TestStatsService 测试全局与个人统计.
func TestStatsService(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	stats := service.NewStatsService(f.reg, -1001, -1002)

	empty := stats.Global()
	assert.Equal(t, 0, empty.TotalFiles)
	assert.Zero(t, empty.AvgDownloads)

	a, err := f.svc.Upload(ctx, docRequest(1, "h1"))
	require.NoError(t, err)

	photo := docRequest(2, "h2")
	photo.Kind = model.KindPhoto
	photo.SizeBytes = 2048

	_, err = f.svc.Upload(ctx, photo)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err = f.svc.Retrieve(ctx, service.RetrieveRequest{ID: a.Record.ID, ChatID: 9})
		require.NoError(t, err)
	}

	g := stats.Global()
	assert.Equal(t, 2, g.TotalFiles)
	assert.Equal(t, int64(3), g.TotalDownloads)
	assert.Equal(t, 2, g.DistinctUploaders)
	assert.InDelta(t, 1.5, g.AvgDownloads, 1e-9)
	assert.Equal(t, int64(-1001), g.FilesChannelID)
	require.Len(t, g.ByKind, len(model.Kinds()))
	assert.Equal(t, "document", g.ByKind[0].Kind)
	assert.Equal(t, 1, g.ByKind[0].Count)
	assert.Equal(t, int64(3), g.ByKind[0].Downloads)
	assert.Equal(t, 1, g.ByKind[1].Count)

	u := stats.ForUser(1)
	assert.Equal(t, 1, u.FilesUploaded)
	assert.Equal(t, int64(3), u.TotalDownloads)
	assert.InDelta(t, 3.0, u.AvgDownloads, 1e-9)

	none := stats.ForUser(42)
	assert.Equal(t, 0, none.FilesUploaded)
	assert.Zero(t, none.AvgDownloads)
}
