package service_test

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/filerelay/pkg/internal/gateway"
	"github.com/yeisme/filerelay/pkg/internal/linkcodec"
	"github.com/yeisme/filerelay/pkg/internal/mirror"
	"github.com/yeisme/filerelay/pkg/internal/model"
	"github.com/yeisme/filerelay/pkg/internal/registry"
	"github.com/yeisme/filerelay/pkg/internal/service"
)

// fakeGateway 记录存取调用，可注入错误.
type fakeGateway struct {
	mu         sync.Mutex
	storeErr   error
	deliverErr error
	stored     []string
	delivered  []string
	captions   []string
}

func (g *fakeGateway) Store(_ context.Context, _ model.FileKind, handle string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.storeErr != nil {
		return "", g.storeErr
	}

	g.stored = append(g.stored, handle)

	return strconv.Itoa(100 + len(g.stored)), nil
}

func (g *fakeGateway) Deliver(_ context.Context, _ int64, rec model.FileRecord, caption string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.deliverErr != nil {
		return g.deliverErr
	}

	g.delivered = append(g.delivered, rec.ID)
	g.captions = append(g.captions, caption)

	return nil
}

// fakeSink 主镜像替身.
type fakeSink struct {
	mu        sync.Mutex
	err       error
	creates   []mirror.CreateEntry
	downloads []mirror.DownloadEntry
}

func (s *fakeSink) Name() string { return "fake" }

func (s *fakeSink) WriteCreate(_ context.Context, e mirror.CreateEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return s.err
	}

	s.creates = append(s.creates, e)

	return nil
}

func (s *fakeSink) WriteDownload(_ context.Context, e mirror.DownloadEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.downloads = append(s.downloads, e)

	return nil
}

type fixture struct {
	reg  *registry.Registry
	gw   *fakeGateway
	sink *fakeSink
	svc  *service.RelayService
}

func newFixture(opts ...service.Option) *fixture {
	f := &fixture{reg: registry.New(), gw: &fakeGateway{}, sink: &fakeSink{}}
	opts = append([]service.Option{service.WithBotUserName("relay_bot")}, opts...)
	f.svc = service.NewRelayService(f.reg, f.gw, mirror.New(f.sink), opts...)

	return f
}

func docRequest(uploader int64, handle string) service.UploadRequest {
	return service.UploadRequest{
		Kind:           model.KindDocument,
		FileHandle:     handle,
		DisplayName:    "report.pdf",
		SizeBytes:      5 * 1024 * 1024,
		UploaderID:     uploader,
		UploaderHandle: "u" + strconv.FormatInt(uploader, 10),
	}
}

// TestUploadRetrieve 测试上传 5MB 文档后取回，下载数从 0 变为 1.
func TestUploadRetrieve(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	res, err := f.svc.Upload(ctx, docRequest(1, "BQACAgUAAxkBAAIB"))
	require.NoError(t, err)

	rec := res.Record
	assert.True(t, linkcodec.ValidID(rec.ID))
	assert.Equal(t, int64(0), rec.DownloadCount)
	assert.Equal(t, model.KindDocument, rec.Kind)
	assert.Equal(t, "101", rec.StorageRef)
	assert.Equal(t, "https://t.me/relay_bot?start=file_"+rec.ID, res.ShareLink)
	assert.Equal(t, "5.00 MB", rec.HumanSize())

	require.Len(t, f.sink.creates, 1)
	assert.Equal(t, rec.ID, f.sink.creates[0].UniqueID)

	id, err := linkcodec.Decode(linkcodec.Request(rec.ID))
	require.NoError(t, err)

	got, err := f.svc.Retrieve(ctx, service.RetrieveRequest{ID: id, ChatID: 1, Requester: model.Identity{UserID: 1}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.DownloadCount)
	assert.Equal(t, []string{rec.ID}, f.gw.delivered)
	assert.Contains(t, f.gw.captions[0], "📥 Downloads: 0")

	stored, _ := f.reg.Get(rec.ID)
	assert.Equal(t, int64(1), stored.DownloadCount)

	require.Len(t, f.sink.downloads, 1)
	assert.Equal(t, int64(1), f.sink.downloads[0].DownloadCount)
}

// TestRetrieve_Mangled 测试截断或篡改的标识返回 NotFound.
func TestRetrieve_Mangled(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	res, err := f.svc.Upload(ctx, docRequest(1, "h1"))
	require.NoError(t, err)

	mangled := []byte(res.Record.ID)
	if mangled[0] == 'f' {
		mangled[0] = '0'
	} else {
		mangled[0] = 'f'
	}

	_, err = f.svc.Retrieve(ctx, service.RetrieveRequest{ID: string(mangled), ChatID: 1})
	assert.ErrorIs(t, err, registry.ErrNotFound)

	_, err = f.svc.Retrieve(ctx, service.RetrieveRequest{ID: res.Record.ID[:6], ChatID: 1})
	assert.ErrorIs(t, err, registry.ErrNotFound)

	assert.Empty(t, f.gw.delivered)
	assert.Empty(t, f.sink.downloads)
}

// TestUpload_MirrorUnavailable 测试镜像失败时文件已转存但索引中没有记录.
func TestUpload_MirrorUnavailable(t *testing.T) {
	f := newFixture()
	f.sink.err = errors.New("logs channel unreachable")

	_, err := f.svc.Upload(context.Background(), docRequest(1, "h1"))
	require.ErrorIs(t, err, mirror.ErrMirrorUnavailable)

	assert.Equal(t, []string{"h1"}, f.gw.stored)
	assert.Equal(t, 0, f.reg.Len())
	assert.Empty(t, f.svc.ListAll())
}

// TestUpload_GatewayUnavailable 测试转存失败时不写镜像.
func TestUpload_GatewayUnavailable(t *testing.T) {
	f := newFixture()
	f.gw.storeErr = gateway.ErrGatewayUnavailable

	_, err := f.svc.Upload(context.Background(), docRequest(1, "h1"))
	require.ErrorIs(t, err, gateway.ErrGatewayUnavailable)
	assert.Empty(t, f.sink.creates)
	assert.Equal(t, 0, f.reg.Len())
}

// TestRetrieve_DeliverFailure 测试投递失败时不计数.
func TestRetrieve_DeliverFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	res, err := f.svc.Upload(ctx, docRequest(1, "h1"))
	require.NoError(t, err)

	f.gw.deliverErr = gateway.ErrGatewayUnavailable

	_, err = f.svc.Retrieve(ctx, service.RetrieveRequest{ID: res.Record.ID, ChatID: 1})
	require.ErrorIs(t, err, gateway.ErrGatewayUnavailable)

	rec, _ := f.svc.Lookup(res.Record.ID)
	assert.Equal(t, int64(0), rec.DownloadCount)
}

// TestUpload_IDCollision 测试相同句柄与时间派生出的标识被占用时会重新派生.
func TestUpload_IDCollision(t *testing.T) {
	fixed := time.Date(2025, 5, 6, 7, 8, 9, 0, time.UTC)
	f := newFixture(service.WithClock(func() time.Time { return fixed }), service.WithIDAttempts(3))

	ids := make(map[string]struct{})

	for i := 0; i < 3; i++ {
		res, err := f.svc.Upload(context.Background(), docRequest(1, "same-handle"))
		require.NoError(t, err)

		ids[res.Record.ID] = struct{}{}
	}

	assert.Len(t, ids, 3)

	_, err := f.svc.Upload(context.Background(), docRequest(1, "same-handle"))
	assert.ErrorIs(t, err, service.ErrIDExhausted)
	assert.Equal(t, 3, f.reg.Len())
}

// TestUpload_InvalidRequest 测试缺少必要字段的请求.
func TestUpload_InvalidRequest(t *testing.T) {
	f := newFixture()

	req := docRequest(1, "h1")
	req.Kind = "sticker"

	_, err := f.svc.Upload(context.Background(), req)
	require.Error(t, err)
	assert.Empty(t, f.gw.stored)
}

// TestListByUploader 测试三次 U1 上传与一次 U2 上传后的列表.
func TestListByUploader(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	var want []string

	for i, uploader := range []int64{1, 1, 2, 1} {
		res, err := f.svc.Upload(ctx, docRequest(uploader, "h"+strconv.Itoa(i)))
		require.NoError(t, err)

		if uploader == 1 {
			want = append(want, res.Record.ID)
		}
	}

	var got []string
	for _, rec := range f.svc.ListByUploader(1) {
		got = append(got, rec.ID)
	}

	assert.Equal(t, want, got)
}

// TestImport 测试导入恢复记录时跳过已存在的 id.
func TestImport(t *testing.T) {
	f := newFixture()

	res, err := f.svc.Upload(context.Background(), docRequest(1, "h1"))
	require.NoError(t, err)

	restored := res.Record
	restored.DownloadCount = 7

	other := res.Record
	other.ID = "0badf00d"
	other.DownloadCount = 3

	got := f.svc.Import([]model.FileRecord{restored, other})
	assert.Equal(t, service.ImportResult{Imported: 1, Skipped: 1}, got)

	rec, err := f.svc.Lookup("0badf00d")
	require.NoError(t, err)
	assert.Equal(t, int64(3), rec.DownloadCount)
	assert.Len(t, f.sink.creates, 1)
}

// TestImportInvalidRecord 测试中间的无效记录不影响前后记录的导入.
func TestImportInvalidRecord(t *testing.T) {
	f := newFixture()

	rec := func(id string, uploader int64) model.FileRecord {
		return model.FileRecord{
			ID:          id,
			FileHandle:  "BQAC_" + id,
			DisplayName: id + ".pdf",
			SizeBytes:   10,
			Kind:        model.KindDocument,
			UploaderID:  uploader,
			CreatedAt:   time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
			StorageRef:  "100",
		}
	}

	got := f.svc.Import([]model.FileRecord{rec("0000000a", 1), rec("0000000b", 0), rec("0000000c", 1)})
	assert.Equal(t, service.ImportResult{Imported: 2, Invalid: 1}, got)

	_, err := f.svc.Lookup("0000000c")
	require.NoError(t, err)

	_, err = f.svc.Lookup("0000000b")
	assert.ErrorIs(t, err, registry.ErrNotFound)
}
