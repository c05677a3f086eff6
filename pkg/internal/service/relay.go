// Package service 编排文件中转的上传与取回流程.
//
// 上传：Gateway.Store -> 生成短标识 -> MirrorCreate -> Registry.Put.
// 取回：Registry.Get -> Gateway.Deliver -> IncrementDownload -> MirrorDownload.
// 任一步骤失败都直接返回，不做重试；镜像写入在 Put 之前完成，失败时记录不会出现在索引中.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/yeisme/filerelay/pkg/internal/gateway"
	"github.com/yeisme/filerelay/pkg/internal/linkcodec"
	"github.com/yeisme/filerelay/pkg/internal/mirror"
	"github.com/yeisme/filerelay/pkg/internal/model"
	"github.com/yeisme/filerelay/pkg/internal/registry"
	"github.com/yeisme/filerelay/pkg/log"
	"github.com/yeisme/filerelay/pkg/metrics"
	"github.com/yeisme/filerelay/pkg/rule"
	"github.com/yeisme/filerelay/pkg/tracing"
)

// DefaultIDAttempts 生成唯一标识的默认尝试次数.
const DefaultIDAttempts = 5

// ErrIDExhausted 多次派生的标识均已被占用.
var ErrIDExhausted = errors.New("could not derive a unique file id")

// UploadRequest 一次上传所需的元数据，文件本体由 FileHandle 引用.
type UploadRequest struct {
	Kind           model.FileKind `rule:"required,oneof=document photo video audio voice"`
	FileHandle     string         `rule:"required"`
	DisplayName    string         `rule:"required"`
	SizeBytes      int64          `rule:"min=0"`
	UploaderID     int64          `rule:"required"`
	UploaderHandle string
}

// UploadResult 上传成功后的记录与分享链接.
type UploadResult struct {
	Record    model.FileRecord
	ShareLink string
}

// RetrieveRequest 一次取回请求，ChatID 为投递目标.
type RetrieveRequest struct {
	ID        string
	ChatID    int64
	Requester model.Identity
}

// RelayService 文件中转服务.
type RelayService struct {
	registry    *registry.Registry
	gateway     gateway.Gateway
	mirror      *mirror.Mirror
	botUserName string
	idAttempts  int
	now         func() time.Time
	logger      *zerolog.Logger
}

// Option RelayService 可选项.
type Option func(*RelayService)

// WithBotUserName 设置生成分享链接所用的机器人用户名.
func WithBotUserName(name string) Option { return func(s *RelayService) { s.botUserName = name } }

// WithIDAttempts 设置标识派生的最大尝试次数.
func WithIDAttempts(n int) Option {
	return func(s *RelayService) {
		if n > 0 {
			s.idAttempts = n
		}
	}
}

// WithClock 替换时钟，测试中用于构造确定的标识.
func WithClock(now func() time.Time) Option { return func(s *RelayService) { s.now = now } }

// NewRelayService 创建服务，三个协作者都必须非空.
func NewRelayService(reg *registry.Registry, gw gateway.Gateway, m *mirror.Mirror, opts ...Option) *RelayService {
	s := &RelayService{
		registry:   reg,
		gateway:    gw,
		mirror:     m,
		idAttempts: DefaultIDAttempts,
		now:        time.Now,
		logger:     log.Component("relay"),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Registry 返回服务持有的索引.
func (s *RelayService) Registry() *registry.Registry { return s.registry }

// Mirrors 返回镜像名称，主镜像在前.
func (s *RelayService) Mirrors() []string { return s.mirror.Sinks() }

// BotUserName 返回分享链接中使用的机器人用户名.
func (s *RelayService) BotUserName() string { return s.botUserName }

// Upload 转存文件并登记索引.
func (s *RelayService) Upload(ctx context.Context, req UploadRequest) (*UploadResult, error) {
	ctx, span := tracing.StartSpan(ctx, "relay.Upload",
		trace.WithAttributes(
			attribute.String("file.kind", string(req.Kind)),
			attribute.Int64("file.size", req.SizeBytes),
			attribute.Int64("uploader.id", req.UploaderID),
		))
	defer span.End()

	res, err := s.upload(ctx, req)
	if err != nil {
		tracing.RecordError(span, err)
		metrics.UploadsTotal.WithLabelValues(string(req.Kind), metrics.ResultError).Inc()
		log.WithTraceContext(ctx, s.logger).Error().Err(err).
			Int64("uploader", req.UploaderID).Str("kind", string(req.Kind)).Msg("upload failed")

		return nil, err
	}

	span.SetAttributes(attribute.String("file.id", res.Record.ID))
	metrics.UploadsTotal.WithLabelValues(string(req.Kind), metrics.ResultOK).Inc()
	log.WithTraceContext(ctx, s.logger).Info().
		Str("id", res.Record.ID).Int64("uploader", req.UploaderID).Str("name", req.DisplayName).Msg("file stored")

	return res, nil
}

func (s *RelayService) upload(ctx context.Context, req UploadRequest) (*UploadResult, error) {
	if err := rule.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("invalid upload request: %w", err)
	}

	ref, err := s.gateway.Store(ctx, req.Kind, req.FileHandle)
	if err != nil {
		return nil, err
	}

	createdAt := s.now()

	id, err := s.deriveID(req.FileHandle, createdAt)
	if err != nil {
		return nil, err
	}

	rec := model.FileRecord{
		ID:             id,
		FileHandle:     req.FileHandle,
		DisplayName:    req.DisplayName,
		SizeBytes:      req.SizeBytes,
		Kind:           req.Kind,
		UploaderID:     req.UploaderID,
		UploaderHandle: req.UploaderHandle,
		CreatedAt:      createdAt,
		StorageRef:     ref,
	}
	link := s.ShareLink(id)

	// 镜像先于 Put：失败时文件已在频道中，但索引里不会出现这条记录
	if err := s.mirror.MirrorCreate(ctx, rec, link); err != nil {
		return nil, err
	}

	if err := s.registry.Put(rec); err != nil {
		return nil, err
	}

	return &UploadResult{Record: rec, ShareLink: link}, nil
}

// deriveID 以纳秒扰动时间戳重新派生，直到得到未占用的标识.
func (s *RelayService) deriveID(handle string, t time.Time) (string, error) {
	for i := 0; i < s.idAttempts; i++ {
		id := linkcodec.Encode(handle, t.Add(time.Duration(i)))
		if !s.registry.Has(id) {
			return id, nil
		}

		s.logger.Warn().Str("id", id).Int("attempt", i+1).Msg("file id collision")
	}

	return "", fmt.Errorf("%w after %d attempts", ErrIDExhausted, s.idAttempts)
}

// Retrieve 投递文件并记录一次下载，返回投递后的记录.
func (s *RelayService) Retrieve(ctx context.Context, req RetrieveRequest) (model.FileRecord, error) {
	ctx, span := tracing.StartSpan(ctx, "relay.Retrieve",
		trace.WithAttributes(
			attribute.String("file.id", req.ID),
			attribute.Int64("requester.id", req.Requester.UserID),
		))
	defer span.End()

	rec, err := s.registry.Get(req.ID)
	if err != nil {
		// 未找到属于正常结果，不计入错误
		if !errors.Is(err, registry.ErrNotFound) {
			tracing.RecordError(span, err)
		}

		return model.FileRecord{}, err
	}

	if err := s.gateway.Deliver(ctx, req.ChatID, rec, DeliveryCaption(rec)); err != nil {
		tracing.RecordError(span, err)
		metrics.DownloadsTotal.WithLabelValues(string(rec.Kind), metrics.ResultError).Inc()
		log.WithTraceContext(ctx, s.logger).Error().Err(err).Str("id", rec.ID).Int64("chat", req.ChatID).
			Msg("deliver failed")

		return model.FileRecord{}, err
	}

	count, err := s.registry.IncrementDownload(rec.ID)
	if err != nil {
		tracing.RecordError(span, err)

		return model.FileRecord{}, err
	}

	rec.DownloadCount = count
	metrics.DownloadsTotal.WithLabelValues(string(rec.Kind), metrics.ResultOK).Inc()

	s.mirror.MirrorDownload(ctx, model.DownloadEvent{
		FileID:      rec.ID,
		DisplayName: rec.DisplayName,
		Downloader:  req.Requester,
		Count:       count,
		OccurredAt:  s.now(),
	})

	log.WithTraceContext(ctx, s.logger).Info().Str("id", rec.ID).Int64("user", req.Requester.UserID).
		Int64("downloads", count).Msg("file delivered")

	return rec, nil
}

// Lookup 查询记录，不产生副作用.
func (s *RelayService) Lookup(id string) (model.FileRecord, error) {
	return s.registry.Get(id)
}

// ListByUploader 按上传顺序返回某用户的文件.
func (s *RelayService) ListByUploader(uploaderID int64) []model.FileRecord {
	return s.registry.ListByUploader(uploaderID)
}

// ListAll 按上传顺序返回全部文件.
func (s *RelayService) ListAll() []model.FileRecord {
	return s.registry.ListAll()
}

// ShareLink 构造记录的分享链接.
func (s *RelayService) ShareLink(id string) string {
	return linkcodec.ShareLink(s.botUserName, id)
}

// ImportResult 一次导入的统计.
type ImportResult struct {
	Imported int
	Skipped  int
	Invalid  int
}

// Import 把从镜像恢复的记录直接写入索引，不再次写镜像.
// 已存在的 id 计为跳过，校验失败的记录计为无效，二者都不影响其余记录.
func (s *RelayService) Import(records []model.FileRecord) ImportResult {
	var res ImportResult

	for _, rec := range records {
		switch err := s.registry.Put(rec); {
		case err == nil:
			res.Imported++
		case errors.Is(err, registry.ErrDuplicateID):
			res.Skipped++
		default:
			res.Invalid++
			s.logger.Warn().Err(err).Str("id", rec.ID).Msg("invalid record skipped on import")
		}
	}

	s.logger.Info().Int("imported", res.Imported).Int("skipped", res.Skipped).
		Int("invalid", res.Invalid).Msg("records imported from mirror")

	return res
}

// DeliveryCaption 投递文件时附带的说明，下载数为本次投递前的值.
func DeliveryCaption(rec model.FileRecord) string {
	return fmt.Sprintf("%s %s\n🆔 File ID: %s\n📥 Downloads: %d", rec.Kind.Emoji(), rec.DisplayName, rec.ID, rec.DownloadCount)
}
