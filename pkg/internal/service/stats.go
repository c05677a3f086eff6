package service

import (
	"github.com/yeisme/filerelay/pkg/internal/model"
	"github.com/yeisme/filerelay/pkg/internal/registry"
	"github.com/yeisme/filerelay/pkg/internal/types"
)

// StatsService 基于索引实时计算统计，不缓存结果.
type StatsService struct {
	registry       *registry.Registry
	filesChannelID int64
	logsChannelID  int64
}

// NewStatsService 创建统计服务，频道 ID 仅用于展示.
func NewStatsService(reg *registry.Registry, filesChannelID, logsChannelID int64) *StatsService {
	return &StatsService{registry: reg, filesChannelID: filesChannelID, logsChannelID: logsChannelID}
}

// Global 全局统计.
func (s *StatsService) Global() types.GlobalStats {
	all := s.registry.ListAll()

	out := types.GlobalStats{
		TotalFiles:        len(all),
		DistinctUploaders: s.registry.DistinctUploaders(),
		FilesChannelID:    s.filesChannelID,
		LogsChannelID:     s.logsChannelID,
		ByKind:            byKind(all),
	}

	for _, rec := range all {
		out.TotalDownloads += rec.DownloadCount
		out.TotalSize += rec.SizeBytes
	}

	out.AvgDownloads = average(out.TotalDownloads, out.TotalFiles)

	return out
}

// ForUser 某上传者的个人统计.
func (s *StatsService) ForUser(uploaderID int64) types.UserStats {
	files := s.registry.ListByUploader(uploaderID)

	out := types.UserStats{UploaderID: uploaderID, FilesUploaded: len(files)}
	for _, rec := range files {
		out.TotalDownloads += rec.DownloadCount
		out.TotalSize += rec.SizeBytes
	}

	out.AvgDownloads = average(out.TotalDownloads, out.FilesUploaded)

	return out
}

// byKind 按固定类别顺序聚合，没有文件的类别也会出现.
func byKind(records []model.FileRecord) []types.StatsKindItem {
	idx := make(map[model.FileKind]int, len(model.Kinds()))
	out := make([]types.StatsKindItem, 0, len(model.Kinds()))

	for i, k := range model.Kinds() {
		idx[k] = i
		out = append(out, types.StatsKindItem{Kind: string(k)})
	}

	for _, rec := range records {
		i, ok := idx[rec.Kind]
		if !ok {
			continue
		}

		out[i].Count++
		out[i].Size += rec.SizeBytes
		out[i].Downloads += rec.DownloadCount
	}

	return out
}

func average(total int64, n int) float64 {
	if n == 0 {
		return 0
	}

	return float64(total) / float64(n)
}
