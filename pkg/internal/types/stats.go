package types

// StatsKindItem 按文件类别聚合.
type StatsKindItem struct {
	Kind      string `json:"kind"`
	Count     int    `json:"count"`
	Size      int64  `json:"size"`
	Downloads int64  `json:"downloads"`
}

// GlobalStats 全局统计（管理员视图）.
type GlobalStats struct {
	TotalFiles        int             `json:"total_files"`
	TotalDownloads    int64           `json:"total_downloads"`
	DistinctUploaders int             `json:"distinct_uploaders"`
	TotalSize         int64           `json:"total_size"`
	AvgDownloads      float64         `json:"avg_downloads"`
	FilesChannelID    int64           `json:"files_channel_id"`
	LogsChannelID     int64           `json:"logs_channel_id"`
	ByKind            []StatsKindItem `json:"by_kind"`
}

// UserStats 个人统计.
type UserStats struct {
	UploaderID     int64   `json:"uploader_id"`
	FilesUploaded  int     `json:"files_uploaded"`
	TotalDownloads int64   `json:"total_downloads"`
	TotalSize      int64   `json:"total_size"`
	AvgDownloads   float64 `json:"avg_downloads"`
}
