// Package types 定义管理 HTTP 接口的请求与响应结构.
package types

import "github.com/yeisme/filerelay/pkg/internal/model"

// ListFilesQuery 文件列表查询参数.
type ListFilesQuery struct {
	Uploader int64 `form:"uploader" rule:"omitempty,min=1"`
	Limit    int   `form:"limit"    rule:"omitempty,min=1,max=1000"`
}

// FileItem 文件记录及其分享链接.
type FileItem struct {
	model.FileRecord

	ShareLink string `json:"share_link"`
}

// ListFilesResponse 文件列表，按上传顺序返回最近的 Limit 条.
type ListFilesResponse struct {
	Files []FileItem `json:"files"`
	Total int        `json:"total"`
}

// ImportResponse 从日志镜像恢复的结果.
type ImportResponse struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
	Invalid  int `json:"invalid"`
}
