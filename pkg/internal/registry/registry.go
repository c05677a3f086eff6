// Package registry 提供进程内的文件索引，维护 id 到 FileRecord 的权威映射.
//
// Registry 由调用方显式创建并注入，不存在包级全局实例.
// 所有操作在内部加锁，单次 Put/Get/IncrementDownload 对并发调用者不可分割.
// 进程重启即清空，如需恢复请使用 filerelay recover 从日志镜像中线性检索.
package registry

import (
	"errors"
	"fmt"
	"sync"

	"github.com/yeisme/filerelay/pkg/internal/model"
	"github.com/yeisme/filerelay/pkg/rule"
)

var (
	// ErrNotFound 标识不存在，属于正常的业务结果（过期或错误的链接）.
	ErrNotFound = errors.New("file record not found")
	// ErrDuplicateID 标识已存在，Put 拒绝覆盖.
	ErrDuplicateID = errors.New("duplicate file record id")
)

// Registry 文件索引.
type Registry struct {
	mu         sync.RWMutex
	records    map[string]*model.FileRecord
	order      []string           // 插入顺序
	byUploader map[int64][]string // 按上传者分组的插入顺序
}

// New 创建空索引.
func New() *Registry {
	return &Registry{
		records:    make(map[string]*model.FileRecord),
		byUploader: make(map[int64][]string),
	}
}

// Put 插入新记录，id 已存在时返回 ErrDuplicateID 且不改动原记录.
func (r *Registry) Put(rec model.FileRecord) error {
	if err := rule.ValidateStruct(rec); err != nil {
		return fmt.Errorf("invalid file record: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.records[rec.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateID, rec.ID)
	}

	stored := rec
	r.records[rec.ID] = &stored
	r.order = append(r.order, rec.ID)
	r.byUploader[rec.UploaderID] = append(r.byUploader[rec.UploaderID], rec.ID)

	return nil
}

// Get 按 id 查询，返回记录副本.
func (r *Registry) Get(id string) (model.FileRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[id]
	if !ok {
		return model.FileRecord{}, ErrNotFound
	}

	return *rec, nil
}

// Has 判断 id 是否已被占用.
func (r *Registry) Has(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.records[id]

	return ok
}

// IncrementDownload 原子地将下载计数加一并返回新值.
func (r *Registry) IncrementDownload(id string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[id]
	if !ok {
		return 0, ErrNotFound
	}

	rec.DownloadCount++

	return rec.DownloadCount, nil
}

// ListByUploader 按插入顺序返回某上传者的全部记录.
func (r *Registry) ListByUploader(uploaderID int64) []model.FileRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.collect(r.byUploader[uploaderID])
}

// ListAll 按插入顺序返回全部记录.
func (r *Registry) ListAll() []model.FileRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.collect(r.order)
}

// TotalDownloads 实时汇总所有记录的下载次数.
func (r *Registry) TotalDownloads() int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var total int64
	for _, rec := range r.records {
		total += rec.DownloadCount
	}

	return total
}

// DistinctUploaders 返回不同上传者的数量.
func (r *Registry) DistinctUploaders() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.byUploader)
}

// Len 返回记录总数.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.order)
}

// collect 调用方需持有读锁.
func (r *Registry) collect(ids []string) []model.FileRecord {
	out := make([]model.FileRecord, 0, len(ids))
	for _, id := range ids {
		out = append(out, *r.records[id])
	}

	return out
}
