package handle

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/filerelay/pkg/internal/mirror"
	"github.com/yeisme/filerelay/pkg/internal/model"
	"github.com/yeisme/filerelay/pkg/internal/service"
	"github.com/yeisme/filerelay/pkg/internal/types"
	"github.com/yeisme/filerelay/pkg/rule"
)

const defaultListLimit = 100

// ListFiles 按上传顺序列出文件，可按上传者过滤.
//
//	@Summary		文件列表
//	@Description	按上传顺序返回最近的 limit 条记录，可按上传者过滤
//	@Tags			文件
//	@Produce		json
//	@Param			uploader	query		int	false	"上传者 Telegram ID"
//	@Param			limit		query		int	false	"返回条数，默认 100，最大 1000"
//	@Success		200			{object}	types.ListFilesResponse
//	@Failure		400			{object}	map[string]string
//	@Router			/files [get]
func ListFiles(c *gin.Context) {
	svc, ok := services(c)
	if !ok {
		return
	}

	var q types.ListFilesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		invalid(c, err)
		return
	}

	if err := rule.ValidateStruct(q); err != nil {
		invalid(c, err)
		return
	}

	recs := svc.Relay.ListAll()
	if q.Uploader > 0 {
		recs = svc.Relay.ListByUploader(q.Uploader)
	}

	c.JSON(http.StatusOK, listResponse(svc.Relay, recs, q.Limit))
}

// ListUserFiles 列出某个用户上传的文件.
//
//	@Summary	用户上传的文件
//	@Tags		文件
//	@Produce	json
//	@Param		uid	path		int	true	"Telegram 用户 ID"
//	@Success	200	{object}	types.ListFilesResponse
//	@Failure	400	{object}	map[string]string
//	@Router		/users/{uid}/files [get]
func ListUserFiles(c *gin.Context) {
	svc, ok := services(c)
	if !ok {
		return
	}

	uid, ok := userID(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, listResponse(svc.Relay, svc.Relay.ListByUploader(uid), 0))
}

// GetFile 查询单个文件，不计入下载次数.
//
//	@Summary		文件详情
//	@Description	查询单个文件，不计入下载次数
//	@Tags			文件
//	@Produce		json
//	@Param			id	path		string	true	"8 位小写十六进制短标识"
//	@Success		200	{object}	types.FileItem
//	@Failure		400	{object}	map[string]string
//	@Failure		404	{object}	map[string]string
//	@Router			/files/{id} [get]
func GetFile(c *gin.Context) {
	svc, ok := services(c)
	if !ok {
		return
	}

	id, ok := fileID(c)
	if !ok {
		return
	}

	rec, err := svc.Relay.Lookup(id)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, types.FileItem{FileRecord: rec, ShareLink: svc.Relay.ShareLink(rec.ID)})
}

// ImportFiles 从日志镜像导出内容（本地 journal 或 Telegram Desktop 的 result.json）恢复索引.
// 带 id 参数时只恢复该记录.
//
//	@Summary		从日志镜像导入
//	@Description	已存在的 id 跳过，校验失败的记录计为 invalid
//	@Tags			文件
//	@Accept			plain
//	@Produce		json
//	@Param			id	query		string	false	"只恢复该 8 位短标识"
//	@Success		200	{object}	types.ImportResponse
//	@Failure		400	{object}	map[string]string
//	@Failure		404	{object}	map[string]string
//	@Failure		413	{object}	map[string]string
//	@Router			/files/import [post]
func ImportFiles(c *gin.Context) {
	svc, ok := services(c)
	if !ok {
		return
	}

	var (
		recs []model.FileRecord
		err  error
	)

	if id := c.Query("id"); id != "" {
		if verr := rule.ValidateVar(id, rule.AliasLinkID); verr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid file id"})
			return
		}

		var rec model.FileRecord

		rec, err = mirror.Scan(c.Request.Body, id)
		recs = []model.FileRecord{rec}
	} else {
		recs, err = mirror.ScanAll(c.Request.Body)
	}

	if err != nil {
		fail(c, err)
		return
	}

	res := svc.Relay.Import(recs)

	c.JSON(http.StatusOK, types.ImportResponse{Imported: res.Imported, Skipped: res.Skipped, Invalid: res.Invalid})
}

// listResponse 保留最近 limit 条，limit<=0 时使用默认值.
func listResponse(relay *service.RelayService, recs []model.FileRecord, limit int) types.ListFilesResponse {
	if limit <= 0 {
		limit = defaultListLimit
	}

	total := len(recs)
	if total > limit {
		recs = recs[total-limit:]
	}

	items := make([]types.FileItem, 0, len(recs))
	for _, rec := range recs {
		items = append(items, types.FileItem{FileRecord: rec, ShareLink: relay.ShareLink(rec.ID)})
	}

	return types.ListFilesResponse{Files: items, Total: total}
}
