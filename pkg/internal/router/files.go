package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/filerelay/pkg/internal/handle"
	"github.com/yeisme/filerelay/pkg/middleware"
)

// RegisterFilesRoutes 注册文件索引相关路由.
func RegisterFilesRoutes(g *gin.RouterGroup, importMaxBytes int64) {
	filesRoutes := g.Group("/files")
	{
		filesRoutes.GET("", handle.ListFiles)
		filesRoutes.GET("/:id", handle.GetFile)
		// 请求体为日志镜像导出内容
		filesRoutes.POST("/import", middleware.BodyLimitMiddleware(importMaxBytes), handle.ImportFiles)
	}

	g.GET("/users/:uid/files", handle.ListUserFiles)
}
