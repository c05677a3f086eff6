// Package router 把管理接口的路径绑定到处理器.
//
//	/api/v1/health            存活
//	/api/v1/health/{kv,mq,s3} 依赖检查
//	/api/v1/files             列表 / 查询 / 从镜像导入
//	/api/v1/users/:uid/files  按上传者列出
//	/api/v1/stats             全局与按用户统计（短时缓存）
//	/api/v1/templates         消息模板
//	/api/v1/scheduler         定时任务
//	/swagger/*                接口文档（server.swagger 或调试模式）
package router

import (
	"github.com/gin-gonic/gin"
)

// Options 路由可选项.
type Options struct {
	// StatsCache 统计接口的缓存中间件，可为 nil
	StatsCache gin.HandlerFunc
	// ImportMaxBytes 导入请求体上限，0 表示不限制
	ImportMaxBytes int64
}

// Register 在 /api/v1 下注册全部路由.
func Register(e *gin.Engine, opts Options) *gin.RouterGroup {
	v1 := e.Group("/api/v1")

	RegisterHealthCheckRoute(v1)
	RegisterFilesRoutes(v1, opts.ImportMaxBytes)
	RegisterStatsRoutes(v1, opts.StatsCache)
	RegisterTemplateRoutes(v1)
	RegisterSchedulerRoutes(v1)

	return v1
}
