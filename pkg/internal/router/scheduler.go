package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/filerelay/pkg/internal/handle"
)

// RegisterSchedulerRoutes 注册调度器相关路由.
func RegisterSchedulerRoutes(g *gin.RouterGroup) {
	g.GET("/scheduler/jobs", handle.SchedulerJobs)
	g.POST("/scheduler/jobs/:id/run", handle.SchedulerRunJob)
	g.DELETE("/scheduler/jobs/:id", handle.SchedulerRemoveJob)
}
