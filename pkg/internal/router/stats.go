package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/filerelay/pkg/internal/handle"
)

// RegisterStatsRoutes 注册统计相关路由，cache 为 nil 时不缓存.
func RegisterStatsRoutes(g *gin.RouterGroup, cache gin.HandlerFunc) {
	statsRoutes := g.Group("/stats")
	if cache != nil {
		statsRoutes.Use(cache)
	}

	{
		statsRoutes.GET("", handle.GlobalStats)
		statsRoutes.GET("/users/:uid", handle.UserStats)
	}
}
