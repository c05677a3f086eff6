package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/filerelay/pkg/internal/handle"
)

// RegisterTemplateRoutes 注册消息模板路由.
func RegisterTemplateRoutes(g *gin.RouterGroup) {
	g.GET("/templates", handle.ListTemplates)
	g.PUT("/templates/:key", handle.UpdateTemplate)
}
