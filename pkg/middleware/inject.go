// Package middleware 提供管理 HTTP 接口使用的 gin 中间件.
package middleware

import (
	"github.com/gin-gonic/gin"

	ctxPkg "github.com/yeisme/filerelay/pkg/context"
	"github.com/yeisme/filerelay/pkg/internal/storage"
)

// InjectMiddleware 把存储资源与业务服务注入 request context.
func InjectMiddleware(mgr *storage.Manager, svc *ctxPkg.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		if mgr != nil {
			ctx = ctxPkg.WithStorageManager(ctx, mgr)
		}

		if svc != nil {
			ctx = ctxPkg.WithServices(ctx, svc)
		}

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
