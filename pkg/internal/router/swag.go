package router

import (
	"net"
	"strconv"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/yeisme/filerelay/docs"
	"github.com/yeisme/filerelay/pkg/configs"
)

// RegisterSwaggerRoute 注册管理接口文档 /swagger/*，调试模式下总是开启.
func RegisterSwaggerRoute(r *gin.Engine, cfg configs.ServerConfig) bool {
	if !cfg.Swagger && !cfg.Debug {
		return false
	}

	docs.SwaggerInfo.Host = net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	docs.SwaggerInfo.Version = configs.AppVersion

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return true
}
