// Package handle 实现管理 HTTP 接口的处理器.
//
// 处理器从 request context 中取出业务服务（见 middleware.InjectMiddleware），
// 哨兵错误统一映射为 HTTP 状态码.
package handle

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	ctxPkg "github.com/yeisme/filerelay/pkg/context"
	"github.com/yeisme/filerelay/pkg/internal/gateway"
	"github.com/yeisme/filerelay/pkg/internal/mirror"
	"github.com/yeisme/filerelay/pkg/internal/registry"
	"github.com/yeisme/filerelay/pkg/internal/templates"
	"github.com/yeisme/filerelay/pkg/log"
	"github.com/yeisme/filerelay/pkg/rule"
	"github.com/yeisme/filerelay/pkg/scheduler"
)

// services 取出注入的业务服务，缺失时直接返回 503.
func services(c *gin.Context) (*ctxPkg.Services, bool) {
	svc := ctxPkg.GetServices(c.Request.Context())
	if svc == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "services not initialized"})
		return nil, false
	}

	return svc, true
}

// fail 按错误类型返回状态码，非预期错误记录日志.
func fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError

	var tooLarge *http.MaxBytesError

	switch {
	case errors.As(err, &tooLarge):
		status = http.StatusRequestEntityTooLarge
	case errors.Is(err, registry.ErrNotFound),
		errors.Is(err, mirror.ErrNotInMirror),
		errors.Is(err, scheduler.ErrJobNotFound):
		status = http.StatusNotFound
	case errors.Is(err, registry.ErrDuplicateID):
		status = http.StatusConflict
	case errors.Is(err, templates.ErrUnknownKey),
		errors.Is(err, templates.ErrEmptyTemplate),
		errors.Is(err, mirror.ErrNoBlock):
		status = http.StatusBadRequest
	case errors.Is(err, gateway.ErrGatewayUnavailable):
		status = http.StatusBadGateway
	case errors.Is(err, mirror.ErrMirrorUnavailable):
		status = http.StatusServiceUnavailable
	}

	if status >= http.StatusInternalServerError {
		log.WithTraceContext(c.Request.Context(), log.Component("http")).Error().Err(err).
			Str("path", c.FullPath()).Msg("request failed")
	}

	_ = c.Error(err)
	c.JSON(status, gin.H{"error": err.Error()})
}

// invalid 返回 400 及字段级校验信息.
func invalid(c *gin.Context, err error) {
	if fields := rule.Errors(err); fields != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "fields": fields})
		return
	}

	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

// fileID 读取并校验路径中的 8 位短标识.
func fileID(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if err := rule.ValidateVar(id, rule.AliasLinkID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid file id"})
		return "", false
	}

	return id, true
}

// userID 读取路径中的 Telegram 用户 ID.
func userID(c *gin.Context) (int64, bool) {
	uid, err := strconv.ParseInt(c.Param("uid"), 10, 64)
	if err != nil || uid <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return 0, false
	}

	return uid, true
}
