package handle

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GlobalStats 全局统计.
//
//	@Summary	全局统计
//	@Tags		统计
//	@Produce	json
//	@Success	200	{object}	types.GlobalStats
//	@Router		/stats [get]
func GlobalStats(c *gin.Context) {
	svc, ok := services(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, svc.Stats.Global())
}

// UserStats 单个用户的统计.
//
//	@Summary	用户统计
//	@Tags		统计
//	@Produce	json
//	@Param		uid	path		int	true	"Telegram 用户 ID"
//	@Success	200	{object}	types.UserStats
//	@Failure	400	{object}	map[string]string
//	@Router		/stats/users/{uid} [get]
func UserStats(c *gin.Context) {
	svc, ok := services(c)
	if !ok {
		return
	}

	uid, ok := userID(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, svc.Stats.ForUser(uid))
}
