package handle

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/filerelay/pkg/internal/templates"
	"github.com/yeisme/filerelay/pkg/internal/types"
)

// ListTemplates 返回所有消息模板的当前内容.
//
//	@Summary	消息模板列表
//	@Tags		模板
//	@Produce	json
//	@Success	200	{object}	map[string][]types.TemplateItem
//	@Router		/templates [get]
func ListTemplates(c *gin.Context) {
	svc, ok := services(c)
	if !ok {
		return
	}

	all, err := svc.Templates.All(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}

	items := make([]types.TemplateItem, 0, len(all))
	for _, key := range templates.Keys() {
		items = append(items, types.TemplateItem{Key: key, Title: templates.Title(key), Text: all[key]})
	}

	c.JSON(http.StatusOK, gin.H{"templates": items})
}

// UpdateTemplate 更新一条消息模板，立即生效.
//
//	@Summary		更新消息模板
//	@Description	更新后立即生效
//	@Tags			模板
//	@Accept			json
//	@Produce		json
//	@Param			key		path		string						true	"模板键"
//	@Param			body	body		types.UpdateTemplateRequest	true	"模板内容"
//	@Success		200		{object}	types.TemplateItem
//	@Failure		400		{object}	map[string]string
//	@Router			/templates/{key} [put]
func UpdateTemplate(c *gin.Context) {
	svc, ok := services(c)
	if !ok {
		return
	}

	var req types.UpdateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalid(c, err)
		return
	}

	key := c.Param("key")
	if err := svc.Templates.Update(c.Request.Context(), key, req.Text); err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, types.TemplateItem{Key: key, Title: templates.Title(key), Text: req.Text})
}
