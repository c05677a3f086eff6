package types

// TemplateItem 消息模板.
type TemplateItem struct {
	Key   string `json:"key"`
	Title string `json:"title"`
	Text  string `json:"text"`
}

// UpdateTemplateRequest 更新模板请求体.
type UpdateTemplateRequest struct {
	Text string `json:"text" rule:"required,max=4096"`
}
