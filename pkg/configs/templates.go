package configs

import (
	"time"

	"github.com/spf13/viper"
)

// TemplatesConfig 消息模板配置.
type TemplatesConfig struct {
	File       string        `mapstructure:"file"` // 可选的 JSON 模板文件，用于初始化
	KeyPrefix  string        `mapstructure:"key_prefix"   rule:"required"`
	SessionTTL time.Duration `mapstructure:"session_ttl"` // 管理员编辑会话的过期时间
}

func (c *TemplatesConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("templates.file", "")
	v.SetDefault("templates.key_prefix", "filerelay.")
	v.SetDefault("templates.session_ttl", 10*time.Minute)
}
