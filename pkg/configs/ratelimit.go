package configs

import "github.com/spf13/viper"

// RateLimitConfig 管理接口的令牌桶限流.
// 机器人侧的单用户限流见 BotConfig.UserRPS.
type RateLimitConfig struct {
	Enabled bool    `mapstructure:"enabled"`
	RPS     float64 `mapstructure:"rps"   rule:"min=0"`
	Burst   int     `mapstructure:"burst" rule:"min=0"`
	// Key 限流维度：global、ip、header:<Name>，按请求头时缺少该头回退到客户端 IP
	Key string `mapstructure:"key" rule:"required"`
	// SkipPaths 不限流的路径前缀，健康检查与指标抓取不应被挡住
	SkipPaths []string `mapstructure:"skip_paths"`
}

func (c *RateLimitConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("rate_limit.enabled", false)
	v.SetDefault("rate_limit.rps", 10.0)
	v.SetDefault("rate_limit.burst", 20)
	// 启用认证时同一个管理令牌共享额度
	v.SetDefault("rate_limit.key", "header:X-Admin-Token")
	v.SetDefault("rate_limit.skip_paths", []string{"/api/v1/health", "/metrics"})
}
