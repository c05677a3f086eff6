package configs

import "github.com/spf13/viper"

// AuthConfig 管理 HTTP 接口的令牌认证.
type AuthConfig struct {
	Enabled   bool     `mapstructure:"enabled"`
	Header    string   `mapstructure:"header"     rule:"required_if=Enabled true"`
	Tokens    []string `mapstructure:"tokens"     rule:"required_if=Enabled true"`
	SkipPaths []string `mapstructure:"skip_paths"` // 跳过认证的路径前缀（如 /metrics、/api/v1/health）
}

func (c *AuthConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("auth.enabled", false)
	v.SetDefault("auth.header", "X-Admin-Token")
	v.SetDefault("auth.tokens", []string{})
	v.SetDefault("auth.skip_paths", []string{
		"/metrics",
		"/debug/pprof",
		"/swagger",
		"/api/v1/health",
	})
}
