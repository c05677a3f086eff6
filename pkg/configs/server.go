package configs

import (
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultPort         = 8080        // 监听端口
	DefaultHost         = "127.0.0.1" // 监听地址
	DefaultReloadConfig = false       // 是否启用配置热重载
	DefaultDebug        = false       // 是否启用调试模式
	DefaultTimeout      = 30          // 超时时间，单位秒
	DefaultImportMax    = 32 << 20    // 导入请求体上限，32MB
)

type (
	// ServerConfig 服务器配置.
	ServerConfig struct {
		Port         int    `mapstructure:"port"          rule:"min=1,max=65535"`
		Host         string `mapstructure:"host"          rule:"ip"`
		ReloadConfig bool   `mapstructure:"reload_config"`
		Debug        bool   `mapstructure:"debug"`
		Timeout      int    `mapstructure:"timeout"       rule:"min=1,max=300"`
		// Enabled 控制管理 HTTP 接口是否启动，机器人轮询不受影响
		Enabled     bool     `mapstructure:"enabled"`
		CORSOrigins []string `mapstructure:"cors_origins"`
		Gzip        bool     `mapstructure:"gzip"`
		// StatsCacheTTL 统计接口的缓存时间，0 表示不缓存
		StatsCacheTTL time.Duration `mapstructure:"stats_cache_ttl"`
		// Swagger 提供 /swagger 文档页，Debug 时总是开启
		Swagger bool `mapstructure:"swagger"`
		// ImportMaxBytes 镜像导入请求体上限，0 表示不限制
		ImportMaxBytes int64 `mapstructure:"import_max_bytes" rule:"min=0"`
	}
)

// GetTimeoutDuration 返回超时时间作为time.Duration.
func (s *ServerConfig) GetTimeoutDuration() time.Duration {
	return time.Duration(s.Timeout) * time.Second
}

// setDefaults 设置服务器配置的默认值.
func (s *ServerConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", DefaultPort)
	v.SetDefault("server.host", DefaultHost)
	v.SetDefault("server.reload_config", DefaultReloadConfig)
	v.SetDefault("server.debug", DefaultDebug)
	v.SetDefault("server.timeout", DefaultTimeout)
	v.SetDefault("server.enabled", true)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.gzip", true)
	v.SetDefault("server.stats_cache_ttl", 30*time.Second)
	v.SetDefault("server.import_max_bytes", DefaultImportMax)
	v.SetDefault("server.swagger", false)
}
