package configs

import (
	"time"

	"github.com/spf13/viper"
)

// CircuitBreakerConfig 熔断器配置.
// HTTP 保护管理接口；Telegram 保护转存、投递与日志镜像的 Bot API 调用，
// 打开后上传直接失败，不会留下未镜像的记录.
type CircuitBreakerConfig struct {
	HTTP     BreakerConfig `mapstructure:"http"`
	Telegram BreakerConfig `mapstructure:"telegram"`
}

// BreakerConfig 单个熔断器的参数.
type BreakerConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	FailureRate       float64 `mapstructure:"failure_rate"         rule:"min=0,max=1"` // 窗口内失败比例阈值
	MinRequests       uint32  `mapstructure:"min_requests"`                            // 进入统计的最小请求数
	IntervalSeconds   int     `mapstructure:"interval_seconds"     rule:"min=0"`       // 统计窗口，0 表示不清零
	TimeoutSeconds    int     `mapstructure:"timeout_seconds"      rule:"min=1"`       // 打开状态持续时间
	MaxRequestsInHalf uint32  `mapstructure:"max_requests_in_half" rule:"min=1"`       // 半开状态放行的请求数
}

// Interval 统计窗口.
func (b BreakerConfig) Interval() time.Duration {
	return time.Duration(b.IntervalSeconds) * time.Second
}

// Timeout 打开状态持续时间.
func (b BreakerConfig) Timeout() time.Duration {
	return time.Duration(b.TimeoutSeconds) * time.Second
}

// Trips 判断窗口内的计数是否应使熔断器打开.
func (b BreakerConfig) Trips(requests, failures uint32) bool {
	if requests == 0 || requests < b.MinRequests {
		return false
	}

	return float64(failures)/float64(requests) >= b.FailureRate
}

func (c *CircuitBreakerConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("circuit_breaker.http.enabled", false)
	v.SetDefault("circuit_breaker.http.failure_rate", 0.5)
	v.SetDefault("circuit_breaker.http.min_requests", 20)
	v.SetDefault("circuit_breaker.http.interval_seconds", 60)
	v.SetDefault("circuit_breaker.http.timeout_seconds", 30)
	v.SetDefault("circuit_breaker.http.max_requests_in_half", 5)

	// Bot API 返回 429/5xx 时短时间内继续请求只会延长限流
	v.SetDefault("circuit_breaker.telegram.enabled", true)
	v.SetDefault("circuit_breaker.telegram.failure_rate", 0.6)
	v.SetDefault("circuit_breaker.telegram.min_requests", 5)
	v.SetDefault("circuit_breaker.telegram.interval_seconds", 30)
	v.SetDefault("circuit_breaker.telegram.timeout_seconds", 15)
	v.SetDefault("circuit_breaker.telegram.max_requests_in_half", 1)
}
