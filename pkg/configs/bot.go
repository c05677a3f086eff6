package configs

import (
	"slices"
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultBotPollTimeout     = 60  // 长轮询超时（秒）
	DefaultBotRequestTimeout  = 90  // 单次 Bot API 请求超时（秒），需大于长轮询超时
	DefaultBotWorkers         = 16  // 同时处理的更新数
	DefaultBotIDAttempts      = 5   // 生成唯一链接 ID 的最大尝试次数
	DefaultBotListLimit       = 15  // 文件列表展示条数
	DefaultBotUserRPS         = 1.0 // 单用户每秒请求数
	DefaultBotUserBurst       = 5
	DefaultBotUserLimiterSize = 10000
	DefaultBotUserLimiterTTL  = 10 * time.Minute
)

// BotConfig Telegram 机器人配置.
type BotConfig struct {
	Token             string        `mapstructure:"token"               rule:"required"`
	APIEndpoint       string        `mapstructure:"api_endpoint"`
	FilesChannelID    int64         `mapstructure:"files_channel_id"    rule:"required"`
	LogsChannelID     int64         `mapstructure:"logs_channel_id"     rule:"required"`
	BackupChannelLink string        `mapstructure:"backup_channel_link" rule:"omitempty,url"`
	AdminIDs          []int64       `mapstructure:"admin_ids"`
	PollTimeout       int           `mapstructure:"poll_timeout"        rule:"min=0,max=600"`
	RequestTimeout    int           `mapstructure:"request_timeout"     rule:"min=1,max=600"`
	Workers           int           `mapstructure:"workers"             rule:"min=1,max=1024"`
	IDAttempts        int           `mapstructure:"id_attempts"         rule:"min=1,max=100"`
	ListLimit         int           `mapstructure:"list_limit"          rule:"min=1,max=100"`
	UserRPS           float64       `mapstructure:"user_rps"            rule:"min=0"`
	UserBurst         int           `mapstructure:"user_burst"          rule:"min=0"`
	UserLimiterSize   int           `mapstructure:"user_limiter_size"   rule:"min=1"`
	UserLimiterTTL    time.Duration `mapstructure:"user_limiter_ttl"`
	Debug             bool          `mapstructure:"debug"`
}

// GetRequestTimeout 返回 Bot API 请求超时.
func (c BotConfig) GetRequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeout) * time.Second
}

// IsAdmin 判断用户是否为管理员.
func (c BotConfig) IsAdmin(userID int64) bool {
	return slices.Contains(c.AdminIDs, userID)
}

func (c *BotConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("bot.token", "")
	v.SetDefault("bot.api_endpoint", "")
	v.SetDefault("bot.files_channel_id", 0)
	v.SetDefault("bot.logs_channel_id", 0)
	v.SetDefault("bot.backup_channel_link", "")
	v.SetDefault("bot.admin_ids", []int64{})
	v.SetDefault("bot.poll_timeout", DefaultBotPollTimeout)
	v.SetDefault("bot.request_timeout", DefaultBotRequestTimeout)
	v.SetDefault("bot.workers", DefaultBotWorkers)
	v.SetDefault("bot.id_attempts", DefaultBotIDAttempts)
	v.SetDefault("bot.list_limit", DefaultBotListLimit)
	v.SetDefault("bot.user_rps", DefaultBotUserRPS)
	v.SetDefault("bot.user_burst", DefaultBotUserBurst)
	v.SetDefault("bot.user_limiter_size", DefaultBotUserLimiterSize)
	v.SetDefault("bot.user_limiter_ttl", DefaultBotUserLimiterTTL)
	v.SetDefault("bot.debug", false)
}
