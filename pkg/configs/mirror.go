package configs

import "github.com/spf13/viper"

// MirrorConfig 日志镜像配置，主镜像固定为 bot.logs_channel_id.
type MirrorConfig struct {
	Journal JournalConfig      `mapstructure:"journal"`
	Object  ObjectMirrorConfig `mapstructure:"object"`
}

// JournalConfig 本地日志镜像（按大小轮转），可被 filerelay recover 扫描.
type JournalConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Path       string `mapstructure:"path"         rule:"required_if=Enabled true"`
	MaxSize    int    `mapstructure:"max_size_mb"  rule:"min=1"`
	MaxBackups int    `mapstructure:"max_backups"  rule:"min=0"`
	MaxAge     int    `mapstructure:"max_age_days" rule:"min=0"`
	Compress   bool   `mapstructure:"compress"`
}

// ObjectMirrorConfig S3 兼容对象存储镜像，每个镜像块保存为一个对象.
type ObjectMirrorConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	Endpoint        string `mapstructure:"endpoint"          rule:"required_if=Enabled true"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	Bucket          string `mapstructure:"bucket"            rule:"required_if=Enabled true"`
	Region          string `mapstructure:"region"`
	Prefix          string `mapstructure:"prefix"`
}

func (c *MirrorConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("mirror.journal.enabled", true)
	v.SetDefault("mirror.journal.path", "data/mirror.journal")
	v.SetDefault("mirror.journal.max_size_mb", 50)
	v.SetDefault("mirror.journal.max_backups", 0)
	// 日志镜像是唯一的恢复来源，默认不按时间清理也不压缩
	v.SetDefault("mirror.journal.max_age_days", 0)
	v.SetDefault("mirror.journal.compress", false)

	v.SetDefault("mirror.object.enabled", false)
	v.SetDefault("mirror.object.endpoint", "localhost:9000")
	v.SetDefault("mirror.object.access_key_id", "")
	v.SetDefault("mirror.object.secret_access_key", "")
	v.SetDefault("mirror.object.use_ssl", false)
	v.SetDefault("mirror.object.bucket", "filerelay-mirror")
	v.SetDefault("mirror.object.region", "us-east-1")
	v.SetDefault("mirror.object.prefix", "mirror/")
}
