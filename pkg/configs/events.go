package configs

import "github.com/spf13/viper"

// EventsConfig 控制事件发布的开关（全局与分主题）.
type EventsConfig struct {
	Enabled bool              `mapstructure:"enabled"` // 总开关
	File    FileEventsConfig  `mapstructure:"file"`
	Stats   StatsEventsConfig `mapstructure:"stats"`
}

// FileEventsConfig 文件相关事件开关.
type FileEventsConfig struct {
	Stored     bool `mapstructure:"stored"`
	Downloaded bool `mapstructure:"downloaded"`
}

// StatsEventsConfig 统计相关事件开关.
type StatsEventsConfig struct {
	Reported bool `mapstructure:"reported"`
}

func (c *EventsConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("events.enabled", true)

	v.SetDefault("events.file.stored", true)
	v.SetDefault("events.file.downloaded", true)

	v.SetDefault("events.stats.reported", true)
}
