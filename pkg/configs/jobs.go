package configs

import "github.com/spf13/viper"

// JobsConfig 定时任务配置.
type JobsConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	StatsSnapshotCron string `mapstructure:"stats_snapshot_cron" rule:"required_if=Enabled true"`
	StatsReportCron   string `mapstructure:"stats_report_cron"   rule:"required_if=Enabled true"`
}

func (c *JobsConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("jobs.enabled", true)
	v.SetDefault("jobs.stats_snapshot_cron", "*/5 * * * *")
	v.SetDefault("jobs.stats_report_cron", "0 0 * * *")
}
