package jobs

// 任务名称.
const (
	JobStatsSnapshot = "stats.snapshot"
	JobStatsReport   = "stats.report"
)
