package queue

// 主题命名规范：fr.<域>.<动作>.
const (
	// 文件领域.
	TopicFileStored     = "fr.file.stored"     // 文件已转存并写入日志镜像，索引可见
	TopicFileDownloaded = "fr.file.downloaded" // 文件已重新投递给请求者

	// 统计领域.
	TopicStatsReported = "fr.stats.reported" // 定时统计报告
)

var (
	// FileTopics 文件相关主题.
	FileTopics = []string{TopicFileStored, TopicFileDownloaded}

	// StatsTopics 统计相关主题.
	StatsTopics = []string{TopicStatsReported}
)

// AllTopics 返回全部主题.
func AllTopics() []string {
	return append(append([]string{}, FileTopics...), StatsTopics...)
}
