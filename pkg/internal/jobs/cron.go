// Package jobs 注册与实现业务定时任务（基于 scheduler）.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/yeisme/filerelay/pkg/configs"
	"github.com/yeisme/filerelay/pkg/internal/service"
	"github.com/yeisme/filerelay/pkg/log"
	"github.com/yeisme/filerelay/pkg/metrics"
	"github.com/yeisme/filerelay/pkg/queue"
	"github.com/yeisme/filerelay/pkg/scheduler"
)

var (
	runsOnce sync.Once
	runs     *prometheus.CounterVec
)

// jobRuns 任务运行计数，首次使用时注册.
func jobRuns() *prometheus.CounterVec {
	runsOnce.Do(func() {
		runs = metrics.NewCounter("job_runs_total", "Scheduled job runs by job and result", []string{"job", "result"})
	})

	return runs
}

// Deps 任务依赖.pub 为 nil 时统计报告只写日志.
type Deps struct {
	Stats     *service.StatsService
	Publisher message.Publisher
	Events    configs.EventsConfig
}

// RegisterCronJobs 按配置注册业务定时任务：
//   - stats.snapshot 刷新索引规模指标
//   - stats.report 发布统计报告事件
func RegisterCronJobs(ctx context.Context, sched *scheduler.Scheduler, cfg configs.JobsConfig, deps Deps) error {
	if sched == nil {
		return errors.New("scheduler is nil")
	}

	if deps.Stats == nil {
		return errors.New("stats service is nil")
	}

	if !cfg.Enabled {
		return nil
	}

	if err := sched.AddCron(ctx, JobStatsSnapshot, cfg.StatsSnapshotCron, counted(JobStatsSnapshot, func(context.Context) error {
		StatsSnapshot(deps.Stats)

		return nil
	})); err != nil {
		return err
	}

	return sched.AddCron(ctx, JobStatsReport, cfg.StatsReportCron, counted(JobStatsReport, func(context.Context) error {
		return StatsReport(deps)
	}))
}

func counted(name string, task scheduler.Task) scheduler.Task {
	return func(ctx context.Context) error {
		err := task(ctx)

		result := metrics.ResultOK
		if err != nil {
			result = metrics.ResultError
		}

		jobRuns().WithLabelValues(name, result).Inc()

		return err
	}
}

// StatsSnapshot 刷新索引规模指标.
func StatsSnapshot(stats *service.StatsService) {
	g := stats.Global()
	metrics.SetRegistryStats(g.TotalFiles, g.TotalDownloads, g.DistinctUploaders)

	log.Component("jobs").Debug().Int("files", g.TotalFiles).Int64("downloads", g.TotalDownloads).
		Msg("registry stats snapshot")
}

// StatsReport 记录并发布一份全局统计报告.
func StatsReport(deps Deps) error {
	g := deps.Stats.Global()

	log.Component("jobs").Info().
		Int("files", g.TotalFiles).
		Int64("downloads", g.TotalDownloads).
		Int("uploaders", g.DistinctUploaders).
		Float64("avg_downloads", g.AvgDownloads).
		Msg("stats report")

	if deps.Publisher == nil || !deps.Events.Enabled || !deps.Events.Stats.Reported {
		return nil
	}

	if err := queue.PublishStatsReported(deps.Publisher, queue.StatsReportedPayload{
		TotalFiles:        g.TotalFiles,
		TotalDownloads:    g.TotalDownloads,
		DistinctUploaders: g.DistinctUploaders,
		AvgDownloads:      g.AvgDownloads,
	}, queue.WithProducer("jobs")); err != nil {
		return fmt.Errorf("publish stats report: %w", err)
	}

	return nil
}
