// Package metrics 提供 Prometheus 监控指标.
//
// 除 HTTP 指标外，还包含上传、下载、镜像写入失败与索引规模等业务指标，
// 所有指标注册到包内独立的 registry，由 /metrics 暴露.
//
//	metrics.UploadsTotal.WithLabelValues("document", metrics.ResultOK).Inc()
package metrics

import (
	"net/http"
	_ "net/http/pprof" // 注册 pprof 处理器到 DefaultServeMux
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yeisme/filerelay/pkg/configs"
)

// Namespace 指标名前缀.
const Namespace = "filerelay"

// 结果标签取值.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// 全局指标变量.
var (
	// RequestCounter HTTP请求计数器.
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// RequestDuration HTTP请求持续时间.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// ActiveConnections 活跃连接数.
	ActiveConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "http_active_connections",
			Help:      "Number of active connections",
		},
	)

	// UpdatesTotal 机器人处理的更新数，按类型区分.
	UpdatesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "bot_updates_total",
			Help:      "Telegram updates handled by the dispatcher",
		},
		[]string{"type"},
	)

	// UploadsTotal 上传次数.
	UploadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "uploads_total",
			Help:      "File uploads by kind and result",
		},
		[]string{"kind", "result"},
	)

	// DownloadsTotal 下载次数.
	DownloadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "downloads_total",
			Help:      "File deliveries by kind and result",
		},
		[]string{"kind", "result"},
	)

	// MirrorFailures 镜像写入失败次数.
	MirrorFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "mirror_failures_total",
			Help:      "Failed log mirror writes by sink and operation",
		},
		[]string{"sink", "op"},
	)

	// GatewayDuration Telegram 网关调用耗时.
	GatewayDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "gateway_duration_seconds",
			Help:      "Telegram gateway call latency",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"op", "result"},
	)

	// RegistryFiles 索引中的文件数.
	RegistryFiles = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "registry_files",
		Help:      "Files currently held by the link registry",
	})

	// RegistryDownloads 索引中的累计下载数.
	RegistryDownloads = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "registry_downloads",
		Help:      "Sum of download counters in the link registry",
	})

	// RegistryUploaders 不同上传者数.
	RegistryUploaders = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "registry_uploaders",
		Help:      "Distinct uploaders in the link registry",
	})

	// registry Prometheus注册表.
	registry = prometheus.NewRegistry()
	initOnce sync.Once
)

// InitMetrics 初始化Metrics，重复调用只生效一次.
func InitMetrics(config configs.MetricsConfig) error {
	if !config.Enabled {
		return nil
	}

	var err error

	initOnce.Do(func() {
		reg := prometheus.WrapRegistererWith(prometheus.Labels(config.Labels), registry)

		if config.RuntimeMetrics {
			if err = reg.Register(collectors.NewGoCollector()); err != nil {
				return
			}

			if err = reg.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
				return
			}
		}

		for _, c := range []prometheus.Collector{
			RequestCounter, RequestDuration, ActiveConnections,
			UpdatesTotal, UploadsTotal, DownloadsTotal, MirrorFailures, GatewayDuration,
			RegistryFiles, RegistryDownloads, RegistryUploaders,
		} {
			if err = reg.Register(c); err != nil {
				return
			}
		}
	})

	return err
}

// StartMetricsServer 在 engine 上挂载 /metrics 以及可选的 pprof.
func StartMetricsServer(config configs.MetricsConfig, debugEngine *gin.Engine) error {
	if !config.Enabled {
		return nil
	}

	debugEngine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	if config.Pprof {
		debugEngine.GET("/debug/pprof/*any", gin.WrapH(http.DefaultServeMux))
	}

	return nil
}

// GetRegistry 获取Prometheus注册表.
func GetRegistry() *prometheus.Registry {
	return registry
}

// SetRegistryStats 刷新索引规模指标.
func SetRegistryStats(files int, downloads int64, uploaders int) {
	RegistryFiles.Set(float64(files))
	RegistryDownloads.Set(float64(downloads))
	RegistryUploaders.Set(float64(uploaders))
}

// NewCounter 创建并注册新的计数器指标.
func NewCounter(name, help string, labels []string) *prometheus.CounterVec {
	counter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      name,
			Help:      help,
		},
		labels,
	)
	registry.MustRegister(counter)

	return counter
}

// NewGauge 创建并注册新的仪表盘指标.
func NewGauge(name, help string, labels []string) *prometheus.GaugeVec {
	gauge := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      name,
			Help:      help,
		},
		labels,
	)
	registry.MustRegister(gauge)

	return gauge
}
