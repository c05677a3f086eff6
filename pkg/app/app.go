// Package app 负责组装 filerelay 的全部组件并管理它们的生命周期.
//
// 启动顺序：日志 → 追踪 → 监控 → 存储 → Telegram 客户端 → 镜像 → 服务 → 调度器 → HTTP.
// Run 阻塞到收到退出信号或任一组件失败，随后按相反顺序关闭.
package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/yeisme/filerelay/pkg/cache"
	"github.com/yeisme/filerelay/pkg/configs"
	ctxPkg "github.com/yeisme/filerelay/pkg/context"
	"github.com/yeisme/filerelay/pkg/internal/bot"
	"github.com/yeisme/filerelay/pkg/internal/gateway"
	"github.com/yeisme/filerelay/pkg/internal/jobs"
	"github.com/yeisme/filerelay/pkg/internal/mirror"
	"github.com/yeisme/filerelay/pkg/internal/registry"
	"github.com/yeisme/filerelay/pkg/internal/router"
	"github.com/yeisme/filerelay/pkg/internal/service"
	"github.com/yeisme/filerelay/pkg/internal/storage"
	"github.com/yeisme/filerelay/pkg/internal/telegram"
	"github.com/yeisme/filerelay/pkg/internal/templates"
	"github.com/yeisme/filerelay/pkg/log"
	"github.com/yeisme/filerelay/pkg/metrics"
	"github.com/yeisme/filerelay/pkg/middleware"
	"github.com/yeisme/filerelay/pkg/scheduler"
	"github.com/yeisme/filerelay/pkg/tracing"
)

// shutdownTimeout 优雅退出的最长等待时间.
const shutdownTimeout = 15 * time.Second

// App 运行期的全部组件.
type App struct {
	config   *configs.AppConfig
	storage  *storage.Manager
	api      *tgbotapi.BotAPI
	bot      *bot.Bot
	journal  *mirror.JournalSink
	services *ctxPkg.Services
	engine   *gin.Engine
	logger   *zerolog.Logger
}

// New 按配置组装应用，配置需已通过 Validate.
func New(ctx context.Context, config *configs.AppConfig) (*App, error) {
	log.Init()

	a := &App{config: config, logger: log.Component("app")}

	if err := tracing.InitTracer(ctx, config.Tracing); err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	if err := metrics.InitMetrics(config.Metrics); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	if config.Metrics.Enabled {
		metrics.NewGauge("build_info", "Build information", []string{"version"}).
			WithLabelValues(configs.AppVersion).Set(1)
	}

	manager, err := storage.New(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	a.storage = manager

	if err := a.initServices(ctx); err != nil {
		_ = a.Close()

		return nil, err
	}

	a.initEngine()

	return a, nil
}

// initServices 创建 Telegram 客户端、镜像、索引与业务服务.
func (a *App) initServices(ctx context.Context) error {
	config := a.config

	api, err := telegram.New(config.Bot)
	if err != nil {
		return err
	}

	a.api = api

	breaker := telegram.NewBreaker("telegram", config.CircuitBreaker.Telegram)

	var secondary []mirror.Sink

	if config.Mirror.Journal.Enabled {
		a.journal = mirror.NewJournalSink(config.Mirror.Journal)
		secondary = append(secondary, a.journal)
	}

	if a.storage.S3 != nil {
		secondary = append(secondary, mirror.NewObjectSink(a.storage.S3, config.Mirror.Object.Prefix))
	}

	if config.Events.Enabled {
		secondary = append(secondary, mirror.NewQueueSink(a.storage.MQ.Publisher(), config.Events))
	}

	m := mirror.New(
		mirror.NewTelegramSink(api, config.Bot.LogsChannelID, breaker),
		mirror.WithSecondary(secondary...),
		mirror.WithLogger(log.Component("mirror")),
		mirror.WithFailureHook(func(sink, op string) {
			metrics.MirrorFailures.WithLabelValues(sink, op).Inc()
		}),
	)

	reg := registry.New()

	relay := service.NewRelayService(reg,
		gateway.NewTelegram(api, config.Bot.FilesChannelID, breaker),
		m,
		service.WithBotUserName(api.Self.UserName),
		service.WithIDAttempts(config.Bot.IDAttempts),
	)
	stats := service.NewStatsService(reg, config.Bot.FilesChannelID, config.Bot.LogsChannelID)

	tmpl := templates.New(a.storage.KV, config.Templates)
	if err := tmpl.Seed(ctx, config.Templates.File); err != nil {
		return fmt.Errorf("seed templates: %w", err)
	}

	sched, err := scheduler.NewScheduler()
	if err != nil {
		return fmt.Errorf("create scheduler: %w", err)
	}

	err = jobs.RegisterCronJobs(ctx, sched, config.Jobs, jobs.Deps{
		Stats:     stats,
		Publisher: a.storage.MQ.Publisher(),
		Events:    config.Events,
	})
	if err != nil {
		return fmt.Errorf("register jobs: %w", err)
	}

	a.services = &ctxPkg.Services{Relay: relay, Stats: stats, Templates: tmpl, Scheduler: sched}
	a.bot = bot.New(api, config.Bot, bot.Deps{Relay: relay, Stats: stats, Templates: tmpl})

	return nil
}

// initEngine 组装管理接口的中间件链与路由.
func (a *App) initEngine() {
	config := a.config

	l := log.Logger()
	gin.DefaultWriter = log.NewGinWriter(l, zerolog.InfoLevel)
	gin.DefaultErrorWriter = log.NewGinWriter(l, zerolog.ErrorLevel)

	engine := gin.New()
	engine.Use(
		gin.Recovery(),
		middleware.GinLoggerMiddleware(),
		middleware.CORSMiddleware(config.Server),
	)

	if config.Server.Gzip {
		engine.Use(middleware.GzipMiddleware())
	}

	engine.Use(
		middleware.TracingMiddleware(),
		middleware.PrometheusMiddleware(),
		middleware.RateLimitMiddleware(config.RateLimit),
		middleware.CircuitBreakerMiddleware(config.CircuitBreaker.HTTP),
		middleware.AuthMiddleware(config.Auth),
		middleware.InjectMiddleware(a.storage, a.services),
	)

	statsCache := cache.NewCache(a.storage.KV, cache.WithPrefix("filerelay:http:"))
	router.Register(engine, router.Options{
		StatsCache:     middleware.CacheMiddleware(statsCache, config.Server.StatsCacheTTL),
		ImportMaxBytes: config.Server.ImportMaxBytes,
	})

	router.RegisterSwaggerRoute(engine, config.Server)

	_ = metrics.StartMetricsServer(config.Metrics, engine)

	a.engine = engine
}

// Engine 返回 HTTP 引擎，便于测试.
func (a *App) Engine() *gin.Engine { return a.engine }

// Run 启动机器人、调度器与 HTTP 服务，直到 ctx 取消或任一组件返回错误.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	if err := a.bot.RegisterCommands(); err != nil {
		a.logger.Warn().Err(err).Msg("register bot commands failed")
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = a.config.Bot.PollTimeout
	updates := a.api.GetUpdatesChan(u)

	g.Go(func() error {
		a.logger.Info().Str("bot", a.api.Self.UserName).Msg("bot polling started")

		return a.bot.Run(ctx, updates)
	})

	g.Go(func() error {
		<-ctx.Done()
		a.api.StopReceivingUpdates()

		return nil
	})

	a.services.Scheduler.Start()

	g.Go(func() error {
		<-ctx.Done()

		return a.services.Scheduler.Shutdown()
	})

	if a.config.Server.Enabled {
		srv := &http.Server{
			Addr:              net.JoinHostPort(a.config.Server.Host, strconv.Itoa(a.config.Server.Port)),
			Handler:           a.engine,
			ReadHeaderTimeout: a.config.Server.GetTimeoutDuration(),
		}

		g.Go(func() error {
			a.logger.Info().Str("addr", srv.Addr).Msg("http server listening")

			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http server: %w", err)
			}

			return nil
		})

		g.Go(func() error {
			<-ctx.Done()

			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
			defer cancel()

			return srv.Shutdown(shutdownCtx)
		})
	}

	err := g.Wait()

	a.logger.Info().Int("files", a.services.Relay.Registry().Len()).Msg("filerelay stopped")

	return err
}

// Close 释放存储、本地镜像与追踪资源.
func (a *App) Close() error {
	var errs []error

	if a.journal != nil {
		errs = append(errs, a.journal.Close())
	}

	if a.storage != nil {
		errs = append(errs, a.storage.Close())
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	errs = append(errs, tracing.ShutdownTracer(ctx))

	return errors.Join(errs...)
}
