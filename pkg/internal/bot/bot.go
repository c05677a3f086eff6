// Package bot 实现 Telegram 机器人的更新分发与交互界面.
//
// 每个更新在独立的 goroutine 中处理，并发数由 bot.workers 限制；单个更新 panic 只影响自身.
// 机器人只负责界面：上传与取回都委托给 service.RelayService.
package bot

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/yeisme/filerelay/pkg/configs"
	"github.com/yeisme/filerelay/pkg/internal/service"
	"github.com/yeisme/filerelay/pkg/internal/telegram"
	"github.com/yeisme/filerelay/pkg/internal/templates"
	"github.com/yeisme/filerelay/pkg/log"
	"github.com/yeisme/filerelay/pkg/metrics"
	"github.com/yeisme/filerelay/pkg/tracing"
)

// Deps 机器人依赖的服务.
type Deps struct {
	Relay     *service.RelayService
	Stats     *service.StatsService
	Templates *templates.Store
}

// Bot Telegram 机器人.
type Bot struct {
	api       telegram.API
	cfg       configs.BotConfig
	relay     *service.RelayService
	stats     *service.StatsService
	templates *templates.Store
	limiter   *userLimiter
	sem       chan struct{}
	wg        sync.WaitGroup
	logger    *zerolog.Logger
}

// New 创建机器人.
func New(api telegram.API, cfg configs.BotConfig, deps Deps) *Bot {
	workers := cfg.Workers
	if workers <= 0 {
		workers = configs.DefaultBotWorkers
	}

	if cfg.ListLimit <= 0 {
		cfg.ListLimit = configs.DefaultBotListLimit
	}

	return &Bot{
		api:       api,
		cfg:       cfg,
		relay:     deps.Relay,
		stats:     deps.Stats,
		templates: deps.Templates,
		limiter:   newUserLimiter(cfg),
		sem:       make(chan struct{}, workers),
		logger:    log.Component("bot"),
	}
}

// RegisterCommands 向 Telegram 注册命令列表.
func (b *Bot) RegisterCommands() error {
	if _, err := b.api.Request(tgbotapi.NewSetMyCommands(commands()...)); err != nil {
		return fmt.Errorf("set bot commands: %w", err)
	}

	b.logger.Info().Int("commands", len(commands())).Msg("bot commands configured")

	return nil
}

// Run 消费更新直到 ctx 取消或通道关闭，返回前等待处理中的更新完成.
func (b *Bot) Run(ctx context.Context, updates <-chan tgbotapi.Update) error {
	defer b.wg.Wait()

	for {
		select {
		case <-ctx.Done():
			return nil
		case u, ok := <-updates:
			if !ok {
				return nil
			}

			select {
			case b.sem <- struct{}{}:
			case <-ctx.Done():
				return nil
			}

			b.wg.Add(1)

			go func(u tgbotapi.Update) {
				defer func() {
					<-b.sem
					b.wg.Done()
				}()

				b.Handle(ctx, u)
			}(u)
		}
	}
}

// Handle 同步处理单个更新，panic 会被恢复并记录.
func (b *Bot) Handle(ctx context.Context, u tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error().Interface("panic", r).Int("update", u.UpdateID).Bytes("stack", debug.Stack()).
				Msg("update handler panicked")
		}
	}()

	ctx, span := tracing.StartSpan(ctx, "bot.Update")
	defer span.End()

	switch {
	case u.CallbackQuery != nil:
		metrics.UpdatesTotal.WithLabelValues("callback").Inc()
		b.onCallback(ctx, u.CallbackQuery)
	case u.Message != nil && u.Message.From != nil:
		metrics.UpdatesTotal.WithLabelValues("message").Inc()
		b.onMessage(ctx, u.Message)
	default:
		metrics.UpdatesTotal.WithLabelValues("ignored").Inc()
	}
}

func (b *Bot) reply(chatID int64, text string, markup any) (tgbotapi.Message, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.DisableWebPagePreview = true

	if markup != nil {
		msg.ReplyMarkup = markup
	}

	sent, err := b.api.Send(msg)
	if err != nil {
		b.logger.Warn().Err(err).Int64("chat", chatID).Msg("send message failed")
	}

	return sent, err
}

func (b *Bot) edit(chatID int64, messageID int, text string, markup *tgbotapi.InlineKeyboardMarkup) {
	cfg := tgbotapi.NewEditMessageText(chatID, messageID, text)
	cfg.ParseMode = tgbotapi.ModeMarkdown
	cfg.DisableWebPagePreview = true
	cfg.ReplyMarkup = markup

	if _, err := b.api.Request(cfg); err != nil {
		b.logger.Warn().Err(err).Int64("chat", chatID).Int("message", messageID).Msg("edit message failed")
	}
}

func (b *Bot) answer(callbackID, text string, alert bool) {
	cfg := tgbotapi.NewCallback(callbackID, text)
	if alert {
		cfg = tgbotapi.NewCallbackWithAlert(callbackID, text)
	}

	if _, err := b.api.Request(cfg); err != nil {
		b.logger.Debug().Err(err).Msg("answer callback failed")
	}
}

func ptr[T any](v T) *T { return &v }
