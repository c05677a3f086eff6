// Package telegram 封装 Telegram Bot API 客户端的创建与熔断保护.
package telegram

import (
	"errors"
	"fmt"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sony/gobreaker"

	"github.com/yeisme/filerelay/pkg/configs"
	"github.com/yeisme/filerelay/pkg/log"
)

// Sender 发送消息的最小接口，*tgbotapi.BotAPI 满足该接口.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// API 机器人交互所需的接口（发送消息、应答回调、删除消息等）.
type API interface {
	Sender
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// New 根据配置创建 Bot API 客户端，请求超时由 bot.request_timeout 控制.
func New(cfg configs.BotConfig) (*tgbotapi.BotAPI, error) {
	if cfg.Token == "" {
		return nil, errors.New("bot token is empty")
	}

	client := &http.Client{Timeout: cfg.GetRequestTimeout()}

	endpoint := cfg.APIEndpoint
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}

	api, err := tgbotapi.NewBotAPIWithClient(cfg.Token, endpoint, client)
	if err != nil {
		return nil, fmt.Errorf("create telegram client: %w", err)
	}

	api.Debug = cfg.Debug

	log.Logger().Info().Str("bot", api.Self.UserName).Msg("telegram client authorized")

	return api, nil
}

// Breaker 包装 gobreaker，未启用时直接执行.
type Breaker struct {
	cb *gobreaker.CircuitBreaker
}

// NewBreaker 基于熔断配置创建 Breaker.
func NewBreaker(name string, cfg configs.BreakerConfig) *Breaker {
	if !cfg.Enabled {
		return &Breaker{}
	}

	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequestsInHalf,
		Interval:    cfg.Interval(),
		Timeout:     cfg.Timeout(),
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return cfg.Trips(counts.Requests, counts.TotalFailures)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Logger().Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
				Msg("circuit breaker state changed")
		},
	}

	return &Breaker{cb: gobreaker.NewCircuitBreaker(settings)}
}

// Do 在熔断器保护下执行 fn，熔断打开时立即失败，不做重试.
func (b *Breaker) Do(fn func() error) error {
	if b == nil || b.cb == nil {
		return fn()
	}

	_, err := b.cb.Execute(func() (any, error) {
		return nil, fn()
	})

	return err
}
