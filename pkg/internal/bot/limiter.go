package bot

import (
	"sync"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"

	"github.com/yeisme/filerelay/pkg/configs"
)

// userLimiter 按用户限流，长时间不活跃的用户由 LRU 过期淘汰.
type userLimiter struct {
	mu       sync.Mutex
	limiters *expirable.LRU[int64, *rate.Limiter]
	rps      rate.Limit
	burst    int
}

// newUserLimiter user_rps 为 0 时返回 nil，表示不限流.
func newUserLimiter(cfg configs.BotConfig) *userLimiter {
	if cfg.UserRPS <= 0 {
		return nil
	}

	size := cfg.UserLimiterSize
	if size <= 0 {
		size = configs.DefaultBotUserLimiterSize
	}

	burst := cfg.UserBurst
	if burst <= 0 {
		burst = 1
	}

	return &userLimiter{
		limiters: expirable.NewLRU[int64, *rate.Limiter](size, nil, cfg.UserLimiterTTL),
		rps:      rate.Limit(cfg.UserRPS),
		burst:    burst,
	}
}

// Allow 消耗一个令牌.
func (l *userLimiter) Allow(userID int64) bool {
	if l == nil {
		return true
	}

	l.mu.Lock()

	lim, ok := l.limiters.Get(userID)
	if !ok {
		lim = rate.NewLimiter(l.rps, l.burst)
		l.limiters.Add(userID, lim)
	}

	l.mu.Unlock()

	return lim.Allow()
}
