package configs_test

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/filerelay/pkg/configs"
)

func writeConfig(t *testing.T, path, token string, port int) {
	t.Helper()

	body := fmt.Sprintf(`bot:
  token: %q
  files_channel_id: -100
  logs_channel_id: -200
server:
  reload_config: true
  port: %d
`, token, port)

	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
}

func TestInitConfig_Defaults(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, filepath.Join(dir, "config.yaml"), "123:abc", 9090)

	require.NoError(t, configs.InitConfig(dir))

	cfg := configs.GetConfig()
	assert.Equal(t, "123:abc", cfg.Bot.Token)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, int64(configs.DefaultImportMax), cfg.Server.ImportMaxBytes)
	assert.NoError(t, cfg.Validate())
}

// TestInitConfig_HotReload 测试热重载整体替换配置，旧实例保持不变，无效配置被忽略.
func TestInitConfig_HotReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeConfig(t, path, "123:abc", 9090)

	require.NoError(t, configs.InitConfig(dir))

	before := configs.GetConfig()

	stop := make(chan struct{})

	var wg sync.WaitGroup

	wg.Add(1)

	go func() {
		defer wg.Done()

		for {
			select {
			case <-stop:
				return
			default:
				_ = configs.GetConfig().Server.Port
			}
		}
	}()

	writeConfig(t, path, "123:abc", 9191)

	assert.Eventually(t, func() bool {
		return configs.GetConfig().Server.Port == 9191
	}, 5*time.Second, 20*time.Millisecond)

	close(stop)
	wg.Wait()

	assert.Equal(t, 9090, before.Server.Port)

	// 缺少 token 的配置不生效
	writeConfig(t, path, "", 9292)
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, 9191, configs.GetConfig().Server.Port)
	assert.Equal(t, "123:abc", configs.GetConfig().Bot.Token)
}

func TestBreakerConfig_Trips(t *testing.T) {
	b := configs.BreakerConfig{FailureRate: 0.6, MinRequests: 5}

	assert.False(t, b.Trips(0, 0))
	assert.False(t, b.Trips(4, 4), "below min requests")
	assert.False(t, b.Trips(5, 2))
	assert.True(t, b.Trips(5, 3))
}

func TestInitConfig_TelegramBreakerDefaults(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, filepath.Join(dir, "config.yaml"), "123:abc", 9090)

	require.NoError(t, configs.InitConfig(dir))

	cb := configs.GetConfig().CircuitBreaker
	assert.False(t, cb.HTTP.Enabled)
	assert.True(t, cb.Telegram.Enabled)
	assert.Equal(t, uint32(1), cb.Telegram.MaxRequestsInHalf)
	assert.Equal(t, []string{"/api/v1/health", "/metrics"}, configs.GetConfig().RateLimit.SkipPaths)
}
