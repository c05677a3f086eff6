// Package configs 管理 filerelay 的全部配置.
//
// 支持 YAML、JSON、TOML、dotenv 等格式，启动时会先尝试加载工作目录下的 .env，
// 环境变量统一使用 FILERELAY_ 前缀，同时兼容 BOT_TOKEN 等历史变量名.
//
// Example:
//
//	if err := configs.InitConfig("./"); err != nil {
//		log.Fatal(err)
//	}
//
//	cfg := configs.GetConfig()
//	fmt.Println(cfg.Bot.FilesChannelID)
package configs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/yeisme/filerelay/pkg/rule"
)

// AppVersion 应用版本.
const AppVersion = "1.0.0"

// EnvPrefix 环境变量前缀.
const EnvPrefix = "FILERELAY"

type (
	// AppConfig 全局应用程序配置.
	AppConfig struct {
		Bot            BotConfig            `mapstructure:"bot"`
		Mirror         MirrorConfig         `mapstructure:"mirror"`
		Templates      TemplatesConfig      `mapstructure:"templates"`
		Server         ServerConfig         `mapstructure:"server"`
		Log            LogConfig            `mapstructure:"log"`
		KV             KVConfig             `mapstructure:"kv"`
		MQ             MQConfig             `mapstructure:"mq"`
		Events         EventsConfig         `mapstructure:"events"`
		Metrics        MetricsConfig        `mapstructure:"metrics"`
		Tracing        TracingConfig        `mapstructure:"tracing"`
		Auth           AuthConfig           `mapstructure:"auth"`
		RateLimit      RateLimitConfig      `mapstructure:"rate_limit"`
		CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
		Jobs           JobsConfig           `mapstructure:"jobs"`
	}
)

var (
	// globalConfig 当前生效的配置，热重载时整体替换.
	globalConfig atomic.Pointer[AppConfig]
	// appViper 全局 Viper 实例.
	appViper *viper.Viper
)

// legacyEnv 兼容的历史环境变量名.
var legacyEnv = map[string]string{
	"bot.token":               "BOT_TOKEN",
	"bot.files_channel_id":    "FILES_CHANNEL_ID",
	"bot.logs_channel_id":     "LOGS_CHANNEL_ID",
	"bot.backup_channel_link": "BACKUP_CHANNEL_LINK",
	"bot.admin_ids":           "ADMIN_USER_IDS",
}

// InitConfig 加载应用程序配置，找不到配置文件时仅使用默认值与环境变量.
func InitConfig(path string) error {
	// .env 不存在是正常情况
	_ = godotenv.Load()

	appViper = viper.New()
	setAllDefaults(appViper)

	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		appViper.SetConfigFile(path)
	} else {
		appViper.SetConfigName("config")
		appViper.AddConfigPath(path)
		appViper.AddConfigPath(filepath.Join(path, "configs"))

		exts := []string{"yaml", "yml", "json", "toml", "env", "dotenv"}

		for _, ext := range exts {
			cfg := filepath.Join(path, "config."+ext)
			if _, err := os.Stat(cfg); err == nil {
				appViper.SetConfigFile(cfg)

				break
			}
		}
	}

	appViper.SetEnvPrefix(EnvPrefix)
	appViper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	appViper.AutomaticEnv()

	for key, env := range legacyEnv {
		if err := appViper.BindEnv(key, EnvPrefix+"_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return fmt.Errorf("failed to bind env %s: %w", env, err)
		}
	}

	if err := appViper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := new(AppConfig)
	if err := appViper.Unmarshal(cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	globalConfig.Store(cfg)
	reloadConfigs(appViper, cfg.Server.ReloadConfig)

	return nil
}

// Validate 按 rule 标签校验整份配置.
func (c *AppConfig) Validate() error {
	if err := rule.ValidateStruct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	return nil
}

// setAllDefaults 设置所有配置的默认值.
func setAllDefaults(v *viper.Viper) {
	var c AppConfig

	c.Bot.setDefaults(v)
	c.Mirror.setDefaults(v)
	c.Templates.setDefaults(v)
	c.Server.setDefaults(v)
	c.Log.setDefaults(v)
	c.KV.setDefaults(v)
	c.MQ.setDefaults(v)
	c.Events.setDefaults(v)
	c.Metrics.setDefaults(v)
	c.Tracing.setDefaults(v)
	c.Auth.setDefaults(v)
	c.RateLimit.setDefaults(v)
	c.CircuitBreaker.setDefaults(v)
	c.Jobs.setDefaults(v)
}

func reloadConfigs(v *viper.Viper, isHotReload bool) {
	if !isHotReload || v.ConfigFileUsed() == "" {
		return
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		next, err := reload(v)
		if err != nil {
			log.Warn().Err(err).Str("file", e.Name).Msg("config reload ignored")

			return
		}

		globalConfig.Store(next)
		log.Info().Str("file", e.Name).Msg("config reloaded")
	})
	v.WatchConfig()
}

// reload 重新解析并校验配置，失败时保留旧配置.
func reload(v *viper.Viper) (*AppConfig, error) {
	next := new(AppConfig)
	if err := v.Unmarshal(next); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := next.Validate(); err != nil {
		return nil, err
	}

	return next, nil
}

// GetConfig 返回当前生效的配置.
// 热重载只替换指针，已取得的实例不会被并发修改.
func GetConfig() *AppConfig {
	if cfg := globalConfig.Load(); cfg != nil {
		return cfg
	}

	// 未调用 InitConfig 时返回零值配置
	globalConfig.CompareAndSwap(nil, new(AppConfig))

	return globalConfig.Load()
}

// GetViper 返回全局 Viper 实例.
func GetViper() *viper.Viper {
	return appViper
}
