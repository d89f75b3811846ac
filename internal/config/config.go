package config

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/sethvargo/go-envconfig"
	log "github.com/sirupsen/logrus"
)

type (
	Config struct {
		TelegramAPIToken string   `env:"TOKEN,required"`
		DefaultLanguage  string   `env:"LANG,default=en"`
		EnabledModules   []string `env:"MODULES"`
		DisabledModules  []string `env:"MODULES_NOLOAD"`
		SudoUserIDs      []int64  `env:"SUDO_USERS"`
		LogChatID        int64    `env:"LOG_CHAT_ID"`
		LogLevel         int      `env:"LOG_LEVEL,default=4"`
		DotPath          string   `env:"DOT_PATH,default=~/.butcherbot"`
		MetricsAddr      string   `env:"METRICS_ADDR,default=:2112"`
		Cleaner          Cleaner
		Translate        Translate
		Music            Music
	}

	Cleaner struct {
		Whitelist []string `env:"CLEANER_WHITELIST,default=start,help,settings"`
	}

	Translate struct {
		DeepLAPIKey string `env:"DEEPL_API_KEY"`
		LLMAPIKey   string `env:"LLM_API_KEY"`
		LLMModel    string `env:"LLM_API_MODEL,default=gpt-4o-mini"`
		LLMBaseURL  string `env:"LLM_API_URL,default=https://api.openai.com/v1"`
		LLMType     string `env:"LLM_API_TYPE,default=openai"`
	}

	Music struct {
		CatalogBaseURL  string        `env:"MUSIC_API_URL"`
		CatalogAPIKey   string        `env:"MUSIC_API_KEY"`
		DownloadTimeout time.Duration `env:"MUSIC_DOWNLOAD_TIMEOUT,default=3m"`
		MaxDuration     time.Duration `env:"MUSIC_MAX_DURATION,default=30m"`
	}
)

var (
	once         sync.Once
	globalConfig = &Config{}
	globalErr    error
)

func Load() (Config, error) {
	once.Do(func() {
		cfg := &Config{}
		envcfg := envconfig.Config{
			Lookuper: envconfig.PrefixLookuper("BB_", envconfig.OsLookuper()),
			Target:   cfg,
		}
		if err := envconfig.ProcessWith(context.Background(), &envcfg); err != nil {
			globalErr = fmt.Errorf("process env config: %w", err)
			return
		}
		home, err := os.UserHomeDir()
		if err != nil {
			globalErr = fmt.Errorf("get user home directory: %w", err)
			return
		}
		cfg.DotPath = strings.Replace(cfg.DotPath, "~", home, 1)
		log.Traceln("loaded config")
		globalConfig = cfg
	})
	return *globalConfig, globalErr
}

func Get() Config {
	cfg, err := Load()
	if err != nil {
		log.WithField("error", err.Error()).Error("cant load config")
	}
	return cfg
}
