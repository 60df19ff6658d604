package cli

import (
	"errors"
	"io"
	"os"

	"go-app-ranking/internal/config"
	"go-app-ranking/internal/logx"
	"go-app-ranking/internal/model"
	"go-app-ranking/internal/rules"
	"go-app-ranking/internal/store"
)

// 日志文件前缀，按命令区分。
const (
	captureLogPrefix = "app_store_crawler"
	importLogPrefix  = "json_to_db"
)

// setup 加载配置并初始化日志（控制台 + 当日日志文件）。
// 返回的 io.Closer 用于关闭日志文件。
func setup(g *globalOpts, logPrefix string) (*config.Config, io.Closer, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return nil, nil, err
	}
	f, err := logx.OpenDailyFile(cfg.LogDir, logPrefix, model.Now())
	if err != nil {
		return nil, nil, err
	}
	logx.Init(logx.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Locale: cfg.LogLocale,
		Color:  cfg.LogColor,
		File:   f,
	})
	return cfg, f, nil
}

// loadAppPage 读取 rules.yaml 中当前主题的规则；文件不存在时使用内置规则。
func loadAppPage(g *globalOpts, theme string) rules.AppPage {
	var rl *rules.Rules
	if g.rulesPath != "" {
		r, err := rules.Load(g.rulesPath)
		switch {
		case err == nil:
			rl = r
		case errors.Is(err, os.ErrNotExist):
			logx.Debugf("未找到规则文件 %s，使用内置规则", g.rulesPath)
		default:
			logx.Warnf("加载规则失败，使用内置规则：%v", err)
		}
	}
	return rl.AppPageFor(theme)
}

// openStore 按配置打开数据库；dsn 非空时覆盖配置中的 DSN。
func openStore(cfg *config.Config, dsn string) (*store.DB, error) {
	if dsn == "" {
		dsn = cfg.Database.DSN
	}
	logx.Debugf("打开数据库：类型=%s", cfg.Database.Type)
	return store.Open(cfg.Database.Type, dsn)
}
