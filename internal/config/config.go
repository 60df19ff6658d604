// 包 config 负责加载与校验应用配置（settings.yaml），
// 对外提供结构体 Config 及默认值/合法性校验。
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Apps        []App    `yaml:"APPS"`
	SnapshotDir string   `yaml:"SNAPSHOT_DIR"`
	LogDir      string   `yaml:"LOG_DIR"`
	Theme       string   `yaml:"THEME"`
	Database    Database `yaml:"DATABASE"`
	Fetch       Fetch    `yaml:"FETCH"`
	Proxy       Proxy    `yaml:"PROXY"`
	LogLevel    string   `yaml:"LOG_LEVEL"`
	LogFormat   string   `yaml:"LOG_FORMAT"` // text|json|pretty
	LogLocale   string   `yaml:"LOG_LOCALE"` // zh-CN|en
	LogColor    string   `yaml:"LOG_COLOR"`  // auto|always|never
}

// App 为待抓取的应用：展示名与商店页面地址。
type App struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

type Database struct {
	Type string `yaml:"type"` // sqlite (default) | postgres
	DSN  string `yaml:"dsn"`
}

type Fetch struct {
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"user_agent"`
}

type Proxy struct {
	HTTP  string `yaml:"http"`
	HTTPS string `yaml:"https"`
}

const (
	DefaultSnapshotDir = "app_store_ranking"
	DefaultLogDir      = "log"
	DefaultSQLiteDSN   = "./database/app_store.db"
)

// Load 读取 .env（若存在）与 YAML，展开 ${VAR} 后反序列化并校验。
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	expanded := os.ExpandEnv(string(b))
	var c Config
	if err := yaml.Unmarshal([]byte(expanded), &c); err != nil {
		return nil, fmt.Errorf("unmarshal config %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

// Validate 负责合法性检查与默认值设置，避免在业务层分散判空逻辑。
func (c *Config) Validate() error {
	for i, a := range c.Apps {
		if strings.TrimSpace(a.URL) == "" {
			return fmt.Errorf("APPS[%d] url required", i)
		}
		if strings.TrimSpace(a.Name) == "" {
			return fmt.Errorf("APPS[%d] name required", i)
		}
	}
	if c.SnapshotDir == "" {
		c.SnapshotDir = DefaultSnapshotDir
	}
	if c.LogDir == "" {
		c.LogDir = DefaultLogDir
	}
	c.Database.Type = strings.ToLower(strings.TrimSpace(c.Database.Type))
	switch c.Database.Type {
	case "", "sqlite":
		c.Database.Type = "sqlite"
		if c.Database.DSN == "" {
			c.Database.DSN = DefaultSQLiteDSN
		}
	case "postgres", "postgresql":
		c.Database.Type = "postgres"
		if c.Database.DSN == "" {
			return errors.New("DATABASE.dsn required for postgres")
		}
	default:
		return fmt.Errorf("unsupported database type: %s", c.Database.Type)
	}
	if c.Fetch.Timeout < 0 {
		return errors.New("FETCH.timeout must be >= 0")
	}
	if c.Fetch.Timeout == 0 {
		c.Fetch.Timeout = 25 * time.Second
	}
	if c.LogFormat == "" {
		c.LogFormat = "pretty"
	}
	if c.LogLocale == "" {
		c.LogLocale = "zh-CN"
	}
	if c.LogColor == "" {
		c.LogColor = "auto"
	}
	return nil
}
