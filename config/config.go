package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix 环境变量前缀，如 TEXPREVIEW_SERVER_PORT
const EnvPrefix = "TEXPREVIEW"

// Config 应用程序配置
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Render   RenderConfig   `mapstructure:"render"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Database DatabaseConfig `mapstructure:"database"`
	Log      LogConfig      `mapstructure:"log"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Mode         string        `mapstructure:"mode"` // debug / release / test
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	CORS         bool          `mapstructure:"cors"` // 允许单独部署的页面跨域调用API
}

// Addr 监听地址
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// RenderConfig 渲染配置
type RenderConfig struct {
	KatexVersion    string        `mapstructure:"katex_version"`     // 前端加载的KaTeX版本
	TikzjaxOrigin   string        `mapstructure:"tikzjax_origin"`    // TikZJax 资源源站
	FitTimeout      time.Duration `mapstructure:"fit_timeout"`       // 图形自动适配的最长等待
	FitPollInterval time.Duration `mapstructure:"fit_poll_interval"` // 图形自动适配轮询间隔
	FitPadding      int           `mapstructure:"fit_padding"`       // 图形适配边距（像素）
	FrameHeight     int           `mapstructure:"frame_height"`      // 图形iframe高度（像素）
	MaxSourceBytes  int           `mapstructure:"max_source_bytes"`  // 单个文档最大字节数
}

// CacheConfig 缓存配置
type CacheConfig struct {
	Enable    bool          `mapstructure:"enable"`
	Type      string        `mapstructure:"type"` // memory 或 redis
	Address   string        `mapstructure:"address"`
	Password  string        `mapstructure:"password"`
	DB        int           `mapstructure:"db"`
	KeyPrefix string        `mapstructure:"key_prefix"`
	TTL       time.Duration `mapstructure:"ttl"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Enable bool   `mapstructure:"enable"`
	Type   string `mapstructure:"type"` // 目前只支持 sqlite
	DSN    string `mapstructure:"dsn"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"` // 为空时只输出到标准输出
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// Load 从 .env、配置文件和环境变量加载配置
// 配置文件不存在时使用默认值，环境变量优先级最高
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("Warning: failed to load .env: %v", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath == "" {
		configPath = "config.yaml"
	}
	v.SetConfigFile(configPath)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		log.Printf("Warning: config file not found at %s, using defaults", configPath)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate 检查配置取值
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port out of range: %d", c.Server.Port))
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		errs = append(errs, fmt.Errorf("server.mode must be debug, release or test: %q", c.Server.Mode))
	}
	if c.Render.MaxSourceBytes < 0 {
		errs = append(errs, errors.New("render.max_source_bytes cannot be negative"))
	}
	if c.Render.FitPollInterval <= 0 || c.Render.FitTimeout < c.Render.FitPollInterval {
		errs = append(errs, errors.New("render.fit_timeout must be at least render.fit_poll_interval"))
	}
	if c.Cache.Enable && c.Cache.Type != "memory" && c.Cache.Type != "redis" {
		errs = append(errs, fmt.Errorf("unsupported cache type: %q", c.Cache.Type))
	}
	if c.Database.Enable && c.Database.Type != "sqlite" {
		errs = append(errs, fmt.Errorf("unsupported database type: %q", c.Database.Type))
	}
	return errors.Join(errs...)
}

// setDefaults 设置默认值
// AutomaticEnv 只覆盖已知的键，结构体中的每个字段都必须在这里有默认值
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.cors", false)

	v.SetDefault("render.katex_version", "0.16.11")
	v.SetDefault("render.tikzjax_origin", "https://tikzjax.com")
	v.SetDefault("render.fit_timeout", "10s")
	v.SetDefault("render.fit_poll_interval", "100ms")
	v.SetDefault("render.fit_padding", 16)
	v.SetDefault("render.frame_height", 480)
	v.SetDefault("render.max_source_bytes", 256*1024)

	v.SetDefault("cache.enable", true)
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.address", "localhost:6379")
	v.SetDefault("cache.password", "")
	v.SetDefault("cache.db", 0)
	v.SetDefault("cache.key_prefix", "texpreview")
	v.SetDefault("cache.ttl", "1h")

	v.SetDefault("database.enable", true)
	v.SetDefault("database.type", "sqlite")
	v.SetDefault("database.dsn", "data/drafts.db")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)
	v.SetDefault("log.compress", false)
}

// Default 返回全部使用默认值的配置
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}
