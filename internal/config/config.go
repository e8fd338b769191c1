// Package config 全局配置加载与管理。
//
// 所有字段通过 struct tag 声明环境变量映射:
//
//	`env:"VAR_NAME" default:"value" min:"0"`
//
// Load() 使用反射自动填充，无需手动逐行赋值。
package config

import (
	"github.com/multi-agent/agent-card-bridge/pkg/util"
)

// Config 应用全局配置，字段名与 .env 变量一一对应。
type Config struct {
	// HTTP 服务
	ListenAddr string `env:"BRIDGE_LISTEN_ADDR" default:":8080"`

	// 聊天平台 (对外发布卡片消息)
	ChatAPIBaseURL string `env:"CHAT_API_BASE_URL" default:"https://open.feishu.cn/open-apis"`
	ChatAPIToken   string `env:"CHAT_API_TOKEN"`
	ChatReceiveID  string `env:"CHAT_RECEIVE_ID"`
	ChatTimeoutSec int    `env:"CHAT_TIMEOUT_SEC" default:"15" min:"1"`

	// 发布节流
	PublishMinIntervalMS int `env:"PUBLISH_MIN_INTERVAL_MS" default:"350" min:"0"`

	// 卡片正文截断上限 (rune 数)
	BodyMaxChars int `env:"BODY_MAX_CHARS" default:"4000" min:"100"`

	// PostgreSQL (可选, 仅用于审计日志; 为空则禁用)
	PostgresConnStr        string `env:"POSTGRES_CONNECTION_STRING"`
	PostgresSchema         string `env:"POSTGRES_SCHEMA" default:"public"`
	PostgresPoolMinSize    int    `env:"POSTGRES_POOL_MIN_SIZE" default:"1" min:"1"`
	PostgresPoolMaxSize    int    `env:"POSTGRES_POOL_MAX_SIZE" default:"10" min:"1"`
	PostgresPoolTimeoutSec int    `env:"POSTGRES_POOL_TIMEOUT_SEC" default:"10" min:"1"`

	// 日志
	LogLevel         string `env:"LOG_LEVEL" default:"INFO"`
	LogRetentionDays int    `env:"LOG_RETENTION_DAYS" default:"30" min:"1"`
	LogEnv           string `env:"LOG_ENV" default:"production"`
}

// Load 从环境变量加载配置 (通过反射读取 struct tag)。
func Load() *Config {
	var cfg Config
	util.LoadFromEnv(&cfg)
	return &cfg
}
