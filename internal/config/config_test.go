// config_test.go — 配置加载默认值 + 环境变量覆盖测试。
package config

import (
	"os"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	// 确保关键环境变量未设置
	os.Unsetenv("BRIDGE_LISTEN_ADDR")
	os.Unsetenv("PUBLISH_MIN_INTERVAL_MS")
	os.Unsetenv("POSTGRES_SCHEMA")

	cfg := Load()

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"ListenAddr", cfg.ListenAddr, ":8080"},
		{"ChatAPIBaseURL", cfg.ChatAPIBaseURL, "https://open.feishu.cn/open-apis"},
		{"ChatTimeoutSec", cfg.ChatTimeoutSec, 15},
		{"PublishMinIntervalMS", cfg.PublishMinIntervalMS, 350},
		{"BodyMaxChars", cfg.BodyMaxChars, 4000},
		{"PostgresSchema", cfg.PostgresSchema, "public"},
		{"PostgresPoolMinSize", cfg.PostgresPoolMinSize, 1},
		{"PostgresPoolMaxSize", cfg.PostgresPoolMaxSize, 10},
		{"PostgresPoolTimeoutSec", cfg.PostgresPoolTimeoutSec, 10},
		{"LogLevel", cfg.LogLevel, "INFO"},
		{"LogRetentionDays", cfg.LogRetentionDays, 30},
		{"LogEnv", cfg.LogEnv, "production"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
			}
		})
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("BRIDGE_LISTEN_ADDR", ":9000")
	t.Setenv("PUBLISH_MIN_INTERVAL_MS", "500")
	t.Setenv("POSTGRES_SCHEMA", "test_schema")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg := Load()

	if cfg.ListenAddr != ":9000" {
		t.Errorf("ListenAddr = %q, want ':9000'", cfg.ListenAddr)
	}
	if cfg.PublishMinIntervalMS != 500 {
		t.Errorf("PublishMinIntervalMS = %d, want 500", cfg.PublishMinIntervalMS)
	}
	if cfg.PostgresSchema != "test_schema" {
		t.Errorf("PostgresSchema = %q, want 'test_schema'", cfg.PostgresSchema)
	}
	if cfg.LogLevel != "DEBUG" {
		t.Errorf("LogLevel = %q, want 'DEBUG'", cfg.LogLevel)
	}
}

func TestLoadMinClamp(t *testing.T) {
	t.Setenv("BODY_MAX_CHARS", "5")
	cfg := Load()
	if cfg.BodyMaxChars != 100 {
		t.Errorf("BodyMaxChars = %d, want clamped to 100", cfg.BodyMaxChars)
	}
}
