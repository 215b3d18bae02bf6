package config

import (
	"github.com/rushteam/cfkit/pkg/logging"
)

// Logging 转换为 logging.Config，输出到 os.Stderr。
func (c LogConfig) Logging() logging.Config {
	return logging.Config{
		Level:  c.Level,
		Format: c.Format,
	}
}

// InitLogging 按 log.level / log.format 重新配置全局 logger（logging.L）。
func (c *Config) InitLogging() {
	logging.Init(c.Log.Logging())
}
