// Package logging 基于 zerolog 提供统一的结构化日志。
//
//	logging.Init(logging.Config{Level: "debug", Format: "console"})
//	logging.L().Info().Str("user", userID).Msg("recommend")
//
// 请求级日志通过 ctx 透传：service 把带 request_id 的 logger 放进 ctx，
// Pipeline 中的 Node 用 zerolog.Ctx(ctx) 取出。
package logging

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Config 日志配置。
type Config struct {
	// Level: trace / debug / info / warn / error / disabled，默认 info
	Level string
	// Format: json / console，默认 json
	Format string
	// Output 默认 os.Stderr
	Output io.Writer
}

var (
	mu     sync.RWMutex
	global = New(Config{})
)

// New 按配置创建一个 logger，不修改全局状态。
func New(cfg Config) zerolog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	if strings.EqualFold(cfg.Format, "console") {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.TimeOnly}
	}
	return zerolog.New(out).
		Level(ParseLevel(cfg.Level)).
		With().Timestamp().
		Logger()
}

// Init 重新配置全局 logger，可重复调用。
func Init(cfg Config) {
	l := New(cfg)
	mu.Lock()
	global = l
	mu.Unlock()
}

// L 返回全局 logger。
func L() *zerolog.Logger {
	mu.RLock()
	l := global
	mu.RUnlock()
	return &l
}

// ParseLevel 解析日志级别，无法识别时回落到 info。
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// NewRequestID 生成请求 ID。
func NewRequestID() string {
	return uuid.NewString()
}
