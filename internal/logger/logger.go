// Package logger 基于 zerolog 提供结构化日志。stdout 留给报告，日志一律写 stderr。
package logger

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const milliTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Options 控制日志输出。
type Options struct {
	// Level 为空时读取 LOG_LEVEL，仍为空则为 info。
	Level string
	// NoColor 在非 TTY 输出时应为 true。
	NoColor bool
}

// New 构造写到 w 的控制台 logger。
func New(w io.Writer, opt Options) zerolog.Logger {
	zerolog.TimeFieldFormat = milliTimeFormat
	zerolog.TimestampFunc = func() time.Time { return time.Now().UTC() }

	out := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: milliTimeFormat,
		NoColor:    opt.NoColor,
	}
	return zerolog.New(out).Level(ParseLevel(opt.Level)).With().Timestamp().Logger()
}

// Init 用 New 的结果替换全局 logger，并返回它。
func Init(w io.Writer, opt Options) zerolog.Logger {
	l := New(w, opt)
	log.Logger = l
	return l
}

// ParseLevel 解析日志级别；空值取 LOG_LEVEL，无法识别时回退到 info。
func ParseLevel(s string) zerolog.Level {
	s = strings.TrimSpace(s)
	if s == "" {
		s = os.Getenv("LOG_LEVEL")
	}
	if s == "" {
		return zerolog.InfoLevel
	}
	level, err := zerolog.ParseLevel(strings.ToLower(s))
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}

// WithRunID 把带 run_id 字段的 logger 放进 ctx。
func WithRunID(ctx context.Context, l zerolog.Logger, runID string) context.Context {
	return l.With().Str("run_id", runID).Logger().WithContext(ctx)
}

// From 取出 ctx 中的 logger；没有时返回全局 logger。
func From(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l != nil && l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &log.Logger
}
