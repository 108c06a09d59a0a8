// Package logging はプロセス全体の slog ロガーを設定します。
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// ParseLevel はログレベル名(大文字小文字を区別しない)を slog.Level に変換します。
// 不明な値は info になります。
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Setup は stderr 向けのテキストロガーを生成してデフォルトに設定し、返します。
func Setup(level string) *slog.Logger {
	return setup(os.Stderr, level)
}

func setup(w io.Writer, level string) *slog.Logger {
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: ParseLevel(level),
	}))
	slog.SetDefault(logger)
	return logger
}
