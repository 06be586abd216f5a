package utils

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

type Logger struct {
	zl zerolog.Logger
}

func NewLogger() *Logger {
	return NewLoggerWithConfig("info", "json", os.Stdout)
}

// NewLoggerWithConfig builds a logger writing to out. format is "json" or
// "console"; unknown levels fall back to info.
func NewLoggerWithConfig(level, format string, out io.Writer) *Logger {
	if out == nil {
		out = os.Stdout
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	w := out
	if strings.EqualFold(strings.TrimSpace(format), "console") {
		w = zerolog.ConsoleWriter{Out: out, TimeFormat: time.TimeOnly}
	}
	zl := zerolog.New(w).Level(lvl).With().Timestamp().Str("service", "securereport").Logger()
	return &Logger{zl: zl}
}

// With returns a child logger carrying an extra string field.
func (l *Logger) With(key, value string) *Logger {
	if l == nil {
		return nil
	}
	return &Logger{zl: l.zl.With().Str(key, value).Logger()}
}

func (l *Logger) Debugf(format string, v ...any) {
	if l == nil {
		return
	}
	l.zl.Debug().Msg(fmt.Sprintf(format, v...))
}

func (l *Logger) Printf(format string, v ...any) {
	if l == nil {
		return
	}
	l.zl.Info().Msg(fmt.Sprintf(format, v...))
}

func (l *Logger) Println(v ...any) {
	if l == nil {
		return
	}
	l.zl.Info().Msg(strings.TrimSuffix(fmt.Sprintln(v...), "\n"))
}

func (l *Logger) Warnf(format string, v ...any) {
	if l == nil {
		return
	}
	l.zl.Warn().Msg(fmt.Sprintf(format, v...))
}

func (l *Logger) Errorf(format string, v ...any) {
	if l == nil {
		return
	}
	l.zl.Error().Msg(fmt.Sprintf(format, v...))
}

func (l *Logger) Fatalf(format string, v ...any) {
	if l == nil {
		os.Exit(1)
	}
	l.zl.Error().Str("fatal", "true").Msg(fmt.Sprintf(format, v...))
	os.Exit(1)
}
