// Package logging implements ports.Logger using github.com/charmbracelet/log,
// the structured, leveled logger every long-lived component receives
// explicitly at construction time.
package logging

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	cblog "github.com/charmbracelet/log"

	"github.com/scystream/control-plane/internal/ports"
)

// Options configures a Logger.
type Options struct {
	Writer       io.Writer
	Level        string
	TimeFormat   string
	ReportCaller bool
	JSON         bool
	Component    string
}

// Logger implements ports.Logger.
type Logger struct {
	logger *cblog.Logger
	fields []interface{}
}

// New constructs a Logger from Options.
func New(opts Options) (*Logger, error) {
	writer := opts.Writer
	if writer == nil {
		writer = os.Stdout
	}

	level := cblog.InfoLevel
	if opts.Level != "" {
		parsed, err := cblog.ParseLevel(strings.ToLower(opts.Level))
		if err != nil {
			return nil, fmt.Errorf("parse log level: %w", err)
		}
		level = parsed
	}

	formatter := cblog.TextFormatter
	if opts.JSON {
		formatter = cblog.JSONFormatter
	}

	base := cblog.NewWithOptions(writer, cblog.Options{
		Level:           level,
		TimeFormat:      opts.TimeFormat,
		ReportTimestamp: true,
		ReportCaller:    opts.ReportCaller,
		Formatter:       formatter,
	})

	var fields []interface{}
	if opts.Component != "" {
		fields = []interface{}{"component", opts.Component}
	}

	return &Logger{logger: base, fields: fields}, nil
}

func (l *Logger) Debug(ctx context.Context, msg string, fields ...interface{}) {
	l.log(ctx, cblog.DebugLevel, msg, fields...)
}

func (l *Logger) Info(ctx context.Context, msg string, fields ...interface{}) {
	l.log(ctx, cblog.InfoLevel, msg, fields...)
}

func (l *Logger) Warn(ctx context.Context, msg string, fields ...interface{}) {
	l.log(ctx, cblog.WarnLevel, msg, fields...)
}

func (l *Logger) Error(ctx context.Context, msg string, fields ...interface{}) {
	l.log(ctx, cblog.ErrorLevel, msg, fields...)
}

// With returns a derived logger carrying additional persistent fields.
func (l *Logger) With(fields ...interface{}) ports.Logger {
	if l == nil {
		return l
	}
	next := make([]interface{}, 0, len(l.fields)+len(fields))
	next = append(next, l.fields...)
	next = append(next, fields...)
	return &Logger{logger: l.logger, fields: next}
}

func (l *Logger) log(ctx context.Context, level cblog.Level, msg string, fields ...interface{}) {
	if l == nil || l.logger == nil {
		return
	}
	payload := mergeFields(l.fields, fields, ports.RequestID(ctx))

	switch level {
	case cblog.DebugLevel:
		l.logger.Debug(msg, payload...)
	case cblog.WarnLevel:
		l.logger.Warn(msg, payload...)
	case cblog.ErrorLevel:
		l.logger.Error(msg, payload...)
	default:
		l.logger.Info(msg, payload...)
	}
}

func mergeFields(base, additions []interface{}, requestID string) []interface{} {
	store := make(map[string]interface{})
	var order []string

	add := func(key string, value interface{}) {
		if key == "" {
			return
		}
		if _, exists := store[key]; !exists {
			order = append(order, key)
		}
		store[key] = value
	}

	process := func(values []interface{}) {
		for i := 0; i+1 < len(values); i += 2 {
			key, ok := values[i].(string)
			if !ok {
				continue
			}
			add(key, values[i+1])
		}
	}

	process(base)
	process(additions)
	if requestID != "" {
		add("request_id", requestID)
	}

	result := make([]interface{}, 0, len(order)*2)
	for _, k := range order {
		result = append(result, k, store[k])
	}
	return result
}

var _ ports.Logger = (*Logger)(nil)
