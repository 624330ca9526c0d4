package router

import (
	"log/slog"
	"reflect"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/santabot/core/logger"
	tghelpers "github.com/m3rciful/santabot/core/telegram/helpers"
)

// Handler summary statuses.
const (
	statusOK   = "ok"
	statusFail = "fail"
	statusSkip = "skip"
)

// handled runs fn under the handler name and logs one handler.handled line for it.
func handled(c tele.Context, name string, start time.Time, fn func() error) error {
	tghelpers.WithHandler(c, name)
	err := fn()
	status := statusOK
	if err != nil {
		status = statusFail
	}
	logSummary(c, name, start, status, err)
	return err
}

func logSummary(c tele.Context, name string, start time.Time, status string, err error) {
	ctx := tghelpers.WithHandler(c, name)
	msgs, kb := tghelpers.Counters(c)

	level := slog.LevelInfo
	attrs := []slog.Attr{
		slog.String("status", status),
		slog.Int("messages", msgs),
		slog.Bool("kb", kb),
		slog.Duration("duration", logger.Took(start)),
	}
	if err != nil {
		level = slog.LevelError
		attrs = append(attrs,
			slog.String("outcome", "fail"),
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			slog.String("err_code", errorCode(err)),
		)
	}
	logger.LogEvent(ctx, logger.TG, level, "handler.handled", attrs...)
}

// normalizeHandlerName turns a command or label into a log-friendly handler name.
func normalizeHandlerName(name string) string {
	name = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(name), "/"))
	if name == "" {
		return "unknown"
	}
	return strings.ReplaceAll(name, " ", "_")
}

// errorCode names an error by its Code() method when it has one, else by its concrete type.
func errorCode(err error) string {
	if err == nil {
		return ""
	}
	if c, ok := err.(interface{ Code() string }); ok {
		if code := strings.TrimSpace(c.Code()); code != "" {
			return strings.ToUpper(strings.ReplaceAll(code, " ", "_"))
		}
	}
	t := reflect.TypeOf(err)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() == "" {
		return "UNKNOWN_ERROR"
	}
	return strings.ToUpper(t.Name())
}
