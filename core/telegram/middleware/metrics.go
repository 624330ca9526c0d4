package middleware

import (
	"log/slog"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/santabot/core/logger"
	tghelpers "github.com/m3rciful/santabot/core/telegram/helpers"
)

// MessageMetricsMiddleware resets the per-update send counters and logs them once the handler returns.
func MessageMetricsMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		c.Set("messages", 0)
		c.Set("kb", false)
		start := time.Now()

		err := next(c)

		if logger.ShouldSampleDebug() {
			msgs, kb := tghelpers.Counters(c)
			logger.LogEvent(tghelpers.BuildContext(c), logger.TG, slog.LevelDebug, "update.metrics",
				slog.Int("messages", msgs),
				slog.Bool("kb", kb),
				slog.Duration("duration", logger.Took(start)),
			)
		}
		return err
	}
}

// GetCounters reads message count and keyboard presence flags from context.
func GetCounters(c tele.Context) (int, bool) {
	return tghelpers.Counters(c)
}
