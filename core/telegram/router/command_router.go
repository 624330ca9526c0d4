package router

import (
	"context"
	"log/slog"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/santabot/core/logger"
	tg "github.com/m3rciful/santabot/core/telegram"
	"github.com/m3rciful/santabot/core/telegram/middleware"
)

// CommandRouteOptions configures how commands are wrapped and exposed.
type CommandRouteOptions struct {
	AdminID       int64
	OnAdminReject tele.HandlerFunc
}

// CommandRoutes turns every registered command and alias into a route with a handler summary.
// Admin-only commands are guarded by AdminOnlyMiddleware.
func CommandRoutes(reg *tg.Registry, opts CommandRouteOptions) []tg.Route {
	if reg == nil {
		return nil
	}

	adminOpts := middleware.AdminOptions{
		AdminID:  opts.AdminID,
		OnReject: opts.OnAdminReject,
	}

	commands := reg.Commands()
	routes := make([]tg.Route, 0, len(commands))
	for name, def := range commands {
		h := summarized(normalizeHandlerName(name), def.Handler)
		if def.AdminOnly {
			h = middleware.AdminOnlyMiddleware(adminOpts)(h)
		}
		h = middleware.RecoverMiddleware(middleware.LoggerMiddleware(h))

		routes = append(routes, tg.Route{Endpoint: name, Handler: h})
		for _, alias := range def.Aliases {
			routes = append(routes, tg.Route{Endpoint: alias, Handler: h})
		}
	}

	logger.TWire.LogAttrs(context.Background(), slog.LevelInfo, "tg.wire",
		slog.String("event", "complete"),
		slog.Int("commands", len(commands)),
		slog.Int("routes", len(routes)),
	)

	return routes
}

func summarized(name string, h tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		return handled(c, name, time.Now(), func() error {
			return h(c)
		})
	}
}
