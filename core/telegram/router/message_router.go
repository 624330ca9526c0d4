package router

import (
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	tg "github.com/m3rciful/santabot/core/telegram"
	"github.com/m3rciful/santabot/core/telegram/middleware"
)

// FSM is the part of a conversation manager the text router needs.
type FSM interface {
	InProgress(userID int64) bool
	ManagerHandler(c tele.Context) error
}

// TextRoutes builds the OnText route. Order: flow in progress, slash command text, registry fallback.
// Text nobody claims is logged as skipped.
func TextRoutes(fsmMgr FSM, reg *tg.Registry) []tg.Route {
	handler := func(c tele.Context) error {
		start := time.Now()
		text := strings.TrimSpace(c.Text())

		if fsmMgr != nil && c.Sender() != nil && fsmMgr.InProgress(c.Sender().ID) {
			return handled(c, "fsm", start, func() error {
				return fsmMgr.ManagerHandler(c)
			})
		}

		if reg != nil {
			if strings.HasPrefix(text, "/") {
				name, _, _ := strings.Cut(text, " ")
				if key, cmd, ok := reg.LookupCommand(name); ok && cmd.Handler != nil && !cmd.AdminOnly {
					return handled(c, normalizeHandlerName(key), start, func() error {
						return cmd.Handler(c)
					})
				}
			}
			if fb := reg.TextFallback(); fb != nil {
				return handled(c, "fallback", start, func() error {
					return fb(c)
				})
			}
		}

		logSummary(c, "unknown_text", start, statusSkip, nil)
		return nil
	}

	return []tg.Route{
		{
			Endpoint: tele.OnText,
			Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(handler)),
		},
	}
}
