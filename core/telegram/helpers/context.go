package helpers

import (
	"context"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/santabot/core/logger"
)

// Keys under which per-update values live in the tele.Context store.
const (
	RIDKey = "rid"
	ctxKey = "update_ctx"
)

// NewUpdateContext starts the logging context of an update: rid, update/user/chat ids and the tg logger.
// The rid already set on c is reused; otherwise one is derived from the ids. The result is cached on c.
func NewUpdateContext(c tele.Context) context.Context {
	var chatID, userID int64
	if chat := c.Chat(); chat != nil {
		chatID = chat.ID
	}
	if user := c.Sender(); user != nil {
		userID = user.ID
	}
	updateID := c.Update().ID

	rid, _ := c.Get(RIDKey).(string)
	if rid == "" {
		rid = logger.BuildRID(updateID, chatID, userID)
		c.Set(RIDKey, rid)
	}

	ctx := logger.WithRID(context.Background(), rid)
	ctx = logger.WithUpdateMeta(ctx, updateID, userID, chatID)
	ctx = logger.WithLogger(ctx, logger.TG)
	c.Set(ctxKey, ctx)
	return ctx
}

// ContextFrom returns the context cached on c, if any.
func ContextFrom(c tele.Context) (context.Context, bool) {
	if c == nil {
		return nil, false
	}
	ctx, ok := c.Get(ctxKey).(context.Context)
	return ctx, ok && ctx != nil
}

// BuildContext returns the cached update context, creating it when no middleware did.
func BuildContext(c tele.Context) context.Context {
	if ctx, ok := ContextFrom(c); ok {
		return ctx
	}
	return NewUpdateContext(c)
}

// WithHandler tags the update context with the handler name so later log lines carry it.
func WithHandler(c tele.Context, handler string) context.Context {
	ctx := BuildContext(c)
	if handler == "" {
		return ctx
	}
	ctx = logger.WithHandler(ctx, handler)
	c.Set(ctxKey, ctx)
	return ctx
}
