package helpers

import (
	"errors"
	"log/slog"
	"sync/atomic"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/santabot/core/logger"
	"github.com/m3rciful/santabot/core/telegram/sender"
)

const (
	messagesKey = "messages"
	keyboardKey = "kb"
)

var globalDispatcher atomic.Pointer[sender.Dispatcher]

// SetDispatcher wires the asynchronous sender used by helper functions. nil sends inline.
func SetDispatcher(d *sender.Dispatcher) {
	globalDispatcher.Store(d)
}

func sendAsync(c tele.Context, action, endpoint string, run func() error) error {
	disp := globalDispatcher.Load()
	if disp == nil {
		return run()
	}

	ctx := BuildContext(c)
	err := disp.Enqueue(ctx, action, endpoint, run)
	if errors.Is(err, sender.ErrQueueFull) || errors.Is(err, sender.ErrQueueClosed) {
		logger.Warn(ctx, "tg.sender", "queue.fallback",
			slog.String("action", action),
			slog.String("endpoint", endpoint),
			slog.String("err", err.Error()),
		)
		return run()
	}
	return err
}

// MarkSent records an outbound message on the update for the handler summary.
func MarkSent(c tele.Context, withKeyboard bool) {
	n, _ := c.Get(messagesKey).(int)
	c.Set(messagesKey, n+1)
	if withKeyboard {
		c.Set(keyboardKey, true)
	}
}

// Counters returns how many messages were sent for the update and whether any carried a keyboard.
func Counters(c tele.Context) (int, bool) {
	n, _ := c.Get(messagesKey).(int)
	kb, _ := c.Get(keyboardKey).(bool)
	return n, kb
}

// SendToUser sends plain text to the sender of the update, in private, with an optional reply keyboard.
func SendToUser(c tele.Context, text string, markup *tele.ReplyMarkup) error {
	user := c.Sender()
	if user == nil {
		return errors.New("telegram: update has no sender")
	}
	bot := c.Bot()
	// counted up front; the async send finishes after the handler summary is logged
	MarkSent(c, markup != nil)
	return sendAsync(c, "send.text", "sendMessage", func() error {
		opts := &tele.SendOptions{DisableWebPagePreview: true}
		if markup != nil {
			opts.ReplyMarkup = markup
		}
		_, err := bot.Send(user, text, opts)
		return err
	})
}
