package middleware

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	tghelpers "github.com/m3rciful/santabot/core/telegram/helpers"
)

func newContext(t *testing.T, updateID int, userID int64, text string) tele.Context {
	t.Helper()
	bot, err := tele.NewBot(tele.Settings{Offline: true})
	require.NoError(t, err)
	user := &tele.User{ID: userID}
	return bot.NewContext(tele.Update{
		ID: updateID,
		Message: &tele.Message{
			Sender: user,
			Chat:   &tele.Chat{ID: userID, Type: tele.ChatPrivate},
			Text:   text,
		},
	})
}

func TestRecoverMiddleware(t *testing.T) {
	h := RecoverMiddleware(func(tele.Context) error { panic("boom") })
	err := h(newContext(t, 1, 10, "x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")

	want := errors.New("plain")
	h = RecoverMiddleware(func(tele.Context) error { return want })
	assert.ErrorIs(t, h(newContext(t, 2, 10, "x")), want)
}

func TestAdminOnlyMiddleware(t *testing.T) {
	var called, rejected int
	h := AdminOnlyMiddleware(AdminOptions{
		AdminID:  42,
		OnReject: func(tele.Context) error { rejected++; return nil },
	})(func(tele.Context) error { called++; return nil })

	require.NoError(t, h(newContext(t, 1, 42, "/stats")))
	require.NoError(t, h(newContext(t, 2, 7, "/stats")))
	assert.Equal(t, 1, called)
	assert.Equal(t, 1, rejected)

	h = AdminOnlyMiddleware(AdminOptions{})(func(tele.Context) error { called++; return nil })
	require.NoError(t, h(newContext(t, 3, 42, "/stats")))
	assert.Equal(t, 1, called, "no admin configured rejects everyone")
}

func TestRateLimitMiddleware(t *testing.T) {
	var passed, limited int
	mw := RateLimitMiddleware(RateLimitOptions{
		Interval:  time.Hour,
		OnLimited: func(tele.Context) error { limited++; return nil },
	})
	h := mw(func(tele.Context) error { passed++; return nil })

	require.NoError(t, h(newContext(t, 1, 10, "a")))
	require.NoError(t, h(newContext(t, 2, 10, "b")))
	require.NoError(t, h(newContext(t, 3, 11, "c")))
	assert.Equal(t, 2, passed)
	assert.Equal(t, 1, limited)

	excluded := RateLimitMiddleware(RateLimitOptions{
		Interval: time.Hour,
		Exclude:  map[string]struct{}{"message": {}},
	})(func(tele.Context) error { passed++; return nil })
	require.NoError(t, excluded(newContext(t, 4, 10, "d")))
	require.NoError(t, excluded(newContext(t, 5, 10, "e")))
	assert.Equal(t, 4, passed)
}

func TestLoggerAndMetricsMiddleware(t *testing.T) {
	c := newContext(t, 77, 10, "hello")
	var rid string
	h := LoggerMiddleware(MessageMetricsMiddleware(func(c tele.Context) error {
		rid, _ = c.Get(tghelpers.RIDKey).(string)
		tghelpers.MarkSent(c, true)
		return nil
	}))
	require.NoError(t, h(c))

	assert.Equal(t, "77:10:10", rid)
	msgs, kb := GetCounters(c)
	assert.Equal(t, 1, msgs)
	assert.True(t, kb)

	_, ok := tghelpers.ContextFrom(c)
	assert.True(t, ok)
}
