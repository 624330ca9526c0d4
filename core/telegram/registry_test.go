package telegram

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"
)

func noop(tele.Context) error { return nil }

func TestRegistryCommands(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterCommand("/start", Command{Handler: noop, Description: "Start", Aliases: []string{"begin"}})
	reg.RegisterCommand("/stats", Command{Handler: noop, Description: "Stats", AdminOnly: true})
	reg.RegisterCommand("help", Command{Handler: noop, Description: "no slash"})
	reg.RegisterCommand("/empty", Command{Handler: noop})
	reg.RegisterCommand("/start", Command{Handler: noop, Description: "dup"})

	require.Len(t, reg.Commands(), 2)
	assert.Equal(t, "Start", reg.Commands()["/start"].Description)

	assert.Equal(t, []tele.Command{{Text: "start", Description: "Start"}}, reg.ListCommands(true))
	assert.Len(t, reg.ListCommands(false), 2)

	key, _, ok := reg.LookupCommand("begin")
	assert.True(t, ok)
	assert.Equal(t, "/start", key)
	_, _, ok = reg.LookupCommand("/nope")
	assert.False(t, ok)
}

func TestBuildPoller(t *testing.T) {
	p := BuildPoller(PollerOptions{RunMode: "webhook", Webhook: WebhookOptions{Listen: "0.0.0.0", Port: 8443, URL: "https://x/hook"}})
	wh, ok := p.(*tele.Webhook)
	require.True(t, ok)
	assert.Equal(t, "0.0.0.0:8443", wh.Listen)
	assert.Equal(t, "https://x/hook", wh.Endpoint.PublicURL)

	lp, ok := BuildPoller(PollerOptions{RunMode: "longpoll"}).(*tele.LongPoller)
	require.True(t, ok)
	assert.Equal(t, defaultLongPollTimeout, lp.Timeout)
}
