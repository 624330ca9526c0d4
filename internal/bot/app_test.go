package bot

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	coredatabase "github.com/m3rciful/santabot/core/database"
	"github.com/m3rciful/santabot/internal/config"
	"github.com/m3rciful/santabot/internal/santa"
	"github.com/m3rciful/santabot/migrations"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	dbCfg := coredatabase.Config{Driver: coredatabase.DriverSQLite, Path: filepath.Join(t.TempDir(), "santa.db")}
	db, err := coredatabase.Connect(dbCfg)
	require.NoError(t, err)
	require.NoError(t, coredatabase.RunMigrations(db, dbCfg, migrations.FS))

	cfg := &config.Config{Database: dbCfg}
	cfg.Telegram.AdminID = 42
	cfg.Sender.Workers = 1
	cfg.Sender.MaxRetries = 3

	app, err := New(cfg, db)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })
	return app
}

func newContext(t *testing.T, chatType tele.ChatType, userID int64, text string) tele.Context {
	t.Helper()
	bot, err := tele.NewBot(tele.Settings{Offline: true})
	require.NoError(t, err)
	return bot.NewContext(tele.Update{
		ID: 1,
		Message: &tele.Message{
			Sender: &tele.User{ID: userID},
			Chat:   &tele.Chat{ID: userID, Type: chatType},
			Text:   text,
		},
	})
}

func TestNewRejectsMissingDeps(t *testing.T) {
	_, err := New(nil, nil)
	require.Error(t, err)
	_, err = New(&config.Config{}, nil)
	require.Error(t, err)
}

func TestInboundFrom(t *testing.T) {
	in := InboundFrom(newContext(t, tele.ChatPrivate, 12345, " vk777 "))
	assert.Equal(t, int64(12345), in.UserID)
	assert.Equal(t, santa.ChatPrivate, in.ChatKind)
	assert.Equal(t, " vk777 ", in.Text)

	in = InboundFrom(newContext(t, tele.ChatGroup, 1, "x"))
	assert.NotEqual(t, santa.ChatPrivate, in.ChatKind)
}

func TestMarkup(t *testing.T) {
	assert.Nil(t, Markup(santa.KeyboardNone))

	main := Markup(santa.KeyboardMain)
	require.Len(t, main.ReplyKeyboard, 2)
	assert.Equal(t, santa.ButtonRegister, main.ReplyKeyboard[0][0].Text)
	assert.Equal(t, santa.ButtonSubmitTrack, main.ReplyKeyboard[1][1].Text)

	back := Markup(santa.KeyboardBack)
	require.Len(t, back.ReplyKeyboard, 1)
	assert.Equal(t, santa.ButtonBack, back.ReplyKeyboard[0][0].Text)
}

func TestTelegramRunOptions(t *testing.T) {
	app := newTestApp(t)
	opts, err := app.TelegramRunOptions()
	require.NoError(t, err)

	assert.Same(t, app.cfg.CoreConfig(), opts.Config)
	assert.Equal(t, 1, opts.DispatcherOptions.Workers)
	assert.Equal(t, 3, opts.DispatcherOptions.MaxRetries)
	assert.NotEmpty(t, opts.Middlewares)

	endpoints := make(map[any]bool)
	for _, r := range opts.Routes {
		endpoints[r.Endpoint] = true
	}
	assert.True(t, endpoints[cmdStart])
	assert.True(t, endpoints[cmdStats])
	assert.True(t, endpoints[tele.OnText])

	visible := app.registry.ListCommands(true)
	require.Len(t, visible, 1)
	assert.Equal(t, "start", visible[0].Text)
}

func TestHandleTextSilentOutsidePrivateChats(t *testing.T) {
	app := newTestApp(t)
	assert.NoError(t, app.handleText(newContext(t, tele.ChatGroup, 7, santa.ButtonHelp)))
	assert.NoError(t, app.handleText(newContext(t, tele.ChatSuperGroup, 7, santa.ButtonAssignment)))
}

func TestHandleTextStoreFailure(t *testing.T) {
	app := newTestApp(t)
	require.NoError(t, app.db.Close())
	assert.Error(t, app.handleText(newContext(t, tele.ChatPrivate, 7, "/start")))
	assert.False(t, app.InProgress(7))
}

func TestInProgressFollowsDialogue(t *testing.T) {
	app := newTestApp(t)
	ctx := context.Background()

	assert.False(t, app.InProgress(5))
	_, err := app.dialogue.Handle(ctx, santa.Inbound{UserID: 5, ChatKind: santa.ChatPrivate, Text: santa.ButtonRegister})
	require.NoError(t, err)
	assert.True(t, app.InProgress(5))

	_, err = app.dialogue.Handle(ctx, santa.Inbound{UserID: 5, ChatKind: santa.ChatPrivate, Text: santa.ButtonBack})
	require.NoError(t, err)
	assert.False(t, app.InProgress(5))
}

func TestRenderStats(t *testing.T) {
	text := renderStats(santa.Stats{Users: 3, Registered: 2, TrackingCodes: 1, Assignments: 4})
	assert.Contains(t, text, "Участников: 3")
	assert.Contains(t, text, "Записей в анкете: 4")
}

// apiRecorder stands in for the Bot API and keeps every sendMessage payload.
type apiRecorder struct {
	mu   sync.Mutex
	sent []map[string]any
}

func newAPIBot(t *testing.T) (*tele.Bot, *apiRecorder) {
	t.Helper()
	rec := &apiRecorder{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		_ = json.NewDecoder(r.Body).Decode(&payload)
		rec.mu.Lock()
		rec.sent = append(rec.sent, payload)
		rec.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":1,"date":0,"chat":{"id":1,"type":"private"}}}`))
	}))
	t.Cleanup(srv.Close)

	bot, err := tele.NewBot(tele.Settings{Offline: true, URL: srv.URL, Token: "test"})
	require.NoError(t, err)
	return bot, rec
}

func (r *apiRecorder) texts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.sent))
	for _, p := range r.sent {
		text, _ := p["text"].(string)
		out = append(out, text)
	}
	return out
}

func TestStatsCommandAccess(t *testing.T) {
	app := newTestApp(t)
	opts, err := app.TelegramRunOptions()
	require.NoError(t, err)

	var stats tele.HandlerFunc
	for _, r := range opts.Routes {
		if r.Endpoint == cmdStats {
			stats = r.Handler
		}
	}
	require.NotNil(t, stats)

	bot, rec := newAPIBot(t)
	update := func(userID int64) tele.Context {
		return bot.NewContext(tele.Update{ID: int(userID), Message: &tele.Message{
			Sender: &tele.User{ID: userID},
			Chat:   &tele.Chat{ID: userID, Type: tele.ChatPrivate},
			Text:   cmdStats,
		}})
	}

	require.NoError(t, stats(update(42)))
	require.NoError(t, stats(update(7)))

	texts := rec.texts()
	require.Len(t, texts, 2)
	assert.Contains(t, texts[0], "Участников: 0")
	assert.NotContains(t, texts[1], "Участников", "non-admin sees the default reply")
	assert.NotEmpty(t, texts[1])
}
