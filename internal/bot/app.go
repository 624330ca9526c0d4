// Package bot adapts the gift-exchange dialogue to Telegram.
package bot

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/santabot/core/logger"
	"github.com/m3rciful/santabot/core/state"
	coretelegram "github.com/m3rciful/santabot/core/telegram"
	tghelpers "github.com/m3rciful/santabot/core/telegram/helpers"
	"github.com/m3rciful/santabot/core/telegram/keyboard"
	"github.com/m3rciful/santabot/core/telegram/router"
	tgsender "github.com/m3rciful/santabot/core/telegram/sender"
	"github.com/m3rciful/santabot/internal/config"
	"github.com/m3rciful/santabot/internal/santa"
	"github.com/m3rciful/santabot/internal/storage"
)

const (
	cmdStart = santa.StartCommand
	cmdStats = "/stats"
)

// App owns the store handle and the dialogue for one bot process.
type App struct {
	cfg      *config.Config
	db       *sqlx.DB
	store    *storage.Store
	sessions state.Manager
	dialogue *santa.Dialogue
	registry *coretelegram.Registry
}

// New wires the dialogue over db. The App takes ownership of db and closes it in Close.
func New(cfg *config.Config, db *sqlx.DB) (*App, error) {
	if cfg == nil {
		return nil, errors.New("bot: nil config")
	}
	if db == nil {
		return nil, errors.New("bot: nil database")
	}
	validate, err := cfg.Validator()
	if err != nil {
		return nil, fmt.Errorf("bot: %w", err)
	}

	app := &App{
		cfg:      cfg,
		db:       db,
		store:    storage.New(db),
		sessions: state.NewMemoryManager(),
		registry: coretelegram.NewRegistry(),
	}
	app.dialogue = santa.NewDialogue(app.store, app.sessions, validate)

	app.registry.RegisterCommand(cmdStart, coretelegram.Command{
		Handler:     app.handleText,
		Description: "Главное меню",
	})
	app.registry.RegisterCommand(cmdStats, coretelegram.Command{
		Handler:     app.handleStats,
		Description: "Статистика обмена",
		AdminOnly:   true,
	})
	app.registry.SetTextFallback(app.handleText)

	return app, nil
}

// Close releases the database handle.
func (a *App) Close() error {
	return a.db.Close()
}

// InProgress reports whether the user is in the middle of a registration or tracking flow.
func (a *App) InProgress(userID int64) bool {
	return a.sessions.InProgress(userID)
}

// ManagerHandler feeds a turn of an in-progress flow to the dialogue.
func (a *App) ManagerHandler(c tele.Context) error {
	return a.handleText(c)
}

// TelegramRunOptions assembles the middlewares, routes and sender settings for the runtime.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	core := a.cfg.CoreConfig()

	// non-admins get the same answer as for any unrecognized text
	routes := router.CommandRoutes(a.registry, router.CommandRouteOptions{
		AdminID:       core.Telegram.AdminID,
		OnAdminReject: a.handleText,
	})
	routes = append(routes, router.TextRoutes(a, a.registry)...)

	return coretelegram.RunOptions{
		Config:   core,
		Registry: a.registry,
		DispatcherOptions: tgsender.Options{
			QueueSize:  core.Sender.QueueSize,
			Workers:    core.Sender.Workers,
			MaxRetries: core.Sender.MaxRetries,
		},
		Middlewares: coretelegram.DefaultMiddlewares(core, nil),
		Routes:      routes,
	}, nil
}

// InboundFrom converts a Telegram update into a dialogue turn.
func InboundFrom(c tele.Context) santa.Inbound {
	var in santa.Inbound
	if u := c.Sender(); u != nil {
		in.UserID = u.ID
	}
	if chat := c.Chat(); chat != nil {
		in.ChatKind = santa.ChatKind(chat.Type)
	}
	in.Text = c.Text()
	return in
}

// Markup renders a dialogue keyboard. KeyboardNone yields nil so the current keyboard stays.
func Markup(k santa.Keyboard) *tele.ReplyMarkup {
	rows := k.Rows()
	if len(rows) == 0 {
		return nil
	}
	return keyboard.ReplyButtons(rows...)
}

func (a *App) handleText(c tele.Context) error {
	if c.Sender() == nil {
		return nil
	}
	ctx := tghelpers.BuildContext(c)
	reply, err := a.dialogue.Handle(ctx, InboundFrom(c))
	if err != nil {
		return err
	}
	if reply.Silent() {
		return nil
	}
	return tghelpers.SendToUser(c, reply.Text, Markup(reply.Keyboard))
}

func (a *App) handleStats(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	st, err := a.store.Stats(ctx)
	if err != nil {
		return fmt.Errorf("stats: %w", err)
	}
	logger.LogEvent(ctx, logger.Santa, slog.LevelInfo, "stats.shown",
		slog.Int("users", st.Users),
		slog.Int("registered", st.Registered),
	)
	return tghelpers.SendToUser(c, renderStats(st), nil)
}

func renderStats(st santa.Stats) string {
	return fmt.Sprintf("Участников: %d\nЗарегистрировано: %d\nТрекеров: %d\nЗаписей в анкете: %d",
		st.Users, st.Registered, st.TrackingCodes, st.Assignments)
}

var _ router.FSM = (*App)(nil)

