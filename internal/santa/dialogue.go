package santa

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/m3rciful/santabot/core/logger"
	"github.com/m3rciful/santabot/core/state"
)

// Conversation states. Idle is state.StateIdle.
const (
	StateAwaitingIdentifier   state.State = "awaiting_identifier"
	StateAwaitingTrackingCode state.State = "awaiting_tracking_code"
)

// ChatKind is the kind of chat the message arrived in.
type ChatKind string

// ChatPrivate is a one-to-one chat with the bot.
const ChatPrivate ChatKind = "private"

// StartCommand opens the conversation and resets any flow in progress.
const StartCommand = "/start"

// Inbound is one user turn.
type Inbound struct {
	UserID   int64
	ChatKind ChatKind
	Text     string
}

// Reply is the answer to a turn. Empty Text means nothing is sent.
type Reply struct {
	Text     string
	Keyboard Keyboard
}

// Silent reports whether the reply should not be sent at all.
func (r Reply) Silent() bool {
	return r.Text == ""
}

// Dialogue routes user turns to the registration, tracking and lookup handlers.
type Dialogue struct {
	store    Store
	sessions state.Manager
	validate *Validator
}

// NewDialogue wires a dialogue. A nil validator uses the default patterns.
func NewDialogue(store Store, sessions state.Manager, validate *Validator) *Dialogue {
	if validate == nil {
		validate = DefaultValidator()
	}
	return &Dialogue{store: store, sessions: sessions, validate: validate}
}

// State exposes the current conversation state of a user.
func (d *Dialogue) State(userID int64) state.State {
	return d.sessions.GetState(userID)
}

// Handle processes one turn. A returned error means a store failure: the
// conversation state is unchanged and nothing should be sent to the user.
func (d *Dialogue) Handle(ctx context.Context, in Inbound) (Reply, error) {
	text := strings.TrimSpace(in.Text)

	if isStart(text) {
		return d.start(ctx, in.UserID)
	}

	switch d.sessions.GetState(in.UserID) {
	case StateAwaitingIdentifier:
		return d.submitIdentifier(ctx, in.UserID, text)
	case StateAwaitingTrackingCode:
		return d.submitTracking(ctx, in.UserID, text)
	}

	switch text {
	case ButtonRegister:
		d.sessions.SetState(in.UserID, StateAwaitingIdentifier)
		return Reply{Text: msgRegistration, Keyboard: KeyboardBack}, nil
	case ButtonSubmitTrack:
		d.sessions.SetState(in.UserID, StateAwaitingTrackingCode)
		return Reply{Text: msgTrackPrompt, Keyboard: KeyboardBack}, nil
	case ButtonHelp:
		if in.ChatKind != ChatPrivate {
			return Reply{}, nil
		}
		return Reply{Text: msgHelp}, nil
	case ButtonTrackingState:
		if in.ChatKind != ChatPrivate {
			return Reply{}, nil
		}
		return d.trackingStatus(ctx, in.UserID)
	case ButtonAssignment:
		if in.ChatKind != ChatPrivate {
			return Reply{}, nil
		}
		return d.assignment(ctx, in.UserID)
	}

	return Reply{Text: msgDefault, Keyboard: KeyboardMain}, nil
}

func isStart(text string) bool {
	head, _, _ := strings.Cut(text, " ")
	head, _, _ = strings.Cut(head, "@")
	return head == StartCommand
}

func (d *Dialogue) start(ctx context.Context, userID int64) (Reply, error) {
	exists, err := d.store.UserExists(ctx, userID)
	if err != nil {
		return Reply{}, fmt.Errorf("start: user exists: %w", err)
	}
	if exists {
		d.sessions.ClearState(userID)
		return Reply{Text: msgWelcomeBack, Keyboard: KeyboardMain}, nil
	}
	if err := d.store.AddUser(ctx, userID); err != nil {
		return Reply{}, fmt.Errorf("start: add user: %w", err)
	}
	d.sessions.ClearState(userID)
	logger.Santa.LogAttrs(ctx, slog.LevelInfo, "new user",
		slog.String("event", "user.created"),
		slog.Int64("user_id", userID),
	)
	return Reply{Text: msgStart, Keyboard: KeyboardMain}, nil
}

// status reads the registration status; a user without a record is pending.
func (d *Dialogue) status(ctx context.Context, userID int64) (Status, error) {
	st, err := d.store.Status(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return StatusPending, nil
	}
	return st, err
}

func (d *Dialogue) submitIdentifier(ctx context.Context, userID int64, text string) (Reply, error) {
	if text == ButtonBack {
		d.sessions.ClearState(userID)
		return Reply{Text: msgBackToMenu, Keyboard: KeyboardMain}, nil
	}

	st, err := d.status(ctx, userID)
	if err != nil {
		return Reply{}, fmt.Errorf("registration: status: %w", err)
	}
	if st != StatusPending {
		d.sessions.ClearState(userID)
		return Reply{Text: msgRegAlready, Keyboard: KeyboardMain}, nil
	}
	if !d.validate.Identifier(text) {
		logger.Santa.LogAttrs(ctx, slog.LevelDebug, "identifier rejected",
			slog.String("event", "registration.invalid"),
			slog.String("outcome", "invalid"),
		)
		return Reply{Text: msgRegFailed}, nil
	}
	if err := d.store.CompleteRegistration(ctx, userID, text); err != nil {
		return Reply{}, fmt.Errorf("registration: store: %w", err)
	}
	d.sessions.ClearState(userID)
	logger.Santa.LogAttrs(ctx, slog.LevelInfo, "user registered",
		slog.String("event", "registration.complete"),
		slog.Int64("user_id", userID),
		slog.String("external_id", logger.SanitizeLimit(text, 64)),
	)
	return Reply{Text: msgRegistered, Keyboard: KeyboardMain}, nil
}

func (d *Dialogue) submitTracking(ctx context.Context, userID int64, text string) (Reply, error) {
	if text == ButtonBack {
		d.sessions.ClearState(userID)
		return Reply{Text: msgBackToMenu, Keyboard: KeyboardMain}, nil
	}

	st, err := d.status(ctx, userID)
	if err != nil {
		return Reply{}, fmt.Errorf("tracking: status: %w", err)
	}
	if st == StatusPending {
		d.sessions.ClearState(userID)
		return Reply{Text: msgRegEmpty, Keyboard: KeyboardMain}, nil
	}

	_, err = d.store.Tracking(ctx, userID)
	switch {
	case err == nil:
		d.sessions.ClearState(userID)
		return Reply{Text: msgTrackAlready, Keyboard: KeyboardMain}, nil
	case !errors.Is(err, ErrNotFound):
		return Reply{}, fmt.Errorf("tracking: current code: %w", err)
	}

	if !d.validate.Tracking(text) {
		logger.Santa.LogAttrs(ctx, slog.LevelDebug, "tracking code rejected",
			slog.String("event", "tracking.invalid"),
			slog.String("outcome", "invalid"),
		)
		return Reply{Text: msgTrackFailed}, nil
	}
	if err := d.store.SetTracking(ctx, userID, text); err != nil {
		return Reply{}, fmt.Errorf("tracking: store: %w", err)
	}
	d.sessions.ClearState(userID)
	logger.Santa.LogAttrs(ctx, slog.LevelInfo, "tracking code saved",
		slog.String("event", "tracking.saved"),
		slog.Int64("user_id", userID),
		slog.String("tracking_code", logger.SanitizeLimit(text, 64)),
	)
	return Reply{Text: msgTrackSaved, Keyboard: KeyboardMain}, nil
}

// participant resolves the caller's external id when they are registered and
// appear as a giver. A non-empty reply means the lookup should stop there.
func (d *Dialogue) participant(ctx context.Context, userID int64) (string, Reply, error) {
	st, err := d.status(ctx, userID)
	if err != nil {
		return "", Reply{}, fmt.Errorf("status: %w", err)
	}
	if st == StatusPending {
		return "", Reply{Text: msgRegEmpty, Keyboard: KeyboardMain}, nil
	}

	ext, err := d.store.ExternalID(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return "", Reply{Text: msgNotInForm, Keyboard: KeyboardMain}, nil
	}
	if err != nil {
		return "", Reply{}, fmt.Errorf("external id: %w", err)
	}

	assigned, err := d.store.IsAssigned(ctx, ext)
	if err != nil {
		return "", Reply{}, fmt.Errorf("is assigned: %w", err)
	}
	if !assigned {
		return "", Reply{Text: msgNotInForm, Keyboard: KeyboardMain}, nil
	}
	return ext, Reply{}, nil
}

// trackingStatus answers with the code submitted by whoever sends a gift to the caller.
func (d *Dialogue) trackingStatus(ctx context.Context, userID int64) (Reply, error) {
	ext, stop, err := d.participant(ctx, userID)
	if err != nil {
		return Reply{}, fmt.Errorf("tracking status: %w", err)
	}
	if !stop.Silent() {
		return stop, nil
	}

	notAvailable := Reply{Text: msgTrackEmpty, Keyboard: KeyboardMain}

	giver, err := d.store.GiverExternalID(ctx, ext)
	if errors.Is(err, ErrNotFound) {
		return notAvailable, nil
	}
	if err != nil {
		return Reply{}, fmt.Errorf("tracking status: giver: %w", err)
	}
	giverID, err := d.store.UserIDForExternalID(ctx, giver)
	if errors.Is(err, ErrNotFound) {
		return notAvailable, nil
	}
	if err != nil {
		return Reply{}, fmt.Errorf("tracking status: giver user: %w", err)
	}
	code, err := d.store.Tracking(ctx, giverID)
	if errors.Is(err, ErrNotFound) {
		return notAvailable, nil
	}
	if err != nil {
		return Reply{}, fmt.Errorf("tracking status: code: %w", err)
	}

	text, err := renderTracking(code)
	if err != nil {
		return Reply{}, fmt.Errorf("tracking status: render: %w", err)
	}
	return Reply{Text: text, Keyboard: KeyboardMain}, nil
}

// assignment answers with the sheet answers of the caller's receiver.
func (d *Dialogue) assignment(ctx context.Context, userID int64) (Reply, error) {
	ext, stop, err := d.participant(ctx, userID)
	if err != nil {
		return Reply{}, fmt.Errorf("assignment: %w", err)
	}
	if !stop.Silent() {
		return stop, nil
	}

	notAvailable := Reply{Text: msgAssignEmpty, Keyboard: KeyboardMain}

	receiver, err := d.store.CounterpartExternalID(ctx, ext)
	if errors.Is(err, ErrNotFound) {
		return notAvailable, nil
	}
	if err != nil {
		return Reply{}, fmt.Errorf("assignment: receiver: %w", err)
	}
	prefs, err := d.store.PreferencesFor(ctx, receiver)
	if errors.Is(err, ErrNotFound) {
		return notAvailable, nil
	}
	if err != nil {
		return Reply{}, fmt.Errorf("assignment: preferences: %w", err)
	}

	text, err := renderAssignment(prefs)
	if err != nil {
		return Reply{}, fmt.Errorf("assignment: render: %w", err)
	}
	logger.Santa.LogAttrs(ctx, slog.LevelDebug, "assignment shown",
		slog.String("event", "assignment.shown"),
		slog.String("counterpart", logger.SanitizeLimit(receiver, 64)),
	)
	return Reply{Text: text, Keyboard: KeyboardMain}, nil
}
