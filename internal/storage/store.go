// Package storage implements the santa lookup/update facade on top of sqlx.
// Queries are written with ? placeholders and rebound for the active driver.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/santabot/internal/santa"
)

// ErrNotFound is returned (wrapped) when a lookup matches nothing or the value is unset.
var ErrNotFound = santa.ErrNotFound

// Store is the sqlx-backed facade. Every method is a single statement.
type Store struct {
	db *sqlx.DB
}

var _ santa.Store = (*Store)(nil)

// New wraps an open database handle. The caller keeps ownership of db.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

func (s *Store) get(ctx context.Context, dest any, query string, args ...any) error {
	err := s.db.GetContext(ctx, dest, s.db.Rebind(query), args...)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func (s *Store) exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// update runs a statement that must touch exactly one existing user.
func (s *Store) update(ctx context.Context, op string, userID int64, query string, args ...any) error {
	n, err := s.exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: user %d: %w", op, userID, ErrNotFound)
	}
	return nil
}

// UserExists reports whether the user has a record.
func (s *Store) UserExists(ctx context.Context, userID int64) (bool, error) {
	var exists bool
	if err := s.get(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM users WHERE user_id = ?)`, userID); err != nil {
		return false, fmt.Errorf("user exists: %w", err)
	}
	return exists, nil
}

// AddUser inserts a pending user with no identifier and no tracking code. Duplicates are ignored.
func (s *Store) AddUser(ctx context.Context, userID int64) error {
	_, err := s.exec(ctx,
		`INSERT INTO users (user_id, signup_status) VALUES (?, ?) ON CONFLICT (user_id) DO NOTHING`,
		userID, string(santa.StatusPending),
	)
	if err != nil {
		return fmt.Errorf("add user: %w", err)
	}
	return nil
}

// SetExternalID stores the user's external identifier.
func (s *Store) SetExternalID(ctx context.Context, userID int64, externalID string) error {
	return s.update(ctx, "set external id", userID,
		`UPDATE users SET external_id = ? WHERE user_id = ?`, externalID, userID)
}

// ExternalID returns the user's external identifier.
func (s *Store) ExternalID(ctx context.Context, userID int64) (string, error) {
	var v sql.NullString
	if err := s.get(ctx, &v, `SELECT external_id FROM users WHERE user_id = ?`, userID); err != nil {
		return "", fmt.Errorf("external id: %w", err)
	}
	if !v.Valid || v.String == "" {
		return "", fmt.Errorf("external id: user %d: %w", userID, ErrNotFound)
	}
	return v.String, nil
}

// SetStatus stores the registration status.
func (s *Store) SetStatus(ctx context.Context, userID int64, st santa.Status) error {
	return s.update(ctx, "set status", userID,
		`UPDATE users SET signup_status = ? WHERE user_id = ?`, string(st), userID)
}

// Status returns the registration status; unknown stored values read as pending.
func (s *Store) Status(ctx context.Context, userID int64) (santa.Status, error) {
	var raw sql.NullString
	if err := s.get(ctx, &raw, `SELECT signup_status FROM users WHERE user_id = ?`, userID); err != nil {
		return santa.StatusPending, fmt.Errorf("status: %w", err)
	}
	return santa.ParseStatus(raw.String), nil
}

// CompleteRegistration stores the identifier and the complete status, creating the user if needed.
func (s *Store) CompleteRegistration(ctx context.Context, userID int64, externalID string) error {
	_, err := s.exec(ctx,
		`INSERT INTO users (user_id, external_id, signup_status) VALUES (?, ?, ?)
		 ON CONFLICT (user_id) DO UPDATE SET external_id = excluded.external_id, signup_status = excluded.signup_status`,
		userID, externalID, string(santa.StatusComplete),
	)
	if err != nil {
		return fmt.Errorf("complete registration: %w", err)
	}
	return nil
}

// SetTracking stores the user's shipment tracking code.
func (s *Store) SetTracking(ctx context.Context, userID int64, code string) error {
	return s.update(ctx, "set tracking", userID,
		`UPDATE users SET tracking_code = ? WHERE user_id = ?`, code, userID)
}

// Tracking returns the user's tracking code. An unset code is ErrNotFound.
func (s *Store) Tracking(ctx context.Context, userID int64) (string, error) {
	var v sql.NullString
	if err := s.get(ctx, &v, `SELECT tracking_code FROM users WHERE user_id = ?`, userID); err != nil {
		return "", fmt.Errorf("tracking: %w", err)
	}
	if !v.Valid || v.String == "" {
		return "", fmt.Errorf("tracking: user %d: %w", userID, ErrNotFound)
	}
	return v.String, nil
}

// IsAssigned reports whether externalID appears as a giver.
func (s *Store) IsAssigned(ctx context.Context, externalID string) (bool, error) {
	var exists bool
	if err := s.get(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM assignments WHERE giver_external_id = ?)`, externalID); err != nil {
		return false, fmt.Errorf("is assigned: %w", err)
	}
	return exists, nil
}

// CounterpartExternalID returns the receiver of a giver.
func (s *Store) CounterpartExternalID(ctx context.Context, giverExternalID string) (string, error) {
	var v string
	if err := s.get(ctx, &v,
		`SELECT receiver_external_id FROM assignments WHERE giver_external_id = ?`, giverExternalID); err != nil {
		return "", fmt.Errorf("counterpart: %w", err)
	}
	return v, nil
}

// GiverExternalID returns who sends a gift to the receiver.
func (s *Store) GiverExternalID(ctx context.Context, receiverExternalID string) (string, error) {
	var v string
	if err := s.get(ctx, &v,
		`SELECT giver_external_id FROM assignments WHERE receiver_external_id = ?
		 ORDER BY giver_external_id LIMIT 1`, receiverExternalID); err != nil {
		return "", fmt.Errorf("giver: %w", err)
	}
	return v, nil
}

// UserIDForExternalID resolves the user who registered externalID. The lowest id wins on duplicates.
func (s *Store) UserIDForExternalID(ctx context.Context, externalID string) (int64, error) {
	var id int64
	if err := s.get(ctx, &id,
		`SELECT user_id FROM users WHERE external_id = ? ORDER BY user_id LIMIT 1`, externalID); err != nil {
		return 0, fmt.Errorf("user for external id: %w", err)
	}
	return id, nil
}

// PreferencesFor returns the sheet answers of the row keyed by externalID.
func (s *Store) PreferencesFor(ctx context.Context, externalID string) (santa.Preferences, error) {
	var p santa.Preferences
	if err := s.get(ctx, &p,
		`SELECT name, address, post_index, new_year_attr, new_year_doings, best_gift, best_film,
		        best_song, best_dish, best_flashback, decorations, rabbit_gift
		   FROM assignments WHERE giver_external_id = ?`, externalID); err != nil {
		return santa.Preferences{}, fmt.Errorf("preferences: %w", err)
	}
	return p, nil
}

// Stats returns the admin counters.
func (s *Store) Stats(ctx context.Context) (santa.Stats, error) {
	var st santa.Stats
	err := s.get(ctx, &st, `SELECT
		(SELECT COUNT(*) FROM users) AS users,
		(SELECT COUNT(*) FROM users WHERE signup_status = ?) AS registered,
		(SELECT COUNT(*) FROM users WHERE tracking_code IS NOT NULL AND tracking_code <> '') AS tracking_codes,
		(SELECT COUNT(*) FROM assignments) AS assignments`, string(santa.StatusComplete))
	if err != nil {
		return santa.Stats{}, fmt.Errorf("stats: %w", err)
	}
	return st, nil
}
