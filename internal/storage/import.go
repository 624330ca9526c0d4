package storage

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/santabot/core/bootstrap"
	"github.com/m3rciful/santabot/core/logger"
	"github.com/m3rciful/santabot/internal/santa"
)

// sheetColumns is giver, receiver and the twelve answers.
const sheetColumns = 2 + santa.PreferenceFields

type assignmentRow struct {
	Giver    string `db:"giver_external_id"`
	Receiver string `db:"receiver_external_id"`
	santa.Preferences
}

const upsertAssignment = `INSERT INTO assignments (
	giver_external_id, receiver_external_id, name, address, post_index, new_year_attr, new_year_doings,
	best_gift, best_film, best_song, best_dish, best_flashback, decorations, rabbit_gift
) VALUES (
	:giver_external_id, :receiver_external_id, :name, :address, :post_index, :new_year_attr, :new_year_doings,
	:best_gift, :best_film, :best_song, :best_dish, :best_flashback, :decorations, :rabbit_gift
) ON CONFLICT (giver_external_id) DO UPDATE SET
	receiver_external_id = excluded.receiver_external_id,
	name = excluded.name,
	address = excluded.address,
	post_index = excluded.post_index,
	new_year_attr = excluded.new_year_attr,
	new_year_doings = excluded.new_year_doings,
	best_gift = excluded.best_gift,
	best_film = excluded.best_film,
	best_song = excluded.best_song,
	best_dish = excluded.best_dish,
	best_flashback = excluded.best_flashback,
	decorations = excluded.decorations,
	rabbit_gift = excluded.rabbit_gift`

// ImportAssignments upserts the rows in one transaction and returns how many were written.
func (s *Store) ImportAssignments(ctx context.Context, rows []santa.Assignment) (int, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("import: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareNamedContext(ctx, upsertAssignment)
	if err != nil {
		return 0, fmt.Errorf("import: prepare: %w", err)
	}
	defer stmt.Close()

	for i, a := range rows {
		if _, err := stmt.ExecContext(ctx, assignmentRow{
			Giver:       a.GiverExternalID,
			Receiver:    a.ReceiverExternalID,
			Preferences: a.Preferences,
		}); err != nil {
			return 0, fmt.Errorf("import: row %d (%s): %w", i+1, a.GiverExternalID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("import: commit: %w", err)
	}
	return len(rows), nil
}

// ReadAssignments parses a sign-up sheet export: a header row, then giver,
// receiver and the twelve answers per line. Rows with an empty giver are skipped.
func ReadAssignments(r io.Reader) ([]santa.Assignment, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	if _, err := cr.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	var out []santa.Assignment
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read sheet: %w", err)
		}
		line, _ := cr.FieldPos(0)
		if len(rec) != sheetColumns {
			return nil, fmt.Errorf("line %d: want %d columns, got %d", line, sheetColumns, len(rec))
		}
		for i := range rec {
			rec[i] = strings.TrimSpace(rec[i])
		}
		if rec[0] == "" {
			continue
		}
		if rec[1] == "" {
			return nil, fmt.Errorf("line %d: empty receiver for %q", line, rec[0])
		}
		prefs, _ := santa.PreferencesFromValues(rec[2:])
		out = append(out, santa.Assignment{
			GiverExternalID:    rec[0],
			ReceiverExternalID: rec[1],
			Preferences:        prefs,
		})
	}
	return out, nil
}

// ImportFile reads a sheet export from path and upserts it.
func (s *Store) ImportFile(ctx context.Context, path string) (int, error) {
	start := time.Now()
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("import: %w", err)
	}
	defer f.Close()

	rows, err := ReadAssignments(f)
	if err != nil {
		logger.IMP.Error("sheet parse failed",
			slog.String("event", "import.parse"),
			slog.String("path", path),
			slog.String("err", err.Error()),
		)
		return 0, fmt.Errorf("import %s: %w", path, err)
	}

	n, err := s.ImportAssignments(ctx, rows)
	if err != nil {
		logger.IMP.Error("import failed",
			slog.String("event", "import.apply"),
			slog.String("path", path),
			slog.String("err", err.Error()),
		)
		return 0, err
	}
	logger.IMP.Info("assignments imported",
		slog.String("event", "import.apply"),
		slog.String("path", path),
		slog.Int("rows", n),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	)
	return n, nil
}

// CSVSeeder imports the sheet at path during bootstrap. An empty path is a no-op.
func CSVSeeder(path string) bootstrap.Seeder {
	return bootstrap.SeederFunc(func(ctx context.Context, db *sqlx.DB) error {
		if strings.TrimSpace(path) == "" {
			return nil
		}
		_, err := New(db).ImportFile(ctx, path)
		return err
	})
}
