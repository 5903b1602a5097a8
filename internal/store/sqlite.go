package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"openhours/internal/domain"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

// Compile-time interface check.
var _ RuleStore = (*SQLiteStore)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS rules (
	facility   TEXT    NOT NULL,
	id         TEXT    NOT NULL,
	label      TEXT    NOT NULL DEFAULT '',
	valid_from TEXT    NOT NULL,
	valid_to   TEXT    NOT NULL DEFAULT '',
	start_time TEXT    NOT NULL,
	end_time   TEXT    NOT NULL,
	weekdays   TEXT    NOT NULL,
	position   INTEGER NOT NULL,
	PRIMARY KEY (facility, id)
);
CREATE INDEX IF NOT EXISTS rules_facility_position ON rules (facility, position);
`

// SQLiteStore implements RuleStore backed by a SQLite database.
type SQLiteStore struct {
	db  *sql.DB
	log *slog.Logger
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath, migrates
// its schema and returns a ready-to-use SQLiteStore. Use ":memory:" for a
// throwaway database.
func NewSQLiteStore(dbPath string, log *slog.Logger) (*SQLiteStore, error) {
	if log == nil {
		log = slog.Default()
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	// A single connection keeps ":memory:" databases shared and serialises
	// writers.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating %s: %w", dbPath, err)
	}
	log.Info("opened rule store", "path", dbPath)
	return &SQLiteStore{db: db, log: log}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Rules returns a facility's rules in registration order.
func (s *SQLiteStore) Rules(ctx context.Context, facility string) ([]domain.Rule, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, label, valid_from, valid_to, start_time, end_time, weekdays
		FROM rules WHERE facility = ? ORDER BY position, id`, facility)
	if err != nil {
		return nil, fmt.Errorf("querying rules for %s: %w", facility, err)
	}
	defer rows.Close()

	var rules []domain.Rule
	for rows.Next() {
		var (
			r        domain.Rule
			from, to string
			weekdays string
		)
		if err := rows.Scan(&r.ID, &r.Label, &from, &to, &r.StartTime, &r.EndTime, &weekdays); err != nil {
			return nil, err
		}
		if r.ValidFrom, err = time.Parse(time.RFC3339Nano, from); err != nil {
			return nil, fmt.Errorf("rule %s: valid_from: %w", r.ID, err)
		}
		if to != "" {
			if r.ValidTo, err = time.Parse(time.RFC3339Nano, to); err != nil {
				return nil, fmt.Errorf("rule %s: valid_to: %w", r.ID, err)
			}
		}
		if weekdays != "" {
			if r.Weekdays, err = domain.ParseWeekdaySet(weekdays); err != nil {
				return nil, fmt.Errorf("rule %s: weekdays: %w", r.ID, err)
			}
		}
		rules = append(rules, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(rules) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrFacilityNotFound, facility)
	}
	return rules, nil
}

// SaveRule inserts or replaces a rule. A replaced rule keeps its position;
// a new one is appended. An empty ID is filled with a fresh UUID.
func (s *SQLiteStore) SaveRule(ctx context.Context, facility string, rule *domain.Rule) error {
	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}
	var to string
	if !rule.OpenEnded() {
		to = rule.ValidTo.Format(time.RFC3339Nano)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO rules (facility, id, label, valid_from, valid_to, start_time, end_time, weekdays, position)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?,
			(SELECT COALESCE(MAX(position), -1) + 1 FROM rules WHERE facility = ?))
		ON CONFLICT (facility, id) DO UPDATE SET
			label = excluded.label,
			valid_from = excluded.valid_from,
			valid_to = excluded.valid_to,
			start_time = excluded.start_time,
			end_time = excluded.end_time,
			weekdays = excluded.weekdays`,
		facility, rule.ID, rule.Label,
		rule.ValidFrom.Format(time.RFC3339Nano), to,
		rule.StartTime, rule.EndTime, rule.Weekdays.String(),
		facility,
	)
	if err != nil {
		return fmt.Errorf("saving rule %s/%s: %w", facility, rule.ID, err)
	}
	s.log.Debug("saved rule", "facility", facility, "id", rule.ID)
	return nil
}

// DeleteRule removes a rule by ID.
func (s *SQLiteStore) DeleteRule(ctx context.Context, facility, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM rules WHERE facility = ? AND id = ?`, facility, id)
	if err != nil {
		return fmt.Errorf("deleting rule %s/%s: %w", facility, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s/%s", ErrRuleNotFound, facility, id)
	}
	s.log.Debug("deleted rule", "facility", facility, "id", id)
	return nil
}

// Facilities lists all facilities that have rules.
func (s *SQLiteStore) Facilities(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT facility FROM rules ORDER BY facility`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var f string
		if err := rows.Scan(&f); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// ReplaceRules atomically replaces all rules of a facility, keeping the
// given order.
func (s *SQLiteStore) ReplaceRules(ctx context.Context, facility string, rules []domain.Rule) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				s.log.Warn("rollback failed", "error", rbErr)
			}
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM rules WHERE facility = ?`, facility); err != nil {
		return fmt.Errorf("clearing rules for %s: %w", facility, err)
	}
	for i := range rules {
		r := &rules[i]
		if r.ID == "" {
			r.ID = uuid.NewString()
		}
		var to string
		if !r.OpenEnded() {
			to = r.ValidTo.Format(time.RFC3339Nano)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO rules (facility, id, label, valid_from, valid_to, start_time, end_time, weekdays, position)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			facility, r.ID, r.Label, r.ValidFrom.Format(time.RFC3339Nano), to,
			r.StartTime, r.EndTime, r.Weekdays.String(), i)
		if err != nil {
			return fmt.Errorf("inserting rule %s/%s: %w", facility, r.ID, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return err
	}
	s.log.Info("replaced rules", "facility", facility, "count", len(rules))
	return nil
}
