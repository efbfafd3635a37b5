package store

import (
	"database/sql"
	"fmt"

	"github.com/jherforth/HomeGlow-sub000/internal/apperr"
	"github.com/jherforth/HomeGlow-sub000/internal/model"
)

// HistoryStore owns the completion ledger and, with it, the reward ledger:
// every write that touches a history row moves the matching user's
// clam_total inside the same transaction.
type HistoryStore struct {
	db *sql.DB
}

func NewHistoryStore(db *sql.DB) *HistoryStore {
	return &HistoryStore{db: db}
}

func scanRecord(scanner interface{ Scan(...any) error }) (*model.CompletionRecord, error) {
	var r model.CompletionRecord
	var scheduleID sql.NullInt64

	err := scanner.Scan(
		&r.ID, &scheduleID, &r.ChoreID, &r.ChoreTitle, &r.UserID,
		&r.Date, &r.ClamValue, &r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if scheduleID.Valid {
		r.ScheduleID = &scheduleID.Int64
	}
	return &r, nil
}

const recordCols = `id, schedule_id, chore_id, chore_title, user_id, date, clam_value, created_at`

// CompleteOccurrence records a completion for (scheduleID, date) and
// credits the user's clam total, both in one transaction. The chore's
// title and clam value are captured as they stand at this moment; later
// chore edits never touch past history. A recurring schedule rejects a
// duplicate for the same date, a one-time schedule rejects a duplicate for
// any date.
func (s *HistoryStore) CompleteOccurrence(scheduleID, userID int64, date string) (*model.CompletionRecord, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var choreID int64
	var crontab sql.NullString
	var title string
	var clamValue int
	err = tx.QueryRow(
		`SELECT s.chore_id, s.crontab, c.title, c.clam_value
		 FROM schedules s JOIN chores c ON c.id = s.chore_id
		 WHERE s.id = ?`,
		scheduleID,
	).Scan(&choreID, &crontab, &title, &clamValue)
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("schedule %d not found", scheduleID)
	}
	if err != nil {
		return nil, fmt.Errorf("load schedule: %w", err)
	}

	var dup int
	if crontab.Valid {
		err = tx.QueryRow(
			`SELECT COUNT(*) FROM history WHERE schedule_id = ? AND date = ?`,
			scheduleID, date,
		).Scan(&dup)
	} else {
		err = tx.QueryRow(
			`SELECT COUNT(*) FROM history WHERE schedule_id = ?`,
			scheduleID,
		).Scan(&dup)
	}
	if err != nil {
		return nil, fmt.Errorf("check existing completion: %w", err)
	}
	if dup > 0 {
		return nil, apperr.AlreadyCompleted("schedule %d already completed for %s", scheduleID, date)
	}

	result, err := tx.Exec(
		`INSERT INTO history (schedule_id, chore_id, chore_title, user_id, date, clam_value) VALUES (?, ?, ?, ?, ?, ?)`,
		scheduleID, choreID, title, userID, date, clamValue,
	)
	if err != nil {
		return nil, fmt.Errorf("insert completion: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	res, err := tx.Exec(
		`UPDATE users SET clam_total = clam_total + ?, updated_at = datetime('now') WHERE id = ?`,
		clamValue, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("credit clams: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, apperr.NotFound("user %d not found", userID)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit completion: %w", err)
	}

	return s.GetByID(id)
}

// DeleteEntry removes a completion record and symmetrically debits the
// user's clam total — a true undo, not an audit trim.
func (s *HistoryStore) DeleteEntry(id int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var userID int64
	var clamValue int
	err = tx.QueryRow(`SELECT user_id, clam_value FROM history WHERE id = ?`, id).Scan(&userID, &clamValue)
	if err == sql.ErrNoRows {
		return apperr.NotFound("history entry %d not found", id)
	}
	if err != nil {
		return fmt.Errorf("load history entry: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM history WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete history entry: %w", err)
	}

	if _, err := tx.Exec(
		`UPDATE users SET clam_total = clam_total - ?, updated_at = datetime('now') WHERE id = ?`,
		clamValue, userID,
	); err != nil {
		return fmt.Errorf("debit clams: %w", err)
	}

	return tx.Commit()
}

func (s *HistoryStore) GetByID(id int64) (*model.CompletionRecord, error) {
	row := s.db.QueryRow(`SELECT `+recordCols+` FROM history WHERE id = ?`, id)
	r, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get history entry: %w", err)
	}
	return r, nil
}

// FindForOccurrence returns the record for (scheduleID, date), if any.
func (s *HistoryStore) FindForOccurrence(scheduleID int64, date string) (*model.CompletionRecord, error) {
	row := s.db.QueryRow(
		`SELECT `+recordCols+` FROM history WHERE schedule_id = ? AND date = ?`,
		scheduleID, date,
	)
	r, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find occurrence completion: %w", err)
	}
	return r, nil
}

// FindAnyForSchedule returns the most recent record for the schedule on
// any date — the completion check for one-time schedules.
func (s *HistoryStore) FindAnyForSchedule(scheduleID int64) (*model.CompletionRecord, error) {
	row := s.db.QueryRow(
		`SELECT `+recordCols+` FROM history WHERE schedule_id = ? ORDER BY date DESC, id DESC LIMIT 1`,
		scheduleID,
	)
	r, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find schedule completion: %w", err)
	}
	return r, nil
}

func (s *HistoryStore) listRecords(query string, args ...any) ([]model.CompletionRecord, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	var records []model.CompletionRecord
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan history entry: %w", err)
		}
		records = append(records, *r)
	}
	return records, rows.Err()
}

func (s *HistoryStore) List() ([]model.CompletionRecord, error) {
	return s.listRecords(`SELECT ` + recordCols + ` FROM history ORDER BY date DESC, id DESC`)
}

func (s *HistoryStore) ListByUser(userID int64) ([]model.CompletionRecord, error) {
	return s.listRecords(
		`SELECT `+recordCols+` FROM history WHERE user_id = ? ORDER BY date DESC, id DESC`,
		userID,
	)
}
