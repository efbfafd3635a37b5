package store

import (
	"database/sql"
	"fmt"

	"github.com/jherforth/HomeGlow-sub000/internal/apperr"
	"github.com/jherforth/HomeGlow-sub000/internal/model"
)

type ScheduleStore struct {
	db *sql.DB
}

func NewScheduleStore(db *sql.DB) *ScheduleStore {
	return &ScheduleStore{db: db}
}

func scanSchedule(scanner interface{ Scan(...any) error }) (*model.Schedule, error) {
	var s model.Schedule
	var userID sql.NullInt64
	var crontab sql.NullString
	var visible int

	err := scanner.Scan(
		&s.ID, &s.ChoreID, &userID, &crontab, &s.Duration, &visible,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if userID.Valid {
		s.UserID = &userID.Int64
	}
	if crontab.Valid {
		s.Crontab = &crontab.String
	}
	s.Visible = visible != 0
	return &s, nil
}

const scheduleCols = `id, chore_id, user_id, crontab, duration, visible, created_at, updated_at`

func nullInt(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func nullStr(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func (s *ScheduleStore) Create(choreID int64, userID *int64, crontab *string, duration model.Duration, visible bool) (*model.Schedule, error) {
	result, err := s.db.Exec(
		`INSERT INTO schedules (chore_id, user_id, crontab, duration, visible) VALUES (?, ?, ?, ?, ?)`,
		choreID, nullInt(userID), nullStr(crontab), string(duration), boolInt(visible),
	)
	if err != nil {
		return nil, fmt.Errorf("insert schedule: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *ScheduleStore) GetByID(id int64) (*model.Schedule, error) {
	row := s.db.QueryRow(`SELECT `+scheduleCols+` FROM schedules WHERE id = ?`, id)
	sched, err := scanSchedule(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get schedule: %w", err)
	}
	return sched, nil
}

func (s *ScheduleStore) list(query string, args ...any) ([]model.Schedule, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	defer rows.Close()

	var schedules []model.Schedule
	for rows.Next() {
		sched, err := scanSchedule(rows)
		if err != nil {
			return nil, fmt.Errorf("scan schedule: %w", err)
		}
		schedules = append(schedules, *sched)
	}
	return schedules, rows.Err()
}

func (s *ScheduleStore) List() ([]model.Schedule, error) {
	return s.list(`SELECT ` + scheduleCols + ` FROM schedules ORDER BY id ASC`)
}

func (s *ScheduleStore) ListByUser(userID int64) ([]model.Schedule, error) {
	return s.list(`SELECT `+scheduleCols+` FROM schedules WHERE user_id = ? ORDER BY id ASC`, userID)
}

func (s *ScheduleStore) ListByChore(choreID int64) ([]model.Schedule, error) {
	return s.list(`SELECT `+scheduleCols+` FROM schedules WHERE chore_id = ? ORDER BY id ASC`, choreID)
}

// ListBonus returns the unassigned pool.
func (s *ScheduleStore) ListBonus() ([]model.Schedule, error) {
	return s.list(`SELECT ` + scheduleCols + ` FROM schedules WHERE user_id IS NULL ORDER BY id ASC`)
}

// Update rewrites the assignment and rule fields. Setting crontab to nil
// switches the schedule to one-time semantics immediately.
func (s *ScheduleStore) Update(id int64, userID *int64, crontab *string, duration model.Duration, visible bool) (*model.Schedule, error) {
	res, err := s.db.Exec(
		`UPDATE schedules SET user_id = ?, crontab = ?, duration = ?, visible = ?, updated_at = datetime('now') WHERE id = ?`,
		nullInt(userID), nullStr(crontab), string(duration), boolInt(visible), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update schedule: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, apperr.NotFound("schedule %d not found", id)
	}
	return s.GetByID(id)
}

func (s *ScheduleStore) SetVisible(id int64, visible bool) (*model.Schedule, error) {
	res, err := s.db.Exec(
		`UPDATE schedules SET visible = ?, updated_at = datetime('now') WHERE id = ?`,
		boolInt(visible), id,
	)
	if err != nil {
		return nil, fmt.Errorf("set visible: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, apperr.NotFound("schedule %d not found", id)
	}
	return s.GetByID(id)
}

// Duplicate copies a schedule into a fresh row. The copy shares nothing
// with the source's completion state: a new id means new occurrence keys.
func (s *ScheduleStore) Duplicate(id int64) (*model.Schedule, error) {
	src, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}
	if src == nil {
		return nil, apperr.NotFound("schedule %d not found", id)
	}
	return s.Create(src.ChoreID, src.UserID, src.Crontab, src.Duration, src.Visible)
}

func (s *ScheduleStore) Delete(id int64) error {
	res, err := s.db.Exec(`DELETE FROM schedules WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete schedule: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("schedule %d not found", id)
	}
	return nil
}

// ClaimBonus assigns an unassigned schedule to a user. The WHERE clause is
// the compare-and-swap: the update only lands if the row is still in the
// bonus pool at write time. On a lost race the current row is returned
// alongside the error so callers can show who won.
func (s *ScheduleStore) ClaimBonus(id, userID int64) (*model.Schedule, error) {
	res, err := s.db.Exec(
		`UPDATE schedules SET user_id = ?, updated_at = datetime('now') WHERE id = ? AND user_id IS NULL`,
		userID, id,
	)
	if err != nil {
		return nil, fmt.Errorf("claim schedule: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if n == 1 {
		return s.GetByID(id)
	}

	current, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, apperr.NotFound("schedule %d not found", id)
	}
	return current, apperr.AlreadyClaimed("schedule %d already claimed by user %d", id, *current.UserID)
}
