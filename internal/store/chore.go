package store

import (
	"database/sql"
	"fmt"

	"github.com/jherforth/HomeGlow-sub000/internal/apperr"
	"github.com/jherforth/HomeGlow-sub000/internal/model"
)

type ChoreStore struct {
	db *sql.DB
}

func NewChoreStore(db *sql.DB) *ChoreStore {
	return &ChoreStore{db: db}
}

func scanChore(scanner interface{ Scan(...any) error }) (*model.Chore, error) {
	var c model.Chore
	err := scanner.Scan(&c.ID, &c.Title, &c.Description, &c.ClamValue, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

const choreCols = `id, title, description, clam_value, created_at, updated_at`

func (s *ChoreStore) Create(title, description string, clamValue int) (*model.Chore, error) {
	result, err := s.db.Exec(
		`INSERT INTO chores (title, description, clam_value) VALUES (?, ?, ?)`,
		title, description, clamValue,
	)
	if err != nil {
		return nil, fmt.Errorf("insert chore: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *ChoreStore) GetByID(id int64) (*model.Chore, error) {
	row := s.db.QueryRow(`SELECT `+choreCols+` FROM chores WHERE id = ?`, id)
	c, err := scanChore(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get chore: %w", err)
	}
	return c, nil
}

func (s *ChoreStore) List() ([]model.Chore, error) {
	rows, err := s.db.Query(`SELECT ` + choreCols + ` FROM chores ORDER BY title ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list chores: %w", err)
	}
	defer rows.Close()

	var chores []model.Chore
	for rows.Next() {
		c, err := scanChore(rows)
		if err != nil {
			return nil, fmt.Errorf("scan chore: %w", err)
		}
		chores = append(chores, *c)
	}
	return chores, rows.Err()
}

func (s *ChoreStore) Update(id int64, title, description string, clamValue int) (*model.Chore, error) {
	res, err := s.db.Exec(
		`UPDATE chores SET title = ?, description = ?, clam_value = ?, updated_at = datetime('now') WHERE id = ?`,
		title, description, clamValue, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update chore: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, apperr.NotFound("chore %d not found", id)
	}
	return s.GetByID(id)
}

// Delete removes a chore. The schedules foreign key cascades, so every
// schedule referencing the chore goes with it in the same statement;
// history rows keep their denormalized title and dangling chore_id.
func (s *ChoreStore) Delete(id int64) error {
	res, err := s.db.Exec(`DELETE FROM chores WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete chore: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("chore %d not found", id)
	}
	return nil
}
