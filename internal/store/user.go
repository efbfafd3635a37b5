package store

import (
	"database/sql"
	"fmt"

	"github.com/jherforth/HomeGlow-sub000/internal/apperr"
	"github.com/jherforth/HomeGlow-sub000/internal/model"
)

type UserStore struct {
	db *sql.DB
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

func scanUser(scanner interface{ Scan(...any) error }) (*model.User, error) {
	var u model.User
	err := scanner.Scan(&u.ID, &u.Username, &u.Email, &u.ProfilePicture, &u.ClamTotal, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

const userCols = `id, username, email, profile_picture, clam_total, created_at, updated_at`

func (s *UserStore) Create(username, email, profilePicture string) (*model.User, error) {
	result, err := s.db.Exec(
		`INSERT INTO users (username, email, profile_picture) VALUES (?, ?, ?)`,
		username, email, profilePicture,
	)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *UserStore) GetByID(id int64) (*model.User, error) {
	row := s.db.QueryRow(`SELECT `+userCols+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *UserStore) List() ([]model.User, error) {
	rows, err := s.db.Query(`SELECT ` + userCols + ` FROM users ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// Update edits profile fields only. clam_total is ledger-maintained and has
// no client-settable path.
func (s *UserStore) Update(id int64, username, email, profilePicture string) (*model.User, error) {
	res, err := s.db.Exec(
		`UPDATE users SET username = ?, email = ?, profile_picture = ?, updated_at = datetime('now') WHERE id = ?`,
		username, email, profilePicture, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, apperr.NotFound("user %d not found", id)
	}
	return s.GetByID(id)
}

func (s *UserStore) Delete(id int64) error {
	res, err := s.db.Exec(`DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("user %d not found", id)
	}
	return nil
}

// SumHistory derives the member's balance straight from the completion
// ledger. clam_total must always equal this sum; the history store keeps
// them in step transactionally, and tests assert the invariant here.
func (s *UserStore) SumHistory(userID int64) (int, error) {
	var total sql.NullInt64
	err := s.db.QueryRow(
		`SELECT COALESCE(SUM(clam_value), 0) FROM history WHERE user_id = ?`,
		userID,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum history: %w", err)
	}
	return int(total.Int64), nil
}
