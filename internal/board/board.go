// Package board materializes the daily worklist. Schedules are templates;
// the board derives "today's occurrences" on every read instead of storing
// them, then annotates each with its completion state from the ledger.
package board

import (
	"log/slog"
	"time"

	"github.com/jherforth/HomeGlow-sub000/internal/apperr"
	"github.com/jherforth/HomeGlow-sub000/internal/model"
	"github.com/jherforth/HomeGlow-sub000/internal/recurrence"
	"github.com/jherforth/HomeGlow-sub000/internal/store"
)

// Occurrence is one due chore instance on the board, identified by
// (ScheduleID, Date).
type Occurrence struct {
	ScheduleID   int64  `json:"schedule_id"`
	ChoreID      int64  `json:"chore_id"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	ClamValue    int    `json:"clam_value"`
	UserID       *int64 `json:"user_id"`
	Date         string `json:"date"`
	Recurring    bool   `json:"recurring"`
	Completed    bool   `json:"completed"`
	CompletionID *int64 `json:"completion_id,omitempty"`
}

// Column is one member's slice of the board. UserID 0 is the bonus pool.
type Column struct {
	UserID      int64        `json:"user_id"`
	Username    string       `json:"username"`
	Occurrences []Occurrence `json:"occurrences"`
}

// Board is the full household view for one date: per-user columns in
// member order, then the bonus pool. No cross-user interleaving.
type Board struct {
	Date    string   `json:"date"`
	Columns []Column `json:"columns"`
}

// BonusPoolName labels the unassigned column.
const BonusPoolName = "Bonus"

// Service evaluates due-ness and orchestrates completions and claims. The
// reference date is resolved once per call from the configured location,
// never from the caller's clock, so every client sees the same "today".
type Service struct {
	chores    *store.ChoreStore
	schedules *store.ScheduleStore
	history   *store.HistoryStore
	users     *store.UserStore
	loc       *time.Location
	now       func() time.Time
	logger    *slog.Logger
}

func NewService(cs *store.ChoreStore, ss *store.ScheduleStore, hs *store.HistoryStore, us *store.UserStore, loc *time.Location, logger *slog.Logger) *Service {
	return &Service{
		chores:    cs,
		schedules: ss,
		history:   hs,
		users:     us,
		loc:       loc,
		now:       time.Now,
		logger:    logger,
	}
}

// SetNow overrides the clock. Tests only.
func (s *Service) SetNow(now func() time.Time) {
	s.now = now
}

// Today returns the current calendar date in the server timezone.
func (s *Service) Today() string {
	return s.now().In(s.loc).Format(model.DateLayout)
}

// FullBoard materializes every member's column plus the bonus pool.
func (s *Service) FullBoard() (*Board, error) {
	today := s.Today()

	users, err := s.users.List()
	if err != nil {
		return nil, err
	}

	board := &Board{Date: today}
	for _, u := range users {
		schedules, err := s.schedules.ListByUser(u.ID)
		if err != nil {
			return nil, err
		}
		col, err := s.column(u.ID, u.Username, schedules, today)
		if err != nil {
			return nil, err
		}
		board.Columns = append(board.Columns, col)
	}

	bonus, err := s.schedules.ListBonus()
	if err != nil {
		return nil, err
	}
	col, err := s.column(0, BonusPoolName, bonus, today)
	if err != nil {
		return nil, err
	}
	board.Columns = append(board.Columns, col)

	return board, nil
}

// UserBoard materializes a single member's column for today.
func (s *Service) UserBoard(userID int64) (*Board, error) {
	today := s.Today()

	user, err := s.users.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperr.NotFound("user %d not found", userID)
	}

	schedules, err := s.schedules.ListByUser(userID)
	if err != nil {
		return nil, err
	}
	col, err := s.column(user.ID, user.Username, schedules, today)
	if err != nil {
		return nil, err
	}

	return &Board{Date: today, Columns: []Column{col}}, nil
}

func (s *Service) column(userID int64, username string, schedules []model.Schedule, today string) (Column, error) {
	col := Column{UserID: userID, Username: username, Occurrences: []Occurrence{}}

	for _, sched := range schedules {
		due, err := s.dueOn(sched, today)
		if err != nil {
			// A stored expression that no longer parses is advisory-fatal
			// only for this schedule; skip it rather than break the board.
			s.logger.Error("skipping schedule with bad crontab", "schedule_id", sched.ID, "error", err)
			continue
		}
		if !due {
			continue
		}

		chore, err := s.chores.GetByID(sched.ChoreID)
		if err != nil {
			return Column{}, err
		}
		if chore == nil {
			// Cascade delete makes this unreachable; treat as skipped.
			s.logger.Error("schedule without chore", "schedule_id", sched.ID, "chore_id", sched.ChoreID)
			continue
		}

		occ := Occurrence{
			ScheduleID:  sched.ID,
			ChoreID:     chore.ID,
			Title:       chore.Title,
			Description: chore.Description,
			ClamValue:   chore.ClamValue,
			UserID:      sched.UserID,
			Date:        today,
			Recurring:   sched.Recurring(),
		}

		rec, err := s.completionFor(sched, today)
		if err != nil {
			return Column{}, err
		}
		if rec != nil {
			occ.Completed = true
			occ.CompletionID = &rec.ID
		}

		col.Occurrences = append(col.Occurrences, occ)
	}

	return col, nil
}

// dueOn implements the due rules: recurring schedules ask the evaluator;
// one-time day-of schedules live only on their creation date; one-time
// until-completed schedules stay due from creation until a completion
// record exists, then are satisfied permanently.
func (s *Service) dueOn(sched model.Schedule, today string) (bool, error) {
	if !sched.Visible {
		return false, nil
	}

	if sched.Recurring() {
		date, err := time.ParseInLocation(model.DateLayout, today, s.loc)
		if err != nil {
			return false, err
		}
		return recurrence.IsDueOn(*sched.Crontab, date, s.loc)
	}

	created := sched.CreatedAt.In(s.loc).Format(model.DateLayout)
	switch sched.Duration {
	case model.DurationDayOf:
		return created == today, nil
	default: // until-completed
		if created > today {
			return false, nil
		}
		rec, err := s.history.FindAnyForSchedule(sched.ID)
		if err != nil {
			return false, err
		}
		return rec == nil, nil
	}
}

// completionFor looks up the record that marks this occurrence done:
// same-date for recurring schedules, any-date for one-time ones.
func (s *Service) completionFor(sched model.Schedule, date string) (*model.CompletionRecord, error) {
	if sched.Recurring() {
		return s.history.FindForOccurrence(sched.ID, date)
	}
	return s.history.FindAnyForSchedule(sched.ID)
}

// Complete records a completion for (scheduleID, date) by userID. The date
// must be today's board (stale clients get not_due, not a silent success),
// the schedule must be owned by the caller — bonus chores are claimed
// first — and the occurrence must be due. The ledger insert and the clam
// credit commit together in the store.
func (s *Service) Complete(scheduleID, userID int64, date string) (*model.CompletionRecord, error) {
	today := s.Today()
	if date == "" {
		date = today
	}
	if date != today {
		return nil, apperr.NotDue("date %s is not today's board (%s)", date, today)
	}

	sched, err := s.schedules.GetByID(scheduleID)
	if err != nil {
		return nil, err
	}
	if sched == nil {
		return nil, apperr.NotFound("schedule %d not found", scheduleID)
	}

	// Duplicate check before the due check so a repeat call reports
	// already_completed rather than not_due.
	rec, err := s.completionFor(*sched, today)
	if err != nil {
		return nil, err
	}
	if rec != nil {
		return nil, apperr.AlreadyCompleted("schedule %d already completed for %s", scheduleID, rec.Date)
	}

	if sched.Unassigned() {
		return nil, apperr.NotDue("schedule %d is in the bonus pool; claim it first", scheduleID)
	}
	if *sched.UserID != userID {
		return nil, apperr.NotDue("schedule %d is not on user %d's board", scheduleID, userID)
	}

	due, err := s.dueOn(*sched, today)
	if err != nil {
		return nil, err
	}
	if !due {
		return nil, apperr.NotDue("schedule %d is not due on %s", scheduleID, today)
	}

	return s.history.CompleteOccurrence(scheduleID, userID, date)
}

// Claim hands an unassigned schedule to userID via the store's
// compare-and-swap. On a lost race the returned schedule names the winner.
// Hidden schedules are not claimable: they are not on anyone's board.
func (s *Service) Claim(scheduleID, userID int64) (*model.Schedule, error) {
	user, err := s.users.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperr.NotFound("user %d not found", userID)
	}

	sched, err := s.schedules.GetByID(scheduleID)
	if err != nil {
		return nil, err
	}
	if sched == nil {
		return nil, apperr.NotFound("schedule %d not found", scheduleID)
	}
	if !sched.Visible {
		return nil, apperr.NotDue("schedule %d is hidden", scheduleID)
	}

	return s.schedules.ClaimBonus(scheduleID, userID)
}
