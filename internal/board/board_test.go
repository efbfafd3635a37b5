package board

import (
	"database/sql"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/jherforth/HomeGlow-sub000/internal/apperr"
	"github.com/jherforth/HomeGlow-sub000/internal/database"
	"github.com/jherforth/HomeGlow-sub000/internal/model"
	"github.com/jherforth/HomeGlow-sub000/internal/store"
)

type fixture struct {
	db        *sql.DB
	chores    *store.ChoreStore
	schedules *store.ScheduleStore
	history   *store.HistoryStore
	users     *store.UserStore
	svc       *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	f := &fixture{
		db:        db,
		chores:    store.NewChoreStore(db),
		schedules: store.NewScheduleStore(db),
		history:   store.NewHistoryStore(db),
		users:     store.NewUserStore(db),
	}
	f.svc = NewService(f.chores, f.schedules, f.history, f.users, time.UTC, slog.Default())
	return f
}

// setDate pins the service clock to noon UTC on the given date.
func (f *fixture) setDate(t *testing.T, date string) {
	t.Helper()
	d, err := time.ParseInLocation(model.DateLayout, date, time.UTC)
	if err != nil {
		t.Fatalf("parse date: %v", err)
	}
	fixed := d.Add(12 * time.Hour)
	f.svc.SetNow(func() time.Time { return fixed })
}

func strPtr(s string) *string { return &s }

func intPtr(i int64) *int64 { return &i }

func findColumn(t *testing.T, b *Board, userID int64) Column {
	t.Helper()
	for _, col := range b.Columns {
		if col.UserID == userID {
			return col
		}
	}
	t.Fatalf("no column for user %d in %+v", userID, b.Columns)
	return Column{}
}

func TestRecurringDueOnMatchingWeekdaysOnly(t *testing.T) {
	f := newFixture(t)

	chore, _ := f.chores.Create("Dishes", "", 5)
	user, _ := f.users.Create("maya", "", "")
	// Mon/Wed/Fri
	sched, err := f.schedules.Create(chore.ID, intPtr(user.ID), strPtr("0 0 * * 1,3,5"), model.DurationUntilCompleted, true)
	if err != nil {
		t.Fatalf("create schedule: %v", err)
	}

	// Monday
	f.setDate(t, "2024-06-03")
	b, err := f.svc.FullBoard()
	if err != nil {
		t.Fatalf("full board: %v", err)
	}
	col := findColumn(t, b, user.ID)
	if len(col.Occurrences) != 1 || col.Occurrences[0].ScheduleID != sched.ID {
		t.Fatalf("expected schedule %d due on Monday, got %+v", sched.ID, col.Occurrences)
	}
	if col.Occurrences[0].Completed {
		t.Error("expected occurrence not completed")
	}
	if !col.Occurrences[0].Recurring {
		t.Error("expected recurring occurrence")
	}

	// Tuesday
	f.setDate(t, "2024-06-04")
	b, err = f.svc.FullBoard()
	if err != nil {
		t.Fatalf("full board: %v", err)
	}
	col = findColumn(t, b, user.ID)
	if len(col.Occurrences) != 0 {
		t.Fatalf("expected nothing due on Tuesday, got %+v", col.Occurrences)
	}
}

func TestHiddenScheduleNeverAppears(t *testing.T) {
	f := newFixture(t)

	chore, _ := f.chores.Create("Dishes", "", 5)
	user, _ := f.users.Create("maya", "", "")
	sched, _ := f.schedules.Create(chore.ID, intPtr(user.ID), strPtr("0 0 * * *"), model.DurationUntilCompleted, false)

	f.setDate(t, "2024-06-03")
	b, err := f.svc.FullBoard()
	if err != nil {
		t.Fatalf("full board: %v", err)
	}
	col := findColumn(t, b, user.ID)
	if len(col.Occurrences) != 0 {
		t.Fatalf("expected hidden schedule off the board, got %+v", col.Occurrences)
	}

	// And completing it is rejected as not due
	_, err = f.svc.Complete(sched.ID, user.ID, "")
	if apperr.KindOf(err) != apperr.KindNotDue {
		t.Errorf("expected not_due for hidden schedule, got %v", err)
	}
}

func TestDayOfScheduleExpires(t *testing.T) {
	f := newFixture(t)

	chore, _ := f.chores.Create("Pick up package", "", 2)
	user, _ := f.users.Create("maya", "", "")
	sched, _ := f.schedules.Create(chore.ID, intPtr(user.ID), nil, model.DurationDayOf, true)

	// Creation day: real now, board clock at real now too
	b, err := f.svc.UserBoard(user.ID)
	if err != nil {
		t.Fatalf("user board: %v", err)
	}
	if len(b.Columns[0].Occurrences) != 1 {
		t.Fatalf("expected day-of schedule due on creation day, got %+v", b.Columns[0].Occurrences)
	}

	// Two days later it is gone, completed or not
	later := time.Now().Add(48 * time.Hour)
	f.svc.SetNow(func() time.Time { return later })
	b, err = f.svc.UserBoard(user.ID)
	if err != nil {
		t.Fatalf("user board: %v", err)
	}
	if len(b.Columns[0].Occurrences) != 0 {
		t.Fatalf("expected day-of schedule expired, got %+v", b.Columns[0].Occurrences)
	}
	if _, err := f.svc.Complete(sched.ID, user.ID, ""); apperr.KindOf(err) != apperr.KindNotDue {
		t.Errorf("expected not_due after expiry, got %v", err)
	}
}

func TestUntilCompletedLifecycle(t *testing.T) {
	f := newFixture(t)

	chore, _ := f.chores.Create("Fix fence", "", 20)
	user, _ := f.users.Create("sam", "", "")
	sched, _ := f.schedules.Create(chore.ID, intPtr(user.ID), nil, model.DurationUntilCompleted, true)

	// Due today and still due days later while uncompleted
	later := time.Now().Add(72 * time.Hour)
	f.svc.SetNow(func() time.Time { return later })
	b, err := f.svc.UserBoard(user.ID)
	if err != nil {
		t.Fatalf("user board: %v", err)
	}
	if len(b.Columns[0].Occurrences) != 1 {
		t.Fatalf("expected until-completed schedule still due, got %+v", b.Columns[0].Occurrences)
	}

	rec, err := f.svc.Complete(sched.ID, user.ID, "")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if rec.ClamValue != 20 {
		t.Errorf("expected 20 clams captured, got %d", rec.ClamValue)
	}

	// Satisfied permanently: off the board from now on
	evenLater := later.Add(48 * time.Hour)
	f.svc.SetNow(func() time.Time { return evenLater })
	b, err = f.svc.UserBoard(user.ID)
	if err != nil {
		t.Fatalf("user board: %v", err)
	}
	if len(b.Columns[0].Occurrences) != 0 {
		t.Fatalf("expected satisfied schedule off the board, got %+v", b.Columns[0].Occurrences)
	}
}

func TestCompleteRules(t *testing.T) {
	f := newFixture(t)

	chore, _ := f.chores.Create("Dishes", "", 5)
	alice, _ := f.users.Create("alice", "", "")
	ben, _ := f.users.Create("ben", "", "")
	sched, _ := f.schedules.Create(chore.ID, intPtr(alice.ID), strPtr("0 0 * * *"), model.DurationUntilCompleted, true)

	f.setDate(t, "2024-06-03")

	// Stale date from yesterday's board
	if _, err := f.svc.Complete(sched.ID, alice.ID, "2024-06-02"); apperr.KindOf(err) != apperr.KindNotDue {
		t.Errorf("expected not_due for stale date, got %v", err)
	}

	// Wrong owner
	if _, err := f.svc.Complete(sched.ID, ben.ID, ""); apperr.KindOf(err) != apperr.KindNotDue {
		t.Errorf("expected not_due for non-owner, got %v", err)
	}

	// Missing schedule
	if _, err := f.svc.Complete(999, alice.ID, ""); apperr.KindOf(err) != apperr.KindNotFound {
		t.Errorf("expected not_found, got %v", err)
	}

	rec, err := f.svc.Complete(sched.ID, alice.ID, "2024-06-03")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}

	// Repeat reports already_completed, not not_due
	if _, err := f.svc.Complete(sched.ID, alice.ID, ""); apperr.KindOf(err) != apperr.KindAlreadyCompleted {
		t.Errorf("expected already_completed on repeat, got %v", err)
	}

	// Board shows it done with the completion id
	b, err := f.svc.FullBoard()
	if err != nil {
		t.Fatalf("full board: %v", err)
	}
	col := findColumn(t, b, alice.ID)
	if len(col.Occurrences) != 1 || !col.Occurrences[0].Completed {
		t.Fatalf("expected completed occurrence, got %+v", col.Occurrences)
	}
	if col.Occurrences[0].CompletionID == nil || *col.Occurrences[0].CompletionID != rec.ID {
		t.Errorf("expected completion id %d, got %v", rec.ID, col.Occurrences[0].CompletionID)
	}

	// Tomorrow the occurrence is fresh again
	f.setDate(t, "2024-06-04")
	b, _ = f.svc.FullBoard()
	col = findColumn(t, b, alice.ID)
	if len(col.Occurrences) != 1 || col.Occurrences[0].Completed {
		t.Fatalf("expected fresh occurrence next day, got %+v", col.Occurrences)
	}
}

func TestBonusPoolClaimThenComplete(t *testing.T) {
	f := newFixture(t)

	chore, _ := f.chores.Create("Wash car", "", 8)
	alice, _ := f.users.Create("alice", "", "")
	sched, _ := f.schedules.Create(chore.ID, nil, strPtr("0 0 * * *"), model.DurationUntilCompleted, true)

	f.setDate(t, "2024-06-03")

	// Bonus chores show in the pool column, not a user column
	b, err := f.svc.FullBoard()
	if err != nil {
		t.Fatalf("full board: %v", err)
	}
	pool := findColumn(t, b, 0)
	if pool.Username != BonusPoolName {
		t.Errorf("expected pool column named %q, got %q", BonusPoolName, pool.Username)
	}
	if len(pool.Occurrences) != 1 || pool.Occurrences[0].ScheduleID != sched.ID {
		t.Fatalf("expected schedule %d in pool, got %+v", sched.ID, pool.Occurrences)
	}
	if len(findColumn(t, b, alice.ID).Occurrences) != 0 {
		t.Error("expected alice's column empty before claim")
	}

	// Completing an unclaimed bonus chore is rejected
	if _, err := f.svc.Complete(sched.ID, alice.ID, ""); apperr.KindOf(err) != apperr.KindNotDue {
		t.Errorf("expected not_due before claim, got %v", err)
	}

	claimed, err := f.svc.Claim(sched.ID, alice.ID)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if claimed.UserID == nil || *claimed.UserID != alice.ID {
		t.Fatalf("expected alice as owner, got %v", claimed.UserID)
	}

	// Claiming for an unknown user is rejected up front
	if _, err := f.svc.Claim(sched.ID, 999); apperr.KindOf(err) != apperr.KindNotFound {
		t.Errorf("expected not_found for unknown claimer, got %v", err)
	}

	// A hidden bonus chore is off the board and not claimable
	hidden, _ := f.schedules.Create(chore.ID, nil, strPtr("0 0 * * *"), model.DurationUntilCompleted, false)
	if _, err := f.svc.Claim(hidden.ID, alice.ID); apperr.KindOf(err) != apperr.KindNotDue {
		t.Errorf("expected not_due claiming hidden schedule, got %v", err)
	}

	// Now it completes normally and the clams land
	if _, err := f.svc.Complete(sched.ID, alice.ID, ""); err != nil {
		t.Fatalf("complete after claim: %v", err)
	}
	u, _ := f.users.GetByID(alice.ID)
	if u.ClamTotal != 8 {
		t.Errorf("expected 8 clams, got %d", u.ClamTotal)
	}

	// Board moved it to alice's column
	b, _ = f.svc.FullBoard()
	if len(findColumn(t, b, 0).Occurrences) != 0 {
		t.Error("expected pool empty after claim")
	}
	col := findColumn(t, b, alice.ID)
	if len(col.Occurrences) != 1 || !col.Occurrences[0].Completed {
		t.Fatalf("expected completed occurrence on alice's board, got %+v", col.Occurrences)
	}
}

func TestUserBoardUnknownUser(t *testing.T) {
	f := newFixture(t)
	if _, err := f.svc.UserBoard(42); apperr.KindOf(err) != apperr.KindNotFound {
		t.Errorf("expected not_found, got %v", err)
	}
}

func TestBadCrontabSkippedNotFatal(t *testing.T) {
	f := newFixture(t)

	chore, _ := f.chores.Create("Dishes", "", 5)
	user, _ := f.users.Create("maya", "", "")
	// A stored expression that no longer parses must not break the board.
	bad, _ := f.schedules.Create(chore.ID, intPtr(user.ID), strPtr("0 0 * * someday"), model.DurationUntilCompleted, true)
	good, _ := f.schedules.Create(chore.ID, intPtr(user.ID), strPtr("0 0 * * *"), model.DurationUntilCompleted, true)

	f.setDate(t, "2024-06-03")
	b, err := f.svc.FullBoard()
	if err != nil {
		t.Fatalf("full board: %v", err)
	}
	col := findColumn(t, b, user.ID)
	if len(col.Occurrences) != 1 || col.Occurrences[0].ScheduleID != good.ID {
		t.Fatalf("expected only schedule %d on the board, got %+v", good.ID, col.Occurrences)
	}
	_ = bad
}
