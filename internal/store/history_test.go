package store

import (
	"testing"

	"github.com/jherforth/HomeGlow-sub000/internal/apperr"
	"github.com/jherforth/HomeGlow-sub000/internal/model"
)

func TestCompleteOccurrenceCreditsClams(t *testing.T) {
	db := newTestDB(t)
	chores := NewChoreStore(db)
	schedules := NewScheduleStore(db)
	users := NewUserStore(db)
	history := NewHistoryStore(db)

	chore, _ := chores.Create("Dishes", "", 5)
	user, _ := users.Create("maya", "", "")
	sched, _ := schedules.Create(chore.ID, intPtr(user.ID), strPtr("0 0 * * *"), model.DurationUntilCompleted, true)

	rec, err := history.CompleteOccurrence(sched.ID, user.ID, "2024-06-03")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if rec.ChoreTitle != "Dishes" {
		t.Errorf("expected captured title Dishes, got %q", rec.ChoreTitle)
	}
	if rec.ClamValue != 5 {
		t.Errorf("expected captured clam value 5, got %d", rec.ClamValue)
	}
	if rec.Date != "2024-06-03" {
		t.Errorf("expected date 2024-06-03, got %q", rec.Date)
	}

	got, err := users.GetByID(user.ID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if got.ClamTotal != 5 {
		t.Errorf("expected clam_total 5, got %d", got.ClamTotal)
	}

	sum, err := users.SumHistory(user.ID)
	if err != nil {
		t.Fatalf("sum history: %v", err)
	}
	if sum != got.ClamTotal {
		t.Errorf("clam_total %d diverged from ledger sum %d", got.ClamTotal, sum)
	}
}

func TestCompleteOccurrenceDuplicateSameDate(t *testing.T) {
	db := newTestDB(t)
	chores := NewChoreStore(db)
	schedules := NewScheduleStore(db)
	users := NewUserStore(db)
	history := NewHistoryStore(db)

	chore, _ := chores.Create("Dishes", "", 5)
	user, _ := users.Create("maya", "", "")
	sched, _ := schedules.Create(chore.ID, intPtr(user.ID), strPtr("0 0 * * *"), model.DurationUntilCompleted, true)

	if _, err := history.CompleteOccurrence(sched.ID, user.ID, "2024-06-03"); err != nil {
		t.Fatalf("first complete: %v", err)
	}
	_, err := history.CompleteOccurrence(sched.ID, user.ID, "2024-06-03")
	if apperr.KindOf(err) != apperr.KindAlreadyCompleted {
		t.Fatalf("expected already_completed, got %v", err)
	}

	// Recurring: a different date is a different occurrence
	if _, err := history.CompleteOccurrence(sched.ID, user.ID, "2024-06-04"); err != nil {
		t.Fatalf("complete next day: %v", err)
	}

	got, _ := users.GetByID(user.ID)
	if got.ClamTotal != 10 {
		t.Errorf("expected clam_total 10 after two completions, got %d", got.ClamTotal)
	}
}

func TestCompleteOneTimeRejectsAnySecondDate(t *testing.T) {
	db := newTestDB(t)
	chores := NewChoreStore(db)
	schedules := NewScheduleStore(db)
	users := NewUserStore(db)
	history := NewHistoryStore(db)

	chore, _ := chores.Create("Fix fence", "", 20)
	user, _ := users.Create("sam", "", "")
	sched, _ := schedules.Create(chore.ID, intPtr(user.ID), nil, model.DurationUntilCompleted, true)

	if _, err := history.CompleteOccurrence(sched.ID, user.ID, "2024-06-03"); err != nil {
		t.Fatalf("complete: %v", err)
	}
	_, err := history.CompleteOccurrence(sched.ID, user.ID, "2024-06-10")
	if apperr.KindOf(err) != apperr.KindAlreadyCompleted {
		t.Fatalf("expected already_completed for one-time on any date, got %v", err)
	}
}

func TestCompleteOccurrenceMissingScheduleOrUser(t *testing.T) {
	db := newTestDB(t)
	chores := NewChoreStore(db)
	schedules := NewScheduleStore(db)
	history := NewHistoryStore(db)

	if _, err := history.CompleteOccurrence(999, 1, "2024-06-03"); apperr.KindOf(err) != apperr.KindNotFound {
		t.Errorf("expected not_found for missing schedule, got %v", err)
	}

	chore, _ := chores.Create("Dishes", "", 5)
	sched, _ := schedules.Create(chore.ID, nil, nil, model.DurationDayOf, true)

	if _, err := history.CompleteOccurrence(sched.ID, 999, "2024-06-03"); apperr.KindOf(err) != apperr.KindNotFound {
		t.Errorf("expected not_found for missing user, got %v", err)
	}

	// The failed attempt must leave no ledger row behind
	rec, err := history.FindAnyForSchedule(sched.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if rec != nil {
		t.Errorf("expected no record after rolled-back completion, got %+v", rec)
	}
}

func TestCapturedValueImmutableAfterChoreEdit(t *testing.T) {
	db := newTestDB(t)
	chores := NewChoreStore(db)
	schedules := NewScheduleStore(db)
	users := NewUserStore(db)
	history := NewHistoryStore(db)

	chore, _ := chores.Create("Dishes", "", 5)
	user, _ := users.Create("maya", "", "")
	sched, _ := schedules.Create(chore.ID, intPtr(user.ID), strPtr("0 0 * * *"), model.DurationUntilCompleted, true)

	rec, err := history.CompleteOccurrence(sched.ID, user.ID, "2024-06-03")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}

	if _, err := chores.Update(chore.ID, "Dishes + counters", "", 9); err != nil {
		t.Fatalf("update chore: %v", err)
	}

	got, err := history.GetByID(rec.ID)
	if err != nil {
		t.Fatalf("get record: %v", err)
	}
	if got.ChoreTitle != "Dishes" || got.ClamValue != 5 {
		t.Errorf("expected snapshot (Dishes, 5) preserved, got (%q, %d)", got.ChoreTitle, got.ClamValue)
	}

	// The next completion captures the new values
	rec2, err := history.CompleteOccurrence(sched.ID, user.ID, "2024-06-04")
	if err != nil {
		t.Fatalf("complete after edit: %v", err)
	}
	if rec2.ChoreTitle != "Dishes + counters" || rec2.ClamValue != 9 {
		t.Errorf("expected new snapshot (Dishes + counters, 9), got (%q, %d)", rec2.ChoreTitle, rec2.ClamValue)
	}
}

func TestDeleteEntryDebitsClams(t *testing.T) {
	db := newTestDB(t)
	chores := NewChoreStore(db)
	schedules := NewScheduleStore(db)
	users := NewUserStore(db)
	history := NewHistoryStore(db)

	chore, _ := chores.Create("Dishes", "", 5)
	user, _ := users.Create("maya", "", "")
	sched, _ := schedules.Create(chore.ID, intPtr(user.ID), strPtr("0 0 * * *"), model.DurationUntilCompleted, true)

	rec, err := history.CompleteOccurrence(sched.ID, user.ID, "2024-06-03")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}

	if err := history.DeleteEntry(rec.ID); err != nil {
		t.Fatalf("delete entry: %v", err)
	}

	got, _ := users.GetByID(user.ID)
	if got.ClamTotal != 0 {
		t.Errorf("expected clam_total back to 0, got %d", got.ClamTotal)
	}

	// The occurrence is due again: completing it a second time succeeds
	if _, err := history.CompleteOccurrence(sched.ID, user.ID, "2024-06-03"); err != nil {
		t.Fatalf("re-complete after undo: %v", err)
	}

	if err := history.DeleteEntry(999); apperr.KindOf(err) != apperr.KindNotFound {
		t.Errorf("expected not_found deleting missing entry, got %v", err)
	}
}

func TestHistorySurvivesChoreAndScheduleDeletion(t *testing.T) {
	db := newTestDB(t)
	chores := NewChoreStore(db)
	schedules := NewScheduleStore(db)
	users := NewUserStore(db)
	history := NewHistoryStore(db)

	chore, _ := chores.Create("Rake leaves", "", 7)
	user, _ := users.Create("maya", "", "")
	sched, _ := schedules.Create(chore.ID, intPtr(user.ID), strPtr("0 0 * * *"), model.DurationUntilCompleted, true)

	rec, err := history.CompleteOccurrence(sched.ID, user.ID, "2024-06-03")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}

	// Deleting the chore cascades to the schedule; history must stay.
	if err := chores.Delete(chore.ID); err != nil {
		t.Fatalf("delete chore: %v", err)
	}

	got, err := history.GetByID(rec.ID)
	if err != nil {
		t.Fatalf("get record: %v", err)
	}
	if got == nil {
		t.Fatal("expected history record to survive chore deletion")
	}
	if got.ChoreTitle != "Rake leaves" {
		t.Errorf("expected denormalized title preserved, got %q", got.ChoreTitle)
	}
	if got.ScheduleID != nil {
		t.Errorf("expected schedule_id nulled by cascade, got %v", got.ScheduleID)
	}

	u, _ := users.GetByID(user.ID)
	if u.ClamTotal != 7 {
		t.Errorf("expected balance untouched by chore deletion, got %d", u.ClamTotal)
	}
}

func TestHistoryListByUser(t *testing.T) {
	db := newTestDB(t)
	chores := NewChoreStore(db)
	schedules := NewScheduleStore(db)
	users := NewUserStore(db)
	history := NewHistoryStore(db)

	chore, _ := chores.Create("Dishes", "", 5)
	alice, _ := users.Create("alice", "", "")
	ben, _ := users.Create("ben", "", "")
	sa, _ := schedules.Create(chore.ID, intPtr(alice.ID), strPtr("0 0 * * *"), model.DurationUntilCompleted, true)
	sb, _ := schedules.Create(chore.ID, intPtr(ben.ID), strPtr("0 0 * * *"), model.DurationUntilCompleted, true)

	if _, err := history.CompleteOccurrence(sa.ID, alice.ID, "2024-06-03"); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if _, err := history.CompleteOccurrence(sa.ID, alice.ID, "2024-06-04"); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if _, err := history.CompleteOccurrence(sb.ID, ben.ID, "2024-06-03"); err != nil {
		t.Fatalf("complete: %v", err)
	}

	mine, err := history.ListByUser(alice.ID)
	if err != nil {
		t.Fatalf("list by user: %v", err)
	}
	if len(mine) != 2 {
		t.Fatalf("expected 2 records for alice, got %d", len(mine))
	}
	// Newest first
	if mine[0].Date != "2024-06-04" {
		t.Errorf("expected newest record first, got %q", mine[0].Date)
	}

	all, err := history.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 records total, got %d", len(all))
	}
}
