package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/jherforth/HomeGlow-sub000/internal/apperr"
	"github.com/jherforth/HomeGlow-sub000/internal/model"
	"github.com/jherforth/HomeGlow-sub000/internal/recurrence"
	"github.com/jherforth/HomeGlow-sub000/internal/store"
	"github.com/jherforth/HomeGlow-sub000/internal/websocket"
)

type ScheduleHandler struct {
	schedules *store.ScheduleStore
	chores    *store.ChoreStore
	hub       *websocket.Hub
	logger    *slog.Logger
}

func NewScheduleHandler(ss *store.ScheduleStore, cs *store.ChoreStore, hub *websocket.Hub, logger *slog.Logger) *ScheduleHandler {
	return &ScheduleHandler{schedules: ss, chores: cs, hub: hub, logger: logger}
}

func (h *ScheduleHandler) broadcast(msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(msg)
	}
}

// scheduleRequest accepts the recurrence in one of three forms: a raw
// crontab, a weekday set (0=Sunday..6=Saturday), or a preset name. The
// shorthand forms compile to the canonical expression here, at the API
// boundary, so the store only ever sees a validated crontab string.
type scheduleRequest struct {
	ChoreID  int64   `json:"chore_id"`
	UserID   *int64  `json:"user_id"`
	Crontab  *string `json:"crontab"`
	Weekdays []int   `json:"weekdays"`
	Preset   string  `json:"preset"`
	Duration string  `json:"duration"`
	Visible  *bool   `json:"visible"`
}

// resolve normalizes the request: compiles shorthand recurrence, validates
// the crontab, applies defaults, and maps user_id 0 to the bonus pool.
func (r *scheduleRequest) resolve() (userID *int64, crontab *string, duration model.Duration, visible bool, err error) {
	switch {
	case len(r.Weekdays) > 0:
		set, werr := recurrence.NewWeekdays(r.Weekdays...)
		if werr != nil {
			return nil, nil, "", false, apperr.Validation("invalid weekdays: %v", werr)
		}
		expr := set.Expression()
		crontab = &expr
	case r.Preset != "":
		expr, ok := recurrence.Preset(r.Preset)
		if !ok {
			return nil, nil, "", false, apperr.Validation("unknown preset %q", r.Preset)
		}
		crontab = &expr
	case r.Crontab != nil:
		if verr := recurrence.Validate(*r.Crontab); verr != nil {
			return nil, nil, "", false, verr
		}
		crontab = r.Crontab
	}

	duration = model.DurationUntilCompleted
	if r.Duration != "" {
		duration = model.Duration(r.Duration)
		if !duration.Valid() {
			return nil, nil, "", false, apperr.Validation("unknown duration %q", r.Duration)
		}
	}

	userID = r.UserID
	if userID != nil && *userID == 0 {
		userID = nil // bonus pool
	}

	visible = true
	if r.Visible != nil {
		visible = *r.Visible
	}

	return userID, crontab, duration, visible, nil
}

// scheduleView decorates a schedule with its advisory next occurrence.
type scheduleView struct {
	model.Schedule
	NextOccurrence string `json:"next_occurrence,omitempty"`
}

func (h *ScheduleHandler) view(s model.Schedule) scheduleView {
	v := scheduleView{Schedule: s}
	if s.Crontab != nil {
		if next, ok := recurrence.NextOccurrence(*s.Crontab, time.Now()); ok {
			v.NextOccurrence = next.Format(model.DateLayout)
		} else {
			v.NextOccurrence = "invalid"
		}
	}
	return v
}

func (h *ScheduleHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req scheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.Validation("invalid JSON"))
		return
	}

	userID, crontab, duration, visible, err := req.resolve()
	if err != nil {
		writeError(w, err)
		return
	}

	chore, err := h.chores.GetByID(req.ChoreID)
	if err != nil {
		h.logger.Error("check chore", "error", err)
		writeError(w, err)
		return
	}
	if chore == nil {
		writeError(w, apperr.Validation("chore %d not found", req.ChoreID))
		return
	}

	sched, err := h.schedules.Create(req.ChoreID, userID, crontab, duration, visible)
	if err != nil {
		h.logger.Error("create schedule", "error", err)
		writeError(w, err)
		return
	}

	h.broadcast(websocket.NewMessage("schedule", "created", sched.ID))
	writeJSON(w, http.StatusCreated, h.view(*sched))
}

func (h *ScheduleHandler) List(w http.ResponseWriter, r *http.Request) {
	var (
		schedules []model.Schedule
		err       error
	)
	q := r.URL.Query()
	switch {
	case q.Get("user_id") != "":
		var userID int64
		if userID, err = parseQueryID(q.Get("user_id")); err != nil {
			writeError(w, apperr.Validation("invalid user_id"))
			return
		}
		if userID == 0 {
			schedules, err = h.schedules.ListBonus()
		} else {
			schedules, err = h.schedules.ListByUser(userID)
		}
	case q.Get("chore_id") != "":
		var choreID int64
		if choreID, err = parseQueryID(q.Get("chore_id")); err != nil {
			writeError(w, apperr.Validation("invalid chore_id"))
			return
		}
		schedules, err = h.schedules.ListByChore(choreID)
	default:
		schedules, err = h.schedules.List()
	}
	if err != nil {
		h.logger.Error("list schedules", "error", err)
		writeError(w, err)
		return
	}

	views := make([]scheduleView, 0, len(schedules))
	for _, s := range schedules {
		views = append(views, h.view(s))
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *ScheduleHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, apperr.Validation("invalid id"))
		return
	}

	sched, err := h.schedules.GetByID(id)
	if err != nil {
		h.logger.Error("get schedule", "error", err)
		writeError(w, err)
		return
	}
	if sched == nil {
		writeError(w, apperr.NotFound("schedule %d not found", id))
		return
	}
	writeJSON(w, http.StatusOK, h.view(*sched))
}

func (h *ScheduleHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, apperr.Validation("invalid id"))
		return
	}

	var req scheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.Validation("invalid JSON"))
		return
	}

	userID, crontab, duration, visible, err := req.resolve()
	if err != nil {
		writeError(w, err)
		return
	}

	sched, err := h.schedules.Update(id, userID, crontab, duration, visible)
	if err != nil {
		if apperr.KindOf(err) == "" {
			h.logger.Error("update schedule", "error", err)
		}
		writeError(w, err)
		return
	}

	h.broadcast(websocket.NewMessage("schedule", "updated", id))
	writeJSON(w, http.StatusOK, h.view(*sched))
}

func (h *ScheduleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, apperr.Validation("invalid id"))
		return
	}

	if err := h.schedules.Delete(id); err != nil {
		if apperr.KindOf(err) == "" {
			h.logger.Error("delete schedule", "error", err)
		}
		writeError(w, err)
		return
	}

	h.broadcast(websocket.NewMessage("schedule", "deleted", id))
	w.WriteHeader(http.StatusNoContent)
}

// Duplicate copies a schedule into a fresh row with no completion state.
func (h *ScheduleHandler) Duplicate(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, apperr.Validation("invalid id"))
		return
	}

	copy, err := h.schedules.Duplicate(id)
	if err != nil {
		if apperr.KindOf(err) == "" {
			h.logger.Error("duplicate schedule", "error", err)
		}
		writeError(w, err)
		return
	}

	h.broadcast(websocket.NewMessage("schedule", "created", copy.ID))
	writeJSON(w, http.StatusCreated, h.view(*copy))
}

func (h *ScheduleHandler) SetVisibility(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, apperr.Validation("invalid id"))
		return
	}

	var req struct {
		Visible bool `json:"visible"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.Validation("invalid JSON"))
		return
	}

	sched, err := h.schedules.SetVisible(id, req.Visible)
	if err != nil {
		if apperr.KindOf(err) == "" {
			h.logger.Error("set schedule visibility", "error", err)
		}
		writeError(w, err)
		return
	}

	h.broadcast(websocket.NewMessage("schedule", "updated", id))
	writeJSON(w, http.StatusOK, h.view(*sched))
}
