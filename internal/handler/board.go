package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/jherforth/HomeGlow-sub000/internal/apperr"
	"github.com/jherforth/HomeGlow-sub000/internal/board"
	"github.com/jherforth/HomeGlow-sub000/internal/websocket"
)

type BoardHandler struct {
	svc    *board.Service
	hub    *websocket.Hub
	logger *slog.Logger
}

func NewBoardHandler(svc *board.Service, hub *websocket.Hub, logger *slog.Logger) *BoardHandler {
	return &BoardHandler{svc: svc, hub: hub, logger: logger}
}

func (h *BoardHandler) broadcast(msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(msg)
	}
}

// Board returns today's worklist: the whole household, or one member's
// column when user_id is given.
func (h *BoardHandler) Board(w http.ResponseWriter, r *http.Request) {
	if raw := r.URL.Query().Get("user_id"); raw != "" {
		userID, err := parseQueryID(raw)
		if err != nil {
			writeError(w, apperr.Validation("invalid user_id"))
			return
		}
		b, err := h.svc.UserBoard(userID)
		if err != nil {
			if apperr.KindOf(err) == "" {
				h.logger.Error("user board", "error", err)
			}
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, b)
		return
	}

	b, err := h.svc.FullBoard()
	if err != nil {
		h.logger.Error("full board", "error", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// Complete records one occurrence completion. Conflicts come back with a
// kind (already_completed, not_due) so the dashboard can refresh instead
// of retrying.
func (h *BoardHandler) Complete(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ScheduleID int64  `json:"schedule_id"`
		UserID     int64  `json:"user_id"`
		Date       string `json:"date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.Validation("invalid JSON"))
		return
	}
	if req.ScheduleID == 0 || req.UserID == 0 {
		writeError(w, apperr.Validation("schedule_id and user_id are required"))
		return
	}

	rec, err := h.svc.Complete(req.ScheduleID, req.UserID, req.Date)
	if err != nil {
		if apperr.KindOf(err) == "" {
			h.logger.Error("complete occurrence", "schedule_id", req.ScheduleID, "error", err)
		}
		writeError(w, err)
		return
	}

	h.broadcast(websocket.NewMessage("occurrence", "completed", rec.ID))
	writeJSON(w, http.StatusCreated, rec)
}

// Claim assigns a bonus schedule to the requesting user. A lost race
// returns 409 already_claimed with the winning schedule so the UI can show
// who got there first.
func (h *BoardHandler) Claim(w http.ResponseWriter, r *http.Request) {
	scheduleID, err := parseIDParam(r)
	if err != nil {
		writeError(w, apperr.Validation("invalid id"))
		return
	}

	var req struct {
		UserID int64 `json:"user_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.Validation("invalid JSON"))
		return
	}
	if req.UserID == 0 {
		writeError(w, apperr.Validation("user_id is required"))
		return
	}

	sched, err := h.svc.Claim(scheduleID, req.UserID)
	if err != nil {
		if apperr.Is(err, apperr.KindAlreadyClaimed) && sched != nil {
			writeJSON(w, http.StatusConflict, map[string]any{
				"error":    err.Error(),
				"kind":     string(apperr.KindAlreadyClaimed),
				"schedule": sched,
			})
			return
		}
		if apperr.KindOf(err) == "" {
			h.logger.Error("claim schedule", "schedule_id", scheduleID, "error", err)
		}
		writeError(w, err)
		return
	}

	h.broadcast(websocket.NewMessage("schedule", "claimed", scheduleID))
	writeJSON(w, http.StatusOK, sched)
}
