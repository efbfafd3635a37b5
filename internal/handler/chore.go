package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/jherforth/HomeGlow-sub000/internal/apperr"
	"github.com/jherforth/HomeGlow-sub000/internal/model"
	"github.com/jherforth/HomeGlow-sub000/internal/store"
	"github.com/jherforth/HomeGlow-sub000/internal/websocket"
)

type ChoreHandler struct {
	chores *store.ChoreStore
	hub    *websocket.Hub
	logger *slog.Logger
}

func NewChoreHandler(cs *store.ChoreStore, hub *websocket.Hub, logger *slog.Logger) *ChoreHandler {
	return &ChoreHandler{chores: cs, hub: hub, logger: logger}
}

func (h *ChoreHandler) broadcast(msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(msg)
	}
}

type choreRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	ClamValue   int    `json:"clam_value"`
}

func (r *choreRequest) validate() error {
	r.Title = strings.TrimSpace(r.Title)
	if r.Title == "" {
		return apperr.Validation("title is required")
	}
	if r.ClamValue < 0 {
		return apperr.Validation("clam_value must not be negative")
	}
	return nil
}

func (h *ChoreHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req choreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.Validation("invalid JSON"))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, err)
		return
	}

	chore, err := h.chores.Create(req.Title, req.Description, req.ClamValue)
	if err != nil {
		h.logger.Error("create chore", "error", err)
		writeError(w, err)
		return
	}

	h.broadcast(websocket.NewMessage("chore", "created", chore.ID))
	writeJSON(w, http.StatusCreated, chore)
}

func (h *ChoreHandler) List(w http.ResponseWriter, r *http.Request) {
	chores, err := h.chores.List()
	if err != nil {
		h.logger.Error("list chores", "error", err)
		writeError(w, err)
		return
	}
	if chores == nil {
		chores = []model.Chore{}
	}
	writeJSON(w, http.StatusOK, chores)
}

func (h *ChoreHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, apperr.Validation("invalid id"))
		return
	}

	chore, err := h.chores.GetByID(id)
	if err != nil {
		h.logger.Error("get chore", "error", err)
		writeError(w, err)
		return
	}
	if chore == nil {
		writeError(w, apperr.NotFound("chore %d not found", id))
		return
	}
	writeJSON(w, http.StatusOK, chore)
}

func (h *ChoreHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, apperr.Validation("invalid id"))
		return
	}

	var req choreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.Validation("invalid JSON"))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, err)
		return
	}

	chore, err := h.chores.Update(id, req.Title, req.Description, req.ClamValue)
	if err != nil {
		if apperr.KindOf(err) == "" {
			h.logger.Error("update chore", "error", err)
		}
		writeError(w, err)
		return
	}

	h.broadcast(websocket.NewMessage("chore", "updated", id))
	writeJSON(w, http.StatusOK, chore)
}

// Delete removes the chore and, via cascade, all schedules that reference
// it. History referencing the chore stays readable under its captured
// title.
func (h *ChoreHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, apperr.Validation("invalid id"))
		return
	}

	if err := h.chores.Delete(id); err != nil {
		if apperr.KindOf(err) == "" {
			h.logger.Error("delete chore", "error", err)
		}
		writeError(w, err)
		return
	}

	h.broadcast(websocket.NewMessage("chore", "deleted", id))
	w.WriteHeader(http.StatusNoContent)
}
