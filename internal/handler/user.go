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

type UserHandler struct {
	users  *store.UserStore
	hub    *websocket.Hub
	logger *slog.Logger
}

func NewUserHandler(us *store.UserStore, hub *websocket.Hub, logger *slog.Logger) *UserHandler {
	return &UserHandler{users: us, hub: hub, logger: logger}
}

type userRequest struct {
	Username       string `json:"username"`
	Email          string `json:"email"`
	ProfilePicture string `json:"profile_picture"`
}

func (r *userRequest) validate() error {
	r.Username = strings.TrimSpace(r.Username)
	if r.Username == "" {
		return apperr.Validation("username is required")
	}
	return nil
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.Validation("invalid JSON"))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.users.Create(req.Username, req.Email, req.ProfilePicture)
	if err != nil {
		h.logger.Error("create user", "error", err)
		writeError(w, err)
		return
	}

	if h.hub != nil {
		h.hub.Broadcast(websocket.NewMessage("user", "created", user.ID))
	}
	writeJSON(w, http.StatusCreated, user)
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List()
	if err != nil {
		h.logger.Error("list users", "error", err)
		writeError(w, err)
		return
	}
	if users == nil {
		users = []model.User{}
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, apperr.Validation("invalid id"))
		return
	}

	user, err := h.users.GetByID(id)
	if err != nil {
		h.logger.Error("get user", "error", err)
		writeError(w, err)
		return
	}
	if user == nil {
		writeError(w, apperr.NotFound("user %d not found", id))
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, apperr.Validation("invalid id"))
		return
	}

	var req userRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.Validation("invalid JSON"))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.users.Update(id, req.Username, req.Email, req.ProfilePicture)
	if err != nil {
		if apperr.KindOf(err) == "" {
			h.logger.Error("update user", "error", err)
		}
		writeError(w, err)
		return
	}

	if h.hub != nil {
		h.hub.Broadcast(websocket.NewMessage("user", "updated", id))
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, apperr.Validation("invalid id"))
		return
	}

	if err := h.users.Delete(id); err != nil {
		if apperr.KindOf(err) == "" {
			h.logger.Error("delete user", "error", err)
		}
		writeError(w, err)
		return
	}

	if h.hub != nil {
		h.hub.Broadcast(websocket.NewMessage("user", "deleted", id))
	}
	w.WriteHeader(http.StatusNoContent)
}

// Clams reports the member's balance: the cached total plus the ledger sum
// it must equal.
func (h *UserHandler) Clams(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, apperr.Validation("invalid id"))
		return
	}

	user, err := h.users.GetByID(id)
	if err != nil {
		h.logger.Error("get user", "error", err)
		writeError(w, err)
		return
	}
	if user == nil {
		writeError(w, apperr.NotFound("user %d not found", id))
		return
	}

	earned, err := h.users.SumHistory(id)
	if err != nil {
		h.logger.Error("sum history", "error", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user_id":    user.ID,
		"clam_total": user.ClamTotal,
		"ledger_sum": earned,
	})
}
