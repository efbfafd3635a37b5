package handler

import (
	"log/slog"
	"net/http"

	"github.com/jherforth/HomeGlow-sub000/internal/apperr"
	"github.com/jherforth/HomeGlow-sub000/internal/model"
	"github.com/jherforth/HomeGlow-sub000/internal/store"
	"github.com/jherforth/HomeGlow-sub000/internal/websocket"
)

type HistoryHandler struct {
	history *store.HistoryStore
	hub     *websocket.Hub
	logger  *slog.Logger
}

func NewHistoryHandler(hs *store.HistoryStore, hub *websocket.Hub, logger *slog.Logger) *HistoryHandler {
	return &HistoryHandler{history: hs, hub: hub, logger: logger}
}

func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	var (
		records []model.CompletionRecord
		err     error
	)
	if raw := r.URL.Query().Get("user_id"); raw != "" {
		userID, perr := parseQueryID(raw)
		if perr != nil {
			writeError(w, apperr.Validation("invalid user_id"))
			return
		}
		records, err = h.history.ListByUser(userID)
	} else {
		records, err = h.history.List()
	}
	if err != nil {
		h.logger.Error("list history", "error", err)
		writeError(w, err)
		return
	}
	if records == nil {
		records = []model.CompletionRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

// Delete undoes a completion: the record goes and the captured clams come
// back off the member's balance in the same transaction.
func (h *HistoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, apperr.Validation("invalid id"))
		return
	}

	if err := h.history.DeleteEntry(id); err != nil {
		if apperr.KindOf(err) == "" {
			h.logger.Error("delete history entry", "error", err)
		}
		writeError(w, err)
		return
	}

	if h.hub != nil {
		h.hub.Broadcast(websocket.NewMessage("occurrence", "uncompleted", id))
	}
	w.WriteHeader(http.StatusNoContent)
}
