package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/jherforth/HomeGlow-sub000/internal/apperr"
)

func parseIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

func parseQueryID(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps a business-rule error to its status and a body carrying
// the machine-readable kind; anything else is a generic 500 the client may
// retry (mutations are conflict-checked, not blindly additive).
func writeError(w http.ResponseWriter, err error) {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		writeJSON(w, ae.Kind.HTTPStatus(), map[string]string{
			"error": ae.Message,
			"kind":  string(ae.Kind),
		})
		return
	}
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
}
