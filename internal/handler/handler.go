// Package handler implements the JSON HTTP API.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/dukerupert/kinship/internal/apperr"
)

const genericFailure = "something went wrong, please try again"

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeError maps a classified failure to its HTTP status. Persistence and
// transport failures are logged and reported with a generic message.
func writeError(w http.ResponseWriter, logger *slog.Logger, op string, err error) {
	msg := err.Error()
	var e *apperr.Error
	if errors.As(err, &e) {
		msg = e.Msg
	}

	switch apperr.KindOf(err) {
	case apperr.KindNotFound:
		writeMessage(w, http.StatusNotFound, msg)
	case apperr.KindConflict:
		writeMessage(w, http.StatusConflict, msg)
	case apperr.KindPolicy:
		writeMessage(w, http.StatusForbidden, msg)
	case apperr.KindUpload:
		logger.Error(op, "error", err)
		writeMessage(w, http.StatusBadGateway, "upload failed, please try again")
	default:
		logger.Error(op, "error", err)
		writeMessage(w, http.StatusInternalServerError, genericFailure)
	}
}

// decodeJSON reads r's body into v and validates it. On failure it writes a
// 400 and returns false.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON")
		return false
	}
	return validRequest(w, v)
}

func validRequest(w http.ResponseWriter, v any) bool {
	if fields := validateStruct(v); fields != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":  "invalid request",
			"fields": fields,
		})
		return false
	}
	return true
}

// Health handles GET /health
func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
