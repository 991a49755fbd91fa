package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/kinship/internal/auth"
	"github.com/dukerupert/kinship/internal/feed"
	"github.com/dukerupert/kinship/internal/store"
)

type NotificationHandler struct {
	sync   *feed.Synchronizer
	notes  *store.NotificationStore
	logger *slog.Logger
}

func NewNotificationHandler(sync *feed.Synchronizer, notes *store.NotificationStore, logger *slog.Logger) *NotificationHandler {
	return &NotificationHandler{sync: sync, notes: notes, logger: logger}
}

// List handles GET /api/notifications
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())
	notes, err := h.sync.LoadNotifications(r.Context(), ac.FamilyID, ac.AccountID)
	if err != nil {
		writeError(w, h.logger, "list notifications", err)
		return
	}
	writeJSON(w, http.StatusOK, notes)
}

// MarkRead handles POST /api/notifications/{id}/read
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())
	n, err := h.notes.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, "get notification", err)
		return
	}
	if n.FamilyID != ac.FamilyID || (n.AccountID != nil && *n.AccountID != ac.AccountID) {
		writeMessage(w, http.StatusNotFound, "notification not found")
		return
	}

	if err := h.notes.MarkRead(r.Context(), n.ID, ac.FamilyID); err != nil {
		writeError(w, h.logger, "mark notification read", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
