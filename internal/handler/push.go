package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/kinship/internal/auth"
	"github.com/dukerupert/kinship/internal/push"
	"github.com/dukerupert/kinship/internal/store"
)

type PushHandler struct {
	devices *store.PushStore
	service *push.Service
	logger  *slog.Logger
}

func NewPushHandler(devices *store.PushStore, svc *push.Service, logger *slog.Logger) *PushHandler {
	return &PushHandler{devices: devices, service: svc, logger: logger}
}

type subscribeRequest struct {
	Endpoint   string `json:"endpoint" validate:"required,url"`
	P256dh     string `json:"p256dh" validate:"required"`
	Auth       string `json:"auth" validate:"required"`
	DeviceName string `json:"device_name" validate:"max=100"`
}

// Subscribe handles POST /api/push/subscribe. Re-registering an endpoint
// moves it to the caller.
func (h *PushHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ac, _ := auth.FromContext(r.Context())
	sub, err := h.devices.Upsert(r.Context(), ac.AccountID, ac.FamilyID, req.Endpoint, req.P256dh, req.Auth, req.DeviceName)
	if err != nil {
		writeError(w, h.logger, "save push subscription", err)
		return
	}
	writeJSON(w, http.StatusCreated, sub)
}

// Unsubscribe handles DELETE /api/push/subscriptions/{id}
func (h *PushHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	if err := h.devices.DeleteForAccount(r.Context(), r.PathValue("id"), auth.AccountID(r.Context())); err != nil {
		writeError(w, h.logger, "delete push subscription", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListSubscriptions handles GET /api/push/subscriptions
func (h *PushHandler) ListSubscriptions(w http.ResponseWriter, r *http.Request) {
	subs, err := h.devices.ListByAccount(r.Context(), auth.AccountID(r.Context()))
	if err != nil {
		writeError(w, h.logger, "list push subscriptions", err)
		return
	}
	writeJSON(w, http.StatusOK, subs)
}

// VAPIDKey handles GET /api/push/vapid-key
func (h *PushHandler) VAPIDKey(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"public_key": h.service.VAPIDPublicKey()})
}
