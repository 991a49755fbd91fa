package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/kinship/internal/auth"
	"github.com/dukerupert/kinship/internal/family"
	"github.com/dukerupert/kinship/internal/store"
)

type FamilyHandler struct {
	families *family.Service
	accounts *store.AccountStore
	logger   *slog.Logger
}

func NewFamilyHandler(families *family.Service, accounts *store.AccountStore, logger *slog.Logger) *FamilyHandler {
	return &FamilyHandler{families: families, accounts: accounts, logger: logger}
}

type familyRequest struct {
	Name        string `json:"name" validate:"notblank,max=100"`
	Description string `json:"description" validate:"max=500"`
}

type promoteRequest struct {
	AccountID string `json:"account_id" validate:"required"`
}

// List handles GET /api/families
func (h *FamilyHandler) List(w http.ResponseWriter, r *http.Request) {
	families, err := h.families.ListFamilies(r.Context())
	if err != nil {
		writeError(w, h.logger, "list families", err)
		return
	}
	writeJSON(w, http.StatusOK, families)
}

// Create handles POST /api/families. The caller joins the new family as its
// first admin.
func (h *FamilyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req familyRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	f, err := h.families.CreateFamily(r.Context(), auth.AccountID(r.Context()),
		strings.TrimSpace(req.Name), strings.TrimSpace(req.Description))
	if err != nil {
		writeError(w, h.logger, "create family", err)
		return
	}
	writeJSON(w, http.StatusCreated, f)
}

// Get handles GET /api/families/{id}
func (h *FamilyHandler) Get(w http.ResponseWriter, r *http.Request) {
	f, err := h.families.GetFamily(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, "get family", err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

// Join handles POST /api/families/{id}/join and returns the updated account.
func (h *FamilyHandler) Join(w http.ResponseWriter, r *http.Request) {
	accountID := auth.AccountID(r.Context())
	if err := h.families.JoinFamily(r.Context(), accountID, r.PathValue("id")); err != nil {
		writeError(w, h.logger, "join family", err)
		return
	}

	account, err := h.accounts.GetByID(r.Context(), accountID)
	if err != nil {
		writeError(w, h.logger, "get account", err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

// Members handles GET /api/families/{id}/members. Only members may list.
func (h *FamilyHandler) Members(w http.ResponseWriter, r *http.Request) {
	familyID := r.PathValue("id")
	if auth.FamilyID(r.Context()) != familyID {
		writeMessage(w, http.StatusForbidden, "not a member of this family")
		return
	}

	members, err := h.families.Members(r.Context(), familyID)
	if err != nil {
		writeError(w, h.logger, "list members", err)
		return
	}
	writeJSON(w, http.StatusOK, members)
}

// Promote handles POST /api/families/{id}/admins. Callers must be an admin of
// the same family.
func (h *FamilyHandler) Promote(w http.ResponseWriter, r *http.Request) {
	familyID := r.PathValue("id")
	if !auth.IsAdmin(r.Context()) || auth.FamilyID(r.Context()) != familyID {
		writeMessage(w, http.StatusForbidden, "admin role required")
		return
	}

	var req promoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	target, err := h.accounts.GetByID(r.Context(), req.AccountID)
	if err != nil {
		writeError(w, h.logger, "get promotion target", err)
		return
	}
	if !target.InFamily(familyID) {
		writeMessage(w, http.StatusNotFound, "member not found")
		return
	}

	account, err := h.families.PromoteToAdmin(r.Context(), target.ID, familyID)
	if err != nil {
		writeError(w, h.logger, "promote admin", err)
		return
	}
	h.logger.Info("admin promoted", "family_id", familyID, "account_id", account.ID, "by", auth.AccountID(r.Context()))
	writeJSON(w, http.StatusOK, account)
}
