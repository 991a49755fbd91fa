package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/kinship/internal/apperr"
	"github.com/dukerupert/kinship/internal/auth"
	"github.com/dukerupert/kinship/internal/family"
	"github.com/dukerupert/kinship/internal/model"
	"github.com/dukerupert/kinship/internal/store"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type AuthHandler struct {
	accounts      *store.AccountStore
	families      *family.Service
	tokens        *auth.Tokens
	secureCookies bool
	cost          int
	logger        *slog.Logger
}

func NewAuthHandler(accounts *store.AccountStore, families *family.Service, tokens *auth.Tokens, secureCookies bool, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		accounts:      accounts,
		families:      families,
		tokens:        tokens,
		secureCookies: secureCookies,
		cost:          bcrypt.DefaultCost,
		logger:        logger,
	}
}

type signupRequest struct {
	Email       string `json:"email" validate:"required,email,max=254"`
	Password    string `json:"password" validate:"required,min=8,max=72"`
	DisplayName string `json:"display_name" validate:"notblank,max=50"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type sessionResponse struct {
	Token   string         `json:"token"`
	Account *model.Account `json:"account"`
}

// Signup handles POST /api/auth/signup
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if _, err := h.accounts.GetByEmail(r.Context(), email); err == nil {
		writeMessage(w, http.StatusConflict, "an account with this email already exists")
		return
	} else if !errors.Is(err, apperr.ErrNotFound) {
		writeError(w, h.logger, "signup lookup", err)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), h.cost)
	if err != nil {
		writeError(w, h.logger, "hash password", err)
		return
	}

	account, err := h.families.CreateProfile(r.Context(), uuid.NewString(), email, strings.TrimSpace(req.DisplayName), nil, model.RoleMember)
	if err != nil {
		writeError(w, h.logger, "create profile", err)
		return
	}
	if err := h.accounts.SetPasswordHash(r.Context(), account.ID, string(hash)); err != nil {
		writeError(w, h.logger, "set password", err)
		return
	}

	h.logger.Info("account created", "account_id", account.ID)
	h.startSession(w, http.StatusCreated, account)
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	id, hash, err := h.accounts.GetPasswordHash(r.Context(), email)
	if errors.Is(err, apperr.ErrNotFound) {
		writeMessage(w, http.StatusUnauthorized, "invalid email or password")
		return
	}
	if err != nil {
		writeError(w, h.logger, "login lookup", err)
		return
	}
	if hash == "" || bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Password)) != nil {
		writeMessage(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	account, err := h.accounts.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, "login account", err)
		return
	}
	h.startSession(w, http.StatusOK, account)
}

// Logout handles POST /api/auth/logout. Tokens are stateless, so logging out
// only clears the cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

// Me handles GET /api/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	account, err := h.accounts.GetByID(r.Context(), auth.AccountID(r.Context()))
	if err != nil {
		writeError(w, h.logger, "get account", err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

func (h *AuthHandler) startSession(w http.ResponseWriter, status int, account *model.Account) {
	token, err := h.tokens.Issue(account.ID)
	if err != nil {
		writeError(w, h.logger, "issue token", err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.tokens.TTL().Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, status, sessionResponse{Token: token, Account: account})
}
