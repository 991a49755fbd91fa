package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/kinship/internal/auth"
	"github.com/dukerupert/kinship/internal/feed"
	"github.com/dukerupert/kinship/internal/model"
	"github.com/dukerupert/kinship/internal/store"
)

type PostHandler struct {
	sync   *feed.Synchronizer
	posts  *store.PostStore
	logger *slog.Logger
}

func NewPostHandler(sync *feed.Synchronizer, posts *store.PostStore, logger *slog.Logger) *PostHandler {
	return &PostHandler{sync: sync, posts: posts, logger: logger}
}

type postRequest struct {
	Content string `json:"content" validate:"notblank,max=5000"`
	Type    string `json:"type" validate:"omitempty,oneof=announcement discussion prayer-request"`
}

type commentRequest struct {
	Content string `json:"content" validate:"notblank,max=2000"`
}

// List handles GET /api/posts
func (h *PostHandler) List(w http.ResponseWriter, r *http.Request) {
	posts, err := h.sync.LoadPosts(r.Context(), auth.FamilyID(r.Context()))
	if err != nil {
		writeError(w, h.logger, "list posts", err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

// Create handles POST /api/posts. Only admins may post announcements.
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req postRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Type == "" {
		req.Type = model.PostDiscussion
	}

	ac, _ := auth.FromContext(r.Context())
	if req.Type == model.PostAnnouncement && ac.Role != model.RoleAdmin {
		writeMessage(w, http.StatusForbidden, "only admins can post announcements")
		return
	}

	p, err := h.sync.CreatePost(r.Context(), ac.FamilyID, ac.AccountID, ac.DisplayName, strings.TrimSpace(req.Content), req.Type)
	if err != nil {
		writeError(w, h.logger, "create post", err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// Like handles POST /api/posts/{id}/like, toggling the caller's like.
func (h *PostHandler) Like(w http.ResponseWriter, r *http.Request) {
	postID, ok := h.ownPost(w, r)
	if !ok {
		return
	}

	liked, err := h.sync.ToggleLike(r.Context(), postID, auth.AccountID(r.Context()))
	if err != nil {
		writeError(w, h.logger, "toggle like", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"liked": liked})
}

// Comment handles POST /api/posts/{id}/comments
func (h *PostHandler) Comment(w http.ResponseWriter, r *http.Request) {
	postID, ok := h.ownPost(w, r)
	if !ok {
		return
	}

	var req commentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ac, _ := auth.FromContext(r.Context())
	c, err := h.sync.AddComment(r.Context(), postID, ac.AccountID, ac.DisplayName, strings.TrimSpace(req.Content))
	if err != nil {
		writeError(w, h.logger, "add comment", err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// ownPost resolves the {id} post and checks it belongs to the caller's
// family. Posts in other families are reported as missing.
func (h *PostHandler) ownPost(w http.ResponseWriter, r *http.Request) (string, bool) {
	postID := r.PathValue("id")
	familyID, err := h.posts.FamilyOf(r.Context(), postID)
	if err != nil {
		writeError(w, h.logger, "resolve post", err)
		return "", false
	}
	if familyID != auth.FamilyID(r.Context()) {
		writeMessage(w, http.StatusNotFound, "post not found")
		return "", false
	}
	return postID, true
}
