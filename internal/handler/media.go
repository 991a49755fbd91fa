package handler

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/kinship/internal/auth"
	"github.com/dukerupert/kinship/internal/feed"
	"github.com/dukerupert/kinship/internal/media"
	"github.com/dukerupert/kinship/internal/model"
)

// MaxUploadBytes bounds a single media upload.
const MaxUploadBytes = 32 << 20

type MediaHandler struct {
	uploader *media.Uploader
	notifier feed.Notifier
	logger   *slog.Logger
}

func NewMediaHandler(uploader *media.Uploader, notifier feed.Notifier, logger *slog.Logger) *MediaHandler {
	return &MediaHandler{uploader: uploader, notifier: notifier, logger: logger}
}

type mediaForm struct {
	Title       string `json:"title" validate:"notblank,max=200"`
	Description string `json:"description" validate:"max=1000"`
}

// List handles GET /api/media
func (h *MediaHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.uploader.List(r.Context(), auth.FamilyID(r.Context()))
	if err != nil {
		writeError(w, h.logger, "list media", err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// Upload handles POST /api/media, a multipart form with a "file" part plus
// "title" and optional "description" fields.
func (h *MediaHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes)
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeMessage(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("file exceeds %d MB", MaxUploadBytes>>20))
			return
		}
		writeMessage(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	form := mediaForm{
		Title:       strings.TrimSpace(r.FormValue("title")),
		Description: r.FormValue("description"),
	}
	if !validRequest(w, &form) {
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "could not read file")
		return
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = http.DetectContentType(data)
	}

	ac, _ := auth.FromContext(r.Context())
	item, err := h.uploader.Upload(r.Context(), media.Upload{
		FamilyID:    ac.FamilyID,
		AccountID:   ac.AccountID,
		Data:        data,
		FileName:    header.Filename,
		MIMEType:    mimeType,
		Title:       form.Title,
		Description: form.Description,
	})
	if err != nil {
		writeError(w, h.logger, "upload media", err)
		return
	}

	msg := fmt.Sprintf("%s uploaded: %s", ac.DisplayName, item.Title)
	if _, err := h.notifier.Notify(r.Context(), ac.FamilyID, "New Media Uploaded", msg, model.NotifyMedia, nil); err != nil {
		h.logger.Warn("media notification", "family_id", ac.FamilyID, "media_id", item.ID, "error", err)
	}

	writeJSON(w, http.StatusCreated, item)
}
