package handler

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"testing"

	"github.com/dukerupert/kinship/internal/model"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

type part struct {
	name        string
	fileName    string
	contentType string
	data        []byte
}

func multipartBody(t *testing.T, fields map[string]string, file *part) (*bytes.Buffer, http.Header) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		mw.WriteField(k, v)
	}
	if file != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="`+file.name+`"; filename="`+file.fileName+`"`)
		h.Set("Content-Type", file.contentType)
		w, err := mw.CreatePart(h)
		if err != nil {
			t.Fatalf("create part: %v", err)
		}
		w.Write(file.data)
	}
	mw.Close()
	return &buf, http.Header{"Content-Type": {mw.FormDataContentType()}}
}

func TestUploadPhotoNotifiesFamily(t *testing.T) {
	e := setup(t)
	ruth := e.founder(t, "ruth")

	body, header := multipartBody(t, map[string]string{"title": "Lake"},
		&part{name: "file", fileName: "lake.png", contentType: "application/octet-stream", data: pngHeader})
	rec := serve(t, e.media.Upload, call{method: "POST", target: "/api/media", as: &ruth, raw: body, header: header})
	wantStatus(t, rec, http.StatusCreated)

	item := decode[model.Media](t, rec)
	if item.Type != model.MediaPhoto {
		t.Errorf("type = %q, want photo from sniffed content", item.Type)
	}
	if !strings.HasPrefix(item.URL, "/media/"+ruth.FamilyID+"/") || !strings.HasSuffix(item.URL, ".png") {
		t.Errorf("url = %q", item.URL)
	}
	if item.Description != nil {
		t.Errorf("description = %q, want nil", *item.Description)
	}

	notes, _ := e.notes.ListForAccount(context.Background(), ruth.FamilyID, ruth.AccountID, model.MaxNotifications)
	if len(notes) != 1 || notes[0].Title != "New Media Uploaded" || notes[0].Message != "ruth uploaded: Lake" || notes[0].Type != model.NotifyMedia {
		t.Errorf("notifications = %+v", notes)
	}

	rec = serve(t, e.media.List, call{method: "GET", target: "/api/media", as: &ruth})
	wantStatus(t, rec, http.StatusOK)
	if got := decode[[]model.Media](t, rec); len(got) != 1 {
		t.Errorf("media = %d, want 1", len(got))
	}
}

func TestUploadAudio(t *testing.T) {
	e := setup(t)
	ruth := e.founder(t, "ruth")

	body, header := multipartBody(t, map[string]string{"title": "Hymn", "description": "Sunday"},
		&part{name: "file", fileName: "hymn.mp3", contentType: "audio/mpeg", data: []byte("ID3")})
	rec := serve(t, e.media.Upload, call{method: "POST", target: "/", as: &ruth, raw: body, header: header})
	wantStatus(t, rec, http.StatusCreated)

	item := decode[model.Media](t, rec)
	if item.Type != model.MediaAudio || item.Description == nil || *item.Description != "Sunday" {
		t.Errorf("item = %+v", item)
	}
}

func TestUploadValidation(t *testing.T) {
	e := setup(t)
	ruth := e.founder(t, "ruth")

	body, header := multipartBody(t, map[string]string{"title": "No file"}, nil)
	rec := serve(t, e.media.Upload, call{method: "POST", target: "/", as: &ruth, raw: body, header: header})
	wantStatus(t, rec, http.StatusBadRequest)

	body, header = multipartBody(t, map[string]string{"title": "  "},
		&part{name: "file", fileName: "a.png", contentType: "image/png", data: pngHeader})
	rec = serve(t, e.media.Upload, call{method: "POST", target: "/", as: &ruth, raw: body, header: header})
	wantStatus(t, rec, http.StatusBadRequest)

	rec = serve(t, e.media.Upload, call{method: "POST", target: "/", as: &ruth, raw: strings.NewReader("plain"),
		header: http.Header{"Content-Type": {"text/plain"}}})
	wantStatus(t, rec, http.StatusBadRequest)
}
