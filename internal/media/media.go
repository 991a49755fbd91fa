// Package media stores family photos and audio recordings.
package media

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dukerupert/kinship/internal/apperr"
	"github.com/dukerupert/kinship/internal/metrics"
	"github.com/dukerupert/kinship/internal/model"
	"github.com/dukerupert/kinship/internal/store"
	"github.com/google/uuid"
)

// Upload describes one file to store.
type Upload struct {
	FamilyID    string
	AccountID   string
	Data        []byte
	FileName    string
	MIMEType    string
	Title       string
	Description string
}

type Uploader struct {
	objects ObjectStore
	items   *store.MediaStore
	metrics *metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

func NewUploader(objects ObjectStore, items *store.MediaStore, m *metrics.Metrics, logger *slog.Logger) *Uploader {
	return &Uploader{
		objects: objects,
		items:   items,
		metrics: m,
		logger:  logger.With("component", "media"),
		now:     time.Now,
	}
}

// TypeFor maps a MIME type to a media type: images are photos, everything
// else is audio.
func TypeFor(mimeType string) string {
	if strings.HasPrefix(mimeType, "image/") {
		return model.MediaPhoto
	}
	return model.MediaAudio
}

// Upload writes the blob, then records it. A blob failure is an upload error
// and nothing is recorded. A record failure is a persist error and the blob
// stays behind in the object store.
func (u *Uploader) Upload(ctx context.Context, in Upload) (*model.Media, error) {
	mediaType := TypeFor(in.MIMEType)
	key := u.objectKey(in.FamilyID, in.FileName)

	if err := u.objects.Put(ctx, key, in.MIMEType, in.Data); err != nil {
		u.metrics.MediaUpload(mediaType, err)
		return nil, apperr.Upload("upload media", err)
	}

	var description *string
	if d := strings.TrimSpace(in.Description); d != "" {
		description = &d
	}

	item, err := u.items.Create(ctx, in.FamilyID, mediaType, in.Title, description, u.objects.URL(key), in.AccountID)
	if err != nil {
		u.metrics.MediaUpload(mediaType, err)
		u.logger.Error("media row insert failed, blob orphaned", "key", key, "error", err)
		return nil, apperr.Persist("save media", err)
	}

	u.metrics.MediaUpload(mediaType, nil)
	u.logger.Info("media uploaded", "family_id", in.FamilyID, "media_id", item.ID, "type", mediaType, "bytes", len(in.Data))
	return item, nil
}

// List returns the family's media, newest first.
func (u *Uploader) List(ctx context.Context, familyID string) ([]model.Media, error) {
	return u.items.ListByFamily(ctx, familyID)
}

// objectKey builds "<family>/<unix-millis>_<random>.<ext>".
func (u *Uploader) objectKey(familyID, fileName string) string {
	random := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%s/%d_%s.%s", familyID, u.now().UnixMilli(), random, extension(fileName))
}

// extension returns the lowercased text after the last dot of name, reduced
// to letters and digits. Names without one get "bin".
func extension(name string) string {
	i := strings.LastIndexByte(name, '.')
	if i < 0 || i == len(name)-1 {
		return "bin"
	}
	var b strings.Builder
	for _, r := range strings.ToLower(name[i+1:]) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "bin"
	}
	return b.String()
}
