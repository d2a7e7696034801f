package handlers

import (
	"context"
	"fmt"
	"log"
	"mime/multipart"

	"p9e.in/fcrm/models"
	"p9e.in/fcrm/pkg/storage"
)

// saveUpload stores one multipart file and returns its public path.
func (h *Handler) saveUpload(ctx context.Context, fh *multipart.FileHeader) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open %s: %w", fh.Filename, err)
	}
	defer f.Close()
	return h.store.Save(ctx, fh.Filename, fh.Header.Get("Content-Type"), f)
}

// saveAttachments stores every file and pairs it with the description at the
// same index. Rows are returned unsaved; the caller inserts them in its transaction.
func (h *Handler) saveAttachments(ctx context.Context, files []*multipart.FileHeader, descriptions []string) ([]models.ComplaintAttachment, error) {
	out := make([]models.ComplaintAttachment, 0, len(files))
	for i, fh := range files {
		path, err := h.saveUpload(ctx, fh)
		if err != nil {
			h.discardAttachments(ctx, out)
			return nil, err
		}
		desc := ""
		if i < len(descriptions) {
			desc = descriptions[i]
		}
		out = append(out, models.ComplaintAttachment{
			FilePath:    path,
			FileType:    storage.FileType(fh.Filename),
			Description: desc,
		})
	}
	return out, nil
}

// discardAttachments removes stored files whose rows never got committed.
func (h *Handler) discardAttachments(ctx context.Context, attachments []models.ComplaintAttachment) {
	ctx = context.WithoutCancel(ctx)
	for _, a := range attachments {
		if err := h.store.Delete(ctx, a.FilePath); err != nil {
			log.Printf("⚠️  Failed to remove orphaned upload %s: %v", a.FilePath, err)
		}
	}
}

// formFiles returns files sent as "files[]" or "files".
func formFiles(form *multipart.Form, field string) []*multipart.FileHeader {
	if form == nil {
		return nil
	}
	if files := form.File[field+"[]"]; len(files) > 0 {
		return files
	}
	return form.File[field]
}

func formValues(form *multipart.Form, field string) []string {
	if form == nil {
		return nil
	}
	if v := form.Value[field+"[]"]; len(v) > 0 {
		return v
	}
	return form.Value[field]
}
