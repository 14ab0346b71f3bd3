package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"lawnorm/internal/domain"
	"lawnorm/internal/port"
)

// Archiver keeps a copy of each emitted document outside the database.
type Archiver interface {
	Archive(ctx context.Context, doc *domain.NormalizedDocument) error
}

type objectArchiver struct {
	storage port.ObjectStorage
	bucket  string
	prefix  string
}

// NewObjectArchiver stores documents as JSON objects at
// <prefix><state_code>/<document_id>.json.
func NewObjectArchiver(storage port.ObjectStorage, bucket, prefix string) Archiver {
	return &objectArchiver{storage: storage, bucket: bucket, prefix: prefix}
}

// ArchiveKey returns the object key a document is archived under.
func ArchiveKey(prefix string, doc *domain.NormalizedDocument) string {
	state := strings.ToLower(strings.TrimSpace(doc.Jurisdiction.StateCode))
	if state == "" {
		state = "unknown"
	}
	return prefix + path.Join(state, doc.DocumentID+".json")
}

func (a *objectArchiver) Archive(ctx context.Context, doc *domain.NormalizedDocument) error {
	body, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("archive %s: %w", doc.DocumentID, err)
	}
	_, err = a.storage.Upload(ctx, port.UploadInput{
		Bucket:      a.bucket,
		Key:         ArchiveKey(a.prefix, doc),
		Body:        bytes.NewReader(body),
		ContentType: "application/json",
		Size:        int64(len(body)),
	})
	if err != nil {
		return fmt.Errorf("archive %s: %w", doc.DocumentID, err)
	}
	return nil
}
