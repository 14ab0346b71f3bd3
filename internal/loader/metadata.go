// Package loader reads raw corpus documents from a local directory or an
// object store. Each document is <id>.html with an optional <id>.json
// sidecar carrying jurisdiction and citation metadata.
package loader

import (
	"encoding/json"
	"fmt"
	"strings"

	"lawnorm/internal/config"
	"lawnorm/internal/domain"
	"lawnorm/internal/port"
)

// Kinds of loader.
const (
	KindDir = "dir"
	KindS3  = "s3"
)

// MarkupExt is the extension of document markup files.
const MarkupExt = ".html"

// MetadataExt is the extension of the optional metadata sidecar.
const MetadataExt = ".json"

// sidecar is the metadata file stored next to each document.
type sidecar struct {
	PlaceName string          `json:"place_name"`
	StateCode string          `json:"state_code"`
	Citation  json.RawMessage `json:"citation,omitempty"`
}

func parseSidecar(data []byte) (*sidecar, error) {
	var meta sidecar
	if len(data) == 0 {
		return &meta, nil
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("%w: metadata: %v", domain.ErrMalformedInput, err)
	}
	meta.PlaceName = strings.TrimSpace(meta.PlaceName)
	meta.StateCode = strings.ToUpper(strings.TrimSpace(meta.StateCode))
	return &meta, nil
}

func newRawDocument(id string, markup []byte, meta *sidecar) *domain.RawDocument {
	doc := &domain.RawDocument{
		ContentID: id,
		RawMarkup: string(markup),
	}
	if meta != nil {
		doc.PlaceName = meta.PlaceName
		doc.StateCode = meta.StateCode
		if len(meta.Citation) > 0 && string(meta.Citation) != "null" {
			doc.CitationMetadata = meta.Citation
		}
	}
	return doc
}

// validID rejects content ids that could escape the corpus root.
func validID(id string) error {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
		return fmt.Errorf("%w: content id %q", domain.ErrInvalidInput, id)
	}
	return nil
}

// New builds the loader selected by cfg.Kind. storage and bucket are only
// used by the s3 kind.
func New(cfg config.LoaderConfig, storage port.ObjectStorage, bucket string) (port.DocumentLoader, error) {
	switch cfg.Kind {
	case KindDir, "":
		return NewDirLoader(cfg.Root), nil
	case KindS3:
		if storage == nil {
			return nil, fmt.Errorf("%w: s3 loader requires object storage", domain.ErrInvalidInput)
		}
		return NewObjectLoader(storage, bucket, cfg.Prefix), nil
	default:
		return nil, fmt.Errorf("%w: unknown loader kind %q", domain.ErrInvalidInput, cfg.Kind)
	}
}
