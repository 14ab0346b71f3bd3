package loader

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"lawnorm/internal/domain"
	"lawnorm/internal/port"
)

// ObjectLoader reads documents from object storage under a key prefix.
type ObjectLoader struct {
	storage port.ObjectStorage
	bucket  string
	prefix  string
}

// NewObjectLoader creates an ObjectLoader for <prefix><id>.html objects.
func NewObjectLoader(storage port.ObjectStorage, bucket, prefix string) *ObjectLoader {
	return &ObjectLoader{storage: storage, bucket: bucket, prefix: prefix}
}

func (l *ObjectLoader) Fetch(ctx context.Context, contentID string) (*domain.RawDocument, error) {
	if err := validID(contentID); err != nil {
		return nil, err
	}
	markup, err := l.storage.Download(ctx, l.bucket, l.prefix+contentID+MarkupExt)
	if err != nil {
		return nil, fmt.Errorf("objectLoader.Fetch %s: %w", contentID, err)
	}
	meta, err := l.metadata(ctx, contentID)
	if err != nil {
		return nil, fmt.Errorf("objectLoader.Fetch %s: %w", contentID, err)
	}
	return newRawDocument(contentID, markup, meta), nil
}

func (l *ObjectLoader) ListPending(ctx context.Context, filter domain.JurisdictionFilter) ([]string, error) {
	keys, err := l.storage.List(ctx, l.bucket, l.prefix)
	if err != nil {
		return nil, fmt.Errorf("objectLoader.ListPending: %w", err)
	}
	filtered := filter != (domain.JurisdictionFilter{})

	var ids []string
	for _, key := range keys {
		rel := strings.TrimPrefix(key, l.prefix)
		if strings.Contains(rel, "/") || !strings.HasSuffix(rel, MarkupExt) {
			continue
		}
		id := rel[:len(rel)-len(MarkupExt)]
		if filtered {
			meta, err := l.metadata(ctx, id)
			if err != nil {
				continue
			}
			if !filter.Matches(domain.Jurisdiction{PlaceName: meta.PlaceName, StateCode: meta.StateCode}) {
				continue
			}
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (l *ObjectLoader) metadata(ctx context.Context, id string) (*sidecar, error) {
	data, err := l.storage.Download(ctx, l.bucket, l.prefix+id+MetadataExt)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return &sidecar{}, nil
		}
		return nil, err
	}
	return parseSidecar(data)
}
