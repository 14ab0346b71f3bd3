package loader

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"lawnorm/internal/domain"
)

// DirLoader reads documents from a flat directory.
type DirLoader struct {
	root string
}

// NewDirLoader creates a DirLoader rooted at root.
func NewDirLoader(root string) *DirLoader {
	return &DirLoader{root: root}
}

// Root is the directory documents are read from.
func (l *DirLoader) Root() string {
	return l.root
}

func (l *DirLoader) Fetch(_ context.Context, contentID string) (*domain.RawDocument, error) {
	if err := validID(contentID); err != nil {
		return nil, err
	}
	markup, err := os.ReadFile(filepath.Join(l.root, contentID+MarkupExt))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("dirLoader.Fetch %s: %w", contentID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("dirLoader.Fetch %s: %w", contentID, err)
	}
	meta, err := l.metadata(contentID)
	if err != nil {
		return nil, fmt.Errorf("dirLoader.Fetch %s: %w", contentID, err)
	}
	return newRawDocument(contentID, markup, meta), nil
}

// ListPending returns the ids of every markup file in the root, sorted.
// A non-empty filter is matched against each document's sidecar.
func (l *DirLoader) ListPending(ctx context.Context, filter domain.JurisdictionFilter) ([]string, error) {
	entries, err := os.ReadDir(l.root)
	if err != nil {
		return nil, fmt.Errorf("dirLoader.ListPending: %w", err)
	}
	filtered := filter != (domain.JurisdictionFilter{})

	var ids []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != MarkupExt {
			continue
		}
		id := strings.TrimSuffix(e.Name(), MarkupExt)
		if filtered {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			meta, err := l.metadata(id)
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

func (l *DirLoader) metadata(id string) (*sidecar, error) {
	data, err := os.ReadFile(filepath.Join(l.root, id+MetadataExt))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &sidecar{}, nil
		}
		return nil, err
	}
	return parseSidecar(data)
}
