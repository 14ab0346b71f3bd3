package loader

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watch emits the content id of every markup or sidecar file created or
// rewritten under the root. Bursts of events for the same id within
// debounce are coalesced. Both channels close when ctx is canceled.
func (l *DirLoader) Watch(ctx context.Context, debounce time.Duration, logger *zap.Logger) (<-chan string, <-chan error, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, nil, fmt.Errorf("dirLoader.Watch: %w", err)
	}
	if err := w.Add(l.root); err != nil {
		_ = w.Close()
		return nil, nil, fmt.Errorf("dirLoader.Watch %s: %w", l.root, err)
	}

	ids := make(chan string, 256)
	errs := make(chan error, 1)
	if debounce <= 0 {
		debounce = 250 * time.Millisecond
	}

	go func() {
		defer close(ids)
		defer close(errs)
		defer func() { _ = w.Close() }()

		ticker := time.NewTicker(debounce)
		defer ticker.Stop()
		pending := make(map[string]time.Time)

		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
					continue
				}
				if id, ok := watchedID(ev.Name); ok {
					pending[id] = time.Now()
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Warn("dirLoader.Watch: watcher error", zap.Error(err))
				select {
				case errs <- err:
				default:
				}
			case now := <-ticker.C:
				for id, seen := range pending {
					if now.Sub(seen) < debounce {
						continue
					}
					select {
					case ids <- id:
						delete(pending, id)
					case <-ctx.Done():
						return
					}
				}
			}
		}
	}()
	return ids, errs, nil
}

func watchedID(path string) (string, bool) {
	name := filepath.Base(path)
	ext := filepath.Ext(name)
	if ext != MarkupExt && ext != MetadataExt {
		return "", false
	}
	id := strings.TrimSuffix(name, filepath.Ext(name))
	if validID(id) != nil || strings.HasPrefix(id, ".") {
		return "", false
	}
	return id, true
}
