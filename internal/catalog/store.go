package catalog

import (
	"context"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/yungbote/carebridge-backend/internal/observability"
	"github.com/yungbote/carebridge-backend/internal/platform/logger"
)

// Store holds the current catalog Snapshot behind an atomic pointer. Readers
// call Current and keep working against that snapshot; a reload builds a
// whole new snapshot and swaps the pointer, so no reader ever sees a
// half-updated catalog.
type Store struct {
	log     *logger.Logger
	path    string
	current atomic.Pointer[Snapshot]
}

func NewStore(log *logger.Logger, path string) (*Store, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	s := &Store{
		log:  log.With("service", "CatalogStore"),
		path: path,
	}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// NewStoreFromSnapshot wraps a pre-built snapshot; used by tests and by
// callers that assemble catalogs in memory.
func NewStoreFromSnapshot(log *logger.Logger, snap *Snapshot) *Store {
	s := &Store{log: log.With("service", "CatalogStore")}
	s.current.Store(snap)
	return s
}

func (s *Store) Current() *Snapshot {
	return s.current.Load()
}

// Reload re-parses the source file and atomically swaps the snapshot. On
// parse failure the previous snapshot stays in place.
func (s *Store) Reload() error {
	if s.path == "" {
		return fmt.Errorf("catalog store has no source path")
	}
	snap, err := LoadFile(s.log, s.path)
	if err != nil {
		observability.Current().IncCatalogReload("error")
		return err
	}
	s.current.Store(snap)
	observability.Current().IncCatalogReload("ok")
	s.log.Info("Catalog snapshot loaded",
		"path", s.path,
		"questions", snap.QuestionCount(),
		"dimensions", len(snap.Dimensions()),
	)
	return nil
}

// Watch hot-reloads the catalog when its source file changes. Events are
// debounced because editors emit bursts of writes. Blocks until ctx is done.
func (s *Store) Watch(ctx context.Context) error {
	if s.path == "" {
		return fmt.Errorf("catalog store has no source path")
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create catalog watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory: many editors replace the file on save, which
	// drops a watch registered on the file itself.
	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		return fmt.Errorf("watch catalog dir: %w", err)
	}

	const debounce = 500 * time.Millisecond
	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(s.path) {
				continue
			}
			if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
				timerC = timer.C
			} else {
				timer.Reset(debounce)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.log.Warn("Catalog watcher error", "error", err)
		case <-timerC:
			timer = nil
			timerC = nil
			if err := s.Reload(); err != nil {
				s.log.Warn("Catalog hot reload failed; keeping previous snapshot", "error", err)
			}
		}
	}
}
