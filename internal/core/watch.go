package core

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long a SourceWatcher collects changes before
// reporting them.
const DefaultDebounce = 500 * time.Millisecond

// SourceWatcher reports problem files whose content changed on disk. The
// parent directories are watched rather than the files so that editors
// which save by renaming are still seen.
type SourceWatcher struct {
	fsw      *fsnotify.Watcher
	debounce time.Duration

	// Owned by the Run goroutine after construction.
	files   map[string]bool
	hashes  map[string]string
	pending map[string]bool
}

// NewSourceWatcher watches paths. A non-positive debounce uses
// DefaultDebounce.
func NewSourceWatcher(paths []string, debounce time.Duration) (*SourceWatcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}

	w := &SourceWatcher{
		fsw:      fsw,
		debounce: debounce,
		files:    make(map[string]bool),
		hashes:   make(map[string]string),
		pending:  make(map[string]bool),
	}
	dirs := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			_ = fsw.Close()
			return nil, fmt.Errorf("resolving %s: %w", p, err)
		}
		w.files[abs] = true
		if h, ok := hashFile(abs); ok {
			w.hashes[abs] = h
		}
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			_ = fsw.Close()
			return nil, fmt.Errorf("watching %s: %w", dir, err)
		}
	}
	return w, nil
}

// Run delivers batches of changed files, sorted, to onChange until ctx is
// done or the watcher is closed. onChange runs on the Run goroutine.
func (w *SourceWatcher) Run(ctx context.Context, onChange func(ctx context.Context, paths []string)) error {
	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.collect(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watching problem files: %w", err)
		case <-ticker.C:
			if changed := w.flush(); len(changed) > 0 {
				onChange(ctx, changed)
			}
		}
	}
}

// Close stops watching.
func (w *SourceWatcher) Close() error {
	return w.fsw.Close()
}

func (w *SourceWatcher) collect(event fsnotify.Event) {
	if !w.files[event.Name] {
		return
	}
	if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		w.pending[event.Name] = true
	}
}

// flush returns the pending files whose content hash changed. Removed
// files forget their hash so that recreating them counts as a change.
func (w *SourceWatcher) flush() []string {
	if len(w.pending) == 0 {
		return nil
	}
	var changed []string
	for path := range w.pending {
		h, ok := hashFile(path)
		if !ok {
			delete(w.hashes, path)
			continue
		}
		if old, had := w.hashes[path]; had && old == h {
			continue
		}
		w.hashes[path] = h
		changed = append(changed, path)
	}
	w.pending = make(map[string]bool)
	sort.Strings(changed)
	return changed
}

func hashFile(path string) (string, bool) {
	data, err := os.ReadFile(path) //nolint:gosec // path is a watched problem file
	if err != nil {
		return "", false
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), true
}
