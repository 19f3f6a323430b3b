package core

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
)

func newTestWatcher(t *testing.T, paths ...string) *SourceWatcher {
	t.Helper()
	w, err := NewSourceWatcher(paths, 10*time.Millisecond)
	if err != nil {
		t.Fatalf("NewSourceWatcher() error = %v", err)
	}
	t.Cleanup(func() { _ = w.Close() })
	return w
}

func TestSourceWatcher_FlushSkipsUnchanged(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "p.yaml")
	touch(t, path)
	w := newTestWatcher(t, path)

	w.collect(fsnotify.Event{Name: path, Op: fsnotify.Write})
	if got := w.flush(); len(got) != 0 {
		t.Errorf("flush() after no-op write = %v, want none", got)
	}

	if err := os.WriteFile(path, []byte("name: q\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	w.collect(fsnotify.Event{Name: path, Op: fsnotify.Write})
	if got := w.flush(); !reflect.DeepEqual(got, []string{path}) {
		t.Errorf("flush() = %v, want [%s]", got, path)
	}
	if got := w.flush(); len(got) != 0 {
		t.Errorf("second flush() = %v, want none", got)
	}
}

func TestSourceWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "p.yaml")
	other := filepath.Join(dir, "other.yaml")
	touch(t, path)
	touch(t, other)
	w := newTestWatcher(t, path)

	w.collect(fsnotify.Event{Name: other, Op: fsnotify.Write})
	if len(w.pending) != 0 {
		t.Errorf("pending = %v, want empty", w.pending)
	}
	w.collect(fsnotify.Event{Name: path, Op: fsnotify.Chmod})
	if len(w.pending) != 0 {
		t.Errorf("chmod should not be pending: %v", w.pending)
	}
}

func TestSourceWatcher_RemoveThenRecreate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "p.yaml")
	touch(t, path)
	w := newTestWatcher(t, path)

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	w.collect(fsnotify.Event{Name: path, Op: fsnotify.Remove})
	if got := w.flush(); len(got) != 0 {
		t.Errorf("flush() after remove = %v, want none", got)
	}

	touch(t, path)
	w.collect(fsnotify.Event{Name: path, Op: fsnotify.Create})
	if got := w.flush(); !reflect.DeepEqual(got, []string{path}) {
		t.Errorf("flush() after recreate = %v, want [%s]", got, path)
	}
}

func TestSourceWatcher_Run(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "p.yaml")
	touch(t, path)
	w := newTestWatcher(t, path)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan []string, 1)
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func(_ context.Context, paths []string) {
			select {
			case changes <- paths:
			default:
			}
		})
	}()

	if err := os.WriteFile(path, []byte("name: changed\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case got := <-changes:
		if !reflect.DeepEqual(got, []string{path}) {
			t.Errorf("changed = %v, want [%s]", got, path)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for change")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}

func TestNewSourceWatcher_MissingDirectory(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope", "p.yaml")
	if _, err := NewSourceWatcher([]string{missing}, 0); err == nil {
		t.Error("expected error watching a missing directory")
	}
}
