package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

func TestFileWatcherRelevant(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	prog := writeTestFile(t, dir, "main.pl", "main.\n")

	fw, err := newFileWatcher([]string{prog}, zap.NewNop())
	if err != nil {
		t.Fatalf("newFileWatcher: %v", err)
	}
	defer func() { _ = fw.Close() }()

	tests := []struct {
		name string
		ev   fsnotify.Event
		want bool
	}{
		{"write", fsnotify.Event{Name: prog, Op: fsnotify.Write}, true},
		{"create", fsnotify.Event{Name: prog, Op: fsnotify.Create}, true},
		{"rename", fsnotify.Event{Name: prog, Op: fsnotify.Rename}, true},
		{"chmod", fsnotify.Event{Name: prog, Op: fsnotify.Chmod}, false},
		{"other file", fsnotify.Event{Name: filepath.Join(dir, "other.pl"), Op: fsnotify.Write}, false},
	}
	for _, tt := range tests {
		if got := fw.relevant(tt.ev); got != tt.want {
			t.Errorf("%s: relevant = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestFileWatcherRunsOnChange(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	prog := writeTestFile(t, dir, "main.pl", "main.\n")

	fw, err := newFileWatcher([]string{prog}, zap.NewNop())
	if err != nil {
		t.Fatalf("newFileWatcher: %v", err)
	}
	defer func() { _ = fw.Close() }()
	fw.delay = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ran := make(chan struct{}, 1)
	done := make(chan error, 1)
	go func() {
		done <- fw.run(ctx, func() {
			select {
			case ran <- struct{}{}:
			default:
			}
		})
	}()

	if err := os.WriteFile(prog, []byte("main :- helper.\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-ran:
	case <-time.After(5 * time.Second):
		t.Fatal("action not run after file change")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("run returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("run did not stop after cancel")
	}
}
