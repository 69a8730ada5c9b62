// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestConfig_WatchPaths tests watch path collection and deduplication.
func TestConfig_WatchPaths(t *testing.T) {
	cfg := Default()

	paths := cfg.WatchPaths()
	if len(paths) != 1 {
		t.Fatalf("WatchPaths() with no branding = %d paths, want 1 (.env)", len(paths))
	}
	if filepath.Base(paths[0]) != ".env" {
		t.Errorf("WatchPaths()[0] = %q, want .env", paths[0])
	}
	if !filepath.IsAbs(paths[0]) {
		t.Errorf("WatchPaths() returned relative path %q", paths[0])
	}

	cfg.Branding.DisclaimerPath = filepath.Join("assets", "disclaimer.md")
	cfg.Branding.LogoPath = filepath.Join("assets", "logo.txt")

	paths = cfg.WatchPaths()
	if len(paths) != 3 {
		t.Fatalf("WatchPaths() = %d paths, want 3", len(paths))
	}
	for _, p := range paths {
		if !filepath.IsAbs(p) {
			t.Errorf("WatchPaths() returned relative path %q", p)
		}
	}

	// Logo pointing at the disclaimer file should not double up
	cfg.Branding.LogoPath = cfg.Branding.DisclaimerPath
	paths = cfg.WatchPaths()
	if len(paths) != 2 {
		t.Errorf("WatchPaths() with duplicate assets = %d paths, want 2", len(paths))
	}
}

// TestParentDirs tests parent directory deduplication.
func TestParentDirs(t *testing.T) {
	files := map[string]struct{}{
		filepath.Join("a", "b", "one.txt"): {},
		filepath.Join("a", "b", "two.txt"): {},
		filepath.Join("a", "c", "one.txt"): {},
	}

	dirs := parentDirs(files)
	if len(dirs) != 2 {
		t.Fatalf("parentDirs() = %v, want 2 entries", dirs)
	}
	if dirs[0] != filepath.Join("a", "b") || dirs[1] != filepath.Join("a", "c") {
		t.Errorf("parentDirs() = %v, want sorted [a/b a/c]", dirs)
	}
}

// TestPollingWatcher_DetectsChange tests that an edit to a watched file
// fires the reload callback.
func TestPollingWatcher_DetectsChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("PAGE_TITLE=Before\n"), 0600); err != nil {
		t.Fatal(err)
	}

	changed := make(chan []string, 1)
	pw := NewPollingWatcher([]string{path}, 20*time.Millisecond, func(paths []string) {
		select {
		case changed <- paths:
		default:
		}
	})
	if err := pw.Watch(); err != nil {
		t.Fatalf("Watch() error: %v", err)
	}
	defer pw.Close()

	if err := os.WriteFile(path, []byte("PAGE_TITLE=After\n"), 0600); err != nil {
		t.Fatal(err)
	}
	// Force a mod time difference regardless of filesystem timestamp
	// granularity.
	future := time.Now().Add(2 * time.Second)
	if err := os.Chtimes(path, future, future); err != nil {
		t.Fatal(err)
	}

	select {
	case paths := <-changed:
		if len(paths) != 1 || paths[0] != filepath.Clean(path) {
			t.Errorf("reload callback got %v, want [%s]", paths, path)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("reload callback not invoked after file change")
	}
}

// TestPollingWatcher_DetectsCreation tests that a watched file appearing
// after Watch() fires the reload callback.
func TestPollingWatcher_DetectsCreation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "logo.txt")

	changed := make(chan []string, 1)
	pw := NewPollingWatcher([]string{path}, 20*time.Millisecond, func(paths []string) {
		select {
		case changed <- paths:
		default:
		}
	})
	if err := pw.Watch(); err != nil {
		t.Fatalf("Watch() error: %v", err)
	}
	defer pw.Close()

	if err := os.WriteFile(path, []byte("ASCII ART\n"), 0600); err != nil {
		t.Fatal(err)
	}

	select {
	case <-changed:
	case <-time.After(3 * time.Second):
		t.Fatal("reload callback not invoked after file creation")
	}
}

// TestStartWatcher_NothingToWatch tests the empty path set.
func TestStartWatcher_NothingToWatch(t *testing.T) {
	w, err := StartWatcher(nil, 100*time.Millisecond, nil)
	if err != nil {
		t.Fatalf("StartWatcher(nil) error: %v", err)
	}
	if w != nil {
		t.Error("StartWatcher(nil) should return a nil watcher")
	}
}

// TestFsnotifyWatcher_Close tests that Close is safe immediately after
// construction.
func TestFsnotifyWatcher_Close(t *testing.T) {
	fw, err := NewFsnotifyWatcher([]string{filepath.Join(t.TempDir(), ".env")}, 100*time.Millisecond, nil)
	if err != nil {
		t.Skipf("fsnotify unavailable: %v", err)
	}
	if err := fw.Close(); err != nil {
		t.Errorf("Close() error: %v", err)
	}
}
