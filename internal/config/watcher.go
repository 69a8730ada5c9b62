// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// =============================================================================
// BRANDING ASSET WATCHER
// =============================================================================
//
// Branded deployments ship their settings as a .env file plus optional
// disclaimer and logo assets. Watching those files lets a long-running
// surface (TUI, serve) pick up edits without a restart.

// ReloadFunc is called with the set of watched paths that changed.
type ReloadFunc func(changed []string)

// Watcher is the interface for branding asset watchers.
type Watcher interface {
	// Watch starts watching for file changes
	Watch() error

	// Close stops watching and releases resources
	Close() error
}

// WatchPaths returns the files worth watching for a configuration:
// the .env file in the working directory plus any configured
// disclaimer and logo assets. Paths are absolute and deduplicated;
// files that do not exist yet are still included so their creation
// is observed.
func (c *Config) WatchPaths() []string {
	candidates := []string{".env", c.Branding.DisclaimerPath, c.Branding.LogoPath}

	seen := make(map[string]struct{})
	var paths []string
	for _, p := range candidates {
		if p == "" {
			continue
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			continue
		}
		if _, ok := seen[abs]; ok {
			continue
		}
		seen[abs] = struct{}{}
		paths = append(paths, abs)
	}

	sort.Strings(paths)
	return paths
}

// =============================================================================
// FSNOTIFY WATCHER
// =============================================================================

// FsnotifyWatcher implements Watcher using fsnotify.
//
// RELIABILITY: The parent directories of the watched files are
// registered rather than the files themselves. Editors commonly
// replace a file on save (write to temp, rename over), which would
// silently drop a watch registered on the file.
type FsnotifyWatcher struct {
	files    map[string]struct{}
	watcher  *fsnotify.Watcher
	debounce time.Duration
	onReload ReloadFunc
	mu       sync.Mutex
	pending  map[string]time.Time // File path -> last change time
	ctx      context.Context
	cancel   context.CancelFunc
}

// NewFsnotifyWatcher creates a new fsnotify-based watcher for the given files.
func NewFsnotifyWatcher(paths []string, debounce time.Duration, onReload ReloadFunc) (*FsnotifyWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())

	files := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		files[filepath.Clean(p)] = struct{}{}
	}

	fw := &FsnotifyWatcher{
		files:    files,
		watcher:  watcher,
		debounce: debounce,
		onReload: onReload,
		pending:  make(map[string]time.Time),
		ctx:      ctx,
		cancel:   cancel,
	}

	return fw, nil
}

// Watch starts watching for file changes.
func (fw *FsnotifyWatcher) Watch() error {
	for _, dir := range parentDirs(fw.files) {
		if err := fw.watcher.Add(dir); err != nil {
			return err
		}
	}

	// Start event processing goroutine
	go fw.processEvents()

	// Start debounce timer goroutine
	go fw.processPending()

	return nil
}

// parentDirs returns the deduplicated parent directories of a file set.
func parentDirs(files map[string]struct{}) []string {
	seen := make(map[string]struct{})
	var dirs []string
	for f := range files {
		dir := filepath.Dir(f)
		if _, ok := seen[dir]; ok {
			continue
		}
		seen[dir] = struct{}{}
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)
	return dirs
}

// processEvents processes file system events.
func (fw *FsnotifyWatcher) processEvents() {
	// Add panic recovery to prevent crashes
	defer func() {
		if r := recover(); r != nil {
			// Non-fatal, goroutine exits
			_ = r
		}
	}()

	for {
		select {
		case <-fw.ctx.Done():
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}

			name := filepath.Clean(event.Name)
			if _, watched := fw.files[name]; !watched {
				continue
			}

			// Any mutation of a watched file counts: Write for in-place
			// edits, Create and Rename for replace-on-save, Remove for
			// a dropped asset.
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) != 0 {
				fw.mu.Lock()
				fw.pending[name] = time.Now()
				fw.mu.Unlock()
			}

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			// Non-fatal
			_ = err
		}
	}
}

// processPending flushes debounced changes to the reload callback.
func (fw *FsnotifyWatcher) processPending() {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-fw.ctx.Done():
			return

		case <-ticker.C:
			now := time.Now()

			fw.mu.Lock()
			var changed []string
			for path, changeTime := range fw.pending {
				if now.Sub(changeTime) >= fw.debounce {
					changed = append(changed, path)
					delete(fw.pending, path)
				}
			}
			fw.mu.Unlock()

			if len(changed) > 0 && fw.onReload != nil {
				sort.Strings(changed)
				fw.onReload(changed)
			}
		}
	}
}

// Close stops watching and releases resources.
func (fw *FsnotifyWatcher) Close() error {
	fw.cancel()
	if fw.watcher != nil {
		return fw.watcher.Close()
	}
	return nil
}

// =============================================================================
// POLLING WATCHER (FALLBACK)
// =============================================================================

// PollingWatcher implements Watcher using periodic modification time checks.
type PollingWatcher struct {
	paths    []string
	interval time.Duration
	onReload ReloadFunc
	ctx      context.Context
	cancel   context.CancelFunc
	mu       sync.Mutex
	modTimes map[string]time.Time // File path -> mod time, zero when absent
}

// NewPollingWatcher creates a new polling-based watcher for the given files.
func NewPollingWatcher(paths []string, interval time.Duration, onReload ReloadFunc) *PollingWatcher {
	ctx, cancel := context.WithCancel(context.Background())

	cleaned := make([]string, 0, len(paths))
	for _, p := range paths {
		cleaned = append(cleaned, filepath.Clean(p))
	}

	return &PollingWatcher{
		paths:    cleaned,
		interval: interval,
		onReload: onReload,
		ctx:      ctx,
		cancel:   cancel,
		modTimes: make(map[string]time.Time),
	}
}

// Watch starts watching for file changes.
func (pw *PollingWatcher) Watch() error {
	// Record the initial state so only subsequent edits fire
	pw.mu.Lock()
	for _, p := range pw.paths {
		pw.modTimes[p] = statModTime(p)
	}
	pw.mu.Unlock()

	go pw.poll()

	return nil
}

// statModTime returns a file's mod time, or the zero time when absent.
func statModTime(path string) time.Time {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}
	}
	return info.ModTime()
}

// poll periodically checks for file changes.
func (pw *PollingWatcher) poll() {
	ticker := time.NewTicker(pw.interval)
	defer ticker.Stop()

	for {
		select {
		case <-pw.ctx.Done():
			return

		case <-ticker.C:
			pw.checkChanges()
		}
	}
}

// checkChanges compares mod times and fires the reload callback.
func (pw *PollingWatcher) checkChanges() {
	var changed []string

	pw.mu.Lock()
	for _, p := range pw.paths {
		current := statModTime(p)
		if !current.Equal(pw.modTimes[p]) {
			pw.modTimes[p] = current
			changed = append(changed, p)
		}
	}
	pw.mu.Unlock()

	if len(changed) > 0 && pw.onReload != nil {
		sort.Strings(changed)
		pw.onReload(changed)
	}
}

// Close stops watching.
func (pw *PollingWatcher) Close() error {
	pw.cancel()
	return nil
}

// =============================================================================
// WATCHER FACTORY
// =============================================================================

// StartWatcher starts a watcher over the given files (fsnotify with a
// polling fallback). Returns nil with no error when there is nothing
// to watch.
func StartWatcher(paths []string, debounce time.Duration, onReload ReloadFunc) (Watcher, error) {
	if len(paths) == 0 {
		return nil, nil
	}

	// Try fsnotify first
	fw, err := NewFsnotifyWatcher(paths, debounce, onReload)
	if err == nil {
		if err := fw.Watch(); err == nil {
			return fw, nil
		}
		fw.Close()
	}

	// Fallback to polling watcher
	pw := NewPollingWatcher(paths, 5*time.Second, onReload)
	if err := pw.Watch(); err != nil {
		return nil, err
	}

	return pw, nil
}
