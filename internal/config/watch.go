// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/jeranaias/deskshell/internal/logging"
)

// WatchDebounce is how long the file must stay quiet before a reload.
const WatchDebounce = 250 * time.Millisecond

// Watch reloads the config at path whenever it changes and passes each
// valid result to fn. Invalid files are logged and skipped. Watch blocks
// until ctx is done.
//
// The parent directory is watched rather than the file, so editors that
// replace the file on save are still seen.
func Watch(ctx context.Context, path string, fn func(*Config)) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("watch config: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch config: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch config dir: %w", err)
	}

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				timer.Reset(WatchDebounce)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logging.WarningLog.Printf("CONFIG_WATCH_ERROR | path=%s err=%v", abs, err)

		case <-timer.C:
			cfg, err := Load(abs)
			if err != nil {
				logging.WarningLog.Printf("CONFIG_RELOAD_FAILED | path=%s err=%v", abs, err)
				continue
			}
			logging.InfoLog.Printf("CONFIG_RELOADED | path=%s", abs)
			fn(cfg)
		}
	}
}
