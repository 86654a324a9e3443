// Package watch re-parses a transcript file while a model is still writing
// it, reporting each new extraction.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/conorfennell/studyparse/internal/dispatch"
)

// follower re-runs the dispatcher over the whole file and remembers the last
// extraction it reported.
type follower struct {
	path  string
	topic string
	fn    func(dispatch.Extraction)
	last  *dispatch.Extraction
}

// refresh parses the current file content and calls fn when the result
// differs from the last one reported.
func (f *follower) refresh() (bool, error) {
	content, err := os.ReadFile(f.path)
	if err != nil {
		return false, fmt.Errorf("reading %s: %w", f.path, err)
	}
	e := dispatch.DetectAndParseAll(string(content), f.topic)
	if f.last != nil && reflect.DeepEqual(*f.last, e) {
		return false, nil
	}
	f.last = &e
	f.fn(e)
	return true, nil
}

// Follow parses path once, then again after every burst of writes settles
// for debounce, calling fn whenever the extraction changes. The parent
// directory is watched so that editors replacing the file are followed too.
// Follow blocks until ctx is done.
func Follow(ctx context.Context, path, topic string, debounce time.Duration, fn func(dispatch.Extraction)) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(abs), err)
	}

	f := &follower{path: abs, topic: topic, fn: fn}
	if _, err := f.refresh(); err != nil {
		return err
	}

	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				timer.Reset(debounce)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watch error", "path", abs, "error", err)

		case <-timer.C:
			changed, err := f.refresh()
			if err != nil {
				// The file may be mid-replace; the next event retries.
				slog.Warn("re-parse failed", "path", abs, "error", err)
				continue
			}
			slog.Debug("re-parsed", "path", abs, "changed", changed)
		}
	}
}
