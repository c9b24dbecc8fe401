package lesson

import (
	"context"
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceDelay coalesces the burst of events editors emit on save.
const debounceDelay = 100 * time.Millisecond

// Watch reloads the catalog whenever a lesson file in its directory is
// written, created, renamed or removed, then calls onChange with the reload
// result. It blocks until ctx is cancelled.
func (c *Catalog) Watch(ctx context.Context, onChange func(error)) error {
	if c.dir == "" {
		return fmt.Errorf("catalog has no lessons directory")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(c.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", c.dir, err)
	}
	c.logger.Debug("watching lessons directory", "dir", c.dir)

	var debounce *time.Timer
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if !IsLessonFile(event.Name) {
				continue
			}

			if debounce != nil {
				debounce.Stop()
			}
			name := event.Name
			debounce = time.AfterFunc(debounceDelay, func() {
				c.logger.Debug("lesson file changed, reloading", "file", name)
				err := c.Reload()
				if err != nil {
					c.logger.Warn("lesson reload failed", "error", err)
				}
				if onChange != nil {
					onChange(err)
				}
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			c.logger.Error("watcher error", "error", err)
		}
	}
}
