package tasks

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/desertthunder/playdeck/internal/audio"
	"github.com/fsnotify/fsnotify"
)

const defaultSettle = time.Second

// Watcher imports files added to the tracks directory while it runs.
type Watcher struct {
	scanner *Scanner
	// Settle is how long a file must go without events before it is imported.
	Settle time.Duration
}

func NewWatcher(scanner *Scanner) *Watcher {
	return &Watcher{scanner: scanner, Settle: defaultSettle}
}

// Watch blocks until ctx is done, importing supported files that are created or written
// in dir once they settle.
func (w *Watcher) Watch(ctx context.Context, dir string, progress chan<- ProgressUpdate) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	settle := w.Settle
	if settle <= 0 {
		settle = defaultSettle
	}
	ticker := time.NewTicker(settle / 2)
	defer ticker.Stop()

	logger := w.scanner.logger
	pending := make(map[string]time.Time)
	sendProgress(progress, watchingUpdate(dir))

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
				if ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
					delete(pending, ev.Name)
				}
				continue
			}
			if filepath.Dir(ev.Name) != filepath.Clean(dir) || !audio.SupportedExtension(ev.Name) {
				continue
			}
			pending[ev.Name] = time.Now()

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", "err", err)

		case now := <-ticker.C:
			for path, last := range pending {
				if now.Sub(last) < settle {
					continue
				}
				delete(pending, path)

				track, created, err := w.scanner.ImportFile(ctx, path)
				switch {
				case err != nil:
					logger.Warn("failed to import", "file", filepath.Base(path), "err", err)
				case created:
					sendProgress(progress, watchedImportUpdate(track))
				}
			}
		}
	}
}
