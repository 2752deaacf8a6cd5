package modelinfo

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/openfroyo/ucm/pkg/telemetry"
)

const reimportDelay = 500 * time.Millisecond

// Watch re-imports the catalog at path into sink every time the file is
// written, until ctx is done. A catalog that fails to parse is logged and
// skipped. Watch blocks.
func Watch(ctx context.Context, path string, sink Sink, log *telemetry.Logger) error {
	if log == nil {
		log = telemetry.NopLogger()
	}
	log = log.NewComponentLogger("modelinfo").WithField("path", path)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", path, err)
	}

	target := filepath.Clean(path)
	timer := time.NewTimer(0)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	log.Info("watching model catalog")
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) == target && event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				timer.Reset(reimportDelay)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.WithError(err).Warn("watcher error")

		case <-timer.C:
			c, err := Load(path)
			if err != nil {
				log.WithError(err).Error("model catalog not reimported")
				continue
			}
			n, err := Import(ctx, sink, c)
			if err != nil {
				log.WithError(err).Errorf("model catalog reimport stopped after %d entries", n)
				continue
			}
			log.WithField("entries", n).Info("model catalog reimported")
		}
	}
}
