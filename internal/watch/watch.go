// Package watch turns filesystem activity under a set of directories into
// debounced rebuild triggers.
package watch

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/kiln/internal/logfields"
)

// Options configures Watch.
type Options struct {
	// Roots are watched recursively. Missing roots are skipped.
	Roots []string
	// Ignore lists directories whose events never trigger, typically the
	// build output when it lives under an input root.
	Ignore []string
	// IgnoreFiles lists file base names whose events never trigger. A name
	// also matches the temporary files written next to it during atomic
	// replacement (the name followed by a random suffix).
	IgnoreFiles []string
	// Debounce is the quiet period after the last event before OnChange
	// fires. Zero means 200ms.
	Debounce time.Duration
	Logger   *slog.Logger
}

// Watch calls onChange once per burst of events until ctx is cancelled.
// onChange runs on the watch goroutine; events arriving meanwhile start a new
// burst.
func Watch(ctx context.Context, opts Options, onChange func(changed []string)) error {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = 200 * time.Millisecond
	}
	ignore := make([]string, 0, len(opts.Ignore))
	for _, dir := range opts.Ignore {
		if abs, err := filepath.Abs(dir); err == nil {
			ignore = append(ignore, abs)
		}
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	for _, root := range opts.Roots {
		abs, err := filepath.Abs(root)
		if err != nil {
			return err
		}
		if err := addDirsRecursive(w, abs, ignore); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				logger.Warn("watch: root missing, skipping", logfields.Path(abs))
				continue
			}
			return err
		}
		logger.Info("watch: started", logfields.Path(abs))
	}

	var timer *time.Timer
	var fire <-chan time.Time
	pending := map[string]struct{}{}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("watch: stopped")
			return nil

		case <-fire:
			fire = nil
			changed := make([]string, 0, len(pending))
			for p := range pending {
				changed = append(changed, p)
			}
			clear(pending)
			logger.Debug("watch: change burst", logfields.Count(len(changed)))
			onChange(changed)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ignored(ev.Name, ignore) || isHidden(ev.Name) || ignoredFile(ev.Name, opts.IgnoreFiles) || ev.Op == fsnotify.Chmod {
				continue
			}

			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, ev.Name, ignore); addErr != nil {
						logger.Warn("watch: add new dir failed", logfields.Path(ev.Name), logfields.Error(addErr))
					} else {
						logger.Debug("watch: watching new dir", logfields.Path(ev.Name))
					}
				}
			}

			pending[ev.Name] = struct{}{}
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			fire = timer.C

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watch: error", logfields.Error(watchErr))
		}
	}
}

// addDirsRecursive adds root and all its non-hidden, non-ignored
// subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string, ignore []string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && (isHidden(path) || ignored(path, ignore)) {
			return filepath.SkipDir
		}
		return w.Add(path)
	})
}

func ignored(path string, ignore []string) bool {
	for _, dir := range ignore {
		if path == dir || strings.HasPrefix(path, dir+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func ignoredFile(path string, names []string) bool {
	base := filepath.Base(path)
	for _, name := range names {
		if strings.HasPrefix(base, name) {
			return true
		}
	}
	return false
}

func isHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}
