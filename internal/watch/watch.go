// Package watch reports edits made to card files while a drill session is
// open.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/kpauljoseph/repeater/internal/drill"
	"github.com/kpauljoseph/repeater/internal/parser"
	"github.com/kpauljoseph/repeater/pkg/logger"
)

// DefaultDebounce is how long a file must stay quiet before it is re-read.
const DefaultDebounce = 250 * time.Millisecond

type Watcher struct {
	files    map[string]string
	logger   *logger.Logger
	debounce time.Duration
}

type Option func(*Watcher)

func WithLogger(l *logger.Logger) Option {
	return func(w *Watcher) {
		w.logger = l
	}
}

func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// New watches the given card files. Paths are reported back exactly as
// given.
func New(paths []string, options ...Option) *Watcher {
	w := &Watcher{
		files:    make(map[string]string, len(paths)),
		logger:   logger.Nop(),
		debounce: DefaultDebounce,
	}
	for _, p := range paths {
		w.files[filepath.Clean(p)] = p
	}
	for _, opt := range options {
		opt(w)
	}
	return w
}

func (w *Watcher) dirs() []string {
	seen := make(map[string]bool)
	var dirs []string
	for clean := range w.files {
		dir := filepath.Dir(clean)
		if !seen[dir] {
			seen[dir] = true
			dirs = append(dirs, dir)
		}
	}
	sort.Strings(dirs)
	return dirs
}

// Run sends a FileChanged message for every card file that changes until
// ctx is done. Files are watched through their directories so editors
// that replace files on save are noticed too.
func (w *Watcher) Run(ctx context.Context, inbox chan<- drill.Message) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fsw.Close()

	for _, dir := range w.dirs() {
		if err := fsw.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}
	w.logger.Debug("Watching %d card files", len(w.files))

	pending := make(map[string]bool)
	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			path, tracked := w.files[filepath.Clean(event.Name)]
			if !tracked {
				continue
			}
			pending[path] = true
			timer.Reset(w.debounce)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("File watcher error: %v", err)
		case <-timer.C:
			for path := range pending {
				if err := w.reload(ctx, path, inbox); err != nil {
					return nil
				}
				delete(pending, path)
			}
		}
	}
}

// reload re-parses path and reports its cards. A file that does not parse
// is skipped; it is usually mid-save.
func (w *Watcher) reload(ctx context.Context, path string, inbox chan<- drill.Message) error {
	cards, err := parser.ParseFile(path)
	if err != nil {
		w.logger.Debug("Ignoring change to %s: %v", path, err)
		return nil
	}
	w.logger.Debug("Reloaded %d cards from %s", len(cards), path)
	return drill.Send(ctx, inbox, drill.FileChanged{Path: path, Cards: cards})
}
