// Package watch re-runs tasks when files in the plugin tree change.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/felixgeelhaar/pressbuild/internal/log"
)

// DefaultDebounce is how long the watcher waits for changes to settle
const DefaultDebounce = 200 * time.Millisecond

// ignoredDirs are never watched
var ignoredDirs = map[string]bool{
	".git":         true,
	".svn":         true,
	"node_modules": true,
	"vendor":       true,
	".idea":        true,
	".vscode":      true,
}

// Trigger maps a set of globs, relative to the watch root, to the tasks run
// when a matching file changes. A pattern with a leading "!" excludes.
type Trigger struct {
	Name  string
	Files []string
	Tasks []string
}

// RunFunc runs one task. Errors are logged and do not stop the watcher.
type RunFunc func(ctx context.Context, task string) error

// Watcher runs tasks after debounced file changes. Runs are serial: changes
// that arrive while tasks are running queue at most one follow-up run.
type Watcher struct {
	Root     string
	Triggers []Trigger
	Run      RunFunc
	Debounce time.Duration
	Logger   *log.Logger

	queue *queue
}

// New creates a Watcher rooted at root
func New(root string, triggers []Trigger, run RunFunc) *Watcher {
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	sorted := make([]Trigger, len(triggers))
	copy(sorted, triggers)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	return &Watcher{
		Root:     root,
		Triggers: sorted,
		Run:      run,
		Debounce: DefaultDebounce,
		queue:    newQueue(),
	}
}

func (w *Watcher) logger() *log.Logger {
	if w.Logger != nil {
		return w.Logger
	}
	return log.DefaultLogger()
}

// Match returns the tasks triggered by a change to path, in trigger order
// without duplicates. path may be absolute or relative to Root.
func (w *Watcher) Match(path string) []string {
	rel := path
	if filepath.IsAbs(path) {
		r, err := filepath.Rel(w.Root, path)
		if err != nil || strings.HasPrefix(r, "..") {
			return nil
		}
		rel = r
	}
	rel = filepath.ToSlash(rel)

	var tasks []string
	seen := make(map[string]bool)
	for _, t := range w.Triggers {
		if !matches(t.Files, rel) {
			continue
		}
		for _, task := range t.Tasks {
			if !seen[task] {
				seen[task] = true
				tasks = append(tasks, task)
			}
		}
	}
	return tasks
}

func matches(patterns []string, rel string) bool {
	included := false
	for _, p := range patterns {
		if strings.HasPrefix(p, "!") {
			if ok, _ := doublestar.Match(strings.TrimPrefix(p, "!"), rel); ok {
				return false
			}
			continue
		}
		if ok, _ := doublestar.Match(p, rel); ok {
			included = true
		}
	}
	return included
}

// Watch blocks until ctx is cancelled, running matched tasks as files change
func (w *Watcher) Watch(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fw.Close()

	dirs, err := w.addTree(fw, w.Root)
	if err != nil {
		return err
	}
	w.logger().Info("watching for changes", "root", w.Root, "directories", dirs, "triggers", len(w.Triggers))

	done := make(chan struct{})
	go func() {
		defer close(done)
		w.work(ctx)
	}()

	w.loop(ctx, fw)
	<-done
	return nil
}

// addTree watches root and every directory below it that is not ignored
func (w *Watcher) addTree(fw *fsnotify.Watcher, root string) (int, error) {
	count := 0
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && ignoredDirs[d.Name()] {
			return filepath.SkipDir
		}
		if err := fw.Add(path); err != nil {
			w.logger().Warn("failed to watch directory", "path", path, "error", err)
			return nil
		}
		count++
		return nil
	})
	if err != nil {
		return count, fmt.Errorf("failed to walk %s: %w", root, err)
	}
	return count, nil
}

// loop turns fsnotify events into queued tasks until ctx is done
func (w *Watcher) loop(ctx context.Context, fw *fsnotify.Watcher) {
	var (
		mu    sync.Mutex
		timer *time.Timer
	)

	for {
		select {
		case <-ctx.Done():
			mu.Lock()
			if timer != nil {
				timer.Stop()
			}
			mu.Unlock()
			return

		case event, ok := <-fw.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Create) {
				if isDir(event.Name) {
					if _, err := w.addTree(fw, event.Name); err != nil {
						w.logger().Warn("failed to watch new directory", "path", event.Name, "error", err)
					}
				}
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}

			tasks := w.Match(event.Name)
			if len(tasks) == 0 {
				continue
			}
			w.logger().Debug("change detected", "path", event.Name, "tasks", tasks)
			w.queue.add(tasks)

			mu.Lock()
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.Debounce, w.queue.signal)
			mu.Unlock()

		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			w.logger().Error("watcher error", "error", err)
		}
	}
}

// work runs queued tasks one batch at a time
func (w *Watcher) work(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.queue.ready:
		}

		for _, task := range w.queue.take() {
			if ctx.Err() != nil {
				return
			}
			w.logger().Info("running task", "task", task)
			if err := w.Run(ctx, task); err != nil {
				w.logger().WithError(err).Warn("task failed", "task", task)
			}
		}
	}
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
