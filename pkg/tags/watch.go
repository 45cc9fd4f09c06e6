package tags

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

const defaultDebounce = 300 * time.Millisecond

// Watcher keeps an Index current while notes change on disk.
type Watcher struct {
	root        string
	extensions  []string
	idx         *Index
	debounce    time.Duration
	watcher     *fsnotify.Watcher
	debounceMap map[string]*time.Timer
	done        chan struct{}
	stopOnce    sync.Once
	mu          sync.Mutex
}

// NewWatcher creates a watcher for root feeding idx.
func NewWatcher(root string, extensions []string, idx *Index) *Watcher {
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}
	return &Watcher{
		root:        filepath.Clean(root),
		extensions:  extensions,
		idx:         idx,
		debounce:    defaultDebounce,
		debounceMap: make(map[string]*time.Timer),
		done:        make(chan struct{}),
	}
}

// Start adds every directory under root and runs until ctx is cancelled
// or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	w.mu.Lock()
	w.watcher = watcher
	w.mu.Unlock()

	if err := w.addTree(w.root); err != nil {
		_ = watcher.Close()
		return err
	}
	log.Debugf("Watching vault at %s", w.root)
	go w.run(ctx)
	return nil
}

// Stop releases the fsnotify watcher and pending timers.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		w.mu.Lock()
		defer w.mu.Unlock()
		for path, t := range w.debounceMap {
			t.Stop()
			delete(w.debounceMap, path)
		}
		if w.watcher != nil {
			_ = w.watcher.Close()
		}
	})
}

func (w *Watcher) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return
		case <-w.done:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Warnf("Watcher error: %v", err)
		}
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	path := filepath.Clean(ev.Name)
	if hidden(w.root, path) {
		return
	}
	log.Debug("Watcher event", "op", ev.Op.String(), "path", path)

	switch {
	case ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write):
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if err := w.addTree(path); err != nil {
				log.Warnf("Failed to watch %s: %v", path, err)
			}
			return
		}
		if MatchExtension(path, w.extensions) {
			w.debounceIndex(path)
		}
	case ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename):
		w.cancelDebounce(path)
		if MatchExtension(path, w.extensions) {
			w.idx.Remove(path)
			return
		}
		// A folder left the vault; fsnotify reports only the folder.
		w.forgetTree(path)
	}
}

// forgetTree drops the notes under a removed or moved folder. Watches on a
// moved folder are left to fsnotify; events reported under the old path
// fail to read and index nothing.
func (w *Watcher) forgetTree(dir string) {
	prefix := dir + string(filepath.Separator)

	w.mu.Lock()
	for p, t := range w.debounceMap {
		if strings.HasPrefix(p, prefix) {
			t.Stop()
			delete(w.debounceMap, p)
		}
	}
	w.mu.Unlock()

	if n := w.idx.RemoveUnder(dir); n > 0 {
		log.Debugf("Dropped %d notes under %s", n, dir)
	}
}

// addTree watches dir and its subdirectories and indexes the notes found.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return w.watcher.Add(path)
		}
		if dir != w.root && MatchExtension(path, w.extensions) {
			if err := IndexFile(w.idx, path); err != nil {
				log.Warnf("Skipping note %s: %v", path, err)
			}
		}
		return nil
	})
}

func (w *Watcher) debounceIndex(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.debounceMap[path]; ok {
		t.Stop()
	}
	w.debounceMap[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.debounceMap, path)
		w.mu.Unlock()
		if err := IndexFile(w.idx, path); err != nil {
			log.Debugf("Re-index of %s failed: %v", path, err)
			return
		}
		log.Debugf("Re-indexed %s", path)
	})
}

func (w *Watcher) cancelDebounce(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.debounceMap[path]; ok {
		t.Stop()
		delete(w.debounceMap, path)
	}
}

// hidden reports whether any element of path below root starts with '.'.
func hidden(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		if strings.HasPrefix(part, ".") && part != "." && part != ".." {
			return true
		}
	}
	return false
}
