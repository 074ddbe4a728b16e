package vault

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// Watcher streams vault-relative paths of changed corpus documents to
// a callback. Debouncing is the caller's concern; the watcher reports
// every event it sees.
type Watcher struct {
	vault    *Vault
	fw       *fsnotify.Watcher
	onChange func(path string)
	done     chan struct{}
}

// Watch starts watching the vault tree, recursively. Directories
// created later are subscribed as they appear.
func (v *Vault) Watch(onChange func(path string)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	w := &Watcher{
		vault:    v,
		fw:       fw,
		onChange: onChange,
		done:     make(chan struct{}),
	}
	if err := w.addDirs(v.root); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watch vault: %w", err)
	}

	go w.loop()
	return w, nil
}

// addDirs subscribes root and every non-hidden directory below it.
func (w *Watcher) addDirs(root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") && p != w.vault.root {
			return fs.SkipDir
		}
		return w.fw.Add(p)
	})
}

func (w *Watcher) loop() {
	defer close(w.done)
	for {
		select {
		case ev, ok := <-w.fw.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)
		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			w.vault.log.Warnf("watcher: %v", err)
		}
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}

	rel := w.vault.rel(ev.Name)
	if hiddenPath(rel) {
		return
	}

	if rel == TagInfoFile {
		w.onChange(rel)
		return
	}

	if ev.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			// A directory can land fully populated, so subscribe it
			// and report what it already holds.
			if err := w.addDirs(ev.Name); err != nil {
				w.vault.log.Warnf("watch %s: %v", rel, err)
			}
			w.emitTree(ev.Name)
			return
		}
	}

	w.emit(rel)
}

// emitTree reports every corpus document under dir.
func (w *Watcher) emitTree(dir string) {
	filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && p != dir {
				return fs.SkipDir
			}
			return nil
		}
		w.emit(w.vault.rel(p))
		return nil
	})
}

func (w *Watcher) emit(rel string) {
	if hiddenPath(rel) {
		return
	}
	if !w.vault.wantFolder(rel) || !w.vault.wantFile(rel) {
		return
	}
	w.onChange(rel)
}

// Close stops the watcher and waits for its event loop to drain.
func (w *Watcher) Close() error {
	err := w.fw.Close()
	<-w.done
	return err
}

func hiddenPath(rel string) bool {
	for _, seg := range strings.Split(rel, "/") {
		if strings.HasPrefix(seg, ".") {
			return true
		}
	}
	return false
}
