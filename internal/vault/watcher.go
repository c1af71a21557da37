// internal/vault/watcher.go
package vault

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ChangeKind describes the type of file change detected.
type ChangeKind int

const (
	ChangeModified ChangeKind = iota // file created or edited
	ChangeRemoved                    // file deleted or renamed away
)

// Change is a detected change to one vault file.
type Change struct {
	Kind ChangeKind
	Path string // vault-relative, slash-separated
}

// Watcher monitors the vault directory tree for markdown file changes using
// fsnotify. Events are debounced per file so a burst of writes from an
// editor save collapses into one change.
type Watcher struct {
	Changes <-chan Change // read-only external channel

	root    string
	changes chan Change // internal write channel
	done    chan struct{}
	watcher *fsnotify.Watcher
}

func NewWatcher(root string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	ch := make(chan Change, 16)
	return &Watcher{
		Changes: ch,
		root:    root,
		changes: ch,
		done:    make(chan struct{}),
		watcher: fw,
	}, nil
}

// Start registers the root and every existing subdirectory, then begins the
// event loop. New subdirectories are picked up as they appear.
func (w *Watcher) Start() error {
	err := filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != w.root {
				return filepath.SkipDir
			}
			return w.watcher.Add(path)
		}
		return nil
	})
	if err != nil {
		return err
	}

	go w.loop()
	return nil
}

// Stop closes the watcher and channels.
func (w *Watcher) Stop() {
	w.watcher.Close()
	<-w.done // wait for loop to exit
	close(w.changes)
}

func (w *Watcher) loop() {
	defer close(w.done)

	const debounce = 100 * time.Millisecond
	pending := make(map[string]time.Time)
	ticker := time.NewTicker(debounce)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				// Pending entries are dropped: flushing them could block
				// forever on the buffered channel once the consumer is gone,
				// and Stop waits for this loop to exit.
				return
			}

			if event.Has(fsnotify.Create) {
				// A new directory needs its own watch.
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					w.watcher.Add(event.Name)
					continue
				}
			}

			if !w.isVaultFile(event.Name) {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
				event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				pending[event.Name] = time.Now()
			}

		case <-ticker.C:
			now := time.Now()
			for file, at := range pending {
				if now.Sub(at) >= debounce {
					delete(pending, file)
					w.emitChange(file)
				}
			}

		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

func (w *Watcher) emitChange(file string) {
	rel, err := filepath.Rel(w.root, file)
	if err != nil {
		return
	}
	change := Change{Kind: ChangeModified, Path: filepath.ToSlash(rel)}
	if _, err := os.Stat(file); err != nil {
		change.Kind = ChangeRemoved
	}
	select {
	case w.changes <- change:
	default:
		// Consumer is backlogged; drop rather than stall the event loop.
		// A full rebuild reconciles anything missed.
	}
}

func (w *Watcher) isVaultFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".md")
}
