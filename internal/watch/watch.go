// Package watch reports changes to the files registered with a Watcher, so
// the CLI's --watch mode can re-link when an input object file changes.
package watch

import (
	"github.com/fsnotify/fsnotify"
)

// WatchOp is a bitmask of the filesystem operations that triggered an
// Event; a single fsnotify event can carry more than one.
type WatchOp uint8

const (
	OpCreate WatchOp = 1 << iota
	OpWrite
	OpRemove
	OpRename
	OpChmod
)

// Event is one filesystem change relevant to a watched input.
type Event struct {
	Path string
	Op   WatchOp
}

// Watcher notifies on changes to the paths it's told to watch.
type Watcher struct {
	w   *fsnotify.Watcher
	evC chan Event
	erC chan error
}

// New starts a Watcher with no paths registered yet.
func New() (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	watcher := &Watcher{w: w, evC: make(chan Event, 128), erC: make(chan error, 1)}
	go watcher.loop()

	return watcher, nil
}

func (watcher *Watcher) loop() {
	for {
		select {
		case ev, ok := <-watcher.w.Events:
			if !ok {
				return
			}

			var op WatchOp
			if ev.Op&fsnotify.Create != 0 {
				op |= OpCreate
			}
			if ev.Op&fsnotify.Write != 0 {
				op |= OpWrite
			}
			if ev.Op&fsnotify.Remove != 0 {
				op |= OpRemove
			}
			if ev.Op&fsnotify.Rename != 0 {
				op |= OpRename
			}
			if ev.Op&fsnotify.Chmod != 0 {
				op |= OpChmod
			}

			watcher.evC <- Event{Path: ev.Name, Op: op}
		case err, ok := <-watcher.w.Errors:
			if !ok {
				return
			}

			watcher.erC <- err
		}
	}
}

// Events delivers filesystem change notifications for every watched path.
func (watcher *Watcher) Events() <-chan Event { return watcher.evC }

// Errors delivers any error fsnotify reports while watching.
func (watcher *Watcher) Errors() <-chan error { return watcher.erC }

// Add registers path (a file or directory) for notifications.
func (watcher *Watcher) Add(path string) error { return watcher.w.Add(path) }

// Remove unregisters a previously added path.
func (watcher *Watcher) Remove(path string) error { return watcher.w.Remove(path) }

// Close stops watching and releases the underlying OS resources.
func (watcher *Watcher) Close() error { return watcher.w.Close() }

// TriggersRelink reports whether op is a change the linker should react to
// by re-running the link (creates, writes, removes and renames; chmod-only
// events don't change content and are ignored).
func (op WatchOp) TriggersRelink() bool {
	return op&(OpCreate|OpWrite|OpRemove|OpRename) != 0
}
