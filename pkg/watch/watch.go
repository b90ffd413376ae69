// Package watch implements the driver's optional filesystem-notification
// thread: given the list of absolute source paths a compile read (a
// CompileResult's SrcFilePaths, or a cache Entry's recorded src list on a
// cache hit), it blocks until one of them changes and reports which one,
// so the driver can recompile instead of requiring a manual rerun.
package watch

import (
	"fmt"
	"os"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sys/unix"
)

// Watcher observes a fixed set of source paths for changes. The core
// compiler has no notion of watching; this package's only contract with
// it is the plain list of paths a compile result names.
type Watcher struct {
	fsw *fsnotify.Watcher
}

// New opens an OS-backed watcher. Callers must Close it when done.
func New() (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	}
	return &Watcher{fsw: fsw}, nil
}

// Watch begins observing every path in paths.
func (w *Watcher) Watch(paths []string) error {
	for _, p := range paths {
		if err := w.fsw.Add(p); err != nil {
			return fmt.Errorf("watch: adding %s: %w", p, err)
		}
	}
	return nil
}

// changeOps are the events worth recompiling over. Create and Rename are
// included alongside Write since an editor's atomic save removes and
// recreates the watched path rather than writing through it.
const changeOps = fsnotify.Write | fsnotify.Create | fsnotify.Remove | fsnotify.Rename

// Wait blocks until a watched path reports a change and returns that
// path. It returns an error if the underlying watcher fails or is
// closed.
func (w *Watcher) Wait() (string, error) {
	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return "", fmt.Errorf("watch: event channel closed")
			}
			if ev.Op&changeOps != 0 {
				return ev.Name, nil
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return "", fmt.Errorf("watch: error channel closed")
			}
			return "", fmt.Errorf("watch: %w", err)
		}
	}
}

// Close releases the underlying OS watch handles.
func (w *Watcher) Close() error { return w.fsw.Close() }

// ReexecSelf replaces the current process image with a fresh invocation
// of the same binary and arguments: the idiomatic Go analogue of the
// re-exec a watched source change triggers. It does not return on
// success.
func ReexecSelf() error {
	self, err := os.Executable()
	if err != nil {
		return fmt.Errorf("watch: locating current executable: %w", err)
	}
	return unix.Exec(self, os.Args, os.Environ())
}
