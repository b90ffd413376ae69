package watch

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatchReportsWriteToWatchedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.ly")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	w, err := New()
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer w.Close()

	if err := w.Watch([]string{path}); err != nil {
		t.Fatalf("watch: %v", err)
	}

	result := make(chan string, 1)
	errs := make(chan error, 1)
	go func() {
		name, err := w.Wait()
		if err != nil {
			errs <- err
			return
		}
		result <- name
	}()

	// Give the watcher goroutine a moment to start listening before the
	// write happens.
	time.Sleep(50 * time.Millisecond)
	if err := os.WriteFile(path, []byte("y"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case name := <-result:
		if name != path {
			t.Fatalf("changed path = %q, want %q", name, path)
		}
	case err := <-errs:
		t.Fatalf("wait: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for a write event")
	}
}

func TestCloseStopsWatcher(t *testing.T) {
	w, err := New()
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}
