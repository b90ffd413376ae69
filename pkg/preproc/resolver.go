package preproc

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Resolver tracks the include stack (for recursive-include detection) and
// the set of module directories already included (for module dedup) across
// one preprocessing run.
type Resolver struct {
	StandardPaths []string
	InstallModule func(name string) (bool, error)

	stack       []string
	seenModules map[string]bool
}

// NewResolver creates a Resolver with the given standard search paths and
// installable-module callback (either may be nil/empty).
func NewResolver(paths []string, install func(string) (bool, error)) *Resolver {
	return &Resolver{
		StandardPaths: paths,
		InstallModule: install,
		seenModules:   make(map[string]bool),
	}
}

// Push records path as being included, failing with *RecursiveIncludeError
// if it already appears anywhere on the include stack.
func (r *Resolver) Push(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	for _, s := range r.stack {
		if s == abs {
			return &RecursiveIncludeError{Path: abs, Stack: append([]string{}, r.stack...)}
		}
	}
	r.stack = append(r.stack, abs)
	return nil
}

// Pop removes the most recently pushed path.
func (r *Resolver) Pop() {
	if len(r.stack) > 0 {
		r.stack = r.stack[:len(r.stack)-1]
	}
}

// Resolve finds the filesystem path for an include name used from a file in
// currentDir. Absolute names and names beginning "./" or "../" are anchored
// directly; anything else is searched in StandardPaths, retrying once via
// InstallModule if the search is exhausted.
func (r *Resolver) Resolve(name, currentDir string) (string, error) {
	switch {
	case strings.HasPrefix(name, "/"):
		if fileExists(name) {
			return name, nil
		}
		return "", &NotFoundError{Name: name}

	case strings.HasPrefix(name, "./") || strings.HasPrefix(name, "../"):
		cand := filepath.Join(currentDir, name)
		if fileExists(cand) {
			return cand, nil
		}
		return "", &NotFoundError{Name: name}

	default:
		if p, ok := r.searchStandardPaths(name); ok {
			return p, nil
		}
		if r.InstallModule != nil {
			found, err := r.InstallModule(name)
			if err != nil {
				return "", err
			}
			if found {
				if p, ok := r.searchStandardPaths(name); ok {
					return p, nil
				}
			}
		}
		return "", &NotFoundError{Name: name}
	}
}

func (r *Resolver) searchStandardPaths(name string) (string, bool) {
	for _, dir := range r.StandardPaths {
		cand := filepath.Join(dir, name)
		if fileExists(cand) {
			return cand, true
		}
	}
	return "", false
}

// ModuleSeen reports whether dir (a resolved module directory, canonicalized)
// was already included as a module, recording it as seen if not.
func (r *Resolver) ModuleSeen(dir string) bool {
	canon, err := filepath.Abs(dir)
	if err != nil {
		canon = dir
	}
	if r.seenModules[canon] {
		return true
	}
	r.seenModules[canon] = true
	return false
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// NotFoundError reports that an include name could not be resolved against
// any candidate path.
type NotFoundError struct{ Name string }

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("could not include %q", e.Name)
}

// RecursiveIncludeError reports that path already appears on the include
// stack.
type RecursiveIncludeError struct {
	Path  string
	Stack []string
}

func (e *RecursiveIncludeError) Error() string {
	return fmt.Sprintf("recursive include of %q", e.Path)
}
