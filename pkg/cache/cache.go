// Package cache implements the per-user on-disk cache of compiled
// programs: one directory per absolute source path, holding the
// executable blob, the list of source files that contributed to it, a
// small binary header of partition sizes, and the optional log/debug-info
// files a compile may also produce.
package cache

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/tambewilliam/lyrical-sub003/pkg/backend"
)

const wordSize = 8

// Entry is one compiled program's cache directory, rooted at
// <cacheDir>/<uid>/<absolute-source-path>/.
type Entry struct {
	Dir string
}

// Open locates the cache entry for srcPath under cacheDir, scoped to uid
// so concurrent users never share or corrupt each other's entries.
func Open(cacheDir string, uid int, srcPath string) (*Entry, error) {
	abs, err := filepath.Abs(srcPath)
	if err != nil {
		return nil, fmt.Errorf("cache: resolving %q: %w", srcPath, err)
	}
	return &Entry{Dir: filepath.Join(cacheDir, strconv.Itoa(uid), abs)}, nil
}

func (e *Entry) binPath() string { return filepath.Join(e.Dir, "bin") }
func (e *Entry) srcPath() string { return filepath.Join(e.Dir, "src") }
func (e *Entry) mapPath() string { return filepath.Join(e.Dir, "map") }
func (e *Entry) logPath() string { return filepath.Join(e.Dir, "log") }
func (e *Entry) dbgPath() string { return filepath.Join(e.Dir, "dbg") }

// Valid reports whether e can be reused as-is: its directory must exist,
// its map header must be readable, and every path listed in src must have
// a modification time no later than bin's. Any failure to stat or read
// along the way counts as invalid rather than an error, since a missing
// or half-written cache entry is an ordinary, expected condition.
func (e *Entry) Valid() bool {
	info, err := os.Stat(e.Dir)
	if err != nil || !info.IsDir() {
		return false
	}
	if _, _, _, err := e.readMap(); err != nil {
		return false
	}
	binInfo, err := os.Stat(e.binPath())
	if err != nil {
		return false
	}
	paths, err := e.readSrcList()
	if err != nil {
		return false
	}
	for _, p := range paths {
		srcInfo, err := os.Stat(p)
		if err != nil {
			return false
		}
		if srcInfo.ModTime().After(binInfo.ModTime()) {
			return false
		}
	}
	return true
}

// Invalidate deletes e's directory so a fresh entry can be written in its
// place.
func (e *Entry) Invalidate() error {
	if err := os.RemoveAll(e.Dir); err != nil {
		return fmt.Errorf("cache: removing %s: %w", e.Dir, err)
	}
	return nil
}

// Program is what Load reconstructs from a cache entry: the pieces of a
// backend.BackendResult that survive a round trip to disk, plus the
// global-region size, which a BackendResult never carries since that
// region is always allocated fresh at load time.
type Program struct {
	Executable       []byte
	InstructionsSize uint64
	ConstantsSize    uint64
	GlobalRegionSize uint64
	DebugInfo        *backend.DebugInfo
}

// Store writes a freshly assembled result into e's directory, replacing
// anything already there. globalRegionSize is recorded in map even though
// result itself has no use for it, since it is the one piece of a compile
// result a backend cannot reconstruct from Executable alone.
func (e *Entry) Store(result *backend.BackendResult, globalRegionSize uint64, srcFilePaths []string) error {
	if err := os.MkdirAll(e.Dir, 0o755); err != nil {
		return fmt.Errorf("cache: creating %s: %w", e.Dir, err)
	}
	if err := os.WriteFile(e.binPath(), result.Executable, 0o644); err != nil {
		return fmt.Errorf("cache: writing bin: %w", err)
	}
	if err := os.WriteFile(e.srcPath(), []byte(strings.Join(srcFilePaths, "\n")+"\n"), 0o644); err != nil {
		return fmt.Errorf("cache: writing src: %w", err)
	}
	if err := os.WriteFile(e.mapPath(), encodeMap(result.InstructionsSize, result.ConstantsSize, globalRegionSize), 0o644); err != nil {
		return fmt.Errorf("cache: writing map: %w", err)
	}
	if result.DebugInfo != nil {
		if err := os.WriteFile(e.dbgPath(), result.DebugInfo.Encode(), 0o644); err != nil {
			return fmt.Errorf("cache: writing dbg: %w", err)
		}
	} else {
		os.Remove(e.dbgPath())
	}
	return nil
}

// WriteLog writes the optional human-readable compilation log (-l).
func (e *Entry) WriteLog(text string) error {
	if err := os.MkdirAll(e.Dir, 0o755); err != nil {
		return fmt.Errorf("cache: creating %s: %w", e.Dir, err)
	}
	if err := os.WriteFile(e.logPath(), []byte(text), 0o644); err != nil {
		return fmt.Errorf("cache: writing log: %w", err)
	}
	return nil
}

// Load reads e back into a Program. Callers should only call Load after
// Valid has reported true.
func (e *Entry) Load() (*Program, error) {
	exe, err := os.ReadFile(e.binPath())
	if err != nil {
		return nil, fmt.Errorf("cache: reading bin: %w", err)
	}
	instrSize, constSize, globalSize, err := e.readMap()
	if err != nil {
		return nil, err
	}
	p := &Program{
		Executable:       exe,
		InstructionsSize: instrSize,
		ConstantsSize:    constSize,
		GlobalRegionSize: globalSize,
	}
	if raw, err := os.ReadFile(e.dbgPath()); err == nil {
		d, err := backend.DecodeDebugInfo(raw)
		if err != nil {
			return nil, fmt.Errorf("cache: decoding dbg: %w", err)
		}
		p.DebugInfo = d
	}
	return p, nil
}

// SrcFilePaths returns the list of source paths recorded in e's src file:
// the files a watcher can observe after a cache hit, when no fresh
// CompileResult was produced to read them from directly.
func (e *Entry) SrcFilePaths() ([]string, error) {
	return e.readSrcList()
}

func (e *Entry) readSrcList() ([]string, error) {
	f, err := os.Open(e.srcPath())
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var paths []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		paths = append(paths, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return paths, nil
}

func (e *Entry) readMap() (instrSize, constSize, globalSize uint64, err error) {
	raw, err := os.ReadFile(e.mapPath())
	if err != nil {
		return 0, 0, 0, err
	}
	if len(raw) != 3*wordSize {
		return 0, 0, 0, fmt.Errorf("cache: map file is %d bytes, want %d", len(raw), 3*wordSize)
	}
	instrSize = binary.LittleEndian.Uint64(raw[0*wordSize:])
	constSize = binary.LittleEndian.Uint64(raw[1*wordSize:])
	globalSize = binary.LittleEndian.Uint64(raw[2*wordSize:])
	return instrSize, constSize, globalSize, nil
}

func encodeMap(instrSize, constSize, globalSize uint64) []byte {
	buf := make([]byte, 3*wordSize)
	binary.LittleEndian.PutUint64(buf[0*wordSize:], instrSize)
	binary.LittleEndian.PutUint64(buf[1*wordSize:], constSize)
	binary.LittleEndian.PutUint64(buf[2*wordSize:], globalSize)
	return buf
}
