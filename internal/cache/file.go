// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// File is a Backend that stores one JSON file per entry under a directory.
// The filename is the hex digest portion of the fingerprint, which is unique
// per (operation, arguments) and filesystem-safe. Unreadable or corrupt
// files are treated as misses and removed. The backend is safe for
// concurrent use within one process; cross-process locking is out of scope.
// Per prd002-caching R5.3.
type File struct {
	dir string
}

// NewFile returns a file backend rooted at dir, creating it if needed.
func NewFile(dir string) (*File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory %s: %w", dir, err)
	}
	return &File{dir: dir}, nil
}

// path maps a fingerprint to its file. The digest after the last colon is
// the filename; a fingerprint without one is used verbatim.
func (f *File) path(fingerprint string) string {
	name := fingerprint
	if i := strings.LastIndex(fingerprint, ":"); i >= 0 {
		name = fingerprint[i+1:]
	}
	return filepath.Join(f.dir, name+".json")
}

func (f *File) Get(fingerprint string) (Entry, bool, error) {
	data, err := os.ReadFile(f.path(fingerprint))
	if errors.Is(err, fs.ErrNotExist) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("reading cache entry: %w", err)
	}
	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		// Corrupt entry: drop it and report a miss.
		_ = os.Remove(f.path(fingerprint))
		return Entry{}, false, nil
	}
	return e, true, nil
}

func (f *File) Put(e Entry) error {
	data, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding cache entry: %w", err)
	}
	if err := os.WriteFile(f.path(e.Fingerprint), data, 0o644); err != nil {
		return fmt.Errorf("writing cache entry: %w", err)
	}
	return nil
}

func (f *File) Delete(fingerprint string) error {
	err := os.Remove(f.path(fingerprint))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing cache entry: %w", err)
	}
	return nil
}

func (f *File) Len() (int, error) {
	names, err := f.entryFiles()
	if err != nil {
		return 0, err
	}
	return len(names), nil
}

func (f *File) Sweep(now time.Time) (int, error) {
	names, err := f.entryFiles()
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, name := range names {
		path := filepath.Join(f.dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var e Entry
		if err := json.Unmarshal(data, &e); err != nil || e.Expired(now) {
			if os.Remove(path) == nil {
				removed++
			}
		}
	}
	return removed, nil
}

func (f *File) Clear() (int, error) {
	names, err := f.entryFiles()
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, name := range names {
		if os.Remove(filepath.Join(f.dir, name)) == nil {
			removed++
		}
	}
	return removed, nil
}

func (f *File) entryFiles() ([]string, error) {
	dirents, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, fmt.Errorf("listing cache directory: %w", err)
	}
	var names []string
	for _, d := range dirents {
		if !d.IsDir() && strings.HasSuffix(d.Name(), ".json") {
			names = append(names, d.Name())
		}
	}
	return names, nil
}
