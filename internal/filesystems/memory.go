package filesystems

import (
	"fmt"
	"io/fs"
	"iter"
	"path"
	"sort"
	"strings"
	"time"
)

// MemoryFS implements FileSystem for in-memory fixtures, mainly in tests
type MemoryFS struct {
	files map[string][]byte
	dirs  map[string]bool
}

func NewMemoryFS() *MemoryFS {
	return &MemoryFS{
		files: make(map[string][]byte),
		dirs:  make(map[string]bool),
	}
}

// AddFile adds a file, creating parent directories implicitly.
func (mfs *MemoryFS) AddFile(name string, content []byte) {
	clean := path.Clean(name)
	mfs.files[clean] = content
	for dir := path.Dir(clean); dir != "." && dir != "/"; dir = path.Dir(dir) {
		mfs.dirs[dir] = true
	}
}

// AddDir adds an empty directory.
func (mfs *MemoryFS) AddDir(name string) {
	clean := path.Clean(name)
	for dir := clean; dir != "." && dir != "/"; dir = path.Dir(dir) {
		mfs.dirs[dir] = true
	}
}

func (mfs *MemoryFS) ReadFile(name string) ([]byte, error) {
	content, ok := mfs.files[path.Clean(name)]
	if !ok {
		return nil, fmt.Errorf("file not found: %s", name)
	}
	return content, nil
}

// children returns the direct child names of dir, sorted.
func (mfs *MemoryFS) children(dir string) []string {
	prefix := ""
	if dir != "." {
		prefix = dir + "/"
	}

	seen := make(map[string]bool)
	add := func(p string) {
		if !strings.HasPrefix(p, prefix) {
			return
		}
		rest := strings.TrimPrefix(p, prefix)
		if rest == "" {
			return
		}
		name := rest
		if idx := strings.Index(rest, "/"); idx >= 0 {
			name = rest[:idx]
		}
		seen[name] = true
	}

	for p := range mfs.files {
		add(p)
	}
	for p := range mfs.dirs {
		add(p)
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (mfs *MemoryFS) ReadDir(name string) iter.Seq2[DirEntry, error] {
	return func(yield func(DirEntry, error) bool) {
		clean := path.Clean(name)
		if clean != "." && !mfs.dirs[clean] {
			yield(nil, fmt.Errorf("directory not found: %s", name))
			return
		}

		for _, child := range mfs.children(clean) {
			full := child
			if clean != "." {
				full = path.Join(clean, child)
			}
			entry := &memoryDirEntry{
				name:  child,
				isDir: mfs.dirs[full],
				mfs:   mfs,
				path:  full,
			}
			if !yield(entry, nil) {
				return
			}
		}
	}
}

func (mfs *MemoryFS) Walk(root string, fn WalkFunc) error {
	var walk func(p string) error
	walk = func(p string) error {
		info := mfs.infoFor(p)
		if info != nil {
			if err := fn(p, info, nil); err != nil {
				if err == SkipDir && info.IsDir() {
					return nil
				}
				return err
			}
		}

		if info == nil || !info.IsDir() {
			return nil
		}
		for _, child := range mfs.children(p) {
			childPath := child
			if p != "." {
				childPath = path.Join(p, child)
			}
			if err := walk(childPath); err != nil {
				return err
			}
		}
		return nil
	}
	return walk(path.Clean(root))
}

func (mfs *MemoryFS) infoFor(p string) FileInfo {
	if p == "." || mfs.dirs[p] {
		return &memoryFileInfo{name: path.Base(p), mode: fs.ModeDir | 0755, isDir: true}
	}
	if content, ok := mfs.files[p]; ok {
		return &memoryFileInfo{name: path.Base(p), size: int64(len(content)), mode: 0644}
	}
	return nil
}

func (mfs *MemoryFS) Join(elem ...string) string {
	return path.Join(elem...)
}

func (mfs *MemoryFS) Base(p string) string {
	return path.Base(p)
}

func (mfs *MemoryFS) Dir(p string) string {
	return path.Dir(p)
}

// memoryDirEntry implements DirEntry
type memoryDirEntry struct {
	name  string
	isDir bool
	mfs   *MemoryFS
	path  string
}

func (e *memoryDirEntry) Name() string { return e.name }
func (e *memoryDirEntry) IsDir() bool  { return e.isDir }

func (e *memoryDirEntry) Type() fs.FileMode {
	if e.isDir {
		return fs.ModeDir
	}
	return 0
}

func (e *memoryDirEntry) Info() (FileInfo, error) {
	info := e.mfs.infoFor(e.path)
	if info == nil {
		return nil, fmt.Errorf("not found: %s", e.path)
	}
	return info, nil
}

// memoryFileInfo implements FileInfo
type memoryFileInfo struct {
	name  string
	size  int64
	mode  fs.FileMode
	isDir bool
}

func (i *memoryFileInfo) Name() string       { return i.name }
func (i *memoryFileInfo) Size() int64        { return i.size }
func (i *memoryFileInfo) Mode() fs.FileMode  { return i.mode }
func (i *memoryFileInfo) ModTime() time.Time { return time.Time{} }
func (i *memoryFileInfo) IsDir() bool        { return i.isDir }
func (i *memoryFileInfo) Sys() interface{}   { return nil }
