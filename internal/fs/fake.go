package fs

import (
	"bytes"
	"os"
	"sort"
	"sync"

	"golang.org/x/sys/unix"
)

// Fake is an in-memory Interface implementation for tests. Paths are plain
// strings; no normalization is performed, so tests must build paths the same
// way the code under test does (filepath.Join).
type Fake struct {
	mu    sync.Mutex
	files map[string][]byte
	dirs  map[string][]string
	nodes map[string]fakeNode

	// ReadLog records every ReadFile path in call order. Tests use it to
	// count connection-table reads.
	ReadLog []string
}

type fakeNode struct {
	ino  uint64
	mode uint32
}

// NewFake returns an empty fake filesystem.
func NewFake() *Fake {
	return &Fake{
		files: make(map[string][]byte),
		dirs:  make(map[string][]string),
		nodes: make(map[string]fakeNode),
	}
}

// AddFile registers a regular file with the given contents.
func (f *Fake) AddFile(path string, data []byte) {
	f.files[path] = data
	f.nodes[path] = fakeNode{mode: unix.S_IFREG}
}

// AddDir registers a directory and its entry names.
func (f *Fake) AddDir(path string, names ...string) {
	f.dirs[path] = names
	f.nodes[path] = fakeNode{mode: unix.S_IFDIR}
}

// AddSocket registers path as a socket-typed node with the given inode,
// mimicking a /proc/PID/fd entry that points at a socket.
func (f *Fake) AddSocket(path string, ino uint64) {
	f.nodes[path] = fakeNode{ino: ino, mode: unix.S_IFSOCK}
}

// AddNode registers path with an arbitrary inode and file-type bits.
func (f *Fake) AddNode(path string, ino uint64, mode uint32) {
	f.nodes[path] = fakeNode{ino: ino, mode: mode}
}

// Remove deletes path from the fake, simulating a process that exited.
func (f *Fake) Remove(path string) {
	delete(f.files, path)
	delete(f.dirs, path)
	delete(f.nodes, path)
}

// ReadFile appends the registered contents of path to buf.
func (f *Fake) ReadFile(path string, buf *bytes.Buffer) (int64, error) {
	f.mu.Lock()
	f.ReadLog = append(f.ReadLog, path)
	f.mu.Unlock()

	data, ok := f.files[path]
	if !ok {
		return -1, &os.PathError{Op: "open", Path: path, Err: unix.ENOENT}
	}
	n, err := buf.Write(data)
	return int64(n), err
}

// ReadDirNames returns the registered entry names of path, sorted for
// deterministic walks.
func (f *Fake) ReadDirNames(path string) ([]string, error) {
	names, ok := f.dirs[path]
	if !ok {
		return nil, &os.PathError{Op: "open", Path: path, Err: unix.ENOENT}
	}
	sorted := append([]string(nil), names...)
	sort.Strings(sorted)
	return sorted, nil
}

// Stat fills st with the registered inode and mode of path.
func (f *Fake) Stat(path string, st *unix.Stat_t) error {
	node, ok := f.nodes[path]
	if !ok {
		return &os.PathError{Op: "stat", Path: path, Err: unix.ENOENT}
	}
	st.Ino = node.ino
	st.Mode = node.mode
	return nil
}

// ReadCount returns how many times path was handed to ReadFile.
func (f *Fake) ReadCount(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, p := range f.ReadLog {
		if p == path {
			n++
		}
	}
	return n
}
