// Package fs abstracts the filesystem operations the engine issues against
// procfs, so tests can substitute a synthetic tree for the real mount.
package fs

import (
	"bytes"
	"os"

	"golang.org/x/sys/unix"
)

// Interface is the set of filesystem primitives the engine needs. All of them
// take full paths; none of them retain state between calls.
type Interface interface {
	// ReadFile reads the named file into buf and returns the number of
	// bytes appended. The buffer is owned by the caller and may already
	// hold data from previous reads.
	ReadFile(path string, buf *bytes.Buffer) (int64, error)

	// ReadDirNames lists the entry names of a directory without stating
	// the entries themselves.
	ReadDirNames(path string) ([]string, error)

	// Stat stats path into the caller-owned stat buffer. Reusing one
	// Stat_t across calls avoids a per-descriptor allocation when hosts
	// expose tens of thousands of descriptors.
	Stat(path string, st *unix.Stat_t) error
}

// OS implements Interface against the real filesystem.
type OS struct{}

// ReadFile opens path and appends its contents to buf.
func (OS) ReadFile(path string, buf *bytes.Buffer) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return -1, err
	}
	defer f.Close()
	return buf.ReadFrom(f)
}

// ReadDirNames returns the unsorted entry names of the directory at path.
func (OS) ReadDirNames(path string) ([]string, error) {
	d, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer d.Close()
	return d.Readdirnames(-1)
}

// Stat stats path directly via the syscall, without following the usual
// os.FileInfo allocation path.
func (OS) Stat(path string, st *unix.Stat_t) error {
	return unix.Stat(path, st)
}
