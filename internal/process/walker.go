package process

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mrzor/sockowner/internal/fs"
)

// ProcfsWalker enumerates processes by listing numeric entries of a proc
// mount and reading each one's comm file for the name.
type ProcfsWalker struct {
	fsys fs.Interface
	root string
}

// NewProcfsWalker returns a Walker over the proc mount at root.
func NewProcfsWalker(fsys fs.Interface, root string) *ProcfsWalker {
	return &ProcfsWalker{fsys: fsys, root: root}
}

// Walk calls fn for every live process it can read. Processes that vanish
// between the directory listing and the comm read are skipped. An unreadable
// proc root is the only fatal condition.
func (w *ProcfsWalker) Walk(fn func(Process)) error {
	names, err := w.fsys.ReadDirNames(w.root)
	if err != nil {
		return fmt.Errorf("enumerating processes under %s: %w", w.root, err)
	}

	var buf bytes.Buffer
	for _, name := range names {
		pid, err := strconv.Atoi(name)
		if err != nil {
			// Not a PID entry (self, sys, net, ...).
			continue
		}

		buf.Reset()
		if _, err := w.fsys.ReadFile(filepath.Join(w.root, name, "comm"), &buf); err != nil {
			// Process is gone by now, or we don't have access.
			continue
		}

		fn(Process{PID: pid, Name: strings.TrimSpace(buf.String())})
	}
	return nil
}
