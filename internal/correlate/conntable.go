package correlate

import (
	"bytes"
	"path/filepath"
	"strconv"

	"github.com/mrzor/sockowner/internal/process"
)

// connTableBufSize is the initial capacity of the shared connection-table
// buffer. It grows as needed and is reused across groups within one scan.
const connTableBufSize = 5000

// readGroupConnections snapshots the TCP and TCP6 connection tables of a
// namespace group into buf, which is reset first to avoid cross-group
// contamination.
//
// Every process in the group observes the identical table, so members are
// tried in order and the first one with both tables readable wins. A member
// failing either read (typically a process that just exited) is skipped in
// favor of the next. If every member fails, the last errors are returned.
//
// found is false with a nil error when the tables were readable but empty:
// the group has no connections and need not be walked at all.
func (s *Scanner) readGroupConnections(buf *bytes.Buffer, group []process.Process) (found bool, err error) {
	var (
		errRead  error
		errRead6 error
		read     int64
		read6    int64
	)

	buf.Reset()

	for _, p := range group {
		dirName := strconv.Itoa(p.PID)

		read, errRead = s.fsys.ReadFile(filepath.Join(s.procRoot, dirName, "net", "tcp"), buf)
		read6, errRead6 = s.fsys.ReadFile(filepath.Join(s.procRoot, dirName, "net", "tcp6"), buf)

		if errRead != nil || errRead6 != nil {
			// try next process
			continue
		}
		return read+read6 > 0, nil
	}

	if errRead != nil {
		return false, errRead
	}
	if errRead6 != nil {
		return false, errRead6
	}

	return false, nil
}
