package correlate

import (
	"bytes"
	"path/filepath"
	"strconv"
	"time"

	"golang.org/x/sys/unix"

	"github.com/mrzor/sockowner/internal/process"
)

// walkGroup records inode -> owner into sockets for every socket-typed
// descriptor held by a member of the group. It first confirms the group has
// connections at all; a group whose tables are empty or unreadable is skipped
// without a single descriptor stat.
//
// Rate limiting: before each descriptor, if fdBlockSize descriptors have been
// examined since the last pause (sockets and non-sockets alike), the walk
// blocks on ticker, resets the counter, and re-reads the connection tables
// for the unvisited remainder of the group. If that re-read finds the group
// empty or fails, the walk soft-stops and keeps what was accumulated.
//
// When several members hold descriptors on the same inode, the last one
// processed wins. No ordering is guaranteed across scans; downstream
// consumers must not rely on either outcome.
func (s *Scanner) walkGroup(buf *bytes.Buffer, sockets map[uint64]*Owner, group []process.Process, ticker <-chan time.Time, fdBlockSize int) error {
	if found, err := s.readGroupConnections(buf, group); err != nil || !found {
		return err
	}

	var statT unix.Stat_t
	var fdBlockCount int
	for i, p := range group {
		dirName := strconv.Itoa(p.PID)
		fdBase := filepath.Join(s.procRoot, dirName, "fd")

		fds, err := s.fsys.ReadDirNames(fdBase)
		if err != nil {
			// Process is gone by now, or we don't have access.
			continue
		}

		var owner *Owner
		for _, fd := range fds {
			if fdBlockCount >= fdBlockSize {
				// We surpassed the file-descriptor rate limit.
				<-ticker
				fdBlockCount = 0

				// Read the connections again to avoid the race
				// between net/tcp{,6} and the descriptor walk.
				if found, err := s.readGroupConnections(buf, group[i:]); err != nil || !found {
					return err
				}
			}
			fdBlockCount++

			// Stat the descriptor directly into a reused Stat_t to
			// save garbage.
			if err := s.fsys.Stat(filepath.Join(fdBase, fd), &statT); err != nil {
				continue
			}

			// We want sockets only.
			if statT.Mode&unix.S_IFMT != unix.S_IFSOCK {
				continue
			}

			// Initialize owner lazily so processes contributing no
			// sockets allocate nothing.
			if owner == nil {
				owner = &Owner{
					PID:  uint(p.PID),
					Name: p.Name,
				}
			}

			sockets[statT.Ino] = owner
		}
	}

	return nil
}
