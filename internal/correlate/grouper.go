package correlate

import (
	"path/filepath"
	"strconv"

	"golang.org/x/sys/unix"

	"github.com/mrzor/sockowner/internal/process"
)

// groupByNamespace partitions procs into groups sharing a network namespace,
// keyed on the inode of each process's namespace-marker path. Processes whose
// marker cannot be stat'ed (exited, permission denied) are silently skipped;
// partial coverage is acceptable, not fatal.
func (s *Scanner) groupByNamespace(procs []process.Process) map[uint64][]process.Process {
	var (
		namespaces = map[uint64][]process.Process{}
		suffix     = s.resolver.Suffix()
		statT      unix.Stat_t
	)

	for _, p := range procs {
		if !s.filter.Keep(p) {
			continue
		}

		nsPath := filepath.Join(s.procRoot, strconv.Itoa(p.PID), suffix)
		if err := s.fsys.Stat(nsPath, &statT); err != nil {
			continue
		}

		namespaces[statT.Ino] = append(namespaces[statT.Ino], p)
	}

	return namespaces
}
