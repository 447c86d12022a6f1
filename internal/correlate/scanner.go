package correlate

import (
	"bytes"
	"fmt"
	"log"
	"time"

	"github.com/mrzor/sockowner/internal/filter"
	"github.com/mrzor/sockowner/internal/fs"
	"github.com/mrzor/sockowner/internal/kernel"
	"github.com/mrzor/sockowner/internal/metrics"
	"github.com/mrzor/sockowner/internal/process"
)

// Owner identifies the process a socket inode belongs to. One Owner is
// shared by all inodes attributed to the same process within a scan.
type Owner struct {
	PID  uint
	Name string
}

// Scanner correlates socket inodes with owning processes. A Scanner is
// reusable across scans but must not run two scans concurrently.
type Scanner struct {
	fsys     fs.Interface
	procRoot string
	resolver *kernel.Resolver
	sink     metrics.Sink
	filter   *filter.Filter
}

// New returns a Scanner reading from the proc mount at procRoot. A nil
// resolver probes the real kernel, a nil sink discards metrics, and a nil
// filter keeps every process.
func New(fsys fs.Interface, procRoot string, resolver *kernel.Resolver, sink metrics.Sink, f *filter.Filter) *Scanner {
	if fsys == nil {
		fsys = fs.OS{}
	}
	if resolver == nil {
		resolver = kernel.NewResolver()
	}
	if sink == nil {
		sink = metrics.Noop{}
	}
	return &Scanner{
		fsys:     fsys,
		procRoot: procRoot,
		resolver: resolver,
		sink:     sink,
		filter:   f,
	}
}

// Scan attributes each open socket inode to one of procs. It blocks on
// ticker once per namespace group and once per fdBlockSize descriptors
// examined, bounding the aggregate syscall rate. The returned map is owned
// by the caller; the Scanner never touches it again.
func (s *Scanner) Scan(procs []process.Process, ticker <-chan time.Time, fdBlockSize int) (map[uint64]*Owner, error) {
	var (
		sockets    = map[uint64]*Owner{}
		buf        = bytes.NewBuffer(make([]byte, 0, connTableBufSize))
		namespaces = s.groupByNamespace(procs)
	)

	for _, group := range namespaces {
		<-ticker
		if err := s.walkGroup(buf, sockets, group, ticker, fdBlockSize); err != nil {
			// Soft error: the group contributes nothing (or only what
			// was accumulated before a failed re-read).
			log.Printf("skipping namespace group of %d processes: %v", len(group), err)
		}
	}

	s.sink.SetNamespaceCount(len(namespaces))
	return sockets, nil
}

// ScanWalker enumerates processes through w and scans them. Enumeration
// failure is the one fatal condition: without a process list there is
// nothing to attribute, and recovery is delegated to the caller's scan
// cadence.
func (s *Scanner) ScanWalker(w process.Walker, ticker <-chan time.Time, fdBlockSize int) (map[uint64]*Owner, error) {
	var procs []process.Process
	if err := w.Walk(func(p process.Process) {
		procs = append(procs, p)
	}); err != nil {
		return nil, fmt.Errorf("scan aborted: %w", err)
	}
	return s.Scan(procs, ticker, fdBlockSize)
}
