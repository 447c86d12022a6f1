package correlate

import (
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/hashicorp/go-version"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/mrzor/sockowner/internal/filter"
	"github.com/mrzor/sockowner/internal/fs"
	"github.com/mrzor/sockowner/internal/kernel"
	"github.com/mrzor/sockowner/internal/process"
)

const testRoot = "/proc"

// tcpRow stands in for one /proc/net/tcp line; the engine only cares whether
// the combined read is empty.
const tcpRow = "  0: 0100007F:1F90 00000000:0000 0A 00000000:00000000 00:00000000 00000000  1000    0 9999 1 0000000000000000 100 0 0 10 0\n"

func modernResolver() *kernel.Resolver {
	return kernel.NewResolverWithProbe(func() (*version.Version, error) {
		return version.NewVersion("6.1.0")
	})
}

func newTestScanner(fake *fs.Fake) *Scanner {
	return New(fake, testRoot, modernResolver(), nil, nil)
}

// ticks returns a tick source pre-filled with n ticks so the scan never
// blocks. The number of ticks consumed is n - len(ch) afterwards.
func ticks(n int) chan time.Time {
	ch := make(chan time.Time, n)
	for i := 0; i < n; i++ {
		ch <- time.Time{}
	}
	return ch
}

func pidDir(pid int) string {
	return filepath.Join(testRoot, strconv.Itoa(pid))
}

func addNamespace(fake *fs.Fake, pid int, nsIno uint64) {
	fake.AddNode(filepath.Join(pidDir(pid), "ns/net"), nsIno, unix.S_IFREG)
}

func addTables(fake *fs.Fake, pid int, tcp, tcp6 string) {
	fake.AddFile(filepath.Join(pidDir(pid), "net", "tcp"), []byte(tcp))
	fake.AddFile(filepath.Join(pidDir(pid), "net", "tcp6"), []byte(tcp6))
}

func addSocketFD(fake *fs.Fake, pid int, fd string, ino uint64) {
	fdBase := filepath.Join(pidDir(pid), "fd")
	names := append(fakeDirNames(fake, fdBase), fd)
	fake.AddDir(fdBase, names...)
	fake.AddSocket(filepath.Join(fdBase, fd), ino)
}

func addPlainFD(fake *fs.Fake, pid int, fd string, ino uint64) {
	fdBase := filepath.Join(pidDir(pid), "fd")
	names := append(fakeDirNames(fake, fdBase), fd)
	fake.AddDir(fdBase, names...)
	fake.AddNode(filepath.Join(fdBase, fd), ino, unix.S_IFREG)
}

func fakeDirNames(fake *fs.Fake, path string) []string {
	names, err := fake.ReadDirNames(path)
	if err != nil {
		return nil
	}
	return names
}

func tableReads(fake *fs.Fake, table string) int {
	n := 0
	for _, p := range fake.ReadLog {
		if filepath.Base(p) == table {
			n++
		}
	}
	return n
}

func TestScan_DisjointNamespaces(t *testing.T) {
	fake := fs.NewFake()
	addNamespace(fake, 100, 555)
	addTables(fake, 100, tcpRow, "")
	addSocketFD(fake, 100, "3", 1111)

	addNamespace(fake, 200, 556)
	addTables(fake, 200, tcpRow, "")
	addSocketFD(fake, 200, "3", 2222)
	addSocketFD(fake, 200, "4", 2223)

	procs := []process.Process{
		{PID: 100, Name: "alpha"},
		{PID: 200, Name: "beta"},
	}

	sockets, err := newTestScanner(fake).Scan(procs, ticks(100), 1000)
	require.NoError(t, err)

	require.Len(t, sockets, 3)
	assert.Equal(t, &Owner{PID: 100, Name: "alpha"}, sockets[1111])
	assert.Equal(t, &Owner{PID: 200, Name: "beta"}, sockets[2222])
	assert.Equal(t, &Owner{PID: 200, Name: "beta"}, sockets[2223])
}

func TestScan_TableReadOncePerGroup(t *testing.T) {
	fake := fs.NewFake()
	for pid := 100; pid < 105; pid++ {
		addNamespace(fake, pid, 555)
		addTables(fake, pid, tcpRow, "")
		addSocketFD(fake, pid, "3", uint64(1000+pid))
	}

	var procs []process.Process
	for pid := 100; pid < 105; pid++ {
		procs = append(procs, process.Process{PID: pid, Name: "worker"})
	}

	sockets, err := newTestScanner(fake).Scan(procs, ticks(100), 1000)
	require.NoError(t, err)
	require.Len(t, sockets, 5)

	// One namespace group, so one tcp read and one tcp6 read regardless
	// of group size.
	assert.Equal(t, 1, tableReads(fake, "tcp"))
	assert.Equal(t, 1, tableReads(fake, "tcp6"))
}

func TestScan_Idempotent(t *testing.T) {
	fake := fs.NewFake()
	addNamespace(fake, 100, 555)
	addTables(fake, 100, tcpRow, "")
	addSocketFD(fake, 100, "3", 1111)
	addSocketFD(fake, 100, "5", 1112)

	addNamespace(fake, 300, 777)
	addTables(fake, 300, "", tcpRow)
	addSocketFD(fake, 300, "4", 3333)

	procs := []process.Process{
		{PID: 100, Name: "alpha"},
		{PID: 300, Name: "gamma"},
	}
	s := newTestScanner(fake)

	first, err := s.Scan(procs, ticks(100), 1000)
	require.NoError(t, err)
	second, err := s.Scan(procs, ticks(100), 1000)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestScan_NonSocketDescriptorsNeverAppear(t *testing.T) {
	fake := fs.NewFake()
	addNamespace(fake, 100, 555)
	addTables(fake, 100, tcpRow, "")
	addSocketFD(fake, 100, "3", 1111)
	addPlainFD(fake, 100, "4", 4242)
	addPlainFD(fake, 100, "5", 4343)

	sockets, err := newTestScanner(fake).Scan(
		[]process.Process{{PID: 100, Name: "alpha"}}, ticks(100), 1000)
	require.NoError(t, err)

	require.Len(t, sockets, 1)
	assert.Contains(t, sockets, uint64(1111))
	assert.NotContains(t, sockets, uint64(4242))
	assert.NotContains(t, sockets, uint64(4343))
}

func TestScan_SharedNamespaceScenario(t *testing.T) {
	// A has no sockets, B owns inode 9999; both live in namespace 555.
	fake := fs.NewFake()
	addNamespace(fake, 100, 555)
	addTables(fake, 100, tcpRow, "")
	addPlainFD(fake, 100, "0", 10)

	addNamespace(fake, 200, 555)
	addTables(fake, 200, tcpRow, "")
	addSocketFD(fake, 200, "3", 9999)

	procs := []process.Process{
		{PID: 100, Name: "A"},
		{PID: 200, Name: "B"},
	}

	sockets, err := newTestScanner(fake).Scan(procs, ticks(100), 1000)
	require.NoError(t, err)

	require.Len(t, sockets, 1)
	assert.Equal(t, &Owner{PID: 200, Name: "B"}, sockets[9999])
}

func TestScan_EmptyTablesSkipWholeGroup(t *testing.T) {
	// Tables read fine but are empty: the group's descriptors must never
	// surface, socket-typed or not.
	fake := fs.NewFake()
	addNamespace(fake, 100, 555)
	addTables(fake, 100, "", "")
	addSocketFD(fake, 100, "3", 1111)

	sockets, err := newTestScanner(fake).Scan(
		[]process.Process{{PID: 100, Name: "alpha"}}, ticks(100), 1000)
	require.NoError(t, err)
	assert.Empty(t, sockets)
}

func TestScan_UnreadableGroupSkippedOthersSurvive(t *testing.T) {
	// PID 100's tables are gone entirely; PID 200 lives in another
	// namespace and must still be attributed.
	fake := fs.NewFake()
	addNamespace(fake, 100, 555)
	addSocketFD(fake, 100, "3", 1111)

	addNamespace(fake, 200, 556)
	addTables(fake, 200, tcpRow, "")
	addSocketFD(fake, 200, "3", 2222)

	procs := []process.Process{
		{PID: 100, Name: "doomed"},
		{PID: 200, Name: "beta"},
	}

	sockets, err := newTestScanner(fake).Scan(procs, ticks(100), 1000)
	require.NoError(t, err)

	require.Len(t, sockets, 1)
	assert.Equal(t, &Owner{PID: 200, Name: "beta"}, sockets[2222])
}

func TestScan_ProcessExitedBeforeFDWalk(t *testing.T) {
	// PID 100 grouped fine but its fd directory vanished before the walk.
	fake := fs.NewFake()
	addNamespace(fake, 100, 555)
	addTables(fake, 100, tcpRow, "")

	addNamespace(fake, 200, 555)
	addTables(fake, 200, tcpRow, "")
	addSocketFD(fake, 200, "3", 2222)

	procs := []process.Process{
		{PID: 100, Name: "gone"},
		{PID: 200, Name: "beta"},
	}

	sockets, err := newTestScanner(fake).Scan(procs, ticks(100), 1000)
	require.NoError(t, err)

	require.Len(t, sockets, 1)
	assert.Equal(t, &Owner{PID: 200, Name: "beta"}, sockets[2222])
}

func TestScan_SharedInodeLastWriteWins(t *testing.T) {
	// Two processes in one namespace hold descriptors on the same inode,
	// e.g. a socket inherited across fork. Exactly one of them owns it in
	// the result; which one is unspecified.
	fake := fs.NewFake()
	addNamespace(fake, 100, 555)
	addTables(fake, 100, tcpRow, "")
	addSocketFD(fake, 100, "3", 9999)

	addNamespace(fake, 200, 555)
	addTables(fake, 200, tcpRow, "")
	addSocketFD(fake, 200, "4", 9999)

	procs := []process.Process{
		{PID: 100, Name: "parent"},
		{PID: 200, Name: "child"},
	}

	sockets, err := newTestScanner(fake).Scan(procs, ticks(100), 1000)
	require.NoError(t, err)

	require.Len(t, sockets, 1)
	owner := sockets[9999]
	require.NotNil(t, owner)
	assert.Contains(t, []uint{100, 200}, owner.PID)
}

func TestScan_ReportsNamespaceCount(t *testing.T) {
	fake := fs.NewFake()
	addNamespace(fake, 100, 555)
	addTables(fake, 100, tcpRow, "")
	addSocketFD(fake, 100, "3", 1111)

	addNamespace(fake, 200, 556)
	addTables(fake, 200, "", "")

	addNamespace(fake, 300, 557)
	addTables(fake, 300, "", "")

	sink := &recordingSink{}
	s := New(fake, testRoot, modernResolver(), sink, nil)

	_, err := s.Scan([]process.Process{
		{PID: 100, Name: "a"},
		{PID: 200, Name: "b"},
		{PID: 300, Name: "c"},
	}, ticks(100), 1000)
	require.NoError(t, err)

	assert.Equal(t, 3, sink.namespaceCount)
}

func TestScan_FilterExcludesProcesses(t *testing.T) {
	fake := fs.NewFake()
	addNamespace(fake, 100, 555)
	addTables(fake, 100, tcpRow, "")
	addSocketFD(fake, 100, "3", 1111)

	addNamespace(fake, 200, 556)
	addTables(fake, 200, tcpRow, "")
	addSocketFD(fake, 200, "3", 2222)

	f, err := filter.New(`name != "noisy"`)
	require.NoError(t, err)

	s := New(fake, testRoot, modernResolver(), nil, f)
	sockets, err := s.Scan([]process.Process{
		{PID: 100, Name: "noisy"},
		{PID: 200, Name: "kept"},
	}, ticks(100), 1000)
	require.NoError(t, err)

	require.Len(t, sockets, 1)
	assert.Equal(t, &Owner{PID: 200, Name: "kept"}, sockets[2222])
}

func TestScanWalker_EnumerationFailureIsFatal(t *testing.T) {
	fake := fs.NewFake() // no /proc at all

	s := newTestScanner(fake)
	_, err := s.ScanWalker(process.NewProcfsWalker(fake, testRoot), ticks(100), 1000)
	assert.Error(t, err)
}

func TestScanWalker_EndToEnd(t *testing.T) {
	fake := fs.NewFake()
	fake.AddDir(testRoot, "100", "sys")
	fake.AddFile(filepath.Join(pidDir(100), "comm"), []byte("alpha\n"))
	addNamespace(fake, 100, 555)
	addTables(fake, 100, tcpRow, "")
	addSocketFD(fake, 100, "3", 1111)

	s := newTestScanner(fake)
	sockets, err := s.ScanWalker(process.NewProcfsWalker(fake, testRoot), ticks(100), 1000)
	require.NoError(t, err)

	require.Len(t, sockets, 1)
	assert.Equal(t, &Owner{PID: 100, Name: "alpha"}, sockets[1111])
}

type recordingSink struct {
	namespaceCount int
}

func (r *recordingSink) SetNamespaceCount(n int) {
	r.namespaceCount = n
}
