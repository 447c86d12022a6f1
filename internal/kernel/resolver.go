package kernel

import (
	"log"
	"sync"

	"github.com/hashicorp/go-version"
)

// Namespace-marker path suffixes relative to /proc/PID.
const (
	// NetNamespaceSuffix is the dedicated namespace marker available since
	// Linux 3.8.
	NetNamespaceSuffix = "ns/net"

	// LegacyNetNamespaceSuffix stands in on older kernels. Any file under
	// /proc/PID/net/ works, but it is undocumented and may break on newer
	// kernels, hence the version cutoff.
	LegacyNetNamespaceSuffix = "net/dev"
)

var cutoff38 = version.Must(version.NewVersion("3.8"))

// ProbeFunc reports the running kernel version. Injectable for tests.
type ProbeFunc func() (*version.Version, error)

// Resolver chooses the namespace-marker path suffix for the running kernel.
// The choice is memoized on first use; construct one Resolver per process and
// pass it down to whatever needs the suffix.
type Resolver struct {
	probe ProbeFunc

	once   sync.Once
	suffix string
}

// NewResolver returns a Resolver backed by the real kernel version probe.
func NewResolver() *Resolver {
	return NewResolverWithProbe(Version)
}

// NewResolverWithProbe returns a Resolver backed by the given probe.
func NewResolverWithProbe(probe ProbeFunc) *Resolver {
	return &Resolver{probe: probe}
}

// Suffix returns the namespace-marker path suffix. The kernel version is
// probed on the first call only. If the probe fails, the modern suffix is
// assumed and the fallback is logged once.
func (r *Resolver) Suffix() string {
	r.once.Do(func() {
		v, err := r.probe()
		if err != nil {
			log.Printf("cannot determine kernel version, assuming %s: %v", NetNamespaceSuffix, err)
			r.suffix = NetNamespaceSuffix
			return
		}
		if v.LessThan(cutoff38) {
			r.suffix = LegacyNetNamespaceSuffix
		} else {
			r.suffix = NetNamespaceSuffix
		}
	})
	return r.suffix
}
