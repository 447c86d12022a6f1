package kernel

import (
	"fmt"

	"github.com/hashicorp/go-version"
	"golang.org/x/sys/unix"
)

// Release returns the running kernel's release string as reported by uname(2),
// e.g. "6.8.0-45-generic".
func Release() (string, error) {
	var u unix.Utsname
	if err := unix.Uname(&u); err != nil {
		return "", fmt.Errorf("uname: %w", err)
	}
	return unix.ByteSliceToString(u.Release[:]), nil
}

// Version probes the kernel release and parses it into a comparable version.
func Version() (*version.Version, error) {
	release, err := Release()
	if err != nil {
		return nil, err
	}
	v, err := version.NewVersion(release)
	if err != nil {
		return nil, fmt.Errorf("parsing kernel release %q: %w", release, err)
	}
	return v, nil
}
