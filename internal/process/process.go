// Package process defines the process handle the engine attributes sockets to
// and a procfs-backed enumerator of live processes.
package process

// Process is a handle on a live process. Handles are supplied by an
// enumerator and treated as immutable by the engine.
type Process struct {
	PID  int
	Name string
}

// Walker enumerates live processes. Implementations make no ordering or
// completeness guarantee: a process may exit between enumeration and use.
type Walker interface {
	Walk(fn func(Process)) error
}
