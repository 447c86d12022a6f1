// Package kernel detects the running kernel release and derives from it the
// per-process path that identifies a network namespace.
//
// With Linux 3.8 or later the network namespace of a process is identified by
// the inode of /proc/PID/ns/net. Before that there is no dedicated marker, so
// the inode of any file under /proc/PID/net/ serves instead; net/dev is the
// conventional choice.
//
// Resolver memoizes the decision: the kernel does not change under a running
// engine, so the release is probed at most once per process lifetime.
package kernel
