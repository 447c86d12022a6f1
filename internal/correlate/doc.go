// Package correlate attributes open network sockets to their owning
// processes using only procfs introspection.
//
// A scan runs in two traversals:
//
//  1. Group processes by network namespace, keyed on the inode of each
//     process's namespace-marker path. All processes in one namespace observe
//     the identical connection table, so the table is read once per group.
//  2. For each group, snapshot the group's TCP/TCP6 connection tables, then
//     walk every member's descriptor directory and record inode -> owner for
//     each socket-typed descriptor.
//
// Descriptor examination is rate limited: after fdBlockSize descriptors the
// walk blocks on the caller-supplied tick source, and before resuming it
// re-reads the connection tables for the not-yet-visited remainder of the
// group. Real time elapsed during the pause, so the table may have changed;
// resuming against a stale snapshot risks misattributing sockets that opened
// or closed during the gap.
//
// A scan is strictly sequential. The connection-table buffer and the
// rate-limit counter are shared without locks because groups are processed
// one at a time on a single goroutine; the sole suspension point is the tick
// receive.
//
// Individual processes exiting mid-scan only drop their own contributions.
// The result map is rebuilt from scratch every scan and handed to the caller
// by ownership.
package correlate
