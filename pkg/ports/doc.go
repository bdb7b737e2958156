/*
Package ports defines the driven ports (interfaces) relux talks to.

# Key Interfaces

  - SnapshotSink: receives the latest snapshot of mirrored relays (in memory, Redis).

RunSnapshotSinkContract is the shared test suite every adapter runs.
*/
package ports
