/*
Package observability provides the metrics side of relux.

Metrics bundles the Prometheus collectors updated by the dispatcher, the
store, relays and the saga orchestrator. A nil *Metrics is valid and records
nothing, so components take it as an optional dependency.
*/
package observability
