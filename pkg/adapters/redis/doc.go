// Package redis mirrors relay snapshots into Redis so that processes outside
// the pipeline can read the latest state and follow changes over pub/sub.
package redis
