// Package util provides generic helpers used by the observers and tools built
// around keyed lists.
//
// The package contains:
//   - mpsc: A lock-free Multi-Producer Single-Consumer (MPSC) queue used to move
//     change deltas out of a list's critical section
//   - statistics: Summary statistics and a fairness score for concurrent runs
//
// This package is particularly useful for:
//   - Observers that must not stall the list they observe
//   - Benchmarks that want to report how evenly contention was resolved
package util
