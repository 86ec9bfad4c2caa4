// Package testing provides standardised tests and benchmarks for list
// implementations that satisfy the keyed.IKeyedList interface.
//
// The package contains:
//   - testing: A conformance suite covering the index invariants, batch
//     atomicity, the exact deltas every mutation raises, the legacy event
//     adapter and concurrent use
//   - benchmark: Throughput tests for reads, writes, moves and churn
//
// All tests run against lists of *Item, a minimal keyed item with a string key.
//
// Example usage:
//
//	// Creating a factory function for your implementation
//	factory := func() keyed.IKeyedList[string, *testing.Item] {
//		return NewMyList[string, *testing.Item]()
//	}
//
//	// Running the standard test suite
//	testing.RunKeyedListTests(t, "MyList", factory)
//
//	// Running performance benchmarks
//	testing.RunKeyedListBenchmarks(b, "MyList", factory)
package testing
