package testing

import (
	"fmt"
	"math/rand"
	"sync/atomic"
	"testing"

	"github.com/ValentinKolb/kolist/lib/keyed"
)

// RunKeyedListBenchmarks runs all benchmarks for an IKeyedList implementation
func RunKeyedListBenchmarks(b *testing.B, name string, factory ListFactory) {
	b.Run(name, func(b *testing.B) {

		b.Run("Add", func(b *testing.B) {
			benchmarkAdd(b, factory())
		})

		b.Run("AddRange", func(b *testing.B) {
			benchmarkAddRange(b, factory())
		})

		b.Run("GetByKey", func(b *testing.B) {
			benchmarkGetByKey(b, factory())
		})

		b.Run("Get", func(b *testing.B) {
			benchmarkGet(b, factory())
		})

		b.Run("Update", func(b *testing.B) {
			benchmarkUpdate(b, factory())
		})

		b.Run("Move", func(b *testing.B) {
			benchmarkMove(b, factory())
		})

		b.Run("AddRemove", func(b *testing.B) {
			benchmarkAddRemove(b, factory())
		})

		b.Run("Enumerate", func(b *testing.B) {
			benchmarkEnumerate(b, factory())
		})

		b.Run("MixedUsage", func(b *testing.B) {
			benchmarkMixedUsage(b, factory())
		})

		b.Run("WithSubscribers", func(b *testing.B) {
			benchmarkWithSubscribers(b, factory())
		})
	})
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

// fill adds n items with keys "bench-0" ... "bench-(n-1)"
func fill(b *testing.B, list keyed.IKeyedList[string, *Item], n int) {
	b.Helper()
	batch := make([]*Item, n)
	for i := range batch {
		batch[i] = &Item{ID: fmt.Sprintf("bench-%d", i), Value: i}
	}
	if err := list.AddRange(batch); err != nil {
		b.Fatalf("Failed to prepare list: %v", err)
	}
}

// --------------------------------------------------------------------------
// Benchmark functions
// --------------------------------------------------------------------------

// Parallel benchmarking for Add with unique keys
func benchmarkAdd(b *testing.B, list keyed.IKeyedList[string, *Item]) {
	var counter atomic.Int64

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			n := counter.Add(1)
			_ = list.Add(&Item{ID: fmt.Sprintf("add-%d", n), Value: int(n)})
		}
	})
}

// Benchmark for AddRange with batches of 64 items
func benchmarkAddRange(b *testing.B, list keyed.IKeyedList[string, *Item]) {
	const batchSize = 64
	batch := make([]*Item, batchSize)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for j := range batch {
			batch[j] = &Item{ID: fmt.Sprintf("range-%d-%d", i, j)}
		}
		if err := list.AddRange(batch); err != nil {
			b.Fatalf("AddRange failed: %v", err)
		}
	}
}

// Parallel benchmarking for keyed reads
func benchmarkGetByKey(b *testing.B, list keyed.IKeyedList[string, *Item]) {
	numKeys := 10000
	fill(b, list, numKeys)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		counter := 0
		for pb.Next() {
			_, _ = list.GetByKey(fmt.Sprintf("bench-%d", counter%numKeys))
			counter++
		}
	})
}

// Parallel benchmarking for positional reads
func benchmarkGet(b *testing.B, list keyed.IKeyedList[string, *Item]) {
	numKeys := 10000
	fill(b, list, numKeys)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		counter := 0
		for pb.Next() {
			_, _ = list.Get(counter % numKeys)
			counter++
		}
	})
}

// Parallel benchmarking for Update on existing keys
func benchmarkUpdate(b *testing.B, list keyed.IKeyedList[string, *Item]) {
	numKeys := 1000
	fill(b, list, numKeys)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		counter := 0
		for pb.Next() {
			_ = list.Update(&Item{ID: fmt.Sprintf("bench-%d", counter%numKeys), Value: counter})
			counter++
		}
	})
}

// Benchmark for Move between random positions
func benchmarkMove(b *testing.B, list keyed.IKeyedList[string, *Item]) {
	numKeys := 1000
	fill(b, list, numKeys)
	r := rand.New(rand.NewSource(1))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = list.Move(r.Intn(numKeys), r.Intn(numKeys))
	}
}

// Parallel benchmarking for churn: every added item is removed again
func benchmarkAddRemove(b *testing.B, list keyed.IKeyedList[string, *Item]) {
	var counter atomic.Int64

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			v := &Item{ID: fmt.Sprintf("churn-%d", counter.Add(1))}
			_ = list.Add(v)
			list.Remove(v)
		}
	})
}

// Benchmark for a full range over a list of 1000 items
func benchmarkEnumerate(b *testing.B, list keyed.IKeyedList[string, *Item]) {
	fill(b, list, 1000)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		sum := 0
		for v := range list.Values() {
			sum += v.Value
		}
		_ = sum
	}
}

// Parallel benchmarking for mixed operations (60% reads, 30% updates, 10% churn)
func benchmarkMixedUsage(b *testing.B, list keyed.IKeyedList[string, *Item]) {
	numKeys := 1000
	fill(b, list, numKeys)
	var counter atomic.Int64

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		r := rand.New(rand.NewSource(counter.Add(1)))
		for pb.Next() {
			key := fmt.Sprintf("bench-%d", r.Intn(numKeys))
			switch op := r.Intn(10); {
			case op < 6:
				_, _ = list.GetByKey(key)
			case op < 9:
				_ = list.Update(&Item{ID: key, Value: op})
			default:
				v := &Item{ID: fmt.Sprintf("mixed-%d", counter.Add(1))}
				_ = list.Add(v)
				list.Remove(v)
			}
		}
	})
}

// Benchmark for Add with one typed and two legacy handlers attached
func benchmarkWithSubscribers(b *testing.B, list keyed.IKeyedList[string, *Item]) {
	var seen atomic.Int64
	unsubscribe := list.Subscribe(func(keyed.Delta[*Item]) { seen.Add(1) })
	b.Cleanup(unsubscribe)

	for _, name := range []string{"first", "second"} {
		list.AddCollectionChanged(name, func(_ any, e keyed.ChangeEvent[*Item]) {
			seen.Add(int64(len(e.NewItems)))
		})
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = list.Add(&Item{ID: fmt.Sprintf("sub-%d", i)})
	}
}
