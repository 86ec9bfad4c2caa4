package perf

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"slices"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	cmdUtil "github.com/ValentinKolb/kolist/cmd/util"
	"github.com/ValentinKolb/kolist/lib/common"
	"github.com/ValentinKolb/kolist/lib/keyed/klist"
	"github.com/ValentinKolb/kolist/lib/util"
	"github.com/google/uuid"
	"github.com/lni/dragonboat/v4/logger"
	metrics "github.com/rcrowley/go-metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var plog = logger.GetLogger(common.LoggerCLI)

var (
	PerfCmd = &cobra.Command{
		Use:     "perf",
		Short:   "Performance testing tool for keyed lists",
		Long:    "Runs concurrent benchmarks of the core operations against a single list and reports throughput, latency percentiles and how evenly the work was spread over the workers.",
		RunE:    run,
		PreRunE: processPerfConfig,
	}
	perfNumThreads = 10
	perfItems      = 1000
	perfSkip       = make([]string, 0)
)

// benchmarks in execution order
var benchmarks = []struct {
	name string
	op   func(list *klist.KeyedList[uuid.UUID, *item], w *worker)
}{
	{"add", opAdd},
	{"get-by-key", opGetByKey},
	{"get", opGet},
	{"update", opUpdate},
	{"churn", opChurn},
	{"move", opMove},
	{"enumerate", opEnumerate},
}

func init() {
	// add flags
	key := "skip"
	PerfCmd.Flags().String(key, "", cmdUtil.WrapString("Benchmarks to skip (comma separated - e.g. add,move)"))
	key = "threads"
	PerfCmd.Flags().Int(key, 10, cmdUtil.WrapString("Number of threads to use for the benchmark"))
	key = "items"
	PerfCmd.Flags().Int(key, 1000, cmdUtil.WrapString("How many items the list holds before each benchmark"))
	key = "csv"
	PerfCmd.Flags().String(key, "", cmdUtil.WrapString("Optional path to save benchmark results as CSV"))
}

func processPerfConfig(cmd *cobra.Command, _ []string) error {
	if err := cmdUtil.BindCommandFlags(cmd); err != nil {
		return err
	}

	// Read the configuration from the command line flags and environment variables
	perfNumThreads = max(viper.GetInt("threads"), 1)
	perfItems = max(viper.GetInt("items"), 1)
	perfSkip = cmdUtil.SplitList(viper.GetString("skip"))

	return nil
}

// --------------------------------------------------------------------------
// Items and workers
// --------------------------------------------------------------------------

type item struct {
	ID    uuid.UUID
	Value int
}

func (i *item) Key() uuid.UUID { return i.ID }

// worker is the per-goroutine state of one RunParallel body
type worker struct {
	keys    []uuid.UUID
	counter int
	ops     int64
}

func (w *worker) nextKey() uuid.UUID {
	k := w.keys[w.counter%len(w.keys)]
	w.counter++
	return k
}

// result of one benchmark
type result struct {
	name     string
	bench    testing.BenchmarkResult
	timer    metrics.Timer
	fairness util.Fairness
}

// --------------------------------------------------------------------------
// Run
// --------------------------------------------------------------------------

func run(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, "Performance testing tool for keyed lists")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Configuration:")
	fmt.Fprintf(out, "Threads: %d\n", perfNumThreads)
	fmt.Fprintf(out, "Items:   %d\n", perfItems)
	fmt.Fprintln(out)
	fmt.Fprintln(out, "starting tests...")

	registry := metrics.NewRegistry()
	defer registry.UnregisterAll()

	var results []result
	for _, b := range benchmarks {
		if slices.Contains(perfSkip, b.name) {
			printSkipped(out, b.name)
			continue
		}
		r := runBenchmark(b.name, b.op, registry)
		results = append(results, r)
		printResult(out, r)
	}

	// Write results to csv is specified
	if csvPath := viper.GetString("csv"); csvPath != "" {
		fmt.Fprintf(out, "\nExporting results to CSV: %s\n", csvPath)
		if err := writeResultsToCSV(csvPath, results); err != nil {
			return fmt.Errorf("failed to export results to CSV: %w", err)
		}
		fmt.Fprintln(out, "Export complete")
	}
	return nil
}

// runBenchmark runs op in parallel against a freshly filled list. Every call
// of op is timed with the rcrowley timer registered under name.
func runBenchmark(name string, op func(*klist.KeyedList[uuid.UUID, *item], *worker), registry metrics.Registry) result {
	timer := metrics.GetOrRegisterTimer(name, registry)

	var (
		mu        sync.Mutex
		perWorker []float64
	)

	bench := testing.Benchmark(func(b *testing.B) {
		list, keys := prepare(perfItems)

		mu.Lock()
		perWorker = perWorker[:0]
		mu.Unlock()
		var seed atomic.Int64

		b.SetParallelism(perfNumThreads)
		b.ResetTimer()

		b.RunParallel(func(pb *testing.PB) {
			w := &worker{keys: keys, counter: int(seed.Add(1)) * 7919}
			for pb.Next() {
				start := time.Now()
				op(list, w)
				timer.UpdateSince(start)
				w.ops++
			}
			mu.Lock()
			perWorker = append(perWorker, float64(w.ops))
			mu.Unlock()
		})
	})

	plog.Debugf("(%s) %d iterations, %d timed operations", name, bench.N, timer.Count())
	return result{
		name:     name,
		bench:    bench,
		timer:    timer.Snapshot(),
		fairness: util.NewFairness(perWorker),
	}
}

// prepare creates a list holding n items and returns their keys
func prepare(n int) (*klist.KeyedList[uuid.UUID, *item], []uuid.UUID) {
	items := make([]*item, n)
	keys := make([]uuid.UUID, n)
	for i := range items {
		items[i] = &item{ID: uuid.New(), Value: i}
		keys[i] = items[i].ID
	}
	list, err := klist.NewFrom[uuid.UUID, *item](items)
	if err != nil {
		// random uuids do not collide in practice
		plog.Panicf("preparing list: %v", err)
	}
	return list, keys
}

// --------------------------------------------------------------------------
// Operations
// --------------------------------------------------------------------------

func opAdd(list *klist.KeyedList[uuid.UUID, *item], w *worker) {
	if err := list.Add(&item{ID: uuid.New(), Value: w.counter}); err != nil {
		plog.Warningf("(add) - error adding item: %v", err)
	}
	w.counter++
}

func opGetByKey(list *klist.KeyedList[uuid.UUID, *item], w *worker) {
	if _, err := list.GetByKey(w.nextKey()); err != nil {
		plog.Warningf("(get-by-key) - error reading item: %v", err)
	}
}

func opGet(list *klist.KeyedList[uuid.UUID, *item], w *worker) {
	// the list never shrinks below the prepared size
	if _, err := list.Get(w.counter % len(w.keys)); err != nil {
		plog.Warningf("(get) - error reading item: %v", err)
	}
	w.counter++
}

func opUpdate(list *klist.KeyedList[uuid.UUID, *item], w *worker) {
	if err := list.Update(&item{ID: w.nextKey(), Value: w.counter}); err != nil {
		plog.Warningf("(update) - error updating item: %v", err)
	}
}

func opChurn(list *klist.KeyedList[uuid.UUID, *item], w *worker) {
	v := &item{ID: uuid.New()}
	if err := list.Add(v); err != nil {
		plog.Warningf("(churn) - error adding item: %v", err)
		return
	}
	if !list.Remove(v) {
		plog.Warningf("(churn) - item %s vanished before removal", v.ID)
	}
}

func opMove(list *klist.KeyedList[uuid.UUID, *item], w *worker) {
	n := len(w.keys)
	if err := list.Move(w.counter%n, (w.counter*31)%n); err != nil {
		plog.Warningf("(move) - error moving item: %v", err)
	}
	w.counter++
}

func opEnumerate(list *klist.KeyedList[uuid.UUID, *item], _ *worker) {
	sum := 0
	for v := range list.Values() {
		sum += v.Value
	}
	_ = sum
}

// --------------------------------------------------------------------------
// Output
// --------------------------------------------------------------------------

func printSkipped(out io.Writer, test string) {
	fmt.Fprintf(out, "%-14sskipped\n", test)
}

// printResult prints the result of a benchmark test in a formatted way
func printResult(out io.Writer, r result) {
	nsPerOp := math.Max(float64(r.bench.NsPerOp()), 1) // prevent division by zero
	opsPerSec := 1.0 / (nsPerOp / 1e9)
	p := r.timer.Percentiles([]float64{0.5, 0.99})

	fmt.Fprintf(out, "%-14s%.0fns/op (%s/op)\t%.0f ops/sec\tp50 %s\tp99 %s\tfairness %.2f\n",
		r.name, nsPerOp, time.Duration(nsPerOp), opsPerSec,
		time.Duration(p[0]), time.Duration(p[1]), r.fairness.Score)
}

// writeResultsToCSV writes benchmark results to a CSV file
func writeResultsToCSV(csvPath string, results []result) error {
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)

	// Write header
	header := []string{
		"Test", "NsPerOp", "DurationPerOp", "OpsPerSec",
		"P50Ns", "P99Ns", "MaxNs",
		"Fairness", "WorkerOpsMin", "WorkerOpsMax",
		"Threads", "Items",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	// Write test results
	for _, r := range results {
		nsPerOp := math.Max(float64(r.bench.NsPerOp()), 1)
		p := r.timer.Percentiles([]float64{0.5, 0.99})

		row := []string{
			r.name,
			fmt.Sprintf("%.0f", nsPerOp),
			time.Duration(nsPerOp).String(),
			fmt.Sprintf("%.0f", 1.0/(nsPerOp/1e9)),
			fmt.Sprintf("%.0f", p[0]),
			fmt.Sprintf("%.0f", p[1]),
			strconv.FormatInt(r.timer.Max(), 10),
			fmt.Sprintf("%.3f", r.fairness.Score),
			fmt.Sprintf("%.0f", r.fairness.Min),
			fmt.Sprintf("%.0f", r.fairness.Max),
			strconv.Itoa(perfNumThreads),
			strconv.Itoa(perfItems),
		}

		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row for test %s: %w", r.name, err)
		}
	}

	writer.Flush()
	return writer.Error()
}
