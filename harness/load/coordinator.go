package load

import (
	"fmt"
	"github.com/ValentinKolb/kvprobe/harness/keys"
	"github.com/ValentinKolb/kvprobe/wire/client"
	"github.com/ValentinKolb/kvprobe/wire/common"
	"github.com/puzpuzpuz/xsync/v3"
	"sort"
	"strings"
	"sync"
)

// --------------------------------------------------------------------------
// Coordinator
// --------------------------------------------------------------------------

// ConnResult is the immutable per-connection outcome of a concurrent run
type ConnResult struct {
	ConnID int
	BatchResult
}

// CoordinatorConfig configures a concurrent load run
type CoordinatorConfig struct {
	// Client is the connection configuration shared by all workers
	Client common.ClientConfig

	// Connections is the number of independent clients to run in parallel
	Connections int

	// RecordsPerConn is the batch size of every connection
	RecordsPerConn int

	// Prefix is the shared base prefix; each worker derives its disjoint
	// namespace from it via its connection id.
	Prefix string

	// RatePerSec caps each connection's operation rate (0 = unlimited)
	RatePerSec int
}

// Coordinator runs N independent clients concurrently, each over a disjoint
// keyspace. Workers share no mutable state: every worker owns its socket
// and publishes exactly one ConnResult under its own id; aggregation
// happens only after all workers have joined.
type Coordinator struct {
	cfg CoordinatorConfig
}

// NewCoordinator creates a coordinator for the given run configuration
func NewCoordinator(cfg CoordinatorConfig) *Coordinator {
	return &Coordinator{cfg: cfg}
}

// Run starts all connections, waits for every one of them to complete and
// returns the per-connection results ranked by achieved ops/sec descending.
func (c *Coordinator) Run() []ConnResult {
	results := xsync.NewMapOf[int, ConnResult]()
	var wg sync.WaitGroup

	Logger.Infof("starting %d connections with %d records each",
		c.cfg.Connections, c.cfg.RecordsPerConn)

	for id := 0; id < c.cfg.Connections; id++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()

			cl := client.New(c.cfg.Client)
			defer cl.Disconnect()

			gen := NewGenerator(cl, GeneratorConfig{
				Records:    c.cfg.RecordsPerConn,
				Prefix:     keys.ConnPrefix(c.cfg.Prefix, id),
				ValueFn:    func(i int) string { return keys.ConnValue(id, i) },
				RatePerSec: c.cfg.RatePerSec,
			})

			results.Store(id, ConnResult{ConnID: id, BatchResult: *gen.Run()})
		}(id)
	}

	// Join barrier: no partial aggregation before all workers are done
	wg.Wait()

	out := make([]ConnResult, 0, c.cfg.Connections)
	results.Range(func(_ int, r ConnResult) bool {
		out = append(out, r)
		return true
	})

	sort.Slice(out, func(i, j int) bool {
		return out[i].OpsPerSec() > out[j].OpsPerSec()
	})

	return out
}

// Summarize renders the ranking plus aggregate totals and the throughput
// distribution across connections.
func Summarize(results []ConnResult) string {
	var sb strings.Builder

	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	var total BatchResult
	throughputs := make([]float64, 0, len(results))

	addSection("Connection Ranking")
	for rank, r := range results {
		addField(
			fmt.Sprintf("#%d conn %d", rank+1, r.ConnID),
			fmt.Sprintf("%.0f ops/sec (passed=%t)", r.OpsPerSec(), r.Passed()),
		)

		total.Writes += r.Writes
		total.WriteErrors += r.WriteErrors
		total.Reads += r.Reads
		total.ReadErrors += r.ReadErrors
		total.Mismatches += r.Mismatches
		throughputs = append(throughputs, r.OpsPerSec())
	}

	stats := NewThroughputStats(throughputs)

	addSection("Totals")
	addField("Writes", fmt.Sprintf("%d ok / %d failed", total.Writes, total.WriteErrors))
	addField("Reads", fmt.Sprintf("%d ok / %d failed", total.Reads, total.ReadErrors))
	addField("Mismatches", fmt.Sprintf("%d", total.Mismatches))
	addField("Combined Throughput", fmt.Sprintf("%.0f ops/sec", stats.Mean*float64(len(results))))

	addSection("Throughput Distribution")
	addField("Mean", fmt.Sprintf("%.0f ops/sec", stats.Mean))
	addField("Min / Max", fmt.Sprintf("%.0f / %.0f ops/sec", stats.Min, stats.Max))
	addField("Std Deviation", fmt.Sprintf("%.0f", stats.StdDeviation))
	addField("Fairness", fmt.Sprintf("%.2f", stats.FairnessQuality()))

	return sb.String()
}
