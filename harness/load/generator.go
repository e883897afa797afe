package load

import (
	"context"
	"errors"
	"github.com/ValentinKolb/kvprobe/harness/keys"
	"github.com/ValentinKolb/kvprobe/wire/client"
	"github.com/ValentinKolb/kvprobe/wire/proto"
	"github.com/VictoriaMetrics/metrics"
	"github.com/lni/dragonboat/v4/logger"
	"golang.org/x/time/rate"
	"time"
)

var Logger = logger.GetLogger("load")

// progressInterval is the operation count between throughput log lines
const progressInterval = 10000

// Semantic failures recorded per operation. These are server responses,
// not transport faults, so they are counted rather than propagated.
var (
	errSentinel = errors.New("server returned the error sentinel")
	errMismatch = errors.New("value mismatch")
)

// Per-operation metrics, exported in Prometheus format when the load
// command serves its metrics endpoint.
var (
	writeOps     = metrics.GetOrCreateCounter(`kvprobe_ops_total{op="write",result="ok"}`)
	writeErrs    = metrics.GetOrCreateCounter(`kvprobe_ops_total{op="write",result="error"}`)
	readOps      = metrics.GetOrCreateCounter(`kvprobe_ops_total{op="read",result="ok"}`)
	readErrs     = metrics.GetOrCreateCounter(`kvprobe_ops_total{op="read",result="error"}`)
	mismatchOps  = metrics.GetOrCreateCounter(`kvprobe_ops_total{op="read",result="mismatch"}`)
	writeLatency = metrics.GetOrCreateHistogram(`kvprobe_op_duration_seconds{op="write"}`)
	readLatency  = metrics.GetOrCreateHistogram(`kvprobe_op_duration_seconds{op="read"}`)
)

// --------------------------------------------------------------------------
// Generator
// --------------------------------------------------------------------------

// GeneratorConfig configures one sequential load batch
type GeneratorConfig struct {
	// Records is the number of keys in the batch
	Records int

	// Prefix is the key namespace of the batch ("<prefix>:<index>")
	Prefix string

	// ValueFn overrides the value for an index. It must be deterministic
	// across the write and verify phases; the default is keys.Value.
	ValueFn func(index int) string

	// RatePerSec caps the operation rate (0 = unlimited)
	RatePerSec int
}

// Generator drives a single client through a write phase followed by a
// read-verify phase over the configured key range. All failure counts are
// tracked independently in the returned BatchResult; transport failures
// trigger one reconnect attempt and never abort the batch.
type Generator struct {
	client  *client.Client
	cfg     GeneratorConfig
	limiter *rate.Limiter
}

// NewGenerator creates a generator for the given client and batch config
func NewGenerator(c *client.Client, cfg GeneratorConfig) *Generator {
	if cfg.ValueFn == nil {
		cfg.ValueFn = keys.Value
	}

	g := &Generator{client: c, cfg: cfg}
	if cfg.RatePerSec > 0 {
		g.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSec), 1)
	}
	return g
}

// Run executes the write phase and then the read-verify phase, reporting
// throughput every progressInterval operations and on completion.
func (g *Generator) Run() *BatchResult {
	result := &BatchResult{Label: g.cfg.Prefix}
	start := time.Now()

	g.writePhase(result)
	g.verifyPhase(result)

	result.Elapsed = time.Since(start)
	Logger.Infof("%s: batch done, %d ops in %s (%.0f ops/sec, passed=%t)",
		g.cfg.Prefix, result.Ops(), result.Elapsed, result.OpsPerSec(), result.Passed())

	return result
}

// writePhase writes the full key range
func (g *Generator) writePhase(result *BatchResult) {
	phaseStart := time.Now()

	for i := 0; i < g.cfg.Records; i++ {
		g.wait()

		key := keys.Key(g.cfg.Prefix, i)
		opStart := time.Now()
		resp, err := g.client.Write(key, g.cfg.ValueFn(i))
		writeLatency.UpdateDuration(opStart)

		switch {
		case err != nil:
			// Transport failure: drop the socket so the next operation
			// performs a fresh connect.
			result.WriteErrors++
			result.RecordError("write "+key, err)
			writeErrs.Inc()
			g.client.Disconnect()
		case proto.IsError(resp):
			result.WriteErrors++
			result.RecordError("write "+key, errSentinel)
			writeErrs.Inc()
		default:
			result.Writes++
			writeOps.Inc()
		}

		g.progress("write", i+1, phaseStart)
	}
}

// verifyPhase reads every key back and compares it to the expected value.
// A failing read is retried once after a reconnect attempt.
func (g *Generator) verifyPhase(result *BatchResult) {
	phaseStart := time.Now()

	for i := 0; i < g.cfg.Records; i++ {
		g.wait()

		key := keys.Key(g.cfg.Prefix, i)
		want := g.cfg.ValueFn(i)

		opStart := time.Now()
		resp, err := g.client.Read(key)
		if err != nil {
			g.client.Disconnect()
			resp, err = g.client.Read(key)
		}
		readLatency.UpdateDuration(opStart)

		switch {
		case err != nil:
			result.ReadErrors++
			result.RecordError("read "+key, err)
			readErrs.Inc()
		case proto.IsError(resp):
			result.ReadErrors++
			result.RecordError("read "+key, errSentinel)
			readErrs.Inc()
		case resp != want:
			result.Mismatches++
			result.RecordError("read "+key, errMismatch)
			mismatchOps.Inc()
		default:
			result.Reads++
			readOps.Inc()
		}

		g.progress("verify", i+1, phaseStart)
	}
}

// wait blocks until the rate limiter grants the next operation
func (g *Generator) wait() {
	if g.limiter != nil {
		_ = g.limiter.Wait(context.Background())
	}
}

// progress logs throughput every progressInterval operations
func (g *Generator) progress(phase string, done int, phaseStart time.Time) {
	if done%progressInterval != 0 && done != g.cfg.Records {
		return
	}
	elapsed := time.Since(phaseStart).Seconds()
	if elapsed <= 0 {
		return
	}
	Logger.Infof("%s: %s %d/%d (%.0f ops/sec)",
		g.cfg.Prefix, phase, done, g.cfg.Records, float64(done)/elapsed)
}
