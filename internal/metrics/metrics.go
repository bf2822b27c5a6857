// Package metrics mirrors graph.Store's instrumented counters onto an
// OpenTelemetry meter (SPEC_FULL.md §2b/§5). Counters are mirrored when
// Recorder.Observe is called with a graph.MetricsSnapshot, not on every
// change of the Store's own atomic counters. Grounded in this codebase's own otel.Meter/Int64Counter
// idiom (storage/dolt's retryCount/lockWaitMs instruments), scaled down
// to the metric SDK only since the core has no network calls to trace.
package metrics

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kestrelgraph/sqlitegraph/graph"
)

const meterName = "github.com/kestrelgraph/sqlitegraph/graph"

// Init wires a MeterProvider with a stdout exporter and installs it as
// the global provider, for the CLI's `status --metrics` flag. The
// returned shutdown func flushes and releases exporter resources; call
// it before process exit.
func Init(ctx context.Context) (shutdown func(context.Context) error, err error) {
	exporter, err := stdoutmetric.New(stdoutmetric.WithoutTimestamps())
	if err != nil {
		return nil, err
	}
	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter)),
	)
	otel.SetMeterProvider(provider)
	return provider.Shutdown, nil
}

// Recorder mirrors a graph.MetricsSnapshot's monotonic counters onto
// OpenTelemetry Int64Counter instruments, recording only the delta
// since the last Observe so instruments stay additive across repeated
// snapshots.
type Recorder struct {
	mu   sync.Mutex
	last graph.MetricsSnapshot

	statementsPrepared metric.Int64Counter
	statementsExecuted metric.Int64Counter
	transactions       metric.Int64Counter
	cacheHits          metric.Int64Counter
	cacheMisses        metric.Int64Counter
	faultFires         metric.Int64Counter
}

// NewRecorder registers this package's instruments against the global
// meter provider (whichever provider Init installed, or the no-op
// default if Init was never called).
func NewRecorder() (*Recorder, error) {
	return newRecorderFromProvider(otel.GetMeterProvider())
}

func newRecorderFromProvider(mp metric.MeterProvider) (*Recorder, error) {
	m := mp.Meter(meterName)
	r := &Recorder{}
	var err error
	if r.statementsPrepared, err = m.Int64Counter("graph.statements_prepared",
		metric.WithDescription("Statements prepared against the store")); err != nil {
		return nil, err
	}
	if r.statementsExecuted, err = m.Int64Counter("graph.statements_executed",
		metric.WithDescription("Statements executed against the store")); err != nil {
		return nil, err
	}
	if r.transactions, err = m.Int64Counter("graph.transactions",
		metric.WithDescription("Transactions committed")); err != nil {
		return nil, err
	}
	if r.cacheHits, err = m.Int64Counter("graph.cache_hits",
		metric.WithDescription("Adjacency cache hits")); err != nil {
		return nil, err
	}
	if r.cacheMisses, err = m.Int64Counter("graph.cache_misses",
		metric.WithDescription("Adjacency cache misses")); err != nil {
		return nil, err
	}
	if r.faultFires, err = m.Int64Counter("graph.fault_fires",
		metric.WithDescription("Registered fault points that fired"),
		metric.WithUnit("{fire}")); err != nil {
		return nil, err
	}
	return r, nil
}

// Observe adds the delta between snap and the previously observed
// snapshot to each counter. Store's counters only ever increase, so a
// negative delta (a new Store reusing the same Recorder) is treated as
// a reset and recorded as-is rather than going negative.
func (r *Recorder) Observe(ctx context.Context, snap graph.MetricsSnapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()

	addDelta(ctx, r.statementsPrepared, r.last.StatementsPrepared, snap.StatementsPrepared)
	addDelta(ctx, r.statementsExecuted, r.last.StatementsExecuted, snap.StatementsExecuted)
	addDelta(ctx, r.transactions, r.last.Transactions, snap.Transactions)
	addDelta(ctx, r.cacheHits, r.last.CacheHits, snap.CacheHits)
	addDelta(ctx, r.cacheMisses, r.last.CacheMisses, snap.CacheMisses)
	r.last = snap
}

// RecordFaultFire increments the fault-fire counter for point,
// attributed by fault point name.
func (r *Recorder) RecordFaultFire(ctx context.Context, point string) {
	r.faultFires.Add(ctx, 1, metric.WithAttributes(attribute.String("point", point)))
}

func addDelta(ctx context.Context, c metric.Int64Counter, prev, cur int64) {
	delta := cur - prev
	if delta < 0 {
		delta = cur
	}
	if delta > 0 {
		c.Add(ctx, delta)
	}
}
