// Package profiler - Periodic runtime statistics for long-running
// inference processes.
package profiler

import (
	"context"
	"runtime"
	"sync"
	"time"

	"go.uber.org/zap"
)

// StatsFunc supplies application metrics for each report. Implementations
// must be safe to call from the reporting goroutine.
type StatsFunc func() map[string]float64

// Options configures a Profiler.
type Options struct {
	// Interval between reports; defaults to 2s.
	Interval time.Duration
	// Logger receives the reports; nil disables output.
	Logger *zap.Logger
}

// Profiler logs goroutine, heap and GC statistics on an interval,
// together with metrics from registered StatsFuncs. Inference loops block
// the main goroutine for long stretches, so the readout is the cheapest
// way to spot native-memory leaks from session tensors.
type Profiler struct {
	interval time.Duration
	log      *zap.SugaredLogger

	mu      sync.Mutex
	sources []StatsFunc
	cancel  context.CancelFunc
	done    chan struct{}
	lastGC  uint32
}

// New creates a stopped Profiler.
func New(opts Options) *Profiler {
	if opts.Interval <= 0 {
		opts.Interval = 2 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Profiler{
		interval: opts.Interval,
		log:      logger.Sugar(),
	}
}

// AddStats registers a metrics source included in every report.
func (p *Profiler) AddStats(fn StatsFunc) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sources = append(p.sources, fn)
}

// Start launches the reporting goroutine. Calling Start on a running
// profiler is a no-op.
func (p *Profiler) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.done = make(chan struct{})
	go p.loop(ctx)
}

// Stop halts reporting and waits for the goroutine to exit.
func (p *Profiler) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel = nil
	p.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (p *Profiler) loop(ctx context.Context) {
	defer close(p.done)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.report()
		}
	}
}

func (p *Profiler) report() {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	fields := []interface{}{
		"goroutines", runtime.NumGoroutine(),
		"cgo_calls", runtime.NumCgoCall(),
		"heap_alloc_mb", float64(mem.HeapAlloc) / (1 << 20),
		"heap_objects", mem.HeapObjects,
	}
	if mem.NumGC > p.lastGC {
		fields = append(fields, "gc_cycles", mem.NumGC, "gc_cpu_fraction", mem.GCCPUFraction)
		p.lastGC = mem.NumGC
	}

	p.mu.Lock()
	sources := p.sources
	p.mu.Unlock()
	for _, fn := range sources {
		for name, value := range fn() {
			fields = append(fields, name, value)
		}
	}

	p.log.Infow("runtime stats", fields...)
}
