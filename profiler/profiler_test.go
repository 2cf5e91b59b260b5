package profiler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestProfilerReports(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	p := New(Options{
		Interval: 10 * time.Millisecond,
		Logger:   zap.New(core),
	})
	p.AddStats(func() map[string]float64 {
		return map[string]float64{"fps": 12.5}
	})

	p.Start()
	time.Sleep(50 * time.Millisecond)
	p.Stop()

	entries := logs.FilterMessage("runtime stats").All()
	assert.NotEmpty(t, entries)
	found := false
	for _, f := range entries[0].Context {
		if f.Key == "fps" {
			found = true
		}
	}
	assert.True(t, found, "stats source metrics should appear in the report")
}

func TestStartStopIdempotent(t *testing.T) {
	p := New(Options{Interval: time.Hour})
	p.Start()
	p.Start()
	p.Stop()
	p.Stop()
}
