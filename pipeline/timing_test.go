package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFPSMeter_ExactSmoothing(t *testing.T) {
	// The 0.05/0.95 weights are contractual; verify them literally.
	var m FPSMeter

	got := m.Sample(100 * time.Millisecond) // 10 fps instantaneous
	assert.InDelta(t, 0.0*0.95+10.0*0.05, got, 1e-9)

	got = m.Sample(50 * time.Millisecond) // 20 fps instantaneous
	assert.InDelta(t, 0.5*0.95+20.0*0.05, got, 1e-9)
}

func TestFPSMeter_ConvergesToSteadyRate(t *testing.T) {
	var m FPSMeter
	for i := 0; i < 500; i++ {
		m.Sample(33 * time.Millisecond)
	}
	assert.InDelta(t, float64(time.Second)/float64(33*time.Millisecond), m.Value(), 0.1)
}

func TestFPSMeter_IgnoresNonPositiveIntervals(t *testing.T) {
	var m FPSMeter
	m.Sample(100 * time.Millisecond)
	before := m.Value()
	assert.Equal(t, before, m.Sample(0))
	assert.Equal(t, before, m.Sample(-time.Millisecond))
}
