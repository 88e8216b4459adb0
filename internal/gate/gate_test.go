package gate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDisabledGateAlwaysInView(t *testing.T) {
	g := New(Config{Enabled: false})

	// In view synchronously, with no subscription created
	assert.True(t, g.InView())
	assert.False(t, g.Observing())

	// Signals are ignored
	g.SetVisible(0)
	assert.True(t, g.InView())
}

func TestGateOpensOnThresholdCrossing(t *testing.T) {
	g := New(Config{Enabled: true, ThresholdFraction: 0.5})

	assert.False(t, g.InView())

	g.SetVisible(0.3)
	assert.False(t, g.InView())

	g.SetVisible(0.6)
	assert.True(t, g.InView())
}

func TestGateBidirectionalTracking(t *testing.T) {
	g := New(Config{Enabled: true, ThresholdFraction: 0.1})

	g.SetVisible(0.5)
	assert.True(t, g.InView())

	// Without TriggerOnce, scrolling away closes the gate again
	g.SetVisible(0)
	assert.False(t, g.InView())

	g.SetVisible(0.2)
	assert.True(t, g.InView())
}

func TestGateTriggerOnceLatches(t *testing.T) {
	g := New(Config{Enabled: true, ThresholdFraction: 0.1, TriggerOnce: true})

	g.SetVisible(0.5)
	assert.True(t, g.InView())
	assert.False(t, g.Observing())

	// Scrolling away no longer closes the gate
	g.SetVisible(0)
	assert.True(t, g.InView())
}

func TestGateOnChange(t *testing.T) {
	g := New(Config{Enabled: true, ThresholdFraction: 0.5})

	var events []bool
	g.OnChange(func(inView bool) {
		events = append(events, inView)
	})

	g.SetVisible(0.6) // opens
	g.SetVisible(0.7) // no change, no event
	g.SetVisible(0.1) // closes

	assert.Equal(t, []bool{true, false}, events)
}

func TestGateCloseDetaches(t *testing.T) {
	g := New(Config{Enabled: true, ThresholdFraction: 0.1})

	fired := false
	g.OnChange(func(bool) { fired = true })

	g.Close()
	assert.False(t, g.Observing())

	g.SetVisible(1.0)
	assert.False(t, fired, "no callback after Close")
	assert.False(t, g.InView())
}

func TestGateZeroThresholdOpensOnAnySignal(t *testing.T) {
	g := New(Config{Enabled: true})

	g.SetVisible(0)
	assert.True(t, g.InView())
}
