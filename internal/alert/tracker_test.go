package alert

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func breached() BreachResult {
	return BreachResult{TemperatureBreached: true, Temperature: 27}
}

func healthy() BreachResult {
	return BreachResult{Temperature: 20}
}

func TestTracker_Observe(t *testing.T) {
	now := time.Now()

	t.Run("Should alert once for a sustained breach", func(t *testing.T) {
		tracker := NewTracker()

		assert.Equal(t, TransitionAlert, tracker.Observe("crop-1", "uid-1", breached(), now))
		assert.Equal(t, TransitionNone, tracker.Observe("crop-1", "uid-1", breached(), now.Add(time.Minute)))
		assert.Equal(t, TransitionNone, tracker.Observe("crop-1", "uid-1", breached(), now.Add(2*time.Minute)))

		state, ok := tracker.Get("crop-1")
		assert.True(t, ok)
		assert.True(t, state.Sent)
	})

	t.Run("Should resolve exactly once when values recover", func(t *testing.T) {
		tracker := NewTracker()

		tracker.Observe("crop-1", "uid-1", breached(), now)
		assert.Equal(t, TransitionResolve, tracker.Observe("crop-1", "uid-1", healthy(), now.Add(time.Minute)))
		assert.Equal(t, TransitionNone, tracker.Observe("crop-1", "uid-1", healthy(), now.Add(2*time.Minute)))

		state, _ := tracker.Get("crop-1")
		assert.False(t, state.Sent)
	})

	t.Run("Should alert again after a resolve", func(t *testing.T) {
		tracker := NewTracker()

		tracker.Observe("crop-1", "uid-1", breached(), now)
		tracker.Observe("crop-1", "uid-1", healthy(), now.Add(time.Minute))
		assert.Equal(t, TransitionAlert, tracker.Observe("crop-1", "uid-1", breached(), now.Add(2*time.Minute)))
	})

	t.Run("Should not resolve when nothing was sent", func(t *testing.T) {
		tracker := NewTracker()

		assert.Equal(t, TransitionNone, tracker.Observe("crop-1", "uid-1", healthy(), now))
	})

	t.Run("Should keep the sent flag untouched on stale readings", func(t *testing.T) {
		tracker := NewTracker()

		tracker.Observe("crop-1", "uid-1", breached(), now)

		stale := healthy()
		stale.Stale = true
		assert.Equal(t, TransitionNone, tracker.Observe("crop-1", "uid-1", stale, now.Add(time.Minute)))

		state, _ := tracker.Get("crop-1")
		assert.True(t, state.Sent, "stale readings must not resolve an outstanding alert")
		assert.True(t, state.Stale)
	})

	t.Run("Should clear staleness on a fresh reading", func(t *testing.T) {
		tracker := NewTracker()

		stale := healthy()
		stale.Stale = true
		tracker.Observe("crop-1", "uid-1", stale, now)
		tracker.Observe("crop-1", "uid-1", healthy(), now.Add(time.Minute))

		state, _ := tracker.Get("crop-1")
		assert.False(t, state.Stale)
	})

	t.Run("Should track crops independently", func(t *testing.T) {
		tracker := NewTracker()

		assert.Equal(t, TransitionAlert, tracker.Observe("crop-1", "uid-1", breached(), now))
		assert.Equal(t, TransitionAlert, tracker.Observe("crop-2", "uid-2", breached(), now))
	})
}

func TestTracker_Seed(t *testing.T) {
	now := time.Now()

	t.Run("Should make a silent crop visible to staleness marking", func(t *testing.T) {
		tracker := NewTracker()

		tracker.Seed("crop-1", "uid-1", now)

		state, ok := tracker.Get("crop-1")
		assert.True(t, ok)
		assert.False(t, state.HasReading)
		assert.Equal(t, "uid-1", state.GrowerUID)

		assert.True(t, tracker.MarkStale("crop-1", now.Add(10*time.Minute)))
	})

	t.Run("Should leave existing state untouched", func(t *testing.T) {
		tracker := NewTracker()

		tracker.Observe("crop-1", "uid-1", breached(), now)
		tracker.Seed("crop-1", "uid-1", now.Add(time.Minute))

		state, _ := tracker.Get("crop-1")
		assert.True(t, state.Sent)
		assert.True(t, state.HasReading)
		assert.True(t, state.UpdatedAt.Equal(now))
	})
}

func TestTracker_MarkStale(t *testing.T) {
	now := time.Now()
	tracker := NewTracker()

	tracker.Observe("crop-1", "uid-1", breached(), now)

	assert.True(t, tracker.MarkStale("crop-1", now.Add(10*time.Minute)))
	assert.False(t, tracker.MarkStale("crop-1", now.Add(11*time.Minute)), "already stale")
	assert.False(t, tracker.MarkStale("crop-unknown", now))

	state, _ := tracker.Get("crop-1")
	assert.True(t, state.Stale)
	assert.True(t, state.Sent, "staleness must not clear the sent flag")
}

func TestTracker_SnapshotAndRemove(t *testing.T) {
	now := time.Now()
	tracker := NewTracker()

	tracker.Observe("crop-1", "uid-1", breached(), now)
	tracker.Observe("crop-2", "uid-1", healthy(), now)

	assert.Len(t, tracker.Snapshot(), 2)

	tracker.Remove("crop-1")
	assert.Len(t, tracker.Snapshot(), 1)

	_, ok := tracker.Get("crop-1")
	assert.False(t, ok)
}
