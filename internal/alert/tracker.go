package alert

import (
	"sync"
	"time"
)

// Transition is the action the caller must take after an observation
type Transition int

const (
	// TransitionNone means nothing changed that requires notification
	TransitionNone Transition = iota
	// TransitionAlert means a new breach started and a notification is due
	TransitionAlert
	// TransitionResolve means an outstanding breach cleared
	TransitionResolve
)

// State is the tracked alert state for one crop
type State struct {
	CropID     string
	GrowerUID  string
	Sent       bool
	Stale      bool
	HasReading bool
	Result     BreachResult
	UpdatedAt  time.Time
}

// Tracker holds per-crop alert state and decides notification
// transitions. At most one notification stays outstanding per crop:
// repeated breaches while Sent is set produce no transition, and
// a recovery produces exactly one resolve.
type Tracker struct {
	mu     sync.Mutex
	states map[string]*State
}

// NewTracker creates an empty tracker
func NewTracker() *Tracker {
	return &Tracker{
		states: make(map[string]*State),
	}
}

// Seed registers empty state for a crop the moment it appears, so the
// staleness sweep covers crops whose sensors never report. Existing
// state is left untouched.
func (t *Tracker) Seed(cropID, growerUID string, at time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.states[cropID]; ok {
		return
	}
	t.states[cropID] = &State{
		CropID:    cropID,
		GrowerUID: growerUID,
		UpdatedAt: at,
	}
}

// Observe records an evaluation result for a crop and returns the
// transition the caller must act on. Stale results only update the
// staleness marker and never touch the sent flag.
func (t *Tracker) Observe(cropID, growerUID string, result BreachResult, at time.Time) Transition {
	t.mu.Lock()
	defer t.mu.Unlock()

	state, ok := t.states[cropID]
	if !ok {
		state = &State{CropID: cropID, GrowerUID: growerUID}
		t.states[cropID] = state
	}

	state.GrowerUID = growerUID
	state.Result = result
	state.HasReading = true
	state.UpdatedAt = at

	if result.Stale {
		state.Stale = true
		return TransitionNone
	}
	state.Stale = false

	if result.Breached() {
		if state.Sent {
			return TransitionNone
		}
		state.Sent = true
		return TransitionAlert
	}

	if state.Sent {
		state.Sent = false
		return TransitionResolve
	}
	return TransitionNone
}

// MarkStale flags a crop whose latest reading aged out of the recency
// window without a newer one arriving. The sent flag is left alone.
func (t *Tracker) MarkStale(cropID string, at time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	state, ok := t.states[cropID]
	if !ok || state.Stale {
		return false
	}
	state.Stale = true
	state.UpdatedAt = at
	return true
}

// Get returns a copy of the state for one crop
func (t *Tracker) Get(cropID string) (State, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	state, ok := t.states[cropID]
	if !ok {
		return State{}, false
	}
	return *state, true
}

// Snapshot returns a copy of all tracked states
func (t *Tracker) Snapshot() []State {
	t.mu.Lock()
	defer t.mu.Unlock()

	states := make([]State, 0, len(t.states))
	for _, state := range t.states {
		states = append(states, *state)
	}
	return states
}

// Remove drops the tracked state for a crop, typically after the crop
// itself is deleted
func (t *Tracker) Remove(cropID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.states, cropID)
}
