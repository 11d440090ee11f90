package pipeline

import (
	"errors"
	"sync"
)

// ErrStateStackEmpty is returned by Pop when there is no saved state to restore.
var ErrStateStackEmpty = errors.New("pipeline state stack is empty")

// Counters are per-frame diagnostic counters describing how the pipeline state was driven.
type Counters struct {
	// StateSets counts every Set call.
	StateSets uint32
	// StateSwitches counts Set calls that actually changed the bound state.
	StateSwitches uint32
}

// stateStack is the implementation of the StateStack interface.
type stateStack struct {
	mu *sync.Mutex

	current State
	saved   []State

	counters Counters
	pushes   uint64
	pops     uint64
}

// StateStack holds the current pipeline State and an explicit save stack. Push saves a copy of
// the current state; Pop restores the most recently saved one verbatim, no matter how many Set
// calls happened in between.
type StateStack interface {
	// Current returns a copy of the current state.
	//
	// Returns:
	//   - State: the current state
	Current() State

	// Set replaces the current state. Counted in Counters.StateSets, and in
	// Counters.StateSwitches when it differs from the current state.
	//
	// Parameters:
	//   - s: the new state
	Set(s State)

	// Push saves a copy of the current state.
	Push()

	// Pop restores the most recently pushed state.
	//
	// Returns:
	//   - error: ErrStateStackEmpty if nothing was pushed
	Pop() error

	// Depth returns the number of saved states.
	Depth() int

	// Pushes returns the total number of successful pushes since creation.
	Pushes() uint64

	// Pops returns the total number of successful pops since creation.
	Pops() uint64

	// Counters returns the diagnostic counters accumulated since the last ResetCounters.
	Counters() Counters

	// ResetCounters zeroes the diagnostic counters. Called at the start of every frame.
	ResetCounters()
}

var _ StateStack = &stateStack{}

// NewStateStack creates a StateStack whose current state is initial.
//
// Parameters:
//   - initial: the initial current state
//
// Returns:
//   - StateStack: the new stack
func NewStateStack(initial State) StateStack {
	return &stateStack{
		mu:      &sync.Mutex{},
		current: initial.Clone(),
	}
}

func (s *stateStack) Current() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.Clone()
}

func (s *stateStack) Set(state State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters.StateSets++
	if !s.current.Equal(state) {
		s.counters.StateSwitches++
	}
	s.current = state.Clone()
}

func (s *stateStack) Push() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = append(s.saved, s.current.Clone())
	s.pushes++
}

func (s *stateStack) Pop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.saved)
	if n == 0 {
		return ErrStateStackEmpty
	}
	s.current = s.saved[n-1]
	s.saved = s.saved[:n-1]
	s.pops++
	return nil
}

func (s *stateStack) Depth() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.saved)
}

func (s *stateStack) Pushes() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pushes
}

func (s *stateStack) Pops() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pops
}

func (s *stateStack) Counters() Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counters
}

func (s *stateStack) ResetCounters() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters = Counters{}
}
