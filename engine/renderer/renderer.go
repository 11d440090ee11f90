package renderer

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/pipeline"
)

// renderContext is the implementation of the RenderContext interface.
type renderContext struct {
	mu *sync.Mutex

	backend Backend
	states  pipeline.StateStack

	initialState pipeline.State
}

// RenderContext is the single command context every stage of a frame records into. It pairs the
// Backend with the pipeline state stack so that a stage can save the active state, change it, and
// restore it verbatim.
type RenderContext interface {
	// Backend returns the GPU backend commands are recorded on.
	Backend() Backend

	// State returns a copy of the active pipeline state.
	State() pipeline.State

	// SetState replaces the active pipeline state. Every call counts as a state set; a call that
	// changes the state also counts as a state switch.
	//
	// Parameters:
	//   - s: the new pipeline state
	SetState(s pipeline.State)

	// PushState saves a copy of the active pipeline state.
	PushState()

	// PopState restores the most recently saved pipeline state.
	//
	// Returns:
	//   - error: pipeline.ErrStateStackEmpty if there is nothing to restore
	PopState() error

	// StateDepth returns the number of saved pipeline states.
	StateDepth() int

	// Counters returns the state sets and switches since the last ResetCounters.
	Counters() pipeline.Counters

	// ResetCounters zeroes the per-frame diagnostic counters.
	ResetCounters()

	// BeginRenderPass opens a render pass with the active pipeline state.
	//
	// Returns:
	//   - RenderPass: the open pass
	//   - error: an error from the backend
	BeginRenderPass() (RenderPass, error)
}

var _ RenderContext = &renderContext{}

// NewRenderContext creates a RenderContext over the given backend.
//
// Parameters:
//   - backend: the GPU backend to record into
//   - options: variadic list of RenderContextBuilderOption functions
//
// Returns:
//   - RenderContext: the new context
func NewRenderContext(backend Backend, options ...RenderContextBuilderOption) RenderContext {
	c := &renderContext{
		mu:           &sync.Mutex{},
		backend:      backend,
		initialState: pipeline.NewState(),
	}
	for _, opt := range options {
		opt(c)
	}
	c.states = pipeline.NewStateStack(c.initialState)
	return c
}

func (c *renderContext) Backend() Backend {
	return c.backend
}

func (c *renderContext) State() pipeline.State {
	return c.states.Current()
}

func (c *renderContext) SetState(s pipeline.State) {
	c.states.Set(s)
}

func (c *renderContext) PushState() {
	c.states.Push()
}

func (c *renderContext) PopState() error {
	return c.states.Pop()
}

func (c *renderContext) StateDepth() int {
	return c.states.Depth()
}

func (c *renderContext) Counters() pipeline.Counters {
	return c.states.Counters()
}

func (c *renderContext) ResetCounters() {
	c.states.ResetCounters()
}

func (c *renderContext) BeginRenderPass() (RenderPass, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.backend.BeginRenderPass(c.states.Current())
}
