package engine

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-viewer/engine/camera"
	"github.com/Carmen-Shannon/oxy-viewer/engine/profiler"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/pipeline"
)

// FrameStats is the per-frame diagnostic data handed to the Overlay.
type FrameStats struct {
	Frame     uint64
	DeltaTime float32
	// Counters are the pipeline state sets and switches of this frame.
	Counters       pipeline.Counters
	SceneLoaded    bool
	CameraMode     camera.RigMode
	Profiling      bool
	ProfiledFrames int
	// Perf is the most recent frame rate and memory interval; PerfUpdated is true on the
	// frame that completed it.
	Perf        profiler.Stats
	PerfUpdated bool
}

// Overlay renders diagnostics after the frame's pipeline state has been restored.
type Overlay interface {
	// Render draws the diagnostics of a frame.
	//
	// Parameters:
	//   - ctx: the frame's render context
	//   - stats: the frame's statistics
	//
	// Returns:
	//   - error: an error if drawing failed
	Render(ctx renderer.RenderContext, stats FrameStats) error
}

// textOverlay formats FrameStats into a single status line and hands it to a sink, for
// example the window title.
type textOverlay struct {
	mu *sync.Mutex

	sink func(text string)
	last string
}

var _ Overlay = &textOverlay{}

// NewTextOverlay creates an Overlay that publishes a status line whenever the frame rate
// interval completes or the profiling state changes.
//
// Parameters:
//   - sink: receives the formatted status line
//
// Returns:
//   - Overlay: the overlay
func NewTextOverlay(sink func(text string)) Overlay {
	return &textOverlay{
		mu:   &sync.Mutex{},
		sink: sink,
	}
}

func (t *textOverlay) Render(_ renderer.RenderContext, stats FrameStats) error {
	text := FormatStats(stats)
	t.mu.Lock()
	changed := text != t.last
	t.last = text
	t.mu.Unlock()
	if changed && t.sink != nil {
		t.sink(text)
	}
	return nil
}

// FormatStats renders FrameStats as a one-line status.
//
// Parameters:
//   - stats: the frame statistics
//
// Returns:
//   - string: the status line
func FormatStats(stats FrameStats) string {
	text := fmt.Sprintf("%.0f fps | %d state sets, %d switches | camera %s",
		stats.Perf.FPS, stats.Counters.StateSets, stats.Counters.StateSwitches, stats.CameraMode)
	if !stats.SceneLoaded {
		text += " | no scene"
	}
	if stats.Profiling {
		text += fmt.Sprintf(" | profiling frame %d", stats.ProfiledFrames)
	}
	return text
}
