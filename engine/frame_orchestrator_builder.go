package engine

import (
	"github.com/Carmen-Shannon/oxy-viewer/engine/camera"
	"github.com/Carmen-Shannon/oxy-viewer/engine/profiler"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/resolver"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/surface"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/tonemap"
	"github.com/Carmen-Shannon/oxy-viewer/engine/scene"
)

// FrameOrchestratorBuilderOption is a functional option for configuring a FrameOrchestrator.
// Use the With* functions to create options.
type FrameOrchestratorBuilderOption func(*frameOrchestrator)

// WithProgramBackend selects the program backend of the default scene loader and the name of
// the profiling artifact.
//
// Parameters:
//   - backend: the program backend resolved at startup
//
// Returns:
//   - FrameOrchestratorBuilderOption: option function to apply
func WithProgramBackend(backend shader.ProgramBackend) FrameOrchestratorBuilderOption {
	return func(o *frameOrchestrator) {
		o.programBackend = backend
	}
}

// WithRenderContext replaces the render context frames are recorded into.
//
// Parameters:
//   - ctx: the render context, which must wrap the orchestrator's backend
//
// Returns:
//   - FrameOrchestratorBuilderOption: option function to apply
func WithRenderContext(ctx renderer.RenderContext) FrameOrchestratorBuilderOption {
	return func(o *frameOrchestrator) {
		o.ctx = ctx
	}
}

// WithSurfaceSet replaces the surface set.
//
// Parameters:
//   - set: the surface set
//
// Returns:
//   - FrameOrchestratorBuilderOption: option function to apply
func WithSurfaceSet(set surface.SurfaceSet) FrameOrchestratorBuilderOption {
	return func(o *frameOrchestrator) {
		o.surfaces = set
	}
}

// WithResolver replaces the resolver.
//
// Parameters:
//   - r: the resolver
//
// Returns:
//   - FrameOrchestratorBuilderOption: option function to apply
func WithResolver(r resolver.Resolver) FrameOrchestratorBuilderOption {
	return func(o *frameOrchestrator) {
		o.resolver = r
	}
}

// WithToneMapper replaces the tone mapper.
//
// Parameters:
//   - t: the tone mapper
//
// Returns:
//   - FrameOrchestratorBuilderOption: option function to apply
func WithToneMapper(t tonemap.ToneMapper) FrameOrchestratorBuilderOption {
	return func(o *frameOrchestrator) {
		o.toneMapper = t
	}
}

// WithToneMap sets the initial tone-map selection.
//
// Parameters:
//   - selection: the operator and its parameters
//
// Returns:
//   - FrameOrchestratorBuilderOption: option function to apply
func WithToneMap(selection tonemap.Selection) FrameOrchestratorBuilderOption {
	return func(o *frameOrchestrator) {
		o.toneMap = selection
	}
}

// WithCameraRig replaces the camera rig.
//
// Parameters:
//   - rig: the camera rig
//
// Returns:
//   - FrameOrchestratorBuilderOption: option function to apply
func WithCameraRig(rig camera.CameraRig) FrameOrchestratorBuilderOption {
	return func(o *frameOrchestrator) {
		o.rig = rig
	}
}

// WithSession replaces the profiling session.
//
// Parameters:
//   - s: the profiling session
//
// Returns:
//   - FrameOrchestratorBuilderOption: option function to apply
func WithSession(s profiler.Session) FrameOrchestratorBuilderOption {
	return func(o *frameOrchestrator) {
		o.session = s
	}
}

// WithStatsProfiler replaces the frame rate and memory profiler.
//
// Parameters:
//   - p: the profiler
//
// Returns:
//   - FrameOrchestratorBuilderOption: option function to apply
func WithStatsProfiler(p *profiler.Profiler) FrameOrchestratorBuilderOption {
	return func(o *frameOrchestrator) {
		o.stats = p
	}
}

// WithSceneLoader replaces the scene loader used by LoadScene.
//
// Parameters:
//   - l: the scene loader
//
// Returns:
//   - FrameOrchestratorBuilderOption: option function to apply
func WithSceneLoader(l scene.Loader) FrameOrchestratorBuilderOption {
	return func(o *frameOrchestrator) {
		o.loader = l
	}
}

// WithOverlay sets the diagnostic overlay rendered after every frame.
//
// Parameters:
//   - overlay: the overlay
//
// Returns:
//   - FrameOrchestratorBuilderOption: option function to apply
func WithOverlay(overlay Overlay) FrameOrchestratorBuilderOption {
	return func(o *frameOrchestrator) {
		o.overlay = overlay
	}
}

// WithSampleCount sets the initial multisample count. Invalid counts are ignored.
//
// Parameters:
//   - count: the sample count, one of 1, 2, 4 or 8
//
// Returns:
//   - FrameOrchestratorBuilderOption: option function to apply
func WithSampleCount(count renderer.MSAASampleCount) FrameOrchestratorBuilderOption {
	return func(o *frameOrchestrator) {
		if count.Valid() {
			o.sampleCount = count
		}
	}
}

// WithPresentMode records the present mode the backend was created with, so that settings
// only reconfigure the swap chain when the mode actually changes.
//
// Parameters:
//   - mode: the backend's present mode
//
// Returns:
//   - FrameOrchestratorBuilderOption: option function to apply
func WithPresentMode(mode renderer.PresentMode) FrameOrchestratorBuilderOption {
	return func(o *frameOrchestrator) {
		o.presentMode = mode
	}
}

// WithPinnedScene loads path in place of the scene named by applied settings, so reloading a
// settings file never switches away from it.
//
// Parameters:
//   - path: the scene file, or scene.BuiltinGrid
//
// Returns:
//   - FrameOrchestratorBuilderOption: option function to apply
func WithPinnedScene(path string) FrameOrchestratorBuilderOption {
	return func(o *frameOrchestrator) {
		o.pinnedScene = path
	}
}
