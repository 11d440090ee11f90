package renderer

import (
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/pipeline"
)

// RenderContextBuilderOption is a functional option applied to a render context during construction
// via NewRenderContext.
type RenderContextBuilderOption func(*renderContext)

// WithInitialState sets the pipeline state the context starts with.
//
// Parameters:
//   - s: the initial pipeline state
//
// Returns:
//   - RenderContextBuilderOption: a function that applies the initial state option to a render context
func WithInitialState(s pipeline.State) RenderContextBuilderOption {
	return func(c *renderContext) {
		c.initialState = s.Clone()
	}
}

// WGPUBackendBuilderOption is a functional option applied to the WebGPU backend during construction
// via NewWGPUBackend.
type WGPUBackendBuilderOption func(*wgpuRendererBackendImpl)

// WithPresentMode sets the surface present mode which controls how frames are delivered to the display.
//
// Parameters:
//   - mode: the PresentMode to use (VSync or Uncapped)
//
// Returns:
//   - WGPUBackendBuilderOption: a function that applies the present mode option to the backend
func WithPresentMode(mode PresentMode) WGPUBackendBuilderOption {
	return func(b *wgpuRendererBackendImpl) {
		b.presentMode = wgpuPresentMode(mode)
	}
}

// WithForceSoftwareRenderer forces WGPU to use a CPU/software fallback adapter instead of
// hardware GPU acceleration. This requires a software Vulkan ICD to be installed on the system
// (e.g. SwiftShader or lavapipe). Useful for benchmarking CPU vs GPU rendering performance.
//
// Parameters:
//   - force: true to force the software fallback adapter, false to use hardware (default)
//
// Returns:
//   - WGPUBackendBuilderOption: a function that applies the force software renderer option to the backend
func WithForceSoftwareRenderer(force bool) WGPUBackendBuilderOption {
	return func(b *wgpuRendererBackendImpl) {
		b.forceFallbackAdapter = force
	}
}

// WithDeviceLabel sets the label given to the requested GPU device.
//
// Parameters:
//   - label: the device label
//
// Returns:
//   - WGPUBackendBuilderOption: a function that applies the label option to the backend
func WithDeviceLabel(label string) WGPUBackendBuilderOption {
	return func(b *wgpuRendererBackendImpl) {
		b.deviceLabel = label
	}
}
