package renderertest

import (
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer"
)

// BackendBuilderOption is a functional option applied to a Backend during construction via NewBackend.
type BackendBuilderOption func(*Backend)

// WithSurfaceFormat sets the swap chain format reported by the backend.
//
// Parameters:
//   - format: the swap chain format
//
// Returns:
//   - BackendBuilderOption: a function that applies the format option to a Backend
func WithSurfaceFormat(format renderer.TextureFormat) BackendBuilderOption {
	return func(b *Backend) {
		b.format = format
	}
}

// WithAllocationBudget limits how many textures can be created before CreateTexture fails.
//
// Parameters:
//   - n: the number of successful allocations; negative for unlimited
//
// Returns:
//   - BackendBuilderOption: a function that applies the budget option to a Backend
func WithAllocationBudget(n int) BackendBuilderOption {
	return func(b *Backend) {
		b.budget = n
	}
}
