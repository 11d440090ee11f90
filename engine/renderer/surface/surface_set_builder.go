package surface

import (
	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer"
)

// SurfaceSetBuilderOption is a functional option applied to a surface set during construction via NewSurfaceSet.
type SurfaceSetBuilderOption func(*surfaceSet)

// WithClearColor overrides the per-frame clear color.
//
// Parameters:
//   - c: the clear color
//
// Returns:
//   - SurfaceSetBuilderOption: a function that applies the clear color option to a surface set
func WithClearColor(c common.Color) SurfaceSetBuilderOption {
	return func(s *surfaceSet) {
		s.clearColor = c
	}
}

// WithDisplayFormat overrides the post-process surface format, which otherwise follows the swap chain.
//
// Parameters:
//   - format: the display color format
//
// Returns:
//   - SurfaceSetBuilderOption: a function that applies the display format option to a surface set
func WithDisplayFormat(format renderer.TextureFormat) SurfaceSetBuilderOption {
	return func(s *surfaceSet) {
		s.displayFormat = format
	}
}
