package pipeline

import (
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/resource"
)

// StateOption is a functional option used to configure a State during construction.
type StateOption func(*State)

// WithTargets binds the color attachments and depth attachment.
//
// Parameters:
//   - depth: the depth attachment handle, or resource.InvalidHandle for none
//   - colors: the color attachment handles in attachment order
//
// Returns:
//   - StateOption: a function that sets the bound targets
func WithTargets(depth resource.Handle, colors ...resource.Handle) StateOption {
	return func(s *State) {
		s.ColorTargets = append([]resource.Handle(nil), colors...)
		s.DepthTarget = depth
	}
}

// WithProgram binds a program.
//
// Parameters:
//   - program: the program handle
//
// Returns:
//   - StateOption: a function that sets the bound program
func WithProgram(program resource.Handle) StateOption {
	return func(s *State) {
		s.Program = program
	}
}

// WithRasterizer sets the rasterizer state.
//
// Parameters:
//   - rs: the rasterizer state
//
// Returns:
//   - StateOption: a function that sets the rasterizer state
func WithRasterizer(rs RasterizerState) StateOption {
	return func(s *State) {
		s.Rasterizer = rs
	}
}

// WithDepthStencil sets the depth state.
//
// Parameters:
//   - ds: the depth state
//
// Returns:
//   - StateOption: a function that sets the depth state
func WithDepthStencil(ds DepthStencilState) StateOption {
	return func(s *State) {
		s.DepthStencil = ds
	}
}

// WithFilter sets the texture filtering mode.
//
// Parameters:
//   - f: the filter mode
//
// Returns:
//   - StateOption: a function that sets the filter mode
func WithFilter(f FilterMode) StateOption {
	return func(s *State) {
		s.Filter = f
	}
}
