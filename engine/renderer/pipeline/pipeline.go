// Package pipeline describes the bundle of GPU configuration active for a draw call (bound
// targets, rasterizer and depth settings, bound program) and the explicit save stack used to
// restore it verbatim at the end of a frame.
package pipeline

import (
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/resource"
)

// FillMode selects between solid and wireframe rasterization.
type FillMode int

const (
	// FillModeSolid rasterizes filled triangles.
	FillModeSolid FillMode = iota

	// FillModeWireframe rasterizes triangle edges only.
	FillModeWireframe
)

// CullMode selects which triangle faces are discarded.
type CullMode int

const (
	// CullModeNone draws both faces.
	CullModeNone CullMode = iota

	// CullModeBack discards back faces. This is the default.
	CullModeBack

	// CullModeFront discards front faces.
	CullModeFront
)

var cullModeNames = map[CullMode]string{
	CullModeNone:  "none",
	CullModeBack:  "back",
	CullModeFront: "front",
}

func (c CullMode) String() string {
	if name, ok := cullModeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("CullMode(%d)", int(c))
}

// ParseCullMode converts "none", "back" or "front" (case-insensitive) into a CullMode.
//
// Parameters:
//   - s: the textual cull mode
//
// Returns:
//   - CullMode: the parsed mode
//   - error: an error if s is not a known cull mode
func ParseCullMode(s string) (CullMode, error) {
	for mode, name := range cullModeNames {
		if strings.EqualFold(s, name) {
			return mode, nil
		}
	}
	return CullModeBack, fmt.Errorf("unknown cull mode %q", s)
}

// FilterMode selects the sampler used for scene textures.
type FilterMode int

const (
	// FilterModeTrilinear uses linear min/mag/mip filtering. This is the default.
	FilterModeTrilinear FilterMode = iota

	// FilterModePoint uses nearest filtering everywhere.
	FilterModePoint
)

func (f FilterMode) String() string {
	if f == FilterModePoint {
		return "point"
	}
	return "trilinear"
}

// ParseFilterMode converts "trilinear" or "point" (case-insensitive) into a FilterMode.
// The empty string selects FilterModeTrilinear.
//
// Parameters:
//   - s: the textual filter mode
//
// Returns:
//   - FilterMode: the parsed mode
//   - error: an error if s is not a known filter mode
func ParseFilterMode(s string) (FilterMode, error) {
	switch strings.ToLower(s) {
	case "", "trilinear":
		return FilterModeTrilinear, nil
	case "point":
		return FilterModePoint, nil
	}
	return FilterModeTrilinear, fmt.Errorf("unknown filter mode %q", s)
}

// RasterizerState is the rasterizer portion of a pipeline State.
type RasterizerState struct {
	Fill FillMode
	Cull CullMode
}

// DepthStencilState is the depth portion of a pipeline State.
type DepthStencilState struct {
	DepthTest  bool
	DepthWrite bool
}

// Preset rasterizer and depth states used by the viewer.
var (
	// RasterizerWireframe draws edges without culling.
	RasterizerWireframe = RasterizerState{Fill: FillModeWireframe, Cull: CullModeNone}

	// DepthTestEnabled is the depth state for the scene pass.
	DepthTestEnabled = DepthStencilState{DepthTest: true, DepthWrite: true}

	// DepthTestDisabled is the depth state for fullscreen passes.
	DepthTestDisabled = DepthStencilState{}
)

// SolidRasterizer returns the solid rasterizer state for the given cull mode.
//
// Parameters:
//   - cull: the cull mode to apply
//
// Returns:
//   - RasterizerState: a solid-fill rasterizer state
func SolidRasterizer(cull CullMode) RasterizerState {
	return RasterizerState{Fill: FillModeSolid, Cull: cull}
}

// State is the complete pipeline state for a draw. It is a plain value: copying it is how the
// stack saves it.
type State struct {
	// ColorTargets are the bound color attachments, in attachment order.
	ColorTargets []resource.Handle
	// DepthTarget is the bound depth attachment, or resource.InvalidHandle.
	DepthTarget resource.Handle
	// Program is the bound program, or resource.InvalidHandle.
	Program resource.Handle

	Rasterizer   RasterizerState
	DepthStencil DepthStencilState
	Filter       FilterMode
}

// NewState builds a State from the default (solid, back-face culling, no depth test, trilinear
// filtering) and the given options.
//
// Parameters:
//   - options: functional options applied in order
//
// Returns:
//   - State: the configured state
func NewState(options ...StateOption) State {
	s := State{
		Rasterizer: SolidRasterizer(CullModeBack),
		Filter:     FilterModeTrilinear,
	}
	for _, opt := range options {
		opt(&s)
	}
	return s
}

// Clone returns a deep copy of s.
func (s State) Clone() State {
	c := s
	if s.ColorTargets != nil {
		c.ColorTargets = append([]resource.Handle(nil), s.ColorTargets...)
	}
	return c
}

// Equal reports whether s and o describe the same pipeline configuration.
func (s State) Equal(o State) bool {
	if len(s.ColorTargets) != len(o.ColorTargets) {
		return false
	}
	for i := range s.ColorTargets {
		if s.ColorTargets[i] != o.ColorTargets[i] {
			return false
		}
	}
	return s.DepthTarget == o.DepthTarget &&
		s.Program == o.Program &&
		s.Rasterizer == o.Rasterizer &&
		s.DepthStencil == o.DepthStencil &&
		s.Filter == o.Filter
}
