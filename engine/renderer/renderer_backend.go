package renderer

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/resource"
)

// PresentMode controls how rendered frames are presented to the display surface.
type PresentMode int

const (
	// PresentModeVSync waits for the next vertical blank before presenting, capping frame rate
	// to the monitor's refresh rate. Eliminates tearing.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents frames immediately without waiting for vertical blank.
	// May cause screen tearing but provides the lowest latency.
	PresentModeUncapped
)

// ParsePresentMode converts "vsync" or "uncapped" into a PresentMode.
//
// Parameters:
//   - s: the textual present mode
//
// Returns:
//   - PresentMode: the parsed mode
//   - error: an error if s is not a known present mode
func ParsePresentMode(s string) (PresentMode, error) {
	switch s {
	case "vsync":
		return PresentModeVSync, nil
	case "uncapped", "":
		return PresentModeUncapped, nil
	}
	return PresentModeUncapped, fmt.Errorf("unknown present mode %q", s)
}

// MSAASampleCount controls the number of samples used for multisample anti-aliasing (MSAA).
// Only specific power-of-two values are valid for GPU hardware. WebGPU guarantees support for
// 1 (off) and 4; 2 and 8 are adapter-dependent.
type MSAASampleCount uint32

const (
	// MSAAOff disables multisample anti-aliasing (sample count 1).
	MSAAOff MSAASampleCount = 1

	// MSAA2x enables 2× multisample anti-aliasing. Adapter-dependent.
	MSAA2x MSAASampleCount = 2

	// MSAA4x enables 4× multisample anti-aliasing. This is the default.
	MSAA4x MSAASampleCount = 4

	// MSAA8x enables 8× multisample anti-aliasing. Adapter-dependent; not all hardware supports this.
	MSAA8x MSAASampleCount = 8
)

// Valid reports whether the count is one of 1, 2, 4 or 8.
func (c MSAASampleCount) Valid() bool {
	switch c {
	case MSAAOff, MSAA2x, MSAA4x, MSAA8x:
		return true
	}
	return false
}

// TextureFormat is the subset of GPU texture formats the viewer allocates.
type TextureFormat int

const (
	FormatUndefined TextureFormat = iota
	FormatRGBA16Float
	FormatR32Float
	FormatDepth32Float
	FormatRGBA8Unorm
	FormatRGBA8UnormSrgb
	FormatBGRA8Unorm
	FormatBGRA8UnormSrgb
)

var textureFormatNames = map[TextureFormat]string{
	FormatUndefined:      "Undefined",
	FormatRGBA16Float:    "RGBA16Float",
	FormatR32Float:       "R32Float",
	FormatDepth32Float:   "Depth32Float",
	FormatRGBA8Unorm:     "RGBA8Unorm",
	FormatRGBA8UnormSrgb: "RGBA8UnormSrgb",
	FormatBGRA8Unorm:     "BGRA8Unorm",
	FormatBGRA8UnormSrgb: "BGRA8UnormSrgb",
}

func (f TextureFormat) String() string {
	if name, ok := textureFormatNames[f]; ok {
		return name
	}
	return fmt.Sprintf("TextureFormat(%d)", int(f))
}

// IsDepth reports whether the format is a depth format.
func (f TextureFormat) IsDepth() bool {
	return f == FormatDepth32Float
}

// IsFloat reports whether the format stores unclamped floating point color.
func (f TextureFormat) IsFloat() bool {
	return f == FormatRGBA16Float || f == FormatR32Float
}

// IsDisplay reports whether the format can be presented by a swap chain.
func (f TextureFormat) IsDisplay() bool {
	switch f {
	case FormatRGBA8Unorm, FormatRGBA8UnormSrgb, FormatBGRA8Unorm, FormatBGRA8UnormSrgb:
		return true
	}
	return false
}

// TextureUsage is a bit set of the ways a texture will be used.
type TextureUsage uint32

const (
	UsageRenderTarget TextureUsage = 1 << iota
	UsageSampled
	UsageCopySrc
	UsageCopyDst
)

// TextureDescriptor describes a 2D texture allocation.
type TextureDescriptor struct {
	Label       string
	Width       int
	Height      int
	SampleCount uint32
	Format      TextureFormat
	Usage       TextureUsage
}

// ProgramKind tells the backend how a program is drawn.
type ProgramKind int

const (
	// ProgramKindScene programs are driven by the scene through a RenderPass.
	ProgramKindScene ProgramKind = iota

	// ProgramKindFullscreen programs draw one screen-covering triangle over their inputs.
	ProgramKindFullscreen
)

// ProgramInput describes one texture bound to a fullscreen program, in binding order.
type ProgramInput struct {
	Depth        bool
	Multisampled bool
}

// ProgramDescriptor describes a GPU program. Target formats and sample counts are not part of the
// descriptor: the backend derives them from the bound targets when the program is used.
type ProgramDescriptor struct {
	Label         string
	Source        string
	VertexEntry   string
	FragmentEntry string
	Kind          ProgramKind
	Inputs        []ProgramInput
	UniformSize   uint64
}

// FullscreenPass is a single screen-covering draw of a fullscreen program.
type FullscreenPass struct {
	Program  resource.Handle
	Inputs   []resource.Handle
	Uniforms []byte
	Target   resource.Handle
}

// RenderPass is an open pass over the targets of the pipeline state it was begun with.
type RenderPass interface {
	// SetUniforms uploads the bound program's uniform block.
	//
	// Parameters:
	//   - data: the raw uniform bytes, at most the program's UniformSize
	//
	// Returns:
	//   - error: an error if no program is bound or data is too large
	SetUniforms(data []byte) error

	// Draw issues a non-indexed draw with the bound program.
	//
	// Parameters:
	//   - vertexCount: vertices per instance
	//   - instanceCount: instances to draw
	//
	// Returns:
	//   - error: an error if no program is bound
	Draw(vertexCount, instanceCount uint32) error

	// Native exposes the backend pass object (a *wgpu.RenderPassEncoder for the WebGPU backend)
	// for collaborators that record their own commands.
	Native() any

	// End closes the pass.
	End() error
}

// Backend is the narrow GPU boundary the frame pipeline is built on. Every command is recorded
// in call order into the current frame, which is submitted by EndFrame.
type Backend interface {
	// SurfaceFormat returns the swap chain's color format.
	SurfaceFormat() TextureFormat

	// ConfigureSurface is a wrapper for boilerplate logic required when the swap chain size changes,
	// such as when the window is resized.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels
	//   - height: the new height of the surface in pixels
	//
	// Returns:
	//   - error: an error if the surface could not be configured
	ConfigureSurface(width, height int) error

	// SetPresentMode sets the surface present mode. A ConfigureSurface call is required for the new
	// mode to take effect.
	//
	// Parameters:
	//   - mode: the PresentMode to use
	SetPresentMode(mode PresentMode)

	// CreateTexture allocates a texture and returns the handle that owns it.
	//
	// Parameters:
	//   - desc: the texture to allocate
	//
	// Returns:
	//   - resource.Handle: the owning handle
	//   - error: an error if the allocation failed
	CreateTexture(desc TextureDescriptor) (resource.Handle, error)

	// ReleaseTexture destroys the texture behind h. Releasing an unknown handle is a no-op.
	//
	// Parameters:
	//   - h: the texture handle
	ReleaseTexture(h resource.Handle)

	// CreateProgram compiles a program.
	//
	// Parameters:
	//   - desc: the program to compile
	//
	// Returns:
	//   - resource.Handle: the owning handle
	//   - error: an error if compilation failed
	CreateProgram(desc ProgramDescriptor) (resource.Handle, error)

	// ReleaseProgram destroys the program behind h and every pipeline derived from it.
	//
	// Parameters:
	//   - h: the program handle
	ReleaseProgram(h resource.Handle)

	// BeginFrame acquires the next swap chain texture and opens the frame's command recording.
	// Must be paired with EndFrame.
	//
	// Returns:
	//   - error: an error if the swap chain texture could not be acquired
	BeginFrame() error

	// SwapChainTarget returns the stable handle that refers to the current frame's swap chain
	// texture. It is only usable between BeginFrame and EndFrame.
	SwapChainTarget() resource.Handle

	// ClearColor clears a color target.
	//
	// Parameters:
	//   - target: the color texture
	//   - c: the clear color
	//
	// Returns:
	//   - error: an error if target is unknown
	ClearColor(target resource.Handle, c common.Color) error

	// ClearDepth clears a depth target.
	//
	// Parameters:
	//   - target: the depth texture
	//   - depth: the clear value
	//
	// Returns:
	//   - error: an error if target is unknown
	ClearDepth(target resource.Handle, depth float32) error

	// BeginRenderPass opens a pass over the targets of state with its program, rasterizer and
	// depth configuration bound.
	//
	// Parameters:
	//   - state: the pipeline state to draw with
	//
	// Returns:
	//   - RenderPass: the open pass
	//   - error: an error if a target or the program is unknown
	BeginRenderPass(state pipeline.State) (RenderPass, error)

	// Blit copies src into dst. Multisampled color is resolved, single-sampled color is copied,
	// and depth is converted into a single channel color target.
	//
	// Parameters:
	//   - src: the source texture
	//   - dst: the destination texture, same width and height as src
	//
	// Returns:
	//   - error: an error if the pair cannot be blitted
	Blit(src, dst resource.Handle) error

	// DrawFullscreen records one fullscreen program draw.
	//
	// Parameters:
	//   - pass: the program, inputs, uniforms and target
	//
	// Returns:
	//   - error: an error if the program, an input or the target is unknown
	DrawFullscreen(pass FullscreenPass) error

	// EndFrame finishes the frame's command recording and submits it to the GPU.
	// Does not present the surface; call Present after EndFrame to display the frame.
	//
	// Returns:
	//   - error: an error if the commands could not be submitted
	EndFrame() error

	// Present presents the surface to the display and releases the swap chain texture.
	Present()
}
