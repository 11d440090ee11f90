package tonemap

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/resource"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/surface"
)

// ErrIncompatibleFormats is returned by NewToneMapper when the source is not a high-range color
// format or the destination is not a display format.
var ErrIncompatibleFormats = errors.New("tonemap: incompatible source and destination formats")

// toneMapper is the implementation of the ToneMapper interface.
type toneMapper struct {
	mu      *sync.Mutex
	backend renderer.Backend
	program resource.Handle

	sourceFormat      renderer.TextureFormat
	destinationFormat renderer.TextureFormat
	sourceRole        surface.Role
	auxRole           surface.Role
}

// ToneMapper is the post-process stage that maps resolved HDR color into a display target.
type ToneMapper interface {
	// Execute records the tone-map pass: reads the source's color attachment and writes display-range
	// color into destination with the given operator. Formats are not re-validated.
	//
	// Parameters:
	//   - ctx: the frame's render context
	//   - source: the resolved surface
	//   - destination: the display target, usually the swap chain
	//   - selection: the operator and parameters for this frame
	//
	// Returns:
	//   - error: an error if the source lacks its color attachment or the backend fails
	Execute(ctx renderer.RenderContext, source surface.Surface, destination resource.Handle, selection Selection) error

	// Program returns the handle of the compiled tone-map program.
	Program() resource.Handle

	// Release destroys the tone-map program.
	Release()
}

var _ ToneMapper = &toneMapper{}

// NewToneMapper validates the source and destination formats and compiles the tone-map program.
//
// Parameters:
//   - backend: the GPU backend that compiles and owns the program
//   - sourceFormat: the format of the resolved color attachment
//   - destinationFormat: the format of the display target
//   - options: variadic list of ToneMapperBuilderOption functions
//
// Returns:
//   - ToneMapper: the tone mapper
//   - error: ErrIncompatibleFormats, or an error from program compilation
func NewToneMapper(backend renderer.Backend, sourceFormat, destinationFormat renderer.TextureFormat, options ...ToneMapperBuilderOption) (ToneMapper, error) {
	if !sourceFormat.IsFloat() || sourceFormat.IsDepth() {
		return nil, fmt.Errorf("source %s: %w", sourceFormat, ErrIncompatibleFormats)
	}
	if !destinationFormat.IsDisplay() {
		return nil, fmt.Errorf("destination %s: %w", destinationFormat, ErrIncompatibleFormats)
	}

	t := &toneMapper{
		mu:                &sync.Mutex{},
		backend:           backend,
		sourceFormat:      sourceFormat,
		destinationFormat: destinationFormat,
		sourceRole:        surface.RoleColor0,
		auxRole:           surface.RoleAux,
	}
	for _, opt := range options {
		opt(t)
	}

	uniform := GPUToneMapUniform{}
	program, err := backend.CreateProgram(renderer.ProgramDescriptor{
		Label:         "tonemap",
		Source:        GPUToneMapSource,
		VertexEntry:   "vs_main",
		FragmentEntry: "fs_main",
		Kind:          renderer.ProgramKindFullscreen,
		Inputs:        []renderer.ProgramInput{{}, {}},
		UniformSize:   uint64(uniform.Size()),
	})
	if err != nil {
		return nil, fmt.Errorf("compile tone-map program: %w", err)
	}
	t.program = program
	return t, nil
}

func (t *toneMapper) Execute(ctx renderer.RenderContext, source surface.Surface, destination resource.Handle, selection Selection) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	color, ok := source.Attachment(t.sourceRole)
	if !ok {
		return fmt.Errorf("tonemap: %s has no %s attachment", source.Label, t.sourceRole)
	}
	inputs := []resource.Handle{color.Handle, color.Handle}
	if aux, ok := source.Attachment(t.auxRole); ok {
		inputs[1] = aux.Handle
	}

	uniform := GPUToneMapUniform{
		Operator:      uint32(selection.Operator),
		ExposureScale: selection.Params.ExposureScale(),
		WhitePoint:    selection.Params.WhitePoint,
	}
	if !isSrgb(t.destinationFormat) {
		uniform.EncodeSrgb = 1
	}

	return ctx.Backend().DrawFullscreen(renderer.FullscreenPass{
		Program:  t.program,
		Inputs:   inputs,
		Uniforms: uniform.Marshal(),
		Target:   destination,
	})
}

func (t *toneMapper) Program() resource.Handle {
	return t.program
}

func (t *toneMapper) Release() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.program.Valid() {
		t.backend.ReleaseProgram(t.program)
		t.program = resource.InvalidHandle
	}
}

func isSrgb(f renderer.TextureFormat) bool {
	return f == renderer.FormatBGRA8UnormSrgb || f == renderer.FormatRGBA8UnormSrgb
}
