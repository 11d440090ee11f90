package surface

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer"
)

var (
	// ErrInvalidDimensions is returned when a width or height is not positive.
	ErrInvalidDimensions = errors.New("surface: width and height must be positive")

	// ErrUnsupportedSampleCount is returned when the sample count is not 1, 2, 4 or 8.
	ErrUnsupportedSampleCount = errors.New("surface: sample count must be 1, 2, 4 or 8")

	// ErrNotConfigured is returned by Clear before a successful Configure.
	ErrNotConfigured = errors.New("surface: set is not configured")
)

// DefaultClearColor is the color the multisampled color attachments are cleared to.
var DefaultClearColor = common.Color{R: 0.38, G: 0.52, B: 0.10, A: 1}

// surfaceSet is the implementation of the SurfaceSet interface.
type surfaceSet struct {
	mu      *sync.Mutex
	backend renderer.Backend

	clearColor    common.Color
	displayFormat renderer.TextureFormat

	multisample Surface
	resolved    Surface
	postProcess Surface

	width       int
	height      int
	sampleCount renderer.MSAASampleCount
	configured  bool
	rebuilds    uint64
}

// SurfaceSet owns the sized render targets of a frame and rebuilds them whenever the output size
// or sample count changes.
type SurfaceSet interface {
	// Configure sizes every surface to width x height. The multisampled surface uses sampleCount
	// samples, the other two use one. All previous targets are released before the new ones are
	// allocated. Calling Configure with the current parameters does nothing.
	//
	// If any allocation fails the error is returned and the set is left empty.
	//
	// Parameters:
	//   - width: the output width in pixels
	//   - height: the output height in pixels
	//   - sampleCount: the multisample count, one of 1, 2, 4 or 8
	//
	// Returns:
	//   - error: ErrInvalidDimensions, ErrUnsupportedSampleCount, or a wrapped allocation error
	Configure(width, height int, sampleCount renderer.MSAASampleCount) error

	// Clear records the per-frame clears: multisampled color to the clear color, multisampled depth
	// to 1.0 and the post-process color to the clear color.
	//
	// Parameters:
	//   - ctx: the frame's render context
	//
	// Returns:
	//   - error: ErrNotConfigured, or an error from the backend
	Clear(ctx renderer.RenderContext) error

	// Release destroys every target and leaves the set empty.
	Release()

	// Multisample returns the multisampled scene surface.
	Multisample() Surface

	// Resolved returns the single-sample resolve surface.
	Resolved() Surface

	// PostProcess returns the display-format post-process surface.
	PostProcess() Surface

	// Configured reports whether the set holds allocated targets.
	Configured() bool

	// Size returns the configured width and height.
	Size() (int, int)

	// SampleCount returns the configured multisample count.
	SampleCount() renderer.MSAASampleCount

	// Rebuilds returns how many times Configure has reallocated the targets.
	Rebuilds() uint64

	// ClearColor returns the color targets are cleared to.
	ClearColor() common.Color
}

var _ SurfaceSet = &surfaceSet{}

// NewSurfaceSet creates an empty SurfaceSet that allocates on the given backend. The
// post-process surface uses the backend's swap chain format unless overridden.
//
// Parameters:
//   - backend: the GPU backend that allocates and owns the textures
//   - options: variadic list of SurfaceSetBuilderOption functions
//
// Returns:
//   - SurfaceSet: the empty set
func NewSurfaceSet(backend renderer.Backend, options ...SurfaceSetBuilderOption) SurfaceSet {
	s := &surfaceSet{
		mu:            &sync.Mutex{},
		backend:       backend,
		clearColor:    DefaultClearColor,
		displayFormat: backend.SurfaceFormat(),
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

func (s *surfaceSet) Configure(width, height int, sampleCount renderer.MSAASampleCount) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("configure %dx%d: %w", width, height, ErrInvalidDimensions)
	}
	if !sampleCount.Valid() {
		return fmt.Errorf("configure with %d samples: %w", sampleCount, ErrUnsupportedSampleCount)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.configured && s.width == width && s.height == height && s.sampleCount == sampleCount {
		return nil
	}

	s.releaseLocked()

	multisample, err := s.allocateLocked("multisample", width, height, uint32(sampleCount), MultisampleLayout,
		renderer.UsageRenderTarget|renderer.UsageSampled)
	if err != nil {
		return err
	}
	s.multisample = multisample

	resolved, err := s.allocateLocked("resolved", width, height, 1, ResolvedLayout,
		renderer.UsageRenderTarget|renderer.UsageSampled|renderer.UsageCopyDst)
	if err != nil {
		s.releaseLocked()
		return err
	}
	s.resolved = resolved

	postProcess, err := s.allocateLocked("postProcess", width, height, 1,
		[]Slot{{Role: RoleDisplay, Format: s.displayFormat}},
		renderer.UsageRenderTarget|renderer.UsageSampled|renderer.UsageCopySrc)
	if err != nil {
		s.releaseLocked()
		return err
	}
	s.postProcess = postProcess

	s.width, s.height, s.sampleCount = width, height, sampleCount
	s.configured = true
	s.rebuilds++

	common.Logger().Info("surface set configured",
		"width", width, "height", height, "samples", uint32(sampleCount), "rebuilds", s.rebuilds)
	return nil
}

// allocateLocked allocates one surface. On failure every texture it allocated is released.
func (s *surfaceSet) allocateLocked(label string, width, height int, samples uint32, layout []Slot, usage renderer.TextureUsage) (Surface, error) {
	surface := Surface{
		Label:       label,
		Width:       width,
		Height:      height,
		SampleCount: samples,
		Attachments: make([]Attachment, 0, len(layout)),
	}
	for _, slot := range layout {
		h, err := s.backend.CreateTexture(renderer.TextureDescriptor{
			Label:       label + "." + slot.Role.String(),
			Width:       width,
			Height:      height,
			SampleCount: samples,
			Format:      slot.Format,
			Usage:       usage,
		})
		if err != nil {
			for _, a := range surface.Attachments {
				s.backend.ReleaseTexture(a.Handle)
			}
			return Surface{}, fmt.Errorf("allocate %s.%s: %w", label, slot.Role, err)
		}
		surface.Attachments = append(surface.Attachments, Attachment{Role: slot.Role, Format: slot.Format, Handle: h})
	}
	return surface, nil
}

func (s *surfaceSet) Clear(ctx renderer.RenderContext) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.configured {
		return ErrNotConfigured
	}
	backend := ctx.Backend()
	for _, a := range s.multisample.Attachments {
		if a.Format.IsDepth() {
			if err := backend.ClearDepth(a.Handle, 1.0); err != nil {
				return err
			}
			continue
		}
		if err := backend.ClearColor(a.Handle, s.clearColor); err != nil {
			return err
		}
	}
	for _, a := range s.postProcess.Attachments {
		if err := backend.ClearColor(a.Handle, s.clearColor); err != nil {
			return err
		}
	}
	return nil
}

func (s *surfaceSet) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.releaseLocked()
}

func (s *surfaceSet) releaseLocked() {
	for _, surface := range []Surface{s.multisample, s.resolved, s.postProcess} {
		for _, a := range surface.Attachments {
			s.backend.ReleaseTexture(a.Handle)
		}
	}
	s.multisample = Surface{}
	s.resolved = Surface{}
	s.postProcess = Surface{}
	s.width, s.height, s.sampleCount = 0, 0, 0
	s.configured = false
}

func (s *surfaceSet) Multisample() Surface {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.multisample
}

func (s *surfaceSet) Resolved() Surface {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolved
}

func (s *surfaceSet) PostProcess() Surface {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.postProcess
}

func (s *surfaceSet) Configured() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.configured
}

func (s *surfaceSet) Size() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.width, s.height
}

func (s *surfaceSet) SampleCount() renderer.MSAASampleCount {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sampleCount
}

func (s *surfaceSet) Rebuilds() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rebuilds
}

func (s *surfaceSet) ClearColor() common.Color {
	return s.clearColor
}
