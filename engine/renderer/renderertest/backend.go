// Package renderertest provides an in-memory renderer.Backend that records every call, for
// testing frame stages without a GPU.
package renderertest

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/resource"
)

// ErrAllocation is returned by CreateTexture once the configured allocation budget is spent.
var ErrAllocation = errors.New("renderertest: texture allocation failed")

// Op kinds recorded by Backend.
const (
	OpConfigureSurface = "ConfigureSurface"
	OpCreateTexture    = "CreateTexture"
	OpReleaseTexture   = "ReleaseTexture"
	OpCreateProgram    = "CreateProgram"
	OpReleaseProgram   = "ReleaseProgram"
	OpBeginFrame       = "BeginFrame"
	OpClearColor       = "ClearColor"
	OpClearDepth       = "ClearDepth"
	OpBeginRenderPass  = "BeginRenderPass"
	OpSetUniforms      = "SetUniforms"
	OpDraw             = "Draw"
	OpEndRenderPass    = "EndRenderPass"
	OpBlit             = "Blit"
	OpDrawFullscreen   = "DrawFullscreen"
	OpEndFrame         = "EndFrame"
	OpPresent          = "Present"
)

// Op is one recorded backend call.
type Op struct {
	Kind    string
	Label   string
	Handles []resource.Handle
	State   pipeline.State
	Color   common.Color
	Depth   float32
	Data    []byte
}

func (o Op) String() string {
	var sb strings.Builder
	sb.WriteString(o.Kind)
	if o.Label != "" {
		sb.WriteString(" " + o.Label)
	}
	for _, h := range o.Handles {
		sb.WriteString(" " + h.String())
	}
	return sb.String()
}

// Backend is a recording renderer.Backend. The zero value is not usable; use NewBackend.
type Backend struct {
	mu *sync.Mutex

	format   renderer.TextureFormat
	budget   int
	ops      []Op
	textures *resource.Registry[renderer.TextureDescriptor]
	programs *resource.Registry[renderer.ProgramDescriptor]

	swapChain resource.Handle
	inFrame   bool
	width     int
	height    int
}

var _ renderer.Backend = &Backend{}

// NewBackend creates a recording backend with an unlimited allocation budget.
//
// Parameters:
//   - options: variadic list of BackendBuilderOption functions
//
// Returns:
//   - *Backend: the recording backend
func NewBackend(options ...BackendBuilderOption) *Backend {
	b := &Backend{
		mu:       &sync.Mutex{},
		format:   renderer.FormatBGRA8Unorm,
		budget:   -1,
		textures: resource.NewRegistry[renderer.TextureDescriptor](),
		programs: resource.NewRegistry[renderer.ProgramDescriptor](),
	}
	for _, opt := range options {
		opt(b)
	}
	b.swapChain = b.textures.Insert(renderer.TextureDescriptor{
		Label:       "Swap Chain",
		SampleCount: 1,
		Format:      b.format,
		Usage:       renderer.UsageRenderTarget,
	})
	return b
}

// Ops returns a copy of every call recorded since the last Reset.
func (b *Backend) Ops() []Op {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Op(nil), b.ops...)
}

// Kinds returns the kinds of the recorded calls, in order.
func (b *Backend) Kinds() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	kinds := make([]string, len(b.ops))
	for i, op := range b.ops {
		kinds[i] = op.Kind
	}
	return kinds
}

// Count returns how many calls of the given kind were recorded.
func (b *Backend) Count(kind string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, op := range b.ops {
		if op.Kind == kind {
			n++
		}
	}
	return n
}

// Reset forgets the recorded calls. Live textures and programs are kept.
func (b *Backend) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ops = nil
}

// SetAllocationBudget lets the next n CreateTexture calls succeed; later calls fail with
// ErrAllocation. A negative n removes the limit.
func (b *Backend) SetAllocationBudget(n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.budget = n
}

// LiveTextures returns the number of allocated textures, excluding the swap chain.
func (b *Backend) LiveTextures() int {
	return b.textures.Len() - 1
}

// Texture returns the descriptor a live texture was created with.
func (b *Backend) Texture(h resource.Handle) (renderer.TextureDescriptor, bool) {
	return b.textures.Get(h)
}

// Program returns the descriptor a live program was created with.
func (b *Backend) Program(h resource.Handle) (renderer.ProgramDescriptor, bool) {
	return b.programs.Get(h)
}

// SurfaceSize returns the last configured swap chain size.
func (b *Backend) SurfaceSize() (int, int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.width, b.height
}

func (b *Backend) record(op Op) {
	b.ops = append(b.ops, op)
}

func (b *Backend) SurfaceFormat() renderer.TextureFormat {
	return b.format
}

func (b *Backend) ConfigureSurface(width, height int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid surface size %dx%d", width, height)
	}
	b.width, b.height = width, height
	desc, _ := b.textures.Get(b.swapChain)
	desc.Width, desc.Height = width, height
	b.textures.Replace(b.swapChain, desc)
	b.record(Op{Kind: OpConfigureSurface, Label: fmt.Sprintf("%dx%d", width, height)})
	return nil
}

func (b *Backend) SetPresentMode(mode renderer.PresentMode) {}

func (b *Backend) CreateTexture(desc renderer.TextureDescriptor) (resource.Handle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.budget == 0 {
		return resource.InvalidHandle, ErrAllocation
	}
	if b.budget > 0 {
		b.budget--
	}
	h := b.textures.Insert(desc)
	b.record(Op{Kind: OpCreateTexture, Label: desc.Label, Handles: []resource.Handle{h}})
	return h, nil
}

func (b *Backend) ReleaseTexture(h resource.Handle) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if h == b.swapChain {
		return
	}
	if desc, ok := b.textures.Remove(h); ok {
		b.record(Op{Kind: OpReleaseTexture, Label: desc.Label, Handles: []resource.Handle{h}})
	}
}

func (b *Backend) CreateProgram(desc renderer.ProgramDescriptor) (resource.Handle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if desc.Source == "" {
		return resource.InvalidHandle, fmt.Errorf("program %q has no source", desc.Label)
	}
	h := b.programs.Insert(desc)
	b.record(Op{Kind: OpCreateProgram, Label: desc.Label, Handles: []resource.Handle{h}})
	return h, nil
}

func (b *Backend) ReleaseProgram(h resource.Handle) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if desc, ok := b.programs.Remove(h); ok {
		b.record(Op{Kind: OpReleaseProgram, Label: desc.Label, Handles: []resource.Handle{h}})
	}
}

func (b *Backend) BeginFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.inFrame {
		return errors.New("previous frame not ended")
	}
	b.inFrame = true
	b.record(Op{Kind: OpBeginFrame})
	return nil
}

func (b *Backend) SwapChainTarget() resource.Handle {
	return b.swapChain
}

func (b *Backend) ClearColor(target resource.Handle, c common.Color) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	desc, ok := b.textures.Get(target)
	if !ok {
		return fmt.Errorf("unknown texture %s", target)
	}
	if desc.Format.IsDepth() {
		return fmt.Errorf("texture %s is a depth target", target)
	}
	b.record(Op{Kind: OpClearColor, Label: desc.Label, Handles: []resource.Handle{target}, Color: c})
	return nil
}

func (b *Backend) ClearDepth(target resource.Handle, depth float32) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	desc, ok := b.textures.Get(target)
	if !ok {
		return fmt.Errorf("unknown texture %s", target)
	}
	if !desc.Format.IsDepth() {
		return fmt.Errorf("texture %s is not a depth target", target)
	}
	b.record(Op{Kind: OpClearDepth, Label: desc.Label, Handles: []resource.Handle{target}, Depth: depth})
	return nil
}

func (b *Backend) BeginRenderPass(state pipeline.State) (renderer.RenderPass, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	handles := append([]resource.Handle(nil), state.ColorTargets...)
	if state.DepthTarget.Valid() {
		handles = append(handles, state.DepthTarget)
	}
	for _, h := range handles {
		if _, ok := b.textures.Get(h); !ok {
			return nil, fmt.Errorf("unknown texture %s", h)
		}
	}
	if state.Program.Valid() {
		if _, ok := b.programs.Get(state.Program); !ok {
			return nil, fmt.Errorf("unknown program %s", state.Program)
		}
	}
	b.record(Op{Kind: OpBeginRenderPass, Handles: handles, State: state.Clone()})
	return &renderPass{backend: b, program: state.Program}, nil
}

func (b *Backend) Blit(src, dst resource.Handle) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.textures.Get(src)
	if !ok {
		return fmt.Errorf("unknown texture %s", src)
	}
	d, ok := b.textures.Get(dst)
	if !ok {
		return fmt.Errorf("unknown texture %s", dst)
	}
	if s.Width != d.Width || s.Height != d.Height {
		return fmt.Errorf("blit size mismatch: %dx%d into %dx%d", s.Width, s.Height, d.Width, d.Height)
	}
	if d.SampleCount > 1 || d.Format.IsDepth() {
		return fmt.Errorf("blit destination %s must be single-sampled color", dst)
	}
	if !s.Format.IsDepth() && s.Format != d.Format {
		return fmt.Errorf("cannot blit %s into %s", s.Format, d.Format)
	}
	b.record(Op{Kind: OpBlit, Label: s.Label + "->" + d.Label, Handles: []resource.Handle{src, dst}})
	return nil
}

func (b *Backend) DrawFullscreen(pass renderer.FullscreenPass) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	program, ok := b.programs.Get(pass.Program)
	if !ok {
		return fmt.Errorf("unknown program %s", pass.Program)
	}
	if len(pass.Inputs) != len(program.Inputs) {
		return fmt.Errorf("program %q expects %d inputs, got %d", program.Label, len(program.Inputs), len(pass.Inputs))
	}
	handles := append([]resource.Handle{pass.Program}, pass.Inputs...)
	handles = append(handles, pass.Target)
	for _, h := range handles[1:] {
		if _, ok := b.textures.Get(h); !ok {
			return fmt.Errorf("unknown texture %s", h)
		}
	}
	b.record(Op{
		Kind:    OpDrawFullscreen,
		Label:   program.Label,
		Handles: handles,
		Data:    append([]byte(nil), pass.Uniforms...),
	})
	return nil
}

func (b *Backend) EndFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.inFrame {
		return errors.New("no frame in progress")
	}
	b.inFrame = false
	b.record(Op{Kind: OpEndFrame})
	return nil
}

func (b *Backend) Present() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record(Op{Kind: OpPresent})
}

type renderPass struct {
	backend *Backend
	program resource.Handle
	ended   bool
}

func (p *renderPass) SetUniforms(data []byte) error {
	p.backend.mu.Lock()
	defer p.backend.mu.Unlock()
	if !p.program.Valid() {
		return errors.New("no program bound")
	}
	p.backend.record(Op{Kind: OpSetUniforms, Handles: []resource.Handle{p.program}, Data: append([]byte(nil), data...)})
	return nil
}

func (p *renderPass) Draw(vertexCount, instanceCount uint32) error {
	p.backend.mu.Lock()
	defer p.backend.mu.Unlock()
	if !p.program.Valid() {
		return errors.New("no program bound")
	}
	p.backend.record(Op{Kind: OpDraw, Label: fmt.Sprintf("%dx%d", vertexCount, instanceCount), Handles: []resource.Handle{p.program}})
	return nil
}

func (p *renderPass) Native() any {
	return nil
}

func (p *renderPass) End() error {
	p.backend.mu.Lock()
	defer p.backend.mu.Unlock()
	if p.ended {
		return nil
	}
	p.ended = true
	p.backend.record(Op{Kind: OpEndRenderPass})
	return nil
}
