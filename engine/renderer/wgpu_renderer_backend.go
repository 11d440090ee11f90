package renderer

import (
	_ "embed"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/resource"
	"github.com/cogentcore/webgpu/wgpu"
)

var (
	//go:embed assets/depth_resolve_ms.wgsl
	depthResolveMultisampledSource string

	//go:embed assets/depth_resolve.wgsl
	depthResolveSource string

	//go:embed assets/copy.wgsl
	copySource string
)

// errNoFrame is returned by recording calls made outside BeginFrame/EndFrame.
var errNoFrame = errors.New("no frame in progress")

type wgpuTexture struct {
	texture *wgpu.Texture
	view    *wgpu.TextureView
	desc    TextureDescriptor
}

type wgpuPipelineKey struct {
	rasterizer   pipeline.RasterizerState
	depthStencil pipeline.DepthStencilState
	colorFormats string
	depthFormat  TextureFormat
	sampleCount  uint32
}

type wgpuProgram struct {
	desc           ProgramDescriptor
	module         *wgpu.ShaderModule
	layout         *wgpu.BindGroupLayout
	pipelineLayout *wgpu.PipelineLayout
	uniforms       *wgpu.Buffer
	pipelines      map[wgpuPipelineKey]*wgpu.RenderPipeline
}

func (p *wgpuProgram) release() {
	for _, rp := range p.pipelines {
		rp.Release()
	}
	if p.uniforms != nil {
		p.uniforms.Release()
	}
	p.pipelineLayout.Release()
	p.layout.Release()
	p.module.Release()
}

type wgpuRendererBackendImpl struct {
	mu     *sync.Mutex
	device *wgpu.Device
	queue  *wgpu.Queue

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	surface  *wgpu.Surface

	surfaceFormat       TextureFormat
	nativeSurfaceFormat wgpu.TextureFormat
	presentMode         wgpu.PresentMode // defaults to PresentModeImmediate (Uncapped)

	forceFallbackAdapter bool
	deviceLabel          string

	textures *resource.Registry[*wgpuTexture]
	programs *resource.Registry[*wgpuProgram]

	swapChain resource.Handle
	builtins  map[string]resource.Handle

	trilinearSampler *wgpu.Sampler
	pointSampler     *wgpu.Sampler

	// Frame state; every command of a frame is recorded on frameEncoder.
	frameEncoder *wgpu.CommandEncoder
	frameSurface *wgpu.Texture
	frameGarbage []*wgpu.BindGroup
}

var _ Backend = &wgpuRendererBackendImpl{}

// NewWGPUBackend creates the WebGPU backend for the given platform surface. The calling goroutine
// is locked to its OS thread.
//
// Parameters:
//   - surfaceDescriptor: the platform-specific surface descriptor, typically from Window.SurfaceDescriptor()
//   - options: variadic list of WGPUBackendBuilderOption functions
//
// Returns:
//   - Backend: the WebGPU backend
//   - error: an error if no adapter or device could be acquired
func NewWGPUBackend(surfaceDescriptor *wgpu.SurfaceDescriptor, options ...WGPUBackendBuilderOption) (Backend, error) {
	runtime.LockOSThread()
	b := &wgpuRendererBackendImpl{
		mu:          &sync.Mutex{},
		presentMode: wgpu.PresentModeImmediate,
		deviceLabel: "Main Device",
		textures:    resource.NewRegistry[*wgpuTexture](),
		programs:    resource.NewRegistry[*wgpuProgram](),
		builtins:    make(map[string]resource.Handle),
	}
	for _, opt := range options {
		opt(b)
	}

	b.instance = wgpu.CreateInstance(nil)
	b.surface = b.instance.CreateSurface(surfaceDescriptor)

	a, err := b.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: b.forceFallbackAdapter,
		CompatibleSurface:    b.surface,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to request adapter: %w", err)
	}
	b.adapter = a

	limits := wgpu.DefaultLimits()
	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: b.deviceLabel,
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: limits,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to request device: %w", err)
	}
	b.device = d
	b.queue = d.GetQueue()

	capabilities := b.surface.GetCapabilities(b.adapter)
	for _, f := range capabilities.Formats {
		if format := textureFormatFromWGPU(f); format != FormatUndefined {
			b.surfaceFormat = format
			b.nativeSurfaceFormat = f
			break
		}
	}
	if b.surfaceFormat == FormatUndefined {
		return nil, errors.New("surface exposes no supported color format")
	}

	if b.trilinearSampler, err = b.device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         "Trilinear Sampler",
		AddressModeU:  wgpu.AddressModeRepeat,
		AddressModeV:  wgpu.AddressModeRepeat,
		AddressModeW:  wgpu.AddressModeRepeat,
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeLinear,
		MipmapFilter:  wgpu.MipmapFilterModeLinear,
		LodMinClamp:   0,
		LodMaxClamp:   32,
		MaxAnisotropy: 1,
	}); err != nil {
		return nil, err
	}
	if b.pointSampler, err = b.device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         "Point Sampler",
		AddressModeU:  wgpu.AddressModeRepeat,
		AddressModeV:  wgpu.AddressModeRepeat,
		AddressModeW:  wgpu.AddressModeRepeat,
		MagFilter:     wgpu.FilterModeNearest,
		MinFilter:     wgpu.FilterModeNearest,
		MipmapFilter:  wgpu.MipmapFilterModeNearest,
		LodMinClamp:   0,
		LodMaxClamp:   32,
		MaxAnisotropy: 1,
	}); err != nil {
		return nil, err
	}

	b.swapChain = b.textures.Insert(&wgpuTexture{desc: TextureDescriptor{
		Label:       "Swap Chain",
		SampleCount: 1,
		Format:      b.surfaceFormat,
		Usage:       UsageRenderTarget,
	}})

	return b, nil
}

func (b *wgpuRendererBackendImpl) SurfaceFormat() TextureFormat {
	return b.surfaceFormat
}

func (b *wgpuRendererBackendImpl) ConfigureSurface(width, height int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid surface size %dx%d", width, height)
	}

	capabilities := b.surface.GetCapabilities(b.adapter)
	b.surface.Configure(b.adapter, b.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      b.nativeSurfaceFormat,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: b.presentMode,
		AlphaMode:   capabilities.AlphaModes[0],
	})

	entry, _ := b.textures.Get(b.swapChain)
	entry.desc.Width = width
	entry.desc.Height = height
	return nil
}

func (b *wgpuRendererBackendImpl) SetPresentMode(mode PresentMode) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.presentMode = wgpuPresentMode(mode)
}

func (b *wgpuRendererBackendImpl) CreateTexture(desc TextureDescriptor) (resource.Handle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	usage := wgpu.TextureUsage(0)
	if desc.Usage&UsageRenderTarget != 0 {
		usage |= wgpu.TextureUsageRenderAttachment
	}
	if desc.Usage&UsageSampled != 0 {
		usage |= wgpu.TextureUsageTextureBinding
	}
	if desc.Usage&UsageCopySrc != 0 {
		usage |= wgpu.TextureUsageCopySrc
	}
	if desc.Usage&UsageCopyDst != 0 {
		usage |= wgpu.TextureUsageCopyDst
	}

	tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: desc.Label,
		Size: wgpu.Extent3D{
			Width:              uint32(desc.Width),
			Height:             uint32(desc.Height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   desc.SampleCount,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpuTextureFormat(desc.Format),
		Usage:         usage,
	})
	if err != nil {
		return resource.InvalidHandle, fmt.Errorf("failed to create texture %q: %w", desc.Label, err)
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return resource.InvalidHandle, fmt.Errorf("failed to create view for %q: %w", desc.Label, err)
	}

	return b.textures.Insert(&wgpuTexture{texture: tex, view: view, desc: desc}), nil
}

func (b *wgpuRendererBackendImpl) ReleaseTexture(h resource.Handle) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if h == b.swapChain {
		return
	}
	entry, ok := b.textures.Remove(h)
	if !ok {
		return
	}
	entry.view.Release()
	entry.texture.Release()
}

func (b *wgpuRendererBackendImpl) CreateProgram(desc ProgramDescriptor) (resource.Handle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.createProgramLocked(desc)
}

func (b *wgpuRendererBackendImpl) createProgramLocked(desc ProgramDescriptor) (resource.Handle, error) {
	module, err := b.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: desc.Label,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: desc.Source,
		},
	})
	if err != nil {
		return resource.InvalidHandle, fmt.Errorf("failed to compile program %q: %w", desc.Label, err)
	}

	entries := programLayoutEntries(desc)
	layout, err := b.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label:   desc.Label + " Bind Group Layout",
		Entries: entries,
	})
	if err != nil {
		module.Release()
		return resource.InvalidHandle, fmt.Errorf("failed to create bind group layout for %q: %w", desc.Label, err)
	}

	pipelineLayout, err := b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            desc.Label,
		BindGroupLayouts: []*wgpu.BindGroupLayout{layout},
	})
	if err != nil {
		layout.Release()
		module.Release()
		return resource.InvalidHandle, err
	}

	p := &wgpuProgram{
		desc:           desc,
		module:         module,
		layout:         layout,
		pipelineLayout: pipelineLayout,
		pipelines:      make(map[wgpuPipelineKey]*wgpu.RenderPipeline),
	}

	if desc.UniformSize > 0 {
		p.uniforms, err = b.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: desc.Label + " Uniform Buffer",
			Size:  desc.UniformSize,
			Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			pipelineLayout.Release()
			layout.Release()
			module.Release()
			return resource.InvalidHandle, err
		}
	}

	return b.programs.Insert(p), nil
}

func (b *wgpuRendererBackendImpl) ReleaseProgram(h resource.Handle) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if p, ok := b.programs.Remove(h); ok {
		p.release()
	}
}

func (b *wgpuRendererBackendImpl) BeginFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	// If a previous frame's surface texture is still held, acquiring another one fails with
	// "Surface image is already acquired" in wgpu-native.
	if b.frameSurface != nil {
		return fmt.Errorf("previous frame surface not yet presented")
	}

	surfaceTexture, err := b.surface.GetCurrentTexture()
	if err != nil {
		return err
	}

	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		surfaceTexture.Release()
		return err
	}

	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		view.Release()
		surfaceTexture.Release()
		return err
	}

	entry, _ := b.textures.Get(b.swapChain)
	entry.texture = surfaceTexture
	entry.view = view

	b.frameEncoder = encoder
	b.frameSurface = surfaceTexture
	return nil
}

func (b *wgpuRendererBackendImpl) SwapChainTarget() resource.Handle {
	return b.swapChain
}

func (b *wgpuRendererBackendImpl) ClearColor(target resource.Handle, c common.Color) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameEncoder == nil {
		return errNoFrame
	}
	tex, err := b.textureLocked(target)
	if err != nil {
		return err
	}
	if tex.desc.Format.IsDepth() {
		return fmt.Errorf("texture %s is a depth target", target)
	}

	pass := b.frameEncoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:    tex.view,
				LoadOp:  wgpu.LoadOpClear,
				StoreOp: wgpu.StoreOpStore,
				ClearValue: wgpu.Color{
					R: float64(c.R), G: float64(c.G), B: float64(c.B), A: float64(c.A),
				},
			},
		},
	})
	pass.End()
	pass.Release()
	return nil
}

func (b *wgpuRendererBackendImpl) ClearDepth(target resource.Handle, depth float32) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameEncoder == nil {
		return errNoFrame
	}
	tex, err := b.textureLocked(target)
	if err != nil {
		return err
	}
	if !tex.desc.Format.IsDepth() {
		return fmt.Errorf("texture %s is not a depth target", target)
	}

	pass := b.frameEncoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            tex.view,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpStore,
			DepthClearValue: depth,
		},
	})
	pass.End()
	pass.Release()
	return nil
}

func (b *wgpuRendererBackendImpl) BeginRenderPass(state pipeline.State) (RenderPass, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameEncoder == nil {
		return nil, errNoFrame
	}

	key := wgpuPipelineKey{
		rasterizer:   state.Rasterizer,
		depthStencil: state.DepthStencil,
		depthFormat:  FormatUndefined,
	}
	desc := &wgpu.RenderPassDescriptor{}
	formats := make([]string, 0, len(state.ColorTargets))
	for _, h := range state.ColorTargets {
		tex, err := b.textureLocked(h)
		if err != nil {
			return nil, err
		}
		desc.ColorAttachments = append(desc.ColorAttachments, wgpu.RenderPassColorAttachment{
			View:    tex.view,
			LoadOp:  wgpu.LoadOpLoad,
			StoreOp: wgpu.StoreOpStore,
		})
		formats = append(formats, tex.desc.Format.String())
		key.sampleCount = tex.desc.SampleCount
	}
	key.colorFormats = strings.Join(formats, ",")

	if state.DepthTarget.Valid() {
		tex, err := b.textureLocked(state.DepthTarget)
		if err != nil {
			return nil, err
		}
		desc.DepthStencilAttachment = &wgpu.RenderPassDepthStencilAttachment{
			View:         tex.view,
			DepthLoadOp:  wgpu.LoadOpLoad,
			DepthStoreOp: wgpu.StoreOpStore,
		}
		key.depthFormat = tex.desc.Format
		key.sampleCount = tex.desc.SampleCount
	}

	var program *wgpuProgram
	var rp *wgpu.RenderPipeline
	if state.Program.Valid() {
		var ok bool
		if program, ok = b.programs.Get(state.Program); !ok {
			return nil, fmt.Errorf("unknown program %s", state.Program)
		}
		var err error
		if rp, err = b.renderPipelineLocked(program, key, state.ColorTargets); err != nil {
			return nil, err
		}
	}

	pass := b.frameEncoder.BeginRenderPass(desc)
	if rp != nil {
		bindGroup, err := b.sceneBindGroupLocked(program, state.Filter)
		if err != nil {
			pass.End()
			pass.Release()
			return nil, err
		}
		pass.SetPipeline(rp)
		pass.SetBindGroup(0, bindGroup, nil)
	}

	return &wgpuRenderPass{backend: b, pass: pass, program: program}, nil
}

func (b *wgpuRendererBackendImpl) Blit(src, dst resource.Handle) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameEncoder == nil {
		return errNoFrame
	}
	s, err := b.textureLocked(src)
	if err != nil {
		return err
	}
	d, err := b.textureLocked(dst)
	if err != nil {
		return err
	}
	if s.desc.Width != d.desc.Width || s.desc.Height != d.desc.Height {
		return fmt.Errorf("blit size mismatch: %dx%d into %dx%d", s.desc.Width, s.desc.Height, d.desc.Width, d.desc.Height)
	}
	if d.desc.SampleCount > 1 || d.desc.Format.IsDepth() {
		return fmt.Errorf("blit destination %s must be single-sampled color", dst)
	}

	switch {
	case s.desc.Format.IsDepth():
		name, source, input := "depth-resolve", depthResolveSource, ProgramInput{Depth: true}
		if s.desc.SampleCount > 1 {
			name, source, input = "depth-resolve-ms", depthResolveMultisampledSource, ProgramInput{Depth: true, Multisampled: true}
		}
		program, err := b.builtinLocked(name, source, input)
		if err != nil {
			return err
		}
		return b.drawFullscreenLocked(FullscreenPass{Program: program, Inputs: []resource.Handle{src}, Target: dst})
	case s.desc.SampleCount > 1:
		if s.desc.Format != d.desc.Format {
			return fmt.Errorf("cannot resolve %s into %s", s.desc.Format, d.desc.Format)
		}
		pass := b.frameEncoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
			ColorAttachments: []wgpu.RenderPassColorAttachment{
				{
					View:          s.view,
					ResolveTarget: d.view,
					LoadOp:        wgpu.LoadOpLoad,
					StoreOp:       wgpu.StoreOpStore,
				},
			},
		})
		pass.End()
		pass.Release()
		return nil
	default:
		program, err := b.builtinLocked("copy", copySource, ProgramInput{})
		if err != nil {
			return err
		}
		return b.drawFullscreenLocked(FullscreenPass{Program: program, Inputs: []resource.Handle{src}, Target: dst})
	}
}

func (b *wgpuRendererBackendImpl) DrawFullscreen(pass FullscreenPass) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameEncoder == nil {
		return errNoFrame
	}
	return b.drawFullscreenLocked(pass)
}

func (b *wgpuRendererBackendImpl) EndFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameEncoder == nil {
		return errNoFrame
	}
	defer b.releaseFrameGarbageLocked()

	commandBuffer, err := b.frameEncoder.Finish(nil)
	b.frameEncoder.Release()
	b.frameEncoder = nil
	if err != nil {
		return fmt.Errorf("failed to finish frame: %w", err)
	}

	b.queue.Submit(commandBuffer)
	commandBuffer.Release()
	return nil
}

func (b *wgpuRendererBackendImpl) Present() {
	b.mu.Lock()
	defer b.mu.Unlock()

	// If no frame surface is held, nothing to present.
	if b.frameSurface == nil {
		return
	}

	b.surface.Present()

	entry, _ := b.textures.Get(b.swapChain)
	if entry.view != nil {
		entry.view.Release()
		entry.view = nil
	}
	entry.texture = nil
	b.frameSurface.Release()
	b.frameSurface = nil
}

func (b *wgpuRendererBackendImpl) textureLocked(h resource.Handle) (*wgpuTexture, error) {
	tex, ok := b.textures.Get(h)
	if !ok {
		return nil, fmt.Errorf("unknown texture %s", h)
	}
	if tex.view == nil {
		return nil, fmt.Errorf("texture %s has no view outside a frame", h)
	}
	return tex, nil
}

func (b *wgpuRendererBackendImpl) builtinLocked(name, source string, input ProgramInput) (resource.Handle, error) {
	if h, ok := b.builtins[name]; ok {
		return h, nil
	}
	h, err := b.createProgramLocked(ProgramDescriptor{
		Label:         name,
		Source:        source,
		VertexEntry:   "vs_main",
		FragmentEntry: "fs_main",
		Kind:          ProgramKindFullscreen,
		Inputs:        []ProgramInput{input},
	})
	if err != nil {
		return resource.InvalidHandle, err
	}
	b.builtins[name] = h
	return h, nil
}

func (b *wgpuRendererBackendImpl) drawFullscreenLocked(fp FullscreenPass) error {
	program, ok := b.programs.Get(fp.Program)
	if !ok {
		return fmt.Errorf("unknown program %s", fp.Program)
	}
	if program.desc.Kind != ProgramKindFullscreen {
		return fmt.Errorf("program %q is not a fullscreen program", program.desc.Label)
	}
	if len(fp.Inputs) != len(program.desc.Inputs) {
		return fmt.Errorf("program %q expects %d inputs, got %d", program.desc.Label, len(program.desc.Inputs), len(fp.Inputs))
	}
	target, err := b.textureLocked(fp.Target)
	if err != nil {
		return err
	}

	entries := make([]wgpu.BindGroupEntry, 0, len(fp.Inputs)+1)
	for i, h := range fp.Inputs {
		in, err := b.textureLocked(h)
		if err != nil {
			return err
		}
		entries = append(entries, wgpu.BindGroupEntry{Binding: uint32(i), TextureView: in.view})
	}
	if program.uniforms != nil {
		if uint64(len(fp.Uniforms)) > program.desc.UniformSize {
			return fmt.Errorf("uniforms for %q exceed %d bytes", program.desc.Label, program.desc.UniformSize)
		}
		if len(fp.Uniforms) > 0 {
			b.queue.WriteBuffer(program.uniforms, 0, fp.Uniforms)
		}
		entries = append(entries, wgpu.BindGroupEntry{
			Binding: uint32(len(fp.Inputs)),
			Buffer:  program.uniforms,
			Offset:  0,
			Size:    wgpu.WholeSize,
		})
	}

	key := wgpuPipelineKey{
		rasterizer:   pipeline.SolidRasterizer(pipeline.CullModeNone),
		depthStencil: pipeline.DepthTestDisabled,
		colorFormats: target.desc.Format.String(),
		sampleCount:  1,
	}
	rp, err := b.renderPipelineLocked(program, key, []resource.Handle{fp.Target})
	if err != nil {
		return err
	}

	bindGroup, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   program.desc.Label + " Bind Group",
		Layout:  program.layout,
		Entries: entries,
	})
	if err != nil {
		return err
	}
	b.frameGarbage = append(b.frameGarbage, bindGroup)

	pass := b.frameEncoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:    target.view,
				LoadOp:  wgpu.LoadOpLoad,
				StoreOp: wgpu.StoreOpStore,
			},
		},
	})
	pass.SetPipeline(rp)
	pass.SetBindGroup(0, bindGroup, nil)
	pass.Draw(3, 1, 0, 0)
	pass.End()
	pass.Release()
	return nil
}

func (b *wgpuRendererBackendImpl) sceneBindGroupLocked(program *wgpuProgram, filter pipeline.FilterMode) (*wgpu.BindGroup, error) {
	sampler := b.trilinearSampler
	if filter == pipeline.FilterModePoint {
		sampler = b.pointSampler
	}
	entries := []wgpu.BindGroupEntry{{Binding: 1, Sampler: sampler}}
	if program.uniforms != nil {
		entries = append(entries, wgpu.BindGroupEntry{
			Binding: 0,
			Buffer:  program.uniforms,
			Offset:  0,
			Size:    wgpu.WholeSize,
		})
	}
	bindGroup, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   program.desc.Label + " Bind Group",
		Layout:  program.layout,
		Entries: entries,
	})
	if err != nil {
		return nil, err
	}
	b.frameGarbage = append(b.frameGarbage, bindGroup)
	return bindGroup, nil
}

func (b *wgpuRendererBackendImpl) renderPipelineLocked(program *wgpuProgram, key wgpuPipelineKey, colorTargets []resource.Handle) (*wgpu.RenderPipeline, error) {
	if rp, ok := program.pipelines[key]; ok {
		return rp, nil
	}

	targets := make([]wgpu.ColorTargetState, 0, len(colorTargets))
	for _, h := range colorTargets {
		tex, ok := b.textures.Get(h)
		if !ok {
			return nil, fmt.Errorf("unknown texture %s", h)
		}
		format := wgpuTextureFormat(tex.desc.Format)
		if h == b.swapChain {
			format = b.nativeSurfaceFormat
		}
		targets = append(targets, wgpu.ColorTargetState{
			Format:    format,
			WriteMask: wgpu.ColorWriteMaskAll,
		})
	}

	// Wireframe fill is drawn by the program itself from the bound rasterizer state, so the
	// pipeline only differs in culling.
	cull := key.rasterizer.Cull
	if key.rasterizer.Fill == pipeline.FillModeWireframe {
		cull = pipeline.CullModeNone
	}

	var depthStencil *wgpu.DepthStencilState
	if key.depthFormat != FormatUndefined {
		depthCompare := wgpu.CompareFunctionLess
		if !key.depthStencil.DepthTest {
			depthCompare = wgpu.CompareFunctionAlways
		}
		depthStencil = &wgpu.DepthStencilState{
			Format:            wgpuTextureFormat(key.depthFormat),
			DepthWriteEnabled: key.depthStencil.DepthWrite,
			DepthCompare:      depthCompare,
			StencilFront: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
			StencilBack: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
		}
	}

	sampleCount := key.sampleCount
	if sampleCount == 0 {
		sampleCount = 1
	}

	created, err := b.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  program.desc.Label + " Render Pipeline",
		Layout: program.pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     program.module,
			EntryPoint: program.desc.VertexEntry,
		},
		Fragment: &wgpu.FragmentState{
			Module:     program.module,
			EntryPoint: program.desc.FragmentEntry,
			Targets:    targets,
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpuCullMode(cull),
		},
		Multisample: wgpu.MultisampleState{
			Count: sampleCount,
			Mask:  0xFFFFFFFF,
		},
		DepthStencil: depthStencil,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline for %q: %w", program.desc.Label, err)
	}
	program.pipelines[key] = created
	return created, nil
}

func (b *wgpuRendererBackendImpl) releaseFrameGarbageLocked() {
	for _, bg := range b.frameGarbage {
		bg.Release()
	}
	b.frameGarbage = b.frameGarbage[:0]
}

// wgpuRenderPass is the RenderPass implementation of the WebGPU backend.
type wgpuRenderPass struct {
	backend *wgpuRendererBackendImpl
	pass    *wgpu.RenderPassEncoder
	program *wgpuProgram
	ended   bool
}

func (p *wgpuRenderPass) SetUniforms(data []byte) error {
	if p.program == nil || p.program.uniforms == nil {
		return errors.New("bound program has no uniforms")
	}
	if uint64(len(data)) > p.program.desc.UniformSize {
		return fmt.Errorf("uniforms exceed %d bytes", p.program.desc.UniformSize)
	}
	p.backend.queue.WriteBuffer(p.program.uniforms, 0, data)
	return nil
}

func (p *wgpuRenderPass) Draw(vertexCount, instanceCount uint32) error {
	if p.program == nil {
		return errors.New("no program bound")
	}
	p.pass.Draw(vertexCount, instanceCount, 0, 0)
	return nil
}

func (p *wgpuRenderPass) Native() any {
	return p.pass
}

func (p *wgpuRenderPass) End() error {
	if p.ended {
		return nil
	}
	p.ended = true
	p.pass.End()
	p.pass.Release()
	return nil
}

// programLayoutEntries derives the bind group layout of a program. Fullscreen programs bind their
// inputs at 0..n-1 followed by the uniform block; scene programs bind the uniform block at 0 and
// the filtering sampler at 1.
func programLayoutEntries(desc ProgramDescriptor) []wgpu.BindGroupLayoutEntry {
	visibility := wgpu.ShaderStageVertex | wgpu.ShaderStageFragment

	if desc.Kind == ProgramKindScene {
		entries := []wgpu.BindGroupLayoutEntry{}
		if desc.UniformSize > 0 {
			entry := wgpu.BindGroupLayoutEntry{Binding: 0, Visibility: visibility}
			entry.Buffer.Type = wgpu.BufferBindingTypeUniform
			entry.Buffer.MinBindingSize = desc.UniformSize
			entries = append(entries, entry)
		}
		sampler := wgpu.BindGroupLayoutEntry{Binding: 1, Visibility: wgpu.ShaderStageFragment}
		sampler.Sampler.Type = wgpu.SamplerBindingTypeFiltering
		return append(entries, sampler)
	}

	entries := make([]wgpu.BindGroupLayoutEntry, 0, len(desc.Inputs)+1)
	for i, in := range desc.Inputs {
		entry := wgpu.BindGroupLayoutEntry{Binding: uint32(i), Visibility: wgpu.ShaderStageFragment}
		entry.Texture.ViewDimension = wgpu.TextureViewDimension2D
		entry.Texture.Multisampled = in.Multisampled
		entry.Texture.SampleType = wgpu.TextureSampleTypeUnfilterableFloat
		if in.Depth {
			entry.Texture.SampleType = wgpu.TextureSampleTypeDepth
		}
		entries = append(entries, entry)
	}
	if desc.UniformSize > 0 {
		entry := wgpu.BindGroupLayoutEntry{Binding: uint32(len(desc.Inputs)), Visibility: wgpu.ShaderStageFragment}
		entry.Buffer.Type = wgpu.BufferBindingTypeUniform
		entry.Buffer.MinBindingSize = desc.UniformSize
		entries = append(entries, entry)
	}
	return entries
}

func wgpuPresentMode(mode PresentMode) wgpu.PresentMode {
	switch mode {
	case PresentModeVSync:
		return wgpu.PresentModeFifo
	default:
		return wgpu.PresentModeImmediate
	}
}

func wgpuCullMode(c pipeline.CullMode) wgpu.CullMode {
	switch c {
	case pipeline.CullModeFront:
		return wgpu.CullModeFront
	case pipeline.CullModeBack:
		return wgpu.CullModeBack
	default:
		return wgpu.CullModeNone
	}
}

var wgpuTextureFormats = map[TextureFormat]wgpu.TextureFormat{
	FormatRGBA16Float:    wgpu.TextureFormatRGBA16Float,
	FormatR32Float:       wgpu.TextureFormatR32Float,
	FormatDepth32Float:   wgpu.TextureFormatDepth32Float,
	FormatRGBA8Unorm:     wgpu.TextureFormatRGBA8Unorm,
	FormatRGBA8UnormSrgb: wgpu.TextureFormatRGBA8UnormSrgb,
	FormatBGRA8Unorm:     wgpu.TextureFormatBGRA8Unorm,
	FormatBGRA8UnormSrgb: wgpu.TextureFormatBGRA8UnormSrgb,
}

func wgpuTextureFormat(f TextureFormat) wgpu.TextureFormat {
	if native, ok := wgpuTextureFormats[f]; ok {
		return native
	}
	return wgpu.TextureFormatUndefined
}

func textureFormatFromWGPU(native wgpu.TextureFormat) TextureFormat {
	for f, n := range wgpuTextureFormats {
		if n == native && f.IsDisplay() {
			return f
		}
	}
	return FormatUndefined
}
