package engine

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/Carmen-Shannon/oxy-viewer/engine/camera"
	"github.com/Carmen-Shannon/oxy-viewer/engine/config"
	"github.com/Carmen-Shannon/oxy-viewer/engine/profiler"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/resolver"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/surface"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/tonemap"
	"github.com/Carmen-Shannon/oxy-viewer/engine/scene"
)

// ErrFrameInFlight is returned when the swap chain is resized while a frame is being recorded.
var ErrFrameInFlight = errors.New("cannot resize while a frame is in flight")

// frameOrchestrator is the implementation of the FrameOrchestrator interface.
type frameOrchestrator struct {
	mu *sync.Mutex

	backend        renderer.Backend
	ctx            renderer.RenderContext
	surfaces       surface.SurfaceSet
	resolver       resolver.Resolver
	toneMapper     tonemap.ToneMapper
	rig            camera.CameraRig
	session        profiler.Session
	stats          *profiler.Profiler
	loader         scene.Loader
	overlay        Overlay
	programBackend shader.ProgramBackend

	scene       scene.Scene
	scenePath   string
	pinnedScene string
	retired     []scene.Scene

	// appliedProfiling is the profiling section of the last applied settings.
	appliedProfiling *config.ProfilingSettings

	wireframe   bool
	cullMode    pipeline.CullMode
	filter      pipeline.FilterMode
	toneMap     tonemap.Selection
	sampleCount renderer.MSAASampleCount
	presentMode renderer.PresentMode

	width, height int
	pending       *common.Extent
	surfaceDirty  bool
	inFrame       bool
	frame         uint64
}

// FrameOrchestrator drives one frame of the viewer: it clears the surfaces, draws the scene into
// the multisampled surface, resolves it, and tone maps the result into the swap chain. The
// pipeline state active before a frame is restored after it, even when the frame fails.
type FrameOrchestrator interface {
	// RenderFrame records and presents one frame. A pending resize is applied first.
	//
	// Parameters:
	//   - dt: the time since the previous frame in seconds
	//
	// Returns:
	//   - error: an error from resizing, the surfaces, the scene or the post-process stages
	RenderFrame(dt float32) error

	// OnResizeSwapChain reconfigures the swap chain and every surface to width x height with the
	// current sample count, then re-derives the camera aspect. Calling it again with the same size
	// does nothing.
	//
	// Parameters:
	//   - width: the new swap chain width in pixels
	//   - height: the new swap chain height in pixels
	//
	// Returns:
	//   - error: ErrFrameInFlight, surface.ErrInvalidDimensions, or an allocation error
	OnResizeSwapChain(width, height int) error

	// RequestResize queues a resize that is applied at the start of the next frame. It never
	// blocks and may be called from any goroutine. Non-positive sizes are rejected and leave any
	// already queued resize in place.
	//
	// Parameters:
	//   - width: the new swap chain width in pixels
	//   - height: the new swap chain height in pixels
	//
	// Returns:
	//   - error: surface.ErrInvalidDimensions if width or height is not positive
	RequestResize(width, height int) error

	// OnKeyEvent routes a keyboard event to the camera controller, then to the viewer shortcuts.
	// R resets the camera to the scene camera.
	//
	// Returns:
	//   - bool: true if the event was handled
	OnKeyEvent(ev common.KeyboardEvent) bool

	// OnMouseEvent routes a mouse event to the camera controller.
	//
	// Returns:
	//   - bool: true if the event was handled
	OnMouseEvent(ev common.MouseEvent) bool

	// LoadScene loads a scene file, replaces the current scene and resets the camera to the new
	// scene's camera. The previous scene is kept when loading fails.
	//
	// Parameters:
	//   - path: the scene file, or scene.BuiltinGrid
	//
	// Returns:
	//   - error: an error from the scene loader
	LoadScene(path string) error

	// ResetCamera copies the scene camera (active, else the first one) into the bound camera, or
	// the default pose when no scene camera exists.
	//
	// Returns:
	//   - error: an error if the scene camera has an invalid depth range
	ResetCamera() error

	// StartProfiling starts a profiling session over the next frames.
	//
	// Parameters:
	//   - frames: the number of frames to profile
	//
	// Returns:
	//   - error: profiler.ErrInvalidStopFrames if frames is out of range
	StartProfiling(frames int) error

	// SetWireframe toggles wireframe drawing of the scene.
	SetWireframe(enabled bool)

	// SetCullMode selects the face culling of solid drawing.
	SetCullMode(mode pipeline.CullMode)

	// SetFilter selects point or trilinear sampling.
	SetFilter(mode pipeline.FilterMode)

	// SetToneMap selects the tone-map operator. The change takes effect on the next frame.
	SetToneMap(selection tonemap.Selection)

	// SetSampleCount changes the multisample count. The surfaces are rebuilt at the start of
	// the next frame.
	//
	// Parameters:
	//   - count: the new sample count, one of 1, 2, 4 or 8
	//
	// Returns:
	//   - error: surface.ErrUnsupportedSampleCount for any other value
	SetSampleCount(count renderer.MSAASampleCount) error

	// ApplySettings applies every runtime control carried by a settings file. The settings' scene
	// is loaded first, and nothing else is applied when that fails. A pinned scene replaces the
	// settings' scene. Profiling.StartOnLoad starts a session only when the profiling section
	// differs from the one last applied, so reapplying unrelated changes never restarts it.
	//
	// Parameters:
	//   - s: the settings to apply
	//
	// Returns:
	//   - error: a validation error, or an error loading the settings' scene
	ApplySettings(s config.Settings) error

	// Context returns the render context every frame is recorded into.
	Context() renderer.RenderContext

	// Surfaces returns the frame's surface set.
	Surfaces() surface.SurfaceSet

	// Rig returns the camera rig.
	Rig() camera.CameraRig

	// Session returns the profiling session.
	Session() profiler.Session

	// Scene returns the current scene, or nil.
	Scene() scene.Scene

	// Release destroys the scene, the surfaces and the tone-map program, and waits for pending
	// profiling artifacts.
	Release()
}

var _ FrameOrchestrator = &frameOrchestrator{}

// frameSnapshot holds the runtime controls read once at the top of a frame.
type frameSnapshot struct {
	scene     scene.Scene
	wireframe bool
	cullMode  pipeline.CullMode
	filter    pipeline.FilterMode
	toneMap   tonemap.Selection
	frame     uint64
}

func (f frameSnapshot) rasterizer() pipeline.RasterizerState {
	if f.wireframe {
		return pipeline.RasterizerWireframe
	}
	return pipeline.SolidRasterizer(f.cullMode)
}

// NewFrameOrchestrator creates a FrameOrchestrator over backend. Collaborators that are not
// supplied through options are created with their defaults. The orchestrator owns every
// collaborator it is given and releases them in Release.
//
// The surfaces are empty until the first OnResizeSwapChain or RequestResize.
//
// Parameters:
//   - backend: the GPU backend
//   - options: variadic list of FrameOrchestratorBuilderOption functions
//
// Returns:
//   - FrameOrchestrator: the new orchestrator
//   - error: tonemap.ErrIncompatibleFormats or a program compilation error
func NewFrameOrchestrator(backend renderer.Backend, options ...FrameOrchestratorBuilderOption) (FrameOrchestrator, error) {
	o := &frameOrchestrator{
		mu:          &sync.Mutex{},
		backend:     backend,
		cullMode:    pipeline.CullModeBack,
		filter:      pipeline.FilterModeTrilinear,
		toneMap:     tonemap.DefaultSelection(),
		sampleCount: renderer.MSAA4x,
		presentMode: renderer.PresentModeVSync,
	}
	for _, opt := range options {
		opt(o)
	}

	if o.ctx == nil {
		o.ctx = renderer.NewRenderContext(backend)
	}
	if o.surfaces == nil {
		o.surfaces = surface.NewSurfaceSet(backend)
	}
	if o.resolver == nil {
		o.resolver = resolver.NewResolver()
	}
	if o.rig == nil {
		o.rig = camera.NewCameraRig()
	}
	if o.session == nil {
		o.session = profiler.NewSession(o.programBackend.StatsFileName())
	}
	if o.stats == nil {
		o.stats = profiler.NewProfiler()
	}
	if o.loader == nil {
		o.loader = scene.NewLoader(backend, o.programBackend)
	}
	if o.toneMapper == nil {
		tm, err := tonemap.NewToneMapper(backend, surface.ResolvedLayout[0].Format, backend.SurfaceFormat())
		if err != nil {
			return nil, fmt.Errorf("failed to create tone mapper: %w", err)
		}
		o.toneMapper = tm
	}
	return o, nil
}

func (o *frameOrchestrator) RenderFrame(dt float32) (err error) {
	f, err := o.beginFrame()
	if err != nil {
		return err
	}
	defer o.finishFrame()

	o.ctx.ResetCounters()
	o.session.BeginFrame()

	if err := o.backend.BeginFrame(); err != nil {
		return fmt.Errorf("failed to begin frame: %w", err)
	}
	defer func() {
		endErr := o.backend.EndFrame()
		o.backend.Present()
		if err == nil && endErr != nil {
			err = fmt.Errorf("failed to end frame: %w", endErr)
		}
	}()

	if err := o.drawFrame(f, dt); err != nil {
		return err
	}

	perfUpdated := o.stats.Tick()
	stats := FrameStats{
		Frame:          f.frame,
		DeltaTime:      dt,
		Counters:       o.ctx.Counters(),
		SceneLoaded:    f.scene != nil && f.scene.Loaded(),
		CameraMode:     o.rig.Mode(),
		Profiling:      o.session.IsActive(),
		ProfiledFrames: o.session.FrameCount(),
		Perf:           o.stats.Last(),
		PerfUpdated:    perfUpdated,
	}
	if o.overlay != nil {
		if err := o.overlay.Render(o.ctx, stats); err != nil {
			return fmt.Errorf("failed to render overlay: %w", err)
		}
	}

	o.session.Tick()
	return nil
}

// beginFrame applies pending resizes and retired scenes, marks the frame in flight and
// snapshots the runtime controls.
func (o *frameOrchestrator) beginFrame() (frameSnapshot, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.inFrame {
		return frameSnapshot{}, ErrFrameInFlight
	}

	for _, s := range o.retired {
		s.Release()
	}
	o.retired = nil

	if o.pending != nil {
		size := *o.pending
		if err := o.resizeLocked(size.Width, size.Height); err != nil {
			return frameSnapshot{}, err
		}
	}

	o.inFrame = true
	o.frame++
	return frameSnapshot{
		scene:     o.scene,
		wireframe: o.wireframe,
		cullMode:  o.cullMode,
		filter:    o.filter,
		toneMap:   o.toneMap,
		frame:     o.frame,
	}, nil
}

func (o *frameOrchestrator) finishFrame() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.inFrame = false
}

// drawFrame records the scene and post-process stages between a push and a pop of the
// pipeline state.
func (o *frameOrchestrator) drawFrame(f frameSnapshot, dt float32) (err error) {
	o.ctx.PushState()
	defer func() {
		if popErr := o.ctx.PopState(); popErr != nil && err == nil {
			err = fmt.Errorf("failed to restore pipeline state: %w", popErr)
		}
	}()

	if err := o.surfaces.Clear(o.ctx); err != nil {
		return fmt.Errorf("failed to clear surfaces: %w", err)
	}

	swapChain := o.backend.SwapChainTarget()
	if f.scene == nil || !f.scene.Loaded() {
		return o.backend.ClearColor(swapChain, o.surfaces.ClearColor())
	}

	o.rig.Update(dt)
	cam := o.rig.Camera()
	if cam == nil {
		if err := o.rig.ResetCamera(scene.PickCamera(f.scene)); err != nil {
			return err
		}
		cam = o.rig.Camera()
	}

	state := o.ctx.State()
	state.Rasterizer = f.rasterizer()
	state.DepthStencil = pipeline.DepthTestEnabled
	state.Filter = f.filter
	o.ctx.SetState(state)

	multisample, resolved := o.surfaces.Multisample(), o.surfaces.Resolved()
	if err := f.scene.Draw(o.ctx, multisample, cam); err != nil {
		return fmt.Errorf("failed to draw scene: %w", err)
	}
	if err := o.resolver.Resolve(o.ctx, multisample, resolved); err != nil {
		return err
	}

	state = o.ctx.State()
	state.DepthStencil = pipeline.DepthTestDisabled
	o.ctx.SetState(state)
	if err := o.toneMapper.Execute(o.ctx, resolved, swapChain, f.toneMap); err != nil {
		return fmt.Errorf("failed to tone map: %w", err)
	}
	return nil
}

func (o *frameOrchestrator) OnResizeSwapChain(width, height int) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.inFrame {
		return ErrFrameInFlight
	}
	return o.resizeLocked(width, height)
}

// resizeLocked reconfigures the swap chain when its size or present mode changed, then the
// surfaces and the camera aspect. Caller must hold the mutex.
func (o *frameOrchestrator) resizeLocked(width, height int) error {
	o.pending = nil
	if width <= 0 || height <= 0 {
		return fmt.Errorf("resize to %dx%d: %w", width, height, surface.ErrInvalidDimensions)
	}

	if width != o.width || height != o.height || o.surfaceDirty {
		if err := o.backend.ConfigureSurface(width, height); err != nil {
			return fmt.Errorf("failed to configure swap chain: %w", err)
		}
		o.width, o.height = width, height
		o.surfaceDirty = false
	}

	rebuilds := o.surfaces.Rebuilds()
	if err := o.surfaces.Configure(width, height, o.sampleCount); err != nil {
		return fmt.Errorf("failed to resize surfaces: %w", err)
	}
	if o.surfaces.Rebuilds() != rebuilds {
		common.Logger().Info("surfaces rebuilt", "width", width, "height", height, "samples", o.sampleCount)
	}
	o.rig.SetViewport(width, height)
	return nil
}

func (o *frameOrchestrator) RequestResize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("resize to %dx%d: %w", width, height, surface.ErrInvalidDimensions)
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.pending = &common.Extent{Width: width, Height: height}
	return nil
}

func (o *frameOrchestrator) OnKeyEvent(ev common.KeyboardEvent) bool {
	if o.rig.OnKeyEvent(ev) {
		return true
	}
	if ev.Type != common.KeyPressed {
		return false
	}
	switch ev.Key {
	case common.KeyR:
		if err := o.ResetCamera(); err != nil {
			common.Logger().Warn("camera reset failed", "error", err)
		}
		return true
	}
	return false
}

func (o *frameOrchestrator) OnMouseEvent(ev common.MouseEvent) bool {
	return o.rig.OnMouseEvent(ev)
}

func (o *frameOrchestrator) LoadScene(path string) error {
	s, err := o.loader.Load(path)
	if err != nil {
		return err
	}

	o.mu.Lock()
	if o.scene != nil {
		if o.inFrame {
			o.retired = append(o.retired, o.scene)
		} else {
			o.scene.Release()
		}
	}
	o.scene = s
	o.scenePath = path
	o.mu.Unlock()

	return o.ResetCamera()
}

func (o *frameOrchestrator) ResetCamera() error {
	o.mu.Lock()
	s := o.scene
	o.mu.Unlock()

	var source *scene.Camera
	if s != nil {
		source = scene.PickCamera(s)
	}
	return o.rig.ResetCamera(source)
}

func (o *frameOrchestrator) StartProfiling(frames int) error {
	if err := o.session.Start(frames); err != nil {
		return err
	}
	common.Logger().Info("profiling started", "frames", frames, "path", o.session.Path())
	return nil
}

func (o *frameOrchestrator) SetWireframe(enabled bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.wireframe = enabled
}

func (o *frameOrchestrator) SetCullMode(mode pipeline.CullMode) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.cullMode = mode
}

func (o *frameOrchestrator) SetFilter(mode pipeline.FilterMode) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.filter = mode
}

func (o *frameOrchestrator) SetToneMap(selection tonemap.Selection) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.toneMap = selection
}

func (o *frameOrchestrator) SetSampleCount(count renderer.MSAASampleCount) error {
	if !count.Valid() {
		return fmt.Errorf("sample count %d: %w", count, surface.ErrUnsupportedSampleCount)
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.setSampleCountLocked(count)
	return nil
}

func (o *frameOrchestrator) setSampleCountLocked(count renderer.MSAASampleCount) {
	if count == o.sampleCount {
		return
	}
	o.sampleCount = count
	o.queueRebuildLocked()
}

// queueRebuildLocked schedules a resize at the current size. Nothing is queued before the
// first resize, which will pick up the new parameters.
func (o *frameOrchestrator) queueRebuildLocked() {
	if o.pending == nil && o.width > 0 && o.height > 0 {
		o.pending = &common.Extent{Width: o.width, Height: o.height}
	}
}

func (o *frameOrchestrator) ApplySettings(s config.Settings) error {
	r, err := s.Resolve()
	if err != nil {
		return err
	}
	if r.ProgramBackend != o.programBackend {
		common.Logger().Warn("program backend is fixed at startup, ignoring change",
			"current", o.programBackend, "requested", r.ProgramBackend)
	}

	o.mu.Lock()
	path := s.Scene
	if o.pinnedScene != "" {
		path = o.pinnedScene
	}
	reload := path != "" && path != o.scenePath
	o.mu.Unlock()

	if reload {
		if err := o.LoadScene(path); err != nil {
			return err
		}
	}

	o.mu.Lock()
	o.wireframe = s.Wireframe
	o.cullMode = r.CullMode
	o.filter = r.Filter
	o.toneMap = r.ToneMap
	o.setSampleCountLocked(r.SampleCount)
	if r.PresentMode != o.presentMode {
		o.presentMode = r.PresentMode
		o.backend.SetPresentMode(r.PresentMode)
		o.surfaceDirty = true
		o.queueRebuildLocked()
	}
	profiling := s.Profiling
	startProfiling := profiling.StartOnLoad && (o.appliedProfiling == nil || *o.appliedProfiling != profiling)
	o.appliedProfiling = &profiling
	o.mu.Unlock()

	if s.CameraSpeed > 0 {
		o.rig.Controller().SetSpeed(s.CameraSpeed)
	}
	if startProfiling && !o.session.IsActive() {
		return o.StartProfiling(profiling.Frames)
	}
	return nil
}

func (o *frameOrchestrator) Context() renderer.RenderContext {
	return o.ctx
}

func (o *frameOrchestrator) Surfaces() surface.SurfaceSet {
	return o.surfaces
}

func (o *frameOrchestrator) Rig() camera.CameraRig {
	return o.rig
}

func (o *frameOrchestrator) Session() profiler.Session {
	return o.session
}

func (o *frameOrchestrator) Scene() scene.Scene {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.scene
}

func (o *frameOrchestrator) Release() {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, s := range o.retired {
		s.Release()
	}
	o.retired = nil
	if o.scene != nil {
		o.scene.Release()
		o.scene = nil
	}
	o.toneMapper.Release()
	o.surfaces.Release()
	o.session.Close()
}
