package engine_test

import (
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/Carmen-Shannon/oxy-viewer/engine"
	"github.com/Carmen-Shannon/oxy-viewer/engine/camera"
	"github.com/Carmen-Shannon/oxy-viewer/engine/config"
	"github.com/Carmen-Shannon/oxy-viewer/engine/profiler"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/renderertest"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/surface"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/tonemap"
	"github.com/Carmen-Shannon/oxy-viewer/engine/scene"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOrchestrator(t *testing.T, backend *renderertest.Backend, options ...engine.FrameOrchestratorBuilderOption) engine.FrameOrchestrator {
	t.Helper()
	session := profiler.NewSession("stats-original.txt", profiler.WithOutputDir(t.TempDir()))
	opts := append([]engine.FrameOrchestratorBuilderOption{engine.WithSession(session)}, options...)
	o, err := engine.NewFrameOrchestrator(backend, opts...)
	require.NoError(t, err)
	t.Cleanup(o.Release)
	return o
}

func newGridOrchestrator(t *testing.T, backend *renderertest.Backend, options ...engine.FrameOrchestratorBuilderOption) engine.FrameOrchestrator {
	t.Helper()
	o := newOrchestrator(t, backend, options...)
	require.NoError(t, o.LoadScene(scene.BuiltinGrid))
	require.NoError(t, o.OnResizeSwapChain(64, 48))
	backend.Reset()
	return o
}

// lastOp returns the most recent recorded op of the given kind.
func lastOp(t *testing.T, backend *renderertest.Backend, kind string) renderertest.Op {
	t.Helper()
	ops := backend.Ops()
	for i := len(ops) - 1; i >= 0; i-- {
		if ops[i].Kind == kind {
			return ops[i]
		}
	}
	require.Failf(t, "op not recorded", "no %s op", kind)
	return renderertest.Op{}
}

func TestRenderFrameOrder(t *testing.T) {
	backend := renderertest.NewBackend()
	o := newGridOrchestrator(t, backend)

	require.NoError(t, o.RenderFrame(0.016))
	assert.Equal(t, []string{
		renderertest.OpBeginFrame,
		renderertest.OpClearColor, renderertest.OpClearColor, renderertest.OpClearDepth,
		renderertest.OpClearColor,
		renderertest.OpBeginRenderPass, renderertest.OpSetUniforms, renderertest.OpDraw, renderertest.OpEndRenderPass,
		renderertest.OpBlit, renderertest.OpBlit, renderertest.OpBlit,
		renderertest.OpDrawFullscreen,
		renderertest.OpEndFrame, renderertest.OpPresent,
	}, backend.Kinds())

	pass := lastOp(t, backend, renderertest.OpBeginRenderPass)
	assert.Equal(t, o.Surfaces().Multisample().ColorHandles(), pass.State.ColorTargets)
	assert.Equal(t, pipeline.DepthTestEnabled, pass.State.DepthStencil)
	assert.Equal(t, pipeline.SolidRasterizer(pipeline.CullModeBack), pass.State.Rasterizer)

	tm := lastOp(t, backend, renderertest.OpDrawFullscreen)
	assert.Equal(t, backend.SwapChainTarget(), tm.Handles[len(tm.Handles)-1])
}

func TestRenderFrameRestoresPipelineState(t *testing.T) {
	backend := renderertest.NewBackend()
	o := newGridOrchestrator(t, backend)
	before := o.Context().State()

	require.NoError(t, o.RenderFrame(0.016))
	assert.Equal(t, 0, o.Context().StateDepth())
	assert.True(t, before.Equal(o.Context().State()))
	assert.Equal(t, pipeline.Counters{StateSets: 3, StateSwitches: 3}, o.Context().Counters())

	require.NoError(t, o.RenderFrame(0.016))
	assert.Equal(t, uint32(3), o.Context().Counters().StateSets)
}

func TestRenderFrameWithoutScene(t *testing.T) {
	backend := renderertest.NewBackend()
	o := newOrchestrator(t, backend)
	require.NoError(t, o.OnResizeSwapChain(32, 32))
	backend.Reset()

	require.NoError(t, o.RenderFrame(0.016))
	assert.Zero(t, backend.Count(renderertest.OpBeginRenderPass))
	assert.Zero(t, backend.Count(renderertest.OpDrawFullscreen))
	assert.Equal(t, backend.SwapChainTarget(), lastOp(t, backend, renderertest.OpClearColor).Handles[0])
	assert.Equal(t, 0, o.Context().StateDepth())
}

func TestRenderFrameBeforeResizeFails(t *testing.T) {
	backend := renderertest.NewBackend()
	o := newOrchestrator(t, backend)

	assert.ErrorIs(t, o.RenderFrame(0.016), surface.ErrNotConfigured)
	assert.Equal(t, 0, o.Context().StateDepth())
	assert.Equal(t, renderertest.OpPresent, backend.Kinds()[len(backend.Kinds())-1])
}

type panicScene struct {
	released bool
}

func (s *panicScene) Loaded() bool                       { return true }
func (s *panicScene) ActiveCamera() (scene.Camera, bool) { return scene.Camera{}, false }
func (s *panicScene) CameraCount() int                   { return 0 }
func (s *panicScene) Camera(int) (scene.Camera, bool)    { return scene.Camera{}, false }
func (s *panicScene) Release()                           { s.released = true }
func (s *panicScene) Draw(renderer.RenderContext, surface.Surface, camera.Camera) error {
	panic("scene exploded")
}

type failScene struct {
	panicScene
}

func (s *failScene) Draw(renderer.RenderContext, surface.Surface, camera.Camera) error {
	return errors.New("scene failed")
}

type stubLoader struct {
	scene scene.Scene
	err   error
}

func (l stubLoader) Load(string) (scene.Scene, error) {
	return l.scene, l.err
}

func TestRenderFramePopsStateOnPanic(t *testing.T) {
	backend := renderertest.NewBackend()
	o := newOrchestrator(t, backend, engine.WithSceneLoader(stubLoader{scene: &panicScene{}}))
	require.NoError(t, o.LoadScene("boom"))
	require.NoError(t, o.OnResizeSwapChain(32, 32))

	assert.Panics(t, func() { _ = o.RenderFrame(0.016) })
	assert.Equal(t, 0, o.Context().StateDepth())
	assert.Equal(t, renderertest.OpPresent, backend.Kinds()[len(backend.Kinds())-1])
	assert.NoError(t, o.OnResizeSwapChain(16, 16))
}

func TestRenderFramePopsStateOnError(t *testing.T) {
	backend := renderertest.NewBackend()
	o := newOrchestrator(t, backend, engine.WithSceneLoader(stubLoader{scene: &failScene{}}))
	require.NoError(t, o.LoadScene("fail"))
	require.NoError(t, o.OnResizeSwapChain(32, 32))
	backend.Reset()

	assert.ErrorContains(t, o.RenderFrame(0.016), "scene failed")
	assert.Equal(t, 0, o.Context().StateDepth())
	assert.Zero(t, backend.Count(renderertest.OpBlit))
	assert.Equal(t, 1, backend.Count(renderertest.OpEndFrame))
}

func TestOnResizeSwapChainIsIdempotent(t *testing.T) {
	backend := renderertest.NewBackend()
	o := newOrchestrator(t, backend)
	require.NoError(t, o.LoadScene(scene.BuiltinGrid))

	require.NoError(t, o.OnResizeSwapChain(64, 48))
	require.NoError(t, o.OnResizeSwapChain(64, 48))
	assert.Equal(t, uint64(1), o.Surfaces().Rebuilds())
	assert.Equal(t, 1, backend.Count(renderertest.OpConfigureSurface))
	assert.InDelta(t, float32(64)/48, o.Rig().Camera().Aspect(), 1e-6)
	assert.InDelta(t, camera.DefaultFov, o.Rig().Camera().Fov(), 1e-6)

	require.NoError(t, o.OnResizeSwapChain(128, 48))
	assert.Equal(t, uint64(2), o.Surfaces().Rebuilds())
	w, h := o.Surfaces().Size()
	assert.Equal(t, []int{128, 48}, []int{w, h})
	assert.InDelta(t, float32(128)/48, o.Rig().Camera().Aspect(), 1e-6)

	assert.ErrorIs(t, o.OnResizeSwapChain(0, 48), surface.ErrInvalidDimensions)
}

func TestRequestResizeAppliesBeforeFrame(t *testing.T) {
	backend := renderertest.NewBackend()
	o := newGridOrchestrator(t, backend)

	require.NoError(t, o.RequestResize(100, 50))
	assert.Equal(t, uint64(1), o.Surfaces().Rebuilds())
	require.NoError(t, o.RenderFrame(0.016))
	assert.Equal(t, uint64(2), o.Surfaces().Rebuilds())
	assert.Equal(t, renderertest.OpConfigureSurface, backend.Kinds()[0])
	w, h := backend.SurfaceSize()
	assert.Equal(t, []int{100, 50}, []int{w, h})
}

func TestRequestResizeRejectsInvalidSize(t *testing.T) {
	backend := renderertest.NewBackend()
	o := newGridOrchestrator(t, backend)

	require.NoError(t, o.RequestResize(100, 50))
	assert.ErrorIs(t, o.RequestResize(0, 0), surface.ErrInvalidDimensions)
	assert.ErrorIs(t, o.RequestResize(100, -1), surface.ErrInvalidDimensions)

	require.NoError(t, o.RenderFrame(0.016))
	w, h := backend.SurfaceSize()
	assert.Equal(t, []int{100, 50}, []int{w, h})
	assert.Equal(t, 100, o.Surfaces().Multisample().Width)
}

type resizeOverlay struct {
	o   engine.FrameOrchestrator
	err error
	got []engine.FrameStats
}

func (r *resizeOverlay) Render(_ renderer.RenderContext, stats engine.FrameStats) error {
	r.err = r.o.OnResizeSwapChain(10, 10)
	r.got = append(r.got, stats)
	return nil
}

func TestResizeRejectedDuringFrame(t *testing.T) {
	backend := renderertest.NewBackend()
	overlay := &resizeOverlay{}
	o := newGridOrchestrator(t, backend, engine.WithOverlay(overlay))
	overlay.o = o

	require.NoError(t, o.RenderFrame(0.016))
	assert.ErrorIs(t, overlay.err, engine.ErrFrameInFlight)
	require.Len(t, overlay.got, 1)
	assert.Equal(t, uint64(1), overlay.got[0].Frame)
	assert.True(t, overlay.got[0].SceneLoaded)
	assert.Equal(t, uint32(3), overlay.got[0].Counters.StateSets)
	assert.Equal(t, camera.RigModeIdle, overlay.got[0].CameraMode)
}

func TestSampleCountChangeRebuildsNextFrame(t *testing.T) {
	backend := renderertest.NewBackend()
	o := newGridOrchestrator(t, backend)

	assert.ErrorIs(t, o.SetSampleCount(3), surface.ErrUnsupportedSampleCount)
	require.NoError(t, o.SetSampleCount(renderer.MSAA2x))
	assert.Equal(t, renderer.MSAA4x, o.Surfaces().SampleCount())

	require.NoError(t, o.RenderFrame(0.016))
	assert.Equal(t, renderer.MSAA2x, o.Surfaces().SampleCount())
	assert.Equal(t, uint64(2), o.Surfaces().Rebuilds())
	assert.Zero(t, backend.Count(renderertest.OpConfigureSurface))

	require.NoError(t, o.SetSampleCount(renderer.MSAA2x))
	require.NoError(t, o.RenderFrame(0.016))
	assert.Equal(t, uint64(2), o.Surfaces().Rebuilds())
}

func TestRuntimeControlsBindPipelineState(t *testing.T) {
	backend := renderertest.NewBackend()
	o := newGridOrchestrator(t, backend)

	o.SetWireframe(true)
	o.SetCullMode(pipeline.CullModeFront)
	o.SetFilter(pipeline.FilterModePoint)
	require.NoError(t, o.RenderFrame(0.016))
	pass := lastOp(t, backend, renderertest.OpBeginRenderPass)
	assert.Equal(t, pipeline.RasterizerWireframe, pass.State.Rasterizer)
	assert.Equal(t, pipeline.FilterModePoint, pass.State.Filter)
	uniforms := lastOp(t, backend, renderertest.OpSetUniforms)
	assert.Equal(t, uint32(1), binary.LittleEndian.Uint32(uniforms.Data[80:]))

	o.SetWireframe(false)
	require.NoError(t, o.RenderFrame(0.016))
	pass = lastOp(t, backend, renderertest.OpBeginRenderPass)
	assert.Equal(t, pipeline.SolidRasterizer(pipeline.CullModeFront), pass.State.Rasterizer)
}

func TestToneMapSelectionAppliesToNextFrame(t *testing.T) {
	backend := renderertest.NewBackend()
	o := newGridOrchestrator(t, backend)

	require.NoError(t, o.RenderFrame(0.016))
	data := lastOp(t, backend, renderertest.OpDrawFullscreen).Data
	assert.Equal(t, uint32(tonemap.OperatorACES), binary.LittleEndian.Uint32(data))

	o.SetToneMap(tonemap.Selection{Operator: tonemap.OperatorReinhard, Params: tonemap.DefaultParams()})
	require.NoError(t, o.RenderFrame(0.016))
	data = lastOp(t, backend, renderertest.OpDrawFullscreen).Data
	assert.Equal(t, uint32(tonemap.OperatorReinhard), binary.LittleEndian.Uint32(data))
}

const sceneWithCameras = `
active_camera = 0

[[cameras]]
position = [3.0, 4.0, 5.0]
target = [0.0, 0.0, 0.0]
near = 0.5
far = 500.0
`

func TestKeyRoutingAndCameraReset(t *testing.T) {
	backend := renderertest.NewBackend()
	o := newOrchestrator(t, backend)
	path := filepath.Join(t.TempDir(), "cams.toml")
	require.NoError(t, os.WriteFile(path, []byte(sceneWithCameras), 0o644))
	require.NoError(t, o.LoadScene(path))
	require.NoError(t, o.OnResizeSwapChain(64, 64))

	cam := o.Rig().Camera()
	require.NotNil(t, cam)
	assert.Equal(t, common.Vec3{3, 4, 5}, cam.Position())
	assert.InDelta(t, 0.5, cam.Near(), 1e-6)

	assert.True(t, o.OnKeyEvent(common.KeyboardEvent{Type: common.KeyPressed, Key: common.KeyW}))
	require.NoError(t, o.RenderFrame(0.5))
	assert.Equal(t, camera.RigModeTracking, o.Rig().Mode())
	assert.NotEqual(t, common.Vec3{3, 4, 5}, cam.Position())
	assert.True(t, o.OnKeyEvent(common.KeyboardEvent{Type: common.KeyReleased, Key: common.KeyW}))

	o.Rig().Controller().SetSpeed(7)
	assert.True(t, o.OnKeyEvent(common.KeyboardEvent{Type: common.KeyPressed, Key: common.KeyR}))
	assert.Equal(t, common.Vec3{3, 4, 5}, cam.Position())
	assert.Equal(t, camera.DefaultSpeed, o.Rig().Controller().Speed())

	assert.False(t, o.OnKeyEvent(common.KeyboardEvent{Type: common.KeyReleased, Key: common.KeyR}))
	assert.False(t, o.OnKeyEvent(common.KeyboardEvent{Type: common.KeyPressed, Key: common.KeySpace}))
}

func TestLoadSceneFailureKeepsCurrentScene(t *testing.T) {
	backend := renderertest.NewBackend()
	o := newGridOrchestrator(t, backend)
	current := o.Scene()

	assert.Error(t, o.LoadScene(filepath.Join(t.TempDir(), "missing.toml")))
	assert.Same(t, current, o.Scene())

	require.NoError(t, o.LoadScene(scene.BuiltinGrid))
	assert.NotSame(t, current, o.Scene())
	assert.False(t, current.Loaded())
}

func TestProfilingWritesArtifact(t *testing.T) {
	backend := renderertest.NewBackend()
	dir := t.TempDir()
	session := profiler.NewSession("stats-preprocessed.txt", profiler.WithOutputDir(dir))
	o := newGridOrchestrator(t, backend, engine.WithSession(session))

	assert.ErrorIs(t, o.StartProfiling(0), profiler.ErrInvalidStopFrames)
	require.NoError(t, o.StartProfiling(3))
	for i := 0; i < 3; i++ {
		assert.True(t, session.IsActive())
		require.NoError(t, o.RenderFrame(0.016))
	}
	assert.False(t, session.IsActive())

	session.Wait()
	require.NoError(t, session.Err())
	data, err := os.ReadFile(filepath.Join(dir, "stats-preprocessed.txt"))
	require.NoError(t, err)
	fields := strings.Fields(string(data))
	require.Len(t, fields, 3)
	assert.Equal(t, "3", fields[0])
	assert.True(t, strings.HasSuffix(string(data), "\n"))
}

func TestApplySettings(t *testing.T) {
	backend := renderertest.NewBackend()
	o := newGridOrchestrator(t, backend)

	s := config.Default()
	s.Wireframe = true
	s.CullMode = "none"
	s.SampleCount = 8
	s.ToneMap.Operator = "hable"
	s.CameraSpeed = 3
	s.Profiling.Frames = 2
	s.Profiling.StartOnLoad = true
	require.NoError(t, o.ApplySettings(s))
	assert.Equal(t, float32(3), o.Rig().Controller().Speed())
	assert.True(t, o.Session().IsActive())
	assert.Equal(t, 2, o.Session().StopFrames())

	require.NoError(t, o.RenderFrame(0.016))
	assert.Equal(t, renderer.MSAA8x, o.Surfaces().SampleCount())
	assert.Equal(t, pipeline.RasterizerWireframe, lastOp(t, backend, renderertest.OpBeginRenderPass).State.Rasterizer)
	data := lastOp(t, backend, renderertest.OpDrawFullscreen).Data
	assert.Equal(t, uint32(tonemap.OperatorHableUC2), binary.LittleEndian.Uint32(data))

	s.CullMode = "sideways"
	assert.Error(t, o.ApplySettings(s))
}

func TestApplySettingsDoesNotRestartFinishedProfiling(t *testing.T) {
	backend := renderertest.NewBackend()
	o := newGridOrchestrator(t, backend)

	s := config.Default()
	s.Profiling.Frames = 1
	s.Profiling.StartOnLoad = true
	require.NoError(t, o.ApplySettings(s))
	assert.True(t, o.Session().IsActive())
	require.NoError(t, o.RenderFrame(0.016))
	assert.False(t, o.Session().IsActive())

	s.Wireframe = true
	require.NoError(t, o.ApplySettings(s))
	assert.False(t, o.Session().IsActive())
	require.NoError(t, o.ApplySettings(s))
	assert.False(t, o.Session().IsActive())

	s.Profiling.Frames = 2
	require.NoError(t, o.ApplySettings(s))
	assert.True(t, o.Session().IsActive())
	assert.Equal(t, 2, o.Session().StopFrames())
}

func TestApplySettingsKeepsPinnedScene(t *testing.T) {
	backend := renderertest.NewBackend()
	o := newOrchestrator(t, backend, engine.WithPinnedScene(scene.BuiltinGrid))

	s := config.Default()
	s.Scene = filepath.Join(t.TempDir(), "missing.toml")
	require.NoError(t, o.ApplySettings(s))
	pinned := o.Scene()
	require.NotNil(t, pinned)
	assert.True(t, pinned.Loaded())

	s.Wireframe = true
	require.NoError(t, o.ApplySettings(s))
	assert.Same(t, pinned, o.Scene())
}

func TestApplySettingsSceneFailureAppliesNothing(t *testing.T) {
	backend := renderertest.NewBackend()
	o := newGridOrchestrator(t, backend)
	current := o.Scene()

	s := config.Default()
	s.Scene = filepath.Join(t.TempDir(), "missing.toml")
	s.Wireframe = true
	s.SampleCount = 8
	s.CameraSpeed = 3
	s.Profiling.StartOnLoad = true
	assert.Error(t, o.ApplySettings(s))

	require.NoError(t, o.RenderFrame(0.016))
	assert.Same(t, current, o.Scene())
	assert.Equal(t, renderer.MSAA4x, o.Surfaces().SampleCount())
	assert.Equal(t, pipeline.SolidRasterizer(pipeline.CullModeBack), lastOp(t, backend, renderertest.OpBeginRenderPass).State.Rasterizer)
	assert.Equal(t, camera.DefaultSpeed, o.Rig().Controller().Speed())
	assert.False(t, o.Session().IsActive())
}

func TestTextOverlayPublishesChanges(t *testing.T) {
	var lines []string
	overlay := engine.NewTextOverlay(func(text string) { lines = append(lines, text) })
	stats := engine.FrameStats{Perf: profiler.Stats{FPS: 60}, SceneLoaded: true, CameraMode: camera.RigModeIdle}

	require.NoError(t, overlay.Render(nil, stats))
	require.NoError(t, overlay.Render(nil, stats))
	stats.Profiling, stats.ProfiledFrames = true, 4
	require.NoError(t, overlay.Render(nil, stats))

	require.Len(t, lines, 2)
	assert.Equal(t, "60 fps | 0 state sets, 0 switches | camera idle", lines[0])
	assert.Contains(t, lines[1], "profiling frame 4")
}
