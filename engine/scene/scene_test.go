package scene_test

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/Carmen-Shannon/oxy-viewer/engine/camera"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/renderertest"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/surface"
	"github.com/Carmen-Shannon/oxy-viewer/engine/scene"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sceneTOML = `
name = "demo"
active_camera = 1

[grid]
columns = 3
rows = 2
spacing = 2.0
intensity = 8.0

[[cameras]]
position = [0.0, 5.0, -20.0]
target = [0.0, 0.0, 0.0]
near = 0.5
far = 200.0

[[cameras]]
position = [1.0, 2.0, 3.0]
target = [4.0, 5.0, 6.0]
up = [0.0, 0.0, 1.0]
near = 1.0
far = 50.0
`

func writeScene(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoadSceneFile(t *testing.T) {
	backend := renderertest.NewBackend()
	s, err := scene.NewLoader(backend, shader.ProgramBackendOriginal).Load(writeScene(t, "demo.toml", sceneTOML))
	require.NoError(t, err)
	defer s.Release()

	assert.True(t, s.Loaded())
	assert.Equal(t, 2, s.CameraCount())

	active, ok := s.ActiveCamera()
	require.True(t, ok)
	assert.Equal(t, common.Vec3{1, 2, 3}, active.Position)
	assert.Equal(t, common.Vec3{0, 0, 1}, active.Up)

	first, ok := s.Camera(0)
	require.True(t, ok)
	assert.Equal(t, common.Vec3{0, 1, 0}, first.Up)

	_, ok = s.Camera(2)
	assert.False(t, ok)

	picked := scene.PickCamera(s)
	require.NotNil(t, picked)
	assert.Equal(t, active, *picked)
}

func TestLoadBuiltinPreprocessed(t *testing.T) {
	backend := renderertest.NewBackend()
	s, err := scene.NewLoader(backend, shader.ProgramBackendPreprocessed).Load(scene.BuiltinGrid)
	require.NoError(t, err)

	ops := backend.Ops()
	require.Len(t, ops, 1)
	require.Equal(t, renderertest.OpCreateProgram, ops[0].Kind)
	desc, ok := backend.Program(ops[0].Handles[0])
	require.True(t, ok)
	assert.Contains(t, desc.Source, "struct CameraUniform")
	assert.Contains(t, desc.Source, "@group(0) @binding(0) var<uniform> scene: SceneUniform;")
	assert.Contains(t, desc.Source, "fn edge_factor")
	assert.Equal(t, uint64(96), desc.UniformSize)

	_, ok = s.ActiveCamera()
	assert.False(t, ok)
	assert.Nil(t, scene.PickCamera(s))

	s.Release()
	s.Release()
	assert.False(t, s.Loaded())
	assert.Equal(t, 1, backend.Count(renderertest.OpReleaseProgram))
}

func TestLoadRejectsBadFiles(t *testing.T) {
	loader := scene.NewLoader(renderertest.NewBackend(), shader.ProgramBackendOriginal)

	_, err := loader.Load(writeScene(t, "empty.yaml", "grid:\n  columns: 0\n  rows: 2\n"))
	assert.Error(t, err)

	_, err = loader.Load(writeScene(t, "depth.yaml", "cameras:\n  - position: [0, 0, 1]\n    near: 5\n    far: 1\n"))
	assert.ErrorIs(t, err, camera.ErrInvalidDepthRange)

	_, err = loader.Load(writeScene(t, "scene.obj", "v 0 0 0"))
	assert.Error(t, err)
}

func TestDrawBindsTargetsAndWireframe(t *testing.T) {
	backend := renderertest.NewBackend()
	set := surface.NewSurfaceSet(backend)
	require.NoError(t, set.Configure(64, 64, renderer.MSAA4x))
	s, err := scene.NewLoader(backend, shader.ProgramBackendOriginal).Load(scene.BuiltinGrid)
	require.NoError(t, err)

	ctx := renderer.NewRenderContext(backend)
	ctx.SetState(pipeline.NewState(pipeline.WithRasterizer(pipeline.RasterizerWireframe)))
	backend.Reset()

	require.NoError(t, s.Draw(ctx, set.Multisample(), camera.NewCamera()))
	assert.Equal(t, []string{
		renderertest.OpBeginRenderPass, renderertest.OpSetUniforms, renderertest.OpDraw, renderertest.OpEndRenderPass,
	}, backend.Kinds())

	ops := backend.Ops()
	assert.Equal(t, set.Multisample().ColorHandles(), ops[0].State.ColorTargets)
	assert.Equal(t, set.Multisample().DepthHandle(), ops[0].State.DepthTarget)
	assert.Equal(t, pipeline.RasterizerWireframe, ops[0].State.Rasterizer)

	require.Len(t, ops[1].Data, 96)
	assert.Equal(t, uint32(1), binary.LittleEndian.Uint32(ops[1].Data[80:]))
	assert.Equal(t, "36x25", ops[2].Label)

	assert.Error(t, s.Draw(ctx, surface.Surface{}, camera.NewCamera()))
}
