package shader_test

import (
	"testing"
	"testing/fstest"

	"github.com/Carmen-Shannon/oxy-viewer/engine/camera"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/shader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProgramBackend(t *testing.T) {
	b, err := shader.ParseProgramBackend("")
	require.NoError(t, err)
	assert.Equal(t, shader.ProgramBackendOriginal, b)

	b, err = shader.ParseProgramBackend("Preprocessed")
	require.NoError(t, err)
	assert.Equal(t, shader.ProgramBackendPreprocessed, b)

	_, err = shader.ParseProgramBackend("spirv")
	assert.ErrorIs(t, err, shader.ErrUnknownProgramBackend)
}

func TestProgramBackendNames(t *testing.T) {
	assert.Equal(t, "stats-original.txt", shader.ProgramBackendOriginal.StatsFileName())
	assert.Equal(t, "stats-preprocessed.txt", shader.ProgramBackendPreprocessed.StatsFileName())
	assert.Equal(t, "Oxy Scene Viewer", shader.ProgramBackendOriginal.WindowTitle())
	assert.Equal(t, "Oxy+Preprocessed Scene Viewer", shader.ProgramBackendPreprocessed.WindowTitle())
	assert.Equal(t, "scene.oxy.wgsl", shader.ProgramBackendPreprocessed.FileName("scene"))
}

func TestPreProcessorExpandsAnnotations(t *testing.T) {
	pp := shader.NewPreProcessor(shader.WithConst("WIDTH", "2.0"))
	out, err := pp.Process("//@oxy:include camera\n//@oxy:group 0 0 uniform cam camera\n// @oxy:const WIDTH 1.0\nfn f() {}")
	require.NoError(t, err)

	assert.Contains(t, out, camera.GPUCameraUniformSource)
	assert.Contains(t, out, "@group(0) @binding(0) var<uniform> cam: CameraUniform;")
	assert.Contains(t, out, "const WIDTH = 2.0;")
	assert.Contains(t, out, "fn f() {}")

	decls := pp.Declarations()
	require.Len(t, decls, 1)
	assert.Equal(t, shader.AnnotationTypeBindingGroup, decls[0].Type)
	assert.Equal(t, 2, decls[0].Line)
}

func TestPreProcessorErrors(t *testing.T) {
	pp := shader.NewPreProcessor()

	_, err := pp.Process("//@oxy:include nothing")
	assert.Error(t, err)

	_, err = pp.Process("//@oxy:group x 0 uniform a b")
	assert.Error(t, err)

	_, err = pp.Process("//@oxy:group 0 0 private a b")
	assert.Error(t, err)

	_, err = pp.Process("//@oxy:paint red")
	assert.Error(t, err)
}

func TestPreProcessorFileIncludes(t *testing.T) {
	fsys := fstest.MapFS{
		"main.wgsl":        {Data: []byte("//@oxy:include lib/common.wgsl\nfn main() {}")},
		"lib/common.wgsl":  {Data: []byte("//@oxy:include helpers.wgsl\nfn common() {}")},
		"lib/helpers.wgsl": {Data: []byte("fn helper() {}")},
		"loop/a.wgsl":      {Data: []byte("//@oxy:include b.wgsl")},
		"loop/b.wgsl":      {Data: []byte("//@oxy:include a.wgsl")},
	}
	pp := shader.NewPreProcessor(shader.WithFS(fsys))

	out, err := pp.ProcessFile("main.wgsl")
	require.NoError(t, err)
	assert.Equal(t, "fn helper() {}\nfn common() {}\nfn main() {}", out)

	_, err = pp.ProcessFile("loop/a.wgsl")
	assert.ErrorContains(t, err, "include cycle")
}

func TestProgramLoader(t *testing.T) {
	fsys := fstest.MapFS{
		"scene.wgsl":     {Data: []byte("fn vs_main() {}")},
		"scene.oxy.wgsl": {Data: []byte("//@oxy:group 0 0 uniform cam camera\nfn vs_main() {}")},
	}

	original := shader.NewProgramLoader(shader.ProgramBackendOriginal, fsys)
	desc, err := original.Load("scene", 96)
	require.NoError(t, err)
	assert.Equal(t, "fn vs_main() {}", desc.Source)
	assert.Equal(t, renderer.ProgramKindScene, desc.Kind)
	assert.Equal(t, uint64(96), desc.UniformSize)
	assert.Equal(t, "vs_main", desc.VertexEntry)
	assert.Empty(t, original.Declarations())

	pre := shader.NewProgramLoader(shader.ProgramBackendPreprocessed, fsys, shader.WithEntryPoints("v", "f"))
	desc, err = pre.Load("scene", 96)
	require.NoError(t, err)
	assert.Contains(t, desc.Source, "var<uniform> cam: CameraUniform;")
	assert.Equal(t, "f", desc.FragmentEntry)
	assert.Len(t, pre.Declarations(), 1)

	_, err = original.Load("missing", 0)
	assert.Error(t, err)
}
