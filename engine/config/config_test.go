package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-viewer/engine/config"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/tonemap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestDefaultResolves(t *testing.T) {
	r, err := config.Default().Resolve()
	require.NoError(t, err)
	assert.Equal(t, renderer.MSAA4x, r.SampleCount)
	assert.Equal(t, tonemap.DefaultSelection(), r.ToneMap)
	assert.Equal(t, pipeline.CullModeBack, r.CullMode)
	assert.Equal(t, pipeline.FilterModeTrilinear, r.Filter)
	assert.Equal(t, shader.ProgramBackendOriginal, r.ProgramBackend)
	assert.Equal(t, renderer.PresentModeVSync, r.PresentMode)
}

func TestLoadTOML(t *testing.T) {
	p := writeFile(t, t.TempDir(), "viewer.toml", `
sample_count = 8
cull_mode = "front"
wireframe = true
program_backend = "preprocessed"

[tonemap]
operator = "reinhard-modified"
exposure = 1.5

[profiling]
frames = 250
`)
	s, err := config.Load(p)
	require.NoError(t, err)
	assert.True(t, s.Wireframe)
	assert.Equal(t, 250, s.Profiling.Frames)
	assert.Equal(t, 1280, s.Window.Width)

	r, err := s.Resolve()
	require.NoError(t, err)
	assert.Equal(t, renderer.MSAA8x, r.SampleCount)
	assert.Equal(t, pipeline.CullModeFront, r.CullMode)
	assert.Equal(t, shader.ProgramBackendPreprocessed, r.ProgramBackend)
	assert.Equal(t, tonemap.OperatorReinhardModified, r.ToneMap.Operator)
	assert.Equal(t, float32(1.5), r.ToneMap.Params.Exposure)
	assert.Equal(t, float32(4), r.ToneMap.Params.WhitePoint)
}

func TestLoadYAML(t *testing.T) {
	p := writeFile(t, t.TempDir(), "viewer.yml", "filter: point\nwindow:\n  width: 640\n  height: 480\n")
	s, err := config.Load(p)
	require.NoError(t, err)
	assert.Equal(t, 640, s.Window.Width)

	r, err := s.Resolve()
	require.NoError(t, err)
	assert.Equal(t, pipeline.FilterModePoint, r.Filter)
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := config.Load(writeFile(t, dir, "viewer.json", "{}"))
	assert.ErrorIs(t, err, config.ErrUnknownFormat)

	_, err = config.Load(writeFile(t, dir, "bad.toml", "sample_count = 3"))
	assert.Error(t, err)

	_, err = config.Load(writeFile(t, dir, "unknown.yaml", "colour: red"))
	assert.Error(t, err)

	_, err = config.Load(writeFile(t, dir, "frames.toml", "[profiling]\nframes = 0"))
	assert.Error(t, err)

	_, err = config.Load(filepath.Join(dir, "missing.toml"))
	assert.Error(t, err)
}

func TestWatchReloads(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "viewer.toml", "wireframe = false")

	w, err := config.Watch(p)
	require.NoError(t, err)
	defer w.Close()

	writeFile(t, dir, "viewer.toml", "wireframe = true")

	// A truncating write can surface as an empty file before the new contents land.
	deadline := time.After(5 * time.Second)
	for reloaded := false; !reloaded; {
		select {
		case s := <-w.Changes():
			reloaded = s.Wireframe
		case <-deadline:
			t.Fatal("no reload observed")
		}
	}

	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
}
