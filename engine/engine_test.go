package engine_test

import (
	"sync"
	"testing"

	"github.com/Carmen-Shannon/oxy-viewer/engine"
	"github.com/Carmen-Shannon/oxy-viewer/engine/config"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/renderertest"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/surface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// quitOverlay stops the engine after a number of frames.
type quitOverlay struct {
	mu     sync.Mutex
	after  int
	frames int
	quit   func()
}

func (q *quitOverlay) Render(renderer.RenderContext, engine.FrameStats) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.frames++
	if q.frames == q.after && q.quit != nil {
		q.quit()
	}
	return nil
}

type fakeWatcher struct {
	changes chan config.Settings
	mu      sync.Mutex
	closed  bool
}

func (w *fakeWatcher) Changes() <-chan config.Settings { return w.changes }
func (w *fakeWatcher) Errors() <-chan error            { return nil }

func (w *fakeWatcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}

func TestNewEngineRequiresOrchestrator(t *testing.T) {
	_, err := engine.NewEngine()
	assert.Error(t, err)
}

func TestEngineRunsUntilQuit(t *testing.T) {
	backend := renderertest.NewBackend()
	overlay := &quitOverlay{after: 3}
	o := newGridOrchestrator(t, backend, engine.WithOverlay(overlay))
	watcher := &fakeWatcher{changes: make(chan config.Settings)}

	e, err := engine.NewEngine(engine.WithOrchestrator(o), engine.WithSettingsWatcher(watcher))
	require.NoError(t, err)
	overlay.quit = e.Quit

	require.NoError(t, e.Run())
	assert.Equal(t, 3, overlay.frames)
	assert.Equal(t, 3, backend.Count(renderertest.OpPresent))
	assert.True(t, watcher.closed)
	e.Quit()
}

func TestEngineAppliesReloadedSettingsBetweenFrames(t *testing.T) {
	backend := renderertest.NewBackend()
	overlay := &quitOverlay{after: 1}
	o := newGridOrchestrator(t, backend, engine.WithOverlay(overlay))

	s := config.Default()
	s.Wireframe = true
	s.SampleCount = 1
	watcher := &fakeWatcher{changes: make(chan config.Settings, 1)}
	watcher.changes <- s

	e, err := engine.NewEngine(engine.WithOrchestrator(o), engine.WithSettingsWatcher(watcher))
	require.NoError(t, err)
	overlay.quit = e.Quit

	require.NoError(t, e.Run())
	assert.Equal(t, renderer.MSAAOff, o.Surfaces().SampleCount())
	assert.Equal(t, pipeline.RasterizerWireframe, lastOp(t, backend, renderertest.OpBeginRenderPass).State.Rasterizer)
}

func TestEngineStopsOnFrameError(t *testing.T) {
	backend := renderertest.NewBackend()
	o := newOrchestrator(t, backend)

	e, err := engine.NewEngine(engine.WithOrchestrator(o))
	require.NoError(t, err)
	err = e.Run()
	assert.ErrorIs(t, err, surface.ErrNotConfigured)
	assert.Equal(t, err, e.Err())
}

func TestEngineRecoversRenderPanic(t *testing.T) {
	backend := renderertest.NewBackend()
	o := newOrchestrator(t, backend, engine.WithSceneLoader(stubLoader{scene: &panicScene{}}))
	require.NoError(t, o.LoadScene("boom"))
	require.NoError(t, o.OnResizeSwapChain(32, 32))

	e, err := engine.NewEngine(engine.WithOrchestrator(o))
	require.NoError(t, err)
	assert.ErrorContains(t, e.Run(), "scene exploded")
	assert.Equal(t, 0, o.Context().StateDepth())
}
