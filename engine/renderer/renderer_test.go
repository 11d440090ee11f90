package renderer_test

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/renderertest"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/resource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderContextBeginRenderPassUsesActiveState(t *testing.T) {
	backend := renderertest.NewBackend()
	ctx := renderer.NewRenderContext(backend)

	color, err := backend.CreateTexture(renderer.TextureDescriptor{Label: "color", Width: 4, Height: 4, SampleCount: 1, Format: renderer.FormatRGBA16Float})
	require.NoError(t, err)

	state := pipeline.NewState(
		pipeline.WithTargets(resource.InvalidHandle, color),
		pipeline.WithRasterizer(pipeline.RasterizerWireframe),
	)
	ctx.SetState(state)

	pass, err := ctx.BeginRenderPass()
	require.NoError(t, err)
	require.NoError(t, pass.End())

	ops := backend.Ops()
	require.Len(t, ops, 3)
	assert.Equal(t, renderertest.OpBeginRenderPass, ops[1].Kind)
	assert.True(t, state.Equal(ops[1].State))
	assert.Equal(t, renderertest.OpEndRenderPass, ops[2].Kind)
}

func TestRenderContextPushPopRestoresState(t *testing.T) {
	initial := pipeline.NewState(pipeline.WithFilter(pipeline.FilterModePoint))
	ctx := renderer.NewRenderContext(renderertest.NewBackend(), renderer.WithInitialState(initial))

	ctx.PushState()
	ctx.SetState(pipeline.NewState(pipeline.WithRasterizer(pipeline.SolidRasterizer(pipeline.CullModeFront))))
	assert.Equal(t, 1, ctx.StateDepth())
	require.NoError(t, ctx.PopState())

	assert.True(t, initial.Equal(ctx.State()))
	assert.Equal(t, 0, ctx.StateDepth())
	assert.ErrorIs(t, ctx.PopState(), pipeline.ErrStateStackEmpty)
}

func TestRenderContextCounters(t *testing.T) {
	ctx := renderer.NewRenderContext(renderertest.NewBackend())
	s := ctx.State()

	ctx.SetState(s)
	ctx.SetState(pipeline.NewState(pipeline.WithDepthStencil(pipeline.DepthTestEnabled)))

	assert.Equal(t, pipeline.Counters{StateSets: 2, StateSwitches: 1}, ctx.Counters())
	ctx.ResetCounters()
	assert.Equal(t, pipeline.Counters{}, ctx.Counters())
}

func TestMSAASampleCountValid(t *testing.T) {
	for _, c := range []renderer.MSAASampleCount{1, 2, 4, 8} {
		assert.True(t, c.Valid(), "%d", c)
	}
	for _, c := range []renderer.MSAASampleCount{0, 3, 16} {
		assert.False(t, c.Valid(), "%d", c)
	}
}

func TestParsePresentMode(t *testing.T) {
	m, err := renderer.ParsePresentMode("vsync")
	require.NoError(t, err)
	assert.Equal(t, renderer.PresentModeVSync, m)

	m, err = renderer.ParsePresentMode("")
	require.NoError(t, err)
	assert.Equal(t, renderer.PresentModeUncapped, m)

	_, err = renderer.ParsePresentMode("triple")
	assert.Error(t, err)
}

func TestTextureFormatClassification(t *testing.T) {
	assert.True(t, renderer.FormatDepth32Float.IsDepth())
	assert.True(t, renderer.FormatRGBA16Float.IsFloat())
	assert.True(t, renderer.FormatBGRA8UnormSrgb.IsDisplay())
	assert.False(t, renderer.FormatR32Float.IsDisplay())
	assert.Equal(t, "RGBA16Float", renderer.FormatRGBA16Float.String())
}
