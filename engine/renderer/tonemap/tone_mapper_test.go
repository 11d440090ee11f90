package tonemap_test

import (
	"encoding/binary"
	"testing"

	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/renderertest"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/surface"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/tonemap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOperatorCurves(t *testing.T) {
	p := tonemap.DefaultParams()

	for _, op := range []tonemap.Operator{
		tonemap.OperatorClamp, tonemap.OperatorReinhard, tonemap.OperatorReinhardModified,
		tonemap.OperatorHableUC2, tonemap.OperatorACES,
	} {
		assert.Zero(t, op.Apply(0, p), op.String())
		assert.Zero(t, op.Apply(-3, p), op.String())

		prev := float32(0)
		for x := float32(0.01); x < 64; x *= 1.5 {
			y := op.Apply(x, p)
			assert.GreaterOrEqual(t, y, prev, "%s not monotonic at %f", op, x)
			assert.LessOrEqual(t, y, float32(1), "%s exceeds 1 at %f", op, x)
			prev = y
		}
	}

	assert.InDelta(t, 0.5, tonemap.OperatorReinhard.Apply(1, p), 1e-6)
	assert.InDelta(t, 2.54/3.16, tonemap.OperatorACES.Apply(1, p), 1e-5)
	assert.InDelta(t, 1, tonemap.OperatorReinhardModified.Apply(p.WhitePoint, p), 1e-5)
	assert.InDelta(t, 1, tonemap.OperatorHableUC2.Apply(p.WhitePoint, p), 1e-5)
	assert.Equal(t, float32(1), tonemap.OperatorClamp.Apply(2, p))
}

func TestExposureScalesInput(t *testing.T) {
	p := tonemap.Params{Exposure: 1, WhitePoint: 4}
	assert.InDelta(t, 2, p.ExposureScale(), 1e-6)
	assert.InDelta(t,
		tonemap.OperatorReinhard.Apply(0.5, tonemap.DefaultParams()),
		tonemap.OperatorReinhard.Apply(0.25, p), 1e-6)
}

func TestParseOperator(t *testing.T) {
	op, err := tonemap.ParseOperator("ACES")
	require.NoError(t, err)
	assert.Equal(t, tonemap.OperatorACES, op)

	op, err = tonemap.ParseOperator("hable")
	require.NoError(t, err)
	assert.Equal(t, tonemap.OperatorHableUC2, op)

	_, err = tonemap.ParseOperator("filmic-9000")
	assert.Error(t, err)
}

func TestNewToneMapperValidatesFormats(t *testing.T) {
	backend := renderertest.NewBackend()

	_, err := tonemap.NewToneMapper(backend, renderer.FormatRGBA8Unorm, renderer.FormatBGRA8Unorm)
	assert.ErrorIs(t, err, tonemap.ErrIncompatibleFormats)

	_, err = tonemap.NewToneMapper(backend, renderer.FormatRGBA16Float, renderer.FormatRGBA16Float)
	assert.ErrorIs(t, err, tonemap.ErrIncompatibleFormats)

	_, err = tonemap.NewToneMapper(backend, renderer.FormatDepth32Float, renderer.FormatBGRA8Unorm)
	assert.ErrorIs(t, err, tonemap.ErrIncompatibleFormats)

	assert.Zero(t, backend.Count(renderertest.OpCreateProgram))

	tm, err := tonemap.NewToneMapper(backend, renderer.FormatRGBA16Float, renderer.FormatBGRA8UnormSrgb)
	require.NoError(t, err)
	desc, ok := backend.Program(tm.Program())
	require.True(t, ok)
	assert.Equal(t, renderer.ProgramKindFullscreen, desc.Kind)
	assert.Len(t, desc.Inputs, 2)
	assert.Equal(t, uint64(16), desc.UniformSize)
}

func TestExecuteDrawsResolvedColorIntoDestination(t *testing.T) {
	backend := renderertest.NewBackend(renderertest.WithSurfaceFormat(renderer.FormatBGRA8Unorm))
	set := surface.NewSurfaceSet(backend)
	require.NoError(t, set.Configure(128, 72, renderer.MSAA4x))
	tm, err := tonemap.NewToneMapper(backend, renderer.FormatRGBA16Float, backend.SurfaceFormat())
	require.NoError(t, err)
	ctx := renderer.NewRenderContext(backend)
	backend.Reset()

	sel := tonemap.Selection{Operator: tonemap.OperatorReinhard, Params: tonemap.DefaultParams()}
	require.NoError(t, tm.Execute(ctx, set.Resolved(), backend.SwapChainTarget(), sel))
	require.NoError(t, tm.Execute(ctx, set.Resolved(), backend.SwapChainTarget(), sel))

	ops := backend.Ops()
	require.Len(t, ops, 2)
	op := ops[0]
	assert.Equal(t, renderertest.OpDrawFullscreen, op.Kind)

	color, _ := set.Resolved().Attachment(surface.RoleColor0)
	aux, _ := set.Resolved().Attachment(surface.RoleAux)
	require.Len(t, op.Handles, 4)
	assert.Equal(t, tm.Program(), op.Handles[0])
	assert.Equal(t, color.Handle, op.Handles[1])
	assert.Equal(t, aux.Handle, op.Handles[2])
	assert.Equal(t, backend.SwapChainTarget(), op.Handles[3])

	require.Len(t, op.Data, 16)
	assert.Equal(t, uint32(tonemap.OperatorReinhard), binary.LittleEndian.Uint32(op.Data[0:]))
	assert.Equal(t, uint32(1), binary.LittleEndian.Uint32(op.Data[12:]))
	assert.Equal(t, ops[0].Data, ops[1].Data)
}

func TestExecuteRequiresSourceColor(t *testing.T) {
	backend := renderertest.NewBackend()
	tm, err := tonemap.NewToneMapper(backend, renderer.FormatRGBA16Float, renderer.FormatBGRA8Unorm)
	require.NoError(t, err)

	err = tm.Execute(renderer.NewRenderContext(backend), surface.Surface{Label: "empty"}, backend.SwapChainTarget(), tonemap.DefaultSelection())
	assert.Error(t, err)
}

func TestReleaseDestroysProgram(t *testing.T) {
	backend := renderertest.NewBackend()
	tm, err := tonemap.NewToneMapper(backend, renderer.FormatRGBA16Float, renderer.FormatBGRA8Unorm)
	require.NoError(t, err)

	h := tm.Program()
	tm.Release()
	tm.Release()

	_, ok := backend.Program(h)
	assert.False(t, ok)
	assert.Equal(t, 1, backend.Count(renderertest.OpReleaseProgram))
}
