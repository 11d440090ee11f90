package pipeline

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/resource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPopRestoresVerbatim(t *testing.T) {
	initial := NewState(WithTargets(resource.Handle(9), resource.Handle(7)))
	st := NewStateStack(initial)

	st.Push()
	st.Set(NewState(WithRasterizer(RasterizerWireframe)))
	st.Set(NewState(WithDepthStencil(DepthTestEnabled), WithFilter(FilterModePoint)))
	require.NoError(t, st.Pop())

	assert.True(t, st.Current().Equal(initial))
	assert.Equal(t, 0, st.Depth())
	assert.Equal(t, st.Pushes(), st.Pops())
}

func TestPopEmpty(t *testing.T) {
	st := NewStateStack(NewState())
	assert.ErrorIs(t, st.Pop(), ErrStateStackEmpty)
	assert.Zero(t, st.Pops())
}

func TestCounters(t *testing.T) {
	st := NewStateStack(NewState())
	same := NewState()
	st.Set(same)
	st.Set(NewState(WithRasterizer(SolidRasterizer(CullModeFront))))

	c := st.Counters()
	assert.Equal(t, uint32(2), c.StateSets)
	assert.Equal(t, uint32(1), c.StateSwitches)

	st.ResetCounters()
	assert.Equal(t, Counters{}, st.Counters())
}

func TestCurrentIsACopy(t *testing.T) {
	st := NewStateStack(NewState(WithTargets(resource.InvalidHandle, resource.Handle(1))))
	cur := st.Current()
	cur.ColorTargets[0] = resource.Handle(42)
	assert.Equal(t, resource.Handle(1), st.Current().ColorTargets[0])
}

func TestParseCullMode(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want CullMode
	}{
		{"none", CullModeNone},
		{"Back", CullModeBack},
		{"FRONT", CullModeFront},
	} {
		got, err := ParseCullMode(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got)
		assert.Equal(t, got, mustParse(t, got.String()))
	}

	_, err := ParseCullMode("sideways")
	assert.Error(t, err)
}

func mustParse(t *testing.T, s string) CullMode {
	t.Helper()
	c, err := ParseCullMode(s)
	require.NoError(t, err)
	return c
}
