package tonemap

import (
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/surface"
)

// ToneMapperBuilderOption is a functional option applied to a tone mapper during construction via NewToneMapper.
type ToneMapperBuilderOption func(*toneMapper)

// WithSourceRole selects which attachment of the source surface is tone mapped.
// The default is surface.RoleColor0.
//
// Parameters:
//   - role: the source attachment role
//
// Returns:
//   - ToneMapperBuilderOption: a function that applies the source role option to a tone mapper
func WithSourceRole(role surface.Role) ToneMapperBuilderOption {
	return func(t *toneMapper) {
		t.sourceRole = role
	}
}
