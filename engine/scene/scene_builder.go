package scene

import (
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/shader"
)

// LoaderBuilderOption is a functional option for configuring a Loader.
// Use the With* functions to create options.
type LoaderBuilderOption func(l *fileLoader)

// WithProgramLoader replaces the program loader scenes compile their programs with.
//
// Parameters:
//   - loader: the program loader
//
// Returns:
//   - LoaderBuilderOption: option function to apply
func WithProgramLoader(loader shader.ProgramLoader) LoaderBuilderOption {
	return func(l *fileLoader) {
		l.loader = loader
	}
}
