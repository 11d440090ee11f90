package shader

// ProgramLoaderBuilderOption is a functional option applied to a program loader during construction via NewProgramLoader.
type ProgramLoaderBuilderOption func(*programLoader)

// WithEntryPoints overrides the vertex and fragment entry points of loaded programs.
// The defaults are "vs_main" and "fs_main".
//
// Parameters:
//   - vertex: the vertex entry point
//   - fragment: the fragment entry point
//
// Returns:
//   - ProgramLoaderBuilderOption: a function that applies the entry points to a program loader
func WithEntryPoints(vertex, fragment string) ProgramLoaderBuilderOption {
	return func(l *programLoader) {
		l.vertexEntry = vertex
		l.fragmentEntry = fragment
	}
}

// WithPreProcessorOptions passes options to the pre-processor used by ProgramBackendPreprocessed.
//
// Parameters:
//   - options: the pre-processor options
//
// Returns:
//   - ProgramLoaderBuilderOption: a function that records the options on a program loader
func WithPreProcessorOptions(options ...PreProcessorBuilderOption) ProgramLoaderBuilderOption {
	return func(l *programLoader) {
		l.ppOptions = append(l.ppOptions, options...)
	}
}
