package shader

import (
	"io/fs"
)

// PreProcessorBuilderOption is a functional option applied to a pre-processor during construction via NewPreProcessor.
type PreProcessorBuilderOption func(*preProcessor)

// WithInclude registers a struct source under an include name.
//
// Parameters:
//   - name: the name used in @oxy:include and @oxy:group annotations
//   - source: the WGSL struct source
//   - typeName: the WGSL type name declared by source
//
// Returns:
//   - PreProcessorBuilderOption: a function that registers the include on a pre-processor
func WithInclude(name, source, typeName string) PreProcessorBuilderOption {
	return func(p *preProcessor) {
		p.structRegistry[name] = registryEntry{Source: source, Type: typeName}
	}
}

// WithConst overrides the value of an @oxy:const annotation.
//
// Parameters:
//   - name: the constant name
//   - value: the WGSL expression to use
//
// Returns:
//   - PreProcessorBuilderOption: a function that applies the constant override to a pre-processor
func WithConst(name, value string) PreProcessorBuilderOption {
	return func(p *preProcessor) {
		p.consts[name] = value
	}
}

// WithFS sets the file system that file includes and ProcessFile read from.
//
// Parameters:
//   - fsys: the file system
//
// Returns:
//   - PreProcessorBuilderOption: a function that applies the file system option to a pre-processor
func WithFS(fsys fs.FS) PreProcessorBuilderOption {
	return func(p *preProcessor) {
		p.fsys = fsys
	}
}
