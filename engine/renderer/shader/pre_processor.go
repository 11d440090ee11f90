// pre_processor.go implements the Oxy WGSL program pre-processor. It scans program
// source for @oxy: annotations, replaces them with generated WGSL declarations or
// injected source, and collects the generated bind group declarations.
//
// The pre-processor maintains two registries:
//   - structRegistry: maps include names to embedded WGSL struct sources and their
//     resolved type names. Used by @oxy:include and by the type field of @oxy:group.
//   - consts: constant values that override @oxy:const defaults.
//
// Includes that end in ".wgsl" are read from the pre-processor's file system relative
// to the including file.
package shader

import (
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"
	"sync"

	"github.com/Carmen-Shannon/oxy-viewer/engine/camera"
)

// registryEntry pairs a WGSL struct source string (embedded from a .wgsl asset file)
// with the resolved WGSL type name used in generated @group/@binding declarations.
type registryEntry struct {
	// Source is the raw WGSL struct definition text injected by @oxy:include.
	Source string

	// Type is the WGSL type name emitted in @oxy:group declarations (e.g. "CameraUniform").
	Type string
}

// preProcessor is the implementation of the PreProcessor interface.
type preProcessor struct {
	mu *sync.Mutex

	structRegistry map[string]registryEntry
	consts         map[string]string
	fsys           fs.FS

	// declarations accumulates group annotations during a Process call.
	declarations []Annotation
}

// PreProcessor expands @oxy: annotations in WGSL program source.
type PreProcessor interface {
	// Process expands the annotations of an in-memory source. File includes are resolved
	// relative to the root of the pre-processor's file system.
	//
	// The declarations list is reset at the start of each call and can be retrieved
	// via Declarations() after Process returns.
	//
	// Parameters:
	//   - source: the annotated WGSL source
	//
	// Returns:
	//   - string: the expanded WGSL source
	//   - error: an error if any annotation is malformed, unknown, or includes itself
	Process(source string) (string, error)

	// ProcessFile reads a file from the pre-processor's file system and expands it.
	//
	// Parameters:
	//   - name: the slash-separated file path
	//
	// Returns:
	//   - string: the expanded WGSL source
	//   - error: an error if the file cannot be read or expanded
	ProcessFile(name string) (string, error)

	// Declarations returns the group annotations collected during the most recent call to
	// Process or ProcessFile, in source order.
	//
	// Returns:
	//   - []Annotation: the declarations collected during the last call
	Declarations() []Annotation
}

var _ PreProcessor = &preProcessor{}

// NewPreProcessor creates a new PreProcessor with the engine's GPU struct types registered.
//
// Parameters:
//   - options: variadic list of PreProcessorBuilderOption functions
//
// Returns:
//   - PreProcessor: a ready-to-use pre-processor instance
func NewPreProcessor(options ...PreProcessorBuilderOption) PreProcessor {
	p := &preProcessor{
		mu: &sync.Mutex{},
		structRegistry: map[string]registryEntry{
			"camera": {Source: camera.GPUCameraUniformSource, Type: camera.GPUCameraUniformTypeName},
		},
		consts: make(map[string]string),
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

func (p *preProcessor) Process(source string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.declarations = nil
	return p.expand(source, ".", nil)
}

func (p *preProcessor) ProcessFile(name string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.declarations = nil
	source, err := p.read(name)
	if err != nil {
		return "", err
	}
	return p.expand(source, path.Dir(name), []string{path.Clean(name)})
}

func (p *preProcessor) Declarations() []Annotation {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.declarations
}

func (p *preProcessor) read(name string) (string, error) {
	if p.fsys == nil {
		return "", fmt.Errorf("cannot read %q: no file system configured", name)
	}
	data, err := fs.ReadFile(p.fsys, name)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// expand replaces the annotations of source. dir is the directory file includes resolve
// against and stack the chain of files currently being expanded.
func (p *preProcessor) expand(source, dir string, stack []string) (string, error) {
	lines := strings.Split(source, "\n")
	out := make([]string, 0, len(lines))
	where := "source"
	if len(stack) > 0 {
		where = stack[len(stack)-1]
	}

	for i, line := range lines {
		a, err := parseAnnotation(line, i+1)
		if err != nil {
			return "", fmt.Errorf("%s: %w", where, err)
		}
		if a == nil {
			out = append(out, line)
			continue
		}

		switch a.Type {
		case AnnotationTypeInclude:
			name := a.Args[0]
			if !strings.HasSuffix(name, ".wgsl") {
				entry, ok := p.structRegistry[name]
				if !ok {
					return "", fmt.Errorf("%s: line %d: unknown @oxy:include argument %q", where, a.Line, name)
				}
				out = append(out, entry.Source)
				continue
			}

			file := path.Join(dir, name)
			if slices.Contains(stack, file) {
				return "", fmt.Errorf("%s: line %d: include cycle through %q", where, a.Line, file)
			}
			included, err := p.read(file)
			if err != nil {
				return "", fmt.Errorf("%s: line %d: %w", where, a.Line, err)
			}
			expanded, err := p.expand(included, path.Dir(file), append(stack, file))
			if err != nil {
				return "", err
			}
			out = append(out, expanded)
		case AnnotationTypeBindingGroup:
			varName, typeKey := a.Args[1], a.Args[2]
			wgslType := typeKey
			if inner, ok := strings.CutPrefix(typeKey, "array<"); ok {
				inner = strings.TrimSuffix(inner, ">")
				if entry, ok := p.structRegistry[inner]; ok {
					wgslType = fmt.Sprintf("array<%s>", entry.Type)
				}
			} else if entry, ok := p.structRegistry[typeKey]; ok {
				wgslType = entry.Type
			}

			out = append(out, fmt.Sprintf("@group(%d) @binding(%d) %s %s: %s;", a.Group, a.Binding, addressSpaces[a.Args[0]], varName, wgslType))
			p.declarations = append(p.declarations, *a)
		case AnnotationTypeConst:
			name, value := a.Args[0], a.Args[1]
			if override, ok := p.consts[name]; ok {
				value = override
			}
			out = append(out, fmt.Sprintf("const %s = %s;", name, value))
		}
	}
	return strings.Join(out, "\n"), nil
}
